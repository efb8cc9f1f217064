package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntToUint32(t *testing.T) {
	t.Run("valid zero", func(t *testing.T) {
		got, err := IntToUint32(0)
		assert.NoError(t, err)
		assert.Equal(t, uint32(0), got)
	})

	t.Run("valid positive", func(t *testing.T) {
		got, err := IntToUint32(123)
		assert.NoError(t, err)
		assert.Equal(t, uint32(123), got)
	})

	t.Run("invalid negative", func(t *testing.T) {
		_, err := IntToUint32(-1)
		assert.Error(t, err)
	})

	t.Run("invalid too large", func(t *testing.T) {
		_, err := IntToUint32(math.MaxUint32 + 1)
		assert.Error(t, err)
	})
}

func TestUint64Conversions(t *testing.T) {
	got, err := Uint64ToUint32(math.MaxUint32)
	assert.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = Uint64ToUint32(math.MaxUint32 + 1)
	assert.Error(t, err)

	n, err := Uint64ToInt(42)
	assert.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Uint64ToInt(math.MaxUint64)
	assert.Error(t, err)
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		n, chunk, want int
	}{
		{0, 64, 0},
		{-5, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{129, 64, 192},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundUp(tt.n, tt.chunk), "RoundUp(%d, %d)", tt.n, tt.chunk)
	}
}
