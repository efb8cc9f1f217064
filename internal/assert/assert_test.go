package assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThat(t *testing.T) {
	assert.NotPanics(t, func() { That(true, "never fires") })

	if Enabled {
		assert.Panics(t, func() { That(false, "block overflow at %d", 3) })
	} else {
		assert.NotPanics(t, func() { That(false, "block overflow at %d", 3) })
	}
}
