package arena

import (
	"errors"
	"fmt"

	"github.com/hupe1980/tilekit/internal/mem"
	"github.com/hupe1980/tilekit/internal/mmap"
)

// MemoryAcquirer is charged for every region before it is created.
// resource.Controller implements it.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// ErrReleased is returned when a region is released twice.
var ErrReleased = errors.New("arena: region already released")

// Region is one contiguous block of native memory.
type Region struct {
	data     []byte
	mapping  *mmap.Mapping // nil for heap regions
	acquirer MemoryAcquirer
	released bool
}

// Bytes returns the region memory. It is nil after Release.
func (r *Region) Bytes() []byte {
	if r == nil || r.released {
		return nil
	}
	return r.data
}

// Size returns the region size in bytes.
func (r *Region) Size() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// OffHeap reports whether the region is backed by an anonymous mapping.
func (r *Region) OffHeap() bool {
	return r != nil && r.mapping != nil
}

// Release returns the memory to the system and credits the acquirer.
func (r *Region) Release() error {
	if r.released {
		return ErrReleased
	}
	r.released = true

	size := int64(len(r.data))
	r.data = nil

	var err error
	if r.mapping != nil {
		err = r.mapping.Close()
		r.mapping = nil
	}
	if r.acquirer != nil {
		r.acquirer.ReleaseMemory(size)
	}
	return err
}

// Allocator creates regions.
type Allocator interface {
	// Allocate returns a zero-filled region of exactly size bytes.
	Allocate(size int, acquirer MemoryAcquirer) (*Region, error)
	// Name identifies the allocator in logs.
	Name() string
}

// OffHeap allocates anonymous mappings.
type OffHeap struct{}

// Allocate implements Allocator.
func (OffHeap) Allocate(size int, acquirer MemoryAcquirer) (*Region, error) {
	if err := acquire(acquirer, size); err != nil {
		return nil, err
	}

	m, err := mmap.MapAnon(size)
	if err != nil {
		if acquirer != nil {
			acquirer.ReleaseMemory(int64(size))
		}
		return nil, fmt.Errorf("arena: failed to map %d bytes: %w", size, err)
	}

	return &Region{data: m.Bytes(), mapping: m, acquirer: acquirer}, nil
}

// Name implements Allocator.
func (OffHeap) Name() string { return "offheap" }

// Heap allocates aligned Go memory.
type Heap struct{}

// Allocate implements Allocator.
func (Heap) Allocate(size int, acquirer MemoryAcquirer) (*Region, error) {
	if err := acquire(acquirer, size); err != nil {
		return nil, err
	}
	return &Region{data: mem.AllocAligned(size), acquirer: acquirer}, nil
}

// Name implements Allocator.
func (Heap) Name() string { return "heap" }

// Default is the allocator used when none is configured.
var Default Allocator = OffHeap{}

func acquire(acquirer MemoryAcquirer, size int) error {
	if size <= 0 {
		return fmt.Errorf("arena: invalid region size %d", size)
	}
	if acquirer == nil {
		return nil
	}
	if err := acquirer.AcquireMemory(int64(size)); err != nil {
		return fmt.Errorf("arena: acquire %d bytes: %w", size, err)
	}
	return nil
}
