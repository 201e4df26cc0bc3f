package marshal

import (
	"sync"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/nativetype"
)

// BumpAllocator hands out memory from a fixed region [base, limit).
// Free only reclaims a block that ends at the current top, so blocks
// freed in reverse order are all reclaimed.
type BumpAllocator struct {
	base  uint32
	next  uint32
	limit uint32
	mu    sync.Mutex
}

// NewBumpAllocator creates an allocator over [base, limit).
func NewBumpAllocator(base, limit uint32) *BumpAllocator {
	return &BumpAllocator{base: base, next: base, limit: limit}
}

func (b *BumpAllocator) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ptr := nativetype.AlignTo(b.next, align)
	end := uint64(ptr) + uint64(size)
	if ptr < b.next || end > uint64(b.limit) {
		return 0, errors.AllocationFailed(errors.PhaseMarshal, size, align)
	}
	b.next = uint32(end)
	return ptr, nil
}

func (b *BumpAllocator) Free(ptr, size, _ uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ptr >= b.base && ptr+size == b.next {
		b.next = ptr
	}
}

// Used returns the number of bytes below the top, alignment padding included.
func (b *BumpAllocator) Used() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next - b.base
}

// Reset releases every allocation.
func (b *BumpAllocator) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = b.base
}
