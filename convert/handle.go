package convert

import (
	"reflect"
	"sync"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/mapped"
)

// Dropper is optionally implemented by values stored in Handles.
// Drop runs when the handle is removed or the table is closed.
type Dropper interface {
	Drop()
}

// Handles gives native code small integer handles for Go values that
// cannot cross the boundary themselves. Handle 0 is never issued and
// reads back as the zero value.
//
// ToNative stores the value and returns a new handle; FromNative looks a
// handle up without removing it. Call Remove when native code is done.
type Handles[T any] struct {
	native  any
	entries []handleEntry[T]
	free    []uint32
	mu      sync.RWMutex
	closed  bool
}

type handleEntry[T any] struct {
	value T
	valid bool
}

// NewHandles creates an empty table over native ("uint" when nil).
func NewHandles[T any](native any) *Handles[T] {
	if native == nil {
		native = "uint"
	}
	return &Handles[T]{
		native:  native,
		entries: make([]handleEntry[T], 0, 16),
	}
}

// Insert stores v and returns its handle, or 0 once the table is closed.
func (h *Handles[T]) Insert(v T) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}
	e := handleEntry[T]{value: v, valid: true}
	if n := len(h.free); n > 0 {
		id := h.free[n-1]
		h.free = h.free[:n-1]
		h.entries[id-1] = e
		return id
	}
	h.entries = append(h.entries, e)
	return uint32(len(h.entries))
}

// Get returns the value behind id.
func (h *Handles[T]) Get(id uint32) (T, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var zero T
	if id == 0 || int(id) > len(h.entries) {
		return zero, false
	}
	e := h.entries[id-1]
	if !e.valid {
		return zero, false
	}
	return e.value, true
}

// Remove releases id, calling Drop on the value when it implements Dropper.
func (h *Handles[T]) Remove(id uint32) (T, bool) {
	h.mu.Lock()
	var zero T
	if id == 0 || int(id) > len(h.entries) || !h.entries[id-1].valid {
		h.mu.Unlock()
		return zero, false
	}
	v := h.entries[id-1].value
	h.entries[id-1] = handleEntry[T]{}
	h.free = append(h.free, id)
	h.mu.Unlock()

	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
	return v, true
}

// Len returns the number of live handles.
func (h *Handles[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries) - len(h.free)
}

// Close drops every live value. Insert returns 0 afterwards.
func (h *Handles[T]) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	entries := h.entries
	h.entries = nil
	h.free = nil
	h.mu.Unlock()

	for _, e := range entries {
		if !e.valid {
			continue
		}
		if d, ok := any(e.value).(Dropper); ok {
			d.Drop()
		}
	}
}

func (h *Handles[T]) NativeType() any {
	return h.native
}

func (h *Handles[T]) ToNative(value any, _ mapped.Context) (any, error) {
	v, ok := value.(T)
	if !ok {
		return nil, mismatch(errors.PhaseToNative, value, reflect.TypeFor[T]())
	}
	id := h.Insert(v)
	if id == 0 {
		return nil, errors.InvalidInput(errors.PhaseToNative, "handle table closed")
	}
	return id, nil
}

func (h *Handles[T]) FromNative(value any, _ mapped.Context) (any, error) {
	id, ok := toHandle(value)
	if !ok {
		return nil, mismatch(errors.PhaseFromNative, value, uint64Type)
	}
	if id == 0 {
		var zero T
		return zero, nil
	}
	v, found := h.Get(id)
	if !found {
		return nil, errors.New(errors.PhaseFromNative, errors.KindNotFound).
			Value(id).
			Detail("unknown handle %d", id).
			Build()
	}
	return v, nil
}
