package marshal

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	mappedtypes "github.com/wippyai/mapped-types"
	"github.com/wippyai/mapped-types/errors"
)

// WrapMemory adapts a wazero memory. It returns nil for nil.
func WrapMemory(mem api.Memory) *Memory {
	if mem == nil {
		return nil
	}
	return &Memory{mem: mem}
}

// Memory adapts wazero api.Memory to mappedtypes.Memory.
type Memory struct {
	mem api.Memory
}

func oob(op string, offset, length uint32) *errors.Error {
	return errors.New(errors.PhaseMarshal, errors.KindOutOfBounds).
		Detail("memory %s out of bounds: offset=%d, length=%d", op, offset, length).
		Build()
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, oob("read", offset, length)
	}
	return data, nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return oob("write", offset, uint32(len(data)))
	}
	return nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, oob("read", offset, 1)
	}
	return v, nil
}

func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, oob("read", offset, 2)
	}
	return v, nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, oob("read", offset, 4)
	}
	return v, nil
}

func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, oob("read", offset, 8)
	}
	return v, nil
}

func (m *Memory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return oob("write", offset, 1)
	}
	return nil
}

func (m *Memory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return oob("write", offset, 2)
	}
	return nil
}

func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return oob("write", offset, 4)
	}
	return nil
}

func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return oob("write", offset, 8)
	}
	return nil
}

// WrapAllocator adapts exported allocation functions. alloc is either
// cabi_realloc shaped (old_ptr, old_size, align, new_size) or malloc
// shaped (size). When free is nil a realloc shaped alloc also frees;
// otherwise Free does nothing.
func WrapAllocator(ctx context.Context, alloc, free api.Function) *Allocator {
	if alloc == nil {
		return nil
	}
	a := &Allocator{
		ctx:   ctx,
		alloc: alloc,
		free:  free,
		stack: make([]uint64, 4),
	}
	a.simple = len(alloc.Definition().ParamTypes()) < 4
	if a.free == nil && !a.simple {
		a.free = alloc
	}
	return a
}

// Allocator adapts wasm allocation exports to mappedtypes.Allocator.
type Allocator struct {
	ctx    context.Context
	alloc  api.Function
	free   api.Function
	stack  []uint64
	mu     sync.Mutex
	simple bool
}

func (a *Allocator) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	if a.simple {
		a.stack[0] = uint64(size)
		err = a.alloc.CallWithStack(ctx, a.stack[:1])
	} else {
		a.stack[0] = 0
		a.stack[1] = 0
		a.stack[2] = uint64(align)
		a.stack[3] = uint64(size)
		err = a.alloc.CallWithStack(ctx, a.stack[:4])
	}
	if err != nil {
		return 0, errors.New(errors.PhaseMarshal, errors.KindAllocation).
			Detail("alloc size=%d align=%d", size, align).
			Cause(err).
			Build()
	}
	ptr := uint32(a.stack[0])
	if ptr == 0 && size > 0 {
		return 0, errors.AllocationFailed(errors.PhaseMarshal, size, align)
	}
	return ptr, nil
}

func (a *Allocator) Free(ptr, size, align uint32) {
	if a.free == nil || ptr == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	a.stack[0] = uint64(ptr)
	a.stack[1] = uint64(size)
	a.stack[2] = uint64(align)
	a.stack[3] = 0
	n := min(max(len(a.free.Definition().ParamTypes()), 1), len(a.stack))
	if err := a.free.CallWithStack(ctx, a.stack[:n]); err != nil {
		Logger().Warn("free failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

var (
	_ mappedtypes.Memory      = (*Memory)(nil)
	_ mappedtypes.MemorySizer = (*Memory)(nil)
	_ mappedtypes.Allocator   = (*Allocator)(nil)
)
