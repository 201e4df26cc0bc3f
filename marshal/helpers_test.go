package marshal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/mapped-types/internal/wasmtest"
)

// memoryWASM is a minimal WASM module with 1 page of memory exported as "memory"
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // name: "memory" (6 bytes + string)
	0x02, 0x00, // kind: memory, index 0
}

// newRuntime starts a wazero runtime closed with the test.
func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	return ctx, rt
}

// newMemory instantiates memoryWASM and returns its wrapped memory.
func newMemory(t *testing.T, ctx context.Context, rt wazero.Runtime) *Memory {
	t.Helper()
	compiled, err := rt.CompileModule(ctx, memoryWASM)
	require.NoError(t, err)

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("mem"))
	require.NoError(t, err)

	mem := WrapMemory(mod.ExportedMemory("memory"))
	require.NotNil(t, mem)
	return mem
}

// newSession returns a session over a fresh page with a bump allocator
// covering the upper half of it.
func newSession(t *testing.T, opts ...Option) (*Session, *BumpAllocator) {
	t.Helper()
	ctx, rt := newRuntime(t)
	mem := newMemory(t, ctx, rt)
	alloc := NewBumpAllocator(0x8000, 0x10000)
	sess := NewSession(ctx, mem, alloc, opts...)
	t.Cleanup(sess.Close)
	return sess, alloc
}

// hostFunc exports fn from a host module and returns a guest export that
// forwards to it. Host modules cannot hand out their own exports.
func hostFunc(t *testing.T, ctx context.Context, rt wazero.Runtime, module, name string,
	fn api.GoModuleFunc, params, results []api.ValueType,
) api.Function {
	t.Helper()
	_, err := rt.NewHostModuleBuilder(module).
		NewFunctionBuilder().
		WithGoModuleFunction(fn, params, results).
		Export(name).
		Instantiate(ctx)
	require.NoError(t, err)

	guest, err := rt.InstantiateWithConfig(ctx, wasmtest.Trampoline(module, name, params, results),
		wazero.NewModuleConfig().WithName(module+"."+name))
	require.NoError(t, err)

	f := guest.ExportedFunction(name)
	require.NotNil(t, f)
	return f
}

// newHeap instantiates a guest module exporting memory and allocator
// functions, with the heap starting at base.
func newHeap(t *testing.T, ctx context.Context, rt wazero.Runtime, base int32) api.Module {
	t.Helper()
	mod, err := rt.InstantiateWithConfig(ctx, wasmtest.Heap(1, base), wazero.NewModuleConfig().WithName("heap"))
	require.NoError(t, err)
	return mod
}
