// Package marshal moves host values in and out of wazero linear memory
// using native descriptors and mapped types.
//
// A Session scopes one native call: it owns the allocations made for
// strings and buffers, keeps converted values of reference-required mapped
// types alive, and hands converters a *CallContext. Close releases all of
// it.
//
//	sess := marshal.NewSession(ctx, marshal.WrapMemory(mem), alloc)
//	defer sess.Close()
//
//	if err := sess.Put(addr, point, map[string]any{"x": 1, "y": 2}); err != nil {
//		return err
//	}
//	v, err := sess.Get(addr, point)
//
// Func binds an exported wasm function to native parameter and result
// types so it can be called with host values.
package marshal
