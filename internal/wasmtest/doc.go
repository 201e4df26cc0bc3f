// Package wasmtest assembles the small core wasm modules used by tests and
// examples: trampolines that forward to host functions, and a heap module
// exporting memory with a bump allocator.
package wasmtest
