// Package mappedtypes defines user-level native types backed by converters.
//
// A mapped type pairs a real native type (an int, a pointer, a buffer) with
// a converter that turns host values into native values and back. Anything
// that can describe a native type can then use the mapped type in its place:
// struct fields, array elements, function parameters and results.
//
// # Packages
//
//	mappedtypes/         Memory and Allocator interfaces of the native address space
//	├── nativetype/      Kinds, descriptors, data models, struct and array layout
//	├── mapped/          Mapped type construction and dispatch
//	├── convert/         Ready-made converters (enum, bitmask, bool, protobuf)
//	├── marshal/         Reads, writes and calls over wazero linear memory
//	├── catalog/         YAML declarations of enums, bitmasks and aliases
//	├── errors/          Structured error types
//	└── cmd/mapinfo/     Catalog inspector with an interactive mode
//
// # Quick Start
//
// Define a converter and build a mapped type from it:
//
//	type celsius struct{}
//
//	func (celsius) NativeType() any { return "int" }
//
//	func (celsius) ToNative(v any, _ mapped.Context) (any, error) {
//		return int32(v.(float64) * 10), nil
//	}
//
//	func (celsius) FromNative(v any, _ mapped.Context) (any, error) {
//		return float64(v.(int32)) / 10, nil
//	}
//
//	temp, err := mapped.Define(celsius{})
//	if err != nil {
//		return err
//	}
//	n, _ := temp.ToNative(21.5) // int32(215)
//
// # Marshalling
//
// The marshal package writes host values into wazero memory using mapped
// types and native descriptors:
//
//	sess := marshal.NewSession(ctx, marshal.WrapMemory(mod.Memory()), alloc)
//	defer sess.Close()
//	err := sess.Put(addr, temp, 21.5)
//
// # Error Handling
//
// All packages return *errors.Error values carrying the phase, kind and
// capability involved:
//
//	if errors.Is(err, errors.ErrCapability) {
//		// converter lacks a required operation
//	}
package mappedtypes
