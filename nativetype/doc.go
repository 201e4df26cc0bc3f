// Package nativetype is the native type registry.
//
// It supplies canonical descriptors (kind, size, alignment) for the primitive
// native types of a data model, builds struct and array descriptors with C
// layout rules, and resolves arbitrary descriptor-like values into concrete
// descriptors.
//
// # Data Models
//
// Sizes of the C integer types depend on the data model:
//
//	Kind          ILP32   LP64    LLP64
//	──────────────────────────────────────
//	char/uchar    1       1       1
//	short/ushort  2       2       2
//	int/uint      4       4       4
//	long/ulong    4       8       4
//	long_long     8       8       8
//	float         4       4       4
//	double        8       8       8
//	long_double   16      16      8
//	pointer       4       8       8
//
// ILP32 follows wasm32, where every primitive is aligned to its size.
//
// # Resolution
//
// Registry.Resolve accepts:
//
//   - *Descriptor and any Type
//   - Kind values with a builtin descriptor
//   - registered names ("int", "uint32", "size_t", typedefs)
//   - WIT primitive types (wit.U32{}, wit.F64{}, ...)
//
// Everything else fails with a type error. Mapped descriptors are rejected:
// a resolved descriptor always names a concrete representation.
//
// # Thread Safety
//
// Descriptors are immutable after construction. Registry is safe for
// concurrent use.
package nativetype
