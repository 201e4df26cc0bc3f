// Package mapped builds custom native types from user converters.
//
// A converter declares an underlying native type and two conversion
// functions. Define validates it and returns an immutable *Type that
// marshalling code can use anywhere a primitive native type is expected:
// struct fields, array elements, call parameters and results.
//
//	┌──────────────┐  ToNative   ┌────────────────┐  write   ┌──────────┐
//	│  Go value    │ ──────────► │ native value   │ ───────► │  memory  │
//	│              │ ◄────────── │ (RealType)     │ ◄─────── │          │
//	└──────────────┘  FromNative └────────────────┘  read    └──────────┘
//
// The Type never touches memory itself. It only transforms values; the
// driver performs reads and writes using RealType, Size and Align.
//
// # Converters
//
// Statically typed converters implement Converter (and optionally
// ReferenceRequirer). Other values are probed at definition time for the
// methods NativeType, ToNative, FromNative and ReferenceRequired. Funcs
// assembles a converter from plain function values. In every case the
// conversion operations must take exactly two parameters: the value and a
// caller context.
//
// # Reference Required
//
// IsReferenceRequired tells the driver whether the converted value must be
// kept alive until the native call completes. A converter declaring
// ReferenceRequired decides it; otherwise scalar real types (bool, the C
// integers, float, double) need no reference and everything else does.
//
// # Context
//
// The one-argument dispatch forms pass NoContext. The *Ctx forms forward
// the supplied context unchanged.
//
// Probed converters may declare concrete parameter types. Dispatch then
// returns a type mismatch error of its own when the value or an explicit
// context is not assignable to the declared parameter; NoContext becomes
// the zero value. Such a converter only works with drivers passing that
// context type: marshal sessions always pass *marshal.CallContext, so
// converters used there declare Context, any or *marshal.CallContext.
//
// # Thread Safety
//
// A Type is immutable and safe for concurrent use. Dispatch does not
// serialize calls into the converter; converters shared across goroutines
// must be safe for concurrent invocation.
package mapped
