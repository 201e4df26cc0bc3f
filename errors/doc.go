// Package errors provides structured error types for mapped native types.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the missing capability, field path, Go/native type names
// and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseMarshal, errors.KindTypeMismatch).
//		Path("point", "x").
//		GoType("string").
//		NativeType("int").
//		Detail("cannot store string as int").
//		Build()
//
// Or use the constructors for the failures of mapped type definition:
//
//	err := errors.CapabilityError("to_native")
//	err := errors.ArityError("from_native", 2, 1)
//	err := errors.TypeError("native_type must return a native type descriptor")
//
// All errors implement the standard error interface and support errors.Is/As.
// The sentinels ErrCapability, ErrArity and ErrType match any definition error
// of the corresponding kind.
package errors
