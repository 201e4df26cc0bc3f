package mapped

// Converter is the statically checked converter shape.
//
// NativeType returns a descriptor-like value understood by
// nativetype.Registry.Resolve.
type Converter interface {
	NativeType() any
	ToNative(value any, ctx Context) (any, error)
	FromNative(value any, ctx Context) (any, error)
}

// ReferenceRequirer overrides the kind based reference classification.
type ReferenceRequirer interface {
	ReferenceRequired() bool
}

// Funcs assembles a converter from function values, for converters built
// at runtime (for example from configuration).
//
// NativeType is either a func returning a descriptor-like value or the
// descriptor-like value itself. ToNative and FromNative must be funcs of
// two parameters returning (value) or (value, error). ReferenceRequired is
// optional: a func returning a value coerced to bool, or a bool.
type Funcs struct {
	NativeType        any
	ToNative          any
	FromNative        any
	ReferenceRequired any
}
