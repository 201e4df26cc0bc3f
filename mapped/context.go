package mapped

// Context is the caller value forwarded to converter operations.
// It is opaque to this package.
type Context = any

type noContext struct{}

func (noContext) String() string { return "<no context>" }

// NoContext is passed to converters when the caller supplies no context.
var NoContext Context = noContext{}

// IsNoContext reports whether ctx is the absent-context sentinel.
func IsNoContext(ctx Context) bool {
	_, ok := ctx.(noContext)
	return ok
}
