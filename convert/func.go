package convert

import (
	"fmt"
	"reflect"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/mapped"
)

// Func adapts two typed functions into a converter.
// Native is any descriptor-like value accepted by the registry.
type Func[H, N any] struct {
	Native any
	To     func(value H, ctx mapped.Context) (N, error)
	From   func(value N, ctx mapped.Context) (H, error)

	// Reference, when non-nil, declares the reference requirement.
	Reference *bool
}

func (f Func[H, N]) NativeType() any {
	return f.Native
}

func (f Func[H, N]) ToNative(value any, ctx mapped.Context) (any, error) {
	h, ok := value.(H)
	if !ok && value != nil {
		return nil, mismatch(errors.PhaseToNative, value, reflect.TypeFor[H]())
	}
	return f.To(h, ctx)
}

func (f Func[H, N]) FromNative(value any, ctx mapped.Context) (any, error) {
	n, ok := value.(N)
	if !ok && value != nil {
		return nil, mismatch(errors.PhaseFromNative, value, reflect.TypeFor[N]())
	}
	return f.From(n, ctx)
}

// Typed wraps f so that a declared Reference is honoured by mapped.Define.
func Typed[H, N any](f Func[H, N]) mapped.Converter {
	if f.Reference != nil {
		return pinnedFunc[H, N]{f}
	}
	return f
}

type pinnedFunc[H, N any] struct {
	Func[H, N]
}

func (p pinnedFunc[H, N]) ReferenceRequired() bool {
	return *p.Reference
}

func mismatch(phase errors.Phase, value any, want reflect.Type) *errors.Error {
	return errors.New(phase, errors.KindTypeMismatch).
		GoType(typeName(value)).
		Detail("expected %s", want).
		Value(value).
		Build()
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
