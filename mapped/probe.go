package mapped

import (
	"reflect"

	"github.com/wippyai/mapped-types/errors"
)

// Capability names as reported in definition errors.
const (
	CapNativeType        = "native_type"
	CapToNative          = "to_native"
	CapFromNative        = "from_native"
	CapReferenceRequired = "reference_required?"
)

// dispatchFunc is a conversion operation bound at definition time.
type dispatchFunc func(value any, ctx Context) (any, error)

// binding holds the operations discovered on a converter.
type binding struct {
	nativeType        func() (any, error)
	toNative          dispatchFunc
	fromNative        dispatchFunc
	referenceRequired func() (any, error)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// probe discovers the converter operations in definition order:
// native_type, to_native, from_native, then the optional reference_required?.
func probe(conv any) (*binding, error) {
	switch c := conv.(type) {
	case nil:
		return nil, errors.CapabilityError(CapNativeType)
	case Converter:
		b := &binding{
			nativeType: func() (any, error) { return c.NativeType(), nil },
			toNative:   c.ToNative,
			fromNative: c.FromNative,
		}
		if rr, ok := conv.(ReferenceRequirer); ok {
			b.referenceRequired = func() (any, error) { return rr.ReferenceRequired(), nil }
		} else if m := reflect.ValueOf(conv).MethodByName("ReferenceRequired"); m.IsValid() {
			fn, err := bindNullary(CapReferenceRequired, m)
			if err != nil {
				return nil, err
			}
			b.referenceRequired = fn
		}
		return b, nil
	case Funcs:
		return probeFuncs(&c)
	case *Funcs:
		if c == nil {
			return nil, errors.CapabilityError(CapNativeType)
		}
		return probeFuncs(c)
	default:
		return probeMethods(reflect.ValueOf(conv))
	}
}

func probeMethods(v reflect.Value) (*binding, error) {
	b := &binding{}

	m := v.MethodByName("NativeType")
	if !m.IsValid() {
		return nil, errors.CapabilityError(CapNativeType)
	}
	fn, err := bindNullary(CapNativeType, m)
	if err != nil {
		return nil, err
	}
	b.nativeType = fn

	if b.toNative, err = bindDispatch(CapToNative, errors.PhaseToNative, v.MethodByName("ToNative")); err != nil {
		return nil, err
	}
	if b.fromNative, err = bindDispatch(CapFromNative, errors.PhaseFromNative, v.MethodByName("FromNative")); err != nil {
		return nil, err
	}

	if m := v.MethodByName("ReferenceRequired"); m.IsValid() {
		if b.referenceRequired, err = bindNullary(CapReferenceRequired, m); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func probeFuncs(f *Funcs) (*binding, error) {
	b := &binding{}

	switch nt := f.NativeType.(type) {
	case nil:
		return nil, errors.CapabilityError(CapNativeType)
	default:
		v := reflect.ValueOf(nt)
		if v.Kind() == reflect.Func {
			fn, err := bindNullary(CapNativeType, v)
			if err != nil {
				return nil, err
			}
			b.nativeType = fn
		} else {
			b.nativeType = func() (any, error) { return nt, nil }
		}
	}

	var err error
	if b.toNative, err = bindDispatch(CapToNative, errors.PhaseToNative, funcValue(f.ToNative)); err != nil {
		return nil, err
	}
	if b.fromNative, err = bindDispatch(CapFromNative, errors.PhaseFromNative, funcValue(f.FromNative)); err != nil {
		return nil, err
	}

	switch rr := f.ReferenceRequired.(type) {
	case nil:
	case bool:
		b.referenceRequired = func() (any, error) { return rr, nil }
	default:
		if b.referenceRequired, err = bindNullary(CapReferenceRequired, reflect.ValueOf(rr)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// funcValue returns the zero Value for nil so that absent funcs report a
// missing capability rather than a signature problem.
func funcValue(fn any) reflect.Value {
	if fn == nil {
		return reflect.Value{}
	}
	v := reflect.ValueOf(fn)
	if v.Kind() == reflect.Func && v.IsNil() {
		return reflect.Value{}
	}
	return v
}

// bindNullary adapts a zero-parameter operation returning (v) or (v, error).
func bindNullary(capability string, fn reflect.Value) (func() (any, error), error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, errors.CapabilityError(capability)
	}
	ft := fn.Type()
	if ft.IsVariadic() || ft.NumIn() != 0 {
		return nil, errors.ArityError(capability, 0, ft.NumIn())
	}
	if err := checkResults(capability, ft); err != nil {
		return nil, err
	}

	return func() (any, error) {
		return unpack(fn.Call(nil))
	}, nil
}

// bindDispatch adapts a two-parameter conversion operation.
func bindDispatch(capability string, phase errors.Phase, fn reflect.Value) (dispatchFunc, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, errors.CapabilityError(capability)
	}
	ft := fn.Type()
	if ft.IsVariadic() || ft.NumIn() != 2 {
		return nil, errors.ArityError(capability, 2, ft.NumIn())
	}
	if err := checkResults(capability, ft); err != nil {
		return nil, err
	}

	valueType, ctxType := ft.In(0), ft.In(1)

	return func(value any, ctx Context) (any, error) {
		v, ok := argValue(value, valueType)
		if !ok {
			return nil, errors.New(phase, errors.KindTypeMismatch).
				Capability(capability).
				GoType(typeName(value)).
				Detail("%s accepts %s", capability, valueType).
				Value(value).
				Build()
		}
		c, ok := argValue(ctx, ctxType)
		if !ok {
			if !IsNoContext(ctx) {
				return nil, errors.New(phase, errors.KindTypeMismatch).
					Capability(capability).
					GoType(typeName(ctx)).
					Detail("%s context parameter accepts %s", capability, ctxType).
					Build()
			}
			c = reflect.Zero(ctxType)
		}
		return unpack(fn.Call([]reflect.Value{v, c}))
	}, nil
}

func checkResults(capability string, ft reflect.Type) error {
	switch {
	case ft.NumOut() == 1:
		return nil
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		return nil
	default:
		return errors.TypeError(capability + " must return (value) or (value, error)")
	}
}

func unpack(out []reflect.Value) (any, error) {
	result := out[0].Interface()
	if len(out) == 2 && !out[1].IsNil() {
		return result, out[1].Interface().(error)
	}
	return result, nil
}

// argValue converts an argument for a reflective call. A nil argument is
// accepted by nillable parameter types only.
func argValue(arg any, t reflect.Type) (reflect.Value, bool) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		default:
			return reflect.Value{}, false
		}
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, true
	}
	return reflect.Value{}, false
}

// typeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// truthy coerces a declared reference requirement: only nil and false are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.Bool:
		return rv.Bool()
	}
	return true
}
