package marshal

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/mapped"
	"github.com/wippyai/mapped-types/nativetype"
)

type slot struct {
	mt   *mapped.Type
	desc *nativetype.Descriptor
	vt   api.ValueType
}

// Func is an exported wasm function bound to native parameter and result
// types. It is safe for concurrent use when the underlying module is.
type Func struct {
	fn      api.Function
	name    string
	params  []slot
	results []slot
}

// Bind checks params and results against the signature of fn. Each type
// is a *mapped.Type or anything reg resolves (nil reg means WasmRegistry).
// Only scalar and address kinds cross the call boundary.
func Bind(fn api.Function, reg *nativetype.Registry, params, results []any) (*Func, error) {
	if fn == nil {
		return nil, errors.NilPointer(errors.PhaseCall, nil, "api.Function")
	}
	if reg == nil {
		reg = WasmRegistry()
	}
	def := fn.Definition()
	f := &Func{fn: fn, name: def.Name()}
	if names := def.ExportNames(); f.name == "" && len(names) > 0 {
		f.name = names[0]
	}

	var err error
	if f.params, err = bindSlots(reg, f.name, "param", params, def.ParamTypes()); err != nil {
		return nil, err
	}
	if f.results, err = bindSlots(reg, f.name, "result", results, def.ResultTypes()); err != nil {
		return nil, err
	}
	return f, nil
}

func bindSlots(reg *nativetype.Registry, name, what string, types []any, vts []api.ValueType) ([]slot, error) {
	if len(types) != len(vts) {
		return nil, errors.New(errors.PhaseCall, errors.KindArity).
			Path(name).
			Detail("%s takes %d %ss, %d bound", name, len(vts), what, len(types)).
			Build()
	}
	slots := make([]slot, len(types))
	for i, t := range types {
		path := []string{name, fmt.Sprintf("%s%d", what, i)}
		var sl slot
		if mt, ok := t.(*mapped.Type); ok {
			if mt == nil {
				return nil, errors.NilPointer(errors.PhaseCall, path, "*mapped.Type")
			}
			sl.mt = mt
			sl.desc = mt.RealType()
		} else {
			d, err := reg.Resolve(t)
			if err != nil {
				return nil, err
			}
			sl.desc = d
		}
		sl.vt = vts[i]
		if !fitsValueType(sl.desc, sl.vt) {
			return nil, errors.New(errors.PhaseCall, errors.KindTypeMismatch).
				Path(path...).
				NativeType(sl.desc.String()).
				Detail("cannot pass as %s", api.ValueTypeName(sl.vt)).
				Build()
		}
		slots[i] = sl
	}
	return slots, nil
}

func fitsValueType(d *nativetype.Descriptor, vt api.ValueType) bool {
	switch {
	case d.Kind.IsInteger(), d.Kind == nativetype.KindBool, d.Kind.IsAddress():
		switch vt {
		case api.ValueTypeI32:
			return d.Size <= 4
		case api.ValueTypeI64:
			return d.Size <= 8
		}
	case d.Kind.IsFloat():
		switch vt {
		case api.ValueTypeF32:
			return d.Size == 4
		case api.ValueTypeF64:
			return d.Size == 8
		}
	}
	return false
}

// Name returns the bound function's name.
func (f *Func) Name() string {
	return f.name
}

// Call converts args, invokes the function and lifts the results.
// Strings and buffers passed as arguments live in sess allocations until
// sess is closed.
func (f *Func) Call(sess *Session, args ...any) ([]any, error) {
	if len(args) != len(f.params) {
		return nil, errors.New(errors.PhaseCall, errors.KindArity).
			Path(f.name).
			Detail("%s takes %d arguments, got %d", f.name, len(f.params), len(args)).
			Build()
	}

	stack := make([]uint64, max(len(f.params), len(f.results)))
	for i, p := range f.params {
		v := args[i]
		if p.mt != nil {
			native, err := sess.lowerMapped(p.mt, v)
			if err != nil {
				return nil, err
			}
			v = native
		}
		raw, err := sess.lower(p, v, []string{f.name, fmt.Sprintf("param%d", i)})
		if err != nil {
			return nil, err
		}
		stack[i] = raw
	}

	if err := f.fn.CallWithStack(sess.call.ctx, stack); err != nil {
		return nil, errors.New(errors.PhaseCall, errors.KindTrap).
			Path(f.name).
			Cause(err).
			Build()
	}

	out := make([]any, len(f.results))
	for i, r := range f.results {
		v, err := sess.lift(r, stack[i])
		if err != nil {
			return nil, err
		}
		if r.mt != nil {
			if v, err = r.mt.FromNativeCtx(v, sess.call); err != nil {
				return nil, err
			}
		}
		out[i] = v
	}
	return out, nil
}

// lower encodes v for a wasm value slot. Signed integers are sign
// extended to the slot width.
func (s *Session) lower(sl slot, v any, path []string) (uint64, error) {
	d := sl.desc
	var raw uint64
	var err error
	switch d.Kind {
	case nativetype.KindString, nativetype.KindBufferIn, nativetype.KindBufferOut, nativetype.KindBufferInOut:
		var ptr uint32
		ptr, err = s.putBytes(d, v, path)
		raw = uint64(ptr)
	default:
		raw, err = encodeScalar(d, v, path)
	}
	if err != nil {
		return 0, err
	}
	if d.Kind.IsSigned() {
		wide := signExtend(raw, d.Size)
		if sl.vt == api.ValueTypeI32 {
			return api.EncodeI32(int32(wide)), nil
		}
		return uint64(wide), nil
	}
	return raw, nil
}

func (s *Session) lift(sl slot, raw uint64) (any, error) {
	if sl.vt == api.ValueTypeI32 {
		raw = uint64(api.DecodeU32(raw))
	}
	if sl.desc.Kind == nativetype.KindString {
		return s.ReadString(uint32(raw))
	}
	return decodeScalar(sl.desc, raw)
}
