package nativetype

import (
	"strconv"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mapped-types/errors"
)

// Registry holds the canonical descriptors of one data model plus typedefs.
type Registry struct {
	names   map[string]*Descriptor
	builtin [kindCount]*Descriptor
	mu      sync.RWMutex
	model   DataModel
}

// NewRegistry creates a registry populated with the primitives of model.
func NewRegistry(model DataModel) *Registry {
	r := &Registry{
		model: model,
		names: make(map[string]*Descriptor),
	}

	ptr := model.PointerSize()
	long := model.LongSize()
	ldouble := model.longDoubleSize()

	sizes := [...]struct {
		kind Kind
		size uint32
	}{
		{KindVoid, 0},
		{KindBool, 1},
		{KindChar, 1},
		{KindUChar, 1},
		{KindShort, 2},
		{KindUShort, 2},
		{KindInt, 4},
		{KindUInt, 4},
		{KindLong, long},
		{KindULong, long},
		{KindLongLong, 8},
		{KindULongLong, 8},
		{KindFloat, 4},
		{KindDouble, 8},
		{KindLongDouble, ldouble},
		{KindPointer, ptr},
		{KindString, ptr},
		{KindBufferIn, ptr},
		{KindBufferOut, ptr},
		{KindBufferInOut, ptr},
		{KindFunction, ptr},
		{KindVarargs, 0},
	}

	for _, s := range sizes {
		align := s.size
		if align == 0 {
			align = 1
		}
		d := &Descriptor{Kind: s.kind, Name: s.kind.String(), Size: s.size, Align: align}
		r.builtin[s.kind] = d
		r.names[d.Name] = d
	}

	aliases := map[string]Kind{
		"int8":    KindChar,
		"uint8":   KindUChar,
		"int16":   KindShort,
		"uint16":  KindUShort,
		"int32":   KindInt,
		"uint32":  KindUInt,
		"int64":   KindLongLong,
		"uint64":  KindULongLong,
		"float32": KindFloat,
		"float64": KindDouble,
		"size_t":  KindULong,
		"ssize_t": KindLong,
		"buffer":  KindBufferInOut,
		"void*":   KindPointer,
		"char*":   KindString,
	}
	if model == LLP64 {
		aliases["size_t"] = KindULongLong
		aliases["ssize_t"] = KindLongLong
	}
	aliases["intptr_t"] = aliases["ssize_t"]
	aliases["uintptr_t"] = aliases["size_t"]

	for name, kind := range aliases {
		r.names[name] = r.builtin[kind]
	}

	return r
}

// Model returns the data model the registry was built for.
func (r *Registry) Model() DataModel {
	return r.model
}

// Builtin returns the canonical descriptor of k, or nil for kinds that
// need construction (struct, array, mapped).
func (r *Registry) Builtin(k Kind) *Descriptor {
	if !k.IsBuiltin() {
		return nil
	}
	return r.builtin[k]
}

// Lookup finds a descriptor by primitive name, alias or typedef.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	d, ok := r.names[name]
	r.mu.RUnlock()
	return d, ok
}

// Register binds name to t, which may be anything Resolve accepts.
// Names already bound cannot be rebound.
func (r *Registry) Register(name string, t any) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseResolve, "typedef name is empty")
	}
	d, err := r.Resolve(t)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return errors.InvalidInput(errors.PhaseResolve, "native type "+strconv.Quote(name)+" already defined")
	}
	r.names[name] = d
	return nil
}

// Resolve turns a descriptor-like value into a concrete descriptor.
// Failures are type errors of the define phase.
func (r *Registry) Resolve(v any) (*Descriptor, error) {
	switch x := v.(type) {
	case nil:
		return nil, notDescriptor(v)
	case *Descriptor:
		if x == nil {
			return nil, notDescriptor(v)
		}
		return checkConcrete(x)
	case Kind:
		if d := r.Builtin(x); d != nil {
			return checkConcrete(d)
		}
		return nil, notDescriptor(v)
	case string:
		if d, ok := r.Lookup(x); ok {
			return checkConcrete(d)
		}
		return nil, errors.New(errors.PhaseDefine, errors.KindTypeMismatch).
			Value(x).
			Detail("unknown native type %q", x).
			Build()
	case Type:
		return r.Resolve(x.Descriptor())
	case wit.Type:
		return r.resolveWIT(x, v)
	default:
		return nil, notDescriptor(v)
	}
}

func (r *Registry) resolveWIT(t wit.Type, orig any) (*Descriptor, error) {
	switch typ := t.(type) {
	case wit.Bool:
		return r.builtin[KindBool], nil
	case wit.S8:
		return r.builtin[KindChar], nil
	case wit.U8:
		return r.builtin[KindUChar], nil
	case wit.S16:
		return r.builtin[KindShort], nil
	case wit.U16:
		return r.builtin[KindUShort], nil
	case wit.S32:
		return r.builtin[KindInt], nil
	case wit.U32, wit.Char:
		return r.builtin[KindUInt], nil
	case wit.S64:
		return r.builtin[KindLongLong], nil
	case wit.U64:
		return r.builtin[KindULongLong], nil
	case wit.F32:
		return r.builtin[KindFloat], nil
	case wit.F64:
		return r.builtin[KindDouble], nil
	case wit.String:
		return r.builtin[KindString], nil
	case *wit.TypeDef:
		switch kind := typ.Kind.(type) {
		case *wit.Enum:
			return r.discriminant(len(kind.Cases)), nil
		case *wit.Flags:
			return r.flags(len(kind.Flags), orig)
		case wit.Type:
			return r.resolveWIT(kind, orig)
		}
	}
	return nil, notDescriptor(orig)
}

// discriminant picks the smallest unsigned integer able to index n cases.
func (r *Registry) discriminant(n int) *Descriptor {
	switch {
	case n <= 1<<8:
		return r.builtin[KindUChar]
	case n <= 1<<16:
		return r.builtin[KindUShort]
	default:
		return r.builtin[KindUInt]
	}
}

// flags picks the bit set integer for n flags.
func (r *Registry) flags(n int, orig any) (*Descriptor, error) {
	switch {
	case n <= 8:
		return r.builtin[KindUChar], nil
	case n <= 16:
		return r.builtin[KindUShort], nil
	case n <= 32:
		return r.builtin[KindUInt], nil
	case n <= 64:
		return r.builtin[KindULongLong], nil
	default:
		return nil, notDescriptor(orig)
	}
}

func checkConcrete(d *Descriptor) (*Descriptor, error) {
	switch d.Kind {
	case KindVoid, KindVarargs, KindMapped:
		return nil, errors.New(errors.PhaseDefine, errors.KindTypeMismatch).
			NativeType(d.String()).
			Detail("native_type must return a native type descriptor").
			Build()
	}
	if d.Kind >= kindCount {
		return nil, notDescriptor(d)
	}
	return d, nil
}

func notDescriptor(v any) *errors.Error {
	err := errors.TypeError("native_type must return a native type descriptor")
	err.Value = v
	return err
}
