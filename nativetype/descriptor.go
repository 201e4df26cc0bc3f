package nativetype

import (
	"strconv"

	"github.com/wippyai/mapped-types/errors"
)

// Type is anything with a native representation.
type Type interface {
	Descriptor() *Descriptor
}

// Descriptor describes a fixed-size machine representation.
// Descriptors must not be modified after construction.
type Descriptor struct {
	Elem   Type
	Name   string
	Fields []Field
	Len    uint32
	Size   uint32
	Align  uint32
	Kind   Kind
}

// Field is a struct member. Offset is assigned by NewStruct.
type Field struct {
	Type   Type
	Name   string
	Offset uint32
}

// Descriptor returns d itself so descriptors satisfy Type.
func (d *Descriptor) Descriptor() *Descriptor {
	return d
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	if d.Name != "" {
		return d.Name
	}
	if d.Kind == KindArray && d.Elem != nil {
		return d.Elem.Descriptor().String() + "[" + strconv.FormatUint(uint64(d.Len), 10) + "]"
	}
	return d.Kind.String()
}

// Field returns the struct member with the given name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// AlignTo rounds offset up to a multiple of align (a power of two).
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// NewStruct lays out fields sequentially with C alignment rules.
func NewStruct(name string, fields ...Field) (*Descriptor, error) {
	if len(fields) == 0 {
		return &Descriptor{Kind: KindStruct, Name: name, Size: 0, Align: 1}, nil
	}

	laid := make([]Field, len(fields))
	seen := make(map[string]struct{}, len(fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	for i, f := range fields {
		path := []string{name, f.Name}
		if f.Type == nil || f.Type.Descriptor() == nil {
			return nil, errors.NilPointer(errors.PhaseResolve, path, "nativetype.Type")
		}
		if f.Name != "" {
			if _, dup := seen[f.Name]; dup {
				return nil, errors.InvalidInput(errors.PhaseResolve, "duplicate struct field "+strconv.Quote(f.Name))
			}
			seen[f.Name] = struct{}{}
		}

		fd := f.Type.Descriptor()
		if fd.Kind == KindVoid || fd.Kind == KindVarargs {
			return nil, errors.New(errors.PhaseResolve, errors.KindUnsupported).
				Path(path...).
				NativeType(fd.String()).
				Detail("not allowed as struct field").
				Build()
		}

		offset = AlignTo(offset, fd.Align)
		laid[i] = Field{Name: f.Name, Type: f.Type, Offset: offset}

		if fd.Align > maxAlign {
			maxAlign = fd.Align
		}

		next, ok := safeAdd(offset, fd.Size)
		if !ok {
			return nil, errors.Overflow(errors.PhaseResolve, path, uint64(offset)+uint64(fd.Size), "struct size")
		}
		offset = next
	}

	return &Descriptor{
		Kind:   KindStruct,
		Name:   name,
		Fields: laid,
		Size:   AlignTo(offset, maxAlign),
		Align:  maxAlign,
	}, nil
}

// NewArray describes n consecutive elements of elem.
func NewArray(elem Type, n uint32) (*Descriptor, error) {
	if elem == nil || elem.Descriptor() == nil {
		return nil, errors.NilPointer(errors.PhaseResolve, nil, "nativetype.Type")
	}
	ed := elem.Descriptor()
	if ed.Kind == KindVoid || ed.Kind == KindVarargs {
		return nil, errors.Unsupported(errors.PhaseResolve, "array of "+ed.String())
	}

	size, ok := safeMul(AlignTo(ed.Size, ed.Align), n)
	if !ok {
		return nil, errors.Overflow(errors.PhaseResolve, nil, n, "array size")
	}

	return &Descriptor{
		Kind:  KindArray,
		Elem:  elem,
		Len:   n,
		Size:  size,
		Align: ed.Align,
	}, nil
}

func safeMul(a, b uint32) (uint32, bool) {
	p := uint64(a) * uint64(b)
	if p > 1<<32-1 {
		return 0, false
	}
	return uint32(p), true
}

func safeAdd(a, b uint32) (uint32, bool) {
	s := uint64(a) + uint64(b)
	if s > 1<<32-1 {
		return 0, false
	}
	return uint32(s), true
}
