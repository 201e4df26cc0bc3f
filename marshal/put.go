package marshal

import (
	"reflect"
	"strconv"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/mapped"
	"github.com/wippyai/mapped-types/nativetype"
)

// Put writes v at addr as type t. t is a *mapped.Type or anything the
// session registry resolves.
//
// Structs take a map[string]any (missing fields are zeroed) or a []any in
// field order. Arrays take any slice or array no longer than the array;
// char arrays also take a string. Strings and buffers are copied into
// session allocations and their address is stored.
func (s *Session) Put(addr uint32, t any, v any) error {
	return s.put(addr, t, v, nil)
}

func (s *Session) resolve(t any) (*mapped.Type, *nativetype.Descriptor, error) {
	if mt, ok := t.(*mapped.Type); ok {
		if mt == nil {
			return nil, nil, errors.NilPointer(errors.PhaseMarshal, nil, "*mapped.Type")
		}
		return mt, mt.RealType(), nil
	}
	d, err := s.registry.Resolve(t)
	if err != nil {
		return nil, nil, err
	}
	return nil, d, nil
}

func (s *Session) put(addr uint32, t any, v any, path []string) error {
	if s.closed {
		return errors.InvalidInput(errors.PhaseMarshal, "session closed")
	}
	mt, d, err := s.resolve(t)
	if err != nil {
		return err
	}
	if mt != nil {
		native, err := s.lowerMapped(mt, v)
		if err != nil {
			return err
		}
		v = native
	}

	switch d.Kind {
	case nativetype.KindStruct:
		return s.putStruct(addr, d, v, path)
	case nativetype.KindArray:
		return s.putArray(addr, d, v, path)
	case nativetype.KindString, nativetype.KindBufferIn, nativetype.KindBufferOut, nativetype.KindBufferInOut:
		ptr, err := s.putBytes(d, v, path)
		if err != nil {
			return err
		}
		return s.writeRaw(addr, d.Size, uint64(ptr))
	}

	raw, err := encodeScalar(d, v, path)
	if err != nil {
		return err
	}
	return s.writeRaw(addr, d.Size, raw)
}

// lowerMapped converts v with the session context. Converter errors are
// returned unchanged.
func (s *Session) lowerMapped(mt *mapped.Type, v any) (any, error) {
	native, err := mt.ToNativeCtx(v, s.call)
	if err != nil {
		return nil, err
	}
	if mt.IsReferenceRequired() || mt.IsPostInvokeRequired() {
		s.Pin(v)
		s.Pin(native)
	}
	return native, nil
}

// putBytes copies string or byte data into a fresh allocation. Strings
// get a NUL terminator. Numeric values are taken as an existing address.
func (s *Session) putBytes(d *nativetype.Descriptor, v any, path []string) (uint32, error) {
	var data []byte
	switch b := v.(type) {
	case nil:
		return 0, nil
	case string:
		data = []byte(b)
	case []byte:
		if b == nil {
			return 0, nil
		}
		data = b
	default:
		raw, err := encodeScalar(d, v, path)
		if err != nil {
			return 0, err
		}
		return uint32(raw), nil
	}
	if d.Kind == nativetype.KindString {
		data = append(data[:len(data):len(data)], 0)
	}
	ptr, err := s.Alloc(uint32(max(len(data), 1)), 1)
	if err != nil {
		return 0, err
	}
	if err := s.mem.Write(ptr, data); err != nil {
		return 0, err
	}
	return ptr, nil
}

func (s *Session) putStruct(addr uint32, d *nativetype.Descriptor, v any, path []string) error {
	switch fields := v.(type) {
	case map[string]any:
		for name := range fields {
			if _, ok := d.Field(name); !ok {
				return errors.New(errors.PhaseMarshal, errors.KindNotFound).
					Path(path...).
					NativeType(d.String()).
					Detail("no field %q", name).
					Build()
			}
		}
		for _, f := range d.Fields {
			fpath := append(path[:len(path):len(path)], f.Name)
			fv, ok := fields[f.Name]
			if !ok {
				if err := s.zero(addr+f.Offset, f.Type.Descriptor().Size); err != nil {
					return err
				}
				continue
			}
			if err := s.put(addr+f.Offset, f.Type, fv, fpath); err != nil {
				return err
			}
		}
		return nil

	case []any:
		if len(fields) != len(d.Fields) {
			return errors.New(errors.PhaseMarshal, errors.KindInvalidInput).
				Path(path...).
				NativeType(d.String()).
				Detail("struct has %d fields, got %d values", len(d.Fields), len(fields)).
				Build()
		}
		for i, f := range d.Fields {
			fpath := append(path[:len(path):len(path)], f.Name)
			if err := s.put(addr+f.Offset, f.Type, fields[i], fpath); err != nil {
				return err
			}
		}
		return nil
	}
	return mismatch(d, v, path)
}

func (s *Session) putArray(addr uint32, d *nativetype.Descriptor, v any, path []string) error {
	elem := d.Elem.Descriptor()
	stride := nativetype.AlignTo(elem.Size, elem.Align)

	if str, ok := v.(string); ok && (elem.Kind == nativetype.KindChar || elem.Kind == nativetype.KindUChar) {
		if uint32(len(str)) > d.Len {
			return errors.OutOfBounds(errors.PhaseMarshal, path, len(str), int(d.Len))
		}
		if err := s.mem.Write(addr, []byte(str)); err != nil {
			return err
		}
		return s.zero(addr+uint32(len(str)), d.Len-uint32(len(str)))
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return mismatch(d, v, path)
	}
	n := rv.Len()
	if n > int(d.Len) {
		return errors.OutOfBounds(errors.PhaseMarshal, path, n, int(d.Len))
	}
	for i := range n {
		epath := append(path[:len(path):len(path)], strconv.Itoa(i))
		if err := s.put(addr+uint32(i)*stride, d.Elem, rv.Index(i).Interface(), epath); err != nil {
			return err
		}
	}
	return s.zero(addr+uint32(n)*stride, (d.Len-uint32(n))*stride)
}

func (s *Session) zero(addr, n uint32) error {
	if n == 0 {
		return nil
	}
	return s.mem.Write(addr, make([]byte, n))
}
