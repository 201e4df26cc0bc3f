package marshal

import (
	"strconv"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/nativetype"
)

// Get reads a value of type t at addr.
//
// Structs come back as map[string]any and arrays as []any. A string is
// read up to its NUL terminator; a NULL string reads as nil. Buffers have
// no length, so their address is returned; use ReadBuffer to copy the
// contents. Mapped types are converted with the session context.
func (s *Session) Get(addr uint32, t any) (any, error) {
	return s.get(addr, t, nil)
}

func (s *Session) get(addr uint32, t any, path []string) (any, error) {
	if s.closed {
		return nil, errors.InvalidInput(errors.PhaseMarshal, "session closed")
	}
	mt, d, err := s.resolve(t)
	if err != nil {
		return nil, err
	}

	var native any
	switch d.Kind {
	case nativetype.KindStruct:
		native, err = s.getStruct(addr, d, path)
	case nativetype.KindArray:
		native, err = s.getArray(addr, d, path)
	case nativetype.KindString:
		var ptr uint64
		if ptr, err = s.readRaw(addr, d.Size); err == nil {
			native, err = s.ReadString(uint32(ptr))
		}
	default:
		var raw uint64
		if raw, err = s.readRaw(addr, d.Size); err == nil {
			native, err = decodeScalar(d, raw)
		}
	}
	if err != nil {
		return nil, err
	}
	if mt != nil {
		return mt.FromNativeCtx(native, s.call)
	}
	return native, nil
}

func (s *Session) getStruct(addr uint32, d *nativetype.Descriptor, path []string) (map[string]any, error) {
	out := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		v, err := s.get(addr+f.Offset, f.Type, append(path[:len(path):len(path)], f.Name))
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func (s *Session) getArray(addr uint32, d *nativetype.Descriptor, path []string) ([]any, error) {
	elem := d.Elem.Descriptor()
	stride := nativetype.AlignTo(elem.Size, elem.Align)
	out := make([]any, d.Len)
	for i := range out {
		v, err := s.get(addr+uint32(i)*stride, d.Elem, append(path[:len(path):len(path)], strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadString reads a NUL terminated string at ptr. A zero ptr reads as nil.
func (s *Session) ReadString(ptr uint32) (any, error) {
	if ptr == 0 {
		return nil, nil
	}
	var buf []byte
	for off := ptr; ; off++ {
		b, err := s.mem.ReadU8(off)
		if err != nil {
			return nil, errors.New(errors.PhaseMarshal, errors.KindInvalidData).
				Detail("unterminated string at %d", ptr).
				Cause(err).
				Build()
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// ReadBuffer copies n bytes at ptr.
func (s *Session) ReadBuffer(ptr, n uint32) ([]byte, error) {
	if ptr == 0 {
		return nil, errors.NilPointer(errors.PhaseMarshal, nil, "[]byte")
	}
	data, err := s.mem.Read(ptr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, data)
	return out, nil
}
