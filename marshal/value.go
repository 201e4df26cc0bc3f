package marshal

import (
	"fmt"
	"math"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/internal/coerce"
	"github.com/wippyai/mapped-types/nativetype"
)

// encodeScalar returns the little-endian bits of v in d.Size bytes.
// Address kinds accept a numeric address or nil.
func encodeScalar(d *nativetype.Descriptor, v any, path []string) (uint64, error) {
	switch {
	case d.Kind == nativetype.KindBool:
		b, ok := coerce.ToBool(v)
		if !ok {
			return 0, mismatch(d, v, path)
		}
		if b {
			return 1, nil
		}
		return 0, nil

	case d.Kind.IsInteger() && d.Kind.IsSigned():
		i, ok := coerce.ToInt64(v)
		if !ok {
			if _, big := coerce.ToUint64(v); big {
				return 0, errors.Overflow(errors.PhaseMarshal, path, v, d.String())
			}
			return 0, mismatch(d, v, path)
		}
		if !coerce.FitsSigned(i, d.Size) {
			return 0, errors.Overflow(errors.PhaseMarshal, path, v, d.String())
		}
		return uint64(i) & mask(d.Size), nil

	case d.Kind.IsInteger():
		u, ok := coerce.ToUint64(v)
		if !ok {
			if _, neg := coerce.ToInt64(v); neg {
				return 0, errors.Overflow(errors.PhaseMarshal, path, v, d.String())
			}
			return 0, mismatch(d, v, path)
		}
		if !coerce.FitsUnsigned(u, d.Size) {
			return 0, errors.Overflow(errors.PhaseMarshal, path, v, d.String())
		}
		return u, nil

	case d.Kind.IsFloat():
		f, ok := coerce.ToFloat64(v)
		if !ok {
			return 0, mismatch(d, v, path)
		}
		switch d.Size {
		case 4:
			if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
				return 0, errors.Overflow(errors.PhaseMarshal, path, v, d.String())
			}
			return uint64(math.Float32bits(float32(f))), nil
		case 8:
			return math.Float64bits(f), nil
		}
		return 0, errors.Unsupported(errors.PhaseMarshal, fmt.Sprintf("%d byte %s", d.Size, d.Kind))

	case d.Kind.IsAddress():
		if v == nil {
			return 0, nil
		}
		u, ok := coerce.ToUint64(v)
		if !ok {
			return 0, mismatch(d, v, path)
		}
		if !coerce.FitsUnsigned(u, d.Size) {
			return 0, errors.Overflow(errors.PhaseMarshal, path, v, d.String())
		}
		return u, nil
	}
	return 0, errors.Unsupported(errors.PhaseMarshal, "scalar encoding of "+d.String())
}

// decodeScalar turns raw bits into the Go type matching d: sized ints,
// float32/float64, bool, and uint32/uint64 addresses.
func decodeScalar(d *nativetype.Descriptor, raw uint64) (any, error) {
	raw &= mask(d.Size)
	switch {
	case d.Kind == nativetype.KindBool:
		return raw != 0, nil

	case d.Kind.IsInteger() && d.Kind.IsSigned():
		switch d.Size {
		case 1:
			return int8(raw), nil
		case 2:
			return int16(raw), nil
		case 4:
			return int32(raw), nil
		case 8:
			return int64(raw), nil
		}

	case d.Kind.IsInteger():
		switch d.Size {
		case 1:
			return uint8(raw), nil
		case 2:
			return uint16(raw), nil
		case 4:
			return uint32(raw), nil
		case 8:
			return raw, nil
		}

	case d.Kind.IsFloat():
		switch d.Size {
		case 4:
			return math.Float32frombits(uint32(raw)), nil
		case 8:
			return math.Float64frombits(raw), nil
		}

	case d.Kind.IsAddress():
		if d.Size == 4 {
			return uint32(raw), nil
		}
		return raw, nil
	}
	return nil, errors.Unsupported(errors.PhaseMarshal, fmt.Sprintf("%d byte %s", d.Size, d.Kind))
}

// signExtend widens a size-byte two's complement value to 64 bits.
func signExtend(raw uint64, size uint32) int64 {
	if size >= 8 {
		return int64(raw)
	}
	shift := 64 - size*8
	return int64(raw<<shift) >> shift
}

func mask(size uint32) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	return uint64(1)<<(size*8) - 1
}

func mismatch(d *nativetype.Descriptor, v any, path []string) *errors.Error {
	return errors.TypeMismatch(errors.PhaseMarshal, path, goTypeName(v), d.String())
}

func goTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func (s *Session) writeRaw(addr, size uint32, raw uint64) error {
	switch size {
	case 1:
		return s.mem.WriteU8(addr, uint8(raw))
	case 2:
		return s.mem.WriteU16(addr, uint16(raw))
	case 4:
		return s.mem.WriteU32(addr, uint32(raw))
	case 8:
		return s.mem.WriteU64(addr, raw)
	}
	return errors.Unsupported(errors.PhaseMarshal, fmt.Sprintf("%d byte store", size))
}

func (s *Session) readRaw(addr, size uint32) (uint64, error) {
	switch size {
	case 1:
		v, err := s.mem.ReadU8(addr)
		return uint64(v), err
	case 2:
		v, err := s.mem.ReadU16(addr)
		return uint64(v), err
	case 4:
		v, err := s.mem.ReadU32(addr)
		return uint64(v), err
	case 8:
		return s.mem.ReadU64(addr)
	}
	return 0, errors.Unsupported(errors.PhaseMarshal, fmt.Sprintf("%d byte load", size))
}
