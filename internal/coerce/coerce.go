package coerce

import "math"

// ToInt64 accepts any integer type, and floats holding an integral value.
func ToInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v), true
		}
	case uintptr:
		if uint64(v) <= math.MaxInt64 {
			return int64(v), true
		}
	case float64:
		if v >= math.MinInt64 && v < math.MaxInt64 && v == math.Trunc(v) {
			return int64(v), true
		}
	case float32:
		f := float64(v)
		if f >= math.MinInt64 && f < math.MaxInt64 && f == math.Trunc(f) {
			return int64(f), true
		}
	}
	return 0, false
}

// ToUint64 accepts any non-negative integer, and non-negative integral floats.
func ToUint64(value any) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint:
		return uint64(v), true
	case uintptr:
		return uint64(v), true
	case float64:
		if v >= 0 && v < math.MaxUint64 && v == math.Trunc(v) {
			return uint64(v), true
		}
	case float32:
		f := float64(v)
		if f >= 0 && f < math.MaxUint64 && f == math.Trunc(f) {
			return uint64(f), true
		}
	default:
		if i, ok := ToInt64(value); ok && i >= 0 {
			return uint64(i), true
		}
	}
	return 0, false
}

// ToFloat64 accepts floats and integers.
func ToFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := ToInt64(value); ok {
		return float64(i), true
	}
	if u, ok := ToUint64(value); ok {
		return float64(u), true
	}
	return 0, false
}

// ToBool accepts bool and integers (non-zero is true).
func ToBool(value any) (bool, bool) {
	if b, ok := value.(bool); ok {
		return b, true
	}
	if i, ok := ToInt64(value); ok {
		return i != 0, true
	}
	if u, ok := ToUint64(value); ok {
		return u != 0, true
	}
	return false, false
}

// FitsSigned reports whether v is representable in size bytes, two's complement.
func FitsSigned(v int64, size uint32) bool {
	if size >= 8 {
		return true
	}
	bits := size * 8
	lo := int64(-1) << (bits - 1)
	hi := int64(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

// FitsUnsigned reports whether v is representable in size bytes.
func FitsUnsigned(v uint64, size uint32) bool {
	if size >= 8 {
		return true
	}
	return v < uint64(1)<<(size*8)
}
