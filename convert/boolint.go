package convert

import (
	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/internal/coerce"
	"github.com/wippyai/mapped-types/mapped"
)

// BoolInt maps Go booleans onto a C integer: true is 1, false is 0.
// Any non-zero native value reads back as true.
type BoolInt struct {
	// Native defaults to "int".
	Native any
}

func (b BoolInt) NativeType() any {
	if b.Native == nil {
		return "int"
	}
	return b.Native
}

func (BoolInt) ToNative(value any, _ mapped.Context) (any, error) {
	v, ok := value.(bool)
	if !ok {
		return nil, mismatch(errors.PhaseToNative, value, boolType)
	}
	if v {
		return int64(1), nil
	}
	return int64(0), nil
}

func (BoolInt) FromNative(value any, _ mapped.Context) (any, error) {
	if v, ok := coerce.ToInt64(value); ok {
		return v != 0, nil
	}
	if v, ok := coerce.ToUint64(value); ok {
		return v != 0, nil
	}
	return nil, mismatch(errors.PhaseFromNative, value, int64Type)
}
