package convert

import (
	"math"
	"reflect"

	"github.com/wippyai/mapped-types/internal/coerce"
)

var (
	int64Type  = reflect.TypeFor[int64]()
	uint64Type = reflect.TypeFor[uint64]()
	boolType   = reflect.TypeFor[bool]()
	bytesType  = reflect.TypeFor[[]byte]()
	bitSetType = reflect.TypeFor[BitSet]()
	stringType = reflect.TypeFor[string]()
)

func toHandle(value any) (uint32, bool) {
	u, ok := coerce.ToUint64(value)
	if !ok || u > math.MaxUint32 {
		return 0, false
	}
	return uint32(u), true
}
