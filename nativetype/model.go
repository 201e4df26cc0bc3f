package nativetype

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/wippyai/mapped-types/errors"
)

// DataModel selects the sizes of long and pointer.
type DataModel uint8

const (
	ILP32 DataModel = iota
	LP64
	LLP64
)

func (m DataModel) String() string {
	switch m {
	case ILP32:
		return "ilp32"
	case LP64:
		return "lp64"
	case LLP64:
		return "llp64"
	default:
		return "unknown"
	}
}

// PointerSize returns the size of an address in bytes.
func (m DataModel) PointerSize() uint32 {
	if m == ILP32 {
		return 4
	}
	return 8
}

// LongSize returns the size of C long in bytes.
func (m DataModel) LongSize() uint32 {
	if m == LP64 {
		return 8
	}
	return 4
}

func (m DataModel) longDoubleSize() uint32 {
	if m == LLP64 {
		return 8
	}
	return 16
}

// HostModel returns the data model of the running Go toolchain target.
func HostModel() DataModel {
	if strconv.IntSize == 32 {
		return ILP32
	}
	if runtime.GOOS == "windows" {
		return LLP64
	}
	return LP64
}

// ParseDataModel parses "ilp32" (alias "wasm32"), "lp64", "llp64" or "host".
func ParseDataModel(s string) (DataModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ilp32", "wasm32":
		return ILP32, nil
	case "lp64":
		return LP64, nil
	case "llp64":
		return LLP64, nil
	case "host", "":
		return HostModel(), nil
	default:
		return 0, errors.InvalidInput(errors.PhaseConfig, "unknown data model "+strconv.Quote(s))
	}
}
