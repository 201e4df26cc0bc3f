package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/mapped-types/catalog"
	"github.com/wippyai/mapped-types/convert"
	"github.com/wippyai/mapped-types/nativetype"
)

type trip struct {
	host   any
	native any
	back   any
}

// roundTrip parses input for entry, converts it to native and back.
func roundTrip(e catalog.Entry, input string) (trip, error) {
	host, err := parseValue(e, input)
	if err != nil {
		return trip{}, err
	}
	native, err := e.Type.ToNative(host)
	if err != nil {
		return trip{host: host}, err
	}
	back, err := e.Type.FromNative(native)
	if err != nil {
		return trip{host: host, native: native}, err
	}
	return trip{host: host, native: native, back: back}, nil
}

// parseValue reads text the way a user would type it for the entry's kind.
func parseValue(e catalog.Entry, input string) (any, error) {
	input = strings.TrimSpace(input)
	switch e.Kind {
	case catalog.KindEnum:
		if n, err := strconv.ParseInt(input, 0, 64); err == nil {
			return n, nil
		}
		return input, nil

	case catalog.KindBitmask:
		if n, err := strconv.ParseUint(input, 0, 64); err == nil {
			return n, nil
		}
		return strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == '|' || r == ' ' }), nil

	case catalog.KindBool:
		return strconv.ParseBool(input)
	}

	d := e.Type.RealType()
	switch {
	case d.Kind == nativetype.KindBool:
		return strconv.ParseBool(input)
	case d.Kind.IsInteger() && d.Kind.IsSigned():
		return strconv.ParseInt(input, 0, int(d.Size)*8)
	case d.Kind.IsInteger(), d.Kind.IsAddress() && d.Kind != nativetype.KindString:
		return strconv.ParseUint(input, 0, int(d.Size)*8)
	case d.Kind.IsFloat():
		return strconv.ParseFloat(input, int(min(d.Size, 8))*8)
	}
	return input, nil
}

// describe summarizes the real type and layout of e.
func describe(e catalog.Entry) string {
	ref := ""
	if e.Type.IsReferenceRequired() {
		ref = ", reference required"
	}
	return fmt.Sprintf("%s %s (size %d, align %d%s)", e.Kind, e.Type.RealType(), e.Type.Size(), e.Type.Align(), ref)
}

// symbols lists enum symbols or bitmask flags.
func symbols(e catalog.Entry) []string {
	switch c := e.Converter.(type) {
	case *convert.Enum:
		return c.Symbols()
	case *convert.Bitmask:
		return c.Flags()
	}
	return nil
}
