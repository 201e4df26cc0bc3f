package convert

import (
	"slices"
	"strconv"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/internal/coerce"
	"github.com/wippyai/mapped-types/mapped"
)

// EnumValue binds a symbol to its native integer.
type EnumValue struct {
	Symbol string
	Value  int64
}

// Sequential numbers symbols from zero in order.
func Sequential(symbols ...string) []EnumValue {
	values := make([]EnumValue, len(symbols))
	for i, s := range symbols {
		values[i] = EnumValue{Symbol: s, Value: int64(i)}
	}
	return values
}

// Enum converts symbols to integers and back.
//
// ToNative accepts a symbol or an integer (passed through). FromNative
// returns the symbol for known values and the int64 value otherwise.
type Enum struct {
	native  any
	bySym   map[string]int64
	byValue map[int64]string
	name    string
	symbols []string
}

// NewEnum builds an enum over native (any descriptor-like value; "int" when nil).
// Symbols must be unique and non-empty. When two symbols share a value,
// FromNative reports the first.
func NewEnum(name string, native any, values []EnumValue) (*Enum, error) {
	if native == nil {
		native = "int"
	}
	e := &Enum{
		name:    name,
		native:  native,
		bySym:   make(map[string]int64, len(values)),
		byValue: make(map[int64]string, len(values)),
		symbols: make([]string, 0, len(values)),
	}
	for _, v := range values {
		if v.Symbol == "" {
			return nil, errors.InvalidInput(errors.PhaseConfig, "enum "+strconv.Quote(name)+": empty symbol")
		}
		if _, dup := e.bySym[v.Symbol]; dup {
			return nil, errors.InvalidInput(errors.PhaseConfig, "enum "+strconv.Quote(name)+": duplicate symbol "+strconv.Quote(v.Symbol))
		}
		e.bySym[v.Symbol] = v.Value
		if _, taken := e.byValue[v.Value]; !taken {
			e.byValue[v.Value] = v.Symbol
		}
		e.symbols = append(e.symbols, v.Symbol)
	}
	return e, nil
}

func (e *Enum) Name() string {
	return e.name
}

// Symbols returns the symbols in declaration order.
func (e *Enum) Symbols() []string {
	return slices.Clone(e.symbols)
}

// Value returns the integer bound to symbol.
func (e *Enum) Value(symbol string) (int64, bool) {
	v, ok := e.bySym[symbol]
	return v, ok
}

// Symbol returns the first symbol bound to v.
func (e *Enum) Symbol(v int64) (string, bool) {
	s, ok := e.byValue[v]
	return s, ok
}

func (e *Enum) NativeType() any {
	return e.native
}

func (e *Enum) ToNative(value any, _ mapped.Context) (any, error) {
	if s, ok := value.(string); ok {
		v, found := e.bySym[s]
		if !found {
			return nil, errors.New(errors.PhaseToNative, errors.KindInvalidInput).
				Value(s).
				Detail("invalid enum value %q for %s", s, e.name).
				Build()
		}
		return v, nil
	}
	if v, ok := coerce.ToInt64(value); ok {
		return v, nil
	}
	return nil, mismatch(errors.PhaseToNative, value, stringType)
}

func (e *Enum) FromNative(value any, _ mapped.Context) (any, error) {
	v, ok := coerce.ToInt64(value)
	if !ok {
		return nil, mismatch(errors.PhaseFromNative, value, int64Type)
	}
	if s, found := e.byValue[v]; found {
		return s, nil
	}
	return v, nil
}
