package convert

import (
	"math/bits"
	"slices"
	"strconv"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/internal/coerce"
	"github.com/wippyai/mapped-types/mapped"
)

// BitSet is the host-side form of a bitmask value.
// Names holds known flags in declaration order; Unknown keeps any
// bits no flag covers.
type BitSet struct {
	Names   []string
	Unknown uint64
}

// Has reports whether name is set.
func (b BitSet) Has(name string) bool {
	return slices.Contains(b.Names, name)
}

// Bitmask converts sets of flag names to an unsigned integer and back.
type Bitmask struct {
	native any
	bits   map[string]uint64
	name   string
	flags  []string
	all    uint64
}

// NewBitmask builds a bitmask over native ("uint" when nil). Each flag
// value must be a single non-zero bit not used by another flag.
func NewBitmask(name string, native any, values []EnumValue) (*Bitmask, error) {
	if native == nil {
		native = "uint"
	}
	b := &Bitmask{
		name:   name,
		native: native,
		bits:   make(map[string]uint64, len(values)),
		flags:  make([]string, 0, len(values)),
	}
	for _, v := range values {
		switch {
		case v.Symbol == "":
			return nil, errors.InvalidInput(errors.PhaseConfig, "bitmask "+strconv.Quote(name)+": empty flag")
		case v.Value <= 0 || bits.OnesCount64(uint64(v.Value)) != 1:
			return nil, errors.InvalidInput(errors.PhaseConfig,
				"bitmask "+strconv.Quote(name)+": flag "+strconv.Quote(v.Symbol)+" must be a single bit")
		}
		if _, dup := b.bits[v.Symbol]; dup {
			return nil, errors.InvalidInput(errors.PhaseConfig, "bitmask "+strconv.Quote(name)+": duplicate flag "+strconv.Quote(v.Symbol))
		}
		if b.all&uint64(v.Value) != 0 {
			return nil, errors.InvalidInput(errors.PhaseConfig,
				"bitmask "+strconv.Quote(name)+": flag "+strconv.Quote(v.Symbol)+" reuses bit "+strconv.FormatInt(v.Value, 10))
		}
		b.bits[v.Symbol] = uint64(v.Value)
		b.flags = append(b.flags, v.Symbol)
		b.all |= uint64(v.Value)
	}
	return b, nil
}

// Flags numbers symbols as consecutive bits starting at 1.
func Flags(symbols ...string) []EnumValue {
	values := make([]EnumValue, len(symbols))
	for i, s := range symbols {
		values[i] = EnumValue{Symbol: s, Value: int64(1) << i}
	}
	return values
}

func (b *Bitmask) Name() string {
	return b.name
}

// Flags returns the flag names in declaration order.
func (b *Bitmask) Flags() []string {
	return slices.Clone(b.flags)
}

func (b *Bitmask) NativeType() any {
	return b.native
}

// ToNative accepts []string, BitSet, or an unsigned integer.
func (b *Bitmask) ToNative(value any, _ mapped.Context) (any, error) {
	switch v := value.(type) {
	case []string:
		return b.pack(v, 0)
	case BitSet:
		return b.pack(v.Names, v.Unknown)
	case *BitSet:
		if v == nil {
			return uint64(0), nil
		}
		return b.pack(v.Names, v.Unknown)
	}
	if n, ok := coerce.ToUint64(value); ok {
		return n, nil
	}
	return nil, mismatch(errors.PhaseToNative, value, bitSetType)
}

func (b *Bitmask) pack(names []string, unknown uint64) (uint64, error) {
	out := unknown
	for _, name := range names {
		bit, ok := b.bits[name]
		if !ok {
			return 0, errors.New(errors.PhaseToNative, errors.KindInvalidInput).
				Value(name).
				Detail("invalid flag %q for %s", name, b.name).
				Build()
		}
		out |= bit
	}
	return out, nil
}

// FromNative returns a BitSet.
func (b *Bitmask) FromNative(value any, _ mapped.Context) (any, error) {
	n, ok := coerce.ToUint64(value)
	if !ok {
		if i, signed := coerce.ToInt64(value); signed {
			n = uint64(i)
		} else {
			return nil, mismatch(errors.PhaseFromNative, value, uint64Type)
		}
	}
	set := BitSet{Unknown: n &^ b.all}
	for _, name := range b.flags {
		if n&b.bits[name] != 0 {
			set.Names = append(set.Names, name)
		}
	}
	return set, nil
}
