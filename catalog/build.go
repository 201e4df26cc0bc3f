package catalog

import (
	"math/bits"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/mapped-types/convert"
	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/mapped"
	"github.com/wippyai/mapped-types/nativetype"
)

// Entry is a built catalog type. Converter is the converter behind Type
// before any reference declaration is applied.
type Entry struct {
	Type      *mapped.Type
	Converter mapped.Converter
	Name      string
	Kind      string
}

// Set holds built types in declaration order.
type Set struct {
	registry *nativetype.Registry
	index    map[string]int
	entries  []Entry
}

// Registry returns the registry the types were resolved against.
func (s *Set) Registry() *nativetype.Registry {
	return s.registry
}

// Entries returns the built types in declaration order.
func (s *Set) Entries() []Entry {
	return s.entries
}

// Lookup returns the mapped type declared as name.
func (s *Set) Lookup(name string) (*mapped.Type, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.entries[i].Type, true
}

// Len returns the number of types.
func (s *Set) Len() int {
	return len(s.entries)
}

// Build defines a mapped type per entry. When reg is nil a registry for
// the catalog's data model is created.
func (f *File) Build(reg *nativetype.Registry) (*Set, error) {
	if reg == nil {
		model, err := nativetype.ParseDataModel(f.Model)
		if err != nil {
			return nil, err
		}
		reg = nativetype.NewRegistry(model)
	}

	set := &Set{
		registry: reg,
		index:    make(map[string]int, len(f.Types)),
		entries:  make([]Entry, 0, len(f.Types)),
	}
	for i, t := range f.Types {
		conv, err := t.converter()
		if err != nil {
			return nil, err
		}
		typ, err := mapped.Define(t.declare(conv), mapped.WithRegistry(reg), mapped.WithLogger(Logger()))
		if err != nil {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("types", t.Name).
				NativeType(t.Native).
				Cause(err).
				Build()
		}
		set.index[t.Name] = i
		set.entries = append(set.entries, Entry{Name: t.Name, Kind: t.Kind, Type: typ, Converter: conv})
	}
	Logger().Debug("catalog built",
		zap.Int("types", set.Len()),
		zap.Stringer("model", reg.Model()))
	return set, nil
}

func (t *TypeEntry) converter() (mapped.Converter, error) {
	var conv mapped.Converter
	switch t.Kind {
	case KindEnum:
		e, err := convert.NewEnum(t.Name, t.Native, t.sequence())
		if err != nil {
			return nil, err
		}
		conv = e
	case KindBitmask:
		b, err := convert.NewBitmask(t.Name, t.Native, t.flagBits())
		if err != nil {
			return nil, err
		}
		conv = b
	case KindBool:
		conv = convert.BoolInt{Native: t.Native}
	case KindAlias:
		conv = alias(t.Native)
	default:
		return nil, invalid([]string{"types", t.Name}, "unknown kind "+strconv.Quote(t.Kind))
	}
	return conv, nil
}

// declare applies an explicit reference_required to conv.
func (t *TypeEntry) declare(conv mapped.Converter) any {
	if t.ReferenceRequired == nil {
		return conv
	}
	return mapped.Funcs{
		NativeType:        conv.NativeType,
		ToNative:          conv.ToNative,
		FromNative:        conv.FromNative,
		ReferenceRequired: *t.ReferenceRequired,
	}
}

// sequence numbers enum values without one from the previous value plus
// one, starting at 0.
func (t *TypeEntry) sequence() []convert.EnumValue {
	out := make([]convert.EnumValue, len(t.Values))
	next := int64(0)
	for i, v := range t.Values {
		n := next
		if v.Value != nil {
			n = *v.Value
		}
		out[i] = convert.EnumValue{Symbol: v.Name, Value: n}
		next = n + 1
	}
	return out
}

// flagBits gives each flag without a value the lowest bit no other flag
// uses. Once all bits are taken the value is 0, which NewBitmask rejects.
func (t *TypeEntry) flagBits() []convert.EnumValue {
	var used uint64
	for _, v := range t.Values {
		if v.Value != nil && *v.Value > 0 {
			used |= uint64(*v.Value)
		}
	}
	out := make([]convert.EnumValue, len(t.Values))
	for i, v := range t.Values {
		var n int64
		if v.Value != nil {
			n = *v.Value
		} else {
			bit := uint64(1) << bits.TrailingZeros64(^used)
			used |= bit
			n = int64(bit)
		}
		out[i] = convert.EnumValue{Symbol: v.Name, Value: n}
	}
	return out
}

// alias passes values through unchanged.
type alias string

func (a alias) NativeType() any {
	return string(a)
}

func (alias) ToNative(v any, _ mapped.Context) (any, error) {
	return v, nil
}

func (alias) FromNative(v any, _ mapped.Context) (any, error) {
	return v, nil
}
