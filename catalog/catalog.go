package catalog

import (
	"os"
	"strconv"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/nativetype"
)

// Kinds of catalog entries.
const (
	KindEnum    = "enum"
	KindBitmask = "bitmask"
	KindAlias   = "alias"
	KindBool    = "bool"
)

// File is a parsed catalog.
type File struct {
	Version string      `yaml:"version"`
	Model   string      `yaml:"model,omitempty"`
	Types   []TypeEntry `yaml:"types"`
}

// TypeEntry declares one mapped type.
type TypeEntry struct {
	ReferenceRequired *bool   `yaml:"reference_required,omitempty"`
	Name              string  `yaml:"name"`
	Kind              string  `yaml:"kind"`
	Native            string  `yaml:"native,omitempty"`
	Values            []Value `yaml:"values,omitempty"`
}

// Value is an enum symbol or bitmask flag. In YAML it is either a bare
// name or a {name, value} mapping.
type Value struct {
	Value *int64 `yaml:"value,omitempty"`
	Name  string `yaml:"name"`
}

// UnmarshalYAML accepts a scalar name or a {name, value} mapping.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&v.Name)
	case yaml.MappingNode:
		type plain Value
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		*v = Value(p)
		return nil
	default:
		return errors.InvalidInput(errors.PhaseConfig,
			"line "+strconv.Itoa(node.Line)+": value must be a name or a {name, value} mapping")
	}
}

// MarshalYAML writes values without an explicit number as bare names.
func (v Value) MarshalYAML() (any, error) {
	if v.Value == nil {
		return v.Name, nil
	}
	type plain Value
	return plain(v), nil
}

// LoadFile reads and parses a catalog.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read catalog "+path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	Logger().Debug("catalog loaded",
		zap.String("path", path),
		zap.Int("types", len(f.Types)))
	return f, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse catalog")
	}
	applyDefaults(&f)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal serializes f to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}
	for i := range f.Types {
		t := &f.Types[i]
		if t.Native == "" {
			switch t.Kind {
			case KindBitmask:
				t.Native = "uint"
			default:
				t.Native = "int"
			}
		}
	}
}

// Validate checks the structure of f. It does not resolve native types;
// Build does.
func (f *File) Validate() error {
	if f.Version != "1" {
		return errors.New(errors.PhaseConfig, errors.KindUnsupported).
			Value(f.Version).
			Detail("catalog version %q", f.Version).
			Build()
	}
	if _, err := nativetype.ParseDataModel(f.Model); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(f.Types))
	for i, t := range f.Types {
		path := []string{"types", strconv.Itoa(i)}
		if t.Name == "" {
			return invalid(path, "missing name")
		}
		path[1] = t.Name
		if _, dup := seen[t.Name]; dup {
			return invalid(path, "duplicate type")
		}
		seen[t.Name] = struct{}{}

		switch t.Kind {
		case KindEnum, KindBitmask:
			if len(t.Values) == 0 {
				return invalid(path, t.Kind+" needs values")
			}
		case KindAlias, KindBool:
			if len(t.Values) != 0 {
				return invalid(path, t.Kind+" takes no values")
			}
		default:
			return invalid(path, "unknown kind "+strconv.Quote(t.Kind))
		}
	}
	return nil
}

func invalid(path []string, detail string) *errors.Error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(path...).
		Detail("%s", detail).
		Build()
}
