package mapped

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/mapped-types/nativetype"
)

// Type is a native type defined by a converter. It is immutable.
type Type struct {
	converter           any
	realType            *nativetype.Descriptor
	desc                *nativetype.Descriptor
	toNative            dispatchFunc
	fromNative          dispatchFunc
	id                  uuid.UUID
	isReferenceRequired bool
}

var (
	defaultRegistry     *nativetype.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry used when Define gets no WithRegistry
// option. It describes the host data model.
func DefaultRegistry() *nativetype.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = nativetype.NewRegistry(nativetype.HostModel())
	})
	return defaultRegistry
}

// Option configures Define.
type Option func(*options)

type options struct {
	registry *nativetype.Registry
	logger   *zap.Logger
}

// WithRegistry resolves native_type results against r.
func WithRegistry(r *nativetype.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger overrides the package logger for this definition.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Define validates conv and builds a mapped type from it.
//
// It fails with a capability error when native_type, to_native or
// from_native is missing, an arity error when a conversion operation does
// not take exactly two parameters, and a type error when native_type does
// not yield a native type descriptor. Errors returned by the converter's own
// NativeType or ReferenceRequired are returned unchanged. On failure no Type
// is produced.
func Define(conv any, opts ...Option) (*Type, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.logger == nil {
		o.logger = Logger()
	}

	b, err := probe(conv)
	if err != nil {
		return nil, err
	}

	declared, err := b.nativeType()
	if err != nil {
		return nil, err
	}
	realType, err := o.registry.Resolve(declared)
	if err != nil {
		return nil, err
	}

	var refRequired bool
	if b.referenceRequired != nil {
		v, err := b.referenceRequired()
		if err != nil {
			return nil, err
		}
		refRequired = truthy(v)
	} else {
		refRequired = !realType.Kind.IsScalar()
	}

	t := &Type{
		id:                  uuid.New(),
		realType:            realType,
		converter:           conv,
		toNative:            b.toNative,
		fromNative:          b.fromNative,
		isReferenceRequired: refRequired,
		desc: &nativetype.Descriptor{
			Kind:  nativetype.KindMapped,
			Name:  "mapped<" + realType.String() + ">",
			Size:  realType.Size,
			Align: realType.Align,
		},
	}

	o.logger.Debug("mapped type defined",
		zap.Stringer("id", t.id),
		zap.Stringer("real_type", realType),
		zap.Uint32("size", realType.Size),
		zap.Uint32("align", realType.Align),
		zap.Bool("reference_required", refRequired),
		zap.Bool("declared", b.referenceRequired != nil),
	)

	return t, nil
}

// MustDefine is like Define but panics on error. For package-level types.
func MustDefine(conv any, opts ...Option) *Type {
	t, err := Define(conv, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// ID identifies this instance. Two definitions from the same converter
// have distinct IDs.
func (t *Type) ID() uuid.UUID {
	return t.id
}

// RealType returns the underlying native representation.
func (t *Type) RealType() *nativetype.Descriptor {
	return t.realType
}

// Converter returns the converter the type was defined from.
func (t *Type) Converter() any {
	return t.converter
}

func (t *Type) Size() uint32 {
	return t.desc.Size
}

func (t *Type) Align() uint32 {
	return t.desc.Align
}

// IsReferenceRequired reports whether converted values must stay reachable
// until the native call that uses them completes.
func (t *Type) IsReferenceRequired() bool {
	return t.isReferenceRequired
}

// IsPostInvokeRequired is always false. Post-call work belongs to the
// real type.
func (t *Type) IsPostInvokeRequired() bool {
	return false
}

// Descriptor returns a mapped descriptor with the real type's size and
// alignment, so a Type can be used as a struct field or array element.
func (t *Type) Descriptor() *nativetype.Descriptor {
	return t.desc
}

func (t *Type) String() string {
	return t.desc.Name
}

// ToNative converts value with NoContext.
func (t *Type) ToNative(value any) (any, error) {
	return t.toNative(value, NoContext)
}

// FromNative converts a native value with NoContext.
func (t *Type) FromNative(value any) (any, error) {
	return t.fromNative(value, NoContext)
}

// ToNativeCtx converts value, forwarding ctx to the converter.
func (t *Type) ToNativeCtx(value any, ctx Context) (any, error) {
	return t.toNative(value, ctx)
}

// FromNativeCtx converts a native value, forwarding ctx to the converter.
func (t *Type) FromNativeCtx(value any, ctx Context) (any, error) {
	return t.fromNative(value, ctx)
}
