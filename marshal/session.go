package marshal

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	mappedtypes "github.com/wippyai/mapped-types"
	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/nativetype"
)

var (
	wasmRegistry     *nativetype.Registry
	wasmRegistryOnce sync.Once
)

// WasmRegistry returns the ILP32 registry sessions use by default.
func WasmRegistry() *nativetype.Registry {
	wasmRegistryOnce.Do(func() {
		wasmRegistry = nativetype.NewRegistry(nativetype.ILP32)
	})
	return wasmRegistry
}

// Option configures a Session.
type Option func(*Session)

// WithRegistry resolves non-mapped types against r.
func WithRegistry(r *nativetype.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// WithLogger overrides the package logger for the session.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// CallContext is handed to converters as their context argument during
// a session.
type CallContext struct {
	ctx     context.Context
	session *Session
	id      uuid.UUID
}

// Context returns the context the session was created with.
func (c *CallContext) Context() context.Context {
	return c.ctx
}

// Session returns the session the call belongs to.
func (c *CallContext) Session() *Session {
	return c.session
}

// ID identifies the call in logs.
func (c *CallContext) ID() uuid.UUID {
	return c.id
}

// Memory returns the session memory, letting converters follow addresses.
func (c *CallContext) Memory() mappedtypes.Memory {
	return c.session.mem
}

var _ mappedtypes.MemoryContext = (*CallContext)(nil)

type allocation struct {
	ptr   uint32
	size  uint32
	align uint32
}

// Session scopes the memory and pinned values of one native call.
// A Session is not safe for concurrent use.
type Session struct {
	mem      mappedtypes.Memory
	alloc    mappedtypes.Allocator
	registry *nativetype.Registry
	logger   *zap.Logger
	call     *CallContext
	pins     []any
	allocs   []allocation
	closed   bool
}

// NewSession creates a session over mem. alloc may be nil when no
// strings or buffers are written.
func NewSession(ctx context.Context, mem mappedtypes.Memory, alloc mappedtypes.Allocator, opts ...Option) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Session{mem: mem, alloc: alloc}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = WasmRegistry()
	}
	if s.logger == nil {
		s.logger = Logger()
	}
	s.call = &CallContext{ctx: ctx, session: s, id: uuid.New()}
	return s
}

// CallContext returns the context forwarded to converters.
func (s *Session) CallContext() *CallContext {
	return s.call
}

func (s *Session) Memory() mappedtypes.Memory {
	return s.mem
}

func (s *Session) Registry() *nativetype.Registry {
	return s.registry
}

// Pin keeps v reachable until Close.
func (s *Session) Pin(v any) {
	s.pins = append(s.pins, v)
}

// Pins returns the number of pinned values.
func (s *Session) Pins() int {
	return len(s.pins)
}

// Alloc allocates memory released on Close.
func (s *Session) Alloc(size, align uint32) (uint32, error) {
	if s.closed {
		return 0, errors.InvalidInput(errors.PhaseMarshal, "session closed")
	}
	if s.alloc == nil {
		return 0, errors.Unsupported(errors.PhaseMarshal, "no allocator")
	}
	ptr, err := s.alloc.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	s.allocs = append(s.allocs, allocation{ptr: ptr, size: size, align: align})
	return ptr, nil
}

// Close frees session allocations in reverse order and drops pins.
// Closing twice is a no-op.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for i := len(s.allocs) - 1; i >= 0; i-- {
		a := s.allocs[i]
		s.alloc.Free(a.ptr, a.size, a.align)
	}
	s.logger.Debug("session closed",
		zap.Stringer("call", s.call.id),
		zap.Int("allocations", len(s.allocs)),
		zap.Int("pins", len(s.pins)))
	s.allocs = nil
	s.pins = nil
}
