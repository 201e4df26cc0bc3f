package marshal

import (
	stderrors "errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/wippyai/mapped-types/convert"
	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/mapped"
	"github.com/wippyai/mapped-types/nativetype"
)

func defineWasm(t *testing.T, conv any) *mapped.Type {
	t.Helper()
	typ, err := mapped.Define(conv, mapped.WithRegistry(WasmRegistry()))
	require.NoError(t, err)
	return typ
}

func colorType(t *testing.T) *mapped.Type {
	t.Helper()
	colors, err := convert.NewEnum("color", "int", convert.Sequential("red", "green", "blue"))
	require.NoError(t, err)
	return defineWasm(t, colors)
}

func TestSession_Scalars(t *testing.T) {
	sess, _ := newSession(t)

	tests := []struct {
		typ  string
		in   any
		want any
	}{
		{"char", int8(-5), int8(-5)},
		{"uchar", 200, uint8(200)},
		{"short", -1234, int16(-1234)},
		{"ushort", 65535, uint16(65535)},
		{"int", int32(-7), int32(-7)},
		{"uint", uint32(4000000000), uint32(4000000000)},
		{"long", 5, int32(5)},
		{"long_long", int64(-1 << 40), int64(-1 << 40)},
		{"ulong_long", uint64(1 << 63), uint64(1 << 63)},
		{"float", 1.5, float32(1.5)},
		{"double", 2.25, 2.25},
		{"bool", true, true},
		{"pointer", uint32(0x1234), uint32(0x1234)},
		{"pointer", nil, uint32(0)},
		{"int8", -1, int8(-1)},
		{"size_t", 42, uint32(42)},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			require.NoError(t, sess.Put(64, tt.typ, tt.in))
			got, err := sess.Get(64, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_ScalarErrors(t *testing.T) {
	sess, _ := newSession(t)

	tests := []struct {
		typ  string
		in   any
		kind errors.Kind
	}{
		{"char", 200, errors.KindOverflow},
		{"uchar", -1, errors.KindOverflow},
		{"ushort", 70000, errors.KindOverflow},
		{"int", int64(1 << 40), errors.KindOverflow},
		{"long_long", uint64(1 << 63), errors.KindOverflow},
		{"float", 1e300, errors.KindOverflow},
		{"int", "x", errors.KindTypeMismatch},
		{"double", "x", errors.KindTypeMismatch},
		{"int", 1.5, errors.KindTypeMismatch},
		{"pointer", "x", errors.KindTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			err := sess.Put(64, tt.typ, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: tt.kind})
		})
	}

	err := sess.Put(64, "no_such_type", 1)
	assert.ErrorIs(t, err, errors.ErrType)
}

func TestSession_Strings(t *testing.T) {
	sess, alloc := newSession(t)

	require.NoError(t, sess.Put(0, "string", "hello"))
	assert.Equal(t, uint32(6), alloc.Used(), "NUL terminated copy")

	got, err := sess.Get(0, "string")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	require.NoError(t, sess.Put(0, "string", nil))
	got, err = sess.Get(0, "string")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, sess.Put(4, "buffer_in", []byte{9, 8, 7}))
	ptr, err := sess.Get(4, "buffer_in")
	require.NoError(t, err)
	data, err := sess.ReadBuffer(ptr.(uint32), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, data)

	_, err = sess.ReadBuffer(0, 3)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindNilPointer})
}

func TestSession_Struct(t *testing.T) {
	sess, _ := newSession(t)
	reg := WasmRegistry()
	color := colorType(t)

	tag, err := nativetype.NewArray(reg.Builtin(nativetype.KindChar), 8)
	require.NoError(t, err)

	item, err := nativetype.NewStruct("item",
		nativetype.Field{Name: "color", Type: color},
		nativetype.Field{Name: "x", Type: reg.Builtin(nativetype.KindInt)},
		nativetype.Field{Name: "tag", Type: tag},
		nativetype.Field{Name: "flag", Type: reg.Builtin(nativetype.KindBool)},
	)
	require.NoError(t, err)
	require.Equal(t, uint32(20), item.Size, spew.Sdump(item))

	require.NoError(t, sess.Put(128, item, map[string]any{
		"color": "blue",
		"x":     -3,
		"tag":   "hi",
		"flag":  true,
	}))

	raw, err := sess.Memory().ReadU32(128)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), raw, "enum stored as its native int")

	got, err := sess.Get(128, item)
	require.NoError(t, err)
	fields := got.(map[string]any)
	assert.Equal(t, "blue", fields["color"])
	assert.Equal(t, int32(-3), fields["x"])
	assert.Equal(t, true, fields["flag"])
	tagged := fields["tag"].([]any)
	require.Len(t, tagged, 8)
	assert.Equal(t, []any{int8('h'), int8('i'), int8(0)}, tagged[:3])

	t.Run("missing fields are zeroed", func(t *testing.T) {
		require.NoError(t, sess.Put(128, item, map[string]any{"x": 9}))
		got, err := sess.Get(128, item)
		require.NoError(t, err)
		assert.Equal(t, "red", got.(map[string]any)["color"])
		assert.Equal(t, false, got.(map[string]any)["flag"])
	})

	t.Run("positional", func(t *testing.T) {
		require.NoError(t, sess.Put(128, item, []any{"green", 1, []int8{1, 2}, false}))
		got, err := sess.Get(128, item)
		require.NoError(t, err)
		assert.Equal(t, "green", got.(map[string]any)["color"])
	})

	t.Run("unknown field", func(t *testing.T) {
		err := sess.Put(128, item, map[string]any{"y": 1})
		assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindNotFound})
	})

	t.Run("wrong arity", func(t *testing.T) {
		err := sess.Put(128, item, []any{"red"})
		assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindInvalidInput})
	})

	t.Run("error path", func(t *testing.T) {
		err := sess.Put(128, item, map[string]any{"x": "nope"})
		var e *errors.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, []string{"x"}, e.Path)
	})
}

func TestSession_Array(t *testing.T) {
	sess, _ := newSession(t)
	reg := WasmRegistry()

	arr, err := nativetype.NewArray(reg.Builtin(nativetype.KindUShort), 4)
	require.NoError(t, err)

	require.NoError(t, sess.Put(256, arr, []int{1, 2, 3}))
	got, err := sess.Get(256, arr)
	require.NoError(t, err)
	assert.Equal(t, []any{uint16(1), uint16(2), uint16(3), uint16(0)}, got)

	err = sess.Put(256, arr, []int{1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindOutOfBounds})

	err = sess.Put(256, arr, 7)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindTypeMismatch})

	colors, err := nativetype.NewArray(colorType(t), 2)
	require.NoError(t, err)
	require.NoError(t, sess.Put(256, colors, []string{"blue", "green"}))
	got, err = sess.Get(256, colors)
	require.NoError(t, err)
	assert.Equal(t, []any{"blue", "green"}, got)
}

func TestSession_MappedUnknownValue(t *testing.T) {
	sess, _ := newSession(t)
	color := colorType(t)

	require.NoError(t, sess.Put(0, "int", 42))
	got, err := sess.Get(0, color)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestSession_ReferenceRequiredPins(t *testing.T) {
	sess, _ := newSession(t)

	conv, err := convert.NewProto(&wrapperspb.StringValue{})
	require.NoError(t, err)
	msgType := defineWasm(t, conv)
	require.True(t, msgType.IsReferenceRequired())

	msg := wrapperspb.String("pinned")
	require.NoError(t, sess.Put(0, msgType, msg))
	assert.Equal(t, 2, sess.Pins(), "host value and native bytes")

	encoded, err := proto.Marshal(msg)
	require.NoError(t, err)

	ptr, err := sess.Memory().ReadU32(0)
	require.NoError(t, err)
	n, err := sess.Memory().ReadU32(ptr)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(encoded)), n)
	data, err := sess.ReadBuffer(ptr+4, n)
	require.NoError(t, err)
	assert.Equal(t, encoded, data)

	require.NoError(t, sess.Put(8, colorType(t), "red"))
	assert.Equal(t, 2, sess.Pins(), "scalar mapped types are not pinned")
}

func TestSession_ProtoRoundTrip(t *testing.T) {
	sess, _ := newSession(t)

	conv, err := convert.NewProto(&wrapperspb.StringValue{})
	require.NoError(t, err)
	msgType := defineWasm(t, conv)

	require.NoError(t, sess.Put(0x100, msgType, wrapperspb.String("hi")))
	got, err := sess.Get(0x100, msgType)
	require.NoError(t, err)
	require.IsType(t, &wrapperspb.StringValue{}, got)
	assert.Equal(t, "hi", got.(*wrapperspb.StringValue).GetValue())

	require.NoError(t, sess.Put(0x100, "pointer", 0))
	got, err = sess.Get(0x100, msgType)
	require.NoError(t, err)
	assert.Nil(t, got)
}

type ctxRecorder struct {
	seen []mapped.Context
}

func (*ctxRecorder) NativeType() any { return "int" }

func (r *ctxRecorder) ToNative(v any, ctx mapped.Context) (any, error) {
	r.seen = append(r.seen, ctx)
	return v, nil
}

func (r *ctxRecorder) FromNative(v any, ctx mapped.Context) (any, error) {
	r.seen = append(r.seen, ctx)
	return v, nil
}

func TestSession_ForwardsCallContext(t *testing.T) {
	sess, _ := newSession(t)
	rec := &ctxRecorder{}
	typ := defineWasm(t, rec)

	require.NoError(t, sess.Put(0, typ, 5))
	got, err := sess.Get(0, typ)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got)

	require.Len(t, rec.seen, 2)
	for _, ctx := range rec.seen {
		call, ok := ctx.(*CallContext)
		require.True(t, ok)
		assert.Same(t, sess.CallContext(), call)
		assert.Same(t, sess, call.Session())
		assert.NotNil(t, call.Context())
	}
}

// sessionAware declares the session context type in its signatures.
type sessionAware struct{ calls int }

func (*sessionAware) NativeType() string { return "int" }

func (s *sessionAware) ToNative(v int32, ctx *CallContext) (int32, error) {
	if ctx != nil {
		s.calls++
	}
	return v * 10, nil
}

func (s *sessionAware) FromNative(v int32, ctx *CallContext) int32 {
	if ctx != nil {
		s.calls++
	}
	return v / 10
}

type otherCtx struct{}

// foreignCtx declares a context type sessions never pass.
type foreignCtx struct{}

func (foreignCtx) NativeType() string                    { return "int" }
func (foreignCtx) ToNative(v int32, _ *otherCtx) int32   { return v }
func (foreignCtx) FromNative(v int32, _ *otherCtx) int32 { return v }

func TestSession_TypedContextParameters(t *testing.T) {
	sess, _ := newSession(t)

	aware := &sessionAware{}
	typ := defineWasm(t, aware)
	require.NoError(t, sess.Put(0, typ, int32(4)))
	raw, err := sess.Get(0, "int")
	require.NoError(t, err)
	assert.Equal(t, int32(40), raw)

	got, err := sess.Get(0, typ)
	require.NoError(t, err)
	assert.Equal(t, int32(4), got)
	assert.Equal(t, 2, aware.calls)

	err = sess.Put(0, defineWasm(t, foreignCtx{}), int32(1))
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseToNative, Kind: errors.KindTypeMismatch})
}

var errRejected = stderrors.New("rejected")

type rejecting struct{}

func (rejecting) NativeType() any                                 { return "int" }
func (rejecting) ToNative(any, mapped.Context) (any, error)       { return nil, errRejected }
func (rejecting) FromNative(v any, _ mapped.Context) (any, error) { return v, nil }

func TestSession_ConverterErrorUnchanged(t *testing.T) {
	sess, _ := newSession(t)
	typ := defineWasm(t, rejecting{})

	err := sess.Put(0, typ, 1)
	require.Error(t, err)
	assert.True(t, err == errRejected, "converter error returned as is")
}

func TestSession_Close(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sess, alloc := newSession(t, WithLogger(zap.New(core)))

	require.NoError(t, sess.Put(0, "string", "a"))
	require.NoError(t, sess.Put(4, "string", "bc"))
	require.NotZero(t, alloc.Used())

	sess.Close()
	assert.Zero(t, alloc.Used(), "allocations freed in reverse order")
	assert.Zero(t, sess.Pins())

	entries := logs.FilterMessage("session closed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].ContextMap()["allocations"])

	sess.Close()
	assert.Len(t, logs.FilterMessage("session closed").All(), 1, "second close is a no-op")

	err := sess.Put(0, "int", 1)
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindInvalidInput})

	_, err = sess.Alloc(4, 4)
	assert.Error(t, err)
}

func TestSession_NoAllocator(t *testing.T) {
	ctx, rt := newRuntime(t)
	sess := NewSession(ctx, newMemory(t, ctx, rt), nil)
	defer sess.Close()

	require.NoError(t, sess.Put(0, "int", 1))
	err := sess.Put(0, "string", "x")
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindUnsupported})
}
