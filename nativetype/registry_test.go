package nativetype

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mapped-types/errors"
)

func TestRegistry_DataModels(t *testing.T) {
	tests := []struct {
		model   DataModel
		long    uint32
		pointer uint32
		sizeT   Kind
	}{
		{ILP32, 4, 4, KindULong},
		{LP64, 8, 8, KindULong},
		{LLP64, 4, 8, KindULongLong},
	}

	for _, tc := range tests {
		t.Run(tc.model.String(), func(t *testing.T) {
			r := NewRegistry(tc.model)
			assert.Equal(t, tc.model, r.Model())

			long := r.Builtin(KindLong)
			require.NotNil(t, long)
			assert.Equal(t, tc.long, long.Size)
			assert.Equal(t, tc.long, long.Align)

			for _, k := range []Kind{KindPointer, KindString, KindBufferIn, KindFunction} {
				assert.Equal(t, tc.pointer, r.Builtin(k).Size, k.String())
			}

			sizeT, ok := r.Lookup("size_t")
			require.True(t, ok)
			assert.Equal(t, tc.sizeT, sizeT.Kind)
		})
	}
}

func TestRegistry_FixedSizes(t *testing.T) {
	r := NewRegistry(LP64)
	tests := []struct {
		kind  Kind
		size  uint32
		align uint32
	}{
		{KindVoid, 0, 1},
		{KindBool, 1, 1},
		{KindChar, 1, 1},
		{KindUShort, 2, 2},
		{KindInt, 4, 4},
		{KindULongLong, 8, 8},
		{KindFloat, 4, 4},
		{KindDouble, 8, 8},
		{KindLongDouble, 16, 16},
	}
	for _, tc := range tests {
		d := r.Builtin(tc.kind)
		require.NotNil(t, d, tc.kind.String())
		assert.Equal(t, tc.size, d.Size, tc.kind.String())
		assert.Equal(t, tc.align, d.Align, tc.kind.String())
	}

	assert.Nil(t, r.Builtin(KindStruct))
	assert.Nil(t, r.Builtin(KindMapped))
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(ILP32)
	intDesc := r.Builtin(KindInt)

	point, err := NewStruct("point", Field{Name: "x", Type: intDesc}, Field{Name: "y", Type: intDesc})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   any
		want *Descriptor
	}{
		{"descriptor", intDesc, intDesc},
		{"kind", KindDouble, r.Builtin(KindDouble)},
		{"name", "int", intDesc},
		{"alias", "uint8", r.Builtin(KindUChar)},
		{"struct", point, point},
		{"wit u32", wit.U32{}, r.Builtin(KindUInt)},
		{"wit s64", wit.S64{}, r.Builtin(KindLongLong)},
		{"wit f32", wit.F32{}, r.Builtin(KindFloat)},
		{"wit bool", wit.Bool{}, r.Builtin(KindBool)},
		{"wit string", wit.String{}, r.Builtin(KindString)},
		{"wit enum", &wit.TypeDef{Kind: &wit.Enum{Cases: make([]wit.EnumCase, 3)}}, r.Builtin(KindUChar)},
		{"wit flags", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 12)}}, r.Builtin(KindUShort)},
		{"wit alias", &wit.TypeDef{Kind: wit.S16{}}, r.Builtin(KindShort)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(tc.in)
			require.NoError(t, err)
			assert.Same(t, tc.want, got)
		})
	}
}

func TestRegistry_ResolveRejects(t *testing.T) {
	r := NewRegistry(LP64)
	var nilDesc *Descriptor

	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"nil descriptor", nilDesc},
		{"integer", 42},
		{"unknown name", "wchar"},
		{"void", KindVoid},
		{"varargs", "varargs"},
		{"struct kind", KindStruct},
		{"mapped descriptor", &Descriptor{Kind: KindMapped, Size: 4, Align: 4}},
		{"out of range kind", &Descriptor{Kind: Kind(200)}},
		{"wit record", &wit.TypeDef{Kind: &wit.Record{}}},
		{"wit flags too wide", &wit.TypeDef{Kind: &wit.Flags{Flags: make([]wit.Flag, 65)}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(tc.in)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, errors.ErrType)
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(LP64)

	require.NoError(t, r.Register("handle_t", KindPointer))
	d, ok := r.Lookup("handle_t")
	require.True(t, ok)
	assert.Same(t, r.Builtin(KindPointer), d)

	err := r.Register("handle_t", KindInt)
	require.Error(t, err)

	err = r.Register("int", KindLong)
	require.Error(t, err, "builtin names cannot be rebound")

	err = r.Register("", KindInt)
	require.Error(t, err)

	err = r.Register("nothing", KindVoid)
	assert.ErrorIs(t, err, errors.ErrType)

	require.NoError(t, r.Register("fd_t", "int"))
	d, ok = r.Lookup("fd_t")
	require.True(t, ok)
	assert.Same(t, r.Builtin(KindInt), d)

	require.NoError(t, r.Register("fd_alias", "fd_t"))
	d, err = r.Resolve("fd_alias")
	require.NoError(t, err)
	assert.Equal(t, KindInt, d.Kind)

	err = r.Register("missing_t", "no_such_type")
	assert.ErrorIs(t, err, errors.ErrType)
}

func TestRegistry_ConcurrentLookup(t *testing.T) {
	r := NewRegistry(LP64)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				name := "t" + string(rune('a'+i)) + string(rune('a'+j%26)) + string(rune('a'+j/26))
				_ = r.Register(name, KindInt)
				if _, err := r.Resolve("int"); err != nil {
					t.Error(err)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestParseDataModel(t *testing.T) {
	tests := map[string]DataModel{
		"ilp32":  ILP32,
		"wasm32": ILP32,
		"LP64":   LP64,
		"llp64":  LLP64,
		"host":   HostModel(),
		"":       HostModel(),
	}
	for in, want := range tests {
		got, err := ParseDataModel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDataModel("ilp64")
	assert.Error(t, err)
}
