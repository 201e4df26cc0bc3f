package wasmtest

import "github.com/tetratelabs/wazero/api"

const (
	secType     = 0x01
	secImport   = 0x02
	secFunction = 0x03
	secMemory   = 0x05
	secGlobal   = 0x06
	secExport   = 0x07
	secCode     = 0x0a

	externFunc   = 0x00
	externMemory = 0x02
)

// opcodes
const (
	opIf        = 0x04
	opEnd       = 0x0b
	opReturn    = 0x0f
	opCall      = 0x10
	opLocalGet  = 0x20
	opLocalSet  = 0x21
	opLocalTee  = 0x22
	opGlobalGet = 0x23
	opGlobalSet = 0x24
	opI32Const  = 0x41
	opI32Eqz    = 0x45
	opI32Add    = 0x6a
	opI32Sub    = 0x6b
	opI32And    = 0x71

	blockEmpty = 0x40
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Trampoline returns a module importing module.name with the given
// signature and exporting a function of the same name that forwards its
// parameters to the import and returns its results.
func Trampoline(module, name string, params, results []api.ValueType) []byte {
	types := vec(1, funcType(params, results))

	imp := appendName(nil, module)
	imp = appendName(imp, name)
	imp = append(imp, externFunc, 0)

	body := []byte{0}
	for i := range params {
		body = append(body, opLocalGet)
		body = uleb(body, uint64(i))
	}
	body = append(body, opCall, 0, opEnd)

	exp := appendName(nil, name)
	exp = append(exp, externFunc, 1)

	out := append([]byte(nil), header...)
	out = section(out, secType, types)
	out = section(out, secImport, vec(1, imp))
	out = section(out, secFunction, vec(1, []byte{0}))
	out = section(out, secExport, vec(1, exp))
	out = section(out, secCode, vec(1, sized(body)))
	return out
}

// Heap returns a module exporting pages of memory as "memory" and a bump
// allocator starting at base:
//
//	cabi_realloc(old, old_size, align, size) i32  size 0 frees and returns 0
//	malloc(size) i32                             8 byte aligned
//	free(ptr)                                    no-op
//
// The allocator never reuses memory and does not grow it.
func Heap(pages uint32, base int32) []byte {
	i32 := api.ValueTypeI32
	types := vec(3,
		funcType([]api.ValueType{i32, i32, i32, i32}, []api.ValueType{i32}),
		funcType([]api.ValueType{i32}, []api.ValueType{i32}),
		funcType([]api.ValueType{i32}, nil),
	)

	mem := uleb([]byte{0x00}, uint64(pages))

	global := []byte{i32, 0x01, opI32Const}
	global = sleb(global, int64(base))
	global = append(global, opEnd)

	exports := vec(4,
		export("memory", externMemory, 0),
		export("cabi_realloc", externFunc, 0),
		export("malloc", externFunc, 1),
		export("free", externFunc, 2),
	)

	realloc := []byte{
		0x01, 0x01, i32, // one i32 local: the result
		opLocalGet, 3, opI32Eqz, opIf, blockEmpty,
		opI32Const, 0, opReturn,
		opEnd,
		opLocalGet, 2, opI32Eqz, opIf, blockEmpty,
		opI32Const, 1, opLocalSet, 2,
		opEnd,
		// ptr = (heap + align - 1) & -align
		opGlobalGet, 0, opLocalGet, 2, opI32Add, opI32Const, 1, opI32Sub,
		opI32Const, 0, opLocalGet, 2, opI32Sub,
		opI32And, opLocalTee, 4,
		opLocalGet, 3, opI32Add, opGlobalSet, 0,
		opLocalGet, 4,
		opEnd,
	}
	malloc := []byte{
		0x01, 0x01, i32,
		opGlobalGet, 0, opI32Const, 7, opI32Add, opI32Const, 0x78, opI32And, opLocalTee, 1,
		opLocalGet, 0, opI32Add, opGlobalSet, 0,
		opLocalGet, 1,
		opEnd,
	}
	free := []byte{0x00, opEnd}

	out := append([]byte(nil), header...)
	out = section(out, secType, types)
	out = section(out, secFunction, vec(3, []byte{0}, []byte{1}, []byte{2}))
	out = section(out, secMemory, vec(1, mem))
	out = section(out, secGlobal, vec(1, global))
	out = section(out, secExport, exports)
	out = section(out, secCode, vec(3, sized(realloc), sized(malloc), sized(free)))
	return out
}

func funcType(params, results []api.ValueType) []byte {
	b := []byte{0x60}
	b = uleb(b, uint64(len(params)))
	b = append(b, params...)
	b = uleb(b, uint64(len(results)))
	return append(b, results...)
}

func export(name string, kind byte, idx uint32) []byte {
	b := appendName(nil, name)
	b = append(b, kind)
	return uleb(b, uint64(idx))
}

func vec(n int, items ...[]byte) []byte {
	b := uleb(nil, uint64(n))
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}

func sized(body []byte) []byte {
	return append(uleb(nil, uint64(len(body))), body...)
}

func section(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = uleb(out, uint64(len(body)))
	return append(out, body...)
}

func appendName(b []byte, s string) []byte {
	b = uleb(b, uint64(len(s)))
	return append(b, s...)
}

func uleb(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}

func sleb(b []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(b, c)
		}
		b = append(b, c|0x80)
	}
}
