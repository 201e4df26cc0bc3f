package nativetype

// Kind is the primitive tag of a native type.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindChar
	KindUChar
	KindShort
	KindUShort
	KindInt
	KindUInt
	KindLong
	KindULong
	KindLongLong
	KindULongLong
	KindFloat
	KindDouble
	KindLongDouble
	KindPointer
	KindString
	KindBufferIn
	KindBufferOut
	KindBufferInOut
	KindFunction
	KindVarargs
	KindStruct
	KindArray
	KindMapped

	kindCount
)

var kindNames = [...]string{
	KindVoid:        "void",
	KindBool:        "bool",
	KindChar:        "char",
	KindUChar:       "uchar",
	KindShort:       "short",
	KindUShort:      "ushort",
	KindInt:         "int",
	KindUInt:        "uint",
	KindLong:        "long",
	KindULong:       "ulong",
	KindLongLong:    "long_long",
	KindULongLong:   "ulong_long",
	KindFloat:       "float",
	KindDouble:      "double",
	KindLongDouble:  "long_double",
	KindPointer:     "pointer",
	KindString:      "string",
	KindBufferIn:    "buffer_in",
	KindBufferOut:   "buffer_out",
	KindBufferInOut: "buffer_inout",
	KindFunction:    "function",
	KindVarargs:     "varargs",
	KindStruct:      "struct",
	KindArray:       "array",
	KindMapped:      "mapped",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports whether values of this kind are self-contained inline
// copies: bool, the char..ulong_long integers, float and double.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindDouble
}

func (k Kind) IsInteger() bool {
	return k >= KindChar && k <= KindULongLong
}

func (k Kind) IsSigned() bool {
	switch k {
	case KindChar, KindShort, KindInt, KindLong, KindLongLong:
		return true
	default:
		return false
	}
}

func (k Kind) IsFloat() bool {
	return k == KindFloat || k == KindDouble || k == KindLongDouble
}

// IsAddress reports whether the native value is an address into memory.
func (k Kind) IsAddress() bool {
	switch k {
	case KindPointer, KindString, KindBufferIn, KindBufferOut, KindBufferInOut, KindFunction:
		return true
	default:
		return false
	}
}

// IsBuiltin reports whether the registry holds a canonical descriptor for k.
func (k Kind) IsBuiltin() bool {
	return k < KindStruct
}
