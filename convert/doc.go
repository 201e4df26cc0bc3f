// Package convert provides ready-made converters for mapped types.
//
//	Func[H, N]  typed functions H <-> N over any native type
//	Enum        symbol <-> integer
//	Bitmask     set of symbols <-> OR-ed integer
//	BoolInt     bool <-> C int 0/1
//	Proto       proto.Message <-> serialized buffer
//	Handles[T]  Go value <-> opaque uint32 handle
//
// Every converter here satisfies mapped.Converter and can be passed to
// mapped.Define directly.
package convert
