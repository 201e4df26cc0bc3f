package convert

import (
	"encoding/binary"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	mappedtypes "github.com/wippyai/mapped-types"
	"github.com/wippyai/mapped-types/errors"
	"github.com/wippyai/mapped-types/internal/coerce"
	"github.com/wippyai/mapped-types/mapped"
)

// protoHeader is the size of the little-endian length prefix.
const protoHeader = 4

// Proto carries protobuf messages across the boundary in a buffer_in
// holding a uint32 little-endian length followed by the wire-format bytes.
// The native side borrows the buffer, so the type requires a reference to
// be kept for the duration of the call.
//
// FromNative accepts the framed bytes, or the buffer address when the
// context implements mappedtypes.MemoryContext. Address 0 gives nil.
type Proto struct {
	prototype proto.Message
	fullName  protoreflect.FullName
}

// NewProto builds a converter for messages of the same type as prototype.
func NewProto(prototype proto.Message) (*Proto, error) {
	if prototype == nil {
		return nil, errors.NilPointer(errors.PhaseDefine, nil, "proto.Message")
	}
	return &Proto{
		prototype: prototype,
		fullName:  prototype.ProtoReflect().Descriptor().FullName(),
	}, nil
}

// FullName returns the protobuf name of the message type.
func (p *Proto) FullName() protoreflect.FullName {
	return p.fullName
}

func (*Proto) NativeType() any {
	return "buffer_in"
}

func (*Proto) ReferenceRequired() bool {
	return true
}

func (p *Proto) ToNative(value any, _ mapped.Context) (any, error) {
	msg, ok := value.(proto.Message)
	if !ok {
		return nil, errors.New(errors.PhaseToNative, errors.KindTypeMismatch).
			GoType(typeName(value)).
			Detail("expected %s", p.fullName).
			Value(value).
			Build()
	}
	if got := msg.ProtoReflect().Descriptor().FullName(); got != p.fullName {
		return nil, errors.New(errors.PhaseToNative, errors.KindTypeMismatch).
			GoType(string(got)).
			Detail("expected %s", p.fullName).
			Build()
	}
	frame := make([]byte, protoHeader, protoHeader+proto.Size(msg))
	frame, err := proto.MarshalOptions{Deterministic: true}.MarshalAppend(frame, msg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseToNative, errors.KindInvalidData, err, "encode "+string(p.fullName))
	}
	binary.LittleEndian.PutUint32(frame, uint32(len(frame)-protoHeader))
	return frame, nil
}

func (p *Proto) FromNative(value any, ctx mapped.Context) (any, error) {
	var data []byte
	switch v := value.(type) {
	case []byte:
		if len(v) < protoHeader {
			return nil, errors.InvalidData(errors.PhaseFromNative, nil, "truncated "+string(p.fullName)+" frame")
		}
		n := binary.LittleEndian.Uint32(v)
		if uint64(n) > uint64(len(v)-protoHeader) {
			return nil, errors.InvalidData(errors.PhaseFromNative, nil, "truncated "+string(p.fullName)+" frame")
		}
		data = v[protoHeader : protoHeader+n]
	default:
		addr, ok := coerce.ToUint64(value)
		if !ok || addr > 1<<32-1 {
			return nil, mismatch(errors.PhaseFromNative, value, bytesType)
		}
		if addr == 0 {
			return nil, nil
		}
		var err error
		if data, err = p.read(uint32(addr), ctx); err != nil {
			return nil, err
		}
	}

	msg := p.prototype.ProtoReflect().New().Interface()
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, errors.Wrap(errors.PhaseFromNative, errors.KindInvalidData, err, "decode "+string(p.fullName))
	}
	return msg, nil
}

// read loads the frame at addr from the memory behind ctx.
func (p *Proto) read(addr uint32, ctx mapped.Context) ([]byte, error) {
	mc, ok := ctx.(mappedtypes.MemoryContext)
	if !ok || mc.Memory() == nil {
		return nil, errors.New(errors.PhaseFromNative, errors.KindUnsupported).
			Value(addr).
			Detail("reading %s at address %d needs a memory context", p.fullName, addr).
			Build()
	}
	mem := mc.Memory()
	n, err := mem.ReadU32(addr)
	if err != nil {
		return nil, err
	}
	return mem.Read(addr+protoHeader, n)
}
