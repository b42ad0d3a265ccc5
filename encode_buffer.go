package kafkad

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
)

// encodeBuffer is an appending packetEncoder. The two-pass prep/real pair is
// the right tool for whole messages, where the size is computed up front;
// encodeBuffer is for the inner framings whose length prefix is variable
// width (varint-framed records, tagged-field payloads), which are built out
// of line and then spliced in as raw bytes.
type encodeBuffer struct {
	raw   []byte
	stack []pushEncoder
}

func (eb *encodeBuffer) bytes() []byte {
	return eb.raw
}

// primitives

func (eb *encodeBuffer) putInt8(in int8) {
	eb.raw = append(eb.raw, byte(in))
}

func (eb *encodeBuffer) putInt16(in int16) {
	eb.raw = binary.BigEndian.AppendUint16(eb.raw, uint16(in))
}

func (eb *encodeBuffer) putInt32(in int32) {
	eb.raw = binary.BigEndian.AppendUint32(eb.raw, uint32(in))
}

func (eb *encodeBuffer) putInt64(in int64) {
	eb.raw = binary.BigEndian.AppendUint64(eb.raw, uint64(in))
}

func (eb *encodeBuffer) putUint16(in uint16) {
	eb.raw = binary.BigEndian.AppendUint16(eb.raw, in)
}

func (eb *encodeBuffer) putUint32(in uint32) {
	eb.raw = binary.BigEndian.AppendUint32(eb.raw, in)
}

func (eb *encodeBuffer) putFloat64(in float64) {
	eb.raw = binary.BigEndian.AppendUint64(eb.raw, math.Float64bits(in))
}

func (eb *encodeBuffer) putBool(in bool) {
	if in {
		eb.putInt8(1)
		return
	}
	eb.putInt8(0)
}

func (eb *encodeBuffer) putUUID(in uuid.UUID) {
	eb.raw = append(eb.raw, in[:]...)
}

func (eb *encodeBuffer) putVarint(in int64) {
	eb.raw = binary.AppendVarint(eb.raw, in)
}

func (eb *encodeBuffer) putUVarint(in uint64) {
	eb.raw = binary.AppendUvarint(eb.raw, in)
}

func (eb *encodeBuffer) putArrayLength(in int) error {
	eb.putInt32(int32(in))
	return nil
}

func (eb *encodeBuffer) putCompactArrayLength(in int) {
	eb.putUVarint(uint64(in + 1))
}

// strings

func (eb *encodeBuffer) putString(in string) error {
	if len(in) > math.MaxInt16 {
		return PacketEncodingError{"string too long"}
	}
	eb.putInt16(int16(len(in)))
	eb.raw = append(eb.raw, in...)
	return nil
}

func (eb *encodeBuffer) putNullableString(in *string) error {
	if in == nil {
		eb.putInt16(-1)
		return nil
	}
	return eb.putString(*in)
}

func (eb *encodeBuffer) putCompactString(in string) {
	eb.putCompactArrayLength(len(in))
	eb.raw = append(eb.raw, in...)
}

func (eb *encodeBuffer) putNullableCompactString(in *string) {
	if in == nil {
		eb.putUVarint(0)
		return
	}
	eb.putCompactString(*in)
}

// arrays

func (eb *encodeBuffer) putInt32Array(in []int32) error {
	if err := eb.putArrayLength(len(in)); err != nil {
		return err
	}
	for _, val := range in {
		eb.putInt32(val)
	}
	return nil
}

func (eb *encodeBuffer) putCompactInt32Array(in []int32) {
	eb.putCompactArrayLength(len(in))
	for _, val := range in {
		eb.putInt32(val)
	}
}

func (eb *encodeBuffer) putNullableCompactInt32Array(in []int32) {
	if in == nil {
		eb.putUVarint(0)
		return
	}
	eb.putCompactInt32Array(in)
}

func (eb *encodeBuffer) putCompactUUIDArray(in []uuid.UUID) {
	eb.putCompactArrayLength(len(in))
	for _, val := range in {
		eb.putUUID(val)
	}
}

// raw bytes

func (eb *encodeBuffer) putBytes(in []byte) error {
	if in == nil {
		eb.putInt32(-1)
		return nil
	}
	eb.putInt32(int32(len(in)))
	eb.putRawBytes(in)
	return nil
}

func (eb *encodeBuffer) putNullableBytes(in []byte) error {
	return eb.putBytes(in)
}

func (eb *encodeBuffer) putCompactBytes(in []byte) {
	eb.putCompactArrayLength(len(in))
	eb.putRawBytes(in)
}

func (eb *encodeBuffer) putNullableCompactBytes(in []byte) {
	if in == nil {
		eb.putUVarint(0)
		return
	}
	eb.putCompactBytes(in)
}

func (eb *encodeBuffer) putVarintBytes(in []byte) {
	if in == nil {
		eb.putVarint(-1)
		return
	}
	eb.putVarint(int64(len(in)))
	eb.putRawBytes(in)
}

func (eb *encodeBuffer) putRawBytes(in []byte) {
	eb.raw = append(eb.raw, in...)
}

// tagged fields

func (eb *encodeBuffer) putEmptyTaggedFieldArray() {
	eb.putUVarint(0)
}

func (eb *encodeBuffer) putTaggedFieldArray(in []taggedField) {
	sortTaggedFields(in)
	eb.putUVarint(uint64(len(in)))
	for i := range in {
		eb.putUVarint(uint64(in[i].key))
		eb.putUVarint(uint64(len(in[i].data)))
		eb.putRawBytes(in[i].data)
	}
}

func (eb *encodeBuffer) offset() int {
	return len(eb.raw)
}

// stacks

func (eb *encodeBuffer) push(in pushEncoder) {
	in.saveOffset(len(eb.raw))
	eb.raw = append(eb.raw, make([]byte, in.reserveLength())...)
	eb.stack = append(eb.stack, in)
}

func (eb *encodeBuffer) pop() error {
	if len(eb.stack) == 0 {
		return PacketEncodingError{"invalid call to pop"}
	}
	in := eb.stack[len(eb.stack)-1]
	eb.stack = eb.stack[:len(eb.stack)-1]

	return in.run(len(eb.raw), eb.raw)
}

func (eb *encodeBuffer) metricRegistry() metrics.Registry {
	return nil
}
