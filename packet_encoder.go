package kafkad

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
)

// PacketEncoder is the interface providing helpers for writing with Kafka's
// encoding rules. Types implementing Encoder only need to worry about
// calling methods like putString, not about how a string is represented in
// Kafka.
type packetEncoder interface {
	// Primitives
	putInt8(in int8)
	putInt16(in int16)
	putInt32(in int32)
	putInt64(in int64)
	putUint16(in uint16)
	putUint32(in uint32)
	putFloat64(in float64)
	putBool(in bool)
	putUUID(in uuid.UUID)
	putVarint(in int64)
	putUVarint(in uint64)
	putArrayLength(in int) error
	putCompactArrayLength(in int)

	// Strings
	putString(in string) error
	putNullableString(in *string) error
	putCompactString(in string)
	putNullableCompactString(in *string)

	// Arrays
	putInt32Array(in []int32) error
	putCompactInt32Array(in []int32)
	putNullableCompactInt32Array(in []int32)
	putCompactUUIDArray(in []uuid.UUID)

	// Raw bytes
	putBytes(in []byte) error
	putNullableBytes(in []byte) error
	putCompactBytes(in []byte)
	putNullableCompactBytes(in []byte)
	putVarintBytes(in []byte)
	putRawBytes(in []byte)

	// Tagged fields
	putEmptyTaggedFieldArray()
	putTaggedFieldArray(in []taggedField)

	// Provide the current offset
	offset() int

	// Stacks, see PushEncoder
	push(in pushEncoder)
	pop() error

	// To record metrics when provided
	metricRegistry() metrics.Registry
}

// PushEncoder is the interface for encoding fields like CRCs and lengths
// where the value of the field depends on what is encoded after it in the
// packet. Start them with PacketEncoder.Push() where the actual value is
// located in the packet, then PacketEncoder.Pop() them when all the bytes
// they depend upon have been written.
type pushEncoder interface {
	// Saves the offset into the input buffer as the location to actually
	// write the calculated value when able.
	saveOffset(in int)

	// Returns the length of data to reserve for the output of this encoder
	// (eg 4 bytes for a CRC32).
	reserveLength() int

	// Indicates that all required data is now available to calculate and
	// write the field referenced by this encoder. The PacketEncoder will
	// pass the current offset and the whole packet buffer; the field's
	// reserved bytes start at the offset given to saveOffset.
	run(curOffset int, buf []byte) error
}

// Encoder is the interface that wraps the basic Encode method.
// Anything implementing Encoder can be turned into bytes using Kafka's
// encoding rules.
type encoder interface {
	encode(pe packetEncoder) error
}

// encode takes an Encoder and turns it into bytes while potentially
// recording metrics.
func encode(e encoder, metricRegistry metrics.Registry) ([]byte, error) {
	if e == nil {
		return nil, nil
	}

	var prepEnc prepEncoder
	var realEnc realEncoder

	err := e.encode(&prepEnc)
	if err != nil {
		return nil, err
	}

	if prepEnc.length < 0 || prepEnc.length > int(MaxResponseSize) {
		return nil, PacketEncodingError{fmt.Sprintf("invalid message size (%d)", prepEnc.length)}
	}

	realEnc.raw = make([]byte, prepEnc.length)
	realEnc.registry = metricRegistry
	err = e.encode(&realEnc)
	if err != nil {
		return nil, err
	}

	return realEnc.raw, nil
}
