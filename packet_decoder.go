package kafkad

import "github.com/google/uuid"

// PacketDecoder is the interface providing helpers for reading with Kafka's
// encoding rules. Types implementing Decoder only need to worry about
// calling methods like getString, not about how a string is represented in
// Kafka.
type packetDecoder interface {
	// Primitives
	getInt8() (int8, error)
	getInt16() (int16, error)
	getInt32() (int32, error)
	getInt64() (int64, error)
	getUint16() (uint16, error)
	getUint32() (uint32, error)
	getFloat64() (float64, error)
	getBool() (bool, error)
	getUUID() (uuid.UUID, error)
	getVarint() (int64, error)
	getUVarint() (uint64, error)
	getUVarint32() (uint32, error)
	getArrayLength() (int, error)
	getCompactArrayLength() (int, error)

	// Strings
	getString() (string, error)
	getNullableString() (*string, error)
	getCompactString() (string, error)
	getCompactNullableString() (*string, error)

	// Arrays
	getInt32Array() ([]int32, error)
	getCompactInt32Array() ([]int32, error)
	getCompactUUIDArray() ([]uuid.UUID, error)

	// Raw bytes
	getBytes() ([]byte, error)
	getCompactBytes() ([]byte, error)
	getVarintBytes() ([]byte, error)
	getRawBytes(length int) ([]byte, error)

	// Tagged fields
	getEmptyTaggedFieldArray() (int, error)
	getTaggedFieldArray() ([]taggedField, error)

	// Subsets
	remaining() int
	getSubset(length int) (packetDecoder, error)
	peek(offset, length int) (packetDecoder, error)
	peekInt8(offset int) (int8, error)
}

// Decoder is the interface that wraps the basic Decode method.
// Anything implementing Decoder can be extracted from bytes using Kafka's
// encoding rules.
type decoder interface {
	decode(pd packetDecoder) error
}

type versionedDecoder interface {
	decode(pd packetDecoder, version int16) error
}

// decode takes bytes and a decoder and fills the fields of the decoder from
// the bytes, interpreted using Kafka's encoding rules.
func decode(buf []byte, in decoder) error {
	if buf == nil {
		return nil
	}

	helper := realDecoder{raw: buf}
	err := in.decode(&helper)
	if err != nil {
		return err
	}

	if helper.off != len(buf) {
		return PacketDecodingError{"invalid length"}
	}

	return nil
}

func versionedDecode(buf []byte, in versionedDecoder, version int16) error {
	if buf == nil {
		return nil
	}

	helper := realDecoder{raw: buf}
	err := in.decode(&helper, version)
	if err != nil {
		return err
	}

	if helper.off != len(buf) {
		return PacketDecodingError{"invalid length"}
	}

	return nil
}
