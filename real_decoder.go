package kafkad

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	errInvalidArrayLength      = PacketDecodingError{"invalid array length"}
	errInvalidByteSliceLength  = PacketDecodingError{"invalid byteslice length"}
	errInvalidStringLength     = PacketDecodingError{"invalid string length"}
	errVarintOverflow          = PacketDecodingError{"varint overflow"}
	errUVarintOverflow         = PacketDecodingError{"uvarint overflow"}
	errInvalidBool             = PacketDecodingError{"invalid bool"}
	errNullField               = PacketDecodingError{"non-nullable field was serialized as null"}
	errInvalidUTF8             = PacketDecodingError{"string is not valid UTF-8"}
)

type realDecoder struct {
	raw []byte
	off int
}

// primitives

func (rd *realDecoder) getInt8() (int8, error) {
	if rd.remaining() < 1 {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	}
	tmp := int8(rd.raw[rd.off])
	rd.off++
	return tmp, nil
}

func (rd *realDecoder) getInt16() (int16, error) {
	if rd.remaining() < 2 {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	}
	tmp := int16(binary.BigEndian.Uint16(rd.raw[rd.off:]))
	rd.off += 2
	return tmp, nil
}

func (rd *realDecoder) getInt32() (int32, error) {
	if rd.remaining() < 4 {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	}
	tmp := int32(binary.BigEndian.Uint32(rd.raw[rd.off:]))
	rd.off += 4
	return tmp, nil
}

func (rd *realDecoder) getInt64() (int64, error) {
	if rd.remaining() < 8 {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	}
	tmp := int64(binary.BigEndian.Uint64(rd.raw[rd.off:]))
	rd.off += 8
	return tmp, nil
}

func (rd *realDecoder) getUint16() (uint16, error) {
	if rd.remaining() < 2 {
		rd.off = len(rd.raw)
		return 0, ErrInsufficientData
	}
	tmp := binary.BigEndian.Uint16(rd.raw[rd.off:])
	rd.off += 2
	return tmp, nil
}

func (rd *realDecoder) getUint32() (uint32, error) {
	if rd.remaining() < 4 {
		rd.off = len(rd.raw)
		return 0, ErrInsufficientData
	}
	tmp := binary.BigEndian.Uint32(rd.raw[rd.off:])
	rd.off += 4
	return tmp, nil
}

func (rd *realDecoder) getFloat64() (float64, error) {
	if rd.remaining() < 8 {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	}
	tmp := math.Float64frombits(binary.BigEndian.Uint64(rd.raw[rd.off:]))
	rd.off += 8
	return tmp, nil
}

func (rd *realDecoder) getBool() (bool, error) {
	b, err := rd.getInt8()
	if err != nil {
		return false, err
	}
	if b == 0 {
		return false, nil
	}
	if b != 1 {
		return false, errInvalidBool
	}
	return true, nil
}

func (rd *realDecoder) getUUID() (uuid.UUID, error) {
	if rd.remaining() < 16 {
		rd.off = len(rd.raw)
		return uuid.Nil, ErrInsufficientData
	}
	var id uuid.UUID
	copy(id[:], rd.raw[rd.off:rd.off+16])
	rd.off += 16
	return id, nil
}

// getUVarint32 reads an unsigned varint that must fit in 32 bits. At most
// five bytes are consumed; a fifth byte with its continuation bit set is
// rejected.
func (rd *realDecoder) getUVarint32() (uint32, error) {
	var value uint32
	for i := 0; ; i++ {
		if rd.remaining() < 1 {
			rd.off = len(rd.raw)
			return 0, ErrInsufficientData
		}
		b := rd.raw[rd.off]
		rd.off++
		if b < 0x80 {
			value |= uint32(b) << (7 * i)
			return value, nil
		}
		if i == 4 {
			rd.off = len(rd.raw)
			return 0, errUVarintOverflow
		}
		value |= uint32(b&0x7f) << (7 * i)
	}
}

// getUVarint reads an unsigned varlong of at most ten bytes.
func (rd *realDecoder) getUVarint() (uint64, error) {
	var value uint64
	for i := 0; ; i++ {
		if rd.remaining() < 1 {
			rd.off = len(rd.raw)
			return 0, ErrInsufficientData
		}
		b := rd.raw[rd.off]
		rd.off++
		if b < 0x80 {
			value |= uint64(b) << (7 * i)
			return value, nil
		}
		if i == 9 {
			rd.off = len(rd.raw)
			return 0, errVarintOverflow
		}
		value |= uint64(b&0x7f) << (7 * i)
	}
}

// getVarint reads a zigzag-encoded signed varlong.
func (rd *realDecoder) getVarint() (int64, error) {
	tmp, err := rd.getUVarint()
	if err != nil {
		return -1, err
	}
	return int64(tmp>>1) ^ -int64(tmp&1), nil
}

func (rd *realDecoder) getArrayLength() (int, error) {
	if rd.remaining() < 4 {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	}
	tmp := int(int32(binary.BigEndian.Uint32(rd.raw[rd.off:])))
	rd.off += 4
	if tmp > rd.remaining() {
		rd.off = len(rd.raw)
		return -1, ErrInsufficientData
	} else if tmp > 2*math.MaxUint16 {
		return -1, errInvalidArrayLength
	}
	return tmp, nil
}

// getCompactArrayLength returns -1 for a null array, otherwise the actual
// element count (which the compact encoding stores as count+1).
func (rd *realDecoder) getCompactArrayLength() (int, error) {
	n, err := rd.getUVarint32()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return -1, nil
	}
	return int(n) - 1, nil
}

// strings

func (rd *realDecoder) getStringLength() (int, error) {
	length, err := rd.getInt16()
	if err != nil {
		return 0, err
	}

	n := int(length)
	switch {
	case n < -1:
		return 0, errInvalidStringLength
	case n > rd.remaining():
		rd.off = len(rd.raw)
		return 0, ErrInsufficientData
	}
	return n, nil
}

func (rd *realDecoder) getString() (string, error) {
	n, err := rd.getStringLength()
	if err != nil || n == -1 {
		if err == nil {
			err = errNullField
		}
		return "", err
	}

	tmpStr := string(rd.raw[rd.off : rd.off+n])
	rd.off += n
	if !utf8.ValidString(tmpStr) {
		return "", errInvalidUTF8
	}
	return tmpStr, nil
}

func (rd *realDecoder) getNullableString() (*string, error) {
	n, err := rd.getStringLength()
	if err != nil || n == -1 {
		return nil, err
	}

	tmpStr := string(rd.raw[rd.off : rd.off+n])
	rd.off += n
	if !utf8.ValidString(tmpStr) {
		return nil, errInvalidUTF8
	}
	return &tmpStr, nil
}

func (rd *realDecoder) getCompactString() (string, error) {
	n, err := rd.getCompactArrayLength()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", errNullField
	}
	if n > rd.remaining() {
		rd.off = len(rd.raw)
		return "", ErrInsufficientData
	}

	tmpStr := string(rd.raw[rd.off : rd.off+n])
	rd.off += n
	if !utf8.ValidString(tmpStr) {
		return "", errInvalidUTF8
	}
	return tmpStr, nil
}

func (rd *realDecoder) getCompactNullableString() (*string, error) {
	n, err := rd.getCompactArrayLength()
	if err != nil || n < 0 {
		return nil, err
	}
	if n > rd.remaining() {
		rd.off = len(rd.raw)
		return nil, ErrInsufficientData
	}

	tmpStr := string(rd.raw[rd.off : rd.off+n])
	rd.off += n
	if !utf8.ValidString(tmpStr) {
		return nil, errInvalidUTF8
	}
	return &tmpStr, nil
}

// arrays

func (rd *realDecoder) getInt32Array() ([]int32, error) {
	n, err := rd.getArrayLength()
	if err != nil {
		return nil, err
	}

	if rd.remaining() < 4*n {
		rd.off = len(rd.raw)
		return nil, ErrInsufficientData
	}

	if n == 0 {
		return nil, nil
	}

	if n < 0 {
		return nil, errInvalidArrayLength
	}

	ret := make([]int32, n)
	for i := range ret {
		ret[i] = int32(binary.BigEndian.Uint32(rd.raw[rd.off:]))
		rd.off += 4
	}
	return ret, nil
}

func (rd *realDecoder) getCompactInt32Array() ([]int32, error) {
	n, err := rd.getCompactArrayLength()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}

	if rd.remaining() < 4*n {
		rd.off = len(rd.raw)
		return nil, ErrInsufficientData
	}

	ret := make([]int32, n)
	for i := range ret {
		ret[i] = int32(binary.BigEndian.Uint32(rd.raw[rd.off:]))
		rd.off += 4
	}
	return ret, nil
}

func (rd *realDecoder) getCompactUUIDArray() ([]uuid.UUID, error) {
	n, err := rd.getCompactArrayLength()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}

	if rd.remaining() < 16*n {
		rd.off = len(rd.raw)
		return nil, ErrInsufficientData
	}

	ret := make([]uuid.UUID, n)
	for i := range ret {
		copy(ret[i][:], rd.raw[rd.off:rd.off+16])
		rd.off += 16
	}
	return ret, nil
}

// raw bytes

func (rd *realDecoder) getBytes() ([]byte, error) {
	tmp, err := rd.getInt32()
	if err != nil {
		return nil, err
	}
	if tmp == -1 {
		return nil, nil
	}
	if tmp < -1 {
		return nil, errInvalidByteSliceLength
	}
	return rd.getRawBytes(int(tmp))
}

func (rd *realDecoder) getCompactBytes() ([]byte, error) {
	n, err := rd.getCompactArrayLength()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	return rd.getRawBytes(n)
}

func (rd *realDecoder) getVarintBytes() ([]byte, error) {
	tmp, err := rd.getVarint()
	if err != nil {
		return nil, err
	}
	if tmp == -1 {
		return nil, nil
	}
	if tmp < -1 {
		return nil, errInvalidByteSliceLength
	}
	return rd.getRawBytes(int(tmp))
}

func (rd *realDecoder) getRawBytes(length int) ([]byte, error) {
	if length < 0 {
		return nil, errInvalidByteSliceLength
	} else if length > rd.remaining() {
		rd.off = len(rd.raw)
		return nil, ErrInsufficientData
	}

	start := rd.off
	rd.off += length
	return rd.raw[start:rd.off], nil
}

// tagged fields

// getEmptyTaggedFieldArray reads a tagged field block the caller expects to
// be empty, skipping (but counting) any entries that are in fact present.
func (rd *realDecoder) getEmptyTaggedFieldArray() (int, error) {
	tagCount, err := rd.getUVarint32()
	if err != nil {
		return 0, err
	}

	// skip over any tagged fields without deserializing them
	for i := uint32(0); i < tagCount; i++ {
		// fetch and ignore tag identifier
		_, err := rd.getUVarint32()
		if err != nil {
			return 0, err
		}
		length, err := rd.getUVarint32()
		if err != nil {
			return 0, err
		}
		if _, err := rd.getRawBytes(int(length)); err != nil {
			return 0, err
		}
	}

	return int(tagCount), nil
}

func (rd *realDecoder) getTaggedFieldArray() ([]taggedField, error) {
	tagCount, err := rd.getUVarint32()
	if err != nil {
		return nil, err
	}
	if tagCount == 0 {
		return nil, nil
	}

	fields := make([]taggedField, 0, tagCount)
	for i := uint32(0); i < tagCount; i++ {
		key, err := rd.getUVarint32()
		if err != nil {
			return nil, err
		}
		length, err := rd.getUVarint32()
		if err != nil {
			return nil, err
		}
		data, err := rd.getRawBytes(int(length))
		if err != nil {
			return nil, err
		}
		fields = append(fields, taggedField{key: key, data: data})
	}
	return fields, nil
}

// subsets

func (rd *realDecoder) remaining() int {
	return len(rd.raw) - rd.off
}

func (rd *realDecoder) getSubset(length int) (packetDecoder, error) {
	buf, err := rd.getRawBytes(length)
	if err != nil {
		return nil, err
	}
	return &realDecoder{raw: buf}, nil
}

func (rd *realDecoder) peek(offset, length int) (packetDecoder, error) {
	if rd.remaining() < offset+length {
		return nil, ErrInsufficientData
	}
	off := rd.off + offset
	return &realDecoder{raw: rd.raw[off : off+length]}, nil
}

func (rd *realDecoder) peekInt8(offset int) (int8, error) {
	const byteLen = 1
	if rd.remaining() < offset+byteLen {
		return -1, ErrInsufficientData
	}
	return int8(rd.raw[rd.off+offset]), nil
}
