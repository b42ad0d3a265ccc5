package kafkad

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
)

// prepEncoder is the first pass of the two-pass encoding strategy: it walks
// the message once only summing up how many bytes the real encoding will
// need, so the real pass can write into a single exactly-sized allocation.
type prepEncoder struct {
	stack  []pushEncoder
	length int
}

// primitives

func (pe *prepEncoder) putInt8(in int8) {
	pe.length++
}

func (pe *prepEncoder) putInt16(in int16) {
	pe.length += 2
}

func (pe *prepEncoder) putInt32(in int32) {
	pe.length += 4
}

func (pe *prepEncoder) putInt64(in int64) {
	pe.length += 8
}

func (pe *prepEncoder) putUint16(in uint16) {
	pe.length += 2
}

func (pe *prepEncoder) putUint32(in uint32) {
	pe.length += 4
}

func (pe *prepEncoder) putFloat64(in float64) {
	pe.length += 8
}

func (pe *prepEncoder) putBool(in bool) {
	pe.length++
}

func (pe *prepEncoder) putUUID(in uuid.UUID) {
	pe.length += 16
}

func (pe *prepEncoder) putVarint(in int64) {
	var buf [binary.MaxVarintLen64]byte
	pe.length += binary.PutVarint(buf[:], in)
}

func (pe *prepEncoder) putUVarint(in uint64) {
	var buf [binary.MaxVarintLen64]byte
	pe.length += binary.PutUvarint(buf[:], in)
}

func (pe *prepEncoder) putArrayLength(in int) error {
	if in > math.MaxInt32 {
		return PacketEncodingError{fmt.Sprintf("array too long (%d)", in)}
	}
	pe.length += 4
	return nil
}

func (pe *prepEncoder) putCompactArrayLength(in int) {
	pe.putUVarint(uint64(in + 1))
}

// strings

func (pe *prepEncoder) putString(in string) error {
	if len(in) > math.MaxInt16 {
		return PacketEncodingError{fmt.Sprintf("string too long (%d)", len(in))}
	}
	pe.length += 2 + len(in)
	return nil
}

func (pe *prepEncoder) putNullableString(in *string) error {
	if in == nil {
		pe.length += 2
		return nil
	}
	return pe.putString(*in)
}

func (pe *prepEncoder) putCompactString(in string) {
	pe.putCompactArrayLength(len(in))
	pe.length += len(in)
}

func (pe *prepEncoder) putNullableCompactString(in *string) {
	if in == nil {
		pe.length++
	} else {
		pe.putCompactString(*in)
	}
}

// arrays

func (pe *prepEncoder) putInt32Array(in []int32) error {
	err := pe.putArrayLength(len(in))
	if err != nil {
		return err
	}
	pe.length += 4 * len(in)
	return nil
}

func (pe *prepEncoder) putCompactInt32Array(in []int32) {
	pe.putCompactArrayLength(len(in))
	pe.length += 4 * len(in)
}

func (pe *prepEncoder) putNullableCompactInt32Array(in []int32) {
	if in == nil {
		pe.length++
		return
	}
	pe.putCompactInt32Array(in)
}

func (pe *prepEncoder) putCompactUUIDArray(in []uuid.UUID) {
	pe.putCompactArrayLength(len(in))
	pe.length += 16 * len(in)
}

// raw bytes

func (pe *prepEncoder) putBytes(in []byte) error {
	pe.length += 4
	if in == nil {
		return nil
	}
	return pe.putRawBytesChecked(in)
}

func (pe *prepEncoder) putNullableBytes(in []byte) error {
	return pe.putBytes(in)
}

func (pe *prepEncoder) putCompactBytes(in []byte) {
	pe.putCompactArrayLength(len(in))
	pe.length += len(in)
}

func (pe *prepEncoder) putNullableCompactBytes(in []byte) {
	if in == nil {
		pe.length++
		return
	}
	pe.putCompactBytes(in)
}

func (pe *prepEncoder) putVarintBytes(in []byte) {
	if in == nil {
		pe.putVarint(-1)
		return
	}
	pe.putVarint(int64(len(in)))
	pe.length += len(in)
}

func (pe *prepEncoder) putRawBytes(in []byte) {
	pe.length += len(in)
}

func (pe *prepEncoder) putRawBytesChecked(in []byte) error {
	if len(in) > math.MaxInt32 {
		return PacketEncodingError{fmt.Sprintf("byteslice too long (%d)", len(in))}
	}
	pe.length += len(in)
	return nil
}

// tagged fields

func (pe *prepEncoder) putEmptyTaggedFieldArray() {
	pe.putUVarint(0)
}

func (pe *prepEncoder) putTaggedFieldArray(in []taggedField) {
	pe.putUVarint(uint64(len(in)))
	for i := range in {
		pe.putUVarint(uint64(in[i].key))
		pe.putUVarint(uint64(len(in[i].data)))
		pe.length += len(in[i].data)
	}
}

func (pe *prepEncoder) offset() int {
	return pe.length
}

// stackable

func (pe *prepEncoder) push(in pushEncoder) {
	in.saveOffset(pe.length)
	pe.length += in.reserveLength()
	pe.stack = append(pe.stack, in)
}

func (pe *prepEncoder) pop() error {
	if len(pe.stack) == 0 {
		return PacketEncodingError{"invalid call to pop"}
	}
	pe.stack = pe.stack[:len(pe.stack)-1]
	return nil
}

// we do not record metrics during the prep encoder pass
func (pe *prepEncoder) metricRegistry() metrics.Registry {
	return nil
}
