package kafkad

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/rcrowley/go-metrics"
)

type realEncoder struct {
	raw      []byte
	off      int
	stack    []pushEncoder
	registry metrics.Registry
}

// primitives

func (re *realEncoder) putInt8(in int8) {
	re.raw[re.off] = byte(in)
	re.off++
}

func (re *realEncoder) putInt16(in int16) {
	binary.BigEndian.PutUint16(re.raw[re.off:], uint16(in))
	re.off += 2
}

func (re *realEncoder) putInt32(in int32) {
	binary.BigEndian.PutUint32(re.raw[re.off:], uint32(in))
	re.off += 4
}

func (re *realEncoder) putInt64(in int64) {
	binary.BigEndian.PutUint64(re.raw[re.off:], uint64(in))
	re.off += 8
}

func (re *realEncoder) putUint16(in uint16) {
	binary.BigEndian.PutUint16(re.raw[re.off:], in)
	re.off += 2
}

func (re *realEncoder) putUint32(in uint32) {
	binary.BigEndian.PutUint32(re.raw[re.off:], in)
	re.off += 4
}

func (re *realEncoder) putFloat64(in float64) {
	binary.BigEndian.PutUint64(re.raw[re.off:], math.Float64bits(in))
	re.off += 8
}

func (re *realEncoder) putBool(in bool) {
	if in {
		re.putInt8(1)
		return
	}
	re.putInt8(0)
}

func (re *realEncoder) putUUID(in uuid.UUID) {
	copy(re.raw[re.off:], in[:])
	re.off += 16
}

func (re *realEncoder) putVarint(in int64) {
	re.off += binary.PutVarint(re.raw[re.off:], in)
}

func (re *realEncoder) putUVarint(in uint64) {
	re.off += binary.PutUvarint(re.raw[re.off:], in)
}

func (re *realEncoder) putArrayLength(in int) error {
	re.putInt32(int32(in))
	return nil
}

func (re *realEncoder) putCompactArrayLength(in int) {
	re.putUVarint(uint64(in + 1))
}

// strings

func (re *realEncoder) putString(in string) error {
	re.putInt16(int16(len(in)))
	copy(re.raw[re.off:], in)
	re.off += len(in)
	return nil
}

func (re *realEncoder) putNullableString(in *string) error {
	if in == nil {
		re.putInt16(-1)
		return nil
	}
	return re.putString(*in)
}

func (re *realEncoder) putCompactString(in string) {
	re.putCompactArrayLength(len(in))
	copy(re.raw[re.off:], in)
	re.off += len(in)
}

func (re *realEncoder) putNullableCompactString(in *string) {
	if in == nil {
		re.putUVarint(0)
		return
	}
	re.putCompactString(*in)
}

// arrays

func (re *realEncoder) putInt32Array(in []int32) error {
	err := re.putArrayLength(len(in))
	if err != nil {
		return err
	}
	for _, val := range in {
		re.putInt32(val)
	}
	return nil
}

func (re *realEncoder) putCompactInt32Array(in []int32) {
	re.putCompactArrayLength(len(in))
	for _, val := range in {
		re.putInt32(val)
	}
}

func (re *realEncoder) putNullableCompactInt32Array(in []int32) {
	if in == nil {
		re.putUVarint(0)
		return
	}
	re.putCompactInt32Array(in)
}

func (re *realEncoder) putCompactUUIDArray(in []uuid.UUID) {
	re.putCompactArrayLength(len(in))
	for _, val := range in {
		re.putUUID(val)
	}
}

// raw bytes

func (re *realEncoder) putBytes(in []byte) error {
	if in == nil {
		re.putInt32(-1)
		return nil
	}
	re.putInt32(int32(len(in)))
	re.putRawBytes(in)
	return nil
}

func (re *realEncoder) putNullableBytes(in []byte) error {
	return re.putBytes(in)
}

func (re *realEncoder) putCompactBytes(in []byte) {
	re.putCompactArrayLength(len(in))
	re.putRawBytes(in)
}

func (re *realEncoder) putNullableCompactBytes(in []byte) {
	if in == nil {
		re.putUVarint(0)
		return
	}
	re.putCompactBytes(in)
}

func (re *realEncoder) putVarintBytes(in []byte) {
	if in == nil {
		re.putVarint(-1)
		return
	}
	re.putVarint(int64(len(in)))
	re.putRawBytes(in)
}

func (re *realEncoder) putRawBytes(in []byte) {
	copy(re.raw[re.off:], in)
	re.off += len(in)
}

// tagged fields

func (re *realEncoder) putEmptyTaggedFieldArray() {
	re.putUVarint(0)
}

// putTaggedFieldArray writes the set sorted by ascending key, as the wire
// format requires.
func (re *realEncoder) putTaggedFieldArray(in []taggedField) {
	sortTaggedFields(in)
	re.putUVarint(uint64(len(in)))
	for i := range in {
		re.putUVarint(uint64(in[i].key))
		re.putUVarint(uint64(len(in[i].data)))
		re.putRawBytes(in[i].data)
	}
}

func (re *realEncoder) offset() int {
	return re.off
}

// stacks

func (re *realEncoder) push(in pushEncoder) {
	in.saveOffset(re.off)
	re.off += in.reserveLength()
	re.stack = append(re.stack, in)
}

func (re *realEncoder) pop() error {
	if len(re.stack) == 0 {
		return errors.New("kafkad: invalid call to pop")
	}
	// this is go's ugly pop pattern (the inverse of append)
	in := re.stack[len(re.stack)-1]
	re.stack = re.stack[:len(re.stack)-1]

	return in.run(re.off, re.raw)
}

// we do record metrics during the real encoder pass
func (re *realEncoder) metricRegistry() metrics.Registry {
	return re.registry
}
