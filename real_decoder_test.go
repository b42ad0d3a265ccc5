package kafkad

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrips(t *testing.T) {
	var buf encodeBuffer
	id := uuid.MustParse("00000000-0000-4000-8000-000000000086")
	str := "consumer-group"
	rack := "rack-1"

	buf.putInt8(-5)
	buf.putInt16(-1234)
	buf.putInt32(-123456789)
	buf.putInt64(-1234567890123)
	buf.putUint16(65535)
	buf.putUint32(4294967295)
	buf.putFloat64(3.5)
	buf.putBool(true)
	buf.putBool(false)
	buf.putUUID(id)
	buf.putVarint(-64)
	buf.putVarint(300)
	buf.putUVarint(127)
	buf.putUVarint(128)
	require.NoError(t, buf.putString(str))
	require.NoError(t, buf.putNullableString(nil))
	require.NoError(t, buf.putNullableString(&rack))
	buf.putCompactString("")
	buf.putCompactString("abc")
	buf.putNullableCompactString(nil)
	require.NoError(t, buf.putInt32Array([]int32{1, 2, 3}))
	buf.putCompactInt32Array([]int32{4, 5})
	buf.putNullableCompactInt32Array(nil)
	buf.putCompactUUIDArray([]uuid.UUID{id})
	buf.putVarintBytes([]byte("vv"))
	buf.putVarintBytes(nil)

	rd := &realDecoder{raw: buf.bytes()}

	i8, err := rd.getInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(-5), i8)

	i16, err := rd.getInt16()
	require.NoError(t, err)
	assert.Equal(t, int16(-1234), i16)

	i32, err := rd.getInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-123456789), i32)

	i64, err := rd.getInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1234567890123), i64)

	u16, err := rd.getUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), u16)

	u32, err := rd.getUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(4294967295), u32)

	f64, err := rd.getFloat64()
	require.NoError(t, err)
	assert.Equal(t, 3.5, f64)

	b, err := rd.getBool()
	require.NoError(t, err)
	assert.True(t, b)
	b, err = rd.getBool()
	require.NoError(t, err)
	assert.False(t, b)

	gotID, err := rd.getUUID()
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	v, err := rd.getVarint()
	require.NoError(t, err)
	assert.Equal(t, int64(-64), v)
	v, err = rd.getVarint()
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)

	uv, err := rd.getUVarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(127), uv)
	uv, err = rd.getUVarint()
	require.NoError(t, err)
	assert.Equal(t, uint64(128), uv)

	s, err := rd.getString()
	require.NoError(t, err)
	assert.Equal(t, str, s)

	ns, err := rd.getNullableString()
	require.NoError(t, err)
	assert.Nil(t, ns)
	ns, err = rd.getNullableString()
	require.NoError(t, err)
	require.NotNil(t, ns)
	assert.Equal(t, rack, *ns)

	cs, err := rd.getCompactString()
	require.NoError(t, err)
	assert.Equal(t, "", cs)
	cs, err = rd.getCompactString()
	require.NoError(t, err)
	assert.Equal(t, "abc", cs)

	cns, err := rd.getCompactNullableString()
	require.NoError(t, err)
	assert.Nil(t, cns)

	arr, err := rd.getInt32Array()
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2, 3}, arr)

	carr, err := rd.getCompactInt32Array()
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 5}, carr)

	carr, err = rd.getCompactInt32Array()
	require.NoError(t, err)
	assert.Nil(t, carr)

	ids, err := rd.getCompactUUIDArray()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)

	vb, err := rd.getVarintBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("vv"), vb)

	vb, err = rd.getVarintBytes()
	require.NoError(t, err)
	assert.Nil(t, vb)

	assert.Equal(t, 0, rd.remaining())
}

func TestUVarint32RejectsOverlongEncoding(t *testing.T) {
	// a fifth byte with the continuation bit still set must be rejected
	rd := &realDecoder{raw: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}}
	_, err := rd.getUVarint32()
	assert.Equal(t, errUVarintOverflow, err)

	// exactly five bytes with a clear top bit is the maximum valid form
	rd = &realDecoder{raw: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}}
	v, err := rd.getUVarint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xffffffff), v)
}

func TestUVarintRejectsOverlongEncoding(t *testing.T) {
	raw := make([]byte, 11)
	for i := range raw {
		raw[i] = 0x80
	}
	rd := &realDecoder{raw: raw}
	_, err := rd.getUVarint()
	assert.Equal(t, errVarintOverflow, err)
}

func TestCompactStringNullInNonNullablePosition(t *testing.T) {
	// encoded length 0 means null, which a non-nullable position must refuse
	rd := &realDecoder{raw: []byte{0x00}}
	_, err := rd.getCompactString()
	assert.Equal(t, errNullField, err)

	// encoded length 1 is the empty string, which is fine
	rd = &realDecoder{raw: []byte{0x01}}
	s, err := rd.getCompactString()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestInsufficientData(t *testing.T) {
	rd := &realDecoder{raw: []byte{0x00}}
	_, err := rd.getInt32()
	assert.True(t, errors.Is(err, ErrInsufficientData))

	rd = &realDecoder{raw: []byte{0x00, 0x00, 0x00, 0x08, 0x01}}
	_, err = rd.getBytes()
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	rd := &realDecoder{raw: []byte{0x00, 0x02, 0xff, 0xfe}}
	_, err := rd.getString()
	assert.Equal(t, errInvalidUTF8, err)
}

func TestTaggedFieldsPreservedAndSorted(t *testing.T) {
	// write deliberately out of order; the encoder must sort by key
	var buf encodeBuffer
	buf.putTaggedFieldArray([]taggedField{
		{key: 7, data: []byte{0xaa}},
		{key: 1, data: []byte{0xbb, 0xcc}},
	})

	rd := &realDecoder{raw: buf.bytes()}
	fields, err := rd.getTaggedFieldArray()
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, uint32(1), fields[0].key)
	assert.Equal(t, []byte{0xbb, 0xcc}, fields[0].data)
	assert.Equal(t, uint32(7), fields[1].key)
	assert.Equal(t, []byte{0xaa}, fields[1].data)

	// unknown keys survive a read untouched
	assert.Equal(t, []byte{0xaa}, taggedFieldData(fields, 7))
	assert.Nil(t, taggedFieldData(fields, 2))
}

func TestZigZagBoundaries(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -2, 63, -64, 64, 8191, -8192, 1<<34 - 1, -(1 << 34)} {
		var buf encodeBuffer
		buf.putVarint(v)
		rd := &realDecoder{raw: buf.bytes()}
		got, err := rd.getVarint()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
