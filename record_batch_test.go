package kafkad

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleBatch(codec CompressionCodec) *RecordBatch {
	return &RecordBatch{
		BaseOffset:           3,
		PartitionLeaderEpoch: 0,
		Codec:                codec,
		LastOffsetDelta:      1,
		BaseTimestamp:        1724160000000,
		MaxTimestamp:         1724160001000,
		ProducerID:           -1,
		ProducerEpoch:        -1,
		BaseSequence:         -1,
		Records: []*Record{
			{
				TimestampDelta: 0,
				OffsetDelta:    0,
				Value:          []byte("Hello Kafka!"),
			},
			{
				TimestampDelta: 1000,
				OffsetDelta:    1,
				Key:            []byte("k"),
				Value:          []byte("Hello CodeCrafters!"),
				Headers: []*RecordHeader{
					{Key: []byte("h"), Value: []byte("v")},
				},
			},
		},
	}
}

func TestRecordBatchRoundTrip(t *testing.T) {
	first := mustEncode(t, exampleBatch(CompressionNone))

	batches, consumed, err := decodeRecordBatches(first)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, len(first), consumed)

	got := batches[0]
	assert.Equal(t, int64(3), got.BaseOffset)
	assert.False(t, got.Control)
	require.Len(t, got.Records, 2)
	assert.Equal(t, []byte("Hello Kafka!"), got.Records[0].Value)
	assert.Nil(t, got.Records[0].Key)
	assert.Equal(t, []byte("Hello CodeCrafters!"), got.Records[1].Value)
	assert.Equal(t, []byte("k"), got.Records[1].Key)
	require.Len(t, got.Records[1].Headers, 1)
	assert.Equal(t, []byte("h"), got.Records[1].Headers[0].Key)

	// re-encoding the decoded batch must reproduce the bytes, crc included
	second := mustEncode(t, got)
	assert.Equal(t, first, second)
}

func TestRecordBatchStoredLengthAndCRC(t *testing.T) {
	raw := mustEncode(t, exampleBatch(CompressionNone))

	batchLen := binary.BigEndian.Uint32(raw[8:12])
	assert.Equal(t, int(batchLen), len(raw)-recordBatchOverhead)

	storedCRC := binary.BigEndian.Uint32(raw[17:21])
	assert.Equal(t, crc32.Checksum(raw[21:], castagnoliTable), storedCRC)
	assert.EqualValues(t, 2, raw[16], "magic byte")
}

func TestRecordBatchCRCMismatch(t *testing.T) {
	raw := mustEncode(t, exampleBatch(CompressionNone))

	// flip one bit of the stored crc
	corrupted := append([]byte(nil), raw...)
	corrupted[17] ^= 0x01
	_, _, err := decodeRecordBatches(corrupted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRC")

	// flip one bit in the guarded region instead
	corrupted = append([]byte(nil), raw...)
	corrupted[len(corrupted)-1] ^= 0x80
	_, _, err = decodeRecordBatches(corrupted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRC")

	// pristine bytes still parse
	_, _, err = decodeRecordBatches(raw)
	assert.NoError(t, err)
}

func TestRecordBatchBadMagic(t *testing.T) {
	raw := mustEncode(t, exampleBatch(CompressionNone))
	raw[16] = 1
	_, _, err := decodeRecordBatches(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "magic")
}

func TestControlBatchRoundTrip(t *testing.T) {
	batch := &RecordBatch{
		BaseOffset:     7,
		Control:        true,
		ProducerID:     12,
		ProducerEpoch:  1,
		BaseSequence:   -1,
		ControlRecords: []*ControlRecord{{Version: 0, Type: ControlRecordCommit}},
	}
	raw := mustEncode(t, batch)

	batches, _, err := decodeRecordBatches(raw)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.True(t, batches[0].Control)
	require.Len(t, batches[0].ControlRecords, 1)
	assert.Equal(t, ControlRecordCommit, batches[0].ControlRecords[0].Type)
}

func TestControlBatchRequiresSingleRecord(t *testing.T) {
	batch := &RecordBatch{
		Control:        true,
		ControlRecords: []*ControlRecord{{Version: 0, Type: ControlRecordCommit}},
	}
	raw := mustEncode(t, batch)

	// patch records_count to 2 and fix the crc back up, so only the
	// cardinality rule can fail
	countOff := 21 + 2 + 4 + 8 + 8 + 8 + 2 + 4
	binary.BigEndian.PutUint32(raw[countOff:], 2)
	binary.BigEndian.PutUint32(raw[17:21], crc32.Checksum(raw[21:], castagnoliTable))

	_, _, err := decodeRecordBatches(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control batch")
}

func TestRecordBatchCompressionRoundTrips(t *testing.T) {
	for _, codec := range []CompressionCodec{CompressionGZIP, CompressionSnappy, CompressionLZ4, CompressionZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			raw := mustEncode(t, exampleBatch(codec))

			batches, consumed, err := decodeRecordBatches(raw)
			require.NoError(t, err)
			require.Len(t, batches, 1)
			assert.Equal(t, len(raw), consumed)
			assert.Equal(t, codec, batches[0].Codec)
			require.Len(t, batches[0].Records, 2)
			assert.Equal(t, []byte("Hello Kafka!"), batches[0].Records[0].Value)
			assert.Equal(t, []byte("Hello CodeCrafters!"), batches[0].Records[1].Value)
		})
	}
}

func TestDecodeRecordBatchesRetainsPartialTail(t *testing.T) {
	one := mustEncode(t, exampleBatch(CompressionNone))
	two := append(append([]byte(nil), one...), one...)

	// nothing but a partial prefix: no batches, nothing consumed
	batches, consumed, err := decodeRecordBatches(one[:10])
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.Zero(t, consumed)

	// one complete batch plus a truncated second one
	batches, consumed, err = decodeRecordBatches(two[:len(one)+20])
	require.NoError(t, err)
	assert.Len(t, batches, 1)
	assert.Equal(t, len(one), consumed)

	// the full concatenation parses completely
	batches, consumed, err = decodeRecordBatches(two)
	require.NoError(t, err)
	assert.Len(t, batches, 2)
	assert.Equal(t, len(two), consumed)
}
