package kafkad

import (
	"fmt"
	"hash/crc32"
)

const (
	// recordBatchOverhead is the byte count of base_offset plus batch_length,
	// the prefix that must be readable before the batch length is known.
	recordBatchOverhead = 12

	// recordBatchHeaderSize is the size of everything in a batch before the
	// records themselves, counted from partition_leader_epoch.
	recordBatchHeaderSize = 49

	isControlMask       uint16 = 0x10
	isTransactionalMask uint16 = 0x20
	timestampTypeMask   uint16 = 0x08
)

// RecordBatch is the v2 ("magic 2") on-disk and on-wire unit of records:
// a fixed header, a CRC-32C over everything after the crc field, and either
// N value records or exactly one control record.
type RecordBatch struct {
	BaseOffset           int64
	PartitionLeaderEpoch int32
	Codec                CompressionCodec
	Control              bool
	LogAppendTime        bool
	IsTransactional      bool
	LastOffsetDelta      int32
	BaseTimestamp        int64
	MaxTimestamp         int64
	ProducerID           int64
	ProducerEpoch        int16
	BaseSequence         int32
	Records              []*Record
	ControlRecords       []*ControlRecord

	compressedRecords []byte
}

func (b *RecordBatch) encode(pe packetEncoder) error {
	pe.putInt64(b.BaseOffset)
	pe.push(&lengthField{})
	pe.putInt32(b.PartitionLeaderEpoch)
	pe.putInt8(2) // magic
	pe.push(&crc32Field{})
	pe.putUint16(b.computeAttributes())
	pe.putInt32(b.LastOffsetDelta)
	pe.putInt64(b.BaseTimestamp)
	pe.putInt64(b.MaxTimestamp)
	pe.putInt64(b.ProducerID)
	pe.putInt16(b.ProducerEpoch)
	pe.putInt32(b.BaseSequence)

	if b.Control {
		if len(b.ControlRecords) != 1 {
			return PacketEncodingError{"a control batch must contain exactly one control record"}
		}
		pe.putInt32(1)
		b.ControlRecords[0].encode(pe)
	} else {
		pe.putInt32(int32(len(b.Records)))
		if err := b.encodeRecords(pe); err != nil {
			return err
		}
	}

	if err := pe.pop(); err != nil { // crc
		return err
	}
	return pe.pop() // batch length
}

func (b *RecordBatch) encodeRecords(pe packetEncoder) error {
	if b.compressedRecords == nil {
		var raw encodeBuffer
		for _, r := range b.Records {
			if err := r.encode(&raw); err != nil {
				return err
			}
		}

		compressed, err := compress(b.Codec, raw.bytes())
		if err != nil {
			return err
		}
		b.compressedRecords = compressed
	}

	pe.putRawBytes(b.compressedRecords)
	return nil
}

func (b *RecordBatch) decodeBatch(pd packetDecoder) (err error) {
	if pd.remaining() < recordBatchOverhead {
		return ErrInsufficientData
	}

	if b.BaseOffset, err = pd.getInt64(); err != nil {
		return err
	}

	batchLen, err := pd.getUint32()
	if err != nil {
		return err
	}
	// The whole batch must be present before anything else is looked at, so
	// a reader accumulating file or socket bytes can retry with more data.
	raw, err := pd.getRawBytes(int(batchLen))
	if err != nil {
		return err
	}
	if len(raw) < recordBatchHeaderSize {
		return PacketDecodingError{"record batch is smaller than its header"}
	}

	rd := &realDecoder{raw: raw}

	if b.PartitionLeaderEpoch, err = rd.getInt32(); err != nil {
		return err
	}

	magic, err := rd.getInt8()
	if err != nil {
		return err
	}
	if magic != 2 {
		return PacketDecodingError{fmt.Sprintf("unsupported record batch magic byte (%d)", magic)}
	}

	storedCRC, err := rd.getUint32()
	if err != nil {
		return err
	}
	if computed := crc32.Checksum(raw[9:], castagnoliTable); computed != storedCRC {
		return PacketDecodingError{fmt.Sprintf("CRC didn't match expected %#x got %#x", storedCRC, computed)}
	}

	attributes, err := rd.getUint16()
	if err != nil {
		return err
	}
	b.Codec = CompressionCodec(int16(attributes) & compressionCodecMask)
	b.Control = attributes&isControlMask == isControlMask
	b.LogAppendTime = attributes&timestampTypeMask == timestampTypeMask
	b.IsTransactional = attributes&isTransactionalMask == isTransactionalMask

	if b.LastOffsetDelta, err = rd.getInt32(); err != nil {
		return err
	}
	if b.BaseTimestamp, err = rd.getInt64(); err != nil {
		return err
	}
	if b.MaxTimestamp, err = rd.getInt64(); err != nil {
		return err
	}
	if b.ProducerID, err = rd.getInt64(); err != nil {
		return err
	}
	if b.ProducerEpoch, err = rd.getInt16(); err != nil {
		return err
	}
	if b.BaseSequence, err = rd.getInt32(); err != nil {
		return err
	}

	numRecs, err := rd.getInt32()
	if err != nil {
		return err
	}
	if numRecs < 0 {
		return errInvalidArrayLength
	}

	if b.Control {
		if numRecs != 1 {
			return PacketDecodingError{fmt.Sprintf("invalid records count (%d) for a control batch", numRecs)}
		}
		cr := &ControlRecord{}
		if err := cr.decode(rd); err != nil {
			return err
		}
		b.ControlRecords = []*ControlRecord{cr}
		return nil
	}

	recBytes, err := rd.getRawBytes(rd.remaining())
	if err != nil {
		return err
	}
	recBytes, err = decompress(b.Codec, recBytes)
	if err != nil {
		return err
	}

	recDecoder := &realDecoder{raw: recBytes}
	b.Records = make([]*Record, numRecs)
	for i := range b.Records {
		rec := &Record{}
		if err := rec.decode(recDecoder); err != nil {
			return err
		}
		b.Records[i] = rec
	}
	return nil
}

func (b *RecordBatch) computeAttributes() uint16 {
	attr := uint16(int16(b.Codec) & compressionCodecMask)
	if b.Control {
		attr |= isControlMask
	}
	if b.LogAppendTime {
		attr |= timestampTypeMask
	}
	if b.IsTransactional {
		attr |= isTransactionalMask
	}
	return attr
}

func (b *RecordBatch) addRecord(r *Record) {
	b.Records = append(b.Records, r)
	b.compressedRecords = nil
}

// decodeRecordBatches consumes as many complete batches as buf holds,
// returning them along with the count of bytes consumed. A trailing partial
// batch is left unconsumed for the caller to complete and retry.
func decodeRecordBatches(buf []byte) ([]*RecordBatch, int, error) {
	var batches []*RecordBatch
	consumed := 0

	for consumed < len(buf) {
		rd := &realDecoder{raw: buf[consumed:]}
		batch := &RecordBatch{}
		err := batch.decodeBatch(rd)
		if err == ErrInsufficientData {
			break
		}
		if err != nil {
			return batches, consumed, err
		}
		batches = append(batches, batch)
		consumed += rd.off
	}

	return batches, consumed, nil
}
