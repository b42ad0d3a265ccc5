package kafkad

// RecordHeader stores a key/value pair attached to a record. Either side may
// be null.
type RecordHeader struct {
	Key   []byte
	Value []byte
}

func (h *RecordHeader) encode(pe packetEncoder) {
	pe.putVarintBytes(h.Key)
	pe.putVarintBytes(h.Value)
}

func (h *RecordHeader) decode(pd packetDecoder) (err error) {
	if h.Key, err = pd.getVarintBytes(); err != nil {
		return err
	}
	if h.Value, err = pd.getVarintBytes(); err != nil {
		return err
	}
	return nil
}

// Record is a kafka record type, the varint-framed entry of a data batch.
// Timestamps and offsets are deltas relative to the enclosing batch.
type Record struct {
	Attributes     int8
	TimestampDelta int64
	OffsetDelta    int64
	Key            []byte
	Value          []byte
	Headers        []*RecordHeader
}

func (r *Record) encode(pe packetEncoder) error {
	var body encodeBuffer
	body.putInt8(r.Attributes)
	body.putVarint(r.TimestampDelta)
	body.putVarint(r.OffsetDelta)
	body.putVarintBytes(r.Key)
	body.putVarintBytes(r.Value)
	body.putVarint(int64(len(r.Headers)))
	for _, h := range r.Headers {
		h.encode(&body)
	}

	pe.putVarintBytes(body.bytes())
	return nil
}

func (r *Record) decode(pd packetDecoder) (err error) {
	// The leading varint length delimits this record exactly: every field is
	// read from the carved-out subset so an inner under-read cannot run into
	// the next record.
	length, err := pd.getVarint()
	if err != nil {
		return err
	}
	if length < 0 {
		return errInvalidByteSliceLength
	}

	sub, err := pd.getSubset(int(length))
	if err != nil {
		return err
	}

	if r.Attributes, err = sub.getInt8(); err != nil {
		return err
	}
	if r.TimestampDelta, err = sub.getVarint(); err != nil {
		return err
	}
	if r.OffsetDelta, err = sub.getVarint(); err != nil {
		return err
	}
	if r.Key, err = sub.getVarintBytes(); err != nil {
		return err
	}
	if r.Value, err = sub.getVarintBytes(); err != nil {
		return err
	}

	numHeaders, err := sub.getVarint()
	if err != nil {
		return err
	}
	if numHeaders < 0 {
		return errInvalidArrayLength
	}
	if numHeaders > 0 {
		r.Headers = make([]*RecordHeader, numHeaders)
		for i := range r.Headers {
			hdr := &RecordHeader{}
			if err := hdr.decode(sub); err != nil {
				return err
			}
			r.Headers[i] = hdr
		}
	}
	return nil
}
