package kafkad

// response pairs a response body with the header fields needed to frame it.
// Encoding produces the full wire message: 4-byte size, correlation id,
// optional header tagged fields, then the body.
type response struct {
	correlationID int32
	headerVersion int16
	body          protocolBody
}

func (r *response) encode(pe packetEncoder) error {
	pe.push(&lengthField{})
	pe.putInt32(r.correlationID)
	if r.headerVersion >= 1 {
		pe.putEmptyTaggedFieldArray()
	}
	if err := r.body.encode(pe); err != nil {
		return err
	}
	return pe.pop()
}

// responseHeader is the decode-side counterpart, used by tests and by any
// embedded client tooling that wants to read a framed response back.
type responseHeader struct {
	length        int32
	correlationID int32
}

func (r *responseHeader) decode(pd packetDecoder, version int16) (err error) {
	r.length, err = pd.getInt32()
	if err != nil {
		return err
	}
	if r.length <= 4 {
		return PacketDecodingError{"invalid response length"}
	}

	r.correlationID, err = pd.getInt32()
	if err != nil {
		return err
	}

	if version >= 1 {
		if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
			return err
		}
	}
	return nil
}
