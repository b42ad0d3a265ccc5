package kafkad

import "fmt"

// protocolBody is implemented by every request and response payload the
// server can speak.
type protocolBody interface {
	encoder
	versionedDecoder
	key() int16
	version() int16
	setVersion(int16)
	isValidVersion() bool
}

// request is a fully decoded request frame: the header fields plus the
// versioned body.
type request struct {
	apiKey        int16
	apiVersion    int16
	correlationID int32
	clientID      *string
	body          protocolBody
}

func (r *request) decode(pd packetDecoder) (err error) {
	if err = r.decodeHeader(pd); err != nil {
		return err
	}

	r.body = allocateBody(r.apiKey, r.apiVersion)
	if r.body == nil {
		return ErrUnknownAPIKey
	}

	return r.body.decode(pd, r.apiVersion)
}

// decodeHeader consumes only the header fields, leaving pd positioned at the
// start of the body. Used when the body itself must not be decoded (e.g. an
// unsupported version whose layout we do not know).
func (r *request) decodeHeader(pd packetDecoder) (err error) {
	r.apiKey, err = pd.getInt16()
	if err != nil {
		return err
	}

	r.apiVersion, err = pd.getInt16()
	if err != nil {
		return err
	}

	r.correlationID, err = pd.getInt32()
	if err != nil {
		return err
	}

	r.clientID, err = pd.getNullableString()
	if err != nil {
		return err
	}

	if requestHeaderVersion(r.apiKey, r.apiVersion) >= 2 {
		if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
			return err
		}
	}

	return nil
}

// allocateBody returns an empty request body for the api key, or nil when
// the server does not speak the api at all.
func allocateBody(key, version int16) protocolBody {
	switch key {
	case apiKeyFetch:
		return &FetchRequest{Version: version}
	case apiKeyAPIVersions:
		return &ApiVersionsRequest{Version: version}
	case apiKeyDescribeTopicPartitions:
		return &DescribeTopicPartitionsRequest{Version: version}
	}
	return nil
}

func (r *request) String() string {
	clientID := "<nil>"
	if r.clientID != nil {
		clientID = *r.clientID
	}
	return fmt.Sprintf("request(key=%d, version=%d, correlation=%d, client=%q)",
		r.apiKey, r.apiVersion, r.correlationID, clientID)
}
