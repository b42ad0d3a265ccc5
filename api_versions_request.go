package kafkad

// ApiVersionsRequest asks which apis and versions this broker speaks.
// Versions 0 through 2 carry no body at all; v3 added the client software
// name/version pair (and flexible framing).
type ApiVersionsRequest struct {
	// Version defines the protocol version to use for encode and decode
	Version int16
	// ClientSoftwareName contains the name of the client.
	ClientSoftwareName string
	// ClientSoftwareVersion contains the version of the client.
	ClientSoftwareVersion string
}

func (r *ApiVersionsRequest) setVersion(v int16) {
	r.Version = v
}

func (r *ApiVersionsRequest) encode(pe packetEncoder) error {
	if r.Version >= 3 {
		pe.putCompactString(r.ClientSoftwareName)
		pe.putCompactString(r.ClientSoftwareVersion)
		pe.putEmptyTaggedFieldArray()
	}
	return nil
}

func (r *ApiVersionsRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	if r.Version >= 3 {
		if r.ClientSoftwareName, err = pd.getCompactString(); err != nil {
			return err
		}
		if r.ClientSoftwareVersion, err = pd.getCompactString(); err != nil {
			return err
		}
		if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
			return err
		}
	}
	return nil
}

func (r *ApiVersionsRequest) key() int16 {
	return apiKeyAPIVersions
}

func (r *ApiVersionsRequest) version() int16 {
	return r.Version
}

func (r *ApiVersionsRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 4
}
