package kafkad

// ApiVersionsResponseKey contains the APIs supported by the broker.
type ApiVersionsResponseKey struct {
	// ApiKey contains the API index.
	ApiKey int16
	// MinVersion contains the minimum supported version, inclusive.
	MinVersion int16
	// MaxVersion contains the maximum supported version, inclusive.
	MaxVersion int16
}

func (a *ApiVersionsResponseKey) encode(pe packetEncoder, version int16) {
	pe.putInt16(a.ApiKey)
	pe.putInt16(a.MinVersion)
	pe.putInt16(a.MaxVersion)
	if version >= 3 {
		pe.putEmptyTaggedFieldArray()
	}
}

func (a *ApiVersionsResponseKey) decode(pd packetDecoder, version int16) (err error) {
	if a.ApiKey, err = pd.getInt16(); err != nil {
		return err
	}
	if a.MinVersion, err = pd.getInt16(); err != nil {
		return err
	}
	if a.MaxVersion, err = pd.getInt16(); err != nil {
		return err
	}
	if version >= 3 {
		if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
			return err
		}
	}
	return nil
}

// SupportedFeatureKey describes one feature level the broker can run at.
// Carried as tagged field 0 of the v3+ response.
type SupportedFeatureKey struct {
	Name       string
	MinVersion int16
	MaxVersion int16
}

func (f *SupportedFeatureKey) encode(pe packetEncoder) {
	pe.putCompactString(f.Name)
	pe.putInt16(f.MinVersion)
	pe.putInt16(f.MaxVersion)
	pe.putEmptyTaggedFieldArray()
}

func (f *SupportedFeatureKey) decode(pd packetDecoder) (err error) {
	if f.Name, err = pd.getCompactString(); err != nil {
		return err
	}
	if f.MinVersion, err = pd.getInt16(); err != nil {
		return err
	}
	if f.MaxVersion, err = pd.getInt16(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// FinalizedFeatureKey describes one feature level the cluster has settled
// on. Carried as tagged field 2 of the v3+ response.
type FinalizedFeatureKey struct {
	Name            string
	MaxVersionLevel int16
	MinVersionLevel int16
}

func (f *FinalizedFeatureKey) encode(pe packetEncoder) {
	pe.putCompactString(f.Name)
	pe.putInt16(f.MaxVersionLevel)
	pe.putInt16(f.MinVersionLevel)
	pe.putEmptyTaggedFieldArray()
}

func (f *FinalizedFeatureKey) decode(pd packetDecoder) (err error) {
	if f.Name, err = pd.getCompactString(); err != nil {
		return err
	}
	if f.MaxVersionLevel, err = pd.getInt16(); err != nil {
		return err
	}
	if f.MinVersionLevel, err = pd.getInt16(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// ApiVersionsResponse advertises the version ranges of every api the broker
// handles, plus (v3+) optional feature levels in tagged fields.
type ApiVersionsResponse struct {
	// Version defines the protocol version to use for encode and decode
	Version int16
	// ErrorCode contains the top-level error code.
	ErrorCode int16
	// ApiKeys contains the APIs supported by the broker.
	ApiKeys []ApiVersionsResponseKey
	// ThrottleTimeMs contains the duration in milliseconds for which the
	// request was throttled due to a quota violation, or zero if the request
	// did not violate any quota. Included for v1 and up.
	ThrottleTimeMs int32
	// SupportedFeatures contains the features supported by the broker
	// (tagged field 0, v3+, omitted when empty).
	SupportedFeatures []SupportedFeatureKey
	// FinalizedFeaturesEpoch contains the monotonically increasing epoch for
	// the finalized features information, nil when unknown (tagged field 1).
	FinalizedFeaturesEpoch *int64
	// FinalizedFeatures contains the cluster-wide finalized features (tagged
	// field 2, only written for a positive epoch).
	FinalizedFeatures []FinalizedFeatureKey
	// ZkMigrationReady signals readiness of the controllers for migration
	// (tagged field 3, omitted when false).
	ZkMigrationReady bool
}

func (r *ApiVersionsResponse) setVersion(v int16) {
	r.Version = v
}

func (r *ApiVersionsResponse) encode(pe packetEncoder) error {
	pe.putInt16(r.ErrorCode)

	if r.Version >= 3 {
		pe.putCompactArrayLength(len(r.ApiKeys))
	} else {
		if err := pe.putArrayLength(len(r.ApiKeys)); err != nil {
			return err
		}
	}
	for i := range r.ApiKeys {
		r.ApiKeys[i].encode(pe, r.Version)
	}

	if r.Version >= 1 {
		pe.putInt32(r.ThrottleTimeMs)
	}

	if r.Version >= 3 {
		fields, err := r.taggedFields()
		if err != nil {
			return err
		}
		pe.putTaggedFieldArray(fields)
	}
	return nil
}

func (r *ApiVersionsResponse) taggedFields() ([]taggedField, error) {
	var fields []taggedField

	if len(r.SupportedFeatures) > 0 {
		var buf encodeBuffer
		buf.putCompactArrayLength(len(r.SupportedFeatures))
		for i := range r.SupportedFeatures {
			r.SupportedFeatures[i].encode(&buf)
		}
		fields = append(fields, taggedField{key: 0, data: buf.bytes()})
	}

	if r.FinalizedFeaturesEpoch != nil {
		var buf encodeBuffer
		buf.putInt64(*r.FinalizedFeaturesEpoch)
		fields = append(fields, taggedField{key: 1, data: buf.bytes()})

		if *r.FinalizedFeaturesEpoch > 0 && len(r.FinalizedFeatures) > 0 {
			var ffBuf encodeBuffer
			ffBuf.putCompactArrayLength(len(r.FinalizedFeatures))
			for i := range r.FinalizedFeatures {
				r.FinalizedFeatures[i].encode(&ffBuf)
			}
			fields = append(fields, taggedField{key: 2, data: ffBuf.bytes()})
		}
	}

	if r.ZkMigrationReady {
		var buf encodeBuffer
		buf.putBool(true)
		fields = append(fields, taggedField{key: 3, data: buf.bytes()})
	}

	return fields, nil
}

func (r *ApiVersionsResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.ErrorCode, err = pd.getInt16(); err != nil {
		return err
	}

	var numApiKeys int
	if r.Version >= 3 {
		if numApiKeys, err = pd.getCompactArrayLength(); err != nil {
			return err
		}
		if numApiKeys < 0 {
			return errNullField
		}
	} else {
		if numApiKeys, err = pd.getArrayLength(); err != nil {
			return err
		}
		if numApiKeys < 0 {
			numApiKeys = 0
		}
	}
	r.ApiKeys = make([]ApiVersionsResponseKey, numApiKeys)
	for i := 0; i < numApiKeys; i++ {
		if err = r.ApiKeys[i].decode(pd, r.Version); err != nil {
			return err
		}
	}

	if r.Version >= 1 {
		if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
			return err
		}
	}

	if r.Version >= 3 {
		fields, err := pd.getTaggedFieldArray()
		if err != nil {
			return err
		}
		if err := r.decodeTaggedFields(fields); err != nil {
			return err
		}
	}
	return nil
}

func (r *ApiVersionsResponse) decodeTaggedFields(fields []taggedField) error {
	for _, tf := range fields {
		sub := &realDecoder{raw: tf.data}
		switch tf.key {
		case 0:
			n, err := sub.getCompactArrayLength()
			if err != nil {
				return err
			}
			if n < 0 {
				return errNullField
			}
			r.SupportedFeatures = make([]SupportedFeatureKey, n)
			for i := 0; i < n; i++ {
				if err := r.SupportedFeatures[i].decode(sub); err != nil {
					return err
				}
			}
		case 1:
			epoch, err := sub.getInt64()
			if err != nil {
				return err
			}
			r.FinalizedFeaturesEpoch = &epoch
		case 2:
			n, err := sub.getCompactArrayLength()
			if err != nil {
				return err
			}
			if n < 0 {
				return errNullField
			}
			r.FinalizedFeatures = make([]FinalizedFeatureKey, n)
			for i := 0; i < n; i++ {
				if err := r.FinalizedFeatures[i].decode(sub); err != nil {
					return err
				}
			}
		case 3:
			ready, err := sub.getBool()
			if err != nil {
				return err
			}
			r.ZkMigrationReady = ready
		default:
			// forward compatibility: skip unknown keys
		}
	}
	return nil
}

// apiVersionsErrorResponse is the body sent when the requested ApiVersions
// version is outside the supported range. Clients probe with versions the
// broker may not speak, so the error answer has one fixed, version-free
// shape every client can parse: error code, an empty compact api_keys
// array, zeroed throttle time, empty tagged fields (and a v0 header).
type apiVersionsErrorResponse struct {
	ErrorCode int16
}

func (r *apiVersionsErrorResponse) encode(pe packetEncoder) error {
	pe.putInt16(r.ErrorCode)
	pe.putCompactArrayLength(0)
	pe.putInt32(0)
	pe.putEmptyTaggedFieldArray()
	return nil
}

func (r *apiVersionsErrorResponse) decode(pd packetDecoder, version int16) (err error) {
	if r.ErrorCode, err = pd.getInt16(); err != nil {
		return err
	}
	if _, err = pd.getCompactArrayLength(); err != nil {
		return err
	}
	if _, err = pd.getInt32(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

func (r *apiVersionsErrorResponse) key() int16 {
	return apiKeyAPIVersions
}

func (r *apiVersionsErrorResponse) version() int16 {
	return 0
}

func (r *apiVersionsErrorResponse) setVersion(v int16) {}

func (r *apiVersionsErrorResponse) isValidVersion() bool {
	return true
}

func (r *ApiVersionsResponse) key() int16 {
	return apiKeyAPIVersions
}

func (r *ApiVersionsResponse) version() int16 {
	return r.Version
}

func (r *ApiVersionsResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 4
}
