package kafkad

import "sort"

const (
	apiKeyFetch                   int16 = 1
	apiKeyAPIVersions             int16 = 18
	apiKeyDescribeTopicPartitions int16 = 75
)

// apiVersionRange is the inclusive span of versions the server implements
// for one api key.
type apiVersionRange struct {
	minVersion int16
	maxVersion int16
}

func (r apiVersionRange) contains(version int16) bool {
	return version >= r.minVersion && version <= r.maxVersion
}

// supportedAPIs is the static table advertised by ApiVersions and enforced
// by the dispatcher. Built once; read-only afterwards.
var supportedAPIs = map[int16]apiVersionRange{
	apiKeyFetch:                   {4, 17},
	apiKeyAPIVersions:             {0, 4},
	apiKeyDescribeTopicPartitions: {0, 0},
}

// supportedAPIKeys returns the advertised api table flattened into ascending
// key order, the shape the ApiVersions response wants.
func supportedAPIKeys() []ApiVersionsResponseKey {
	keys := make([]ApiVersionsResponseKey, 0, len(supportedAPIs))
	for k, r := range supportedAPIs {
		keys = append(keys, ApiVersionsResponseKey{
			ApiKey:     k,
			MinVersion: r.minVersion,
			MaxVersion: r.maxVersion,
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ApiKey < keys[j].ApiKey })
	return keys
}

// The header framing version is a function of the (api_key, api_version)
// pair, not of either alone: flexible request versions carry tagged fields
// in the header, and most flexible response versions do too. Both lookup
// directions live here so encode and decode cannot drift apart.
//
// ApiVersions responses are the documented exception: their header is
// always v0, even for the flexible v3/v4 bodies, because clients must be
// able to parse the response before they know which versions the broker
// speaks.

func requestHeaderVersion(apiKey, apiVersion int16) int16 {
	switch apiKey {
	case apiKeyFetch:
		if apiVersion >= 12 {
			return 2
		}
		return 1
	case apiKeyAPIVersions:
		if apiVersion >= 3 {
			return 2
		}
		return 1
	case apiKeyDescribeTopicPartitions:
		return 2
	default:
		// Unknown requests still need their header consumed before the
		// dispatcher can reject them; v1 reads the non-flexible prefix
		// shared by every header version.
		return 1
	}
}

func responseHeaderVersion(apiKey, apiVersion int16) int16 {
	switch apiKey {
	case apiKeyFetch:
		if apiVersion >= 12 {
			return 1
		}
		return 0
	case apiKeyAPIVersions:
		return 0
	case apiKeyDescribeTopicPartitions:
		return 1
	default:
		return -1
	}
}
