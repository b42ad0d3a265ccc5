package kafkad

import "github.com/google/uuid"

// fetchRequestBlock describes one partition to fetch from.
type fetchRequestBlock struct {
	Version int16
	// partitionID contains the partition index.
	partitionID int32
	// currentLeaderEpoch contains the current leader epoch of the partition.
	currentLeaderEpoch int32
	// fetchOffset contains the message offset.
	fetchOffset int64
	// lastFetchedEpoch contains the epoch of the last fetched record, or -1
	// if there is none.
	lastFetchedEpoch int32
	// logStartOffset contains the earliest available offset of the follower
	// replica. The field is only used when the request is sent by the
	// follower.
	logStartOffset int64
	// maxBytes contains the maximum bytes to fetch from this partition. See
	// KIP-74 for cases where this limit may not be honored.
	maxBytes int32
	// replicaDirectoryID contains the directory id of the fetching follower
	// (tagged field 0, v17+).
	replicaDirectoryID uuid.UUID
}

func (b *fetchRequestBlock) encode(pe packetEncoder, version int16) error {
	b.Version = version
	pe.putInt32(b.partitionID)
	if b.Version >= 9 {
		pe.putInt32(b.currentLeaderEpoch)
	}
	pe.putInt64(b.fetchOffset)
	if b.Version >= 12 {
		pe.putInt32(b.lastFetchedEpoch)
	}
	if b.Version >= 5 {
		pe.putInt64(b.logStartOffset)
	}
	pe.putInt32(b.maxBytes)
	if b.Version >= 12 {
		if b.Version >= 17 && b.replicaDirectoryID != uuid.Nil {
			var dir encodeBuffer
			dir.putUUID(b.replicaDirectoryID)
			pe.putTaggedFieldArray([]taggedField{{key: 0, data: dir.bytes()}})
		} else {
			pe.putEmptyTaggedFieldArray()
		}
	}
	return nil
}

func (b *fetchRequestBlock) decode(pd packetDecoder, version int16) (err error) {
	b.Version = version
	b.currentLeaderEpoch = -1
	b.lastFetchedEpoch = -1
	b.logStartOffset = -1

	if b.partitionID, err = pd.getInt32(); err != nil {
		return err
	}
	if b.Version >= 9 {
		if b.currentLeaderEpoch, err = pd.getInt32(); err != nil {
			return err
		}
	}
	if b.fetchOffset, err = pd.getInt64(); err != nil {
		return err
	}
	if b.Version >= 12 {
		if b.lastFetchedEpoch, err = pd.getInt32(); err != nil {
			return err
		}
	}
	if b.Version >= 5 {
		if b.logStartOffset, err = pd.getInt64(); err != nil {
			return err
		}
	}
	if b.maxBytes, err = pd.getInt32(); err != nil {
		return err
	}
	if b.Version >= 12 {
		fields, err := pd.getTaggedFieldArray()
		if err != nil {
			return err
		}
		if b.Version >= 17 {
			if data := taggedFieldData(fields, 0); data != nil {
				sub := &realDecoder{raw: data}
				if b.replicaDirectoryID, err = sub.getUUID(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// FetchReplicaState identifies the follower issuing a fetch (tagged field 1
// of the request, v15+, replacing the classic replica_id field).
type FetchReplicaState struct {
	// ReplicaID contains the replica id of the follower, or -1 if this
	// request is from a consumer.
	ReplicaID int32
	// ReplicaEpoch contains the epoch of this follower, or -1 if not
	// available.
	ReplicaEpoch int64
}

func (rs *FetchReplicaState) encode(pe packetEncoder) {
	pe.putInt32(rs.ReplicaID)
	pe.putInt64(rs.ReplicaEpoch)
	pe.putEmptyTaggedFieldArray()
}

func (rs *FetchReplicaState) decode(pd packetDecoder) (err error) {
	if rs.ReplicaID, err = pd.getInt32(); err != nil {
		return err
	}
	if rs.ReplicaEpoch, err = pd.getInt64(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// fetchRequestTopic is one topic of a fetch request: identified by name
// through v12 and by id from v13 on.
type fetchRequestTopic struct {
	Name       string
	TopicID    uuid.UUID
	Partitions []*fetchRequestBlock
}

// fetchRequestForgottenTopic names partitions removed from an incremental
// fetch session.
type fetchRequestForgottenTopic struct {
	Name       string
	TopicID    uuid.UUID
	Partitions []int32
}

// FetchRequest (API key 1) will fetch Kafka messages. This server
// implements versions 4 through 17: everything from the introduction of the
// v2 record-batch format onwards.
type FetchRequest struct {
	// Version defines the protocol version to use for encode and decode
	Version int16
	// ReplicaID contains the broker ID of the follower, or -1 if this
	// request is from a consumer. Dropped from the wire in v15 in favour of
	// the ReplicaState tagged field.
	ReplicaID int32
	// MaxWaitTime contains the maximum time in milliseconds to wait for the
	// response.
	MaxWaitTime int32
	// MinBytes contains the minimum bytes to accumulate in the response.
	MinBytes int32
	// MaxBytes contains the maximum bytes to fetch. See KIP-74 for cases
	// where this limit may not be honored.
	MaxBytes int32
	// Isolation controls the visibility of transactional records. Using
	// READ_UNCOMMITTED (isolation_level = 0) makes all records visible. With
	// READ_COMMITTED (isolation_level = 1), non-transactional and COMMITTED
	// transactional records are visible.
	Isolation IsolationLevel
	// SessionID contains the fetch session ID.
	SessionID int32
	// SessionEpoch contains the epoch of the partition leader as known to
	// the follower replica or a consumer.
	SessionEpoch int32
	// Topics contains the topics to fetch, in request order.
	Topics []*fetchRequestTopic
	// Forgotten contains, in an incremental fetch request, the partitions
	// to remove.
	Forgotten []*fetchRequestForgottenTopic
	// RackID contains a Rack ID of the consumer making this request.
	RackID string
	// ClusterID contains the cluster id the client believes it is talking
	// to (tagged field 0, v12+).
	ClusterID *string
	// ReplicaState identifies the fetching follower (tagged field 1,
	// v15-v17).
	ReplicaState *FetchReplicaState
}

func (r *FetchRequest) setVersion(v int16) {
	r.Version = v
}

type IsolationLevel int8

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
)

func (r *FetchRequest) encode(pe packetEncoder) (err error) {
	if r.Version <= 14 {
		pe.putInt32(r.ReplicaID)
	}
	pe.putInt32(r.MaxWaitTime)
	pe.putInt32(r.MinBytes)
	pe.putInt32(r.MaxBytes)
	pe.putInt8(int8(r.Isolation))
	if r.Version >= 7 {
		pe.putInt32(r.SessionID)
		pe.putInt32(r.SessionEpoch)
	}

	if r.Version >= 12 {
		pe.putCompactArrayLength(len(r.Topics))
	} else {
		if err = pe.putArrayLength(len(r.Topics)); err != nil {
			return err
		}
	}
	for _, topic := range r.Topics {
		if r.Version >= 13 {
			pe.putUUID(topic.TopicID)
		} else if r.Version == 12 {
			pe.putCompactString(topic.Name)
		} else {
			if err = pe.putString(topic.Name); err != nil {
				return err
			}
		}

		if r.Version >= 12 {
			pe.putCompactArrayLength(len(topic.Partitions))
		} else {
			if err = pe.putArrayLength(len(topic.Partitions)); err != nil {
				return err
			}
		}
		for _, block := range topic.Partitions {
			if err = block.encode(pe, r.Version); err != nil {
				return err
			}
		}
		if r.Version >= 12 {
			pe.putEmptyTaggedFieldArray()
		}
	}

	if r.Version >= 7 {
		if r.Version >= 12 {
			pe.putCompactArrayLength(len(r.Forgotten))
		} else {
			if err = pe.putArrayLength(len(r.Forgotten)); err != nil {
				return err
			}
		}
		for _, forgotten := range r.Forgotten {
			if r.Version >= 13 {
				pe.putUUID(forgotten.TopicID)
			} else if r.Version == 12 {
				pe.putCompactString(forgotten.Name)
			} else {
				if err = pe.putString(forgotten.Name); err != nil {
					return err
				}
			}
			if r.Version >= 12 {
				pe.putCompactInt32Array(forgotten.Partitions)
				pe.putEmptyTaggedFieldArray()
			} else {
				if err = pe.putInt32Array(forgotten.Partitions); err != nil {
					return err
				}
			}
		}
	}

	if r.Version >= 12 {
		pe.putCompactString(r.RackID)
	} else if r.Version >= 11 {
		if err = pe.putString(r.RackID); err != nil {
			return err
		}
	}

	if r.Version >= 12 {
		var fields []taggedField
		if r.ClusterID != nil {
			var buf encodeBuffer
			buf.putNullableCompactString(r.ClusterID)
			fields = append(fields, taggedField{key: 0, data: buf.bytes()})
		}
		if r.Version >= 15 && r.ReplicaState != nil {
			var buf encodeBuffer
			r.ReplicaState.encode(&buf)
			fields = append(fields, taggedField{key: 1, data: buf.bytes()})
		}
		pe.putTaggedFieldArray(fields)
	}

	return nil
}

func (r *FetchRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version
	r.ReplicaID = -1
	r.SessionEpoch = -1

	if r.Version <= 14 {
		if r.ReplicaID, err = pd.getInt32(); err != nil {
			return err
		}
	}
	if r.MaxWaitTime, err = pd.getInt32(); err != nil {
		return err
	}
	if r.MinBytes, err = pd.getInt32(); err != nil {
		return err
	}
	if r.MaxBytes, err = pd.getInt32(); err != nil {
		return err
	}
	isolation, err := pd.getInt8()
	if err != nil {
		return err
	}
	r.Isolation = IsolationLevel(isolation)
	if r.Version >= 7 {
		if r.SessionID, err = pd.getInt32(); err != nil {
			return err
		}
		if r.SessionEpoch, err = pd.getInt32(); err != nil {
			return err
		}
	}

	numTopics, err := getNonNullableArrayLength(pd, r.Version, "topics")
	if err != nil {
		return err
	}
	r.Topics = make([]*fetchRequestTopic, numTopics)
	for i := range r.Topics {
		topic := &fetchRequestTopic{}
		if r.Version >= 13 {
			if topic.TopicID, err = pd.getUUID(); err != nil {
				return err
			}
		} else if r.Version == 12 {
			if topic.Name, err = pd.getCompactString(); err != nil {
				return err
			}
		} else {
			if topic.Name, err = pd.getString(); err != nil {
				return err
			}
		}

		numBlocks, err := getNonNullableArrayLength(pd, r.Version, "partitions")
		if err != nil {
			return err
		}
		topic.Partitions = make([]*fetchRequestBlock, numBlocks)
		for j := range topic.Partitions {
			block := &fetchRequestBlock{}
			if err = block.decode(pd, r.Version); err != nil {
				return err
			}
			topic.Partitions[j] = block
		}
		if r.Version >= 12 {
			if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
				return err
			}
		}
		r.Topics[i] = topic
	}

	if r.Version >= 7 {
		numForgotten, err := getNonNullableArrayLength(pd, r.Version, "forgotten_topics_data")
		if err != nil {
			return err
		}
		r.Forgotten = make([]*fetchRequestForgottenTopic, numForgotten)
		for i := range r.Forgotten {
			forgotten := &fetchRequestForgottenTopic{}
			if r.Version >= 13 {
				if forgotten.TopicID, err = pd.getUUID(); err != nil {
					return err
				}
			} else if r.Version == 12 {
				if forgotten.Name, err = pd.getCompactString(); err != nil {
					return err
				}
			} else {
				if forgotten.Name, err = pd.getString(); err != nil {
					return err
				}
			}
			if r.Version >= 12 {
				if forgotten.Partitions, err = pd.getCompactInt32Array(); err != nil {
					return err
				}
				if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
					return err
				}
			} else {
				if forgotten.Partitions, err = pd.getInt32Array(); err != nil {
					return err
				}
			}
			r.Forgotten[i] = forgotten
		}
	}

	if r.Version >= 12 {
		rackID, err := pd.getCompactNullableString()
		if err != nil {
			return err
		}
		if rackID != nil {
			r.RackID = *rackID
		}
	} else if r.Version >= 11 {
		rackID, err := pd.getNullableString()
		if err != nil {
			return err
		}
		if rackID != nil {
			r.RackID = *rackID
		}
	}

	if r.Version >= 12 {
		fields, err := pd.getTaggedFieldArray()
		if err != nil {
			return err
		}
		if data := taggedFieldData(fields, 0); data != nil {
			sub := &realDecoder{raw: data}
			if r.ClusterID, err = sub.getCompactNullableString(); err != nil {
				return err
			}
		}
		if r.Version >= 15 {
			if data := taggedFieldData(fields, 1); data != nil {
				sub := &realDecoder{raw: data}
				r.ReplicaState = &FetchReplicaState{}
				if err = r.ReplicaState.decode(sub); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// getNonNullableArrayLength reads a compact or classic array length
// depending on the flexible-version boundary and refuses null.
func getNonNullableArrayLength(pd packetDecoder, version int16, field string) (int, error) {
	var (
		n   int
		err error
	)
	if version >= 12 {
		n, err = pd.getCompactArrayLength()
	} else {
		n, err = pd.getArrayLength()
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, PacketDecodingError{"non-nullable field " + field + " was serialized as null"}
	}
	return n, nil
}

func (r *FetchRequest) key() int16 {
	return apiKeyFetch
}

func (r *FetchRequest) version() int16 {
	return r.Version
}

func (r *FetchRequest) isValidVersion() bool {
	return r.Version >= 4 && r.Version <= 17
}

// AddBlock registers one partition to fetch. Mostly useful to tests and
// embedded client tooling.
func (r *FetchRequest) AddBlock(topic string, topicID uuid.UUID, partitionID int32, fetchOffset int64, maxBytes int32, leaderEpoch int32) {
	var ft *fetchRequestTopic
	for _, t := range r.Topics {
		if t.Name == topic && t.TopicID == topicID {
			ft = t
			break
		}
	}
	if ft == nil {
		ft = &fetchRequestTopic{Name: topic, TopicID: topicID}
		r.Topics = append(r.Topics, ft)
	}

	block := &fetchRequestBlock{
		partitionID:        partitionID,
		fetchOffset:        fetchOffset,
		maxBytes:           maxBytes,
		currentLeaderEpoch: -1,
		lastFetchedEpoch:   -1,
		logStartOffset:     -1,
	}
	if r.Version >= 9 {
		block.currentLeaderEpoch = leaderEpoch
	}
	ft.Partitions = append(ft.Partitions, block)
}
