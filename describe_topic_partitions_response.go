package kafkad

import "github.com/google/uuid"

// describedTopicAuthorizedOperations is the operations bitfield reported for
// every topic: READ, WRITE, CREATE, DELETE, ALTER, DESCRIBE,
// DESCRIBE_CONFIGS and ALTER_CONFIGS.
const describedTopicAuthorizedOperations int32 = 0x0df8

// DescribeTopicPartitionsResponsePartition describes a single partition.
type DescribeTopicPartitionsResponsePartition struct {
	// ErrorCode contains the partition-level error, or 0 if there was no
	// error.
	ErrorCode int16
	// PartitionIndex contains the partition index.
	PartitionIndex int32
	// LeaderID contains the id of the current leader, or -1 if the leader is
	// not known.
	LeaderID int32
	// LeaderEpoch contains the leader epoch of this partition.
	LeaderEpoch int32
	// ReplicaNodes contains the set of all nodes that host this partition.
	ReplicaNodes []int32
	// IsrNodes contains the set of nodes that are in sync with the leader
	// for this partition.
	IsrNodes []int32
	// EligibleLeaderReplicas contains the new eligible leader replicas,
	// nil when unassigned.
	EligibleLeaderReplicas []int32
	// LastKnownELR contains the last known ELR, nil when unassigned.
	LastKnownELR []int32
	// OfflineReplicas contains the set of offline replicas of this
	// partition.
	OfflineReplicas []int32
}

func (p *DescribeTopicPartitionsResponsePartition) encode(pe packetEncoder) error {
	pe.putInt16(p.ErrorCode)
	pe.putInt32(p.PartitionIndex)
	pe.putInt32(p.LeaderID)
	pe.putInt32(p.LeaderEpoch)
	pe.putCompactInt32Array(p.ReplicaNodes)
	pe.putCompactInt32Array(p.IsrNodes)
	pe.putNullableCompactInt32Array(p.EligibleLeaderReplicas)
	pe.putNullableCompactInt32Array(p.LastKnownELR)
	pe.putCompactInt32Array(p.OfflineReplicas)
	pe.putEmptyTaggedFieldArray()
	return nil
}

func (p *DescribeTopicPartitionsResponsePartition) decode(pd packetDecoder) (err error) {
	if p.ErrorCode, err = pd.getInt16(); err != nil {
		return err
	}
	if p.PartitionIndex, err = pd.getInt32(); err != nil {
		return err
	}
	if p.LeaderID, err = pd.getInt32(); err != nil {
		return err
	}
	if p.LeaderEpoch, err = pd.getInt32(); err != nil {
		return err
	}
	if p.ReplicaNodes, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.IsrNodes, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.EligibleLeaderReplicas, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.LastKnownELR, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.OfflineReplicas, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// DescribeTopicPartitionsResponseTopic describes one requested topic.
type DescribeTopicPartitionsResponseTopic struct {
	// ErrorCode contains the topic-level error, or 0 if there was no error.
	ErrorCode int16
	// Name contains the topic name, nullable on the wire.
	Name *string
	// TopicID contains the topic id, all zeroes when the topic is unknown.
	TopicID uuid.UUID
	// IsInternal contains true if the topic is internal.
	IsInternal bool
	// Partitions contains each partition in the topic.
	Partitions []*DescribeTopicPartitionsResponsePartition
	// TopicAuthorizedOperations contains the 32-bit bitfield representing
	// the authorized operations for this topic.
	TopicAuthorizedOperations int32
}

func (t *DescribeTopicPartitionsResponseTopic) encode(pe packetEncoder) error {
	pe.putInt16(t.ErrorCode)
	pe.putNullableCompactString(t.Name)
	pe.putUUID(t.TopicID)
	pe.putBool(t.IsInternal)
	pe.putCompactArrayLength(len(t.Partitions))
	for _, p := range t.Partitions {
		if err := p.encode(pe); err != nil {
			return err
		}
	}
	pe.putInt32(t.TopicAuthorizedOperations)
	pe.putEmptyTaggedFieldArray()
	return nil
}

func (t *DescribeTopicPartitionsResponseTopic) decode(pd packetDecoder) (err error) {
	if t.ErrorCode, err = pd.getInt16(); err != nil {
		return err
	}
	if t.Name, err = pd.getCompactNullableString(); err != nil {
		return err
	}
	if t.TopicID, err = pd.getUUID(); err != nil {
		return err
	}
	if t.IsInternal, err = pd.getBool(); err != nil {
		return err
	}

	numPartitions, err := pd.getCompactArrayLength()
	if err != nil {
		return err
	}
	if numPartitions < 0 {
		return errNullField
	}
	t.Partitions = make([]*DescribeTopicPartitionsResponsePartition, numPartitions)
	for i := range t.Partitions {
		t.Partitions[i] = &DescribeTopicPartitionsResponsePartition{}
		if err := t.Partitions[i].decode(pd); err != nil {
			return err
		}
	}

	if t.TopicAuthorizedOperations, err = pd.getInt32(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// DescribeTopicPartitionsResponse is the v0 response to api key 75.
type DescribeTopicPartitionsResponse struct {
	// Version defines the protocol version to use for encode and decode
	Version int16
	// ThrottleTimeMs contains the duration in milliseconds for which the
	// request was throttled due to a quota violation, or zero if the request
	// did not violate any quota.
	ThrottleTimeMs int32
	// Topics contains each described topic.
	Topics []*DescribeTopicPartitionsResponseTopic
	// NextCursor contains the next topic and partition index to fetch
	// details for, nil when the description is complete.
	NextCursor *DescribeTopicPartitionsCursor
}

func (r *DescribeTopicPartitionsResponse) setVersion(v int16) {
	r.Version = v
}

func (r *DescribeTopicPartitionsResponse) encode(pe packetEncoder) error {
	pe.putInt32(r.ThrottleTimeMs)

	pe.putCompactArrayLength(len(r.Topics))
	for _, t := range r.Topics {
		if err := t.encode(pe); err != nil {
			return err
		}
	}

	if r.NextCursor == nil {
		pe.putInt8(-1)
	} else {
		pe.putInt8(0)
		if err := r.NextCursor.encode(pe); err != nil {
			return err
		}
	}

	pe.putEmptyTaggedFieldArray()
	return nil
}

func (r *DescribeTopicPartitionsResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
		return err
	}

	numTopics, err := pd.getCompactArrayLength()
	if err != nil {
		return err
	}
	if numTopics < 0 {
		return errNullField
	}
	r.Topics = make([]*DescribeTopicPartitionsResponseTopic, numTopics)
	for i := range r.Topics {
		r.Topics[i] = &DescribeTopicPartitionsResponseTopic{}
		if err := r.Topics[i].decode(pd); err != nil {
			return err
		}
	}

	present, err := pd.getInt8()
	if err != nil {
		return err
	}
	if present != -1 {
		r.NextCursor = &DescribeTopicPartitionsCursor{}
		if err := r.NextCursor.decode(pd); err != nil {
			return err
		}
	}

	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

func (r *DescribeTopicPartitionsResponse) key() int16 {
	return apiKeyDescribeTopicPartitions
}

func (r *DescribeTopicPartitionsResponse) version() int16 {
	return r.Version
}

func (r *DescribeTopicPartitionsResponse) isValidVersion() bool {
	return r.Version == 0
}
