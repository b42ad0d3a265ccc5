package kafkad

import (
	"fmt"

	"github.com/google/uuid"
)

// Metadata record types carried in the cluster metadata log, as tagged by
// the type byte of the record value frame.
const (
	metadataRecordTopic     uint8 = 2
	metadataRecordPartition uint8 = 3
)

// metadataValue is the frame every cluster-metadata record value starts
// with: a frame version, the record type, the record version, and the
// type-specific payload.
type metadataValue struct {
	frameVersion  uint8
	recordType    uint8
	recordVersion uint8
	data          []byte
}

func (v *metadataValue) decode(pd packetDecoder) error {
	frameVersion, err := pd.getInt8()
	if err != nil {
		return err
	}
	recordType, err := pd.getInt8()
	if err != nil {
		return err
	}
	recordVersion, err := pd.getInt8()
	if err != nil {
		return err
	}
	data, err := pd.getRawBytes(pd.remaining())
	if err != nil {
		return err
	}

	v.frameVersion = uint8(frameVersion)
	v.recordType = uint8(recordType)
	v.recordVersion = uint8(recordVersion)
	v.data = data
	return nil
}

func (v *metadataValue) encode(pe packetEncoder) error {
	pe.putInt8(int8(v.frameVersion))
	pe.putInt8(int8(v.recordType))
	pe.putInt8(int8(v.recordVersion))
	pe.putRawBytes(v.data)
	return nil
}

// topicRecord registers a topic name and its id (metadata type 2, v0).
type topicRecord struct {
	Name    string
	TopicID uuid.UUID
}

func (t *topicRecord) decode(pd packetDecoder, version int16) (err error) {
	if version != 0 {
		return PacketDecodingError{fmt.Sprintf("unsupported topic record version (%d)", version)}
	}

	if t.Name, err = pd.getCompactString(); err != nil {
		return err
	}
	if t.TopicID, err = pd.getUUID(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

func (t *topicRecord) encode(pe packetEncoder) error {
	pe.putCompactString(t.Name)
	pe.putUUID(t.TopicID)
	pe.putEmptyTaggedFieldArray()
	return nil
}

// partitionRecord registers one partition of a previously registered topic
// (metadata type 3, v0-v2). Leader recovery state and the ELR sets arrive as
// tagged fields.
type partitionRecord struct {
	PartitionID            int32
	TopicID                uuid.UUID
	Replicas               []int32
	Isr                    []int32
	RemovingReplicas       []int32
	AddingReplicas         []int32
	Leader                 int32
	LeaderEpoch            int32
	PartitionEpoch         int32
	Directories            []uuid.UUID
	LeaderRecoveryState    uint8
	EligibleLeaderReplicas []int32
	LastKnownELR           []int32
}

func (p *partitionRecord) decode(pd packetDecoder, version int16) (err error) {
	if version < 0 || version > 2 {
		return PacketDecodingError{fmt.Sprintf("unsupported partition record version (%d)", version)}
	}

	if p.PartitionID, err = pd.getInt32(); err != nil {
		return err
	}
	if p.TopicID, err = pd.getUUID(); err != nil {
		return err
	}
	if p.Replicas, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.Isr, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.RemovingReplicas, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.AddingReplicas, err = pd.getCompactInt32Array(); err != nil {
		return err
	}
	if p.Leader, err = pd.getInt32(); err != nil {
		return err
	}
	if p.LeaderEpoch, err = pd.getInt32(); err != nil {
		return err
	}
	if p.PartitionEpoch, err = pd.getInt32(); err != nil {
		return err
	}
	if version >= 1 {
		if p.Directories, err = pd.getCompactUUIDArray(); err != nil {
			return err
		}
	}

	fields, err := pd.getTaggedFieldArray()
	if err != nil {
		return err
	}
	for _, tf := range fields {
		sub := &realDecoder{raw: tf.data}
		switch tf.key {
		case 0:
			state, err := sub.getInt8()
			if err != nil {
				return err
			}
			p.LeaderRecoveryState = uint8(state)
		case 1:
			if version >= 2 {
				if p.EligibleLeaderReplicas, err = sub.getCompactInt32Array(); err != nil {
					return err
				}
			}
		case 2:
			if version >= 2 {
				if p.LastKnownELR, err = sub.getCompactInt32Array(); err != nil {
					return err
				}
			}
		default:
			// unknown tags are ignored, not an error
		}
	}
	return nil
}

func (p *partitionRecord) encode(pe packetEncoder, version int16) error {
	pe.putInt32(p.PartitionID)
	pe.putUUID(p.TopicID)
	pe.putCompactInt32Array(p.Replicas)
	pe.putCompactInt32Array(p.Isr)
	pe.putCompactInt32Array(p.RemovingReplicas)
	pe.putCompactInt32Array(p.AddingReplicas)
	pe.putInt32(p.Leader)
	pe.putInt32(p.LeaderEpoch)
	pe.putInt32(p.PartitionEpoch)
	if version >= 1 {
		pe.putCompactUUIDArray(p.Directories)
	}

	var fields []taggedField

	var lrs encodeBuffer
	lrs.putInt8(int8(p.LeaderRecoveryState))
	fields = append(fields, taggedField{key: 0, data: lrs.bytes()})

	if version >= 2 {
		var elr encodeBuffer
		elr.putNullableCompactInt32Array(p.EligibleLeaderReplicas)
		fields = append(fields, taggedField{key: 1, data: elr.bytes()})

		var lastKnown encodeBuffer
		lastKnown.putNullableCompactInt32Array(p.LastKnownELR)
		fields = append(fields, taggedField{key: 2, data: lastKnown.bytes()})
	}

	pe.putTaggedFieldArray(fields)
	return nil
}
