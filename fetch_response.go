package kafkad

import (
	"time"

	"github.com/google/uuid"
)

// AbortedTransaction is one aborted-transaction marker of a fetch response
// partition.
type AbortedTransaction struct {
	// ProducerID contains the producer id associated with the aborted
	// transaction.
	ProducerID int64
	// FirstOffset contains the first offset in the aborted transaction.
	FirstOffset int64
}

func (t *AbortedTransaction) encode(pe packetEncoder, version int16) {
	pe.putInt64(t.ProducerID)
	pe.putInt64(t.FirstOffset)
	if version >= 12 {
		pe.putEmptyTaggedFieldArray()
	}
}

func (t *AbortedTransaction) decode(pd packetDecoder, version int16) (err error) {
	if t.ProducerID, err = pd.getInt64(); err != nil {
		return err
	}
	if t.FirstOffset, err = pd.getInt64(); err != nil {
		return err
	}
	if version >= 12 {
		if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
			return err
		}
	}
	return nil
}

// FetchResponseDivergingEpoch reports where the follower's log diverged
// from the leader's (tagged field 0 of a partition, v12+).
type FetchResponseDivergingEpoch struct {
	Epoch     int32
	EndOffset int64
}

func (d *FetchResponseDivergingEpoch) encode(pe packetEncoder) {
	pe.putInt32(d.Epoch)
	pe.putInt64(d.EndOffset)
	pe.putEmptyTaggedFieldArray()
}

func (d *FetchResponseDivergingEpoch) decode(pd packetDecoder) (err error) {
	if d.Epoch, err = pd.getInt32(); err != nil {
		return err
	}
	if d.EndOffset, err = pd.getInt64(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// FetchResponseCurrentLeader points the client at the partition's current
// leader (tagged field 1 of a partition, v12+).
type FetchResponseCurrentLeader struct {
	LeaderID    int32
	LeaderEpoch int32
}

func (l *FetchResponseCurrentLeader) encode(pe packetEncoder) {
	pe.putInt32(l.LeaderID)
	pe.putInt32(l.LeaderEpoch)
	pe.putEmptyTaggedFieldArray()
}

func (l *FetchResponseCurrentLeader) decode(pd packetDecoder) (err error) {
	if l.LeaderID, err = pd.getInt32(); err != nil {
		return err
	}
	if l.LeaderEpoch, err = pd.getInt32(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// FetchResponseSnapshotID names the snapshot a lagging follower must fetch
// (tagged field 2 of a partition, v12+).
type FetchResponseSnapshotID struct {
	EndOffset int64
	Epoch     int32
}

func (s *FetchResponseSnapshotID) encode(pe packetEncoder) {
	pe.putInt64(s.EndOffset)
	pe.putInt32(s.Epoch)
	pe.putEmptyTaggedFieldArray()
}

func (s *FetchResponseSnapshotID) decode(pd packetDecoder) (err error) {
	if s.EndOffset, err = pd.getInt64(); err != nil {
		return err
	}
	if s.Epoch, err = pd.getInt32(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// FetchResponseBlock is the per-partition payload of a fetch response. The
// records are carried as raw record-batch bytes: the broker is a byte pipe
// for log segments and never re-encodes what is on disk.
type FetchResponseBlock struct {
	// PartitionIndex contains the partition index.
	PartitionIndex int32
	// ErrorCode contains the partition-level error, or 0 if there was no
	// fetch error.
	ErrorCode int16
	// HighWatermark contains the current high water mark.
	HighWatermark int64
	// LastStableOffset contains the last stable offset (or LSO) of the
	// partition. This is the last offset such that the state of all
	// transactional records prior to this offset have been decided (ABORTED
	// or COMMITTED).
	LastStableOffset int64
	// LogStartOffset contains the current log start offset. Included for v5
	// and up.
	LogStartOffset int64
	// DivergingEpoch contains, in case divergence is detected based on the
	// last fetched epoch and offset, the largest epoch and its end offset
	// such that subsequent records are known to diverge. Tagged, v12+.
	DivergingEpoch *FetchResponseDivergingEpoch
	// CurrentLeader contains the current leader of the partition. Tagged,
	// v12+.
	CurrentLeader *FetchResponseCurrentLeader
	// SnapshotID contains the snapshot that the follower should fetch.
	// Tagged, v12+.
	SnapshotID *FetchResponseSnapshotID
	// AbortedTransactions contains the aborted transactions, nil when the
	// list is null on the wire.
	AbortedTransactions []*AbortedTransaction
	// PreferredReadReplica contains the preferred read replica for the
	// consumer to use on its next fetch request. Included for v11 and up,
	// -1 otherwise.
	PreferredReadReplica int32
	// RecordsSet contains the raw record-batch bytes for this partition,
	// nil when null on the wire.
	RecordsSet []byte
}

func (b *FetchResponseBlock) encode(pe packetEncoder, version int16) error {
	pe.putInt32(b.PartitionIndex)
	pe.putInt16(b.ErrorCode)
	pe.putInt64(b.HighWatermark)
	pe.putInt64(b.LastStableOffset)
	if version >= 5 {
		pe.putInt64(b.LogStartOffset)
	}

	if version >= 12 {
		if b.AbortedTransactions == nil {
			pe.putUVarint(0)
		} else {
			pe.putCompactArrayLength(len(b.AbortedTransactions))
			for _, t := range b.AbortedTransactions {
				t.encode(pe, version)
			}
		}
	} else {
		if b.AbortedTransactions == nil {
			pe.putInt32(-1)
		} else {
			if err := pe.putArrayLength(len(b.AbortedTransactions)); err != nil {
				return err
			}
			for _, t := range b.AbortedTransactions {
				t.encode(pe, version)
			}
		}
	}

	if version >= 11 {
		pe.putInt32(b.PreferredReadReplica)
	}

	if version >= 12 {
		pe.putNullableCompactBytes(b.RecordsSet)
	} else {
		if err := pe.putNullableBytes(b.RecordsSet); err != nil {
			return err
		}
	}

	if version >= 12 {
		var fields []taggedField
		if b.DivergingEpoch != nil {
			var buf encodeBuffer
			b.DivergingEpoch.encode(&buf)
			fields = append(fields, taggedField{key: 0, data: buf.bytes()})
		}
		if b.CurrentLeader != nil {
			var buf encodeBuffer
			b.CurrentLeader.encode(&buf)
			fields = append(fields, taggedField{key: 1, data: buf.bytes()})
		}
		if b.SnapshotID != nil {
			var buf encodeBuffer
			b.SnapshotID.encode(&buf)
			fields = append(fields, taggedField{key: 2, data: buf.bytes()})
		}
		pe.putTaggedFieldArray(fields)
	}
	return nil
}

func (b *FetchResponseBlock) decode(pd packetDecoder, version int16) (err error) {
	b.PreferredReadReplica = -1

	if b.PartitionIndex, err = pd.getInt32(); err != nil {
		return err
	}
	if b.ErrorCode, err = pd.getInt16(); err != nil {
		return err
	}
	if b.HighWatermark, err = pd.getInt64(); err != nil {
		return err
	}
	if b.LastStableOffset, err = pd.getInt64(); err != nil {
		return err
	}
	if version >= 5 {
		if b.LogStartOffset, err = pd.getInt64(); err != nil {
			return err
		}
	}

	var numTransact int
	if version >= 12 {
		numTransact, err = pd.getCompactArrayLength()
	} else {
		numTransact, err = pd.getArrayLength()
	}
	if err != nil {
		return err
	}
	if numTransact >= 0 {
		b.AbortedTransactions = make([]*AbortedTransaction, numTransact)
		for i := range b.AbortedTransactions {
			transact := &AbortedTransaction{}
			if err = transact.decode(pd, version); err != nil {
				return err
			}
			b.AbortedTransactions[i] = transact
		}
	}

	if version >= 11 {
		if b.PreferredReadReplica, err = pd.getInt32(); err != nil {
			return err
		}
	}

	if version >= 12 {
		if b.RecordsSet, err = pd.getCompactBytes(); err != nil {
			return err
		}
	} else {
		if b.RecordsSet, err = pd.getBytes(); err != nil {
			return err
		}
	}

	if version >= 12 {
		fields, err := pd.getTaggedFieldArray()
		if err != nil {
			return err
		}
		if data := taggedFieldData(fields, 0); data != nil {
			sub := &realDecoder{raw: data}
			b.DivergingEpoch = &FetchResponseDivergingEpoch{}
			if err = b.DivergingEpoch.decode(sub); err != nil {
				return err
			}
		}
		if data := taggedFieldData(fields, 1); data != nil {
			sub := &realDecoder{raw: data}
			b.CurrentLeader = &FetchResponseCurrentLeader{}
			if err = b.CurrentLeader.decode(sub); err != nil {
				return err
			}
		}
		if data := taggedFieldData(fields, 2); data != nil {
			sub := &realDecoder{raw: data}
			b.SnapshotID = &FetchResponseSnapshotID{}
			if err = b.SnapshotID.decode(sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordBatches parses the raw record set into its constituent batches.
func (b *FetchResponseBlock) RecordBatches() ([]*RecordBatch, error) {
	if b.RecordsSet == nil {
		return nil, nil
	}
	batches, consumed, err := decodeRecordBatches(b.RecordsSet)
	if err != nil {
		return nil, err
	}
	if consumed != len(b.RecordsSet) {
		return nil, ErrInsufficientData
	}
	return batches, nil
}

// FetchResponseTopic is the per-topic grouping of partition payloads.
type FetchResponseTopic struct {
	// Name identifies the topic through v12.
	Name string
	// TopicID identifies the topic from v13 on.
	TopicID uuid.UUID
	// Partitions contains the partition payloads.
	Partitions []*FetchResponseBlock
}

// NodeEndpoint is the host/port of one endpoint reported in the response's
// tagged field 0 (v16+).
type NodeEndpoint struct {
	// NodeID contains the ID of the associated node.
	NodeID int32
	// Host contains the node's hostname.
	Host string
	// Port contains the node's port.
	Port int32
	// Rack contains the rack of the node, or nil if it has not been assigned
	// to a rack.
	Rack *string
}

func (e *NodeEndpoint) encode(pe packetEncoder) {
	pe.putInt32(e.NodeID)
	pe.putCompactString(e.Host)
	pe.putInt32(e.Port)
	pe.putNullableCompactString(e.Rack)
	pe.putEmptyTaggedFieldArray()
}

func (e *NodeEndpoint) decode(pd packetDecoder) (err error) {
	if e.NodeID, err = pd.getInt32(); err != nil {
		return err
	}
	if e.Host, err = pd.getCompactString(); err != nil {
		return err
	}
	if e.Port, err = pd.getInt32(); err != nil {
		return err
	}
	if e.Rack, err = pd.getCompactNullableString(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// FetchResponse (API key 1) carries the log segment bytes for every
// requested topic partition.
type FetchResponse struct {
	// Version defines the protocol version to use for encode and decode
	Version int16
	// ThrottleTime contains the duration for which the request was throttled
	// due to a quota violation, or zero if the request did not violate any
	// quota.
	ThrottleTime time.Duration
	// ErrorCode contains the top-level response error code. Included for v7
	// and up.
	ErrorCode int16
	// SessionID contains the fetch session ID, or 0 if this is not part of a
	// fetch session. Included for v7 and up.
	SessionID int32
	// Responses contains the per-topic payloads, in request order.
	Responses []*FetchResponseTopic
	// NodeEndpoints contains the endpoints for all current leaders
	// enumerated in PartitionData, with errors NOT_LEADER_OR_FOLLOWER and
	// FENCED_LEADER_EPOCH (tagged field 0, v16+).
	NodeEndpoints []*NodeEndpoint
}

func (r *FetchResponse) setVersion(v int16) {
	r.Version = v
}

func (r *FetchResponse) encode(pe packetEncoder) (err error) {
	pe.putInt32(int32(r.ThrottleTime / time.Millisecond))
	if r.Version >= 7 {
		pe.putInt16(r.ErrorCode)
		pe.putInt32(r.SessionID)
	}

	if r.Version >= 12 {
		pe.putCompactArrayLength(len(r.Responses))
	} else {
		if err = pe.putArrayLength(len(r.Responses)); err != nil {
			return err
		}
	}
	for _, topic := range r.Responses {
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

	if r.Version >= 12 {
		var fields []taggedField
		if r.Version >= 16 && r.NodeEndpoints != nil {
			var buf encodeBuffer
			buf.putCompactArrayLength(len(r.NodeEndpoints))
			for _, e := range r.NodeEndpoints {
				e.encode(&buf)
			}
			fields = append(fields, taggedField{key: 0, data: buf.bytes()})
		}
		pe.putTaggedFieldArray(fields)
	}
	return nil
}

func (r *FetchResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	throttle, err := pd.getInt32()
	if err != nil {
		return err
	}
	r.ThrottleTime = time.Duration(throttle) * time.Millisecond

	if r.Version >= 7 {
		if r.ErrorCode, err = pd.getInt16(); err != nil {
			return err
		}
		if r.SessionID, err = pd.getInt32(); err != nil {
			return err
		}
	}

	numTopics, err := getNonNullableArrayLength(pd, r.Version, "responses")
	if err != nil {
		return err
	}
	r.Responses = make([]*FetchResponseTopic, numTopics)
	for i := range r.Responses {
		topic := &FetchResponseTopic{}
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
		topic.Partitions = make([]*FetchResponseBlock, numBlocks)
		for j := range topic.Partitions {
			block := &FetchResponseBlock{}
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
		r.Responses[i] = topic
	}

	if r.Version >= 12 {
		fields, err := pd.getTaggedFieldArray()
		if err != nil {
			return err
		}
		if r.Version >= 16 {
			if data := taggedFieldData(fields, 0); data != nil {
				sub := &realDecoder{raw: data}
				n, err := sub.getCompactArrayLength()
				if err != nil {
					return err
				}
				if n < 0 {
					return errNullField
				}
				r.NodeEndpoints = make([]*NodeEndpoint, n)
				for i := range r.NodeEndpoints {
					r.NodeEndpoints[i] = &NodeEndpoint{}
					if err := r.NodeEndpoints[i].decode(sub); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (r *FetchResponse) key() int16 {
	return apiKeyFetch
}

func (r *FetchResponse) version() int16 {
	return r.Version
}

func (r *FetchResponse) isValidVersion() bool {
	return r.Version >= 4 && r.Version <= 17
}
