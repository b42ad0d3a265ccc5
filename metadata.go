package kafkad

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Partition is one partition of a topic as recorded in the cluster metadata
// log.
type Partition struct {
	ID                     int32
	Leader                 int32
	LeaderEpoch            int32
	Replicas               []int32
	Isr                    []int32
	EligibleLeaderReplicas []int32
	LastKnownELR           []int32
}

// Topic is a topic known to the cluster, with its partitions in the order
// their records appeared in the metadata log.
type Topic struct {
	ID         uuid.UUID
	Name       string
	Partitions []*Partition
}

// ClusterMetadata is the read-only catalog of topics recovered from the
// cluster metadata log. It is built once and never mutated afterwards, so it
// is safe to share across connections without locks.
type ClusterMetadata struct {
	topics map[uuid.UUID]*Topic
}

// TopicByID looks a topic up by its id.
func (m *ClusterMetadata) TopicByID(id uuid.UUID) *Topic {
	return m.topics[id]
}

// TopicByName looks a topic up by exact, case-sensitive name.
func (m *ClusterMetadata) TopicByName(name string) *Topic {
	for _, t := range m.topics {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Topics returns the number of known topics.
func (m *ClusterMetadata) Topics() int {
	return len(m.topics)
}

// loadClusterMetadata reads the cluster metadata log segment under dir and
// folds its topic and partition records into a catalog.
func loadClusterMetadata(dir string) (*ClusterMetadata, error) {
	path := filepath.Join(dir, ClusterMetadataTopicName+"-0", SegmentFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	md := &ClusterMetadata{topics: make(map[uuid.UUID]*Topic)}

	// Read in chunks, consuming as many complete batches as each extension
	// allows and carrying the partial tail into the next read.
	var (
		buf   []byte
		chunk = make([]byte, 8*1024)
	)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			batches, consumed, err := decodeRecordBatches(buf)
			if err != nil {
				return nil, err
			}
			for _, batch := range batches {
				if err := md.applyBatch(batch); err != nil {
					return nil, err
				}
			}
			buf = buf[consumed:]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	if len(buf) > 0 {
		return nil, PacketDecodingError{fmt.Sprintf("truncated record batch at end of metadata log (%d bytes)", len(buf))}
	}

	return md, nil
}

func (m *ClusterMetadata) applyBatch(batch *RecordBatch) error {
	if batch.Control {
		return nil
	}

	for _, rec := range batch.Records {
		if rec.Value == nil {
			continue
		}

		var value metadataValue
		rd := &realDecoder{raw: rec.Value}
		if err := value.decode(rd); err != nil {
			return err
		}

		switch value.recordType {
		case metadataRecordTopic:
			var tr topicRecord
			if err := versionedDecode(value.data, &tr, int16(value.recordVersion)); err != nil {
				return err
			}
			m.topics[tr.TopicID] = &Topic{ID: tr.TopicID, Name: tr.Name}

		case metadataRecordPartition:
			var pr partitionRecord
			if err := versionedDecode(value.data, &pr, int16(value.recordVersion)); err != nil {
				return err
			}
			topic := m.topics[pr.TopicID]
			if topic == nil {
				// partition record for a topic we never saw; skip it
				continue
			}
			topic.Partitions = append(topic.Partitions, &Partition{
				ID:                     pr.PartitionID,
				Leader:                 pr.Leader,
				LeaderEpoch:            pr.LeaderEpoch,
				Replicas:               pr.Replicas,
				Isr:                    pr.Isr,
				EligibleLeaderReplicas: pr.EligibleLeaderReplicas,
				LastKnownELR:           pr.LastKnownELR,
			})

		default:
			// other metadata record types are irrelevant to serving
		}
	}
	return nil
}
