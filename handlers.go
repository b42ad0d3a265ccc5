package kafkad

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eapache/go-resiliency/breaker"
)

// segmentSource reads partition log segments for fetch responses. A circuit
// breaker guards the reads so that a failing disk degrades into per-partition
// storage errors instead of a file open per request.
type segmentSource struct {
	dir string
	br  *breaker.Breaker
}

func newSegmentSource(dir string) *segmentSource {
	return &segmentSource{
		dir: dir,
		br:  breaker.New(3, 1, 10*time.Second),
	}
}

func (s *segmentSource) read(topic string, partition int32) ([]byte, error) {
	var data []byte
	err := s.br.Run(func() (err error) {
		path := filepath.Join(s.dir, fmt.Sprintf("%s-%d", topic, partition), SegmentFileName)
		data, err = os.ReadFile(path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// handleAPIVersions answers with the static api table. The version must
// already be validated by the dispatcher; out-of-range versions short-circuit
// to an error response there without touching this handler.
func handleAPIVersions(req *ApiVersionsRequest) *ApiVersionsResponse {
	return &ApiVersionsResponse{
		Version:        req.Version,
		ErrorCode:      int16(ErrNoError),
		ApiKeys:        supportedAPIKeys(),
		ThrottleTimeMs: 0,
	}
}

// handleDescribeTopicPartitions resolves each requested topic by name
// against the catalog.
func handleDescribeTopicPartitions(req *DescribeTopicPartitionsRequest, md *ClusterMetadata, mdErr error) *DescribeTopicPartitionsResponse {
	resp := &DescribeTopicPartitionsResponse{
		Version: req.Version,
		Topics:  make([]*DescribeTopicPartitionsResponseTopic, 0, len(req.Topics)),
	}

	for i := range req.Topics {
		name := req.Topics[i].Name
		block := &DescribeTopicPartitionsResponseTopic{
			Name:                      &name,
			TopicAuthorizedOperations: describedTopicAuthorizedOperations,
		}

		switch {
		case mdErr != nil:
			block.ErrorCode = int16(ErrKafkaStorageError)
		default:
			topic := md.TopicByName(name)
			if topic == nil {
				block.ErrorCode = int16(ErrUnknownTopicOrPartition)
				break
			}
			block.TopicID = topic.ID
			for _, p := range topic.Partitions {
				block.Partitions = append(block.Partitions, &DescribeTopicPartitionsResponsePartition{
					ErrorCode:              int16(ErrNoError),
					PartitionIndex:         p.ID,
					LeaderID:               p.Leader,
					LeaderEpoch:            p.LeaderEpoch,
					ReplicaNodes:           p.Replicas,
					IsrNodes:               p.Isr,
					EligibleLeaderReplicas: p.EligibleLeaderReplicas,
					LastKnownELR:           p.LastKnownELR,
				})
			}
		}

		resp.Topics = append(resp.Topics, block)
	}

	return resp
}

// handleFetch resolves each requested topic (by name through v12, by id from
// v13) and returns the raw on-disk record batches of every partition the
// catalog knows for it. The server is a byte pipe: segment contents are never
// re-encoded.
func handleFetch(req *FetchRequest, md *ClusterMetadata, mdErr error, segments *segmentSource) *FetchResponse {
	resp := &FetchResponse{
		Version:   req.Version,
		ErrorCode: int16(ErrNoError),
		SessionID: 0,
		Responses: make([]*FetchResponseTopic, 0, len(req.Topics)),
	}

	for _, topicReq := range req.Topics {
		topicResp := &FetchResponseTopic{
			Name:    topicReq.Name,
			TopicID: topicReq.TopicID,
		}

		var topic *Topic
		if mdErr == nil {
			if req.Version >= 13 {
				topic = md.TopicByID(topicReq.TopicID)
			} else {
				topic = md.TopicByName(topicReq.Name)
			}
		}

		switch {
		case mdErr != nil:
			topicResp.Partitions = []*FetchResponseBlock{stubFetchBlock(0, ErrKafkaStorageError)}
		case topic == nil:
			topicResp.Partitions = []*FetchResponseBlock{stubFetchBlock(0, ErrUnknownTopicID)}
		default:
			for _, p := range topic.Partitions {
				block := stubFetchBlock(p.ID, ErrNoError)
				records, err := segments.read(topic.Name, p.ID)
				if err != nil {
					block.ErrorCode = int16(ErrKafkaStorageError)
				} else {
					block.RecordsSet = records
				}
				topicResp.Partitions = append(topicResp.Partitions, block)
			}
		}

		resp.Responses = append(resp.Responses, topicResp)
	}

	return resp
}

func stubFetchBlock(partition int32, kerr KError) *FetchResponseBlock {
	return &FetchResponseBlock{
		PartitionIndex:       partition,
		ErrorCode:            int16(kerr),
		HighWatermark:        0,
		LastStableOffset:     -1,
		LogStartOffset:       -1,
		PreferredReadReplica: -1,
	}
}
