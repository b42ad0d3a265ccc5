package kafkad

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A v16 fetch request for one partition of one topic, captured on the wire
// (size prefix included).
var fetchRequestV16Frame = []byte{
	0x00, 0x00, 0x00, 0x60, 0x00, 0x01, 0x00, 0x10, 0x4c, 0x1a, 0x89, 0x27, 0x00, 0x09, 0x6b, 0x61,
	0x66, 0x6b, 0x61, 0x2d, 0x63, 0x6c, 0x69, 0x00, 0x00, 0x00, 0x01, 0xf4, 0x00, 0x00, 0x00, 0x01,
	0x03, 0x20, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x86, 0x02, 0x00,
	0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x10, 0x00, 0x00, 0x00,
	0x00, 0x01, 0x01, 0x00,
}

// A v16 fetch response (size prefix and v1 response header included) whose
// first partition carries two record batches and whose second carries none.
var fetchResponseV16Frame = []byte{
	0x00, 0x00, 0x01, 0x15, 0x76, 0x3b, 0x25, 0x54, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x80, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x30, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0x00, 0xff, 0xff, 0xff, 0xff, 0xa8, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x44, 0x00, 0x00, 0x00, 0x00, 0x02, 0xab, 0xfd, 0x04, 0x91, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x91, 0xe0, 0x5b, 0x6d, 0x8b, 0x00, 0x00, 0x01,
	0x91, 0xe0, 0x5b, 0x6d, 0x8b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x24, 0x00, 0x00, 0x00, 0x01, 0x18, 0x48, 0x65, 0x6c,
	0x6c, 0x6f, 0x20, 0x4b, 0x61, 0x66, 0x6b, 0x61, 0x21, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x10, 0x00, 0x00, 0x00, 0x4b, 0x00, 0x00, 0x00, 0x00, 0x02, 0x55, 0x60, 0x53, 0x93, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x91, 0xe0, 0x5b, 0x6d, 0x8b, 0x00, 0x00, 0x01,
	0x91, 0xe0, 0x5b, 0x6d, 0x8b, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x32, 0x00, 0x00, 0x00, 0x01, 0x26, 0x48, 0x65, 0x6c,
	0x6c, 0x6f, 0x20, 0x43, 0x6f, 0x64, 0x65, 0x43, 0x72, 0x61, 0x66, 0x74, 0x65, 0x72, 0x73, 0x21,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0x00, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00,
}

func TestFetchRequestV16Decode(t *testing.T) {
	rd := &realDecoder{raw: fetchRequestV16Frame}
	size, err := rd.getInt32()
	require.NoError(t, err)
	assert.Equal(t, rd.remaining(), int(size))

	req := &request{}
	require.NoError(t, req.decode(rd))
	assert.Equal(t, 0, rd.remaining())

	assert.Equal(t, apiKeyFetch, req.apiKey)
	assert.Equal(t, int16(16), req.apiVersion)
	assert.Equal(t, int32(0x4c1a8927), req.correlationID)
	require.NotNil(t, req.clientID)
	assert.Equal(t, "kafka-cli", *req.clientID)

	body, ok := req.body.(*FetchRequest)
	require.True(t, ok)
	assert.Equal(t, int32(-1), body.ReplicaID)
	assert.Equal(t, int32(500), body.MaxWaitTime)
	assert.Equal(t, int32(1), body.MinBytes)
	assert.Equal(t, int32(0x03200000), body.MaxBytes)
	assert.Equal(t, ReadUncommitted, body.Isolation)
	assert.Equal(t, int32(0), body.SessionID)
	assert.Equal(t, int32(0), body.SessionEpoch)
	require.Len(t, body.Topics, 1)
	assert.Equal(t, uuid.MustParse("00000000-0000-4000-8000-000000000086"), body.Topics[0].TopicID)
	require.Len(t, body.Topics[0].Partitions, 1)
	block := body.Topics[0].Partitions[0]
	assert.Equal(t, int32(0), block.partitionID)
	assert.Equal(t, int32(-1), block.currentLeaderEpoch)
	assert.Equal(t, int64(0), block.fetchOffset)
	assert.Equal(t, int32(-1), block.lastFetchedEpoch)
	assert.Equal(t, int64(-1), block.logStartOffset)
	assert.Equal(t, int32(0x00100000), block.maxBytes)
	assert.Empty(t, body.Forgotten)
	assert.Equal(t, "", body.RackID)
}

func TestFetchResponseV16Decode(t *testing.T) {
	rd := &realDecoder{raw: fetchResponseV16Frame}

	header := &responseHeader{}
	require.NoError(t, header.decode(rd, 1))
	assert.Equal(t, int32(0x763b2554), header.correlationID)

	resp := &FetchResponse{}
	require.NoError(t, resp.decode(rd, 16))
	assert.Equal(t, 0, rd.remaining())

	assert.Equal(t, int16(0), resp.ErrorCode)
	assert.Equal(t, int32(0), resp.SessionID)
	require.Len(t, resp.Responses, 1)
	require.Len(t, resp.Responses[0].Partitions, 2)

	first := resp.Responses[0].Partitions[0]
	assert.Equal(t, int32(0), first.PartitionIndex)
	assert.Equal(t, int16(0), first.ErrorCode)
	require.NotNil(t, first.RecordsSet)

	batches, err := first.RecordBatches()
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Len(t, batches[0].Records, 1)
	assert.Equal(t, "Hello Kafka!", string(batches[0].Records[0].Value))
	require.Len(t, batches[1].Records, 1)
	assert.Equal(t, "Hello CodeCrafters!", string(batches[1].Records[0].Value))

	second := resp.Responses[0].Partitions[1]
	assert.Equal(t, int32(1), second.PartitionIndex)
	assert.Nil(t, second.RecordsSet)
}

func TestFetchRequestRoundTrips(t *testing.T) {
	clusterID := "ci"
	for _, version := range []int16{4, 5, 7, 9, 11, 12, 13, 15, 16, 17} {
		req := &FetchRequest{
			Version:      version,
			ReplicaID:    -1,
			MaxWaitTime:  500,
			MinBytes:     1,
			MaxBytes:     1 << 20,
			Isolation:    ReadCommitted,
			SessionID:    9,
			SessionEpoch: 2,
		}
		req.AddBlock("foo", testTopicID, 0, 42, 4096, 5)
		req.AddBlock("foo", testTopicID, 1, 0, 4096, 5)
		if version >= 7 {
			req.Forgotten = []*fetchRequestForgottenTopic{
				{Name: "bar", TopicID: testTopicID2, Partitions: []int32{3}},
			}
		}
		if version >= 11 {
			req.RackID = "rack-1"
		}
		if version >= 12 {
			req.ClusterID = &clusterID
		}
		if version >= 15 {
			req.ReplicaState = &FetchReplicaState{ReplicaID: 4, ReplicaEpoch: 7}
		}

		testVersionedRoundTrip(t, fmt.Sprintf("fetch request v%d", version), req, &FetchRequest{}, version)
	}
}

func TestFetchResponseRoundTrips(t *testing.T) {
	records := mustEncode(t, exampleBatch(CompressionNone))
	rack := "r1"

	for _, version := range []int16{4, 5, 7, 11, 12, 13, 16, 17} {
		resp := &FetchResponse{
			Version:   version,
			ErrorCode: 0,
			SessionID: 77,
			Responses: []*FetchResponseTopic{
				{
					Name:    "foo",
					TopicID: testTopicID,
					Partitions: []*FetchResponseBlock{
						{
							PartitionIndex:       0,
							HighWatermark:        10,
							LastStableOffset:     -1,
							LogStartOffset:       -1,
							PreferredReadReplica: -1,
							RecordsSet:           records,
							AbortedTransactions: []*AbortedTransaction{
								{ProducerID: 4, FirstOffset: 0},
							},
						},
						{
							PartitionIndex:       1,
							ErrorCode:            int16(ErrUnknownTopicID),
							LastStableOffset:     -1,
							LogStartOffset:       -1,
							PreferredReadReplica: -1,
						},
					},
				},
			},
		}
		if version >= 12 {
			resp.Responses[0].Partitions[0].DivergingEpoch = &FetchResponseDivergingEpoch{Epoch: 1, EndOffset: 5}
			resp.Responses[0].Partitions[0].CurrentLeader = &FetchResponseCurrentLeader{LeaderID: 3, LeaderEpoch: 8}
			resp.Responses[0].Partitions[0].SnapshotID = &FetchResponseSnapshotID{EndOffset: 9, Epoch: 2}
		}
		if version >= 16 {
			resp.NodeEndpoints = []*NodeEndpoint{
				{NodeID: 1, Host: "localhost", Port: 9092, Rack: &rack},
			}
		}

		testVersionedRoundTrip(t, fmt.Sprintf("fetch response v%d", version), resp, &FetchResponse{}, version)
	}
}
