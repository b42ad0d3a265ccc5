package kafkad

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeTopicPartitionsRequestRoundTrips(t *testing.T) {
	plain := &DescribeTopicPartitionsRequest{
		Version:                0,
		Topics:                 []DescribeTopicPartitionsRequestTopic{{Name: "foo"}, {Name: "bar"}},
		ResponsePartitionLimit: 100,
	}
	testVersionedRoundTrip(t, "describe request", plain, &DescribeTopicPartitionsRequest{}, 0)

	withCursor := &DescribeTopicPartitionsRequest{
		Version:                0,
		Topics:                 []DescribeTopicPartitionsRequestTopic{{Name: "foo"}},
		ResponsePartitionLimit: 1,
		Cursor:                 &DescribeTopicPartitionsCursor{TopicName: "foo", PartitionIndex: 1},
	}
	testVersionedRoundTrip(t, "describe request with cursor", withCursor, &DescribeTopicPartitionsRequest{}, 0)
}

func TestDescribeTopicPartitionsRequestGolden(t *testing.T) {
	// one topic named "abc", partition limit 100, no cursor
	raw := []byte{
		0x02,
		0x04, 'a', 'b', 'c', 0x00,
		0x00, 0x00, 0x00, 0x64,
		0xff,
		0x00,
	}
	req := &DescribeTopicPartitionsRequest{}
	require.NoError(t, versionedDecode(raw, req, 0))
	require.Len(t, req.Topics, 1)
	assert.Equal(t, "abc", req.Topics[0].Name)
	assert.Equal(t, int32(100), req.ResponsePartitionLimit)
	assert.Nil(t, req.Cursor)

	testEncodable(t, "describe request golden", req, raw)
}

func TestDescribeTopicPartitionsResponseRoundTrips(t *testing.T) {
	name := "foo"
	resp := &DescribeTopicPartitionsResponse{
		Version: 0,
		Topics: []*DescribeTopicPartitionsResponseTopic{
			{
				ErrorCode:                 0,
				Name:                      &name,
				TopicID:                   testTopicID,
				Partitions:                []*DescribeTopicPartitionsResponsePartition{
					{
						PartitionIndex:         0,
						LeaderID:               1,
						LeaderEpoch:            0,
						ReplicaNodes:           []int32{1},
						IsrNodes:               []int32{1},
						EligibleLeaderReplicas: []int32{1},
						LastKnownELR:           nil,
					},
				},
				TopicAuthorizedOperations: describedTopicAuthorizedOperations,
			},
			{
				ErrorCode:                 int16(ErrUnknownTopicOrPartition),
				Name:                      nil,
				TopicID:                   uuid.Nil,
				TopicAuthorizedOperations: describedTopicAuthorizedOperations,
			},
		},
		NextCursor: &DescribeTopicPartitionsCursor{TopicName: "foo", PartitionIndex: 1},
	}
	testVersionedRoundTrip(t, "describe response", resp, &DescribeTopicPartitionsResponse{}, 0)
}

func TestHandleDescribeTopicPartitionsUnknownTopic(t *testing.T) {
	md := &ClusterMetadata{topics: map[uuid.UUID]*Topic{}}
	req := &DescribeTopicPartitionsRequest{
		Topics: []DescribeTopicPartitionsRequestTopic{{Name: "nope"}},
	}

	resp := handleDescribeTopicPartitions(req, md, nil)
	require.Len(t, resp.Topics, 1)
	topic := resp.Topics[0]
	assert.Equal(t, int16(ErrUnknownTopicOrPartition), topic.ErrorCode)
	require.NotNil(t, topic.Name)
	assert.Equal(t, "nope", *topic.Name)
	assert.Equal(t, uuid.Nil, topic.TopicID)
	assert.Empty(t, topic.Partitions)
	assert.Equal(t, int32(0x0df8), topic.TopicAuthorizedOperations)
	assert.Nil(t, resp.NextCursor)
	assert.Equal(t, int32(0), resp.ThrottleTimeMs)
}

func TestHandleDescribeTopicPartitionsKnownTopic(t *testing.T) {
	md := &ClusterMetadata{topics: map[uuid.UUID]*Topic{
		testTopicID: {
			ID:   testTopicID,
			Name: "foo",
			Partitions: []*Partition{
				{ID: 0, Leader: 1, LeaderEpoch: 0, Replicas: []int32{1}, Isr: []int32{1}},
				{ID: 1, Leader: 2, LeaderEpoch: 3, Replicas: []int32{1, 2}, Isr: []int32{2}},
			},
		},
	}}
	req := &DescribeTopicPartitionsRequest{
		Topics: []DescribeTopicPartitionsRequestTopic{{Name: "foo"}},
	}

	resp := handleDescribeTopicPartitions(req, md, nil)
	require.Len(t, resp.Topics, 1)
	topic := resp.Topics[0]
	assert.Equal(t, int16(0), topic.ErrorCode)
	assert.Equal(t, testTopicID, topic.TopicID)
	assert.False(t, topic.IsInternal)
	require.Len(t, topic.Partitions, 2)
	assert.Equal(t, int32(0), topic.Partitions[0].PartitionIndex)
	assert.Equal(t, int32(1), topic.Partitions[0].LeaderID)
	assert.Equal(t, int32(1), topic.Partitions[1].PartitionIndex)
	assert.Equal(t, int32(2), topic.Partitions[1].LeaderID)
	assert.Equal(t, []int32{2}, topic.Partitions[1].IsrNodes)
	assert.Empty(t, topic.Partitions[1].OfflineReplicas)
}

func TestHandleDescribeTopicPartitionsMetadataFailure(t *testing.T) {
	req := &DescribeTopicPartitionsRequest{
		Topics: []DescribeTopicPartitionsRequestTopic{{Name: "foo"}},
	}
	resp := handleDescribeTopicPartitions(req, nil, assert.AnError)
	require.Len(t, resp.Topics, 1)
	assert.Equal(t, int16(ErrKafkaStorageError), resp.Topics[0].ErrorCode)
}
