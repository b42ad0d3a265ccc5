package kafkad

// DescribeTopicPartitionsCursor marks where a paginated description left
// off. Carried in both the request and the response as a nullable record.
type DescribeTopicPartitionsCursor struct {
	// TopicName contains the name for the first topic to process.
	TopicName string
	// PartitionIndex contains the partition index to start at.
	PartitionIndex int32
}

func (c *DescribeTopicPartitionsCursor) encode(pe packetEncoder) error {
	pe.putCompactString(c.TopicName)
	pe.putInt32(c.PartitionIndex)
	pe.putEmptyTaggedFieldArray()
	return nil
}

func (c *DescribeTopicPartitionsCursor) decode(pd packetDecoder) (err error) {
	if c.TopicName, err = pd.getCompactString(); err != nil {
		return err
	}
	if c.PartitionIndex, err = pd.getInt32(); err != nil {
		return err
	}
	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

// DescribeTopicPartitionsRequestTopic names one topic to describe.
type DescribeTopicPartitionsRequestTopic struct {
	Name string
}

// DescribeTopicPartitionsRequest (api key 75) asks for topic and partition
// metadata by topic name.
type DescribeTopicPartitionsRequest struct {
	// Version defines the protocol version to use for encode and decode
	Version int16
	// Topics contains the topics to fetch details for.
	Topics []DescribeTopicPartitionsRequestTopic
	// ResponsePartitionLimit contains the maximum number of partitions
	// included in the response.
	ResponsePartitionLimit int32
	// Cursor contains the first topic and partition index to fetch details
	// for, or nil to start from the beginning.
	Cursor *DescribeTopicPartitionsCursor
}

func (r *DescribeTopicPartitionsRequest) setVersion(v int16) {
	r.Version = v
}

func (r *DescribeTopicPartitionsRequest) encode(pe packetEncoder) error {
	pe.putCompactArrayLength(len(r.Topics))
	for i := range r.Topics {
		pe.putCompactString(r.Topics[i].Name)
		pe.putEmptyTaggedFieldArray()
	}

	pe.putInt32(r.ResponsePartitionLimit)

	if r.Cursor == nil {
		pe.putInt8(-1)
	} else {
		pe.putInt8(0)
		if err := r.Cursor.encode(pe); err != nil {
			return err
		}
	}

	pe.putEmptyTaggedFieldArray()
	return nil
}

func (r *DescribeTopicPartitionsRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	numTopics, err := pd.getCompactArrayLength()
	if err != nil {
		return err
	}
	if numTopics < 0 {
		return PacketDecodingError{"non-nullable field topics was serialized as null"}
	}
	r.Topics = make([]DescribeTopicPartitionsRequestTopic, numTopics)
	for i := range r.Topics {
		if r.Topics[i].Name, err = pd.getCompactString(); err != nil {
			return err
		}
		if _, err = pd.getEmptyTaggedFieldArray(); err != nil {
			return err
		}
	}

	if r.ResponsePartitionLimit, err = pd.getInt32(); err != nil {
		return err
	}

	present, err := pd.getInt8()
	if err != nil {
		return err
	}
	if present != -1 {
		r.Cursor = &DescribeTopicPartitionsCursor{}
		if err := r.Cursor.decode(pd); err != nil {
			return err
		}
	}

	_, err = pd.getEmptyTaggedFieldArray()
	return err
}

func (r *DescribeTopicPartitionsRequest) key() int16 {
	return apiKeyDescribeTopicPartitions
}

func (r *DescribeTopicPartitionsRequest) version() int16 {
	return r.Version
}

func (r *DescribeTopicPartitionsRequest) isValidVersion() bool {
	return r.Version == 0
}
