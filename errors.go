package kafkad

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when decoding and the packet is truncated.
// This can be expected when requesting messages, since as an optimization the
// server is allowed to return a partial message at the end of the message set.
var ErrInsufficientData = errors.New("kafka: insufficient data to decode packet, more bytes expected")

// ErrUnknownAPIKey is returned when a request names an api key the server has
// no handler for. The connection is closed because no response shape is
// defined for a request that cannot be routed.
var ErrUnknownAPIKey = errors.New("kafka: unknown api key, closing connection")

// ErrBrokerClosed is returned from Serve after Close has been called.
var ErrBrokerClosed = errors.New("kafka: broker closed")

// PacketEncodingError is returned from a failure while encoding a Kafka
// packet. This can happen, for example, if you try to encode a string over
// 2^15 characters in length, since Kafka's encoding fields use int16 in some
// cases.
type PacketEncodingError struct {
	Info string
}

func (err PacketEncodingError) Error() string {
	return fmt.Sprintf("kafka: error encoding packet: %s", err.Info)
}

// PacketDecodingError is returned when there was an error (other than
// truncated data) decoding a Kafka packet. This can be a bad
// CRC, a null in a non-nullable field, or any other invalid value.
type PacketDecodingError struct {
	Info string
}

func (err PacketDecodingError) Error() string {
	return fmt.Sprintf("kafka: error decoding packet: %s", err.Info)
}

// ConfigurationError is the type of error reported by Config.Validate (and
// so by NewBroker) when the specified configuration is invalid.
type ConfigurationError string

func (err ConfigurationError) Error() string {
	return "kafka: invalid configuration (" + string(err) + ")"
}

// KError is the type of error that can be returned directly by the Kafka
// protocol in the error_code field of a response.
type KError int16

// Numeric error codes from the Kafka protocol.
const (
	ErrUnknown                  KError = -1
	ErrNoError                  KError = 0
	ErrOffsetOutOfRange         KError = 1
	ErrInvalidMessage           KError = 2
	ErrUnknownTopicOrPartition  KError = 3
	ErrInvalidMessageSize       KError = 4
	ErrLeaderNotAvailable       KError = 5
	ErrNotLeaderForPartition    KError = 6
	ErrRequestTimedOut          KError = 7
	ErrBrokerNotAvailable       KError = 8
	ErrReplicaNotAvailable      KError = 9
	ErrMessageSizeTooLarge      KError = 10
	ErrNetworkException         KError = 13
	ErrInvalidTopic             KError = 17
	ErrMessageSetSizeTooLarge   KError = 18
	ErrTopicAuthorizationFailed KError = 29
	ErrUnsupportedVersion       KError = 35
	ErrInvalidRequest           KError = 42
	ErrKafkaStorageError        KError = 56
	ErrFetchSessionIDNotFound   KError = 70
	ErrInvalidFetchSessionEpoch KError = 71
	ErrUnsupportedCompression   KError = 76
	ErrUnknownLeaderEpoch       KError = 75
	ErrFencedLeaderEpoch        KError = 74
	ErrOffsetNotAvailable       KError = 78
	ErrUnknownTopicID           KError = 100
)

func (err KError) Error() string {
	// Error messages stay close to the official descriptions at
	// https://kafka.apache.org/protocol.html#protocol_error_codes
	switch err {
	case ErrNoError:
		return "kafka server: Not an error, why are you printing me?"
	case ErrUnknown:
		return "kafka server: Unexpected (unknown?) server error"
	case ErrOffsetOutOfRange:
		return "kafka server: The requested offset is outside the range of offsets maintained by the server for the given topic/partition"
	case ErrInvalidMessage:
		return "kafka server: Message contents does not match its CRC"
	case ErrUnknownTopicOrPartition:
		return "kafka server: Request was for a topic or partition that does not exist on this broker"
	case ErrInvalidMessageSize:
		return "kafka server: The message has a negative size"
	case ErrLeaderNotAvailable:
		return "kafka server: In the middle of a leadership election, there is currently no leader for this partition and hence it is unavailable for writes"
	case ErrNotLeaderForPartition:
		return "kafka server: Tried to send a message to a replica that is not the leader for some partition. Your metadata is out of date"
	case ErrRequestTimedOut:
		return "kafka server: Request exceeded the user-specified time limit in the request"
	case ErrBrokerNotAvailable:
		return "kafka server: Broker not available. Not a client facing error, we should never receive this!!!"
	case ErrReplicaNotAvailable:
		return "kafka server: Replica information not available, one or more brokers are down"
	case ErrMessageSizeTooLarge:
		return "kafka server: Message was too large, server rejected it to avoid allocation error"
	case ErrNetworkException:
		return "kafka server: The server disconnected before a response was received"
	case ErrInvalidTopic:
		return "kafka server: The request attempted to perform an operation on an invalid topic"
	case ErrMessageSetSizeTooLarge:
		return "kafka server: The request included message batch larger than the configured segment size on the server"
	case ErrTopicAuthorizationFailed:
		return "kafka server: The client is not authorized to access this topic"
	case ErrUnsupportedVersion:
		return "kafka server: The version of API is not supported"
	case ErrInvalidRequest:
		return "kafka server: This most likely occurs because of a request being malformed by the client library or the message was sent to an incompatible broker"
	case ErrKafkaStorageError:
		return "kafka server: Disk error when trying to access log file on the disk"
	case ErrFetchSessionIDNotFound:
		return "kafka server: The fetch session ID was not found"
	case ErrInvalidFetchSessionEpoch:
		return "kafka server: The fetch session epoch is invalid"
	case ErrFencedLeaderEpoch:
		return "kafka server: The leader epoch in the request is older than the epoch on the broker"
	case ErrUnknownLeaderEpoch:
		return "kafka server: The leader epoch in the request is newer than the epoch on the broker"
	case ErrUnsupportedCompression:
		return "kafka server: The requesting client does not support the compression type of given partition"
	case ErrOffsetNotAvailable:
		return "kafka server: The leader high watermark has not caught up from a recent leader election so the offsets cannot be guaranteed to be monotonically increasing"
	case ErrUnknownTopicID:
		return "kafka server: This server does not host this topic ID"
	}

	return fmt.Sprintf("Unknown error, how did this happen? Error code = %d", int16(err))
}
