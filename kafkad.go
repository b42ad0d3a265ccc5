// Package kafkad implements a broker-side server for the Kafka wire
// protocol. It speaks the length-framed, versioned binary RPC format over
// TCP, serves ApiVersions, Fetch and DescribeTopicPartitions, and answers
// metadata queries from a read-only catalog built from an on-disk cluster
// metadata log.
package kafkad

import (
	"io"
	"log"
)

// StdLogger is used to log messages.
type StdLogger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

var (
	// Logger is the instance of a StdLogger interface that kafkad writes
	// connection management and startup messages to. By default it is set to
	// discard all log messages, but you can set it to redirect wherever you
	// want.
	Logger StdLogger = log.New(io.Discard, "[kafkad] ", log.LstdFlags)

	// DebugLogger is the instance of a StdLogger interface that kafkad writes
	// more verbose debug messages to, such as every request/response routed
	// through a connection. By default it is set to discard all log messages.
	DebugLogger StdLogger = log.New(io.Discard, "[kafkad/debug] ", log.LstdFlags)
)

const (
	// SegmentFileName is the name of the single log segment the server reads
	// for each partition directory.
	SegmentFileName = "00000000000000000000.log"

	// ClusterMetadataTopicName is the directory name (minus the partition
	// suffix) that holds the cluster metadata log.
	ClusterMetadataTopicName = "__cluster_metadata"
)
