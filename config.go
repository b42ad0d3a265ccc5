package kafkad

import (
	"github.com/hashicorp/go-multierror"
	"github.com/rcrowley/go-metrics"
)

const (
	// MaxRequestSize is the maximum size (in bytes) of any request frame the
	// server will accept. Frames announcing a larger size close the
	// connection.
	MaxRequestSize int32 = 100 * 1024 * 1024

	// MaxResponseSize is the maximum size (in bytes) of any response the
	// server will attempt to encode.
	MaxResponseSize int32 = 100 * 1024 * 1024
)

// Config is used to pass multiple configuration options to the broker.
type Config struct {
	// Addr is the address the broker listens on.
	Addr string

	// ClusterLogDir is the base directory holding the cluster metadata log
	// and the topic partition logs, laid out as
	// <ClusterLogDir>/<topic>-<partition>/00000000000000000000.log.
	ClusterLogDir string

	Net struct {
		// MaxOpenConnections caps the number of concurrently served
		// connections; further accepts block until a slot frees up.
		MaxOpenConnections int

		// ReadBufferBytes is the initial size of a connection's input
		// buffer. The buffer grows to fit the largest frame seen on the
		// connection.
		ReadBufferBytes int
	}

	// MetricRegistry is the registry request rates and sizes are reported
	// to. Defaults to a local registry.
	MetricRegistry metrics.Registry
}

// NewConfig returns a new configuration instance with sane defaults.
func NewConfig() *Config {
	c := &Config{}

	c.Addr = "127.0.0.1:9092"
	c.ClusterLogDir = "/tmp/kraft-combined-logs"
	c.Net.MaxOpenConnections = 128
	c.Net.ReadBufferBytes = 8 * 1024
	c.MetricRegistry = metrics.NewRegistry()

	return c
}

// Validate checks a Config instance. It returns a multierror wrapping
// ConfigurationErrors when the specified values don't make sense.
func (c *Config) Validate() error {
	var result error

	if c.Addr == "" {
		result = multierror.Append(result, ConfigurationError("Addr must not be empty"))
	}
	if c.ClusterLogDir == "" {
		result = multierror.Append(result, ConfigurationError("ClusterLogDir must not be empty"))
	}
	if c.Net.MaxOpenConnections <= 0 {
		result = multierror.Append(result, ConfigurationError("Net.MaxOpenConnections must be > 0"))
	}
	if c.Net.ReadBufferBytes <= 0 {
		result = multierror.Append(result, ConfigurationError("Net.ReadBufferBytes must be > 0"))
	}
	if c.MetricRegistry == nil {
		result = multierror.Append(result, ConfigurationError("MetricRegistry must not be nil"))
	}

	return result
}
