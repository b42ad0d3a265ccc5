package kafkad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/eapache/queue"
	"github.com/hashicorp/go-multierror"
	"github.com/rcrowley/go-metrics"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

// Broker serves the Kafka wire protocol on a TCP listener. Each accepted
// connection gets its own goroutine and its own buffers; the state shared
// between connections is the immutable api table, the metadata catalog, the
// segment source with its circuit breaker, and the metric registry.
type Broker struct {
	conf *Config

	lock  sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	quit  chan struct{}
	g     errgroup.Group

	segments *segmentSource

	metadataOnce sync.Once
	metadata     *ClusterMetadata
	metadataErr  error
}

// NewBroker creates a Broker from the given config, validating it first.
func NewBroker(conf *Config) (*Broker, error) {
	if conf == nil {
		conf = NewConfig()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &Broker{
		conf:     conf,
		conns:    make(map[net.Conn]struct{}),
		quit:     make(chan struct{}),
		segments: newSegmentSource(conf.ClusterLogDir),
	}, nil
}

// ListenAndServe listens on the configured address and serves until Close
// is called.
func (b *Broker) ListenAndServe() error {
	ln, err := net.Listen("tcp", b.conf.Addr)
	if err != nil {
		return err
	}
	return b.Serve(ln)
}

// Serve accepts connections on ln until Close is called. The listener is
// capped to the configured number of concurrent connections.
func (b *Broker) Serve(ln net.Listener) error {
	ln = netutil.LimitListener(ln, b.conf.Net.MaxOpenConnections)

	b.lock.Lock()
	select {
	case <-b.quit:
		b.lock.Unlock()
		ln.Close()
		return ErrBrokerClosed
	default:
	}
	b.ln = ln
	b.lock.Unlock()

	Logger.Printf("listening on %s\n", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-b.quit:
				return nil
			default:
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				Logger.Printf("accept error: %v\n", err)
				continue
			}
			return err
		}

		b.g.Go(func() error {
			b.handleConn(conn)
			return nil
		})
	}
}

// Addr returns the listener address, or nil before Serve.
func (b *Broker) Addr() net.Addr {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.ln == nil {
		return nil
	}
	return b.ln.Addr()
}

// Close stops the listener, closes every open connection, and waits for the
// connection goroutines to exit.
func (b *Broker) Close() error {
	b.lock.Lock()
	select {
	case <-b.quit:
		b.lock.Unlock()
		return ErrBrokerClosed
	default:
		close(b.quit)
	}
	ln := b.ln
	b.lock.Unlock()

	var result error
	if ln != nil {
		if err := ln.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	b.lock.Lock()
	for conn := range b.conns {
		conn.Close()
	}
	b.lock.Unlock()

	if err := b.g.Wait(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}

// clusterMetadata lazily loads the metadata catalog exactly once. Both a
// successful catalog and a load failure are memoized for the life of the
// Broker; ApiVersions keeps working either way.
func (b *Broker) clusterMetadata() (*ClusterMetadata, error) {
	b.metadataOnce.Do(func() {
		b.metadata, b.metadataErr = loadClusterMetadata(b.conf.ClusterLogDir)
		if b.metadataErr != nil {
			Logger.Printf("failed to load cluster metadata: %v\n", b.metadataErr)
		} else {
			Logger.Printf("loaded cluster metadata (%d topics)\n", b.metadata.Topics())
		}
	})
	return b.metadata, b.metadataErr
}

// handleConn runs the per-connection state machine: accumulate bytes, carve
// off as many complete frames as are available, answer them in wire order,
// repeat until EOF or a fatal protocol error.
func (b *Broker) handleConn(conn net.Conn) {
	b.lock.Lock()
	select {
	case <-b.quit:
		b.lock.Unlock()
		conn.Close()
		return
	default:
	}
	b.conns[conn] = struct{}{}
	b.lock.Unlock()

	defer func() {
		conn.Close()
		b.lock.Lock()
		delete(b.conns, conn)
		b.lock.Unlock()
	}()

	var (
		buf     = make([]byte, 0, b.conf.Net.ReadBufferBytes)
		chunk   = make([]byte, b.conf.Net.ReadBufferBytes)
		pending = queue.New()
	)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)

			for {
				frame, consumed, ferr := nextFrame(buf)
				if ferr != nil {
					Logger.Printf("closing %s: %v\n", conn.RemoteAddr(), ferr)
					return
				}
				if frame == nil {
					break
				}
				pending.Add(frame)
				buf = buf[consumed:]
			}

			for pending.Length() > 0 {
				payload := pending.Remove().([]byte)
				if serveErr := b.serveRequest(conn, payload); serveErr != nil {
					if !errors.Is(serveErr, io.EOF) {
						Logger.Printf("closing %s: %v\n", conn.RemoteAddr(), serveErr)
					}
					return
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				DebugLogger.Printf("read error from %s: %v\n", conn.RemoteAddr(), err)
			}
			return
		}
	}
}

// nextFrame carves one size-prefixed frame off the front of buf. It returns
// a nil frame when buf does not yet hold a complete one; the caller keeps
// the unconsumed tail and reads more.
func nextFrame(buf []byte) ([]byte, int, error) {
	if len(buf) < 4 {
		return nil, 0, nil
	}
	size := int32(binary.BigEndian.Uint32(buf))
	if size <= 0 || size > MaxRequestSize {
		return nil, 0, PacketDecodingError{fmt.Sprintf("invalid request size (%d)", size)}
	}
	if len(buf) < 4+int(size) {
		return nil, 0, nil
	}

	// the frame escapes the reused connection buffer, so copy it out
	frame := make([]byte, size)
	copy(frame, buf[4:4+int(size)])
	return frame, 4 + int(size), nil
}

// serveRequest decodes one frame, routes it, and writes the framed
// response. A non-nil return closes the connection.
func (b *Broker) serveRequest(conn net.Conn, payload []byte) error {
	resp, err := b.dispatch(payload)
	if err != nil {
		return err
	}

	respBytes, err := encode(resp, b.conf.MetricRegistry)
	if err != nil {
		return err
	}

	metrics.GetOrRegisterHistogram("response-size", b.conf.MetricRegistry, metrics.NewExpDecaySample(1028, 0.015)).
		Update(int64(len(respBytes)))

	if _, err := conn.Write(respBytes); err != nil {
		return err
	}
	DebugLogger.Printf("answered correlation %d (%d bytes)\n", resp.correlationID, len(respBytes))
	return nil
}

// dispatch decodes a request frame and routes it to its handler. The error
// return is reserved for conditions with no in-band answer: an unknown api
// key, or a header/body that cannot be parsed.
func (b *Broker) dispatch(payload []byte) (*response, error) {
	pd := &realDecoder{raw: payload}
	req := &request{}
	if err := req.decodeHeader(pd); err != nil {
		return nil, err
	}

	metrics.GetOrRegisterMeter(fmt.Sprintf("request-rate-for-key-%d", req.apiKey), b.conf.MetricRegistry).Mark(1)
	metrics.GetOrRegisterHistogram("request-size", b.conf.MetricRegistry, metrics.NewExpDecaySample(1028, 0.015)).
		Update(int64(len(payload)))

	versions, known := supportedAPIs[req.apiKey]
	if !known {
		return nil, ErrUnknownAPIKey
	}

	if !versions.contains(req.apiVersion) {
		DebugLogger.Printf("unsupported version %d for api key %d (correlation %d)\n",
			req.apiVersion, req.apiKey, req.correlationID)
		return unsupportedVersionResponse(req, versions), nil
	}

	req.body = allocateBody(req.apiKey, req.apiVersion)
	if err := req.body.decode(pd, req.apiVersion); err != nil {
		return nil, err
	}
	DebugLogger.Printf("handling %s\n", req)

	var body protocolBody
	switch reqBody := req.body.(type) {
	case *ApiVersionsRequest:
		body = handleAPIVersions(reqBody)
	case *DescribeTopicPartitionsRequest:
		md, mdErr := b.clusterMetadata()
		body = handleDescribeTopicPartitions(reqBody, md, mdErr)
	case *FetchRequest:
		md, mdErr := b.clusterMetadata()
		body = handleFetch(reqBody, md, mdErr, b.segments)
	default:
		return nil, ErrUnknownAPIKey
	}

	return &response{
		correlationID: req.correlationID,
		headerVersion: responseHeaderVersion(req.apiKey, req.apiVersion),
		body:          body,
	}, nil
}

// unsupportedVersionResponse builds the in-band UNSUPPORTED_VERSION answer
// for a known api at a version outside the supported range. ApiVersions
// errors are always answered at v0, which every client can parse; the other
// apis answer at the nearest version the server can encode.
func unsupportedVersionResponse(req *request, versions apiVersionRange) *response {
	clamped := req.apiVersion
	if clamped < versions.minVersion {
		clamped = versions.minVersion
	} else if clamped > versions.maxVersion {
		clamped = versions.maxVersion
	}

	var body protocolBody
	switch req.apiKey {
	case apiKeyAPIVersions:
		clamped = 0
		body = &apiVersionsErrorResponse{ErrorCode: int16(ErrUnsupportedVersion)}
	case apiKeyFetch:
		body = &FetchResponse{Version: clamped, ErrorCode: int16(ErrUnsupportedVersion)}
	case apiKeyDescribeTopicPartitions:
		body = &DescribeTopicPartitionsResponse{Version: clamped}
	}

	return &response{
		correlationID: req.correlationID,
		headerVersion: responseHeaderVersion(req.apiKey, clamped),
		body:          body,
	}
}
