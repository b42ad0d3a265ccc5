package kafkad

import (
	"bytes"
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/rcrowley/go-metrics"
)

func TestMain(m *testing.M) {
	// keep the metrics meter arbiter goroutine out of leak checks
	metrics.UseNilMetrics = true
	os.Exit(m.Run())
}

// testEncodable encodes in and checks the output against expect.
func testEncodable(t *testing.T, name string, in encoder, expect []byte) {
	t.Helper()

	packet, err := encode(in, nil)
	if err != nil {
		t.Fatalf("%s: encode error: %v", name, err)
	}
	if !bytes.Equal(packet, expect) {
		t.Errorf("%s: encoding mismatch\ngot:  %v\nwant: %v", name, packet, expect)
	}
}

// testVersionedRoundTrip encodes body, decodes the bytes into fresh, and
// re-encodes: the protocol is deterministic, so the second encoding must be
// byte-identical to the first.
func testVersionedRoundTrip(t *testing.T, name string, body protocolBody, fresh protocolBody, version int16) {
	t.Helper()

	first, err := encode(body, nil)
	if err != nil {
		t.Fatalf("%s: encode error: %v", name, err)
	}

	if err := versionedDecode(first, fresh, version); err != nil {
		t.Fatalf("%s: decode error: %v\nbytes: %v", name, err, first)
	}

	second, err := encode(fresh, nil)
	if err != nil {
		t.Fatalf("%s: re-encode error: %v\ndecoded: %s", name, err, spew.Sdump(fresh))
	}

	if !bytes.Equal(first, second) {
		t.Errorf("%s: round trip not stable\nfirst:  %v\nsecond: %v\ndecoded: %s",
			name, first, second, spew.Sdump(fresh))
	}
}

func mustEncode(t *testing.T, in encoder) []byte {
	t.Helper()
	packet, err := encode(in, nil)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	return packet
}
