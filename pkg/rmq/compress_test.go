package rmq

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestCompressBodySmallStaysIdentity(t *testing.T) {
	body := bytes.Repeat([]byte{0}, 1024)
	out, enc := compressBody(body, 5)
	if enc != EncodingIdentity {
		t.Fatalf("expected identity encoding for small body, got %v", enc)
	}
	if !bytes.Equal(out, body) {
		t.Fatalf("identity encoding must not mutate the body")
	}
}

func TestCompressBodyLargeGzips(t *testing.T) {
	body := bytes.Repeat([]byte{0}, compressionThresholdBytes+1)
	out, enc := compressBody(body, 5)
	if enc != EncodingGZIP {
		t.Fatalf("expected gzip encoding over threshold, got %v", enc)
	}
	if len(out) >= len(body)/100 {
		t.Fatalf("expected compressed size to be under 1%% of original for all-zero input, got %d of %d", len(out), len(body))
	}

	r, err := gzip.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), body) {
		t.Fatalf("round-trip mismatch")
	}
}
