package rmq

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// compressBody gzips body at level if it exceeds the 4 MiB threshold.
// Compression failure is non-fatal: compressBody then returns the
// original bytes with identity encoding. Uses klauspost/compress's gzip
// rather than the stdlib implementation, a drop-in faster encoder
// with the same wire format.
func compressBody(body []byte, level int) ([]byte, BodyEncoding) {
	if len(body) <= compressionThresholdBytes {
		return body, EncodingIdentity
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return body, EncodingIdentity
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return body, EncodingIdentity
	}
	if err := w.Close(); err != nil {
		return body, EncodingIdentity
	}
	return buf.Bytes(), EncodingGZIP
}
