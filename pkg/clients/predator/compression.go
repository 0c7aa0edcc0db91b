package predator

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// CompressBody encodes body with the HTTP content coding named by algorithm
func CompressBody(body []byte, algorithm string) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch algorithm {
	case CompressionNone:
		return body, nil
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionDeflate:
		w = zlib.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("unsupported compression %q", algorithm)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("failed to compress body with %s: %w", algorithm, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress body with %s: %w", algorithm, err)
	}
	return buf.Bytes(), nil
}

// DecompressBody reverses CompressBody. An empty encoding returns body as is.
func DecompressBody(body []byte, encoding string) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch encoding {
	case "", "identity":
		return body, nil
	case CompressionGzip:
		r, err = gzip.NewReader(bytes.NewReader(body))
	case CompressionDeflate:
		r, err = zlib.NewReader(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s body: %w", encoding, err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s body: %w", encoding, err)
	}
	return out, nil
}
