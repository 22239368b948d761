package intercept

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// ErrDecodedTooLarge reports a body whose decoded form exceeds the limit.
var ErrDecodedTooLarge = errors.New("decoded body exceeds limit")

// decodeBody returns the identity form of body for the given
// Content-Encoding. Only single encodings are supported.
func decodeBody(body []byte, contentEncoding string, limit int64) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))
	var reader io.Reader
	switch encoding {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		reader = zr
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer zr.Close()
			reader = zr
		} else {
			fr := flate.NewReader(bytes.NewReader(body))
			defer fr.Close()
			reader = fr
		}
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}

	if limit <= 0 {
		return io.ReadAll(reader)
	}
	decoded, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", encoding, err)
	}
	if int64(len(decoded)) > limit {
		return nil, ErrDecodedTooLarge
	}
	return decoded, nil
}
