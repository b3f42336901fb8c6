package wire

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/pkg/errors"
)

const (
	flagRaw        = 0x00
	flagCompressed = 0x01

	// CompressionThreshold is the default raw-body size above which Wrap
	// deflates the body (§4.2, §6 config table "compression threshold").
	CompressionThreshold = 1000
)

// Wrap prepends the compression flag byte to body, deflating it first when
// force is set or body exceeds threshold. Empty bodies are returned empty
// (the flag byte is omitted for empty payloads, per §3).
func Wrap(body []byte, threshold int, force bool) ([]byte, error) {
	if len(body) == 0 {
		return nil, nil
	}
	if force || len(body) > threshold {
		var buf bytes.Buffer
		buf.WriteByte(flagCompressed)
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, errors.Wrap(err, "wire: zlib compress")
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(err, "wire: zlib close")
		}
		return buf.Bytes(), nil
	}

	out := make([]byte, 1+len(body))
	out[0] = flagRaw
	copy(out[1:], body)
	return out, nil
}

// Unwrap strips and honors the compression flag byte, returning the raw
// body. An empty input yields an empty body.
func Unwrap(framed []byte) ([]byte, error) {
	if len(framed) == 0 {
		return nil, nil
	}
	flag := framed[0]
	rest := framed[1:]
	switch flag {
	case flagRaw:
		out := make([]byte, len(rest))
		copy(out, rest)
		return out, nil
	case flagCompressed:
		r, err := zlib.NewReader(bytes.NewReader(rest))
		if err != nil {
			return nil, errors.Wrap(ErrDecompressionFailed, err.Error())
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(ErrDecompressionFailed, err.Error())
		}
		return out, nil
	default:
		return nil, errors.Wrapf(ErrMalformedPayload, "unknown compression flag 0x%02x", flag)
	}
}
