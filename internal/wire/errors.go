package wire

import "errors"

// Enumerable decode/encode failure kinds. Compared with errors.Is. Decode
// returns the header kinds bare; the payload codecs in this package wrap
// ErrMalformedPayload and the others with github.com/pkg/errors to add
// detail.
var (
	ErrShortPacket         = errors.New("wire: packet shorter than header")
	ErrBadMagic            = errors.New("wire: bad protocol magic")
	ErrBadVersion          = errors.New("wire: unsupported protocol version")
	ErrUnknownMsgType      = errors.New("wire: unknown message type")
	ErrLengthMismatch      = errors.New("wire: payload length mismatch")
	ErrChecksumMismatch    = errors.New("wire: checksum mismatch")
	ErrMalformedPayload    = errors.New("wire: malformed payload")
	ErrDecompressionFailed = errors.New("wire: decompression failed")
	ErrPacketTooLarge      = errors.New("wire: encoded packet exceeds max datagram size")
)
