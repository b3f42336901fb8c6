// Package wire implements the NRSH framing codec and payload dialects:
// the 28-byte fixed header, CRC32 integrity check, the compact cell-list
// text encoding, and the tagged binary records carried by INIT_ACK, EVENT,
// ACK and GAME_OVER.
package wire

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// MsgType is the on-wire message type enumeration (§3).
type MsgType byte

const (
	MsgInit      MsgType = 0
	MsgInitAck   MsgType = 1
	MsgSnapshot  MsgType = 2
	MsgEvent     MsgType = 3
	MsgAck       MsgType = 4
	MsgGameOver  MsgType = 5
)

func (t MsgType) valid() bool {
	return t <= MsgGameOver
}

func (t MsgType) String() string {
	switch t {
	case MsgInit:
		return "INIT"
	case MsgInitAck:
		return "INIT_ACK"
	case MsgSnapshot:
		return "SNAPSHOT"
	case MsgEvent:
		return "EVENT"
	case MsgAck:
		return "ACK"
	case MsgGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

const (
	// HeaderSize is the fixed on-wire header length in bytes (§3/§6).
	HeaderSize = 28

	protocolVersion = 1
)

var magic = [4]byte{'N', 'R', 'S', 'H'}

// Header is the decoded form of the 28-byte fixed packet header. All
// multi-byte fields are big-endian on the wire.
type Header struct {
	Version     byte
	MsgType     MsgType
	SnapshotID  uint32
	SeqNum      uint32
	TimestampMs uint64
	PayloadLen  uint16
	Checksum    uint32
}

// Encode packs header and payload into a single framed packet, computing
// CRC32 over the zero-checksum header image concatenated with the payload
// and writing it back into byte offset 24..28 of the returned buffer.
func Encode(h Header, payload []byte) ([]byte, error) {
	if len(payload) > 1<<16-1 {
		return nil, errors.Wrap(ErrPacketTooLarge, "payload exceeds uint16 length field")
	}

	buf := make([]byte, HeaderSize+len(payload))
	copy(buf[0:4], magic[:])
	buf[4] = protocolVersion
	buf[5] = byte(h.MsgType)
	binary.BigEndian.PutUint32(buf[6:10], h.SnapshotID)
	binary.BigEndian.PutUint32(buf[10:14], h.SeqNum)
	binary.BigEndian.PutUint64(buf[14:22], h.TimestampMs)
	binary.BigEndian.PutUint16(buf[22:24], uint16(len(payload)))
	// buf[24:28] checksum left zero for the CRC domain.
	copy(buf[HeaderSize:], payload)

	sum := crc32.ChecksumIEEE(buf)
	binary.BigEndian.PutUint32(buf[24:28], sum)
	return buf, nil
}

// CheckDatagramSize reports ErrPacketTooLarge if pkt exceeds max, the
// sender-side ceiling a construction must never cross (§6). A
// non-positive max disables the check.
func CheckDatagramSize(pkt []byte, max int) error {
	if max > 0 && len(pkt) > max {
		return errors.Wrapf(ErrPacketTooLarge, "encoded packet is %d bytes, exceeds max datagram %d", len(pkt), max)
	}
	return nil
}

// Decode validates and unpacks a framed packet, rejecting in the order
// specified by §4.1: short packet, bad magic, bad version, unknown message
// type, length mismatch, checksum mismatch.
func Decode(buf []byte) (Header, []byte, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, nil, ErrShortPacket
	}
	if buf[0] != magic[0] || buf[1] != magic[1] || buf[2] != magic[2] || buf[3] != magic[3] {
		return h, nil, ErrBadMagic
	}
	if buf[4] != protocolVersion {
		return h, nil, ErrBadVersion
	}
	mt := MsgType(buf[5])
	if !mt.valid() {
		return h, nil, ErrUnknownMsgType
	}

	payloadLen := binary.BigEndian.Uint16(buf[22:24])
	if int(payloadLen) != len(buf)-HeaderSize {
		return h, nil, ErrLengthMismatch
	}

	wantSum := binary.BigEndian.Uint32(buf[24:28])
	check := make([]byte, len(buf))
	copy(check, buf)
	check[24], check[25], check[26], check[27] = 0, 0, 0, 0
	gotSum := crc32.ChecksumIEEE(check)
	if gotSum != wantSum {
		return h, nil, ErrChecksumMismatch
	}

	h = Header{
		Version:     buf[4],
		MsgType:     mt,
		SnapshotID:  binary.BigEndian.Uint32(buf[6:10]),
		SeqNum:      binary.BigEndian.Uint32(buf[10:14]),
		TimestampMs: binary.BigEndian.Uint64(buf[14:22]),
		PayloadLen:  payloadLen,
		Checksum:    wantSum,
	}
	payload := make([]byte, payloadLen)
	copy(payload, buf[HeaderSize:])
	return h, payload, nil
}
