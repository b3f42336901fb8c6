package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Tagged binary records for INIT_ACK, EVENT, ACK and GAME_OVER (§4.2).
// Fields are fixed-width and big-endian, matching the packet header's
// byte order (a from-scratch wire format, deliberately not matching
// any RPC codec's own little-endian convention). The concrete layout is
// deterministic and private to this codec; only round-trip equality is
// the contract (§4.2).

// InitAck carries the client id assigned on INIT acceptance.
type InitAck struct {
	ClientID uint32
}

func (a InitAck) Encode() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, a.ClientID)
	return buf
}

func DecodeInitAck(b []byte) (InitAck, error) {
	if len(b) != 4 {
		return InitAck{}, errors.Wrapf(ErrMalformedPayload, "INIT_ACK record length %d, want 4", len(b))
	}
	return InitAck{ClientID: binary.BigEndian.Uint32(b)}, nil
}

// Event carries a client's cell-claim request.
type Event struct {
	CellIndex uint32
	ClientID  uint32
	TimestampMs uint64
}

func (e Event) Encode() []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint32(buf[0:4], e.CellIndex)
	binary.BigEndian.PutUint32(buf[4:8], e.ClientID)
	binary.BigEndian.PutUint64(buf[8:16], e.TimestampMs)
	return buf
}

func DecodeEvent(b []byte) (Event, error) {
	if len(b) != 16 {
		return Event{}, errors.Wrapf(ErrMalformedPayload, "EVENT record length %d, want 16", len(b))
	}
	return Event{
		CellIndex:   binary.BigEndian.Uint32(b[0:4]),
		ClientID:    binary.BigEndian.Uint32(b[4:8]),
		TimestampMs: binary.BigEndian.Uint64(b[8:16]),
	}, nil
}

// Ack carries the server's resolved owner for a claimed cell, keyed by
// the EVENT's original seq num (carried in the packet header, not here)
// so replaying an ACKed EVENT is idempotent.
type Ack struct {
	CellIndex uint32
	Owner     uint32
}

func (a Ack) Encode() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], a.CellIndex)
	binary.BigEndian.PutUint32(buf[4:8], a.Owner)
	return buf
}

func DecodeAck(b []byte) (Ack, error) {
	if len(b) != 8 {
		return Ack{}, errors.Wrapf(ErrMalformedPayload, "ACK record length %d, want 8", len(b))
	}
	return Ack{
		CellIndex: binary.BigEndian.Uint32(b[0:4]),
		Owner:     binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

// GameOver carries the winner list and the final grid.
type GameOver struct {
	Winners   []uint32
	FinalGrid []Change
}

func (g GameOver) Encode() []byte {
	gridStr := FormatCellList(g.FinalGrid)
	buf := make([]byte, 0, 2+4*len(g.Winners)+4+len(gridStr))

	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(len(g.Winners)))
	buf = append(buf, countBuf[:]...)
	for _, w := range g.Winners {
		var wb [4]byte
		binary.BigEndian.PutUint32(wb[:], w)
		buf = append(buf, wb[:]...)
	}

	var gridLenBuf [4]byte
	binary.BigEndian.PutUint32(gridLenBuf[:], uint32(len(gridStr)))
	buf = append(buf, gridLenBuf[:]...)
	buf = append(buf, gridStr...)
	return buf
}

func DecodeGameOver(b []byte) (GameOver, error) {
	if len(b) < 2 {
		return GameOver{}, errors.Wrap(ErrMalformedPayload, "GAME_OVER record too short for winner count")
	}
	count := binary.BigEndian.Uint16(b[0:2])
	off := 2
	if off+int(count)*4 > len(b) {
		return GameOver{}, errors.Wrap(ErrMalformedPayload, "GAME_OVER record truncated winners")
	}
	winners := make([]uint32, count)
	for i := range winners {
		winners[i] = binary.BigEndian.Uint32(b[off : off+4])
		off += 4
	}

	if off+4 > len(b) {
		return GameOver{}, errors.Wrap(ErrMalformedPayload, "GAME_OVER record truncated grid length")
	}
	gridLen := binary.BigEndian.Uint32(b[off : off+4])
	off += 4
	if off+int(gridLen) != len(b) {
		return GameOver{}, errors.Wrap(ErrMalformedPayload, "GAME_OVER record grid length mismatch")
	}
	changes, err := ParseCellList(string(b[off : off+int(gridLen)]))
	if err != nil {
		return GameOver{}, err
	}
	return GameOver{Winners: winners, FinalGrid: changes}, nil
}
