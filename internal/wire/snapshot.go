package wire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const flagFullSnapshot = 0x01

// RedundantEntry is one (snapshot_id, changes) pair carried in a
// snapshot's redundancy tail (§3, §4.5).
type RedundantEntry struct {
	SnapshotID uint32
	Changes    []Change
}

// SnapshotBody is the decoded SNAPSHOT payload (§3).
type SnapshotBody struct {
	Full      bool
	Grid      []Change // present iff Full
	Changes   []Change
	Redundant []RedundantEntry
}

// Encode lays out the snapshot body as: a flags byte, the grid cell-list
// (length-prefixed, present iff full), the changes cell-list
// (length-prefixed), and a length-prefixed sequence of redundant
// (snapshot_id, cell-list) records. This layout is this implementation's
// chosen resolution of the under-specified redundancy encoding (§9 Open
// Questions); only round-trip equality is contractual.
func (s SnapshotBody) Encode() []byte {
	var buf []byte
	var flags byte
	if s.Full {
		flags |= flagFullSnapshot
	}
	buf = append(buf, flags)

	if s.Full {
		buf = appendLengthPrefixedString(buf, FormatCellList(s.Grid))
	}
	buf = appendLengthPrefixedString(buf, FormatCellList(s.Changes))

	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(len(s.Redundant)))
	buf = append(buf, countBuf[:]...)
	for _, r := range s.Redundant {
		var idBuf [4]byte
		binary.BigEndian.PutUint32(idBuf[:], r.SnapshotID)
		buf = append(buf, idBuf[:]...)
		buf = appendLengthPrefixedString(buf, FormatCellList(r.Changes))
	}
	return buf
}

func appendLengthPrefixedString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readLengthPrefixedString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, errors.Wrap(ErrMalformedPayload, "truncated length prefix")
	}
	n := binary.BigEndian.Uint32(b[0:4])
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return "", nil, errors.Wrap(ErrMalformedPayload, "length prefix exceeds remaining bytes")
	}
	return string(b[:n]), b[n:], nil
}

// DecodeSnapshotBody parses a snapshot body produced by Encode.
func DecodeSnapshotBody(b []byte) (SnapshotBody, error) {
	if len(b) < 1 {
		return SnapshotBody{}, errors.Wrap(ErrMalformedPayload, "empty snapshot body")
	}
	full := b[0]&flagFullSnapshot != 0
	rest := b[1:]

	var out SnapshotBody
	out.Full = full

	if full {
		s, r, err := readLengthPrefixedString(rest)
		if err != nil {
			return SnapshotBody{}, err
		}
		grid, err := ParseCellList(s)
		if err != nil {
			return SnapshotBody{}, err
		}
		out.Grid = grid
		rest = r
	}

	s, r, err := readLengthPrefixedString(rest)
	if err != nil {
		return SnapshotBody{}, err
	}
	changes, err := ParseCellList(s)
	if err != nil {
		return SnapshotBody{}, err
	}
	out.Changes = changes
	rest = r

	if len(rest) < 2 {
		return SnapshotBody{}, errors.Wrap(ErrMalformedPayload, "truncated redundancy count")
	}
	count := binary.BigEndian.Uint16(rest[0:2])
	rest = rest[2:]

	out.Redundant = make([]RedundantEntry, 0, count)
	for i := uint16(0); i < count; i++ {
		if len(rest) < 4 {
			return SnapshotBody{}, errors.Wrap(ErrMalformedPayload, "truncated redundant snapshot id")
		}
		id := binary.BigEndian.Uint32(rest[0:4])
		rest = rest[4:]
		s, r, err := readLengthPrefixedString(rest)
		if err != nil {
			return SnapshotBody{}, err
		}
		changes, err := ParseCellList(s)
		if err != nil {
			return SnapshotBody{}, err
		}
		out.Redundant = append(out.Redundant, RedundantEntry{SnapshotID: id, Changes: changes})
		rest = r
	}

	return out, nil
}
