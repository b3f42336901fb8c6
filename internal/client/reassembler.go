package client

import (
	"netrush/internal/grid"
	"netrush/internal/wire"
)

// appliedRingSize bounds how many recently-applied snapshot ids the
// reassembler remembers for duplicate detection (§4.6).
const appliedRingSize = 256

// reassembler folds inbound SNAPSHOT bodies into the client's grid
// replica, tolerating out-of-order and lossy delivery via the
// redundancy tail and first-claim-wins application (§4.6).
type reassembler struct {
	haveFull     bool
	latestFullID uint32

	appliedIDs  map[uint32]struct{}
	appliedRing [appliedRingSize]uint32
	appliedPos  int
	appliedLen  int
}

func newReassembler() *reassembler {
	return &reassembler{appliedIDs: make(map[uint32]struct{}, appliedRingSize)}
}

// seen reports whether id has already been applied, within the
// remembered window.
func (r *reassembler) seen(id uint32) bool {
	_, ok := r.appliedIDs[id]
	return ok
}

// remember records id as applied, evicting the oldest entry once the
// ring is full.
func (r *reassembler) remember(id uint32) {
	if r.appliedLen == appliedRingSize {
		delete(r.appliedIDs, r.appliedRing[r.appliedPos])
	} else {
		r.appliedLen++
	}
	r.appliedRing[r.appliedPos] = id
	r.appliedIDs[id] = struct{}{}
	r.appliedPos = (r.appliedPos + 1) % appliedRingSize
}

// apply applies a decoded snapshot body with id to g, returning the
// cells it newly resolved so the caller can notify a render sink. The
// returned error is diagnostic only (ErrDuplicateSnapshot,
// ErrStaleSnapshot) — body.Changes and body.Redundant are still
// applied regardless, since first-claim-wins makes re-application
// harmless.
func (r *reassembler) apply(id uint32, body wire.SnapshotBody, g *grid.Grid) ([]wire.Change, error) {
	var newly []wire.Change
	var err error

	if r.seen(id) {
		err = ErrDuplicateSnapshot
	}

	if body.Full {
		switch {
		case !r.haveFull || seqAfter(id, r.latestFullID):
			g.Reset(body.Grid)
			r.haveFull = true
			r.latestFullID = id
			newly = append(newly, body.Grid...)
		case id != r.latestFullID && err == nil:
			err = ErrStaleSnapshot
		}
	}

	apply := func(changes []wire.Change) {
		for _, ch := range changes {
			if _, claimed := g.Claim(grid.Cell{Row: ch.Row, Col: ch.Col}, ch.Owner); claimed {
				newly = append(newly, ch)
			}
		}
	}
	apply(body.Changes)
	for _, red := range body.Redundant {
		apply(red.Changes)
	}

	r.remember(id)
	return newly, err
}

// seqAfter reports whether a is strictly after b in a wrapping 32-bit
// sequence space, the same comparison idiom RakNet-style sequence
// numbers use to tolerate wraparound.
func seqAfter(a, b uint32) bool {
	return int32(a-b) > 0
}
