package server

import (
	"net"
	"time"

	"go.uber.org/zap"

	"netrush/internal/wire"
)

// Broadcast pairs an encoded packet with the address it must be sent to.
type Broadcast struct {
	Addr   net.Addr
	Packet []byte
}

// Tick advances the snapshot scheduler by one fixed-cadence step (§4.5).
// While the game is running it composes and returns the snapshot
// broadcast for every connected client. Once the grid fills it drives
// the GAME_OVER triple-send off the same cadence (§4.7), reusing the
// tick period as the ~50ms retry spacing the redesign calls for.
func (s *Server) Tick(now time.Time) []Broadcast {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseGameOver {
		if s.gameOverRemaining <= 0 {
			return nil
		}
		s.gameOverRemaining--
		return s.buildGameOverBroadcastsLocked(now)
	}

	broadcasts := s.buildSnapshotBroadcastsLocked(now)

	if s.phase == PhaseRunning && s.grid.FullyClaimed() {
		s.phase = PhaseGameOver
		s.gameOverSnapshotID = s.nextSnapID
		s.nextSnapID++
		s.gameOverRemaining = 2 // this tick sends the first of three
		broadcasts = s.buildGameOverBroadcastsLocked(now)
	}

	return broadcasts
}

func (s *Server) buildSnapshotBroadcastsLocked(now time.Time) []Broadcast {
	snapshotID := s.nextSnapID
	s.nextSnapID++

	currentChanges := s.pending
	s.pending = nil

	full := snapshotID%s.cfg.FullEvery == 0

	redundant := make([]wire.RedundantEntry, 0, len(s.changeLog))
	for i := 0; i < s.cfg.RedundancyK && i < len(s.changeLog); i++ {
		e := s.changeLog[i]
		redundant = append(redundant, wire.RedundantEntry{SnapshotID: e.snapshotID, Changes: e.changes})
	}

	s.changeLog = append([]changeLogEntry{{snapshotID: snapshotID, changes: currentChanges}}, s.changeLog...)
	if limit := s.cfg.RedundancyK + 1; len(s.changeLog) > limit {
		s.changeLog = s.changeLog[:limit]
	}

	body := wire.SnapshotBody{
		Full:      full,
		Changes:   currentChanges,
		Redundant: redundant,
	}
	if full {
		body.Grid = s.grid.NonEmptyChanges()
	}
	payload := body.Encode()

	broadcasts := make([]Broadcast, 0, len(s.clients))
	for _, rec := range s.clients {
		pkt, err := s.encodePacket(wire.MsgSnapshot, snapshotID, rec.outSeq, uint64(now.UnixMilli()), payload, full)
		if err != nil {
			s.log.Error("snapshot encode failed", zap.Uint32("client_id", rec.ID), zap.Error(err))
			continue
		}
		rec.outSeq++
		broadcasts = append(broadcasts, Broadcast{Addr: rec.Addr, Packet: pkt})
	}
	s.metrics.RecordSnapshot(snapshotID, len(payload), full)
	return broadcasts
}

func (s *Server) buildGameOverBroadcastsLocked(now time.Time) []Broadcast {
	counts := s.grid.OwnerCounts()
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	var winners []uint32
	for id, n := range counts {
		if n == best {
			winners = append(winners, uint32(id))
		}
	}

	body := wire.GameOver{
		Winners:   winners,
		FinalGrid: s.grid.NonEmptyChanges(),
	}.Encode()

	broadcasts := make([]Broadcast, 0, len(s.clients))
	for _, rec := range s.clients {
		pkt, err := s.encodePacket(wire.MsgGameOver, s.gameOverSnapshotID, rec.outSeq, uint64(now.UnixMilli()), body, false)
		if err != nil {
			s.log.Error("game over encode failed", zap.Uint32("client_id", rec.ID), zap.Error(err))
			continue
		}
		rec.outSeq++
		broadcasts = append(broadcasts, Broadcast{Addr: rec.Addr, Packet: pkt})
	}
	s.metrics.RecordGameOver(winners)
	return broadcasts
}

// PruneStale removes sessions that have not been heard from within the
// configured client timeout (§4.2).
func (s *Server) PruneStale(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.clients {
		if now.Sub(rec.LastSeen) > s.cfg.ClientTimeout {
			delete(s.clients, id)
			delete(s.byAddr, rec.Addr.String())
			s.log.Info("pruned stale client", zap.Uint32("client_id", id))
		}
	}
}
