package server

import (
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netrush/internal/grid"
	"netrush/internal/wire"
)

// AcceptInit handles an inbound INIT packet from addr. A repeat INIT
// from an address already holding a session re-sends the cached
// INIT_ACK verbatim rather than allocating a new client id (§4.2
// idempotent handshake replay, also doubles as the HEARTBEAT path).
func (s *Server) AcceptInit(addr net.Addr, now time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byAddr[addr.String()]; ok {
		rec := s.clients[id]
		rec.LastSeen = now
		return rec.initAck, nil
	}

	if len(s.clients) >= s.cfg.MaxClients {
		return nil, ErrCapacityExceeded
	}

	id := s.nextClientID
	s.nextClientID++

	rec := &clientRecord{
		ID:       id,
		Addr:     addr,
		TraceID:  uuid.New(),
		LastSeen: now,
	}

	body := wire.InitAck{ClientID: id}.Encode()
	pkt, err := s.encodePacket(wire.MsgInitAck, 0, rec.outSeq, uint64(now.UnixMilli()), body, false)
	if err != nil {
		return nil, err
	}
	rec.outSeq++
	rec.initAck = pkt

	s.clients[id] = rec
	s.byAddr[addr.String()] = id

	if s.phase == PhaseIdle {
		s.phase = PhaseRunning
	}

	s.log.Info("client joined",
		zap.Uint32("client_id", id),
		zap.String("trace_id", rec.TraceID.String()),
		zap.String("addr", addr.String()),
	)
	return pkt, nil
}

// IngestEvent resolves an inbound EVENT against the authoritative grid
// and returns the ACK packet to send back. The ACK's header seq num is
// the EVENT's own seq num (carried by the caller via hdr), so a client
// retransmit of an already-processed EVENT yields byte-identical
// resolution without double-counting the claim (§4.3, §4.5).
func (s *Server) IngestEvent(addr net.Addr, hdr wire.Header, ev wire.Event, now time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byAddr[addr.String()]
	if !ok {
		return nil, ErrUnknownSender
	}
	rec := s.clients[id]
	if rec.ID != ev.ClientID {
		return nil, ErrClientIDMismatch
	}
	rec.LastSeen = now

	side := s.grid.Side()
	cell := indexToCell(ev.CellIndex, side)

	resolvedOwner, claimed := s.grid.Claim(cell, int(ev.ClientID))
	if claimed {
		s.pending = append(s.pending, wire.Change{Row: cell.Row, Col: cell.Col, Owner: resolvedOwner})
	}

	body := wire.Ack{CellIndex: ev.CellIndex, Owner: uint32(resolvedOwner)}.Encode()
	return s.encodePacket(wire.MsgAck, hdr.SnapshotID, hdr.SeqNum, uint64(now.UnixMilli()), body, false)
}

func indexToCell(index uint32, side int) grid.Cell {
	return grid.Cell{Row: int(index) / side, Col: int(index) % side}
}
