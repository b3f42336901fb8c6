// Package client implements the non-authoritative client side of
// NetRush: the connection state machine, the outbound EVENT
// retransmit table, and the inbound snapshot reassembler (§4.2, §4.5,
// §4.6). The client never decides ownership — it only predicts and
// reconciles against what the server's SNAPSHOT and ACK traffic says.
package client

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"netrush/internal/config"
	"netrush/internal/grid"
	"netrush/internal/netlog"
	"netrush/internal/render"
	"netrush/internal/wire"
)

// State is the client connection state machine (§4.2).
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StatePlaying:
		return "PLAYING"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrNotPlaying           = errors.New("client: claim sent while not in PLAYING state")
	ErrRetryBudgetExhausted = errors.New("client: event exceeded max retransmit attempts")
	ErrStaleSnapshot        = errors.New("client: full snapshot older than one already applied")
	ErrDuplicateSnapshot    = errors.New("client: snapshot id already applied")
)

// pendingEvent is one outstanding EVENT awaiting an ACK (§4.5 RDT).
type pendingEvent struct {
	packet  []byte
	cell    grid.Cell
	sentAt  time.Time
	retries int
}

// Session is one client's connection to the authoritative server.
type Session struct {
	cfg    config.Config
	log    *netlog.Logger
	render render.Sink

	mu           sync.Mutex
	state        State
	clientID     uint32
	grid         *grid.Grid
	reassembler  *reassembler
	outSeq       uint32
	outstanding  map[uint32]*pendingEvent
	winners      []uint32
	lastInitSent time.Time
}

// New constructs a disconnected Session with an empty grid replica.
func New(cfg config.Config, sink render.Sink) *Session {
	if sink == nil {
		sink = render.Discard{}
	}
	return &Session{
		cfg:         cfg,
		log:         netlog.Named("client"),
		render:      sink,
		state:       StateDisconnected,
		grid:        grid.New(cfg.GridSide),
		reassembler: newReassembler(),
		outstanding: make(map[uint32]*pendingEvent),
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Grid exposes the client's replica grid for rendering or inspection.
func (s *Session) Grid() *grid.Grid { return s.grid }

// ClientID returns the id assigned by the server's INIT_ACK, or 0
// before the handshake completes.
func (s *Session) ClientID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// Connect builds the INIT packet and moves to CONNECTING. Calling it
// again while CONNECTING or PLAYING re-sends INIT, which doubles as
// the heartbeat the server replies to idempotently (§4.2).
func (s *Session) Connect(now time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateDisconnected {
		s.state = StateConnecting
	}
	s.lastInitSent = now
	pkt, err := wire.Encode(wire.Header{
		MsgType:     wire.MsgInit,
		TimestampMs: uint64(now.UnixMilli()),
	}, nil)
	if err != nil {
		return nil, err
	}
	if err := wire.CheckDatagramSize(pkt, s.cfg.MaxDatagram); err != nil {
		return nil, err
	}
	return pkt, nil
}

// OnInitAck processes an INIT_ACK, adopting the assigned client id and
// transitioning to PLAYING.
func (s *Session) OnInitAck(body []byte) error {
	ack, err := wire.DecodeInitAck(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientID = ack.ClientID
	if s.state == StateConnecting {
		s.state = StatePlaying
	}
	s.log.Info("connected", zap.Uint32("client_id", s.clientID))
	return nil
}

// SendClaim builds and records an outbound EVENT for the given cell,
// marking it pending in the retransmit table (§4.5).
func (s *Session) SendClaim(cell grid.Cell, now time.Time) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return nil, ErrNotPlaying
	}

	seq := s.outSeq
	s.outSeq++

	ev := wire.Event{
		CellIndex:   uint32(cell.Row*s.grid.Side() + cell.Col),
		ClientID:    s.clientID,
		TimestampMs: uint64(now.UnixMilli()),
	}
	body := ev.Encode()
	pkt, err := encodePacket(s.cfg, wire.MsgEvent, 0, seq, uint64(now.UnixMilli()), body, false)
	if err != nil {
		return nil, err
	}

	s.outstanding[seq] = &pendingEvent{packet: pkt, cell: cell, sentAt: now}
	s.render.OnPending(cell, true)
	return pkt, nil
}

// OnAck resolves an outstanding EVENT against the server's decision,
// applying the authoritative owner to the local grid replica even when
// it differs from what was requested (contention loss, §4.3).
func (s *Session) OnAck(hdr wire.Header, ack wire.Ack, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.outstanding[hdr.SeqNum]
	if ok {
		delete(s.outstanding, hdr.SeqNum)
		s.render.OnPending(pending.cell, false)
	}

	side := s.grid.Side()
	cell := grid.Cell{Row: int(ack.CellIndex) / side, Col: int(ack.CellIndex) % side}
	if _, claimed := s.grid.Claim(cell, int(ack.Owner)); claimed {
		s.render.OnGridChanged(cell, int(ack.Owner), now)
	}
}

// OnSnapshot applies a SNAPSHOT payload through the reassembler,
// forwarding any newly-resolved cells to the render sink. A non-nil
// error (ErrStaleSnapshot, ErrDuplicateSnapshot) is diagnostic only —
// the body's delta and redundancy entries are still applied via
// first-claim-wins, since both are idempotent (§4.6).
func (s *Session) OnSnapshot(hdr wire.Header, body wire.SnapshotBody, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newlyClaimed, err := s.reassembler.apply(hdr.SnapshotID, body, s.grid)
	for _, ch := range newlyClaimed {
		s.render.OnGridChanged(grid.Cell{Row: ch.Row, Col: ch.Col}, ch.Owner, now)
	}
	return err
}

// OnGameOver adopts the final grid and winner list and transitions to
// GAME_OVER. Every call re-applies the final grid and winners it is
// given; it does not look at snapshot ids, so repeated copies of the
// triplicate broadcast (§4.7) are not filtered out and simply leave
// the same state in place.
func (s *Session) OnGameOver(over wire.GameOver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grid.Reset(over.FinalGrid)
	s.winners = over.Winners
	s.state = StateGameOver
}

// Winners returns the winner list once GAME_OVER has been observed.
func (s *Session) Winners() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winners
}

// CheckRetransmits scans the outstanding EVENT table for entries past
// the RDT timeout, returning the packets to resend. An entry that has
// exhausted its retry budget is dropped and reported via err rather
// than resent forever (§4.5).
func (s *Session) CheckRetransmits(now time.Time) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var resends [][]byte
	var firstErr error
	for seq, p := range s.outstanding {
		if now.Sub(p.sentAt) < s.cfg.RDTTimeout {
			continue
		}
		if p.retries >= s.cfg.MaxRetries {
			delete(s.outstanding, seq)
			s.render.OnPending(p.cell, false)
			if firstErr == nil {
				firstErr = errors.Wrapf(ErrRetryBudgetExhausted, "seq %d cell %v", seq, p.cell)
			}
			continue
		}
		p.retries++
		p.sentAt = now
		resends = append(resends, p.packet)
	}
	return resends, firstErr
}

// CheckHeartbeat re-sends INIT when it is due: every RDTTimeout while
// CONNECTING (the INIT retransmit timer, unlimited retries until an
// INIT_ACK arrives) and every HeartbeatInterval while PLAYING (the
// keep-alive overload of INIT that refreshes the server's LastSeen and
// keeps PruneStale from evicting an idle-but-connected client, §4.4/§9).
// It returns nil once DISCONNECTED or GAME_OVER, where no retransmit
// applies.
func (s *Session) CheckHeartbeat(now time.Time) ([]byte, error) {
	s.mu.Lock()
	state := s.state
	due := s.lastInitSent
	s.mu.Unlock()

	var interval time.Duration
	switch state {
	case StateConnecting:
		interval = s.cfg.RDTTimeout
	case StatePlaying:
		interval = s.cfg.HeartbeatInterval
	default:
		return nil, nil
	}
	if now.Sub(due) < interval {
		return nil, nil
	}
	return s.Connect(now)
}
