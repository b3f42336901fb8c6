// Package server implements the authoritative side of NetRush: per-client
// records, the grid, the inbound event conflict resolver, the snapshot
// scheduler and the game lifecycle state machine (§4.3, §4.5, §4.7).
//
// The grid and the session table form a single logical atom (§5): every
// exported method here takes Server.mu before touching either, and never
// blocks on I/O while holding it.
package server

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"netrush/internal/config"
	"netrush/internal/grid"
	"netrush/internal/metrics"
	"netrush/internal/netlog"
	"netrush/internal/wire"
)

// Phase is the server's game lifecycle state machine (§4.3).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseRunning:
		return "RUNNING"
	case PhaseGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrUnknownSender    = errors.New("server: event sender is not a known session")
	ErrCapacityExceeded = errors.New("server: max clients reached")
	ErrClientIDMismatch = errors.New("server: event client id does not match session")
)

// clientRecord is the server-side per-client session record (§3).
type clientRecord struct {
	ID       uint32
	Addr     net.Addr
	TraceID  uuid.UUID
	LastSeen time.Time
	initAck  []byte // cached encoded INIT_ACK, resent verbatim on INIT replay
	outSeq   uint32 // this session's outbound (server->client) seq counter
}

// changeLogEntry is one tick's worth of changes, kept long enough to
// populate the redundancy tail (§3 "Change-log memory").
type changeLogEntry struct {
	snapshotID uint32
	changes    []wire.Change
}

// Server owns the authoritative grid, the session table, the change
// log, and the game lifecycle phase as one mutex-guarded unit.
type Server struct {
	cfg     config.Config
	log     *netlog.Logger
	metrics metrics.Sink

	mu           sync.Mutex
	phase        Phase
	grid         *grid.Grid
	clients      map[uint32]*clientRecord
	byAddr       map[string]uint32
	nextClientID uint32

	changeLog  []changeLogEntry // most recent first, trimmed to K+1
	pending    []wire.Change    // accumulated since the previous tick
	nextSnapID uint32

	gameOverRemaining  int    // broadcasts left to send, 0 when none pending
	gameOverSnapshotID uint32 // shared snapshot id across the triple send
}

// New constructs a Server in PhaseIdle with an empty grid.
func New(cfg config.Config, sink metrics.Sink) *Server {
	if sink == nil {
		sink = metrics.Discard{}
	}
	return &Server{
		cfg:          cfg,
		log:          netlog.Named("server"),
		metrics:      sink,
		phase:        PhaseIdle,
		grid:         grid.New(cfg.GridSide),
		clients:      make(map[uint32]*clientRecord),
		byAddr:       make(map[string]uint32),
		nextClientID: 1,
	}
}

// Phase returns the current lifecycle phase.
func (s *Server) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// GridSnapshot exposes the authoritative grid for inspection (tests,
// diagnostics). Callers must not mutate it.
func (s *Server) GridSnapshot() *grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}
