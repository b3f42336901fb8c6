package client

import (
	"testing"
	"time"

	"netrush/internal/config"
	"netrush/internal/grid"
	"netrush/internal/render"
	"netrush/internal/wire"
)

func testConfig() config.Config {
	c := config.Default()
	c.GridSide = 4
	c.RDTTimeout = 10 * time.Millisecond
	c.MaxRetries = 2
	c.HeartbeatInterval = 20 * time.Millisecond
	return c
}

func TestConnectAndInitAckTransitionsToPlaying(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)

	pkt, err := s.Connect(now)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	hdr, _, err := wire.Decode(pkt)
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if hdr.MsgType != wire.MsgInit {
		t.Fatalf("msg type = %v, want INIT", hdr.MsgType)
	}
	if s.State() != StateConnecting {
		t.Fatalf("state = %v, want CONNECTING", s.State())
	}

	ackBody := wire.InitAck{ClientID: 7}.Encode()
	if err := s.OnInitAck(ackBody); err != nil {
		t.Fatalf("OnInitAck: %v", err)
	}
	if s.State() != StatePlaying {
		t.Fatalf("state = %v, want PLAYING", s.State())
	}
}

func TestSendClaimRejectedBeforePlaying(t *testing.T) {
	s := New(testConfig(), nil)
	if _, err := s.SendClaim(grid.Cell{Row: 0, Col: 0}, time.Unix(0, 0)); err != ErrNotPlaying {
		t.Fatalf("err = %v, want ErrNotPlaying", err)
	}
}

func TestSendClaimThenAckAppliesOwner(t *testing.T) {
	rec := &render.Recorder{}
	s := New(testConfig(), rec)
	now := time.Unix(0, 0)
	s.Connect(now)
	s.OnInitAck(wire.InitAck{ClientID: 3}.Encode())

	pkt, err := s.SendClaim(grid.Cell{Row: 1, Col: 2}, now)
	if err != nil {
		t.Fatalf("SendClaim: %v", err)
	}
	hdr, payload, err := wire.Decode(pkt)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	body, _ := wire.Unwrap(payload)
	ev, err := wire.DecodeEvent(body)
	if err != nil {
		t.Fatalf("decode event record: %v", err)
	}
	if ev.ClientID != 3 {
		t.Fatalf("client id = %d, want 3", ev.ClientID)
	}

	ack := wire.Ack{CellIndex: ev.CellIndex, Owner: 3}
	s.OnAck(hdr, ack, now)

	if s.Grid().Owner(grid.Cell{Row: 1, Col: 2}) != 3 {
		t.Fatalf("owner not applied after ack")
	}
	if len(rec.Changes) != 1 || rec.Changes[0].Owner != 3 {
		t.Fatalf("render sink changes = %+v, want one owner-3 change", rec.Changes)
	}
	if len(rec.Pending) != 2 || rec.Pending[0].Pending != true || rec.Pending[1].Pending != false {
		t.Fatalf("pending events = %+v, want [true false]", rec.Pending)
	}
}

func TestOnSnapshotFullResetsGrid(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)

	body := wire.SnapshotBody{
		Full: true,
		Grid: []wire.Change{{Row: 0, Col: 0, Owner: 1}, {Row: 3, Col: 3, Owner: 2}},
	}
	s.OnSnapshot(wire.Header{SnapshotID: 0}, body, now)

	if s.Grid().Owner(grid.Cell{Row: 0, Col: 0}) != 1 {
		t.Fatalf("cell (0,0) not applied from full snapshot")
	}
	if s.Grid().Owner(grid.Cell{Row: 3, Col: 3}) != 2 {
		t.Fatalf("cell (3,3) not applied from full snapshot")
	}
}

func TestOnSnapshotIgnoresStaleFull(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)

	s.OnSnapshot(wire.Header{SnapshotID: 10}, wire.SnapshotBody{
		Full: true,
		Grid: []wire.Change{{Row: 0, Col: 0, Owner: 1}},
	}, now)

	// A stale, out-of-order full snapshot must not overwrite newer state.
	err := s.OnSnapshot(wire.Header{SnapshotID: 5}, wire.SnapshotBody{
		Full: true,
		Grid: []wire.Change{},
	}, now)
	if err != ErrStaleSnapshot {
		t.Fatalf("err = %v, want ErrStaleSnapshot", err)
	}

	if s.Grid().Owner(grid.Cell{Row: 0, Col: 0}) != 1 {
		t.Fatalf("stale full snapshot regressed grid state")
	}
}

func TestOnSnapshotDetectsDuplicate(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)

	body := wire.SnapshotBody{Changes: []wire.Change{{Row: 0, Col: 0, Owner: 1}}}
	if err := s.OnSnapshot(wire.Header{SnapshotID: 9}, body, now); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := s.OnSnapshot(wire.Header{SnapshotID: 9}, body, now); err != ErrDuplicateSnapshot {
		t.Fatalf("err = %v, want ErrDuplicateSnapshot", err)
	}
}

func TestOnSnapshotAppliesRedundantTail(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)

	s.OnSnapshot(wire.Header{SnapshotID: 2}, wire.SnapshotBody{
		Changes: []wire.Change{{Row: 1, Col: 1, Owner: 4}},
		Redundant: []wire.RedundantEntry{
			{SnapshotID: 0, Changes: []wire.Change{{Row: 0, Col: 0, Owner: 2}}},
			{SnapshotID: 1, Changes: []wire.Change{{Row: 2, Col: 2, Owner: 3}}},
		},
	}, now)

	if s.Grid().Owner(grid.Cell{Row: 0, Col: 0}) != 2 {
		t.Fatalf("redundant entry for a lost snapshot was not applied")
	}
	if s.Grid().Owner(grid.Cell{Row: 2, Col: 2}) != 3 {
		t.Fatalf("redundant entry for a lost snapshot was not applied")
	}
	if s.Grid().Owner(grid.Cell{Row: 1, Col: 1}) != 4 {
		t.Fatalf("current-tick change was not applied")
	}
}

func TestCheckRetransmitsResendsThenGivesUp(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)
	s.Connect(now)
	s.OnInitAck(wire.InitAck{ClientID: 1}.Encode())

	if _, err := s.SendClaim(grid.Cell{Row: 0, Col: 0}, now); err != nil {
		t.Fatalf("SendClaim: %v", err)
	}

	later := now.Add(s.cfg.RDTTimeout * 2)
	resends, err := s.CheckRetransmits(later)
	if err != nil {
		t.Fatalf("CheckRetransmits (retry 1): %v", err)
	}
	if len(resends) != 1 {
		t.Fatalf("resends = %d, want 1", len(resends))
	}

	later2 := later.Add(s.cfg.RDTTimeout * 2)
	resends2, err := s.CheckRetransmits(later2)
	if err != nil {
		t.Fatalf("CheckRetransmits (retry 2): %v", err)
	}
	if len(resends2) != 1 {
		t.Fatalf("resends2 = %d, want 1", len(resends2))
	}

	later3 := later2.Add(s.cfg.RDTTimeout * 2)
	_, err = s.CheckRetransmits(later3)
	if err == nil {
		t.Fatalf("expected max-retries error on third timeout")
	}
}

func TestCheckHeartbeatResendsInitWhileConnecting(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)
	if _, err := s.Connect(now); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	soon := now.Add(s.cfg.RDTTimeout / 2)
	pkt, err := s.CheckHeartbeat(soon)
	if err != nil {
		t.Fatalf("CheckHeartbeat: %v", err)
	}
	if pkt != nil {
		t.Fatalf("expected no resend before RDTTimeout elapses")
	}

	later := now.Add(s.cfg.RDTTimeout * 2)
	pkt, err = s.CheckHeartbeat(later)
	if err != nil {
		t.Fatalf("CheckHeartbeat: %v", err)
	}
	if pkt == nil {
		t.Fatalf("expected INIT resend while CONNECTING past RDTTimeout")
	}
	hdr, _, err := wire.Decode(pkt)
	if err != nil {
		t.Fatalf("decode resent init: %v", err)
	}
	if hdr.MsgType != wire.MsgInit {
		t.Fatalf("msg type = %v, want INIT", hdr.MsgType)
	}
	if s.State() != StateConnecting {
		t.Fatalf("state = %v, want CONNECTING still", s.State())
	}
}

func TestCheckHeartbeatKeepsAliveWhilePlaying(t *testing.T) {
	s := New(testConfig(), nil)
	now := time.Unix(0, 0)
	s.Connect(now)
	s.OnInitAck(wire.InitAck{ClientID: 1}.Encode())

	soon := now.Add(s.cfg.HeartbeatInterval / 2)
	if pkt, err := s.CheckHeartbeat(soon); err != nil || pkt != nil {
		t.Fatalf("expected no heartbeat before interval elapses, got pkt=%v err=%v", pkt, err)
	}

	later := now.Add(s.cfg.HeartbeatInterval * 2)
	pkt, err := s.CheckHeartbeat(later)
	if err != nil {
		t.Fatalf("CheckHeartbeat: %v", err)
	}
	if pkt == nil {
		t.Fatalf("expected INIT keep-alive resend while PLAYING past HeartbeatInterval")
	}
	hdr, _, err := wire.Decode(pkt)
	if err != nil {
		t.Fatalf("decode keep-alive: %v", err)
	}
	if hdr.MsgType != wire.MsgInit {
		t.Fatalf("msg type = %v, want INIT", hdr.MsgType)
	}
	if s.State() != StatePlaying {
		t.Fatalf("state = %v, want PLAYING still", s.State())
	}
}

func TestOnGameOverAdoptsFinalGrid(t *testing.T) {
	s := New(testConfig(), nil)
	over := wire.GameOver{
		Winners:   []uint32{2},
		FinalGrid: []wire.Change{{Row: 0, Col: 0, Owner: 2}},
	}
	s.OnGameOver(over)

	if s.State() != StateGameOver {
		t.Fatalf("state = %v, want GAME_OVER", s.State())
	}
	if len(s.Winners()) != 1 || s.Winners()[0] != 2 {
		t.Fatalf("winners = %v, want [2]", s.Winners())
	}
	if s.Grid().Owner(grid.Cell{Row: 0, Col: 0}) != 2 {
		t.Fatalf("final grid not adopted")
	}
}
