package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
)

// FakeAddr is an in-memory stand-in for a *net.UDPAddr, used only by the
// fake transport pair below.
type FakeAddr struct{ Name string }

func (a FakeAddr) Network() string { return "fake" }
func (a FakeAddr) String() string  { return a.Name }

type inboundPacket struct {
	pkt  []byte
	from net.Addr
}

// FakeEndpoint is an in-memory Endpoint used by tests to drive full
// client/server scenarios (§8) without binding an OS socket. Pair two
// FakeEndpoints with NewFakePair; writes to one arrive as reads on the
// other.
type FakeEndpoint struct {
	self  FakeAddr
	inbox chan inboundPacket
	peer  *FakeEndpoint // set after both ends exist

	mu     sync.Mutex
	closed bool
}

// NewFakePair returns two connected endpoints, "a" and "b".
func NewFakePair(nameA, nameB string) (a, b *FakeEndpoint) {
	a = &FakeEndpoint{self: FakeAddr{Name: nameA}, inbox: make(chan inboundPacket, 256)}
	b = &FakeEndpoint{self: FakeAddr{Name: nameB}, inbox: make(chan inboundPacket, 256)}
	a.peer = b
	b.peer = a
	return a, b
}

func (e *FakeEndpoint) ReadFrom(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case p, ok := <-e.inbox:
		if !ok {
			return nil, nil, fmt.Errorf("transport: fake endpoint %s closed", e.self.Name)
		}
		return p.pkt, p.from, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (e *FakeEndpoint) WriteTo(pkt []byte, _ net.Addr) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return fmt.Errorf("transport: fake endpoint %s closed", e.self.Name)
	}
	cp := make([]byte, len(pkt))
	copy(cp, pkt)
	e.peer.mu.Lock()
	defer e.peer.mu.Unlock()
	if e.peer.closed {
		return fmt.Errorf("transport: fake endpoint %s closed", e.peer.self.Name)
	}
	e.peer.inbox <- inboundPacket{pkt: cp, from: e.self}
	return nil
}

func (e *FakeEndpoint) LocalAddr() net.Addr { return e.self }

func (e *FakeEndpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.inbox)
	}
	return nil
}
