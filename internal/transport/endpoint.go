// Package transport abstracts the OS UDP socket behind a small interface
// so session logic and tests never touch *net.UDPConn directly (§4.3,
// "deliberately out of scope: operating-system socket binding" — this
// package is the seam).
package transport

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Endpoint is a datagram send/receive surface. ReadFrom blocks until a
// packet arrives, ctx is done, or the endpoint is closed.
type Endpoint interface {
	ReadFrom(ctx context.Context) (pkt []byte, addr net.Addr, err error)
	WriteTo(pkt []byte, addr net.Addr) error
	LocalAddr() net.Addr
	Close() error
}

// udpEndpoint is the production Endpoint backed by a real UDP socket.
type udpEndpoint struct {
	conn *net.UDPConn
}

// ListenUDP binds a UDP socket at host:port and returns it as an
// Endpoint.
func ListenUDP(host string, port int) (Endpoint, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: bind %s:%d", host, port)
	}
	return &udpEndpoint{conn: conn}, nil
}

// DialUDP connects a UDP socket to a remote host:port (client side).
func DialUDP(host string, port int) (Endpoint, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dial %s:%d", host, port)
	}
	return &udpEndpoint{conn: conn}, nil
}

const maxReadSize = 2048

func (e *udpEndpoint) ReadFrom(ctx context.Context) ([]byte, net.Addr, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = e.conn.SetReadDeadline(deadline)
	} else {
		_ = e.conn.SetReadDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() { _ = e.conn.SetReadDeadline(time.Unix(1, 0)) })
	defer stop()

	buf := make([]byte, maxReadSize)
	n, addr, err := e.conn.ReadFromUDP(buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, err
	}
	return buf[:n], addr, nil
}

func (e *udpEndpoint) WriteTo(pkt []byte, addr net.Addr) error {
	if addr == nil {
		_, err := e.conn.Write(pkt)
		return err
	}
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return errors.New("transport: addr is not a *net.UDPAddr")
	}
	_, err := e.conn.WriteToUDP(pkt, udpAddr)
	return err
}

func (e *udpEndpoint) LocalAddr() net.Addr { return e.conn.LocalAddr() }

func (e *udpEndpoint) Close() error { return e.conn.Close() }
