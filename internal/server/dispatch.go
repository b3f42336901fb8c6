package server

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"netrush/internal/wire"
)

// ErrUnexpectedMsgType is returned when a client sends a message type
// the server never expects inbound (SNAPSHOT, INIT_ACK, ACK, GAME_OVER).
var ErrUnexpectedMsgType = errors.New("server: unexpected inbound message type")

// HandlePacket decodes a single inbound datagram and routes it to the
// matching handler, returning the response packet to send back to addr
// (nil if the packet warrants no reply).
func (s *Server) HandlePacket(addr net.Addr, buf []byte, now time.Time) ([]byte, error) {
	hdr, payload, err := wire.Decode(buf)
	if err != nil {
		return nil, err
	}
	body, err := wire.Unwrap(payload)
	if err != nil {
		return nil, err
	}

	switch hdr.MsgType {
	case wire.MsgInit:
		return s.AcceptInit(addr, now)
	case wire.MsgEvent:
		ev, err := wire.DecodeEvent(body)
		if err != nil {
			return nil, err
		}
		return s.IngestEvent(addr, hdr, ev, now)
	default:
		s.log.Warn("dropping unexpected inbound message",
			zap.String("type", hdr.MsgType.String()), zap.String("addr", addr.String()))
		return nil, errors.Wrapf(ErrUnexpectedMsgType, "got %s", hdr.MsgType)
	}
}
