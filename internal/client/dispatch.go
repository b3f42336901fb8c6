package client

import (
	"time"

	"go.uber.org/zap"

	"netrush/internal/wire"
)

// HandlePacket decodes one inbound datagram from the server and routes
// it to the matching Session handler.
func (s *Session) HandlePacket(buf []byte, now time.Time) error {
	hdr, payload, err := wire.Decode(buf)
	if err != nil {
		return err
	}
	body, err := wire.Unwrap(payload)
	if err != nil {
		return err
	}

	switch hdr.MsgType {
	case wire.MsgInitAck:
		return s.OnInitAck(body)
	case wire.MsgAck:
		ack, err := wire.DecodeAck(body)
		if err != nil {
			return err
		}
		s.OnAck(hdr, ack, now)
		return nil
	case wire.MsgSnapshot:
		snap, err := wire.DecodeSnapshotBody(body)
		if err != nil {
			return err
		}
		if err := s.OnSnapshot(hdr, snap, now); err != nil {
			s.log.Debug("snapshot applied with a diagnostic note", zap.Error(err))
		}
		return nil
	case wire.MsgGameOver:
		over, err := wire.DecodeGameOver(body)
		if err != nil {
			return err
		}
		s.OnGameOver(over)
		return nil
	default:
		s.log.Debug("dropping unexpected message from server")
		return nil
	}
}
