package server

import "netrush/internal/wire"

// encodePacket wraps body per the compression policy and frames it with
// a header, ready to hand to the transport layer.
func (s *Server) encodePacket(msgType wire.MsgType, snapshotID, seqNum uint32, tsMs uint64, body []byte, force bool) ([]byte, error) {
	wrapped, err := wire.Wrap(body, s.cfg.CompressionThreshold, force)
	if err != nil {
		return nil, err
	}
	pkt, err := wire.Encode(wire.Header{
		MsgType:     msgType,
		SnapshotID:  snapshotID,
		SeqNum:      seqNum,
		TimestampMs: tsMs,
	}, wrapped)
	if err != nil {
		return nil, err
	}
	if err := wire.CheckDatagramSize(pkt, s.cfg.MaxDatagram); err != nil {
		return nil, err
	}
	return pkt, nil
}
