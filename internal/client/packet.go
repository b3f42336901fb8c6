package client

import (
	"netrush/internal/config"
	"netrush/internal/wire"
)

// encodePacket wraps body per the compression policy and frames it
// with a header, mirroring the server's own encodePacket so both
// sides agree on compression behavior independent of direction.
func encodePacket(cfg config.Config, msgType wire.MsgType, snapshotID, seqNum uint32, tsMs uint64, body []byte, force bool) ([]byte, error) {
	wrapped, err := wire.Wrap(body, cfg.CompressionThreshold, force)
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
	if err := wire.CheckDatagramSize(pkt, cfg.MaxDatagram); err != nil {
		return nil, err
	}
	return pkt, nil
}
