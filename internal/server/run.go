package server

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"netrush/internal/transport"
)

// Run drives the server to completion: a receive loop, the snapshot
// scheduler tick, and the stale-session reaper, each as a cooperating
// goroutine under one errgroup so any one's fatal error tears the rest
// down together (§5).
func (s *Server) Run(ctx context.Context, ep transport.Endpoint) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.receiveLoop(ctx, ep) })
	g.Go(func() error { return s.tickLoop(ctx, ep) })
	g.Go(func() error { return s.pruneLoop(ctx) })

	return g.Wait()
}

func (s *Server) receiveLoop(ctx context.Context, ep transport.Endpoint) error {
	for {
		pkt, addr, err := ep.ReadFrom(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				s.log.Warn("read timed out", zap.Error(err))
				continue
			}
			return err
		}

		resp, err := s.HandlePacket(addr, pkt, time.Now())
		if err != nil {
			s.log.Debug("packet rejected", zap.String("addr", addr.String()), zap.Error(err))
			continue
		}
		if resp == nil {
			continue
		}
		if err := ep.WriteTo(resp, addr); err != nil {
			s.log.Warn("write failed", zap.String("addr", addr.String()), zap.Error(err))
		}
	}
}

func (s *Server) tickLoop(ctx context.Context, ep transport.Endpoint) error {
	ticker := time.NewTicker(s.cfg.TickPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, b := range s.Tick(now) {
				if err := ep.WriteTo(b.Packet, b.Addr); err != nil {
					s.log.Warn("broadcast failed", zap.String("addr", b.Addr.String()), zap.Error(err))
				}
			}
		}
	}
}

func (s *Server) pruneLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.ClientTimeout / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.PruneStale(now)
		}
	}
}
