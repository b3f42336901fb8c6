package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"netrush/internal/client"
	"netrush/internal/config"
	"netrush/internal/grid"
	"netrush/internal/netlog"
	"netrush/internal/transport"
)

const version = "1.0.0"

// consoleSink is a render.Sink that prints grid changes to the log
// instead of driving a real renderer, which is out of scope here.
type consoleSink struct{ log *netlog.Logger }

func (c consoleSink) OnGridChanged(cell grid.Cell, owner int, _ time.Time) {
	c.log.Info("cell claimed", zap.Int("row", cell.Row), zap.Int("col", cell.Col), zap.Int("owner", owner))
}

func (c consoleSink) OnPending(cell grid.Cell, pending bool) {
	c.log.Debug("cell pending", zap.Int("row", cell.Row), zap.Int("col", cell.Col), zap.Bool("pending", pending))
}

func main() {
	netlog.Banner("NetRush Client", version)

	host := flag.String("host", "127.0.0.1", "server address")
	port := flag.Int("port", config.Default().Port, "server UDP port")
	gridSide := flag.Int("grid", config.Default().GridSide, "grid dimension N, must match the server")
	flag.Parse()

	cfg := config.New(config.WithHost(*host), config.WithPort(*port), config.WithGridSide(*gridSide))
	log := netlog.Named("main")

	ep, err := transport.DialUDP(cfg.Host, cfg.Port)
	if err != nil {
		log.Fatal("dial failed", zap.Error(err))
	}
	defer ep.Close()

	sess := client.New(cfg, consoleSink{log: netlog.Named("render")})

	initPkt, err := sess.Connect(time.Now())
	if err != nil {
		log.Fatal("connect failed", zap.Error(err))
	}
	if err := ep.WriteTo(initPkt, nil); err != nil {
		log.Fatal("send INIT failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("received signal, shutting down")
		cancel()
		ep.Close()
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return receiveLoop(ctx, ep, sess, log) })
	g.Go(func() error { return retransmitLoop(ctx, ep, sess, cfg, log) })
	g.Go(func() error { return commandLoop(ctx, ep, sess, log) })

	if err := g.Wait(); err != nil {
		log.Warn("client stopped", zap.Error(err))
	}
	_ = log.Sync()
}

func receiveLoop(ctx context.Context, ep transport.Endpoint, sess *client.Session, log *netlog.Logger) error {
	for {
		pkt, _, err := ep.ReadFrom(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := sess.HandlePacket(pkt, time.Now()); err != nil {
			log.Debug("dropped packet", zap.Error(err))
		}
	}
}

func retransmitLoop(ctx context.Context, ep transport.Endpoint, sess *client.Session, cfg config.Config, log *netlog.Logger) error {
	ticker := time.NewTicker(cfg.RDTTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			resends, err := sess.CheckRetransmits(now)
			if err != nil {
				log.Warn("event exceeded retry budget", zap.Error(err))
			}
			for _, pkt := range resends {
				if err := ep.WriteTo(pkt, nil); err != nil {
					log.Warn("resend failed", zap.Error(err))
				}
			}
			if pkt, err := sess.CheckHeartbeat(now); err != nil {
				log.Warn("heartbeat send failed", zap.Error(err))
			} else if pkt != nil {
				if err := ep.WriteTo(pkt, nil); err != nil {
					log.Warn("heartbeat send failed", zap.Error(err))
				}
			}
		}
	}
}

// commandLoop reads "row col" lines from stdin and sends them as
// claim events — the minimal input surface standing in for the
// out-of-scope interactive renderer.
func commandLoop(ctx context.Context, ep transport.Endpoint, sess *client.Session, log *netlog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			fmt.Println("usage: <row> <col>")
			continue
		}
		row, err1 := strconv.Atoi(fields[0])
		col, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			fmt.Println("usage: <row> <col>")
			continue
		}
		pkt, err := sess.SendClaim(grid.Cell{Row: row, Col: col}, time.Now())
		if err != nil {
			log.Warn("claim rejected", zap.Error(err))
			continue
		}
		if err := ep.WriteTo(pkt, nil); err != nil {
			log.Warn("send claim failed", zap.Error(err))
		}
	}
	return nil
}
