package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"netrush/internal/config"
	"netrush/internal/metrics"
	"netrush/internal/netlog"
	"netrush/internal/server"
	"netrush/internal/transport"
)

const version = "1.0.0"

func main() {
	netlog.Banner("NetRush Server", version)

	host := flag.String("host", config.Default().Host, "bind address")
	port := flag.Int("port", config.Default().Port, "UDP port")
	gridSide := flag.Int("grid", config.Default().GridSide, "grid dimension N")
	maxClients := flag.Int("max-clients", config.Default().MaxClients, "max connected clients")
	flag.Parse()

	cfg := config.New(
		config.WithHost(*host),
		config.WithPort(*port),
		config.WithGridSide(*gridSide),
		config.WithMaxClients(*maxClients),
	)

	log := netlog.Named("main")
	netlog.Section("Starting server")
	log.Info("configuration loaded",
		zap.String("host", cfg.Host), zap.Int("port", cfg.Port),
		zap.Int("grid_side", cfg.GridSide), zap.Int("max_clients", cfg.MaxClients),
	)

	ep, err := transport.ListenUDP(cfg.Host, cfg.Port)
	if err != nil {
		log.Fatal("bind failed", zap.Error(err))
	}
	defer ep.Close()

	srv := server.New(cfg, metrics.Discard{})

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx, ep) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped with error", zap.Error(err))
		}
	case sig := <-sigCh:
		log.Warn("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		<-errCh
	}

	_ = log.Sync()
}
