package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/relay"
)

var flagRelayAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the websocket relay server",
	Long: `Run a relay that pairs players by room code and forwards their boards.
Clients connect with --relay-url ws://<host>:<port>/ws.

Routes:
  /ws            - websocket endpoint
  /healthz       - room and peer counts
  /rooms/{code}  - status of one room

Examples:
  neostack relay
  neostack relay --addr :9000 --log-level debug`,
	Args: cobra.NoArgs,
	Run:  runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&flagRelayAddr, "addr", relay.DefaultConfig().Addr, "Listen address (host:port)")
}

func runRelay(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	logger := newLogger("neostack-relay")

	hubCfg := multiplayer.DefaultHubConfig()
	hubCfg.LobbyTimeout = cfg.Sync.LobbyTimeout
	hub := multiplayer.NewHub(hubCfg, logger.WithPrefix("neostack-hub"))
	hub.Start()
	defer hub.Stop()

	server := relay.NewServer(relay.Config{
		Addr:         flagRelayAddr,
		WriteTimeout: cfg.Sync.RequestTimeout,
	}, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("relay stopped", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "err", err)
		}
	}
}
