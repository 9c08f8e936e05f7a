package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gravity-duel/internal/config"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
	"github.com/vovakirdan/gravity-duel/internal/platform/tui"
	"github.com/vovakirdan/gravity-duel/internal/platform/ws"
	"github.com/vovakirdan/gravity-duel/internal/storage"
)

var (
	flagServerConfig string
	flagHTTPAddr     string
	flagSSHAddr      string
	flagHostKey      string
	flagEvictAfter   time.Duration
	flagIdleTimeout  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the duel room server",
	Long: `Start the authoritative room server.

Browsers and 'duel play' clients create and join rooms over HTTP and play over
one WebSocket per seat. With --ssh, the terminal client is also served over SSH;
SSH and WebSocket players share the same rooms.

Rooms are persisted to SQLite and survive restarts. A room with no connected
players is evicted after --evict-after; its final score is archived first.

Configuration is read from --config, ~/.duel/configs/server.yaml,
./configs/server.yaml or the embedded defaults, then from .env and DUEL_*
environment variables. Flags override everything.

Examples:
  duel serve                            # HTTP on :8787
  duel serve --http 127.0.0.1:9000      # Different listen address
  duel serve --ssh :23234               # Also serve the terminal client over SSH
  duel serve --db ./duel.db --evict-after 15m

Players connect with:
  ssh localhost -p 23234
  duel play --server localhost:8787`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServerConfig, "config", "", "Path to custom server config YAML")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP/WebSocket listen address (host:port)")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "Also serve the terminal client over SSH at this address")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file (auto-generated if missing)")
	serveCmd.Flags().DurationVar(&flagEvictAfter, "evict-after", 0, "Evict rooms idle this long with nobody connected")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "SSH idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := newLogger()

	cfg, err := config.LoadServer(flagServerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading server config: %v\n", err)
		os.Exit(1)
	}
	gameCfg := loadGame()

	// Flags override config and environment
	if flagHTTPAddr != "" {
		cfg.HTTP.Addr = flagHTTPAddr
	}
	if flagSSHAddr != "" {
		cfg.SSH.Enabled = true
		cfg.SSH.Addr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKeyPath = flagHostKey
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagEvictAfter > 0 {
		cfg.Rooms.EvictAfter = flagEvictAfter
	}

	if err := serve(cfg, gameCfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the listeners until a signal arrives or one of them fails.
func serve(cfg config.ServerConfig, gameCfg config.GameConfig, logger *log.Logger) error {
	store, err := storage.Open(config.ExpandHome(cfg.Storage.Path))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	params := gameCfg.Params()
	mgr := multiplayer.NewManager(cfg.ManagerConfig(params), store, logger.WithPrefix("rooms"))
	defer mgr.Stop()

	httpServer := ws.NewServer(mgr, ws.Options{
		Addr:           cfg.HTTP.Addr,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		PingInterval:   cfg.HTTP.PingInterval,
		SessionBuffer:  cfg.Rooms.SessionBuffer,
	}, logger.WithPrefix("http"))

	var sshServer *tui.SSHServer
	if cfg.SSH.Enabled {
		sshServer, err = tui.NewSSHServer(tui.SSHServerConfig{
			Address:       cfg.SSH.Addr,
			HostKeyPath:   config.ExpandHome(cfg.SSH.HostKeyPath),
			IdleTimeout:   time.Duration(flagIdleTimeout) * time.Minute,
			SessionBuffer: cfg.Rooms.SessionBuffer,
			Params:        params,
			LevelParams:   gameCfg.LevelParams(),
		}, mgr, logger)
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving",
		"http", cfg.HTTP.Addr,
		"ssh", sshAddr(sshServer),
		"db", cfg.Storage.Path,
		"evict_after", cfg.Rooms.EvictAfter,
	)

	// Either listener failing stops the other.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	running := 1
	go func() { errCh <- httpServer.ListenAndServe(ctx) }()
	if sshServer != nil {
		running++
		go func() { errCh <- sshServer.ListenAndServe(ctx) }()
	}

	var firstErr error
	for range running {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	if firstErr == nil {
		logger.Info("bye")
	}
	return firstErr
}

func sshAddr(s *tui.SSHServer) string {
	if s == nil {
		return "off"
	}
	return s.Addr()
}
