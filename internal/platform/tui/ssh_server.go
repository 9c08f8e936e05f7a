package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file. If empty, a key is
	// generated at ~/.duel/ssh_host_ed25519.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// SessionBuffer is the per-session event buffer.
	SessionBuffer int

	Params      game.Params
	LevelParams game.LevelParams
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:       ":23234",
		IdleTimeout:   30 * time.Minute,
		SessionBuffer: 64,
		Params:        game.DefaultParams(),
		LevelParams:   game.DefaultLevelParams(),
	}
}

type linkKey struct{}

// SSHServer hosts the duel client over SSH. Every session plays against the
// shared room manager, so SSH and WebSocket players can meet in one room.
type SSHServer struct {
	config   SSHServerConfig
	server   *ssh.Server
	mgr      *multiplayer.Manager
	sessions *multiplayer.SessionRegistry
	logger   *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig, mgr *multiplayer.Manager, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.Default()
	}
	srv := &SSHServer{
		config:   cfg,
		mgr:      mgr,
		sessions: multiplayer.NewSessionRegistry(),
		logger:   logger.WithPrefix("ssh"),
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".duel", "ssh_host_ed25519")
	}

	// Ensure host key directory exists
	if mkdirErr := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", mkdirErr)
	}

	// Middlewares run last to first: logging, then the link, then Bubble Tea.
	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.linkMiddleware,
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a duel client for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}
	link, ok := sshSession.Context().Value(linkKey{}).(*LocalLink)
	if !ok {
		s.logger.Error("session has no room link", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: 60,
	}
	model := NewDuelModel(link, DuelOptions{
		Runtime:     cfg,
		Params:      s.config.Params,
		LevelParams: s.config.LevelParams,
	})
	return model, []tea.ProgramOption{tea.WithAltScreen()}
}

// linkMiddleware gives every SSH session its own room link and releases the
// seat when the session ends, however it ends.
func (s *SSHServer) linkMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		link := NewLocalLink(s.mgr, multiplayer.SessionID(uuid.NewString()), s.config.SessionBuffer)
		sshSession.Context().SetValue(linkKey{}, link)
		s.sessions.Register(link.Session())
		defer func() {
			_ = link.Close()
			s.sessions.Unregister(link.Session().ID())
		}()
		next(sshSession)
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
			"active", s.sessions.Count(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting SSH server", "address", s.config.Address)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSH server")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// ActiveSessions returns the number of connected SSH sessions.
func (s *SSHServer) ActiveSessions() int {
	return s.sessions.Count()
}
