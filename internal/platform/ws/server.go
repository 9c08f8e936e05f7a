// Package ws exposes the room manager over HTTP: JSON lifecycle endpoints and
// one WebSocket per seated player carrying the {type, data} protocol.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
	"github.com/vovakirdan/gravity-duel/internal/protocol"
)

// Options configures the HTTP transport.
type Options struct {
	Addr           string
	AllowedOrigins []string      // "*" allows any origin
	ReadTimeout    time.Duration // a silent client is dropped after this
	PingInterval   time.Duration // must be shorter than ReadTimeout
	SessionBuffer  int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Addr:           ":8787",
		AllowedOrigins: []string{"*"},
		ReadTimeout:    60 * time.Second,
		PingInterval:   25 * time.Second,
		SessionBuffer:  64,
	}
}

// Server serves the lifecycle API and WebSocket sessions.
type Server struct {
	mgr      *multiplayer.Manager
	opts     Options
	logger   *log.Logger
	upgrader websocket.Upgrader
	sessions *multiplayer.SessionRegistry
}

// NewServer creates a server bound to mgr.
func NewServer(mgr *multiplayer.Manager, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.PingInterval <= 0 || opts.PingInterval >= opts.ReadTimeout {
		opts.PingInterval = opts.ReadTimeout * 9 / 10
	}
	s := &Server{mgr: mgr, opts: opts, logger: logger, sessions: multiplayer.NewSessionRegistry()}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// Handler returns the HTTP routes wrapped in the CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreate)
	mux.HandleFunc("POST /api/rooms/{id}/join", s.handleJoin)
	mux.HandleFunc("GET /api/rooms/{id}", s.handleSummary)
	mux.HandleFunc("GET /api/rooms/{id}/ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.cors(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	res, err := s.mgr.CreateRoom(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	res, err := s.mgr.JoinRoom(r.Context(), multiplayer.RoomID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.mgr.Summary(r.Context(), multiplayer.RoomID(r.PathValue("id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"rooms":    s.mgr.RoomCount(),
		"sessions": s.sessions.Count(),
	})
}

// handleWebSocket seats the session before upgrading so lifecycle failures
// come back as plain HTTP errors.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := multiplayer.NormalizeRoomID(r.PathValue("id"))
	n, err := strconv.Atoi(r.URL.Query().Get("player"))
	if err != nil {
		s.writeError(w, multiplayer.ErrInvalidPlayer)
		return
	}
	player := multiplayer.PlayerID(n)

	logger := s.logger.With("room", roomID, "player", player)
	sess := newSession(multiplayer.SessionID(uuid.NewString()), s.opts.SessionBuffer, logger)

	if err := s.mgr.Connect(r.Context(), roomID, player, sess); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade failed", "err", err)
		sess.close()
		s.mgr.Disconnect(roomID, player, sess.ID())
		return
	}
	sess.conn = conn
	s.sessions.Register(sess)
	logger.Info("websocket connected", "session", sess.ID(), "remote", r.RemoteAddr)

	go sess.writePump(s.opts.PingInterval)
	s.readPump(roomID, player, sess)
}

// readPump feeds client frames to the room until the connection drops.
// Malformed frames are discarded; the connection stays open.
func (s *Server) readPump(roomID multiplayer.RoomID, player multiplayer.PlayerID, sess *wsSession) {
	defer func() {
		sess.close()
		s.sessions.Unregister(sess.ID())
		s.mgr.Disconnect(roomID, player, sess.ID())
		sess.logger.Info("websocket disconnected", "session", sess.ID())
	}()

	conn := sess.conn
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	})

	ctx := context.Background()
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.logger.Warn("read failed", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))

		msg, err := protocol.DecodeClientMessage(frame)
		if err != nil {
			sess.logger.Warn("discarding client frame", "err", err)
			continue
		}
		if err := s.mgr.Deliver(ctx, roomID, player, sess, msg); err != nil {
			sess.logger.Warn("room gone", "err", err)
			return
		}
	}
}

func (s *Server) allowed(origin string) bool {
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

// checkOrigin admits non-browser clients, same-host pages and the allow list.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	if s.allowed(origin) {
		return true
	}
	s.logger.Warn("rejected websocket origin", "origin", origin)
	return false
}

// cors answers preflight requests and decorates every response.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		switch {
		case slices.Contains(s.opts.AllowedOrigins, "*"):
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && s.allowed(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := multiplayer.ErrorCode(err)
	status := http.StatusInternalServerError
	switch code {
	case "ROOM_NOT_FOUND":
		status = http.StatusNotFound
	case "ROOM_FULL":
		status = http.StatusConflict
	case "INVALID_PLAYER":
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
