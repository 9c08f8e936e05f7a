package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
	"github.com/vovakirdan/gravity-duel/internal/protocol"
)

// APIError is a non-200 answer from the lifecycle endpoints.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("ws: server answered %d", e.Status)
	}
	return fmt.Sprintf("ws: %s: %s", e.Code, e.Message)
}

var errNotConnected = errors.New("ws: not connected")

// Client talks to a remote duel server: HTTP for the room lifecycle and one
// WebSocket for the match. A Client serves a single match.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *log.Logger

	mu   sync.Mutex // serialises writes to conn
	conn *websocket.Conn

	events chan multiplayer.SessionEvent
	done   chan struct{}
	once   sync.Once
}

// NewClient creates a client for the server at serverURL ("host:port" or an
// http(s) URL).
func NewClient(serverURL string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("ws: invalid server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("ws: unsupported scheme %q", base.Scheme)
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		events: make(chan multiplayer.SessionEvent, 64),
		done:   make(chan struct{}),
	}, nil
}

// CreateRoom opens a new room and takes seat 1.
func (c *Client) CreateRoom(ctx context.Context) (multiplayer.CreateResult, error) {
	var res multiplayer.CreateResult
	err := c.post(ctx, "/api/rooms", &res)
	return res, err
}

// JoinRoom takes seat 2 of an existing room.
func (c *Client) JoinRoom(ctx context.Context, id multiplayer.RoomID) (multiplayer.JoinResult, error) {
	var res multiplayer.JoinResult
	err := c.post(ctx, "/api/rooms/"+url.PathEscape(string(id))+"/join", &res)
	return res, err
}

func (c *Client) post(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(path).String(), bytes.NewReader(nil))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ws: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}
		var body errorBody
		if json.NewDecoder(resp.Body).Decode(&body) == nil {
			apiErr.Code, apiErr.Message = body.Code, body.Error
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Connect opens the match WebSocket for player and starts delivering events.
func (c *Client) Connect(ctx context.Context, id multiplayer.RoomID, player multiplayer.PlayerID) error {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/rooms/" + url.PathEscape(string(id)) + "/ws"
	u.RawQuery = url.Values{"player": {strconv.Itoa(int(player))}}.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			apiErr := &APIError{Status: resp.StatusCode}
			var body errorBody
			if json.NewDecoder(resp.Body).Decode(&body) == nil {
				apiErr.Code, apiErr.Message = body.Code, body.Error
			}
			return apiErr
		}
		return fmt.Errorf("ws: dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.Close()
	conn.SetReadLimit(maxFrameSize * 4)
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("connection lost", "err", err)
			}
			return
		}
		evt, err := protocol.DecodeEvent(frame)
		if err != nil {
			c.logger.Debug("discarding server frame", "err", err)
			continue
		}
		select {
		case c.events <- evt:
		case <-c.done:
			return
		}
	}
}

// Events delivers server events in arrival order.
func (c *Client) Events() <-chan multiplayer.SessionEvent {
	return c.events
}

// Done closes when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Send encodes and writes a client message.
func (c *Client) Send(_ context.Context, msg multiplayer.ClientMessage) error {
	var (
		frame []byte
		err   error
	)
	switch m := msg.(type) {
	case multiplayer.FireMsg:
		frame, err = protocol.EncodeFire(m.Angle, int(m.Power))
	case multiplayer.ReportResultMsg:
		frame, err = protocol.EncodeReport(m)
	default:
		err = fmt.Errorf("ws: cannot send %T", msg)
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close ends the match connection. Safe to call multiple times.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.conn.Close()
		}
	})
	return nil
}
