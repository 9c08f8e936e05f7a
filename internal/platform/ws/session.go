package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
	"github.com/vovakirdan/gravity-duel/internal/protocol"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 4096
)

var errSendBufferFull = errors.New("ws: send buffer full")

// wsSession is a SessionHandle backed by one WebSocket connection. Events are
// encoded on Send and written by the write pump.
type wsSession struct {
	id     multiplayer.SessionID
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *log.Logger
}

func newSession(id multiplayer.SessionID, buffer int, logger *log.Logger) *wsSession {
	if buffer < 1 {
		buffer = 64
	}
	return &wsSession{
		id:     id,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *wsSession) ID() multiplayer.SessionID {
	return s.id
}

// Send queues an encoded event without blocking. A full buffer means the
// client stopped reading; the event is dropped and reported to the room.
func (s *wsSession) Send(evt multiplayer.SessionEvent) error {
	select {
	case <-s.done:
		return multiplayer.ErrSessionClosed
	default:
	}

	frame, err := protocol.EncodeEvent(evt)
	if err != nil {
		return err
	}

	select {
	case s.send <- frame:
		return nil
	default:
		return errSendBufferFull
	}
}

func (s *wsSession) Done() <-chan struct{} {
	return s.done
}

func (s *wsSession) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// writePump drains the send queue and keeps the connection alive with pings.
func (s *wsSession) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("write failed", "session", s.id, "err", err)
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
