package tui

import (
	"context"
	"sync"

	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
)

// Link is the client's connection to a room, either in-process or over the
// network. Events and Done must be valid before Connect.
type Link interface {
	CreateRoom(ctx context.Context) (multiplayer.CreateResult, error)
	JoinRoom(ctx context.Context, id multiplayer.RoomID) (multiplayer.JoinResult, error)
	Connect(ctx context.Context, id multiplayer.RoomID, player multiplayer.PlayerID) error
	Events() <-chan multiplayer.SessionEvent
	Done() <-chan struct{}
	Send(ctx context.Context, msg multiplayer.ClientMessage) error
	Close() error
}

// LocalLink binds a client to a Manager in the same process through a
// ChannelSession. Used by the SSH server.
type LocalLink struct {
	mgr    *multiplayer.Manager
	sess   *multiplayer.ChannelSession
	mu     sync.Mutex
	room   multiplayer.RoomID
	player multiplayer.PlayerID
}

// NewLocalLink creates a link whose session buffers up to buffer events.
func NewLocalLink(mgr *multiplayer.Manager, id multiplayer.SessionID, buffer int) *LocalLink {
	return &LocalLink{mgr: mgr, sess: multiplayer.NewChannelSession(id, buffer)}
}

// Session returns the underlying session handle.
func (l *LocalLink) Session() *multiplayer.ChannelSession {
	return l.sess
}

func (l *LocalLink) CreateRoom(ctx context.Context) (multiplayer.CreateResult, error) {
	return l.mgr.CreateRoom(ctx)
}

func (l *LocalLink) JoinRoom(ctx context.Context, id multiplayer.RoomID) (multiplayer.JoinResult, error) {
	return l.mgr.JoinRoom(ctx, id)
}

func (l *LocalLink) Connect(ctx context.Context, id multiplayer.RoomID, player multiplayer.PlayerID) error {
	if err := l.mgr.Connect(ctx, id, player, l.sess); err != nil {
		return err
	}
	l.mu.Lock()
	l.room, l.player = multiplayer.NormalizeRoomID(string(id)), player
	l.mu.Unlock()
	return nil
}

func (l *LocalLink) Events() <-chan multiplayer.SessionEvent {
	return l.sess.Events()
}

func (l *LocalLink) Done() <-chan struct{} {
	return l.sess.Done()
}

func (l *LocalLink) Send(ctx context.Context, msg multiplayer.ClientMessage) error {
	l.mu.Lock()
	room, player := l.room, l.player
	l.mu.Unlock()
	return l.mgr.Deliver(ctx, room, player, l.sess, msg)
}

// Close ends the session and frees the seat for a reconnect.
func (l *LocalLink) Close() error {
	l.sess.Close()
	l.mu.Lock()
	room, player := l.room, l.player
	l.mu.Unlock()
	if room != "" {
		l.mgr.Disconnect(room, player, l.sess.ID())
	}
	return nil
}
