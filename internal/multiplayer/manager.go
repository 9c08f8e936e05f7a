package multiplayer

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"math"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gravity-duel/internal/game"
)

// ManagerConfig holds configuration for the room manager.
type ManagerConfig struct {
	EvictAfter     time.Duration // How long a room may stay without sessions
	HistoryWindow  int           // Shot history entries kept in the record
	InboxSize      int           // Per-room command buffer
	PersistTimeout time.Duration // Upper bound for one store write
	Params         game.Params   // Shot parameter bounds
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		EvictAfter:     time.Hour,
		HistoryWindow:  8,
		InboxSize:      64,
		PersistTimeout: 5 * time.Second,
		Params:         game.DefaultParams(),
	}
}

// Manager routes lifecycle requests and client messages to room actors.
// Rooms are spawned on creation and lazily hydrated from the store after a
// restart.
type Manager struct {
	cfg    ManagerConfig
	store  RoomStore
	logger *log.Logger
	seedFn func() int32

	mu     sync.Mutex
	rooms  map[RoomID]*Room
	closed bool
}

// NewManager creates a new manager. A nil store disables persistence.
func NewManager(cfg ManagerConfig, store RoomStore, logger *log.Logger) *Manager {
	if store == nil {
		store = nopStore{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.InboxSize < 1 {
		cfg.InboxSize = 64
	}
	return &Manager{
		cfg:    cfg,
		store:  store,
		logger: logger,
		seedFn: randomSeed,
		rooms:  make(map[RoomID]*Room),
	}
}

// SetSeedSource overrides how match seeds are minted.
func (m *Manager) SetSeedSource(fn func() int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedFn = fn
}

// randomSeed mints a non-negative 31-bit seed. Match seeds need not be
// reproducible.
func randomSeed() int32 {
	return mrand.Int32N(math.MaxInt32)
}

// CreateRoom mints a seed, persists a WAITING room with player 1 bound and
// starts its actor.
func (m *Manager) CreateRoom(ctx context.Context) (CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return CreateResult{}, ErrManagerStopped
	}

	id, err := m.uniqueCode(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	rec := NewRoomRecord(id, m.seedFn(), time.Now())
	if err := m.store.SaveRoom(ctx, rec); err != nil {
		return CreateResult{}, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	m.spawn(rec)
	m.logger.Info("room created", "room", id, "seed", rec.Seed)
	return CreateResult{RoomID: id, PlayerID: Player1, Seed: rec.Seed}, nil
}

// JoinRoom binds player 2 and starts the match.
func (m *Manager) JoinRoom(ctx context.Context, id RoomID) (JoinResult, error) {
	r, err := m.room(ctx, id)
	if err != nil {
		return JoinResult{}, err
	}

	reply := make(chan joinReply, 1)
	if err := r.post(joinCmd{ctx: ctx, reply: reply}); err != nil {
		return JoinResult{}, ErrRoomNotFound
	}
	res, err := await(r, reply)
	if err != nil {
		return JoinResult{}, ErrRoomNotFound
	}
	return res.res, res.err
}

// Connect binds a session to a seat. The session receives a room_state
// snapshot before Connect returns.
func (m *Manager) Connect(ctx context.Context, id RoomID, player PlayerID, s SessionHandle) error {
	r, err := m.room(ctx, id)
	if err != nil {
		return err
	}

	reply := make(chan error, 1)
	if err := r.post(connectCmd{player: player, session: s, reply: reply}); err != nil {
		return ErrRoomNotFound
	}
	res, err := await(r, reply)
	if err != nil {
		return ErrRoomNotFound
	}
	return res
}

// Disconnect unbinds a session. A disconnect from a session that was
// already replaced is ignored by the room.
func (m *Manager) Disconnect(id RoomID, player PlayerID, sid SessionID) {
	r, ok := m.loaded(id)
	if !ok {
		return
	}
	_ = r.post(disconnectCmd{player: player, session: sid})
}

// Deliver hands a client message to the room. Rejections are reported to
// the session as error events, not returned here.
func (m *Manager) Deliver(ctx context.Context, id RoomID, player PlayerID, s SessionHandle, msg ClientMessage) error {
	r, ok := m.loaded(id)
	if !ok {
		return ErrRoomNotFound
	}
	if err := r.post(deliverCmd{ctx: ctx, player: player, session: s, msg: msg}); err != nil {
		return ErrRoomNotFound
	}
	return nil
}

// Summary returns the public view of a room.
func (m *Manager) Summary(ctx context.Context, id RoomID) (RoomSummary, error) {
	r, err := m.room(ctx, id)
	if err != nil {
		return RoomSummary{}, err
	}
	reply := make(chan RoomSummary, 1)
	if err := r.post(summaryCmd{reply: reply}); err != nil {
		return RoomSummary{}, ErrRoomNotFound
	}
	sum, err := await(r, reply)
	if err != nil {
		return RoomSummary{}, ErrRoomNotFound
	}
	return sum, nil
}

// RoomCount returns the number of live room actors.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// Stop shuts down every room actor and waits for each to exit, so no store
// write is in flight once it returns. Persisted state is kept.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	rooms := make([]*Room, 0, len(m.rooms))
	for id, r := range m.rooms {
		r.Stop()
		rooms = append(rooms, r)
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	// Evicting rooms call back into forget, which takes m.mu.
	for _, r := range rooms {
		<-r.done
	}
}

// room returns the live actor for id, hydrating it from the store if needed.
func (m *Manager) room(ctx context.Context, id RoomID) (*Room, error) {
	id = NormalizeRoomID(string(id))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrRoomNotFound
	}
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}

	rec, err := m.store.LoadRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", id, err)
	}
	if rec == nil {
		return nil, ErrRoomNotFound
	}
	m.logger.Info("room hydrated", "room", id, "status", rec.Status, "level", rec.Level)
	return m.spawn(*rec), nil
}

func (m *Manager) loaded(id RoomID) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[NormalizeRoomID(string(id))]
	return r, ok
}

// spawn must be called with m.mu held.
func (m *Manager) spawn(rec RoomRecord) *Room {
	r := newRoom(rec, m.cfg, m.store, m.logger)
	r.onEvict = func() {
		m.forget(r)
	}
	m.rooms[rec.ID] = r
	go r.Run()
	return r
}

func (m *Manager) forget(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.id]; ok && cur == r {
		delete(m.rooms, r.id)
	}
}

// uniqueCode must be called with m.mu held.
func (m *Manager) uniqueCode(ctx context.Context) (RoomID, error) {
	for {
		code := RoomID(generateJoinCode())
		if _, exists := m.rooms[code]; exists {
			continue
		}
		rec, err := m.store.LoadRoom(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if rec == nil {
			return code, nil
		}
	}
}

// NormalizeRoomID canonicalizes a user-typed room code.
func NormalizeRoomID(s string) RoomID {
	return RoomID(strings.ToUpper(strings.TrimSpace(s)))
}

// generateJoinCode creates a 6-character uppercase alphanumeric code.
func generateJoinCode() string {
	b := make([]byte, 4) // 4 bytes = 32 bits, base32 encodes to 8 chars, we take 6
	_, err := rand.Read(b)
	if err != nil {
		// Fallback to timestamp-based
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	// Use base32 encoding (A-Z, 2-7), take first 6 chars
	return base32.StdEncoding.EncodeToString(b)[:6]
}
