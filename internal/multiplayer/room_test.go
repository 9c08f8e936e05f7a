package multiplayer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gravity-duel/internal/game"
)

const testSeed int32 = 42424242

// memStore is an in-memory RoomStore.
type memStore struct {
	mu       sync.Mutex
	rooms    map[RoomID]RoomRecord
	shots    map[RoomID][]ShotLogEntry
	archives []MatchArchive
	fail     bool
}

func newMemStore() *memStore {
	return &memStore{
		rooms: make(map[RoomID]RoomRecord),
		shots: make(map[RoomID][]ShotLogEntry),
	}
}

var errStoreDown = errors.New("store down")

func (s *memStore) SaveRoom(_ context.Context, rec RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.rooms[rec.ID] = rec.Clone()
	return nil
}

func (s *memStore) SaveShot(_ context.Context, rec RoomRecord, entry ShotLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errStoreDown
	}
	s.rooms[rec.ID] = rec.Clone()
	s.shots[rec.ID] = append(s.shots[rec.ID], entry)
	return nil
}

func (s *memStore) LoadRoom(_ context.Context, id RoomID) (*RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rooms[id]
	if !ok {
		return nil, nil
	}
	c := rec.Clone()
	return &c, nil
}

func (s *memStore) DeleteRoom(_ context.Context, id RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	delete(s.shots, id)
	return nil
}

func (s *memStore) ArchiveMatch(_ context.Context, a MatchArchive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives = append(s.archives, a)
	return nil
}

func (s *memStore) setFail(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = v
}

func (s *memStore) record(id RoomID) (RoomRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rooms[id]
	return rec, ok
}

func (s *memStore) shotLog(id RoomID) []ShotLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ShotLogEntry(nil), s.shots[id]...)
}

func (s *memStore) archived() []MatchArchive {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MatchArchive(nil), s.archives...)
}

func newTestManager(t *testing.T, cfg ManagerConfig) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	m := NewManager(cfg, store, log.New(io.Discard))
	m.SetSeedSource(func() int32 { return testSeed })
	t.Cleanup(m.Stop)
	return m, store
}

func expect[T SessionEvent](t *testing.T, s *ChannelSession) T {
	t.Helper()
	select {
	case evt := <-s.Events():
		v, ok := evt.(T)
		if !ok {
			var want T
			t.Fatalf("session %s: got %T %+v, want %T", s.ID(), evt, evt, want)
		}
		return v
	case <-time.After(time.Second):
		var want T
		t.Fatalf("session %s: timed out waiting for %T", s.ID(), want)
	}
	var zero T
	return zero
}

// expectQuiet asserts that s has no queued events. Call it after a
// synchronous request so every earlier command has been processed.
func expectQuiet(t *testing.T, s *ChannelSession) {
	t.Helper()
	select {
	case evt := <-s.Events():
		t.Fatalf("session %s: unexpected %T %+v", s.ID(), evt, evt)
	default:
	}
}

func expectError(t *testing.T, s *ChannelSession, code string) {
	t.Helper()
	evt := expect[ErrorEvent](t, s)
	if evt.Code != code {
		t.Fatalf("error code = %q (%s), want %q", evt.Code, evt.Message, code)
	}
}

// startMatch creates a room, connects player 1, joins and connects player 2.
// All setup events are drained.
func startMatch(t *testing.T, m *Manager) (RoomID, *ChannelSession, *ChannelSession) {
	t.Helper()
	ctx := context.Background()

	created, err := m.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	s1 := NewChannelSession("s1", 32)
	if err := m.Connect(ctx, created.RoomID, Player1, s1); err != nil {
		t.Fatalf("Connect(1) failed: %v", err)
	}
	expect[RoomStateEvent](t, s1)

	if _, err := m.JoinRoom(ctx, created.RoomID); err != nil {
		t.Fatalf("JoinRoom() failed: %v", err)
	}
	expect[PlayerJoinedEvent](t, s1)

	s2 := NewChannelSession("s2", 32)
	if err := m.Connect(ctx, created.RoomID, Player2, s2); err != nil {
		t.Fatalf("Connect(2) failed: %v", err)
	}
	expect[RoomStateEvent](t, s2)
	return created.RoomID, s1, s2
}

func summary(t *testing.T, m *Manager, id RoomID) RoomSummary {
	t.Helper()
	sum, err := m.Summary(context.Background(), id)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	return sum
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestCreateAndJoin(t *testing.T) {
	m, store := newTestManager(t, DefaultManagerConfig())
	ctx := context.Background()

	created, err := m.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	if created.PlayerID != Player1 || created.Seed != testSeed || len(created.RoomID) != 6 {
		t.Errorf("CreateRoom() = %+v", created)
	}

	rec, ok := store.record(created.RoomID)
	if !ok {
		t.Fatal("created room was not persisted")
	}
	if rec.Status != StatusWaiting || rec.Level != 1 || rec.Turn != Player1 || rec.Players != [2]bool{true, false} {
		t.Errorf("initial record = %+v", rec)
	}

	s1 := NewChannelSession("s1", 16)
	if err := m.Connect(ctx, created.RoomID, Player1, s1); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	state := expect[RoomStateEvent](t, s1)
	if state.Status != StatusWaiting || state.PlayerID != Player1 || state.Seed != testSeed {
		t.Errorf("room_state = %+v", state.RoomState)
	}

	// Codes are matched case-insensitively.
	joined, err := m.JoinRoom(ctx, RoomID(" "+string(created.RoomID)+" "))
	if err != nil {
		t.Fatalf("JoinRoom() failed: %v", err)
	}
	if joined.PlayerID != Player2 || joined.Seed != testSeed || joined.RoomID != created.RoomID {
		t.Errorf("JoinRoom() = %+v", joined)
	}
	if evt := expect[PlayerJoinedEvent](t, s1); evt.Status != StatusPlaying {
		t.Errorf("player_joined status = %s", evt.Status)
	}

	rec, _ = store.record(created.RoomID)
	if rec.Status != StatusPlaying || !rec.Players[1] {
		t.Errorf("record after join = %+v", rec)
	}

	if _, err := m.JoinRoom(ctx, created.RoomID); !errors.Is(err, ErrRoomFull) {
		t.Errorf("second JoinRoom() err = %v, want ErrRoomFull", err)
	}
	if _, err := m.JoinRoom(ctx, "NOPE00"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("JoinRoom(unknown) err = %v, want ErrRoomNotFound", err)
	}
}

func TestConnectErrors(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	ctx := context.Background()

	created, err := m.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}

	tests := []struct {
		name   string
		room   RoomID
		player PlayerID
		want   error
	}{
		{"unknown room", "ZZZZZZ", Player1, ErrRoomNotFound},
		{"player 2 before join", created.RoomID, Player2, ErrInvalidPlayer},
		{"player 0", created.RoomID, 0, ErrInvalidPlayer},
		{"player 3", created.RoomID, 3, ErrInvalidPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewChannelSession("s", 4)
			if err := m.Connect(ctx, tt.room, tt.player, s); !errors.Is(err, tt.want) {
				t.Errorf("Connect() err = %v, want %v", err, tt.want)
			}
			expectQuiet(t, s)
		})
	}
}

func TestFireAndReportMiss(t *testing.T) {
	m, store := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	if err := m.Deliver(ctx, id, Player1, s1, FireMsg{Angle: 0, Power: 50}); err != nil {
		t.Fatalf("Deliver(fire) failed: %v", err)
	}
	for _, s := range []*ChannelSession{s1, s2} {
		evt := expect[ShotFiredEvent](t, s)
		if evt != (ShotFiredEvent{Player: Player1, Angle: 0, Power: 50}) {
			t.Errorf("shot_fired = %+v", evt)
		}
	}

	if err := m.Deliver(ctx, id, Player1, s1, ReportResultMsg{Hit: false, HitWhat: game.HitLost}); err != nil {
		t.Fatalf("Deliver(report) failed: %v", err)
	}
	want := ShotResultEvent{Hit: false, HitWhat: game.HitLost, Scores: [2]int{0, 0}, Level: 1, Seed: testSeed, Turn: Player2}
	for _, s := range []*ChannelSession{s1, s2} {
		if evt := expect[ShotResultEvent](t, s); evt != want {
			t.Errorf("shot_result = %+v, want %+v", evt, want)
		}
	}

	rec, _ := store.record(id)
	if rec.Turn != Player2 || rec.Pending != nil || len(rec.ShotHistory) != 1 {
		t.Errorf("record after report = %+v", rec)
	}
	entries := store.shotLog(id)
	if len(entries) != 1 || entries[0].Power != 50 || entries[0].HitWhat != game.HitLost || entries[0].Seq != 1 {
		t.Errorf("shot log = %+v", entries)
	}
}

func TestReportHitAdvances(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	shoot := func(player PlayerID, s *ChannelSession, kind game.HitKind) ShotResultEvent {
		t.Helper()
		_ = m.Deliver(ctx, id, player, s, FireMsg{Angle: -30, Power: 80})
		expect[ShotFiredEvent](t, s1)
		expect[ShotFiredEvent](t, s2)
		_ = m.Deliver(ctx, id, player, s, ReportResultMsg{Hit: kind == game.HitOpponent, HitWhat: kind})
		expect[ShotResultEvent](t, s1)
		return expect[ShotResultEvent](t, s2)
	}

	res := shoot(Player1, s1, game.HitOpponent)
	if res.Scores != [2]int{1, 0} || res.Level != 2 || res.Turn != Player2 || !res.Hit {
		t.Errorf("after hit = %+v", res)
	}

	res = shoot(Player2, s2, game.HitSelf)
	if res.Scores != [2]int{1, 0} || res.Level != 2 || res.Turn != Player1 {
		t.Errorf("after self hit = %+v", res)
	}

	res = shoot(Player1, s1, game.HitPlanet)
	if res.Scores != [2]int{1, 0} || res.Level != 2 || res.Turn != Player2 {
		t.Errorf("after planet hit = %+v", res)
	}
}

func TestProtocolViolations(t *testing.T) {
	tests := []struct {
		name   string
		player PlayerID
		msgs   []ClientMessage
		code   string
	}{
		{"fire out of turn", Player2, []ClientMessage{FireMsg{Angle: 0, Power: 50}}, "NOT_YOUR_TURN"},
		{"report out of turn", Player2, []ClientMessage{ReportResultMsg{HitWhat: game.HitLost}}, "NOT_YOUR_TURN"},
		{"report without shot", Player1, []ClientMessage{ReportResultMsg{HitWhat: game.HitLost}}, "NO_PENDING_SHOT"},
		{"power fraction", Player1, []ClientMessage{FireMsg{Angle: 0, Power: 50.5}}, "INVALID_SHOT"},
		{"power too low", Player1, []ClientMessage{FireMsg{Angle: 0, Power: 19}}, "INVALID_SHOT"},
		{"angle too wide", Player1, []ClientMessage{FireMsg{Angle: 181, Power: 50}}, "INVALID_SHOT"},
		{"hit flag disagrees", Player1, []ClientMessage{
			FireMsg{Angle: 0, Power: 50},
			ReportResultMsg{Hit: true, HitWhat: game.HitPlanet},
		}, "INVALID_REPORT"},
		{"double fire", Player1, []ClientMessage{
			FireMsg{Angle: 0, Power: 50},
			FireMsg{Angle: 10, Power: 60},
		}, "SHOT_PENDING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(t, DefaultManagerConfig())
			id, s1, s2 := startMatch(t, m)
			sender := map[PlayerID]*ChannelSession{Player1: s1, Player2: s2}[tt.player]
			ctx := context.Background()

			for _, msg := range tt.msgs {
				if err := m.Deliver(ctx, id, tt.player, sender, msg); err != nil {
					t.Fatalf("Deliver() failed: %v", err)
				}
			}

			// All but the last message are valid fires.
			for range tt.msgs[:len(tt.msgs)-1] {
				expect[ShotFiredEvent](t, s1)
				expect[ShotFiredEvent](t, s2)
			}
			expectError(t, sender, tt.code)

			sum := summary(t, m, id)
			if sum.Turn != Player1 || sum.Scores != [2]int{0, 0} || sum.Level != 1 {
				t.Errorf("state changed: %+v", sum)
			}
			after, _ := store.record(id)
			if after.Turn != Player1 || after.ShotCount != 0 {
				t.Errorf("record changed: %+v", after)
			}
			expectQuiet(t, s1)
			expectQuiet(t, s2)
		})
	}
}

func TestFireWhileWaiting(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	ctx := context.Background()

	created, _ := m.CreateRoom(ctx)
	s1 := NewChannelSession("s1", 8)
	if err := m.Connect(ctx, created.RoomID, Player1, s1); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	expect[RoomStateEvent](t, s1)

	_ = m.Deliver(ctx, created.RoomID, Player1, s1, FireMsg{Angle: 0, Power: 50})
	expectError(t, s1, "NOT_STARTED")
}

func TestReconnect(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	// Put a shot in flight so the snapshot carries it.
	_ = m.Deliver(ctx, id, Player1, s1, FireMsg{Angle: 12, Power: 40})
	expect[ShotFiredEvent](t, s1)
	expect[ShotFiredEvent](t, s2)

	s3 := NewChannelSession("s3", 8)
	if err := m.Connect(ctx, id, Player2, s3); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	state := expect[RoomStateEvent](t, s3)
	if state.PlayerID != Player2 || state.Pending == nil || state.Pending.Power != 40 {
		t.Errorf("reconnect snapshot = %+v", state.RoomState)
	}
	if evt := expect[PlayerReconnectedEvent](t, s1); evt.Player != Player2 {
		t.Errorf("player_reconnected = %+v", evt)
	}
	expectError(t, s2, "STALE_SESSION")
	expectQuiet(t, s3)

	// The old connection closing must not unbind the new one.
	m.Disconnect(id, Player2, s2.ID())
	sum := summary(t, m, id)
	if sum.Connected != [2]bool{true, true} {
		t.Errorf("connected = %v after stale disconnect", sum.Connected)
	}
	expectQuiet(t, s1)

	// Messages from the replaced session are refused.
	_ = m.Deliver(ctx, id, Player2, s2, ReportResultMsg{HitWhat: game.HitLost})
	expectError(t, s2, "STALE_SESSION")

	if sum.Turn != Player1 || sum.Scores != [2]int{0, 0} || sum.Level != 1 {
		t.Errorf("reconnect mutated state: %+v", sum)
	}
}

func TestDisconnectBroadcast(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)

	m.Disconnect(id, Player2, s2.ID())
	if evt := expect[PlayerDisconnectedEvent](t, s1); evt.Player != Player2 {
		t.Errorf("player_disconnected = %+v", evt)
	}
	if sum := summary(t, m, id); sum.Connected != [2]bool{true, false} {
		t.Errorf("connected = %v", sum.Connected)
	}

	// A fresh connection after a clean disconnect is not a reconnect.
	s3 := NewChannelSession("s3", 8)
	if err := m.Connect(context.Background(), id, Player2, s3); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	expect[RoomStateEvent](t, s3)
	summary(t, m, id)
	expectQuiet(t, s1)
}

func TestBroadcastSkipsDeadSession(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)

	s2.Close()
	if err := m.Deliver(context.Background(), id, Player1, s1, FireMsg{Angle: 0, Power: 50}); err != nil {
		t.Fatalf("Deliver() failed: %v", err)
	}
	expect[ShotFiredEvent](t, s1)
}

func TestPersistFailureKeepsState(t *testing.T) {
	m, store := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	store.setFail(true)
	_ = m.Deliver(ctx, id, Player1, s1, FireMsg{Angle: 0, Power: 50})
	expectError(t, s1, "INTERNAL")
	summary(t, m, id)
	expectQuiet(t, s2)

	// The failed fire left no pending shot behind.
	store.setFail(false)
	_ = m.Deliver(ctx, id, Player1, s1, FireMsg{Angle: 0, Power: 50})
	expect[ShotFiredEvent](t, s1)
	expect[ShotFiredEvent](t, s2)
}

func TestShotHistoryWindow(t *testing.T) {
	m, store := newTestManager(t, DefaultManagerConfig())
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	seats := map[PlayerID]*ChannelSession{Player1: s1, Player2: s2}
	turn := Player1
	for i := 0; i < 10; i++ {
		_ = m.Deliver(ctx, id, turn, seats[turn], FireMsg{Angle: float64(i), Power: 30})
		_ = m.Deliver(ctx, id, turn, seats[turn], ReportResultMsg{HitWhat: game.HitPlanet})
		for _, s := range seats {
			expect[ShotFiredEvent](t, s)
			expect[ShotResultEvent](t, s)
		}
		turn = turn.Opponent()
	}

	rec, _ := store.record(id)
	if len(rec.ShotHistory) != 8 || rec.ShotCount != 10 {
		t.Errorf("history = %d entries, count %d; want 8, 10", len(rec.ShotHistory), rec.ShotCount)
	}
	if rec.ShotHistory[0].Player != Player1 {
		t.Errorf("oldest kept shot belongs to %d, want player 1", rec.ShotHistory[0].Player)
	}
	if n := len(store.shotLog(id)); n != 10 {
		t.Errorf("shot log has %d entries, want 10", n)
	}
}

func TestHydrateAfterRestart(t *testing.T) {
	cfg := DefaultManagerConfig()
	m, store := newTestManager(t, cfg)
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	_ = m.Deliver(ctx, id, Player1, s1, FireMsg{Angle: 5, Power: 90})
	_ = m.Deliver(ctx, id, Player1, s1, ReportResultMsg{Hit: true, HitWhat: game.HitOpponent})
	expect[ShotFiredEvent](t, s2)
	expect[ShotResultEvent](t, s2)
	m.Stop()

	m2 := NewManager(cfg, store, log.New(io.Discard))
	t.Cleanup(m2.Stop)

	s3 := NewChannelSession("s3", 8)
	if err := m2.Connect(ctx, id, Player2, s3); err != nil {
		t.Fatalf("Connect() after restart failed: %v", err)
	}
	state := expect[RoomStateEvent](t, s3)
	if state.Level != 2 || state.Scores != [2]int{1, 0} || state.Turn != Player2 || state.Status != StatusPlaying {
		t.Errorf("hydrated state = %+v", state.RoomState)
	}
	if len(state.ShotHistory) != 1 || state.ShotHistory[0].Result != game.HitOpponent {
		t.Errorf("hydrated history = %+v", state.ShotHistory)
	}
}

func TestEvictionPurgesEmptyRoom(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.EvictAfter = 40 * time.Millisecond
	m, store := newTestManager(t, cfg)
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	_ = m.Deliver(ctx, id, Player1, s1, FireMsg{Angle: 5, Power: 90})
	_ = m.Deliver(ctx, id, Player1, s1, ReportResultMsg{Hit: true, HitWhat: game.HitOpponent})
	expect[ShotFiredEvent](t, s2)
	expect[ShotResultEvent](t, s2)

	m.Disconnect(id, Player1, s1.ID())
	m.Disconnect(id, Player2, s2.ID())

	eventually(t, "room eviction", func() bool {
		_, ok := store.record(id)
		return !ok && m.RoomCount() == 0
	})

	archives := store.archived()
	if len(archives) != 1 {
		t.Fatalf("got %d archives, want 1", len(archives))
	}
	a := archives[0]
	if a.RoomID != id || a.Scores != [2]int{1, 0} || a.Winner != Player1 || a.Shots != 1 || a.Level != 2 {
		t.Errorf("archive = %+v", a)
	}
	if len(store.shotLog(id)) != 0 {
		t.Error("shot log not purged")
	}
	if _, err := m.JoinRoom(ctx, id); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("JoinRoom() after eviction err = %v", err)
	}
}

func TestEvictionCancelledByReconnect(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.EvictAfter = 60 * time.Millisecond
	m, store := newTestManager(t, cfg)
	id, s1, s2 := startMatch(t, m)
	ctx := context.Background()

	m.Disconnect(id, Player2, s2.ID())
	m.Disconnect(id, Player1, s1.ID())
	summary(t, m, id)

	s3 := NewChannelSession("s3", 8)
	if err := m.Connect(ctx, id, Player1, s3); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	time.Sleep(3 * cfg.EvictAfter)
	if _, ok := store.record(id); !ok {
		t.Fatal("room evicted despite a connected session")
	}
	if m.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1", m.RoomCount())
	}
}

func TestEvictionOfNeverJoinedRoom(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.EvictAfter = 30 * time.Millisecond
	m, store := newTestManager(t, cfg)

	created, err := m.CreateRoom(context.Background())
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	eventually(t, "eviction of an abandoned room", func() bool {
		_, ok := store.record(created.RoomID)
		return !ok
	})
	if len(store.archived()) != 0 {
		t.Error("a room that never started should not be archived")
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrRoomNotFound, "ROOM_NOT_FOUND"},
		{errRoomClosed, "ROOM_NOT_FOUND"},
		{ErrRoomFull, "ROOM_FULL"},
		{ErrInvalidPlayer, "INVALID_PLAYER"},
		{ErrNotYourTurn, "NOT_YOUR_TURN"},
		{ErrShotPending, "SHOT_PENDING"},
		{ErrNoPendingShot, "NO_PENDING_SHOT"},
		{ErrNotStarted, "NOT_STARTED"},
		{ErrInvalidReport, "INVALID_REPORT"},
		{ErrStaleSession, "STALE_SESSION"},
		{errStoreDown, "INTERNAL"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestChannelSessionSend(t *testing.T) {
	s := NewChannelSession("s", 2)
	for i := 0; i < 2; i++ {
		if err := s.Send(PlayerJoinedEvent{Status: StatusPlaying}); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
	}
	if err := s.Send(PlayerDisconnectedEvent{Player: Player2}); !errors.Is(err, ErrEventDropped) {
		t.Fatalf("Send() on a full buffer err = %v, want ErrEventDropped", err)
	}
	if len(s.Events()) != 2 {
		t.Errorf("buffered %d events, want 2", len(s.Events()))
	}
	<-s.Events()
	if evt, ok := (<-s.Events()).(PlayerDisconnectedEvent); !ok || evt.Player != Player2 {
		t.Errorf("newest event = %#v, want the disconnect event", evt)
	}

	s.Close()
	s.Close()
	if err := s.Send(PlayerJoinedEvent{}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Send() after Close err = %v, want ErrSessionClosed", err)
	}
}

func TestRoomLogsDroppedEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := &Room{logger: logger}
	s := NewChannelSession("s", 1)

	r.sendTo(Player1, s, PlayerJoinedEvent{Status: StatusWaiting})
	if strings.Contains(buf.String(), "send failed") {
		t.Fatalf("unexpected warning: %s", buf.String())
	}
	r.sendTo(Player1, s, PlayerJoinedEvent{Status: StatusPlaying})
	if !strings.Contains(buf.String(), "send failed") || !strings.Contains(buf.String(), "dropped") {
		t.Errorf("dropped event not logged: %q", buf.String())
	}
}
