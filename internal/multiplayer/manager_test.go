package multiplayer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestGenerateJoinCode(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := generateJoinCode()
		if len(code) != 6 {
			t.Fatalf("generateJoinCode() = %q, want 6 characters", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("generateJoinCode() = %q contains %q", code, c)
			}
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Errorf("only %d distinct codes out of 200", len(seen))
	}
}

func TestNormalizeRoomID(t *testing.T) {
	tests := []struct {
		in   string
		want RoomID
	}{
		{"abc234", "ABC234"},
		{"  QWE7 \n", "QWE7"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRoomID(tt.in); got != tt.want {
			t.Errorf("NormalizeRoomID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestManagerConcurrentRooms(t *testing.T) {
	m, store := newTestManager(t, DefaultManagerConfig())
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan RoomID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.CreateRoom(ctx)
			if err != nil {
				t.Errorf("CreateRoom() failed: %v", err)
				return
			}
			if _, err := m.JoinRoom(ctx, res.RoomID); err != nil {
				t.Errorf("JoinRoom() failed: %v", err)
				return
			}
			ids <- res.RoomID
		}()
	}
	wg.Wait()
	close(ids)

	unique := make(map[RoomID]bool)
	for id := range ids {
		unique[id] = true
		rec, ok := store.record(id)
		if !ok || rec.Status != StatusPlaying {
			t.Errorf("room %s record = %+v, %v", id, rec, ok)
		}
	}
	if len(unique) != n || m.RoomCount() != n {
		t.Errorf("got %d unique rooms, %d live; want %d", len(unique), m.RoomCount(), n)
	}
}

func TestManagerCreatePersistFailure(t *testing.T) {
	m, store := newTestManager(t, DefaultManagerConfig())
	store.setFail(true)

	if _, err := m.CreateRoom(context.Background()); !errors.Is(err, ErrPersist) {
		t.Errorf("CreateRoom() err = %v, want ErrPersist", err)
	}
	if m.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d after failed create", m.RoomCount())
	}
}

func TestManagerStopped(t *testing.T) {
	m, _ := newTestManager(t, DefaultManagerConfig())
	ctx := context.Background()

	created, err := m.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	m.Stop()

	if _, err := m.CreateRoom(ctx); !errors.Is(err, ErrManagerStopped) {
		t.Errorf("CreateRoom() after Stop err = %v", err)
	}
	if _, err := m.JoinRoom(ctx, created.RoomID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("JoinRoom() after Stop err = %v", err)
	}
	if err := m.Deliver(ctx, created.RoomID, Player1, NewChannelSession("x", 1), FireMsg{Power: 50}); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Deliver() after Stop err = %v", err)
	}
}

// gatedStore holds SaveRoom calls until release is closed.
type gatedStore struct {
	*memStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) SaveRoom(ctx context.Context, rec RoomRecord) error {
	if s.armed.Load() {
		close(s.entered)
		<-s.release
	}
	return s.memStore.SaveRoom(ctx, rec)
}

func TestManagerStopWaitsForRooms(t *testing.T) {
	store := &gatedStore{
		memStore: newMemStore(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	m := NewManager(DefaultManagerConfig(), store, log.New(io.Discard))
	ctx := context.Background()

	created, err := m.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}

	store.armed.Store(true)
	go m.JoinRoom(ctx, created.RoomID)
	select {
	case <-store.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("join never reached the store")
	}

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop() returned while a store write was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return after the write finished")
	}
	rec, ok := store.record(created.RoomID)
	if !ok || rec.Status != StatusPlaying {
		t.Errorf("record after Stop = %+v, want the joined room", rec)
	}
}

func TestManagerWithoutStore(t *testing.T) {
	m := NewManager(DefaultManagerConfig(), nil, nil)
	t.Cleanup(m.Stop)
	ctx := context.Background()

	created, err := m.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom() failed: %v", err)
	}
	if _, err := m.JoinRoom(ctx, created.RoomID); err != nil {
		t.Fatalf("JoinRoom() failed: %v", err)
	}
	sum, err := m.Summary(ctx, created.RoomID)
	if err != nil {
		t.Fatalf("Summary() failed: %v", err)
	}
	if sum.Status != StatusPlaying || sum.Level != 1 {
		t.Errorf("Summary() = %+v", sum)
	}
}
