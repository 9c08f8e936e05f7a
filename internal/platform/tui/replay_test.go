package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
)

func TestReplayModel(t *testing.T) {
	p := game.DefaultParams()
	level, err := game.GenerateLevel(testSeed, 1, game.DefaultLevelParams())
	if err != nil {
		t.Fatalf("GenerateLevel() failed: %v", err)
	}
	req := game.ShotRequest{Angle: 0, Power: 50, Shooter: core.Player1}
	want, err := game.SimulateShot(level.Planets, req, p)
	if err != nil {
		t.Fatalf("SimulateShot() failed: %v", err)
	}

	m := NewReplayModel(level, req, p, core.RuntimeConfig{ScreenW: 100, ScreenH: 30, TickRate: 10000})
	m = runReplay(t, m, m.Init())
	got, _ := m.Result()
	if got.HitWhat != want.HitWhat || got.Steps != want.Steps || len(got.Trail) != len(want.Trail) {
		t.Errorf("Result() = %s/%d steps, want %s/%d steps", got.HitWhat, got.Steps, want.HitWhat, want.Steps)
	}
	if !strings.Contains(m.View(), string(want.HitWhat)) {
		t.Error("view does not show the outcome")
	}

	next, cmd := m.Update(keyMsg(" "))
	m = next.(ReplayModel)
	if _, ok := m.Result(); ok || cmd == nil {
		t.Fatal("space did not restart the replay")
	}
	m = runReplay(t, m, cmd)
	if again, _ := m.Result(); again.Steps != want.Steps {
		t.Errorf("replayed Steps = %d, want %d", again.Steps, want.Steps)
	}
}

// runReplay executes the command chain until the replay reports a result.
func runReplay(t *testing.T, m ReplayModel, cmd tea.Cmd) ReplayModel {
	t.Helper()
	for i := 0; ; i++ {
		if _, ok := m.Result(); ok {
			return m
		}
		if cmd == nil {
			t.Fatal("replay stalled without a result")
		}
		if i > 10000 {
			t.Fatal("replay never finished")
		}
		next, c := m.Update(cmd())
		m, cmd = next.(ReplayModel), c
	}
}

func TestReplayModelQuitCancelsFlight(t *testing.T) {
	p := game.DefaultParams()
	level, err := game.GenerateLevel(testSeed, 1, game.DefaultLevelParams())
	if err != nil {
		t.Fatalf("GenerateLevel() failed: %v", err)
	}

	m := NewReplayModel(level, game.ShotRequest{Angle: 0, Power: 50, Shooter: core.Player1}, p, core.RuntimeConfig{})
	next, cmd := m.Update(m.Init()())
	m = next.(ReplayModel)
	flight := m.flight
	if flight == nil || cmd == nil {
		t.Fatal("start message did not launch the flight")
	}
	next, _ = m.Update(cmd())
	m = next.(ReplayModel)
	if m.snap.Steps != p.Substeps {
		t.Fatalf("first frame Steps = %d, want %d", m.snap.Steps, p.Substeps)
	}

	next, _ = m.Update(keyMsg("q"))
	m = next.(ReplayModel)
	if m.flight != nil {
		t.Error("quit left the flight attached")
	}
	select {
	case o := <-flight.done:
		if !errors.Is(o.err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", o.err)
		}
	case <-time.After(testTimeout):
		t.Fatal("flight goroutine did not exit after quit")
	}
}

func TestReplayModelRejectsBadShot(t *testing.T) {
	p := game.DefaultParams()
	level, err := game.GenerateLevel(testSeed, 1, game.DefaultLevelParams())
	if err != nil {
		t.Fatalf("GenerateLevel() failed: %v", err)
	}

	m := NewReplayModel(level, game.ShotRequest{Angle: 0, Power: 5, Shooter: core.Player1}, p, core.RuntimeConfig{})
	if m.Init() != nil {
		t.Error("Init() ticks for an invalid shot")
	}
	if !strings.Contains(m.View(), "Error") {
		t.Errorf("View() = %q, want an error", m.View())
	}
}
