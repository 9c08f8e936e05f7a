package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
)

// ReplayModel animates a single shot over a level. Used by `duel sim --watch`.
type ReplayModel struct {
	level   game.Level
	req     game.ShotRequest
	params  game.Params
	runtime core.RuntimeConfig
	keys    KeyMap
	help    help.Model
	field   *FieldView

	shot     *game.Shot
	flight   *replayFlight
	pending  bool
	snap     game.ShotSnapshot
	result   *game.ShotResult
	err      error
	quitting bool
}

// replayFlight runs a shot on its own goroutine through Shot.Run. Each
// snapshot is handed over on an unbuffered channel, so the model paces the
// simulation by how often it reads.
type replayFlight struct {
	frames chan game.ShotSnapshot
	done   chan replayOutcome
	cancel context.CancelFunc
}

type replayOutcome struct {
	res game.ShotResult
	err error
}

type replayStartMsg struct{}

type replayFrameMsg struct {
	flight *replayFlight
	snap   game.ShotSnapshot
}

type replayDoneMsg struct {
	flight *replayFlight
	replayOutcome
}

func startFlight(shot *game.Shot) *replayFlight {
	ctx, cancel := context.WithCancel(context.Background())
	f := &replayFlight{
		frames: make(chan game.ShotSnapshot),
		done:   make(chan replayOutcome, 1),
		cancel: cancel,
	}
	go func() {
		res, err := shot.Run(ctx, func(s game.ShotSnapshot) {
			select {
			case f.frames <- s:
			case <-ctx.Done():
			}
		})
		f.done <- replayOutcome{res: res, err: err}
	}()
	return f
}

// next waits for the following frame or for the end of the run.
func (f *replayFlight) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-f.frames:
			return replayFrameMsg{flight: f, snap: s}
		case o := <-f.done:
			return replayDoneMsg{flight: f, replayOutcome: o}
		}
	}
}

// NewReplayModel prepares the replay of req on level.
func NewReplayModel(level game.Level, req game.ShotRequest, p game.Params, cfg core.RuntimeConfig) ReplayModel {
	if cfg.ScreenW == 0 || cfg.ScreenH == 0 {
		cfg = core.DefaultConfig()
	}
	m := ReplayModel{
		level:   level,
		req:     req,
		params:  p,
		runtime: cfg,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		field:   NewFieldView(p, cfg.ScreenW, cfg.ScreenH-chromeRows),
	}
	m.shot, m.err = game.NewShot(level.Planets, req, p)
	if m.shot != nil {
		m.snap = m.shot.Snapshot()
	}
	return m
}

// Init starts the animation.
func (m ReplayModel) Init() tea.Cmd {
	if m.shot == nil {
		return nil
	}
	return func() tea.Msg { return replayStartMsg{} }
}

// Update handles messages.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.field.Resize(msg.Width, msg.Height-chromeRows)
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
			m.quitting = true
			m.stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Fire) && m.result != nil:
			return m.restart()
		}
		return m, nil
	case replayStartMsg:
		if m.shot == nil || m.flight != nil {
			return m, nil
		}
		m.flight = startFlight(m.shot)
		return m, m.flight.next()
	case replayFrameMsg:
		if msg.flight != m.flight {
			return m, nil
		}
		m.snap = msg.snap
		if msg.snap.Done {
			return m, m.flight.next()
		}
		m.pending = true
		return m, tickCmd(m.runtime.TickRate)
	case TickMsg:
		if !m.pending || m.flight == nil {
			return m, nil
		}
		m.pending = false
		return m, m.flight.next()
	case replayDoneMsg:
		if msg.flight != m.flight {
			return m, nil
		}
		m.flight = nil
		if msg.err != nil {
			if !errors.Is(msg.err, context.Canceled) {
				m.err = msg.err
			}
			return m, nil
		}
		res := msg.res
		m.result = &res
		return m, nil
	}
	return m, nil
}

func (m *ReplayModel) stop() {
	if m.flight != nil {
		m.flight.cancel()
		m.flight = nil
	}
	m.pending = false
}

func (m ReplayModel) restart() (tea.Model, tea.Cmd) {
	m.stop()
	m.shot, m.err = game.NewShot(m.level.Planets, m.req, m.params)
	if m.err != nil {
		return m, nil
	}
	m.snap = m.shot.Snapshot()
	m.result = nil
	m.flight = startFlight(m.shot)
	return m, m.flight.next()
}

// View renders the field, the flight and the outcome once known.
func (m ReplayModel) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}

	overlay := Overlay{Trail: m.snap.Trail}
	if m.result == nil {
		overlay.Missile = &m.snap.Pos
	}

	header := fmt.Sprintf(" SEED %d │ Level %d │ P%d angle %.1f° power %d │ step %d",
		m.level.Seed, m.level.Number, m.req.Shooter, m.req.Angle, m.req.Power, m.snap.Steps)
	status := " in flight"
	if m.result != nil {
		status = fmt.Sprintf(" %s after %d steps, %d trail points  (space: replay)",
			m.result.HitWhat, m.result.Steps, len(m.result.Trail))
		if idx, ok := m.result.HitPlanet(); ok {
			status += fmt.Sprintf("  planet #%d", idx)
		}
	}

	var b strings.Builder
	b.WriteString(barStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(RenderScreen(m.field.Draw(m.level, overlay)))
	b.WriteString("\n")
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(m.help.View(replayHelp{m.keys}))
	return b.String()
}

// Result returns the outcome once the animation has finished.
func (m ReplayModel) Result() (game.ShotResult, bool) {
	if m.result == nil {
		return game.ShotResult{}, false
	}
	return *m.result, true
}

// replayHelp narrows the help bar to the keys the replay viewer handles.
type replayHelp struct{ k KeyMap }

func (h replayHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Fire, h.k.Quit}
}

func (h replayHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}
