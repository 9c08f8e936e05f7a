package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gravity-duel/internal/core"
	"github.com/vovakirdan/gravity-duel/internal/game"
	"github.com/vovakirdan/gravity-duel/internal/multiplayer"
)

// DuelState is the current screen of the duel client.
type DuelState int

const (
	StateChoose     DuelState = iota // create or join
	StateEnterCode                   // typing a room code
	StateConnecting                  // lifecycle request in flight
	StateWaiting                     // seated, waiting for the opponent
	StatePlaying                     // both seats taken
	StateClosed                      // connection ended
)

const (
	requestTimeout = 10 * time.Second
	historyShown   = 8
	chromeRows     = 3 // header, status line, help
)

// DuelOptions configures a DuelModel.
type DuelOptions struct {
	Runtime     core.RuntimeConfig
	Params      game.Params
	LevelParams game.LevelParams
	Create      bool               // create a room on start
	JoinCode    multiplayer.RoomID // join this room on start
}

type roomOpenedMsg struct{ res multiplayer.CreateResult }

type linkErrMsg struct{ err error }

type linkClosedMsg struct{}

// DuelModel is the terminal client for one room. Both seats run the same
// engine: the shot is animated locally on every client and the firer's
// client reports the outcome.
type DuelModel struct {
	link  Link
	opts  DuelOptions
	keys  KeyMap
	help  help.Model
	code  textinput.Model
	field *FieldView

	state    DuelState
	width    int
	height   int
	notice   string
	err      error
	quitting bool

	room     multiplayer.RoomID
	me       multiplayer.PlayerID
	level    game.Level
	scores   [2]int
	turn     multiplayer.PlayerID
	history  []multiplayer.ShotRecord
	opponent bool // opponent seat connected

	angle  float64
	power  int
	firing bool // fire sent, shot_fired not seen yet

	shot    *game.Shot
	shooter multiplayer.PlayerID
	trail   []core.Vec2
}

// NewDuelModel creates a client bound to link.
func NewDuelModel(link Link, opts DuelOptions) DuelModel {
	if opts.Runtime.ScreenW == 0 || opts.Runtime.ScreenH == 0 {
		opts.Runtime = core.DefaultConfig()
	}

	code := textinput.New()
	code.Placeholder = "ABC234"
	code.CharLimit = 6
	code.Prompt = "> "

	m := DuelModel{
		link:   link,
		opts:   opts,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		code:   code,
		field:  NewFieldView(opts.Params, opts.Runtime.ScreenW, opts.Runtime.ScreenH-chromeRows),
		width:  opts.Runtime.ScreenW,
		height: opts.Runtime.ScreenH,
		power:  (opts.Params.MinPower + opts.Params.MaxPower) / 2,
	}
	if opts.Create || opts.JoinCode != "" {
		m.state = StateConnecting
	}
	return m
}

// Init starts the lifecycle request requested by the options, if any.
func (m DuelModel) Init() tea.Cmd {
	switch {
	case m.opts.JoinCode != "":
		return m.openRoom(multiplayer.NormalizeRoomID(string(m.opts.JoinCode)))
	case m.opts.Create:
		return m.openRoom("")
	}
	return nil
}

// openRoom creates (id == "") or joins a room and connects to it.
func (m DuelModel) openRoom(id multiplayer.RoomID) tea.Cmd {
	link := m.link
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var (
			res multiplayer.CreateResult
			err error
		)
		if id == "" {
			res, err = link.CreateRoom(ctx)
		} else {
			res, err = link.JoinRoom(ctx, id)
		}
		if err != nil {
			return linkErrMsg{err}
		}
		if err := link.Connect(ctx, res.RoomID, res.PlayerID); err != nil {
			return linkErrMsg{err}
		}
		return roomOpenedMsg{res}
	}
}

// waitForEvent returns a command that waits for the next room event.
func (m DuelModel) waitForEvent() tea.Cmd {
	link := m.link
	return func() tea.Msg {
		select {
		case evt := <-link.Events():
			return evt
		case <-link.Done():
			return linkClosedMsg{}
		}
	}
}

func (m DuelModel) send(msg multiplayer.ClientMessage) tea.Cmd {
	link := m.link
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := link.Send(ctx, msg); err != nil {
			return linkErrMsg{err}
		}
		return nil
	}
}

// Update handles messages.
func (m DuelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.field.Resize(msg.Width, msg.Height-chromeRows)
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		return m.animate()

	case roomOpenedMsg:
		m.room, m.me = msg.res.RoomID, msg.res.PlayerID
		m.state = StateWaiting
		m.err = nil
		return m, m.waitForEvent()
	case linkErrMsg:
		m.err = msg.err
		m.firing = false
		if m.state == StateConnecting {
			m.state = StateChoose
			if m.opts.JoinCode != "" || m.code.Value() != "" {
				m.state = StateEnterCode
				m.code.Focus()
			}
		}
		return m, nil
	case linkClosedMsg:
		m.state = StateClosed
		m.shot = nil
		return m, nil

	case multiplayer.RoomStateEvent:
		return m.applyState(msg.RoomState)
	case multiplayer.PlayerJoinedEvent:
		m.state = StatePlaying
		m.opponent = true
		m.notice = "opponent joined, match on"
		return m, m.waitForEvent()
	case multiplayer.ShotFiredEvent:
		m.firing = false
		m, cmd := m.launch(msg.Player, msg.Angle, msg.Power)
		return m, tea.Batch(cmd, m.waitForEvent())
	case multiplayer.ShotResultEvent:
		return m.applyResult(msg)
	case multiplayer.PlayerDisconnectedEvent:
		if msg.Player != m.me {
			m.opponent = false
			m.notice = fmt.Sprintf("P%d disconnected", msg.Player)
		}
		return m, m.waitForEvent()
	case multiplayer.PlayerReconnectedEvent:
		m.opponent = true
		m.notice = fmt.Sprintf("P%d is back", msg.Player)
		return m, m.waitForEvent()
	case multiplayer.ErrorEvent:
		m.firing = false
		m.err = fmt.Errorf("%s", msg.Message)
		if msg.Code == "STALE_SESSION" {
			m.state = StateClosed
			m.notice = "this seat was taken over by another connection"
			return m, nil
		}
		return m, m.waitForEvent()
	}

	if m.state == StateEnterCode {
		var cmd tea.Cmd
		m.code, cmd = m.code.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m DuelModel) applyState(st multiplayer.RoomState) (tea.Model, tea.Cmd) {
	first := m.level.Planets == nil
	m.me = st.PlayerID
	m.scores, m.turn = st.Scores, st.Turn
	m.history = append([]multiplayer.ShotRecord(nil), st.ShotHistory...)
	m.opponent = st.Players[m.me.Opponent().Index()]
	m.loadLevel(st.Seed, st.Level)
	if first && m.me == multiplayer.Player2 {
		m.angle = 180
	}

	m.state = StatePlaying
	if st.Status == multiplayer.StatusWaiting {
		m.state = StateWaiting
	}

	// A shot fired before we (re)connected is replayed so the firer can
	// still report it.
	if st.Pending != nil {
		var cmd tea.Cmd
		m, cmd = m.launch(st.Pending.Player, st.Pending.Angle, st.Pending.Power)
		return m, tea.Batch(cmd, m.waitForEvent())
	}
	return m, m.waitForEvent()
}

func (m DuelModel) applyResult(evt multiplayer.ShotResultEvent) (tea.Model, tea.Cmd) {
	shooter := m.turn
	m.scores, m.turn = evt.Scores, evt.Turn
	m.history = append(m.history, multiplayer.ShotRecord{Player: shooter, Result: evt.HitWhat})
	if over := len(m.history) - historyShown; over > 0 {
		m.history = m.history[over:]
	}
	m.notice = describeShot(shooter, evt.HitWhat)
	if evt.Hit {
		m.notice += fmt.Sprintf(", on to level %d", evt.Level)
	}
	m.loadLevel(evt.Seed, evt.Level)
	return m, m.waitForEvent()
}

func (m *DuelModel) loadLevel(seed int32, n int) {
	if m.level.Planets != nil && m.level.Seed == seed && m.level.Number == n {
		return
	}
	lvl, err := game.GenerateLevel(seed, n, m.opts.LevelParams)
	if err != nil {
		m.err = err
		return
	}
	m.level = lvl
	m.trail = nil
}

// launch starts animating a shot.
func (m DuelModel) launch(player multiplayer.PlayerID, angle float64, power int) (DuelModel, tea.Cmd) {
	req := game.ShotRequest{Angle: angle, Power: power, Shooter: player}
	shot, err := game.NewShot(m.level.Planets, req, m.opts.Params)
	if err != nil {
		m.err = err
		if player == m.me {
			// The room waits for a report; a shot we cannot simulate is lost.
			return m, m.send(multiplayer.ReportResultMsg{Hit: false, HitWhat: game.HitLost})
		}
		return m, nil
	}

	running := m.shot != nil
	m.shot, m.shooter, m.trail = shot, player, nil
	m.err = nil
	if running {
		return m, nil
	}
	return m, tickCmd(m.opts.Runtime.TickRate)
}

// animate advances the in-flight shot by one outer tick.
func (m DuelModel) animate() (tea.Model, tea.Cmd) {
	if m.shot == nil {
		return m, nil
	}
	if !m.shot.Step() {
		return m, tickCmd(m.opts.Runtime.TickRate)
	}

	res, _ := m.shot.Result()
	m.shot = nil
	m.trail = res.Trail
	if m.shooter != m.me {
		return m, nil
	}
	return m, m.send(multiplayer.ReportResultMsg{Hit: res.Hit, HitWhat: res.HitWhat})
}

func (m DuelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.state {
	case StateChoose:
		switch msg.String() {
		case "c", "C":
			m.state = StateConnecting
			m.err = nil
			return m, m.openRoom("")
		case "j", "J":
			m.state = StateEnterCode
			m.err = nil
			m.code.SetValue("")
			cmd := m.code.Focus()
			return m, cmd
		case "q", "esc":
			return m.quit()
		}
		return m, nil

	case StateEnterCode:
		switch msg.String() {
		case "esc":
			m.state = StateChoose
			m.code.Blur()
			return m, nil
		case "enter":
			id := multiplayer.NormalizeRoomID(m.code.Value())
			if id == "" {
				return m, nil
			}
			m.state = StateConnecting
			m.err = nil
			return m, m.openRoom(id)
		}
		var cmd tea.Cmd
		m.code, cmd = m.code.Update(msg)
		m.code.SetValue(strings.ToUpper(m.code.Value()))
		return m, cmd

	case StateConnecting, StateClosed:
		if key.Matches(msg, m.keys.Quit) || key.Matches(msg, m.keys.Back) {
			return m.quit()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Help) {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	frame := m.keys.Frame(msg)
	switch {
	case frame.Has(core.ActionQuit), frame.Has(core.ActionBack):
		return m.quit()
	case frame.Has(core.ActionFire):
		return m.fire()
	}
	m.adjustAim(frame)
	return m, nil
}

func (m *DuelModel) adjustAim(frame core.InputFrame) {
	step, powerStep := 1.0, 1
	if frame.Has(core.ActionAimCoarse) {
		step, powerStep = 10, 5
	}
	switch {
	case frame.Has(core.ActionAimLeft):
		m.angle = normalizeAngle(m.angle - step)
	case frame.Has(core.ActionAimRight):
		m.angle = normalizeAngle(m.angle + step)
	case frame.Has(core.ActionPowerUp):
		m.power = core.Clamp(m.power+powerStep, m.opts.Params.MinPower, m.opts.Params.MaxPower)
	case frame.Has(core.ActionPowerDown):
		m.power = core.Clamp(m.power-powerStep, m.opts.Params.MinPower, m.opts.Params.MaxPower)
	}
}

// normalizeAngle wraps a into (-180, 180].
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a <= -180 {
		a += 360
	}
	return a
}

func (m DuelModel) fire() (tea.Model, tea.Cmd) {
	switch {
	case m.state != StatePlaying:
		m.notice = "waiting for an opponent"
		return m, nil
	case m.turn != m.me:
		m.notice = "not your turn"
		return m, nil
	case m.shot != nil || m.firing:
		m.notice = "shot already in flight"
		return m, nil
	}
	m.firing = true
	m.notice = ""
	return m, m.send(multiplayer.FireMsg{Angle: m.angle, Power: float64(m.power)})
}

func (m DuelModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	_ = m.link.Close()
	return m, tea.Quit
}

func describeShot(shooter multiplayer.PlayerID, kind game.HitKind) string {
	switch kind {
	case game.HitOpponent:
		return fmt.Sprintf("P%d hit the opponent", shooter)
	case game.HitSelf:
		return fmt.Sprintf("P%d hit their own planet", shooter)
	case game.HitPlanet:
		return fmt.Sprintf("P%d struck a planet", shooter)
	default:
		return fmt.Sprintf("P%d's shot was lost in space", shooter)
	}
}

// View renders the current screen.
func (m DuelModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	switch m.state {
	case StateChoose:
		b.WriteString("\n")
		b.WriteString(centerText(titleStyle.Render("GRAVITY DUEL"), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("[C] Create a room", m.width))
		b.WriteString("\n")
		b.WriteString(centerText("[J] Join a room", m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Q: Quit", m.width))
	case StateEnterCode:
		b.WriteString("\n")
		b.WriteString(centerText(titleStyle.Render("JOIN ROOM"), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Enter the room code:", m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText(m.code.View(), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Enter: Join  |  Esc: Back", m.width))
	case StateConnecting:
		b.WriteString("\n")
		b.WriteString(centerText(titleStyle.Render("CONNECTING"), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Please wait...", m.width))
	case StateWaiting:
		b.WriteString("\n")
		b.WriteString(centerText(titleStyle.Render("WAITING FOR OPPONENT"), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Share this code:", m.width))
		b.WriteString("\n")
		b.WriteString(centerText(codeStyle.Render(string(m.room)), m.width))
		b.WriteString("\n\n")
		b.WriteString(centerText("Q: Quit", m.width))
	case StatePlaying:
		return m.viewMatch()
	case StateClosed:
		b.WriteString("\n")
		b.WriteString(centerText(titleStyle.Render("CONNECTION CLOSED"), m.width))
		b.WriteString("\n\n")
		if m.notice != "" {
			b.WriteString(centerText(noticeStyle.Render(m.notice), m.width))
			b.WriteString("\n\n")
		}
		b.WriteString(centerText("Q: Quit", m.width))
	}

	if m.err != nil {
		b.WriteString("\n\n")
		b.WriteString(centerText(errorStyle.Render("Error: "+m.err.Error()), m.width))
	}
	return b.String()
}

func (m DuelModel) viewMatch() string {
	overlay := Overlay{Trail: m.trail}
	if m.shot != nil {
		snap := m.shot.Snapshot()
		overlay.Trail = snap.Trail
		overlay.Missile = &snap.Pos
	} else if m.turn == m.me {
		overlay.Aim = &Aim{Player: m.me, Angle: m.angle}
	}

	turn := "opponent's turn"
	switch {
	case m.shot != nil:
		turn = "shot in flight"
	case m.turn == m.me:
		turn = "your turn"
	}
	if !m.opponent {
		turn += " (opponent offline)"
	}
	header := fmt.Sprintf(" ROOM %s │ You: P%d │ Level %d │ P1 %d : %d P2 │ %s",
		m.room, m.me, m.level.Number, m.scores[0], m.scores[1], turn)

	status := fmt.Sprintf(" Angle %4.0f°  Power %3d  %s", m.angle, m.power, historyLine(m.history))
	switch {
	case m.err != nil:
		status += "  " + errorStyle.Render(m.err.Error())
	case m.notice != "":
		status += "  " + noticeStyle.Render(m.notice)
	}

	var b strings.Builder
	b.WriteString(barStyle.Width(m.width).Render(header))
	b.WriteString("\n")
	b.WriteString(RenderScreen(m.field.Draw(m.level, overlay)))
	b.WriteString("\n")
	b.WriteString(status)
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// historyLine renders recent results oldest first, one glyph per shot.
func historyLine(h []multiplayer.ShotRecord) string {
	if len(h) == 0 {
		return ""
	}
	glyphs := map[game.HitKind]string{
		game.HitOpponent: "✸",
		game.HitSelf:     "✗",
		game.HitPlanet:   "○",
		game.HitLost:     "·",
	}
	var b strings.Builder
	b.WriteString("[")
	for _, r := range h {
		b.WriteString(glyphs[r.Result])
	}
	b.WriteString("]")
	return b.String()
}

// State returns the current screen.
func (m DuelModel) State() DuelState {
	return m.state
}

// Room returns the room code once seated.
func (m DuelModel) Room() multiplayer.RoomID {
	return m.room
}

// Player returns the local seat.
func (m DuelModel) Player() multiplayer.PlayerID {
	return m.me
}

// Aim returns the current cannon angle and power.
func (m DuelModel) Aim() (angle float64, power int) {
	return m.angle, m.power
}

// Scores returns the score line.
func (m DuelModel) Scores() [2]int {
	return m.scores
}

// Level returns the current layout.
func (m DuelModel) Level() game.Level {
	return m.level
}

// Animating reports whether a shot is in flight.
func (m DuelModel) Animating() bool {
	return m.shot != nil
}
