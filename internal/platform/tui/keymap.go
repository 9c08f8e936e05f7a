package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gravity-duel/internal/core"
)

// KeyMap holds the key bindings of the duel client. It implements
// help.KeyMap so the bindings double as the help bar.
type KeyMap struct {
	AimLeft   key.Binding
	AimRight  key.Binding
	PowerUp   key.Binding
	PowerDown key.Binding
	Coarse    key.Binding
	Fire      key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		AimLeft: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "aim left"),
		),
		AimRight: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "aim right"),
		),
		PowerUp: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "power +"),
		),
		PowerDown: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "power -"),
		),
		Coarse: key.NewBinding(
			key.WithKeys("shift+left", "shift+right", "shift+up", "shift+down", "A", "D", "W", "S"),
			key.WithHelp("shift", "coarse"),
		),
		Fire: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "fire"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.AimLeft, k.AimRight, k.Fire, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.AimLeft, k.AimRight, k.PowerUp, k.PowerDown},
		{k.Coarse, k.Fire},
		{k.Back, k.Help, k.Quit},
	}
}

// coarseKeys maps the shifted spellings back to their base direction.
var coarseKeys = map[string]core.Action{
	"shift+left":  core.ActionAimLeft,
	"A":           core.ActionAimLeft,
	"shift+right": core.ActionAimRight,
	"D":           core.ActionAimRight,
	"shift+up":    core.ActionPowerUp,
	"W":           core.ActionPowerUp,
	"shift+down":  core.ActionPowerDown,
	"S":           core.ActionPowerDown,
}

// Frame translates a key message into the semantic actions it triggers.
func (k KeyMap) Frame(msg tea.KeyMsg) core.InputFrame {
	frame := core.NewInputFrame()
	switch {
	case key.Matches(msg, k.Quit):
		frame.Set(core.ActionQuit)
	case key.Matches(msg, k.Coarse):
		frame.Set(coarseKeys[msg.String()])
		frame.Set(core.ActionAimCoarse)
	case key.Matches(msg, k.AimLeft):
		frame.Set(core.ActionAimLeft)
	case key.Matches(msg, k.AimRight):
		frame.Set(core.ActionAimRight)
	case key.Matches(msg, k.PowerUp):
		frame.Set(core.ActionPowerUp)
	case key.Matches(msg, k.PowerDown):
		frame.Set(core.ActionPowerDown)
	case key.Matches(msg, k.Fire):
		frame.Set(core.ActionFire)
	case key.Matches(msg, k.Back):
		frame.Set(core.ActionBack)
	}
	return frame
}
