package core

// Action represents a semantic player intent, abstracted from physical key presses.
type Action int

const (
	ActionNone      Action = iota
	ActionAimLeft          // Left arrow, A - rotate cannon counter-clockwise
	ActionAimRight         // Right arrow, D - rotate cannon clockwise
	ActionAimCoarse        // Shift modifier - larger aim step
	ActionPowerUp          // Up arrow, W
	ActionPowerDown        // Down arrow, S
	ActionFire             // Space, Enter
	ActionBack             // Esc, B
	ActionQuit             // Q, Ctrl+C
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionAimLeft:
		return "AimLeft"
	case ActionAimRight:
		return "AimRight"
	case ActionAimCoarse:
		return "AimCoarse"
	case ActionPowerUp:
		return "PowerUp"
	case ActionPowerDown:
		return "PowerDown"
	case ActionFire:
		return "Fire"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// InputFrame collects the actions triggered between two animation frames.
type InputFrame struct {
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
}
