package core

// Action represents a semantic game action, abstracted from physical key presses.
type Action int

const (
	ActionNone     Action = iota
	ActionLeft            // A, Left arrow
	ActionRight           // D, Right arrow
	ActionSoftDrop        // S, Down arrow
	ActionHardDrop        // Space
	ActionRotate          // W, Up arrow
	ActionHold            // C
	ActionPause           // P
	ActionStart           // Enter while idle
	ActionRestart         // R after game over
	ActionConfirm         // Enter in menus
	ActionBack            // Escape, B
	ActionQuit            // Q, Ctrl+C
)

var actionNames = map[Action]string{
	ActionNone:     "None",
	ActionLeft:     "Left",
	ActionRight:    "Right",
	ActionSoftDrop: "SoftDrop",
	ActionHardDrop: "HardDrop",
	ActionRotate:   "Rotate",
	ActionHold:     "Hold",
	ActionPause:    "Pause",
	ActionStart:    "Start",
	ActionRestart:  "Restart",
	ActionConfirm:  "Confirm",
	ActionBack:     "Back",
	ActionQuit:     "Quit",
}

// String returns a human-readable name for the action.
func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "Unknown"
}

// Gameplay reports whether the action changes the falling piece.
func (a Action) Gameplay() bool {
	switch a {
	case ActionLeft, ActionRight, ActionSoftDrop, ActionHardDrop, ActionRotate, ActionHold:
		return true
	}
	return false
}
