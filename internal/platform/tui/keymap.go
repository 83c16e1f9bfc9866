package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
)

// KeyMapper translates Bubble Tea key messages to game actions.
// This centralizes key bindings and makes them testable.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to a game action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	case "a", "left", "h":
		return core.ActionLeft, false
	case "d", "right", "l":
		return core.ActionRight, false
	case "s", "down", "j":
		return core.ActionSoftDrop, false
	case "w", "up", "k", "x":
		return core.ActionRotate, false
	case " ":
		return core.ActionHardDrop, false
	case "c", "shift+left":
		return core.ActionHold, false
	case "p":
		return core.ActionPause, false
	case "enter":
		return core.ActionStart, false
	case "r":
		return core.ActionRestart, false
	case "b", "esc":
		return core.ActionBack, false
	}

	return core.ActionNone, false
}

// MenuAction represents a menu-specific action derived from input.
type MenuAction int

const (
	MenuActionNone MenuAction = iota
	MenuActionUp
	MenuActionDown
	MenuActionSelect
	MenuActionBack
	MenuActionScoreboard
	MenuActionQuit
)

// MapKeyToMenuAction translates a key to a menu action.
func (km *KeyMapper) MapKeyToMenuAction(msg tea.KeyMsg) MenuAction {
	switch msg.String() {
	case "ctrl+c", "q":
		return MenuActionQuit
	case "w", "up", "k": // vim-style k for up
		return MenuActionUp
	case "s", "down", "j": // vim-style j for down
		return MenuActionDown
	case "enter", " ":
		return MenuActionSelect
	case "b", "esc":
		return MenuActionBack
	case "tab":
		return MenuActionScoreboard
	}

	return MenuActionNone
}

// applyAction performs a gameplay action on g. Non-gameplay actions are ignored.
func applyAction(g *game.Game, a core.Action) {
	switch a {
	case core.ActionLeft:
		g.MoveLeft()
	case core.ActionRight:
		g.MoveRight()
	case core.ActionSoftDrop:
		g.MoveDown(false)
	case core.ActionHardDrop:
		g.HardDrop()
	case core.ActionRotate:
		g.Rotate()
	case core.ActionHold:
		g.HoldPiece()
	}
}
