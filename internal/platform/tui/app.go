package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
	"github.com/vovakirdan/neostack/internal/storage"
)

// Entry selects the first screen of an AppModel.
type Entry int

const (
	EntryMenu Entry = iota
	EntrySolo
	EntryHost
	EntryJoin
)

// AppOptions configures an AppModel.
type AppOptions struct {
	Rules    game.Rules
	Store    *storage.Store // Optional
	Runtime  core.RuntimeConfig
	Online   OnlineConfig
	Entry    Entry
	JoinCode string // Used with EntryJoin; empty prompts for a code
}

type appScreen int

const (
	screenMenu appScreen = iota
	screenSolo
	screenLobby
	screenVersus
	screenScores
)

// AppModel manages the full flow: menu -> solo or lobby -> match -> menu.
// It owns the match connection and closes it whenever a match screen is left.
// Started from any entry other than EntryMenu, leaving that screen quits.
type AppModel struct {
	opts     AppOptions
	config   core.RuntimeConfig
	screen   appScreen
	menu     MenuModel
	solo     Model
	lobby    LobbyModel
	versus   VersusModel
	scores   ScoreboardModel
	conn     *matchConn
	quitting bool
}

// NewAppModel creates the top-level model.
func NewAppModel(opts AppOptions) AppModel {
	m := AppModel{
		opts:   opts,
		config: opts.Runtime,
	}

	switch opts.Entry {
	case EntrySolo:
		m.screen = screenSolo
		m.solo = NewModel(opts.Rules, opts.Store, m.config)
	case EntryHost:
		m.screen = screenLobby
		m.lobby = NewLobbyModel(opts.Online, LobbyModeHost, "", m.config.ScreenW, m.config.ScreenH)
	case EntryJoin:
		m.screen = screenLobby
		m.lobby = NewLobbyModel(opts.Online, LobbyModeJoin, opts.JoinCode, m.config.ScreenW, m.config.ScreenH)
	default:
		m.screen = screenMenu
		m.menu = NewMenuModel(opts.Store, m.config, opts.Online.Enabled())
	}
	return m
}

// Init initializes the first screen.
func (m AppModel) Init() tea.Cmd {
	switch m.screen {
	case screenSolo:
		return m.solo.Init()
	case screenLobby:
		return m.lobby.Init()
	}
	return m.menu.Init()
}

// Update routes messages to the active screen.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	// A connection that finished opening after its lobby was abandoned.
	if c, ok := msg.(connectedMsg); ok && m.screen != screenLobby {
		if c.conn != nil {
			return m, c.conn.closeCmd()
		}
		return m, nil
	}

	switch m.screen {
	case screenSolo:
		return m.updateSolo(msg)
	case screenLobby:
		return m.updateLobby(msg)
	case screenVersus:
		return m.updateVersus(msg)
	case screenScores:
		return m.updateScores(msg)
	}
	return m.updateMenu(msg)
}

func (m AppModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menu, ok := next.(MenuModel); ok {
		m.menu = menu
	}

	if m.menu.IsQuitting() {
		return m.quit()
	}
	if m.menu.WantsScoreboard() {
		m.screen = screenScores
		m.scores = NewScoreboardModel(m.opts.Store, m.config.ScreenW, m.config.ScreenH)
		return m, m.scores.Init()
	}

	if selected := m.menu.Selected(); selected != nil {
		switch selected.Choice {
		case ChoiceSolo:
			m.screen = screenSolo
			m.solo = NewModel(m.opts.Rules, m.opts.Store, m.config)
			return m, m.solo.Init()
		case ChoiceHost:
			m.screen = screenLobby
			m.lobby = NewLobbyModel(m.opts.Online, LobbyModeHost, "", m.config.ScreenW, m.config.ScreenH)
			return m, m.lobby.Init()
		case ChoiceJoin:
			m.screen = screenLobby
			m.lobby = NewLobbyModel(m.opts.Online, LobbyModeJoin, "", m.config.ScreenW, m.config.ScreenH)
			return m, m.lobby.Init()
		}
	}

	return m, cmd
}

func (m AppModel) updateSolo(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.solo.Update(msg)
	if solo, ok := next.(Model); ok {
		m.solo = solo
	}

	switch {
	case m.solo.IsQuitting():
		return m.quit()
	case m.solo.BackToMenu():
		return m.toMenu()
	}
	return m, cmd
}

func (m AppModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.lobby.Update(msg)
	if lobby, ok := next.(LobbyModel); ok {
		m.lobby = lobby
	}
	if m.lobby.conn != nil {
		m.conn = m.lobby.conn
	}

	switch {
	case m.lobby.IsQuitting():
		return m.quit()
	case m.lobby.BackToMenu():
		return m.toMenu()
	case m.lobby.Ready():
		m.screen = screenVersus
		m.versus = NewVersusModel(m.opts.Rules, m.conn, m.opts.Store, m.config, m.opts.Online)
		return m, m.versus.Init()
	}
	return m, cmd
}

func (m AppModel) updateVersus(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.versus.Update(msg)
	if versus, ok := next.(VersusModel); ok {
		m.versus = versus
	}

	switch {
	case m.versus.IsQuitting():
		return m.quit()
	case m.versus.BackToMenu():
		return m.toMenu()
	}
	return m, cmd
}

func (m AppModel) updateScores(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.scores.Update(msg)
	if scores, ok := next.(ScoreboardModel); ok {
		m.scores = scores
	}

	switch {
	case m.scores.IsQuitting():
		return m.quit()
	case m.scores.IsGoingBack():
		return m.toMenu()
	}
	return m, cmd
}

// release hands back a command that closes the match connection, if any.
func (m *AppModel) release() tea.Cmd {
	if m.conn == nil {
		return nil
	}
	c := m.conn
	m.conn = nil
	return c.closeCmd()
}

func (m AppModel) toMenu() (tea.Model, tea.Cmd) {
	if m.opts.Entry != EntryMenu {
		return m.quit()
	}
	cmd := m.release()
	m.screen = screenMenu
	m.menu = NewMenuModel(m.opts.Store, m.config, m.opts.Online.Enabled())
	return m, tea.Batch(cmd, m.menu.Init())
}

// quit leaves any room before the program stops.
func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Close()
	m.conn = nil
	return m, tea.Quit
}

// View renders the active screen.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenSolo:
		return m.solo.View()
	case screenLobby:
		return m.lobby.View()
	case screenVersus:
		return m.versus.View()
	case screenScores:
		return m.scores.View()
	}
	return m.menu.View()
}

// Close releases a match connection still held when the program stopped.
func (m AppModel) Close() {
	if m.conn != nil {
		m.conn.close(5 * time.Second)
	}
}

// RunApp runs the application until the user quits.
func RunApp(opts AppOptions) error {
	p := tea.NewProgram(
		NewAppModel(opts),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if m, ok := finalModel.(AppModel); ok {
		m.Close()
	}
	return err
}
