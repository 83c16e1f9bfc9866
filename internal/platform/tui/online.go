package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/registry"
)

// lobbyOpTimeout bounds a create or join, including code retries.
const lobbyOpTimeout = 15 * time.Second

// OnlineConfig is what the host needs to reach other players.
type OnlineConfig struct {
	// Connect opens a fresh channel backend for one match.
	Connect          func(ctx context.Context) (*registry.Backend, error)
	Session          multiplayer.SessionConfig
	SnapshotInterval time.Duration
}

// Enabled reports whether online play is available.
func (c OnlineConfig) Enabled() bool {
	return c.Connect != nil
}

// matchConn is one open backend with the session riding on it.
type matchConn struct {
	backend *registry.Backend
	session *multiplayer.Session
	events  *eventBridge
	once    sync.Once
}

// close leaves the room and releases the backend. Safe to call multiple times.
func (c *matchConn) close(timeout time.Duration) {
	c.once.Do(func() {
		c.events.close()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		//nolint:errcheck // Best-effort leave on teardown
		c.session.Close(ctx)
		//nolint:errcheck // Best-effort close on teardown
		c.backend.Close()
	})
}

func (c *matchConn) closeCmd() tea.Cmd {
	return func() tea.Msg {
		c.close(5 * time.Second)
		return nil
	}
}

// LobbyState represents the current state of the online matchmaking flow.
type LobbyState int

const (
	LobbyConnecting    LobbyState = iota // Opening the backend
	LobbyChooseMode                      // Choose Host or Join
	LobbyHostWaiting                     // Hosting, waiting for joiner
	LobbyJoinEnterCode                   // Entering join code
	LobbyJoinWaiting                     // Join sent, waiting for the start signal
	LobbyPaired                          // Both players present
	LobbyReady                           // game_start seen, hand over to the match
	LobbyFailed                          // Unrecoverable error, Esc to go back
)

// LobbyMode selects what the lobby does once connected.
type LobbyMode int

const (
	LobbyModeAsk LobbyMode = iota
	LobbyModeHost
	LobbyModeJoin
)

type connectedMsg struct {
	conn *matchConn
	err  error
}

type roomCreatedMsg struct {
	code string
	err  error
}

type roomJoinedMsg struct {
	code string
	err  error
}

// LobbyModel handles the online matchmaking flow.
type LobbyModel struct {
	state  LobbyState
	mode   LobbyMode
	width  int
	height int
	online OnlineConfig
	conn   *matchConn

	code    string
	input   textinput.Model
	message string // last error or notice

	backToMenu bool
	quitting   bool
}

// NewLobbyModel creates a lobby. A non-empty code with LobbyModeJoin joins
// it immediately after connecting.
func NewLobbyModel(online OnlineConfig, mode LobbyMode, code string, width, height int) LobbyModel {
	ti := textinput.New()
	ti.Placeholder = "1234"
	ti.CharLimit = 4
	ti.Width = 6
	ti.Prompt = ""
	ti.SetValue(code)

	return LobbyModel{
		state:  LobbyConnecting,
		mode:   mode,
		width:  width,
		height: height,
		online: online,
		code:   code,
		input:  ti,
	}
}

// Init starts connecting.
func (m LobbyModel) Init() tea.Cmd {
	return m.connectCmd()
}

func (m LobbyModel) connectCmd() tea.Cmd {
	online := m.online
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lobbyOpTimeout)
		defer cancel()

		backend, err := online.Connect(ctx)
		if err != nil {
			return connectedMsg{err: err}
		}
		session := multiplayer.NewSession(backend.Channel, online.Session)
		return connectedMsg{conn: &matchConn{
			backend: backend,
			session: session,
			events:  bridgeEvents(session),
		}}
	}
}

func (m LobbyModel) createCmd() tea.Cmd {
	session := m.conn.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lobbyOpTimeout)
		defer cancel()
		code, err := session.CreateRoom(ctx)
		return roomCreatedMsg{code: code, err: err}
	}
}

func (m LobbyModel) joinCmd(code string) tea.Cmd {
	session := m.conn.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lobbyOpTimeout)
		defer cancel()
		return roomJoinedMsg{code: code, err: session.JoinRoom(ctx, code)}
	}
}

func (m LobbyModel) leaveCmd() tea.Cmd {
	session := m.conn.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), lobbyOpTimeout)
		defer cancel()
		//nolint:errcheck // Leaving is idempotent; failures surface as events
		session.LeaveRoom(ctx)
		return nil
	}
}

// Update handles messages.
func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectedMsg:
		return m.handleConnected(msg)

	case roomCreatedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.code = msg.code
		return m, nil

	case roomJoinedMsg:
		if m.state != LobbyJoinWaiting {
			return m, nil
		}
		if msg.err != nil {
			m.state = LobbyJoinEnterCode
			m.message = describeError(msg.err)
			return m, m.input.Focus()
		}
		m.code = msg.code
		return m, nil

	case sessionEventMsg:
		return m.handleEvent(msg.evt)
	}

	if m.state == LobbyJoinEnterCode {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m LobbyModel) handleConnected(msg connectedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.fail(msg.err)
		return m, nil
	}
	m.conn = msg.conn

	switch m.mode {
	case LobbyModeHost:
		next, cmd := m.host()
		return next, tea.Batch(cmd, m.conn.events.wait())
	case LobbyModeJoin:
		if m.code != "" {
			m.state = LobbyJoinWaiting
			return m, tea.Batch(m.joinCmd(m.code), m.conn.events.wait())
		}
		m.state = LobbyJoinEnterCode
		return m, tea.Batch(m.input.Focus(), m.conn.events.wait())
	default:
		m.state = LobbyChooseMode
		return m, m.conn.events.wait()
	}
}

func (m LobbyModel) host() (tea.Model, tea.Cmd) {
	m.state = LobbyHostWaiting
	m.message = ""
	m.code = ""
	return m, m.createCmd()
}

func (m LobbyModel) handleEvent(evt multiplayer.Event) (tea.Model, tea.Cmd) {
	next := m.conn.events.wait()

	switch e := evt.(type) {
	case multiplayer.RoomCreatedEvent:
		m.code = e.Code
	case multiplayer.PlayerJoinedEvent:
		if m.state == LobbyHostWaiting || m.state == LobbyJoinWaiting {
			m.state = LobbyPaired
		}
	case multiplayer.GameStartEvent:
		m.state = LobbyReady
		// The match takes over the event stream.
		return m, nil
	case multiplayer.OpponentLeftEvent:
		if m.state == LobbyPaired {
			m.fail(errors.New("opponent left before the game started"))
		}
	case multiplayer.ErrorEvent:
		// Create and join failures arrive through their command results.
		if errors.Is(e.Err, multiplayer.ErrTransport) || errors.Is(e.Err, multiplayer.ErrRoomExpired) {
			m.fail(e.Err)
		}
	}
	return m, next
}

func (m *LobbyModel) fail(err error) {
	m.state = LobbyFailed
	m.message = describeError(err)
}

// describeError turns session errors into a line for the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, multiplayer.ErrInvalidCode):
		return "Codes are four digits, 1000-9999"
	case errors.Is(err, multiplayer.ErrNoFreeCode):
		return "No free room code, try again"
	case errors.Is(err, multiplayer.ErrTransport):
		return "Connection lost"
	}
	return multiplayer.ReasonFor(err)
}

func (m LobbyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global quit
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case LobbyChooseMode:
		return m.handleChooseModeKey(key)
	case LobbyJoinEnterCode:
		return m.handleJoinCodeKey(msg)
	case LobbyJoinWaiting:
		if key == "esc" {
			m.state = LobbyJoinEnterCode
			return m, tea.Batch(m.leaveCmd(), m.input.Focus())
		}
	default:
		switch key {
		case "esc", "b":
			m.backToMenu = true
			return m, tea.Quit
		case "q":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if m.state == LobbyFailed {
				m.backToMenu = true
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

func (m LobbyModel) handleChooseModeKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "h", "H", "1":
		return m.host()
	case "j", "J", "2":
		m.state = LobbyJoinEnterCode
		m.message = ""
		m.input.Reset()
		return m, m.input.Focus()
	case "esc", "b":
		m.backToMenu = true
		return m, tea.Quit
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m LobbyModel) handleJoinCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.backToMenu = true
		return m, tea.Quit
	case tea.KeyEnter:
		code := strings.TrimSpace(m.input.Value())
		if code == "" {
			return m, nil
		}
		m.state = LobbyJoinWaiting
		m.message = ""
		m.input.Blur()
		return m, m.joinCmd(code)
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

var (
	lobbyTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	lobbyCodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")).
			Border(lipgloss.RoundedBorder()).Padding(0, 2)
	lobbyErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	lobbyHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the current state.
func (m LobbyModel) View() string {
	if m.quitting {
		return ""
	}

	var title string
	var body []string
	hint := "Esc: Back  |  Q: Quit"

	switch m.state {
	case LobbyConnecting:
		title = "CONNECTING"
		body = []string{"Opening connection..."}
		hint = "Esc: Cancel"
	case LobbyChooseMode:
		title = "ONLINE"
		body = []string{"Choose an option:", "", "[H] Host a game", "[J] Join a game"}
	case LobbyHostWaiting:
		title = "HOSTING GAME"
		if m.code == "" {
			body = []string{"Creating room..."}
		} else {
			body = []string{"Share this code with your opponent:", "", lobbyCodeStyle.Render(m.code), "", "Waiting for player to join..."}
		}
		hint = "Esc: Cancel  |  Q: Quit"
	case LobbyJoinEnterCode:
		title = "JOIN GAME"
		body = []string{"Enter the game code:", "", lobbyCodeStyle.Render(m.input.View())}
		hint = "Enter: Connect  |  Esc: Back"
	case LobbyJoinWaiting:
		title = "JOINING"
		body = []string{fmt.Sprintf("Joining game %s", m.input.Value()), "", "Please wait..."}
		hint = "Esc: Cancel"
	case LobbyPaired, LobbyReady:
		title = "MATCH STARTING"
		body = []string{fmt.Sprintf("Room %s", m.code), "", "Opponent connected. Get ready!"}
	case LobbyFailed:
		title = "ONLINE"
		hint = "Enter/Esc: Back  |  Q: Quit"
	}

	if m.message != "" {
		body = append(body, "", lobbyErrorStyle.Render("Error: "+m.message))
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(lobbyTitleStyle.Render(title), m.width))
	b.WriteString("\n\n")
	for _, line := range body {
		b.WriteString(centerBlock(line, m.width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(centerText(lobbyHintStyle.Render(hint), m.width))

	return b.String()
}

// State returns the current lobby state.
func (m LobbyModel) State() LobbyState {
	return m.state
}

// Ready reports whether the match has started.
func (m LobbyModel) Ready() bool {
	return m.state == LobbyReady
}

// Code returns the room code.
func (m LobbyModel) Code() string {
	return m.code
}

// BackToMenu returns true if user wants to go back to menu.
func (m LobbyModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting returns true if user wants to quit entirely.
func (m LobbyModel) IsQuitting() bool {
	return m.quitting
}
