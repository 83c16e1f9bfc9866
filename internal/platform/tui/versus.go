package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/storage"
)

// VersusModel runs the local game against a remote opponent. The local
// board keeps falling after the opponent tops out.
type VersusModel struct {
	game      *game.Game
	conn      *matchConn
	tracker   *multiplayer.MatchTracker
	throttle  *multiplayer.Throttle
	store     *storage.Store
	screen    *core.Screen
	config    core.RuntimeConfig
	keyMapper *KeyMapper
	banner    *banner
	timeout   time.Duration

	opponent     *game.Snapshot
	opponentOver bool
	opponentGone bool
	ended        multiplayer.EndReason
	result       *multiplayer.MatchResultData

	quitting   bool
	backToMenu bool
}

// NewVersusModel creates a match on an already started session.
func NewVersusModel(rules game.Rules, conn *matchConn, store *storage.Store, cfg core.RuntimeConfig, online OnlineConfig) VersusModel {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	timeout := online.Session.RequestTimeout
	if timeout <= 0 {
		timeout = multiplayer.DefaultSessionConfig().RequestTimeout
	}

	g := game.New(rules, cfg.Seed)
	b := &banner{}
	b.listen(g)

	return VersusModel{
		game:      g,
		conn:      conn,
		tracker:   multiplayer.NewMatchTracker(conn.session.Code(), conn.session.ID(), time.Now()),
		throttle:  multiplayer.NewThrottle(online.SnapshotInterval),
		store:     store,
		screen:    core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		config:    cfg,
		keyMapper: NewKeyMapper(),
		banner:    b,
		timeout:   timeout,
	}
}

// Init starts the local game, announces the first board and listens for the opponent.
func (m VersusModel) Init() tea.Cmd {
	m.game.Start()
	m.throttle.Ready(time.Now())
	return tea.Batch(
		tickCmd(m.config.TickRate),
		m.conn.events.wait(),
		m.sendState(m.game.Snapshot()),
	)
}

// sendState publishes snap in the background. Failures come back as session
// error events.
func (m VersusModel) sendState(snap game.Snapshot) tea.Cmd {
	session, timeout := m.conn.session, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		//nolint:errcheck // Reported through the session's error event
		session.SendState(ctx, snap)
		return nil
	}
}

// Update handles messages.
func (m VersusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil

	case TickMsg:
		return m.handleTick(time.Time(msg))

	case sessionEventMsg:
		return m.handleEvent(msg.evt)
	}

	return m, nil
}

func (m VersusModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.finish(multiplayer.EndQuit)
		m.quitting = true
		m.game.Destroy()
		return m, tea.Quit
	}

	live := m.ended == multiplayer.EndNone
	switch action {
	case core.ActionPause:
		if live {
			m.game.TogglePause()
		}
	case core.ActionBack:
		if live && m.game.Status() == game.StatusPlaying {
			m.game.TogglePause()
			return m, nil
		}
		m.finish(multiplayer.EndQuit)
		m.backToMenu = true
		m.game.Destroy()
		return m, tea.Quit
	default:
		if live && action.Gameplay() {
			applyAction(m.game, action)
		}
	}
	return m, nil
}

func (m VersusModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.config.TickRate)}
	if m.ended != multiplayer.EndNone {
		return m, cmds[0]
	}

	m.game.Advance(now)

	if m.game.Status() == game.StatusGameOver {
		reason := multiplayer.EndToppedOut
		if m.opponentOver {
			reason = multiplayer.EndOpponentToppedOut
		}
		m.finish(reason)
		// The final board always goes out, whatever the throttle says.
		cmds = append(cmds, m.sendState(m.game.Snapshot()))
	} else if m.throttle.Ready(now) {
		cmds = append(cmds, m.sendState(m.game.Snapshot()))
	}
	return m, tea.Batch(cmds...)
}

func (m VersusModel) handleEvent(evt multiplayer.Event) (tea.Model, tea.Cmd) {
	switch e := evt.(type) {
	case multiplayer.OpponentStateEvent:
		snap := e.State
		m.opponent = &snap
		if m.tracker.Observe(e) && !m.opponentOver {
			m.opponentOver = true
			m.banner.text = "OPPONENT OUT"
			m.banner.until = time.Now().Add(2 * time.Second)
		}
	case multiplayer.OpponentLeftEvent:
		m.opponentGone = true
		m.finish(multiplayer.EndOpponentLeft)
	case multiplayer.ErrorEvent:
		m.finish(multiplayer.EndConnectionLost)
	}
	return m, m.conn.events.wait()
}

// finish ends the match once and persists the result.
func (m *VersusModel) finish(reason multiplayer.EndReason) {
	if m.ended != multiplayer.EndNone {
		return
	}
	m.ended = reason

	result, ok := m.tracker.Finish(reason, multiplayer.LocalResult{
		Score: m.game.Score(),
		Lines: m.game.Lines(),
		Level: m.game.Level(),
	}, time.Now())
	if !ok {
		return
	}
	m.result = &result

	if m.store == nil {
		return
	}
	//nolint:errcheck // Best-effort save, the match is over either way
	m.store.SaveMatchResult(result)
	if result.Score > 0 {
		//nolint:errcheck // Best-effort save
		m.store.SaveScore(storage.ScoreEntry{
			Mode:  storage.ModeVersus,
			Score: result.Score,
			Lines: result.Lines,
			Level: result.Level,
		})
	}
}

// opponentStatus is the one-line summary under the opponent board.
func (m VersusModel) opponentStatus() (string, core.Color) {
	switch {
	case m.opponentGone:
		return "LEFT", core.ColorBrightRed
	case m.opponentOver:
		return "GAME OVER", core.ColorBrightRed
	case m.opponent == nil:
		return "WAITING", core.ColorGray
	}
	return fmt.Sprintf("Score %d", m.opponent.Score), core.ColorBrightWhite
}

// outcome is the overlay title once the match has ended.
func (m VersusModel) outcome() string {
	if m.result == nil || m.result.WinnerSession == "" {
		return "MATCH OVER"
	}
	if m.result.WinnerSession == m.result.PlayerSession {
		return "YOU WIN"
	}
	return "YOU LOSE"
}

// render draws own board, the shared panel and the opponent board.
func (m VersusModel) render() {
	s := m.screen
	s.Clear()

	f := m.game.Frame()
	rows, cols := len(f.Grid), 0
	if rows > 0 {
		cols = len(f.Grid[0])
	}

	oppGrid := f.Grid
	if m.opponent != nil && len(m.opponent.Grid) > 0 {
		oppGrid = m.opponent.Grid
	}
	oppRows, oppCols := len(oppGrid), 0
	if oppRows > 0 {
		oppCols = len(oppGrid[0])
	}

	board := boardRect(0, 0, rows, cols)
	opp := boardRect(0, 0, oppRows, oppCols)
	needW := board.W + 1 + panelW + 1 + opp.W
	needH := max(board.H, opp.H+1, 21)
	if s.Width() < needW || s.Height() < needH {
		drawTooSmall(s, needW, needH)
		return
	}

	ox, oy := (s.Width()-needW)/2, (s.Height()-needH)/2
	board = boardRect(ox, oy, rows, cols)
	drawFrame(s, board, f)
	s.DrawTextColor(board.X+2, board.Y, " YOU ", core.ColorBrightWhite)

	px := board.Right() + 1
	drawPreview(s, px, oy, "NEXT", f.Next, false)
	drawPreview(s, px, oy+6, "HOLD", f.Hold, !m.game.CanHold())
	drawStats(s, px, oy+12, f.Score, f.Lines, f.Level)
	if text := m.banner.current(time.Now()); text != "" {
		s.DrawTextCentered(core.NewRect(px, 0, panelW, 1), oy+20, text, core.ColorBrightYellow)
	}

	opp = boardRect(px+panelW+1, oy, oppRows, oppCols)
	if m.opponent != nil {
		drawGrid(s, opp, m.opponent.Grid, core.ColorGray)
	} else {
		drawGrid(s, opp, emptyGrid(oppRows, oppCols), core.ColorGray)
	}
	s.DrawTextColor(opp.X+2, opp.Y, " OPPONENT ", core.ColorBrightWhite)
	status, color := m.opponentStatus()
	s.DrawTextCentered(opp, opp.Bottom(), status, color)

	switch {
	case m.ended != multiplayer.EndNone:
		lines := []string{m.ended.String(), fmt.Sprintf("Score %d", f.Score)}
		if m.result != nil && m.result.OpponentSession != "" {
			lines = append(lines, fmt.Sprintf("Opponent %d", m.result.OpponentScore))
		}
		drawOverlay(s, board, m.outcome(), append(lines, "Esc for menu")...)
	case f.Status == game.StatusPaused:
		drawOverlay(s, board, "PAUSED", "P to resume", "Esc to leave")
	case f.Status == game.StatusGameOver:
		drawOverlay(s, board, "GAME OVER", fmt.Sprintf("Score %d", f.Score))
	}
}

func emptyGrid(rows, cols int) [][]game.Cell {
	g := make([][]game.Cell, rows)
	for i := range g {
		g[i] = make([]game.Cell, cols)
	}
	return g
}

// View renders the match.
func (m VersusModel) View() string {
	if m.quitting {
		return ""
	}
	m.render()
	return RenderScreen(m.screen)
}

// Result returns the persisted match result, or nil while the match runs.
func (m VersusModel) Result() *multiplayer.MatchResultData {
	return m.result
}

// Ended returns why the match ended, EndNone while it runs.
func (m VersusModel) Ended() multiplayer.EndReason {
	return m.ended
}

// IsQuitting returns true if user requested to quit entirely.
func (m VersusModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m VersusModel) BackToMenu() bool {
	return m.backToMenu
}
