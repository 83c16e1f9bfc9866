package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
	"github.com/vovakirdan/neostack/internal/storage"
)

// banner is a short-lived message raised by game cues. It lives behind a
// pointer because cue listeners outlive any single copy of the model.
type banner struct {
	text  string
	until time.Time
}

func (b *banner) listen(g *game.Game) {
	g.OnCue(func(c game.Cue) {
		if label := cueLabel(c); label != "" {
			b.text = label
			b.until = time.Now().Add(time.Second)
		}
	})
}

func (b *banner) current(now time.Time) string {
	if now.After(b.until) {
		return ""
	}
	return b.text
}

// Model is the Bubble Tea model for a solo game.
type Model struct {
	game       *game.Game
	screen     *core.Screen
	store      *storage.Store
	config     core.RuntimeConfig
	keyMapper  *KeyMapper
	banner     *banner
	quitting   bool
	backToMenu bool
	scoreSaved bool // Whether score has been saved for current game over
}

// NewModel creates a solo model. The game waits in Idle for Enter.
func NewModel(rules game.Rules, store *storage.Store, cfg core.RuntimeConfig) Model {
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	g := game.New(rules, cfg.Seed)
	b := &banner{}
	b.listen(g)

	return Model{
		game:      g,
		screen:    core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		store:     store,
		config:    cfg,
		keyMapper: NewKeyMapper(),
		banner:    b,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+s" {
		m.saveScreenshot()
		return m, nil
	}

	action, isQuit := m.keyMapper.MapKey(msg)
	if isQuit {
		m.quitting = true
		m.game.Destroy()
		return m, tea.Quit
	}

	status := m.game.Status()
	switch action {
	case core.ActionStart:
		if status == game.StatusIdle || status == game.StatusGameOver {
			m.newGame()
		}
	case core.ActionRestart:
		if status == game.StatusGameOver {
			m.newGame()
		}
	case core.ActionPause:
		m.game.TogglePause()
	case core.ActionBack:
		if status == game.StatusPlaying {
			m.game.TogglePause()
			return m, nil
		}
		m.backToMenu = true
		m.game.Destroy()
		return m, tea.Quit
	default:
		if action.Gameplay() {
			applyAction(m.game, action)
		}
	}

	return m, nil
}

func (m *Model) newGame() {
	if m.game.Status() == game.StatusGameOver {
		// Reset seed for new game
		m.config.Seed = time.Now().UnixNano()
		m.game.Reseed(m.config.Seed)
		m.game.Reset()
	}
	m.scoreSaved = false
	m.game.Start()
}

// handleTick feeds the gravity clock.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.game.Advance(now)

	// Save score on game over (once)
	if m.game.Status() == game.StatusGameOver && !m.scoreSaved {
		if m.store != nil && m.game.Score() > 0 {
			//nolint:errcheck // Best-effort save, game continues regardless
			m.store.SaveScore(storage.ScoreEntry{
				Mode:  storage.ModeSolo,
				Score: m.game.Score(),
				Lines: m.game.Lines(),
				Level: m.game.Level(),
			})
		}
		m.scoreSaved = true
	}

	return m, tickCmd(m.config.TickRate)
}

// render draws the board and side panel centered on the screen.
func (m Model) render() {
	s := m.screen
	s.Clear()

	f := m.game.Frame()
	rows, cols := len(f.Grid), 0
	if rows > 0 {
		cols = len(f.Grid[0])
	}
	board := boardRect(0, 0, rows, cols)
	needW, needH := board.W+1+panelW, max(board.H, 20)
	if s.Width() < needW || s.Height() < needH {
		drawTooSmall(s, needW, needH)
		return
	}

	ox, oy := (s.Width()-needW)/2, (s.Height()-needH)/2
	board = boardRect(ox, oy, rows, cols)
	drawFrame(s, board, f)

	px := board.Right() + 1
	drawPreview(s, px, oy, "NEXT", f.Next, false)
	drawPreview(s, px, oy+6, "HOLD", f.Hold, !m.game.CanHold())
	drawStats(s, px, oy+12, f.Score, f.Lines, f.Level)

	if text := m.banner.current(time.Now()); text != "" && f.Status == game.StatusPlaying {
		s.DrawTextCentered(core.NewRect(px, 0, panelW, 1), oy+20, text, core.ColorBrightYellow)
	}

	switch f.Status {
	case game.StatusIdle:
		drawOverlay(s, board, "NEO-STACK", "Press ENTER", "to start")
	case game.StatusPaused:
		drawOverlay(s, board, "PAUSED", "P to resume", "Esc for menu")
	case game.StatusGameOver:
		drawOverlay(s, board, "GAME OVER", fmt.Sprintf("Score %d", f.Score), "R to retry", "Esc for menu")
	}
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.render()

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".neostack", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("neostack_%s.txt", timestamp))

	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	m.render()
	return RenderScreen(m.screen)
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}
