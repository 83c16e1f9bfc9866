package tui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
	"github.com/vovakirdan/neostack/internal/storage"
)

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

func testRuntime() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 42}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "scores.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// update feeds msg to a solo model.
func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func TestSoloStartsOnEnter(t *testing.T) {
	m := NewModel(game.DefaultRules(), nil, testRuntime())
	if m.game.Status() != game.StatusIdle {
		t.Fatalf("status = %v, want idle", m.game.Status())
	}

	m = update(t, m, keyEnter)
	if m.game.Status() != game.StatusPlaying {
		t.Fatalf("status = %v, want playing", m.game.Status())
	}
}

func TestSoloEscPausesThenLeaves(t *testing.T) {
	m := NewModel(game.DefaultRules(), nil, testRuntime())
	m = update(t, m, keyEnter)

	m = update(t, m, keyEsc)
	if m.game.Status() != game.StatusPaused {
		t.Fatalf("status = %v, want paused", m.game.Status())
	}
	if m.BackToMenu() {
		t.Fatal("first Esc should only pause")
	}

	m = update(t, m, keyEsc)
	if !m.BackToMenu() {
		t.Fatal("second Esc should go back to menu")
	}
}

func TestSoloSavesScoreOnce(t *testing.T) {
	store := openStore(t)
	m := NewModel(game.DefaultRules(), store, testRuntime())
	m = update(t, m, keyEnter)

	// Hard drops stack pieces until one locks on the spawn row.
	for i := 0; i < 200 && m.game.Status() != game.StatusGameOver; i++ {
		m = update(t, m, keySpace)
	}
	if m.game.Status() != game.StatusGameOver {
		t.Fatal("game did not top out")
	}
	score := m.game.Score()
	if score <= 0 {
		t.Fatalf("score = %d, want > 0", score)
	}

	now := time.Now()
	m = update(t, m, TickMsg(now))
	m = update(t, m, TickMsg(now.Add(time.Second)))

	scores, err := store.TopScores(storage.ModeSolo, 10)
	if err != nil {
		t.Fatalf("TopScores() error = %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("len(scores) = %d, want 1", len(scores))
	}
	if scores[0].Score != score {
		t.Errorf("saved score = %d, want %d", scores[0].Score, score)
	}

	// Restart clears the saved flag for the next game.
	m = update(t, m, runeKey("r"))
	if m.game.Status() != game.StatusPlaying || m.scoreSaved {
		t.Errorf("after restart status = %v, scoreSaved = %v", m.game.Status(), m.scoreSaved)
	}
}

func TestSoloQuit(t *testing.T) {
	m := NewModel(game.DefaultRules(), nil, testRuntime())
	next, cmd := m.Update(runeKey("q"))
	m = next.(Model)
	if !m.IsQuitting() {
		t.Error("IsQuitting() = false after q")
	}
	if cmd == nil {
		t.Error("quit returned no command")
	}
	if m.View() != "" {
		t.Error("View() should be empty while quitting")
	}
}
