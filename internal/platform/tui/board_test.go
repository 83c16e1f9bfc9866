package tui

import (
	"strings"
	"testing"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
)

func TestBoardRect(t *testing.T) {
	r := boardRect(3, 1, 20, 10)
	if r.X != 3 || r.Y != 1 || r.W != 22 || r.H != 22 {
		t.Errorf("boardRect = %+v, want {3 1 22 22}", r)
	}
}

func TestDrawFrameShowsPieceAndGhost(t *testing.T) {
	g := game.New(game.DefaultRules(), 7)
	g.Start()

	s := core.NewScreen(40, 24)
	r := boardRect(0, 0, 20, 10)
	drawFrame(s, r, g.Frame())

	out := s.String()
	if !strings.Contains(out, blockRunes) {
		t.Error("active piece not drawn")
	}
	if !strings.Contains(out, ghostRunes) {
		t.Error("ghost not drawn for a piece above the floor")
	}
	if s.Get(0, 0) != '┌' {
		t.Errorf("top-left corner = %q, want '┌'", s.Get(0, 0))
	}
}

func TestDrawTooSmall(t *testing.T) {
	s := core.NewScreen(20, 5)
	drawTooSmall(s, 37, 22)
	if !strings.Contains(s.String(), "Terminal too small") {
		t.Error("missing too-small message")
	}
}

func TestSoloViewOverlays(t *testing.T) {
	cfg := core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickRate: 60, Seed: 1}
	m := NewModel(game.DefaultRules(), nil, cfg)

	m.render()
	if !strings.Contains(m.screen.String(), "NEO-STACK") {
		t.Error("idle overlay missing")
	}

	m.game.Start()
	m.game.TogglePause()
	m.render()
	if !strings.Contains(m.screen.String(), "PAUSED") {
		t.Error("pause overlay missing")
	}
}

func TestRenderScreenTrimsTrailingBlanks(t *testing.T) {
	s := core.NewScreen(10, 2)
	s.DrawText(1, 0, "ab")
	s.DrawTextColor(0, 1, "c", core.ColorRed)

	lines := strings.Split(RenderScreen(s), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != " ab" {
		t.Errorf("line 0 = %q, want %q", lines[0], " ab")
	}
	if !strings.Contains(lines[1], "c") || strings.HasSuffix(lines[1], " ") {
		t.Errorf("line 1 = %q, want the colored c without padding", lines[1])
	}
}
