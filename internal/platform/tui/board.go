package tui

import (
	"fmt"

	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/game"
)

// Each board cell is two columns wide so squares look square.
const cellW = 2

const (
	blockRunes = "██"
	ghostRunes = "░░"
	panelW     = 14 // side panel width including border
)

// boardRect returns the bordered rectangle a rows x cols board occupies at (x, y).
func boardRect(x, y, rows, cols int) core.Rect {
	return core.NewRect(x, y, cols*cellW+2, rows+2)
}

// drawCell paints one board square at board coordinates (col, row) inside r.
func drawCell(s *core.Screen, r core.Rect, col, row int, text string, c core.Color) {
	inner := r.Inset(1)
	s.DrawTextColor(inner.X+col*cellW, inner.Y+row, text, c)
}

// drawGrid draws the border and locked cells of grid inside r.
func drawGrid(s *core.Screen, r core.Rect, grid [][]game.Cell, border core.Color) {
	s.DrawBox(r, border)
	for row, cells := range grid {
		for col, v := range cells {
			if v == game.Empty {
				drawCell(s, r, col, row, " ·", core.ColorGray)
				continue
			}
			drawCell(s, r, col, row, blockRunes, core.CellColor(int(v)))
		}
	}
}

// drawPiece paints the filled cells of p with its top-left at board row y.
func drawPiece(s *core.Screen, r core.Rect, p game.Piece, y int, text string) {
	inner := r.Inset(1)
	for dy, cells := range p.Shape {
		for dx, v := range cells {
			if v == game.Empty {
				continue
			}
			col, row := p.X+dx, y+dy
			if row < 0 || col < 0 || inner.X+col*cellW >= inner.Right() || inner.Y+row >= inner.Bottom() {
				continue
			}
			drawCell(s, r, col, row, text, core.CellColor(int(p.Color)))
		}
	}
}

// drawFrame renders a local board: locked cells, ghost, then the active piece.
func drawFrame(s *core.Screen, r core.Rect, f game.Frame) {
	drawGrid(s, r, f.Grid, core.ColorWhite)
	if f.Piece == nil {
		return
	}
	if f.Status == game.StatusPlaying && f.GhostY > f.Piece.Y {
		drawPiece(s, r, *f.Piece, f.GhostY, ghostRunes)
	}
	drawPiece(s, r, *f.Piece, f.Piece.Y, blockRunes)
}

// drawPreview draws a small labelled box holding p in spawn orientation.
func drawPreview(s *core.Screen, x, y int, label string, p *game.Piece, dim bool) core.Rect {
	r := core.NewRect(x, y, panelW, 6)
	s.DrawBox(r, core.ColorGray)
	s.DrawTextColor(x+2, y, " "+label+" ", core.ColorBrightWhite)
	if p == nil {
		return r
	}
	inner := r.Inset(1)
	color := core.CellColor(int(p.Color))
	if dim {
		color = core.ColorGray
	}
	shape := game.ShapeOf(p.Kind)
	ox := inner.X + (inner.W-len(shape)*cellW)/2
	for dy, cells := range shape {
		for dx, v := range cells {
			if v != game.Empty && inner.Y+dy < inner.Bottom() {
				s.DrawTextColor(ox+dx*cellW, inner.Y+dy, blockRunes, color)
			}
		}
	}
	return r
}

// drawStats draws score, lines and level in a box.
func drawStats(s *core.Screen, x, y int, score, lines, level int) core.Rect {
	r := core.NewRect(x, y, panelW, 8)
	s.DrawBox(r, core.ColorGray)
	s.DrawTextColor(x+2, y+1, "SCORE", core.ColorGray)
	s.DrawTextColor(x+2, y+2, fmt.Sprintf("%d", score), core.ColorBrightWhite)
	s.DrawTextColor(x+2, y+3, "LINES", core.ColorGray)
	s.DrawTextColor(x+2, y+4, fmt.Sprintf("%d", lines), core.ColorBrightWhite)
	s.DrawTextColor(x+2, y+5, "LEVEL", core.ColorGray)
	s.DrawTextColor(x+2, y+6, fmt.Sprintf("%d", level), core.ColorBrightWhite)
	return r
}

// drawOverlay draws a centered message box over r.
func drawOverlay(s *core.Screen, r core.Rect, title string, lines ...string) {
	w := len([]rune(title)) + 4
	for _, l := range lines {
		w = max(w, len([]rune(l))+4)
	}
	w = min(w, r.W)
	h := len(lines) + 4
	box := core.NewRect(r.X+(r.W-w)/2, r.Y+(r.H-h)/2, w, h)
	s.DrawRect(box, ' ', core.ColorDefault)
	s.DrawBox(box, core.ColorBrightYellow)
	s.DrawTextCentered(box, box.Y+1, title, core.ColorBrightYellow)
	for i, l := range lines {
		s.DrawTextCentered(box, box.Y+3+i, l, core.ColorWhite)
	}
}

// drawTooSmall tells the user to enlarge the terminal.
func drawTooSmall(s *core.Screen, needW, needH int) {
	full := core.NewRect(0, 0, s.Width(), s.Height())
	y := s.Height() / 2
	s.DrawTextCentered(full, y-1, "Terminal too small", core.ColorBrightRed)
	s.DrawTextCentered(full, y, fmt.Sprintf("need %dx%d, have %dx%d", needW, needH, s.Width(), s.Height()), core.ColorGray)
}

// cueLabel is the transient banner shown for a cue.
func cueLabel(c game.Cue) string {
	switch c {
	case game.CueClear:
		return "CLEAR!"
	case game.CueLevelUp:
		return "LEVEL UP"
	case game.CueHold:
		return "HOLD"
	case game.CueGameOver:
		return "TOP OUT"
	}
	return ""
}
