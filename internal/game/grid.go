// Package game implements the NEO-STACK rules: the board, the falling pieces,
// scoring and leveling, and the gravity clock. It has no I/O; hosts drive it
// with input calls and Advance, and observe it through Frame, Snapshot and cues.
package game

// Cell is one board square: 0 is empty, 1..7 is the color id of a locked piece.
type Cell int

// Empty marks an unoccupied cell.
const Empty Cell = 0

// Canonical board dimensions.
const (
	DefaultRows = 20
	DefaultCols = 10
)

// Grid is a fixed-size matrix of cells. Row 0 is the top.
type Grid struct {
	rows  int
	cols  int
	cells [][]Cell
}

// NewGrid returns an empty grid. Non-positive sizes fall back to 20x10.
func NewGrid(rows, cols int) *Grid {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	g := &Grid{rows: rows, cols: cols}
	g.Reset()
	return g
}

// Rows returns the grid height.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the grid width.
func (g *Grid) Cols() int { return g.cols }

// At returns the cell at column x, row y. Out-of-bounds reads return Empty.
func (g *Grid) At(x, y int) Cell {
	if !g.inside(x, y) {
		return Empty
	}
	return g.cells[y][x]
}

// Set writes a cell; out-of-bounds writes are ignored.
func (g *Grid) Set(x, y int, c Cell) {
	if !g.inside(x, y) {
		return
	}
	g.cells[y][x] = c
}

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && x < g.cols && y >= 0 && y < g.rows
}

// Cells returns a deep copy of the matrix.
func (g *Grid) Cells() [][]Cell {
	out := make([][]Cell, g.rows)
	for y := range g.rows {
		out[y] = make([]Cell, g.cols)
		copy(out[y], g.cells[y])
	}
	return out
}

// IsValid reports whether every filled cell of the piece's shape lies inside
// the grid on an empty square. Empty shape cells are unconstrained.
func (g *Grid) IsValid(p Piece) bool {
	for dy, row := range p.Shape {
		for dx, c := range row {
			if c == Empty {
				continue
			}
			x, y := p.X+dx, p.Y+dy
			if !g.inside(x, y) || g.cells[y][x] != Empty {
				return false
			}
		}
	}
	return true
}

// Freeze writes the piece's filled cells into the grid. It does not validate.
func (g *Grid) Freeze(p Piece) {
	for dy, row := range p.Shape {
		for dx, c := range row {
			if c != Empty {
				g.Set(p.X+dx, p.Y+dy, c)
			}
		}
	}
}

// ClearLines removes every full row, inserting an empty row at the top for
// each one, and returns how many rows were removed.
func (g *Grid) ClearLines() int {
	kept := make([][]Cell, 0, g.rows)
	for _, row := range g.cells {
		if !rowFull(row) {
			kept = append(kept, row)
		}
	}
	cleared := g.rows - len(kept)
	if cleared == 0 {
		return 0
	}

	fresh := make([][]Cell, 0, g.rows)
	for range cleared {
		fresh = append(fresh, make([]Cell, g.cols))
	}
	g.cells = append(fresh, kept...)
	return cleared
}

func rowFull(row []Cell) bool {
	for _, c := range row {
		if c == Empty {
			return false
		}
	}
	return true
}

// Reset empties every cell.
func (g *Grid) Reset() {
	g.cells = make([][]Cell, g.rows)
	for y := range g.rows {
		g.cells[y] = make([]Cell, g.cols)
	}
}
