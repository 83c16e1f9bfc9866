package game

// Kind identifies one of the seven tetromino types.
type Kind uint8

const (
	KindI Kind = iota
	KindJ
	KindL
	KindO
	KindS
	KindT
	KindZ
)

// KindOrder is the fixed type order. A piece's color id is its index here plus one.
const KindOrder = "IJLOSTZ"

// Kinds lists every kind in KindOrder.
var Kinds = []Kind{KindI, KindJ, KindL, KindO, KindS, KindT, KindZ}

// String returns the single-letter name.
func (k Kind) String() string {
	if int(k) < len(KindOrder) {
		return KindOrder[k : k+1]
	}
	return "?"
}

// Color returns the cell value used for this kind.
func (k Kind) Color() Cell {
	return Cell(k) + 1
}

// Shape is a square matrix of cells.
type Shape [][]Cell

// templates are built on demand; callers always receive a private copy.
var templates = map[Kind][][]uint8{
	KindI: {
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	},
	KindJ: {
		{1, 0, 0},
		{1, 1, 1},
		{0, 0, 0},
	},
	KindL: {
		{0, 0, 1},
		{1, 1, 1},
		{0, 0, 0},
	},
	KindO: {
		{1, 1},
		{1, 1},
	},
	KindS: {
		{0, 1, 1},
		{1, 1, 0},
		{0, 0, 0},
	},
	KindT: {
		{0, 1, 0},
		{1, 1, 1},
		{0, 0, 0},
	},
	KindZ: {
		{1, 1, 0},
		{0, 1, 1},
		{0, 0, 0},
	},
}

// ShapeOf returns a fresh spawn-orientation shape for k, colored with k's id.
func ShapeOf(k Kind) Shape {
	tpl := templates[k]
	s := make(Shape, len(tpl))
	for y, row := range tpl {
		s[y] = make([]Cell, len(row))
		for x, v := range row {
			if v != 0 {
				s[y][x] = k.Color()
			}
		}
	}
	return s
}

// Clone returns a deep copy.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for y := range s {
		out[y] = append([]Cell(nil), s[y]...)
	}
	return out
}

// Equal reports whether two shapes have identical contents.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for y := range s {
		if len(s[y]) != len(o[y]) {
			return false
		}
		for x := range s[y] {
			if s[y][x] != o[y][x] {
				return false
			}
		}
	}
	return true
}

// RotateCW returns the shape turned 90 degrees clockwise: transpose, then
// reverse each row.
func (s Shape) RotateCW() Shape {
	n := len(s)
	out := make(Shape, n)
	for y := range n {
		out[y] = make([]Cell, n)
		for x := range n {
			out[y][x] = s[x][y]
		}
	}
	for _, row := range out {
		for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
			row[i], row[j] = row[j], row[i]
		}
	}
	return out
}

// Piece is a shape anchored at (X, Y), the top-left corner of its matrix in
// grid coordinates. Pieces are values; moves produce new pieces.
type Piece struct {
	Kind  Kind
	Shape Shape
	Color Cell
	X     int
	Y     int
}

// NewPiece returns k in spawn orientation at (x, y).
func NewPiece(k Kind, x, y int) Piece {
	return Piece{Kind: k, Shape: ShapeOf(k), Color: k.Color(), X: x, Y: y}
}

// MovePiece returns p shifted by (dx, dy). The shape matrix is shared, which
// is safe because shapes are never written after construction.
func MovePiece(p Piece, dx, dy int) Piece {
	p.X += dx
	p.Y += dy
	return p
}

// RotatePiece returns p with its shape turned clockwise in place.
func RotatePiece(p Piece) Piece {
	p.Shape = p.Shape.RotateCW()
	return p
}

// Clone returns a piece that shares no memory with p.
func (p Piece) Clone() Piece {
	p.Shape = p.Shape.Clone()
	return p
}
