package core

// Color represents a foreground color for a screen cell.
// The platform layer maps each value to an ANSI 256-color code.
type Color uint8

// Terminal colors used by the board, panels and text.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// piecePalette is indexed by board cell value. Index 0 is an empty cell.
var piecePalette = [...]Color{
	ColorDefault, // empty
	ColorCyan,    // I
	ColorBlue,    // J
	ColorOrange,  // L
	ColorYellow,  // O
	ColorGreen,   // S
	ColorMagenta, // T
	ColorRed,     // Z
}

// CellColor returns the display color for a board cell value.
// Unknown values render gray so corrupt remote state stays visible.
func CellColor(v int) Color {
	if v < 0 || v >= len(piecePalette) {
		return ColorGray
	}
	return piecePalette[v]
}
