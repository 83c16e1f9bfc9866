package game

// Snapshot is the self-contained view of a board sent to an opponent.
// The grid holds locked cells only.
type Snapshot struct {
	Grid       [][]Cell `json:"grid"`
	Score      int      `json:"score"`
	IsGameOver bool     `json:"isGameOver"`
}

// Status is the lifecycle state of a Game.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
	StatusGameOver
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusGameOver:
		return "game over"
	default:
		return "unknown"
	}
}

// Frame is everything a renderer needs to draw one frame.
type Frame struct {
	Grid   [][]Cell
	Piece  *Piece
	GhostY int
	Next   *Piece
	Hold   *Piece
	Score  int
	Lines  int
	Level  int
	Status Status
}
