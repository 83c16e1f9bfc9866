package game

import "time"

// Game is one player's board and play session. It has a single mutator: all
// methods must be called from the same goroutine (the host's tick loop).
type Game struct {
	rules  Rules
	seed   int64
	grid   *Grid
	source Source

	piece   Piece
	next    Piece
	hold    *Piece
	canHold bool

	score int
	lines int
	level int

	playing   bool
	paused    bool
	gameOver  bool
	destroyed bool

	clock gravityClock

	listeners    []cueListener
	nextListener int
}

// New returns an idle game.
func New(rules Rules, seed int64) *Game {
	rules = rules.normalized()
	return &Game{
		rules:   rules,
		seed:    seed,
		grid:    NewGrid(rules.Rows, rules.Cols),
		canHold: true,
	}
}

// Reseed sets the seed used by the next Start.
func (g *Game) Reseed(seed int64) { g.seed = seed }

// Rules returns the rule set the game was built with.
func (g *Game) Rules() Rules { return g.rules }

// Score returns the current score.
func (g *Game) Score() int { return g.score }

// Lines returns the total rows cleared this session.
func (g *Game) Lines() int { return g.lines }

// Level returns the current level.
func (g *Game) Level() int { return g.level }

// Piece returns the active piece.
func (g *Game) Piece() Piece { return g.piece }

// Next returns the upcoming piece.
func (g *Game) Next() Piece { return g.next }

// Hold returns the held piece, if any.
func (g *Game) Hold() (Piece, bool) {
	if g.hold == nil {
		return Piece{}, false
	}
	return *g.hold, true
}

// Grid exposes the board for read access.
func (g *Game) Grid() *Grid { return g.grid }

// Status reports the lifecycle state.
func (g *Game) Status() Status {
	switch {
	case g.gameOver:
		return StatusGameOver
	case g.playing && g.paused:
		return StatusPaused
	case g.playing:
		return StatusPlaying
	default:
		return StatusIdle
	}
}

// Start begins a new session. It is a no-op while a session is in progress.
func (g *Game) Start() {
	if g.destroyed || g.playing {
		return
	}
	g.clearState()
	g.source = NewSource(g.rules.Randomizer, g.seed, g.rules.SpawnX)
	g.piece = g.source.Next()
	g.next = g.source.Next()
	g.playing = true
	g.clock.start()
}

// Reset returns to Idle with an empty board and zeroed counters.
func (g *Game) Reset() {
	if g.destroyed {
		return
	}
	g.clearState()
}

func (g *Game) clearState() {
	g.score, g.lines, g.level = 0, 0, 0
	g.grid.Reset()
	g.piece, g.next = Piece{}, Piece{}
	g.hold = nil
	g.canHold = true
	g.playing, g.paused, g.gameOver = false, false, false
	g.clock.stop()
}

// Destroy stops the clock and drops listeners. Every later call is a no-op.
func (g *Game) Destroy() {
	if g.destroyed {
		return
	}
	g.playing = false
	g.clock.stop()
	g.listeners = nil
	g.destroyed = true
}

// TogglePause flips between Playing and Paused. Resuming re-baselines the
// gravity clock so the pause does not count as elapsed time.
func (g *Game) TogglePause() {
	if g.destroyed || !g.playing || g.gameOver {
		return
	}
	g.paused = !g.paused
	if !g.paused {
		g.clock.rebase()
	}
}

func (g *Game) active() bool {
	return !g.destroyed && g.playing && !g.paused && !g.gameOver
}

// Advance feeds the gravity clock with a monotonic timestamp. When the
// accumulated time exceeds the current level's interval the piece falls one row.
// It reports whether a gravity step happened.
func (g *Game) Advance(now time.Time) bool {
	if !g.active() {
		return false
	}
	if !g.clock.advance(now, g.rules.Interval(g.level)) {
		return false
	}
	g.MoveDown(true)
	return true
}

// MoveDown shifts the piece one row. A manual step scores a soft-drop point.
// If the piece cannot move it lands. It reports whether the piece moved.
func (g *Game) MoveDown(auto bool) bool {
	if !g.active() {
		return false
	}
	p := MovePiece(g.piece, 0, 1)
	if !g.grid.IsValid(p) {
		g.lock()
		return false
	}
	g.piece = p
	if !auto {
		g.score += g.rules.SoftDropPoint
		g.cue(CueMove)
	}
	return true
}

// MoveLeft shifts the piece one column left if the target is free.
func (g *Game) MoveLeft() bool { return g.shift(-1) }

// MoveRight shifts the piece one column right if the target is free.
func (g *Game) MoveRight() bool { return g.shift(1) }

func (g *Game) shift(dx int) bool {
	if !g.active() {
		return false
	}
	p := MovePiece(g.piece, dx, 0)
	if !g.grid.IsValid(p) {
		return false
	}
	g.piece = p
	g.cue(CueMove)
	return true
}

// Rotate turns the piece clockwise in place. Rotations that do not fit are
// rejected; there is no wall kick.
func (g *Game) Rotate() bool {
	if !g.active() {
		return false
	}
	p := RotatePiece(g.piece)
	if !g.grid.IsValid(p) {
		return false
	}
	g.piece = p
	g.cue(CueRotate)
	return true
}

// HardDrop drops the piece to its landing row, scoring per row descended,
// and locks it. It returns the number of rows descended.
func (g *Game) HardDrop() int {
	if !g.active() {
		return 0
	}
	rows := 0
	for {
		p := MovePiece(g.piece, 0, 1)
		if !g.grid.IsValid(p) {
			break
		}
		g.piece = p
		rows++
	}
	g.score += rows * g.rules.HardDropPoint
	g.lock()
	return rows
}

// HoldPiece swaps the active piece with the held one, or stashes it and
// promotes the next piece when nothing is held. Allowed once per landing,
// and refused when the incoming piece does not fit at spawn.
func (g *Game) HoldPiece() bool {
	if !g.active() || !g.canHold {
		return false
	}
	incoming := g.next
	if g.hold != nil {
		incoming = NewPiece(g.hold.Kind, g.rules.SpawnX, 0)
	}
	if !g.grid.IsValid(incoming) {
		return false
	}

	stash := NewPiece(g.piece.Kind, g.rules.SpawnX, 0)
	if g.hold == nil {
		g.next = g.source.Next()
	}
	g.piece = incoming
	g.hold = &stash
	g.canHold = false
	g.cue(CueHold)
	return true
}

// CanHold reports whether HoldPiece is currently allowed.
func (g *Game) CanHold() bool { return g.canHold }

// GhostY returns the lowest row the piece can reach by falling straight down.
func (g *Game) GhostY() int {
	if !g.playing {
		return g.piece.Y
	}
	p := g.piece
	for {
		q := MovePiece(p, 0, 1)
		if !g.grid.IsValid(q) {
			return p.Y
		}
		p = q
	}
}

// lock freezes the piece and advances to the next one. A piece that locks
// while still anchored on the spawn row tops out the game.
func (g *Game) lock() {
	g.grid.Freeze(g.piece)
	if g.piece.Y == 0 {
		g.playing = false
		g.gameOver = true
		g.clock.stop()
		g.cue(CueGameOver)
		return
	}
	g.cue(CueLand)

	if n := g.grid.ClearLines(); n > 0 {
		g.score += g.rules.ClearPoints(n, g.level)
		g.lines += n
		g.cue(CueClear)
	}
	if g.lines >= (g.level+1)*g.rules.LinesPerLevel {
		g.level++
		g.cue(CueLevelUp)
	}

	g.piece = g.next
	g.next = g.source.Next()
	g.canHold = true
}

// Snapshot returns a deep copy of the locked board with the score and outcome.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Grid:       g.grid.Cells(),
		Score:      g.score,
		IsGameOver: g.gameOver,
	}
}

// Frame returns a drawable copy of the current state.
func (g *Game) Frame() Frame {
	f := Frame{
		Grid:   g.grid.Cells(),
		Score:  g.score,
		Lines:  g.lines,
		Level:  g.level,
		Status: g.Status(),
	}
	if g.playing || g.gameOver {
		p := g.piece.Clone()
		n := g.next.Clone()
		f.Piece = &p
		f.Next = &n
		f.GhostY = g.GhostY()
	}
	if g.hold != nil {
		h := g.hold.Clone()
		f.Hold = &h
	}
	return f
}
