package game

// Cue is a typed notification of something the player should see or hear.
type Cue int

const (
	CueMove Cue = iota
	CueRotate
	CueLand
	CueClear
	CueLevelUp
	CueHold
	CueGameOver
)

func (c Cue) String() string {
	switch c {
	case CueMove:
		return "move"
	case CueRotate:
		return "rotate"
	case CueLand:
		return "land"
	case CueClear:
		return "clear"
	case CueLevelUp:
		return "level-up"
	case CueHold:
		return "hold"
	case CueGameOver:
		return "game-over"
	default:
		return "unknown"
	}
}

// CueFunc receives cues synchronously on the goroutine that mutates the game.
type CueFunc func(Cue)

type cueListener struct {
	id int
	fn CueFunc
}

// OnCue registers fn and returns a function that removes it.
func (g *Game) OnCue(fn CueFunc) (off func()) {
	if g.destroyed || fn == nil {
		return func() {}
	}
	g.nextListener++
	id := g.nextListener
	g.listeners = append(g.listeners, cueListener{id: id, fn: fn})
	return func() {
		for i, l := range g.listeners {
			if l.id == id {
				g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

func (g *Game) cue(c Cue) {
	for _, l := range g.listeners {
		l.fn(c)
	}
}
