package game

import "time"

// Rules holds the tunable constants of a game.
type Rules struct {
	Rows   int
	Cols   int
	SpawnX int

	// LinePoints is indexed by the number of rows cleared at once (0..4).
	LinePoints    [5]int
	SoftDropPoint int
	HardDropPoint int

	// Intervals[level] is the gravity period at that level; levels past the
	// table use Floor.
	Intervals     []time.Duration
	Floor         time.Duration
	LinesPerLevel int

	Randomizer Randomizer
}

// DefaultRules returns the canonical 20x10 rule set.
func DefaultRules() Rules {
	return Rules{
		Rows:          DefaultRows,
		Cols:          DefaultCols,
		SpawnX:        3,
		LinePoints:    [5]int{0, 100, 300, 500, 800},
		SoftDropPoint: 1,
		HardDropPoint: 2,
		Intervals: []time.Duration{
			800 * time.Millisecond,
			720 * time.Millisecond,
			630 * time.Millisecond,
			550 * time.Millisecond,
			470 * time.Millisecond,
			380 * time.Millisecond,
			300 * time.Millisecond,
			220 * time.Millisecond,
			130 * time.Millisecond,
			100 * time.Millisecond,
			80 * time.Millisecond,
		},
		Floor:         100 * time.Millisecond,
		LinesPerLevel: 10,
		Randomizer:    RandomizerUniform,
	}
}

// Interval returns the gravity period for level.
func (r Rules) Interval(level int) time.Duration {
	if level >= 0 && level < len(r.Intervals) {
		return r.Intervals[level]
	}
	return r.Floor
}

// ClearPoints returns the score for clearing n rows at level.
func (r Rules) ClearPoints(n, level int) int {
	n = max(0, min(n, len(r.LinePoints)-1))
	return r.LinePoints[n] * (level + 1)
}

func (r Rules) normalized() Rules {
	d := DefaultRules()
	if r.Rows <= 0 {
		r.Rows = d.Rows
	}
	if r.Cols <= 0 {
		r.Cols = d.Cols
	}
	if len(r.Intervals) == 0 {
		r.Intervals = d.Intervals
	}
	if r.Floor <= 0 {
		r.Floor = d.Floor
	}
	if r.LinesPerLevel <= 0 {
		r.LinesPerLevel = d.LinesPerLevel
	}
	if r.Randomizer == "" {
		r.Randomizer = d.Randomizer
	}
	return r
}
