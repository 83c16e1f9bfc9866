// Package config provides YAML-based configuration loading for NEO-STACK:
// board size, scoring, the gravity table and network timings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/neostack/internal/game"
)

// Config contains all tunable settings.
type Config struct {
	Board      BoardConfig   `yaml:"board"`
	Scoring    ScoringConfig `yaml:"scoring"`
	Gravity    GravityConfig `yaml:"gravity"`
	Randomizer string        `yaml:"randomizer"` // "uniform" or "bag"
	Sync       SyncConfig    `yaml:"sync"`
}

// BoardConfig defines the playfield.
type BoardConfig struct {
	Rows   int `yaml:"rows"`
	Cols   int `yaml:"cols"`
	SpawnX int `yaml:"spawn_x"`
}

// ScoringConfig defines point awards.
type ScoringConfig struct {
	LinePoints []int `yaml:"line_points"` // indexed by rows cleared, 0..4
	SoftDrop   int   `yaml:"soft_drop"`
	HardDrop   int   `yaml:"hard_drop"`
}

// GravityConfig defines fall speed per level.
type GravityConfig struct {
	Intervals     []time.Duration `yaml:"intervals"`
	Floor         time.Duration   `yaml:"floor"`
	LinesPerLevel int             `yaml:"lines_per_level"`
}

// SyncConfig defines multiplayer timings.
type SyncConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	CodeAttempts     int           `yaml:"code_attempts"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	PresenceTTL      time.Duration `yaml:"presence_ttl"`
	LobbyTimeout     time.Duration `yaml:"lobby_timeout"`
}

// Validate checks the config for values the game cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Board.Rows < 4 || c.Board.Cols < 4 {
		errs = append(errs, fmt.Errorf("board must be at least 4x4, got %dx%d", c.Board.Rows, c.Board.Cols))
	}
	if c.Board.SpawnX < 0 || c.Board.SpawnX > c.Board.Cols-4 {
		errs = append(errs, fmt.Errorf("spawn_x %d does not fit a %d-wide board", c.Board.SpawnX, c.Board.Cols))
	}
	if len(c.Scoring.LinePoints) != 5 {
		errs = append(errs, fmt.Errorf("line_points needs 5 entries, got %d", len(c.Scoring.LinePoints)))
	}
	if len(c.Gravity.Intervals) == 0 {
		errs = append(errs, errors.New("gravity.intervals is empty"))
	}
	for i, d := range c.Gravity.Intervals {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("gravity.intervals[%d] must be positive", i))
		}
	}
	if c.Gravity.Floor <= 0 {
		errs = append(errs, errors.New("gravity.floor must be positive"))
	}
	if c.Gravity.LinesPerLevel <= 0 {
		errs = append(errs, errors.New("gravity.lines_per_level must be positive"))
	}
	switch game.Randomizer(c.Randomizer) {
	case game.RandomizerUniform, game.RandomizerBag:
	default:
		errs = append(errs, fmt.Errorf("unknown randomizer %q", c.Randomizer))
	}
	if c.Sync.CodeAttempts <= 0 {
		errs = append(errs, errors.New("sync.code_attempts must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// Rules converts the config into game rules.
func (c Config) Rules() game.Rules {
	r := game.Rules{
		Rows:          c.Board.Rows,
		Cols:          c.Board.Cols,
		SpawnX:        c.Board.SpawnX,
		SoftDropPoint: c.Scoring.SoftDrop,
		HardDropPoint: c.Scoring.HardDrop,
		Intervals:     append([]time.Duration(nil), c.Gravity.Intervals...),
		Floor:         c.Gravity.Floor,
		LinesPerLevel: c.Gravity.LinesPerLevel,
		Randomizer:    game.Randomizer(c.Randomizer),
	}
	copy(r.LinePoints[:], c.Scoring.LinePoints)
	return r
}
