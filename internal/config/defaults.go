package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/neostack/internal/game"
)

//go:embed defaults/neostack.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	r := game.DefaultRules()
	return Config{
		Board: BoardConfig{
			Rows:   r.Rows,
			Cols:   r.Cols,
			SpawnX: r.SpawnX,
		},
		Scoring: ScoringConfig{
			LinePoints: r.LinePoints[:],
			SoftDrop:   r.SoftDropPoint,
			HardDrop:   r.HardDropPoint,
		},
		Gravity: GravityConfig{
			Intervals:     r.Intervals,
			Floor:         r.Floor,
			LinesPerLevel: r.LinesPerLevel,
		},
		Randomizer: string(r.Randomizer),
		Sync: SyncConfig{
			SnapshotInterval: 500 * time.Millisecond,
			CodeAttempts:     20,
			RequestTimeout:   5 * time.Second,
			PollInterval:     200 * time.Millisecond,
			PresenceTTL:      10 * time.Second,
			LobbyTimeout:     5 * time.Minute,
		},
	}
}
