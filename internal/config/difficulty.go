package config

import (
	"fmt"
	"time"
)

// DifficultyPreset represents a named gravity speed.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// speedFactor scales every gravity interval. Values below 1 make pieces fall faster.
func speedFactor(preset DifficultyPreset) (float64, error) {
	switch preset {
	case "", DifficultyNormal:
		return 1.0, nil
	case DifficultyEasy:
		return 1.5, nil
	case DifficultyHard:
		return 0.6, nil
	default:
		return 0, fmt.Errorf("config: unknown difficulty %q (want easy, normal or hard)", preset)
	}
}

// ApplyPreset scales the gravity table and floor for a difficulty preset.
// Scoring and leveling are unchanged.
func ApplyPreset(cfg *Config, preset DifficultyPreset) error {
	f, err := speedFactor(preset)
	if err != nil {
		return err
	}
	if f == 1.0 {
		return nil
	}
	scaled := make([]time.Duration, len(cfg.Gravity.Intervals))
	for i, d := range cfg.Gravity.Intervals {
		scaled[i] = scaleDuration(d, f)
	}
	cfg.Gravity.Intervals = scaled
	cfg.Gravity.Floor = scaleDuration(cfg.Gravity.Floor, f)
	return nil
}

func scaleDuration(d time.Duration, f float64) time.Duration {
	out := time.Duration(float64(d) * f).Round(time.Millisecond)
	return max(out, 10*time.Millisecond)
}
