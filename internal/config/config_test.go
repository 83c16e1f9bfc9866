package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/neostack/internal/game"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestEmbeddedMatchesDefault(t *testing.T) {
	cfg, ok := decodeOver(defaultYAML)
	if !ok {
		t.Fatal("embedded defaults do not decode")
	}
	def := Default()
	if cfg.Board != def.Board {
		t.Errorf("board = %+v, want %+v", cfg.Board, def.Board)
	}
	if len(cfg.Gravity.Intervals) != len(def.Gravity.Intervals) {
		t.Fatalf("intervals len = %d, want %d", len(cfg.Gravity.Intervals), len(def.Gravity.Intervals))
	}
	for i := range def.Gravity.Intervals {
		if cfg.Gravity.Intervals[i] != def.Gravity.Intervals[i] {
			t.Errorf("interval %d = %v, want %v", i, cfg.Gravity.Intervals[i], def.Gravity.Intervals[i])
		}
	}
	if cfg.Sync != def.Sync {
		t.Errorf("sync = %+v, want %+v", cfg.Sync, def.Sync)
	}
}

func TestLoadCustomPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte("randomizer: bag\ngravity:\n  floor: 50ms\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Randomizer != "bag" {
		t.Errorf("randomizer = %q, want bag", cfg.Randomizer)
	}
	if cfg.Gravity.Floor != 50*time.Millisecond {
		t.Errorf("floor = %v, want 50ms", cfg.Gravity.Floor)
	}
	if cfg.Board.Rows != 20 {
		t.Errorf("unset board rows = %d, want default 20", cfg.Board.Rows)
	}
}

func TestLoadCustomErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing) returned nil error")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("randomizer: shuffle\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load(invalid randomizer) returned nil error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tiny board", func(c *Config) { c.Board.Rows = 2 }},
		{"spawn off board", func(c *Config) { c.Board.SpawnX = 8 }},
		{"short points", func(c *Config) { c.Scoring.LinePoints = []int{0, 100} }},
		{"no intervals", func(c *Config) { c.Gravity.Intervals = nil }},
		{"zero interval", func(c *Config) { c.Gravity.Intervals = []time.Duration{0} }},
		{"zero floor", func(c *Config) { c.Gravity.Floor = 0 }},
		{"zero lines per level", func(c *Config) { c.Gravity.LinesPerLevel = 0 }},
		{"no code attempts", func(c *Config) { c.Sync.CodeAttempts = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestRules(t *testing.T) {
	r := Default().Rules()
	want := game.DefaultRules()
	if r.Rows != want.Rows || r.Cols != want.Cols || r.SpawnX != want.SpawnX {
		t.Errorf("board rules = %dx%d spawn %d", r.Rows, r.Cols, r.SpawnX)
	}
	if r.LinePoints != want.LinePoints {
		t.Errorf("line points = %v, want %v", r.LinePoints, want.LinePoints)
	}
	if r.Interval(0) != 800*time.Millisecond || r.Interval(99) != 100*time.Millisecond {
		t.Errorf("interval(0)=%v interval(99)=%v", r.Interval(0), r.Interval(99))
	}
}

func TestApplyPreset(t *testing.T) {
	cfg := Default()
	if err := ApplyPreset(&cfg, DifficultyHard); err != nil {
		t.Fatal(err)
	}
	if got := cfg.Gravity.Intervals[0]; got != 480*time.Millisecond {
		t.Errorf("hard level 0 = %v, want 480ms", got)
	}
	if got := cfg.Gravity.Floor; got != 60*time.Millisecond {
		t.Errorf("hard floor = %v, want 60ms", got)
	}
	if Default().Gravity.Intervals[0] != 800*time.Millisecond {
		t.Error("ApplyPreset modified the shared default table")
	}

	cfg = Default()
	if err := ApplyPreset(&cfg, DifficultyNormal); err != nil {
		t.Fatal(err)
	}
	if cfg.Gravity.Intervals[0] != 800*time.Millisecond {
		t.Error("normal preset changed intervals")
	}

	if err := ApplyPreset(&cfg, "insane"); err == nil {
		t.Error("unknown preset accepted")
	}
}
