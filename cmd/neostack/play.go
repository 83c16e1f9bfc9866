package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/neostack/internal/config"
	"github.com/vovakirdan/neostack/internal/core"
	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/platform/tui"
	"github.com/vovakirdan/neostack/internal/registry"
	"github.com/vovakirdan/neostack/internal/storage"
)

var (
	flagBackend  string
	flagRelayURL string
	flagRoomsDB  string
)

const controlsHelp = `Controls:
  Left/Right, A/D, H/L   - Move
  Up, W, K, X            - Rotate
  Down, S, J             - Soft drop
  Space                  - Hard drop
  C, Shift+Left          - Hold
  P                      - Pause
  Esc                    - Pause, then back
  Q/Ctrl+C               - Quit`

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start the interactive menu",
	Long:  "Pick solo play, host or join an online match, or browse high scores.\n\n" + controlsHelp,
	Args:  cobra.NoArgs,
	Run:   runMenu,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a solo game",
	Long: `Start a solo game straight away.

` + controlsHelp + `

Difficulty options:
  easy   - Slower gravity at every level
  normal - Configured gravity
  hard   - Faster gravity at every level

Examples:
  neostack play
  neostack play --difficulty hard
  neostack play --seed 42 --config ./my-neostack.yaml`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		runApp(tui.EntrySolo, "")
	},
}

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Host an online match",
	Long: `Create a room and wait for an opponent. The four-digit room code is shown
on screen; the match starts as soon as someone joins.

Examples:
  neostack host
  neostack host --relay-url ws://example.com:8080/ws
  neostack host --backend store --rooms-db /shared/rooms.db`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		runApp(tui.EntryHost, "")
	},
}

var joinCmd = &cobra.Command{
	Use:   "join <code>",
	Short: "Join an online match",
	Long: `Join the room with the given four-digit code.

Examples:
  neostack join 4821
  neostack join 4821 --relay-url ws://example.com:8080/ws`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		code := strings.TrimSpace(args[0])
		if !multiplayer.ValidCode(code) {
			fail("invalid room code %q: codes are four digits, 1000-9999", code)
		}
		runApp(tui.EntryJoin, code)
	},
}

func runMenu(_ *cobra.Command, _ []string) {
	runApp(tui.EntryMenu, "")
}

// loadConfig loads the config file and applies --difficulty.
func loadConfig() config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
	}
	if flagDifficulty != "" {
		if err := config.ApplyPreset(&cfg, config.DifficultyPreset(flagDifficulty)); err != nil {
			fail("%v", err)
		}
	}
	return cfg
}

// runtimeConfig reads the terminal size.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	cfg.TickRate = flagFPS
	cfg.Seed = flagSeed
	return cfg
}

// onlineConfig binds the selected backend to the sync settings.
func onlineConfig(cfg config.Config, logger *log.Logger) tui.OnlineConfig {
	backend := flagBackend
	opts := registry.Options{
		RelayURL:     flagRelayURL,
		RoomsPath:    flagRoomsDB,
		PollInterval: cfg.Sync.PollInterval,
		PresenceTTL:  cfg.Sync.PresenceTTL,
		Logger:       logger,
	}

	return tui.OnlineConfig{
		Connect: func(ctx context.Context) (*registry.Backend, error) {
			return registry.Open(ctx, backend, opts)
		},
		Session: multiplayer.SessionConfig{
			CodeAttempts:   cfg.Sync.CodeAttempts,
			RequestTimeout: cfg.Sync.RequestTimeout,
		},
		SnapshotInterval: cfg.Sync.SnapshotInterval,
	}
}

// tuiLogger logs to ~/.neostack/neostack.log while the screen belongs to
// the game. The returned func closes the file.
func tuiLogger() (*log.Logger, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	dir := filepath.Join(home, ".neostack")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "neostack.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return log.New(io.Discard), func() {}
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "neostack",
	})
	if level, err := log.ParseLevel(flagLogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger, func() { f.Close() }
}

func runApp(entry tui.Entry, code string) {
	cfg := loadConfig()

	if !registry.Exists(flagBackend) {
		ids := make([]string, 0)
		for _, b := range registry.List() {
			ids = append(ids, b.ID)
		}
		fail("unknown backend %q (available: %s)", flagBackend, strings.Join(ids, ", "))
	}

	// Open score storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		log.Warn("could not open scores database", "err", err)
		// Continue without storage - game still works
		store = nil
	}

	logger, closeLog := tuiLogger()

	runErr := tui.RunApp(tui.AppOptions{
		Rules:    cfg.Rules(),
		Store:    store,
		Runtime:  runtimeConfig(),
		Online:   onlineConfig(cfg, logger),
		Entry:    entry,
		JoinCode: code,
	})

	// Close store before potential exit
	if store != nil {
		store.Close()
	}
	closeLog()

	if runErr != nil {
		fail("running game: %v", runErr)
	}
}
