// neostack is a falling-block puzzle game for the terminal with online
// head-to-head play.
//
// Usage:
//
//	neostack menu            - Interactive menu (default)
//	neostack play            - Play a solo game
//	neostack host            - Host an online match and print its room code
//	neostack join <code>     - Join an online match
//	neostack relay           - Run the websocket relay other players connect to
//	neostack serve           - Start SSH server for remote play
//	neostack scores [mode]   - Show high scores and recent matches
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 60)
//	--seed <value>      - Set RNG seed for reproducible piece sequences
//	--db <path>         - Set database path (default: ~/.neostack/scores.db)
//	--config <path>     - Custom config YAML
//	--log-level <level> - debug, info, warn, error
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/neostack/internal/relay"
	"github.com/vovakirdan/neostack/internal/storage"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "neostack",
	Short: "NEO-STACK - falling blocks in your terminal, solo or head to head",
	Long: `NEO-STACK is a terminal falling-block puzzle game. Play alone, or pair
up with a friend through a four-digit room code and watch each other's board
while you play.

Available commands:
  menu     - Interactive menu
  play     - Play a solo game directly
  host     - Host an online match
  join     - Join an online match by code
  relay    - Run a websocket relay server
  serve    - Start SSH server for remote play
  scores   - View high scores and match history

Examples:
  neostack play --difficulty hard
  neostack relay --addr :8080
  neostack host --relay-url ws://example.com:8080/ws
  neostack join 4821 --relay-url ws://example.com:8080/ws
  neostack host --backend store --rooms-db /shared/rooms.db
  neostack serve --ssh :2222`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if _, err := log.ParseLevel(flagLogLevel); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
		}
		return nil
	},
	Run: runMenu,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.neostack/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Gravity preset: easy, normal, hard")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Online flags
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", relay.BackendID, "Online backend: relay or store")
	rootCmd.PersistentFlags().StringVar(&flagRelayURL, "relay-url", relay.DefaultURL, "Relay websocket URL (relay backend)")
	rootCmd.PersistentFlags().StringVar(&flagRoomsDB, "rooms-db", storage.DefaultRoomsPath, "Shared room database (store backend)")

	// Add subcommands
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
}

// newLogger creates a stderr logger at the --log-level.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if level, err := log.ParseLevel(flagLogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// fail prints err the way every command reports errors and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
