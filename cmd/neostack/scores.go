package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/neostack/internal/registry"
	"github.com/vovakirdan/neostack/internal/storage"
)

var flagMatches int

var scoresCmd = &cobra.Command{
	Use:   "scores [solo|versus]",
	Short: "Show high scores and recent matches",
	Long: `Display the top 10 scores for a mode (both modes when none is given),
followed by the most recent online matches.

Examples:
  neostack scores
  neostack scores solo
  neostack scores versus --matches 20`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{storage.ModeSolo, storage.ModeVersus},
	Run:       runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagMatches, "matches", 10, "Number of recent matches to show (0 hides them)")
}

func runScores(_ *cobra.Command, args []string) {
	modes := []string{storage.ModeSolo, storage.ModeVersus}
	if len(args) == 1 {
		if args[0] != storage.ModeSolo && args[0] != storage.ModeVersus {
			fail("unknown mode %q (use solo or versus)", args[0])
		}
		modes = args[:1]
	}

	// Open score storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fail("opening scores database: %v", err)
	}
	defer store.Close()

	for _, mode := range modes {
		if err := printScores(store, mode); err != nil {
			fail("retrieving scores: %v", err)
		}
		fmt.Println()
	}

	if flagMatches > 0 {
		if err := printMatches(store, flagMatches); err != nil {
			fail("retrieving matches: %v", err)
		}
		fmt.Println()
	}

	fmt.Println("Online backends:")
	for _, b := range registry.List() {
		fmt.Printf("  %-8s %s\n", b.ID, b.Title)
	}
}

func printScores(store *storage.Store, mode string) error {
	scores, err := store.TopScores(mode, 10)
	if err != nil {
		return err
	}

	fmt.Printf("High Scores - %s\n", mode)
	fmt.Println()

	if len(scores) == 0 {
		fmt.Println("No scores recorded yet.")
		return nil
	}

	fmt.Printf("  %-4s  %-10s  %-6s  %-5s  %s\n", "Rank", "Score", "Lines", "Level", "Date")
	fmt.Printf("  %-4s  %-10s  %-6s  %-5s  %s\n", "----", "-----", "-----", "-----", "----")
	for i, entry := range scores {
		dateStr := entry.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-4d  %-10d  %-6d  %-5d  %s\n", i+1, entry.Score, entry.Lines, entry.Level, dateStr)
	}

	stats, err := store.Stats(mode)
	if err == nil {
		fmt.Println()
		fmt.Printf("Best: %d  Games: %d  Average: %.0f  Lines: %d\n",
			stats.HighScore, stats.GamesCount, stats.AvgScore, stats.TotalLines)
	}
	return nil
}

func printMatches(store *storage.Store, limit int) error {
	matches, err := store.RecentOnlineMatches(limit)
	if err != nil {
		return err
	}

	fmt.Println("Recent Matches")
	fmt.Println()

	if len(matches) == 0 {
		fmt.Println("No online matches yet.")
		return nil
	}

	fmt.Printf("  %-16s  %-4s  %-8s  %-8s  %-4s  %s\n", "Date", "Room", "Score", "Opp", "Won", "Reason")
	for _, m := range matches {
		won := "no"
		if m.Won() {
			won = "yes"
		}
		fmt.Printf("  %-16s  %-4s  %-8d  %-8d  %-4s  %s\n",
			m.CreatedAt.Format("2006-01-02 15:04"), m.RoomCode, m.Score, m.OpponentScore, won, m.EndReason)
	}
	return nil
}
