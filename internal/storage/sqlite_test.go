package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndRetrieve(t *testing.T) {
	store := openTestStore(t)

	for _, e := range []ScoreEntry{
		{Mode: ModeSolo, Score: 100, Lines: 4, Level: 1},
		{Mode: ModeSolo, Score: 50, Lines: 2, Level: 1},
		{Mode: ModeSolo, Score: 200, Lines: 9, Level: 2},
		{Mode: ModeVersus, Score: 500, Lines: 20, Level: 3},
	} {
		if _, err := store.SaveScore(e); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}

	scores, err := store.TopScores(ModeSolo, 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("Expected 3 scores, got %d", len(scores))
	}

	// Should be sorted descending
	want := []int{200, 100, 50}
	for i, s := range scores {
		if s.Score != want[i] {
			t.Errorf("scores[%d] = %d, want %d", i, s.Score, want[i])
		}
	}
	if scores[0].Lines != 9 || scores[0].Level != 2 {
		t.Errorf("Expected lines 9 level 2, got lines %d level %d", scores[0].Lines, scores[0].Level)
	}
	if scores[0].CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	versus, err := store.TopScores(ModeVersus, 10)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(versus) != 1 || versus[0].Score != 500 {
		t.Errorf("Expected one versus score of 500, got %+v", versus)
	}
}

func TestStoreDefaultMode(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.SaveScore(ScoreEntry{Score: 42}); err != nil {
		t.Fatalf("SaveScore() failed: %v", err)
	}
	scores, _ := store.TopScores(ModeSolo, 10)
	if len(scores) != 1 {
		t.Errorf("Expected empty mode to save as solo, got %d solo scores", len(scores))
	}
}

func TestStoreTopScoresLimit(t *testing.T) {
	store := openTestStore(t)

	for i := range 5 {
		store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: (i + 1) * 100})
	}

	scores, err := store.TopScores(ModeSolo, 3)
	if err != nil {
		t.Fatalf("TopScores() failed: %v", err)
	}
	if len(scores) != 3 {
		t.Errorf("Expected 3 scores with limit, got %d", len(scores))
	}
	if scores[0].Score != 500 {
		t.Errorf("Expected top score 500, got %d", scores[0].Score)
	}
}

func TestStoreHighScore(t *testing.T) {
	store := openTestStore(t)

	high, err := store.HighScore(ModeSolo)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected high score 0 for empty table, got %d", high)
	}

	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 100})
	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 300})
	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 200})

	high, err = store.HighScore(ModeSolo)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 300 {
		t.Errorf("Expected high score 300, got %d", high)
	}
}

func TestStoreClearScores(t *testing.T) {
	store := openTestStore(t)

	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 100})
	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 200})
	store.SaveScore(ScoreEntry{Mode: ModeVersus, Score: 300})

	if err := store.ClearScores(ModeSolo); err != nil {
		t.Fatalf("ClearScores() failed: %v", err)
	}

	solo, _ := store.TopScores(ModeSolo, 10)
	if len(solo) != 0 {
		t.Errorf("Expected 0 solo scores after clear, got %d", len(solo))
	}
	versus, _ := store.TopScores(ModeVersus, 10)
	if len(versus) != 1 {
		t.Errorf("Expected 1 versus score to remain, got %d", len(versus))
	}
}

func TestStoreStats(t *testing.T) {
	store := openTestStore(t)

	stats, err := store.Stats(ModeSolo)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.GamesCount != 0 || !stats.LastPlayed.IsZero() {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 100, Lines: 10, Level: 1})
	store.SaveScore(ScoreEntry{Mode: ModeSolo, Score: 300, Lines: 30, Level: 4})

	stats, err = store.Stats(ModeSolo)
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.GamesCount != 2 {
		t.Errorf("Expected 2 games, got %d", stats.GamesCount)
	}
	if stats.HighScore != 300 {
		t.Errorf("Expected high score 300, got %d", stats.HighScore)
	}
	if stats.AvgScore != 200 {
		t.Errorf("Expected average 200, got %v", stats.AvgScore)
	}
	if stats.TotalLines != 40 {
		t.Errorf("Expected 40 lines, got %d", stats.TotalLines)
	}
	if stats.BestLevel != 4 {
		t.Errorf("Expected best level 4, got %d", stats.BestLevel)
	}
}

func TestStoreOnlineMatches(t *testing.T) {
	store := openTestStore(t)

	var saver multiplayer.MatchResultSaver = store
	err := saver.SaveMatchResult(multiplayer.MatchResultData{
		MatchID:         "m-1",
		RoomCode:        "4821",
		PlayerSession:   "me",
		OpponentSession: "them",
		Score:           1200,
		OpponentScore:   400,
		Lines:           12,
		Level:           2,
		WinnerSession:   "me",
		EndReason:       multiplayer.EndOpponentToppedOut.String(),
		DurationSecs:    95,
	})
	if err != nil {
		t.Fatalf("SaveMatchResult() failed: %v", err)
	}
	store.SaveMatchResult(multiplayer.MatchResultData{
		MatchID:       "m-2",
		RoomCode:      "4821",
		PlayerSession: "me",
		EndReason:     multiplayer.EndConnectionLost.String(),
	})

	got, err := store.OnlineMatchByID("m-1")
	if err != nil {
		t.Fatalf("OnlineMatchByID() failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected match m-1 to exist")
	}
	if !got.Won() {
		t.Error("Expected m-1 to be a win")
	}
	if got.OpponentScore != 400 || got.Duration != 95 {
		t.Errorf("Unexpected match fields: %+v", got)
	}

	missing, err := store.OnlineMatchByID("nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing match, got %v, %v", missing, err)
	}

	recent, err := store.RecentOnlineMatches(10)
	if err != nil {
		t.Fatalf("RecentOnlineMatches() failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(recent))
	}
	if recent[0].MatchID != "m-2" {
		t.Errorf("Expected most recent first, got %s", recent[0].MatchID)
	}
	if recent[0].Won() {
		t.Error("Match without winner should not count as a win")
	}

	if err := saver.SaveMatchResult(multiplayer.MatchResultData{MatchID: "m-1", EndReason: "dup"}); err == nil {
		t.Error("Expected duplicate match ID to fail")
	}
}

func TestStoreNestedPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "deep", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() with nested path failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}
