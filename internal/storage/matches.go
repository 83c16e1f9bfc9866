package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

// OnlineMatchResult represents the outcome of one versus match as seen by
// the local player.
type OnlineMatchResult struct {
	ID              int64
	MatchID         string
	RoomCode        string
	PlayerSession   string
	OpponentSession string
	Score           int
	OpponentScore   int
	Lines           int
	Level           int
	WinnerSession   string // Empty if undecided
	EndReason       string
	Duration        int // Duration in seconds
	CreatedAt       time.Time
}

// Won reports whether the local player won.
func (r OnlineMatchResult) Won() bool {
	return r.WinnerSession != "" && r.WinnerSession == r.PlayerSession
}

const matchColumns = `id, match_id, room_code, player_session, opponent_session,
	score, opponent_score, lines, level, winner_session, end_reason, duration_secs, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (OnlineMatchResult, error) {
	var r OnlineMatchResult
	var createdAt any
	var winnerSession sql.NullString

	err := row.Scan(
		&r.ID,
		&r.MatchID,
		&r.RoomCode,
		&r.PlayerSession,
		&r.OpponentSession,
		&r.Score,
		&r.OpponentScore,
		&r.Lines,
		&r.Level,
		&winnerSession,
		&r.EndReason,
		&r.Duration,
		&createdAt,
	)
	if err != nil {
		return r, err
	}
	if winnerSession.Valid {
		r.WinnerSession = winnerSession.String
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// SaveOnlineMatch records the result of a versus match.
// Returns the ID of the inserted record.
func (s *Store) SaveOnlineMatch(result OnlineMatchResult) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO online_matches
		 (match_id, room_code, player_session, opponent_session, score, opponent_score,
		  lines, level, winner_session, end_reason, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.MatchID,
		result.RoomCode,
		result.PlayerSession,
		result.OpponentSession,
		result.Score,
		result.OpponentScore,
		result.Lines,
		result.Level,
		result.WinnerSession,
		result.EndReason,
		result.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save online match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// OnlineMatchByID retrieves a match by its match ID. Returns nil if absent.
func (s *Store) OnlineMatchByID(matchID string) (*OnlineMatchResult, error) {
	row := s.db.QueryRow(
		`SELECT `+matchColumns+` FROM online_matches WHERE match_id = ?`,
		matchID,
	)
	result, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query online match: %w", err)
	}
	return &result, nil
}

// RecentOnlineMatches retrieves the most recent matches.
func (s *Store) RecentOnlineMatches(limit int) ([]OnlineMatchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+matchColumns+`
		 FROM online_matches
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query online matches: %w", err)
	}
	defer rows.Close()

	var results []OnlineMatchResult
	for rows.Next() {
		r, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
func (s *Store) SaveMatchResult(data multiplayer.MatchResultData) error {
	_, err := s.SaveOnlineMatch(OnlineMatchResult{
		MatchID:         data.MatchID,
		RoomCode:        data.RoomCode,
		PlayerSession:   data.PlayerSession,
		OpponentSession: data.OpponentSession,
		Score:           data.Score,
		OpponentScore:   data.OpponentScore,
		Lines:           data.Lines,
		Level:           data.Level,
		WinnerSession:   data.WinnerSession,
		EndReason:       data.EndReason,
		Duration:        data.DurationSecs,
	})
	return err
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)
