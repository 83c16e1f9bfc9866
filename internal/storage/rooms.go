package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

// Ensure Store implements RoomStore
var _ multiplayer.RoomStore = (*Store)(nil)

func (s *Store) nowMs() int64 {
	return s.now().UnixMilli()
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit: %w", err)
	}
	return nil
}

// ClaimRoom creates room code with host as its only member. A room whose
// members were all last seen before staleBefore is replaced.
func (s *Store) ClaimRoom(ctx context.Context, code string, host multiplayer.PlayerID, staleBefore time.Time) error {
	now := s.nowMs()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms WHERE code = ?", code).Scan(&exists)
		if err != nil {
			return fmt.Errorf("storage: cannot read room: %w", err)
		}
		if exists > 0 {
			var live int
			err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM room_members WHERE code = ? AND seen_ms >= ?",
				code, staleBefore.UnixMilli(),
			).Scan(&live)
			if err != nil {
				return fmt.Errorf("storage: cannot read members: %w", err)
			}
			if live > 0 {
				return multiplayer.ErrRoomExists
			}
			if err := deleteRoom(ctx, tx, code); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO rooms (code, started, created_ms) VALUES (?, 0, ?)",
			code, now,
		); err != nil {
			return fmt.Errorf("storage: cannot create room: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO room_members (code, player_id, host, seen_ms) VALUES (?, ?, 1, ?)",
			code, string(host), now,
		); err != nil {
			return fmt.Errorf("storage: cannot add host: %w", err)
		}
		return nil
	})
}

// JoinRoom adds player with a single conditional insert, so two joiners
// racing for the last seat cannot both succeed.
func (s *Store) JoinRoom(ctx context.Context, code string, player multiplayer.PlayerID) error {
	now := s.nowMs()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO room_members (code, player_id, host, seen_ms)
			 SELECT ?, ?, 0, ?
			 WHERE EXISTS (SELECT 1 FROM rooms WHERE code = ?)
			   AND (SELECT COUNT(*) FROM room_members WHERE code = ?) < 2`,
			code, string(player), now, code, code,
		)
		if err != nil {
			return fmt.Errorf("storage: cannot join room: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("storage: cannot join room: %w", err)
		}
		if n == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms WHERE code = ?", code).Scan(&exists); err != nil {
				return fmt.Errorf("storage: cannot read room: %w", err)
			}
			if exists == 0 {
				return multiplayer.ErrRoomNotFound
			}
			return multiplayer.ErrRoomFull
		}

		if _, err := tx.ExecContext(ctx, "UPDATE rooms SET started = 1 WHERE code = ?", code); err != nil {
			return fmt.Errorf("storage: cannot start room: %w", err)
		}
		return nil
	})
}

// LeaveRoom removes player and deletes the room once it is empty.
func (s *Store) LeaveRoom(ctx context.Context, code string, player multiplayer.PlayerID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM room_members WHERE code = ? AND player_id = ?",
			code, string(player),
		); err != nil {
			return fmt.Errorf("storage: cannot leave room: %w", err)
		}
		return deleteIfEmpty(ctx, tx, code)
	})
}

// RearmRoom clears the started flag unless the room is full again. The
// member count is read in the same statement, so a join that lands first
// keeps its start. Missing rooms are ignored.
func (s *Store) RearmRoom(ctx context.Context, code string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET started = 0
		 WHERE code = ?
		   AND (SELECT COUNT(*) FROM room_members WHERE code = ?) < 2`,
		code, code,
	); err != nil {
		return fmt.Errorf("storage: cannot rearm room: %w", err)
	}
	return nil
}

// PutState stores player's encoded snapshot, zstd-compressed, and bumps its
// sequence number.
func (s *Store) PutState(ctx context.Context, code string, player multiplayer.PlayerID, state []byte) error {
	blob, err := compressState(state)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE room_members SET state = ?, state_seq = state_seq + 1, seen_ms = ?
		 WHERE code = ? AND player_id = ?`,
		blob, s.nowMs(), code, string(player),
	); err != nil {
		return fmt.Errorf("storage: cannot store state: %w", err)
	}
	return nil
}

// Heartbeat refreshes player's last-seen time.
func (s *Store) Heartbeat(ctx context.Context, code string, player multiplayer.PlayerID) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE room_members SET seen_ms = ? WHERE code = ? AND player_id = ?",
		s.nowMs(), code, string(player),
	); err != nil {
		return fmt.Errorf("storage: cannot heartbeat: %w", err)
	}
	return nil
}

// PruneMembers removes members last seen before cutoff and returns how many
// were removed.
func (s *Store) PruneMembers(ctx context.Context, code string, cutoff time.Time) (int, error) {
	var pruned int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM room_members WHERE code = ? AND seen_ms < ?",
			code, cutoff.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("storage: cannot prune members: %w", err)
		}
		if pruned, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("storage: cannot prune members: %w", err)
		}
		if pruned == 0 {
			return nil
		}
		return deleteIfEmpty(ctx, tx, code)
	})
	return int(pruned), err
}

// ReadRoom returns the room and its members, hosts first.
func (s *Store) ReadRoom(ctx context.Context, code string) (multiplayer.RoomRecord, error) {
	rec := multiplayer.RoomRecord{Code: code}

	var createdMs int64
	err := s.db.QueryRowContext(ctx,
		"SELECT started, created_ms FROM rooms WHERE code = ?", code,
	).Scan(&rec.Started, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, multiplayer.ErrRoomNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("storage: cannot read room: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdMs)

	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, host, state, state_seq, seen_ms
		 FROM room_members WHERE code = ?
		 ORDER BY host DESC, player_id ASC`,
		code,
	)
	if err != nil {
		return rec, fmt.Errorf("storage: cannot read members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m multiplayer.MemberRecord
		var player string
		var blob []byte
		var seenMs int64
		if err := rows.Scan(&player, &m.Host, &blob, &m.StateSeq, &seenMs); err != nil {
			return rec, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		m.Player = multiplayer.PlayerID(player)
		m.SeenAt = time.UnixMilli(seenMs)
		if len(blob) > 0 {
			if m.State, err = decompressState(blob); err != nil {
				return rec, err
			}
		}
		rec.Members = append(rec.Members, m)
	}
	if err := rows.Err(); err != nil {
		return rec, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rec, nil
}

// ClearRooms deletes every room record.
func (s *Store) ClearRooms(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM room_members"); err != nil {
			return fmt.Errorf("storage: cannot clear rooms: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM rooms"); err != nil {
			return fmt.Errorf("storage: cannot clear rooms: %w", err)
		}
		return nil
	})
}

func deleteRoom(ctx context.Context, tx *sql.Tx, code string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM room_members WHERE code = ?", code); err != nil {
		return fmt.Errorf("storage: cannot delete members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE code = ?", code); err != nil {
		return fmt.Errorf("storage: cannot delete room: %w", err)
	}
	return nil
}

func deleteIfEmpty(ctx context.Context, tx *sql.Tx, code string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rooms WHERE code = ?
		 AND NOT EXISTS (SELECT 1 FROM room_members WHERE code = ?)`,
		code, code,
	); err != nil {
		return fmt.Errorf("storage: cannot delete room: %w", err)
	}
	return nil
}
