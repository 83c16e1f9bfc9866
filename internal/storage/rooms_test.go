package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/neostack/internal/game"
	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/registry"
)

func TestRoomClaimAndRead(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-time.Minute)))

	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	assert.Equal(t, "4821", rec.Code)
	assert.False(t, rec.Started)
	require.Len(t, rec.Members, 1)
	assert.Equal(t, multiplayer.PlayerID("host"), rec.Members[0].Player)
	assert.True(t, rec.Members[0].Host)
	assert.Nil(t, rec.Members[0].State)

	err = store.ClaimRoom(ctx, "4821", "other", time.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, multiplayer.ErrRoomExists)

	_, err = store.ReadRoom(ctx, "9999")
	assert.ErrorIs(t, err, multiplayer.ErrRoomNotFound)
}

func TestRoomClaimReclaimsStaleRoom(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	store.now = func() time.Time { return past }
	require.NoError(t, store.ClaimRoom(ctx, "4821", "ghost", past.Add(-time.Minute)))

	store.now = time.Now
	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-10*time.Second)))

	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	require.Len(t, rec.Members, 1)
	assert.Equal(t, multiplayer.PlayerID("host"), rec.Members[0].Player)
}

func TestRoomJoin(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.JoinRoom(ctx, "4821", "guest"), multiplayer.ErrRoomNotFound)

	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-time.Minute)))
	require.NoError(t, store.JoinRoom(ctx, "4821", "guest"))

	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	assert.True(t, rec.Started)
	require.Len(t, rec.Members, 2)
	assert.Equal(t, multiplayer.PlayerID("host"), rec.Members[0].Player)
	assert.Equal(t, multiplayer.PlayerID("guest"), rec.Members[1].Player)

	assert.ErrorIs(t, store.JoinRoom(ctx, "4821", "late"), multiplayer.ErrRoomFull)
}

func TestRoomConcurrentJoins(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-time.Minute)))

	const joiners = 8
	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.JoinRoom(ctx, "4821", multiplayer.PlayerID(rune('a'+i)))
		}()
	}
	wg.Wait()

	joined := 0
	for _, err := range errs {
		if err == nil {
			joined++
			continue
		}
		require.ErrorIs(t, err, multiplayer.ErrRoomFull)
	}
	assert.Equal(t, 1, joined)

	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	assert.Len(t, rec.Members, 2)
}

func TestRoomStateRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-time.Minute)))

	snap := game.Snapshot{Grid: make([][]game.Cell, game.DefaultRows), Score: 300}
	for r := range snap.Grid {
		snap.Grid[r] = make([]game.Cell, game.DefaultCols)
	}
	snap.Grid[19][3] = 6
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	require.NoError(t, store.PutState(ctx, "4821", "host", data))
	require.NoError(t, store.PutState(ctx, "4821", "host", data))

	var raw []byte
	require.NoError(t, store.db.QueryRow("SELECT state FROM room_members WHERE code = ?", "4821").Scan(&raw))
	assert.Less(t, len(raw), len(data), "state should be stored compressed")

	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	require.Len(t, rec.Members, 1)
	assert.Equal(t, int64(2), rec.Members[0].StateSeq)

	var got game.Snapshot
	require.NoError(t, json.Unmarshal(rec.Members[0].State, &got))
	assert.Equal(t, snap, got)
}

func TestRoomLeaveAndPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-time.Minute)))
	require.NoError(t, store.JoinRoom(ctx, "4821", "guest"))

	require.NoError(t, store.LeaveRoom(ctx, "4821", "guest"))
	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	assert.Len(t, rec.Members, 1)

	require.NoError(t, store.RearmRoom(ctx, "4821"))
	rec, _ = store.ReadRoom(ctx, "4821")
	assert.False(t, rec.Started)

	n, err := store.PruneMembers(ctx, "4821", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.PruneMembers(ctx, "4821", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = store.ReadRoom(ctx, "4821")
	assert.ErrorIs(t, err, multiplayer.ErrRoomNotFound)

	require.NoError(t, store.LeaveRoom(ctx, "4821", "host"), "leaving a missing room is a no-op")
}

func TestRoomRearmKeepsFullRoomStarted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", time.Now().Add(-time.Minute)))
	require.NoError(t, store.JoinRoom(ctx, "4821", "guest"))
	require.NoError(t, store.LeaveRoom(ctx, "4821", "guest"))

	// A new guest takes the seat before the host clears the flag.
	require.NoError(t, store.JoinRoom(ctx, "4821", "late"))
	require.NoError(t, store.RearmRoom(ctx, "4821"))

	rec, err := store.ReadRoom(ctx, "4821")
	require.NoError(t, err)
	assert.Len(t, rec.Members, 2)
	assert.True(t, rec.Started, "a full room keeps its start")

	require.NoError(t, store.RearmRoom(ctx, "9999"), "missing rooms are ignored")
}

func TestRoomHeartbeat(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	store.now = func() time.Time { return start }
	require.NoError(t, store.ClaimRoom(ctx, "4821", "host", start.Add(-time.Minute)))

	store.now = time.Now
	require.NoError(t, store.Heartbeat(ctx, "4821", "host"))

	n, err := store.PruneMembers(ctx, "4821", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRoomStoreDrivesPresenceChannel(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "rooms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := multiplayer.PresenceConfig{PollInterval: 20 * time.Millisecond, PresenceTTL: 5 * time.Second}
	hostCh := multiplayer.NewPresenceStoreChannel(store, cfg, nil)
	guestCh := multiplayer.NewPresenceStoreChannel(store, cfg, nil)
	t.Cleanup(func() {
		hostCh.Close()
		guestCh.Close()
	})

	host := multiplayer.NewSession(hostCh, multiplayer.SessionConfig{Seed: 7})
	guest := multiplayer.NewSession(guestCh, multiplayer.SessionConfig{Seed: 8})

	var mu sync.Mutex
	var got []multiplayer.Event
	host.On(multiplayer.EventGameStart, func(e multiplayer.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	host.On(multiplayer.EventOpponentState, func(e multiplayer.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	require.NoError(t, guest.JoinRoom(ctx, code))

	require.Eventually(t, func() bool {
		return host.Phase() == multiplayer.PhaseActive
	}, 3*time.Second, 10*time.Millisecond)

	snap := game.Snapshot{Grid: [][]game.Cell{{1, 2}}, Score: 99}
	require.NoError(t, guest.SendState(ctx, snap))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range got {
			if s, ok := e.(multiplayer.OpponentStateEvent); ok && s.State.Score == 99 {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, host.Close(ctx))
	require.NoError(t, guest.Close(ctx))
}

func TestStoreBackendRegistered(t *testing.T) {
	require.True(t, registry.Exists(BackendID))

	b, err := registry.Open(context.Background(), BackendID, registry.Options{
		RoomsPath:    filepath.Join(t.TempDir(), "rooms.db"),
		PollInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	s := multiplayer.NewSession(b.Channel, multiplayer.SessionConfig{Seed: 3})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	code, err := s.CreateRoom(ctx)
	require.NoError(t, err)
	assert.Equal(t, code, s.Code())

	require.NoError(t, s.Close(ctx))
	require.NoError(t, b.Close())
}
