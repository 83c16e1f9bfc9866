package multiplayer

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory RoomStore.
type memStore struct {
	mu      sync.Mutex
	rooms   map[string]*RoomRecord
	readErr error
}

func newMemStore() *memStore {
	return &memStore{rooms: make(map[string]*RoomRecord)}
}

func (m *memStore) ClaimRoom(_ context.Context, code string, host PlayerID, staleBefore time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		live := slices.ContainsFunc(r.Members, func(mr MemberRecord) bool { return !mr.SeenAt.Before(staleBefore) })
		if live {
			return ErrRoomExists
		}
	}
	m.rooms[code] = &RoomRecord{
		Code:      code,
		CreatedAt: time.Now(),
		Members:   []MemberRecord{{Player: host, Host: true, SeenAt: time.Now()}},
	}
	return nil
}

func (m *memStore) JoinRoom(_ context.Context, code string, player PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if len(r.Members) >= 2 {
		return ErrRoomFull
	}
	r.Members = append(r.Members, MemberRecord{Player: player, SeenAt: time.Now()})
	r.Started = true
	return nil
}

func (m *memStore) LeaveRoom(_ context.Context, code string, player PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil
	}
	r.Members = slices.DeleteFunc(r.Members, func(mr MemberRecord) bool { return mr.Player == player })
	if len(r.Members) == 0 {
		delete(m.rooms, code)
	}
	return nil
}

func (m *memStore) RearmRoom(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok && len(r.Members) < 2 {
		r.Started = false
	}
	return nil
}

func (m *memStore) PutState(_ context.Context, code string, player PlayerID, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(code, player, func(mr *MemberRecord) {
		mr.State = state
		mr.StateSeq++
	})
}

func (m *memStore) Heartbeat(_ context.Context, code string, player PlayerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(code, player, func(mr *MemberRecord) { mr.SeenAt = time.Now() })
}

func (m *memStore) update(code string, player PlayerID, fn func(*MemberRecord)) error {
	r, ok := m.rooms[code]
	if !ok {
		return nil
	}
	for i := range r.Members {
		if r.Members[i].Player == player {
			fn(&r.Members[i])
		}
	}
	return nil
}

func (m *memStore) PruneMembers(_ context.Context, code string, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return 0, nil
	}
	before := len(r.Members)
	r.Members = slices.DeleteFunc(r.Members, func(mr MemberRecord) bool { return mr.SeenAt.Before(cutoff) })
	return before - len(r.Members), nil
}

func (m *memStore) ReadRoom(_ context.Context, code string) (RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return RoomRecord{}, m.readErr
	}
	r, ok := m.rooms[code]
	if !ok {
		return RoomRecord{}, ErrRoomNotFound
	}
	out := *r
	out.Members = slices.Clone(r.Members)
	return out, nil
}

// age makes player look silent for d.
func (m *memStore) age(code string, player PlayerID, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.update(code, player, func(mr *MemberRecord) { mr.SeenAt = mr.SeenAt.Add(-d) })
}

func presenceSession(t *testing.T, store RoomStore, seed int64) (*Session, *recorder, *PresenceStoreChannel) {
	t.Helper()
	ch := NewPresenceStoreChannel(store, PresenceConfig{PollInterval: 10 * time.Millisecond, PresenceTTL: time.Second}, nil)
	s := NewSession(ch, SessionConfig{CodeAttempts: 20, RequestTimeout: time.Second, Seed: seed})
	rec := record(s)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
		_ = ch.Close()
	})
	return s, rec, ch
}

func TestPresenceMatchFlow(t *testing.T) {
	store := newMemStore()
	host, hostRec, _ := presenceSession(t, store, 1)
	guest, guestRec, _ := presenceSession(t, store, 2)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	hostRec.waitFor(t, EventRoomCreated)
	hostRec.none(t, EventPlayerJoined, 50*time.Millisecond)

	require.NoError(t, guest.JoinRoom(ctx, code))
	guestRec.waitFor(t, EventRoomJoined)
	guestRec.waitFor(t, EventPlayerJoined)
	guestRec.waitFor(t, EventGameStart)
	hostRec.waitFor(t, EventPlayerJoined)
	hostRec.waitFor(t, EventGameStart)

	require.NoError(t, guest.SendState(ctx, sampleSnapshot(300, false)))
	evt := hostRec.waitFor(t, EventOpponentState).(OpponentStateEvent)
	assert.Equal(t, 300, evt.State.Score)
	assert.Equal(t, guest.ID(), evt.From)

	// The same snapshot is not delivered twice.
	hostRec.none(t, EventOpponentState, 60*time.Millisecond)

	require.NoError(t, guest.LeaveRoom(ctx))
	hostRec.waitFor(t, EventOpponentLeft)
	assert.Equal(t, PhaseEnded, host.Phase())

	require.Eventually(t, func() bool {
		rec, err := store.ReadRoom(ctx, code)
		return err == nil && !rec.Started && len(rec.Members) == 1
	}, waitTimeout, 10*time.Millisecond, "started flag is cleared when the opponent leaves")
}

// joinBeforeRearm lets another player take the free seat right before the
// first rearm write lands.
type joinBeforeRearm struct {
	*memStore
	player PlayerID
	once   sync.Once
}

func (j *joinBeforeRearm) RearmRoom(ctx context.Context, code string) error {
	var err error
	j.once.Do(func() { err = j.memStore.JoinRoom(ctx, code, j.player) })
	if err != nil {
		return err
	}
	return j.memStore.RearmRoom(ctx, code)
}

func TestPresenceRejoinDuringRearm(t *testing.T) {
	mem := newMemStore()
	store := &joinBeforeRearm{memStore: mem, player: "late"}
	host, hostRec, _ := presenceSession(t, store, 1)
	guest, guestRec, _ := presenceSession(t, store, 2)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	require.NoError(t, guest.JoinRoom(ctx, code))
	guestRec.waitFor(t, EventGameStart)
	hostRec.waitFor(t, EventGameStart)

	require.NoError(t, guest.LeaveRoom(ctx))
	hostRec.waitFor(t, EventOpponentLeft)

	// The late player joined between the departure and the rearm.
	hostRec.waitFor(t, EventPlayerJoined)
	hostRec.waitFor(t, EventGameStart)
	assert.Equal(t, PhaseActive, host.Phase())

	rec, err := mem.ReadRoom(ctx, code)
	require.NoError(t, err)
	assert.Len(t, rec.Members, 2)
	assert.True(t, rec.Started)
}

func TestPresenceCollisionAndFull(t *testing.T) {
	store := newMemStore()
	ch := NewPresenceStoreChannel(store, DefaultPresenceConfig(), nil)
	t.Cleanup(func() { _ = ch.Close() })
	ctx := testCtx(t)

	require.NoError(t, ch.Claim(ctx, "7777", "a"))
	require.ErrorIs(t, ch.Claim(ctx, "7777", "b"), ErrRoomExists)
	require.ErrorIs(t, ch.Join(ctx, "7778", "b"), ErrRoomNotFound)
	require.NoError(t, ch.Join(ctx, "7777", "b"))
	require.ErrorIs(t, ch.Join(ctx, "7777", "c"), ErrRoomFull)
}

func TestPresencePrunesSilentOpponent(t *testing.T) {
	store := newMemStore()
	host, hostRec, _ := presenceSession(t, store, 1)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)

	// A peer that joins and then stops heartbeating, as after a crash.
	require.NoError(t, store.JoinRoom(ctx, code, "ghost"))
	hostRec.waitFor(t, EventGameStart)

	store.age(code, "ghost", time.Minute)
	hostRec.waitFor(t, EventOpponentLeft)
}

func TestPresenceStoreFailure(t *testing.T) {
	store := newMemStore()
	host, hostRec, _ := presenceSession(t, store, 1)

	_, err := host.CreateRoom(testCtx(t))
	require.NoError(t, err)

	store.mu.Lock()
	store.readErr = errors.New("database is locked")
	store.mu.Unlock()

	evt := hostRec.waitFor(t, EventError).(ErrorEvent)
	assert.ErrorIs(t, evt.Err, ErrTransport)
	assert.Equal(t, PhaseEnded, host.Phase())
	assert.Zero(t, hostRec.count(EventError, 60*time.Millisecond), "reported once")
}

func TestPresenceCloseStopsWatches(t *testing.T) {
	store := newMemStore()
	ch := NewPresenceStoreChannel(store, PresenceConfig{PollInterval: 5 * time.Millisecond}, nil)
	ctx := testCtx(t)
	require.NoError(t, ch.Claim(ctx, "2468", "a"))

	var mu sync.Mutex
	calls := 0
	_, err := ch.Watch(ctx, "2468", "a", func(Signal) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, waitTimeout, 5*time.Millisecond)

	require.NoError(t, ch.Close())
	mu.Lock()
	after := calls
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, after, calls, "no callback after Close returns")
	mu.Unlock()

	_, err = ch.Watch(ctx, "2468", "a", func(Signal) {})
	assert.ErrorIs(t, err, ErrClosed)
}
