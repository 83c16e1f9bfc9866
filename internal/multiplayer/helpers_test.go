package multiplayer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/neostack/internal/game"
)

const waitTimeout = 2 * time.Second

var allKinds = []EventKind{
	EventRoomCreated, EventRoomJoined, EventError, EventPlayerJoined,
	EventGameStart, EventOpponentState, EventOpponentLeft,
}

// recorder captures every event a session emits.
type recorder struct {
	ch chan Event
}

func record(s *Session) *recorder {
	r := &recorder{ch: make(chan Event, 256)}
	for _, k := range allKinds {
		s.On(k, func(e Event) {
			select {
			case r.ch <- e:
			default:
			}
		})
	}
	return r
}

// waitFor skips events until one of kind arrives.
func (r *recorder) waitFor(t *testing.T, kind EventKind) Event {
	t.Helper()
	timer := time.NewTimer(waitTimeout)
	defer timer.Stop()
	for {
		select {
		case e := <-r.ch:
			if e.Kind() == kind {
				return e
			}
		case <-timer.C:
			require.FailNowf(t, "timeout", "no %s event within %v", kind, waitTimeout)
			return nil
		}
	}
}

// none asserts that no event of kind arrives within d.
func (r *recorder) none(t *testing.T, kind EventKind, d time.Duration) {
	t.Helper()
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case e := <-r.ch:
			require.NotEqual(t, kind, e.Kind(), "unexpected %s event: %+v", kind, e)
		case <-timer.C:
			return
		}
	}
}

// count drains events for d and counts those of kind.
func (r *recorder) count(kind EventKind, d time.Duration) int {
	timer := time.NewTimer(d)
	defer timer.Stop()
	n := 0
	for {
		select {
		case e := <-r.ch:
			if e.Kind() == kind {
				n++
			}
		case <-timer.C:
			return n
		}
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func sampleSnapshot(score int, over bool) game.Snapshot {
	grid := make([][]game.Cell, game.DefaultRows)
	for y := range grid {
		grid[y] = make([]game.Cell, game.DefaultCols)
	}
	grid[19][0] = 4
	return game.Snapshot{Grid: grid, Score: score, IsGameOver: over}
}

// fakeChannel is a scripted Channel for session tests.
type fakeChannel struct {
	mu        sync.Mutex
	taken     map[string]bool
	rooms     map[string]int
	claimErr  error
	joinErr   error
	publErr   error
	claims    int
	watcher   func(Signal)
	stops     int
	published []game.Snapshot
	rearmed   []string
	left      []string
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{taken: make(map[string]bool), rooms: make(map[string]int)}
}

func (f *fakeChannel) Claim(_ context.Context, code string, _ PlayerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	if f.claimErr != nil {
		return f.claimErr
	}
	if f.taken[code] {
		return ErrRoomExists
	}
	f.rooms[code] = 1
	return nil
}

func (f *fakeChannel) Join(_ context.Context, code string, _ PlayerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	n, ok := f.rooms[code]
	switch {
	case !ok:
		return ErrRoomNotFound
	case n >= 2:
		return ErrRoomFull
	}
	f.rooms[code] = n + 1
	return nil
}

func (f *fakeChannel) Watch(_ context.Context, _ string, _ PlayerID, fn func(Signal)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watcher = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.watcher = nil
		f.stops++
	}, nil
}

// signal delivers sig the way a channel would, if anyone is watching.
func (f *fakeChannel) signal(sig Signal) {
	f.mu.Lock()
	fn := f.watcher
	f.mu.Unlock()
	if fn != nil {
		fn(sig)
	}
}

func (f *fakeChannel) Publish(_ context.Context, _ string, _ PlayerID, s game.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publErr != nil {
		return f.publErr
	}
	f.published = append(f.published, s)
	return nil
}

func (f *fakeChannel) Rearm(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rearmed = append(f.rearmed, code)
	return nil
}

func (f *fakeChannel) Leave(_ context.Context, code string, _ PlayerID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, code)
	return nil
}

func (f *fakeChannel) Close() error { return nil }
