package multiplayer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/neostack/internal/game"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(HubConfig{LobbyTimeout: time.Minute, CleanupPeriod: time.Hour}, nil)
	h.Start()
	t.Cleanup(h.Stop)
	return h
}

// relaySession connects a session to h through an in-process connection.
func relaySession(t *testing.T, h *Hub, seed int64) (*Session, *recorder) {
	t.Helper()
	ch := NewRelayChannel(NewLocalConn(h), nil)
	s := NewSession(ch, SessionConfig{CodeAttempts: 20, RequestTimeout: time.Second, Seed: seed})
	rec := record(s)
	t.Cleanup(func() {
		_ = s.Close(testCtx(t))
		_ = ch.Close()
	})
	return s, rec
}

func TestRelayMatchFlow(t *testing.T) {
	h := startHub(t)
	host, hostRec := relaySession(t, h, 1)
	guest, guestRec := relaySession(t, h, 2)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	hostRec.waitFor(t, EventRoomCreated)

	require.NoError(t, guest.JoinRoom(ctx, code))
	guestRec.waitFor(t, EventRoomJoined)

	hostRec.waitFor(t, EventPlayerJoined)
	hostRec.waitFor(t, EventGameStart)
	guestRec.waitFor(t, EventPlayerJoined)
	guestRec.waitFor(t, EventGameStart)

	require.Eventually(t, func() bool {
		return host.Phase() == PhaseActive && guest.Phase() == PhaseActive
	}, waitTimeout, 10*time.Millisecond)

	status, ok := h.Room(code)
	require.True(t, ok)
	assert.Equal(t, 2, status.Members)
	assert.True(t, status.Started)

	require.NoError(t, host.SendState(ctx, sampleSnapshot(120, false)))
	evt := guestRec.waitFor(t, EventOpponentState).(OpponentStateEvent)
	assert.Equal(t, 120, evt.State.Score)
	assert.Equal(t, host.ID(), evt.From)
	assert.Equal(t, game.Cell(4), evt.State.Grid[19][0])

	require.NoError(t, guest.LeaveRoom(ctx))
	hostRec.waitFor(t, EventOpponentLeft)
	assert.Equal(t, PhaseEnded, host.Phase())

	require.Eventually(t, func() bool {
		st, ok := h.Room(code)
		return ok && st.Members == 1 && !st.Started
	}, waitTimeout, 10*time.Millisecond)
}

func TestRelayJoinErrors(t *testing.T) {
	h := startHub(t)
	host, _ := relaySession(t, h, 1)
	guest, _ := relaySession(t, h, 2)
	third, thirdRec := relaySession(t, h, 3)
	ctx := testCtx(t)

	require.ErrorIs(t, third.JoinRoom(ctx, "1234"), ErrRoomNotFound)
	assert.Equal(t, "Room not found", thirdRec.waitFor(t, EventError).(ErrorEvent).Reason())

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	require.NoError(t, guest.JoinRoom(ctx, code))

	require.ErrorIs(t, third.JoinRoom(ctx, code), ErrRoomFull)
	assert.Equal(t, PhaseUnjoined, third.Phase())
	assert.Equal(t, "Room is full", thirdRec.waitFor(t, EventError).(ErrorEvent).Reason())
}

func TestRelayConcurrentJoins(t *testing.T) {
	h := startHub(t)
	host, _ := relaySession(t, h, 1)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)

	const joiners = 6
	sessions := make([]*Session, joiners)
	for i := range joiners {
		sessions[i], _ = relaySession(t, h, int64(10+i))
	}

	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = sessions[i].JoinRoom(ctx, code)
		}()
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrRoomFull)
		full++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, joiners-1, full)

	status, _ := h.Room(code)
	assert.Equal(t, 2, status.Members)
}

func TestRelayDisconnectNotifiesOpponent(t *testing.T) {
	h := startHub(t)
	host, hostRec := relaySession(t, h, 1)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)

	conn := NewLocalConn(h)
	guestCh := NewRelayChannel(conn, nil)
	guest := NewSession(guestCh, DefaultSessionConfig())
	require.NoError(t, guest.JoinRoom(ctx, code))
	hostRec.waitFor(t, EventGameStart)

	// Dropping the connection without leaving is an involuntary disconnect.
	require.NoError(t, guestCh.Close())
	hostRec.waitFor(t, EventOpponentLeft)
}

func TestHubIgnoresRearmOfFullRoom(t *testing.T) {
	h := startHub(t)
	hostCh := NewRelayChannel(NewLocalConn(h), nil)
	t.Cleanup(func() { _ = hostCh.Close() })
	host := NewSession(hostCh, SessionConfig{CodeAttempts: 20, RequestTimeout: time.Second, Seed: 1})
	hostRec := record(host)
	t.Cleanup(func() { _ = host.Close(testCtx(t)) })
	guest, _ := relaySession(t, h, 2)
	ctx := testCtx(t)

	code, err := host.CreateRoom(ctx)
	require.NoError(t, err)
	require.NoError(t, guest.JoinRoom(ctx, code))
	hostRec.waitFor(t, EventGameStart)

	// A rearm from the previous pairing arrives after the seat refilled.
	require.NoError(t, hostCh.Rearm(ctx, code))
	assert.Never(t, func() bool {
		st, ok := h.Room(code)
		return !ok || !st.Started
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestHubLobbyExpiry(t *testing.T) {
	h := startHub(t)
	host, hostRec := relaySession(t, h, 1)

	code, err := host.CreateRoom(testCtx(t))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.RoomCount() == 1 }, waitTimeout, 10*time.Millisecond)

	h.cleanupExpiredRooms(time.Now().Add(30 * time.Second))
	assert.Equal(t, 1, h.RoomCount(), "not yet expired")

	h.cleanupExpiredRooms(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, h.RoomCount())

	evt := hostRec.waitFor(t, EventError).(ErrorEvent)
	assert.ErrorIs(t, evt.Err, ErrRoomExpired)
	_, ok := h.Room(code)
	assert.False(t, ok)
}

func TestHubRejectsCodeCollision(t *testing.T) {
	h := startHub(t)
	a := NewRelayChannel(NewLocalConn(h), nil)
	b := NewRelayChannel(NewLocalConn(h), nil)
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	ctx := testCtx(t)

	require.NoError(t, a.Claim(ctx, "5555", "a"))
	require.ErrorIs(t, b.Claim(ctx, "5555", "b"), ErrRoomExists)
	require.NoError(t, b.Claim(ctx, "5556", "b"))
	assert.Equal(t, 2, h.RoomCount())
}

func TestPeerDropsOldest(t *testing.T) {
	p := NewPeer(2)
	p.Send(Envelope{Type: MsgGameStart, Code: "1"})
	p.Send(Envelope{Type: MsgGameStart, Code: "2"})
	p.Send(Envelope{Type: MsgGameStart, Code: "3"})

	assert.Equal(t, "2", (<-p.Events()).Code)
	assert.Equal(t, "3", (<-p.Events()).Code)

	p.Close()
	p.Close()
	p.Send(Envelope{Type: MsgGameStart})
	assert.Empty(t, p.Events())
}
