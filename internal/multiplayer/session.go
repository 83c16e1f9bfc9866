package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vovakirdan/neostack/internal/game"
)

// SessionConfig tunes a Session.
type SessionConfig struct {
	CodeAttempts   int           // Claim attempts before ErrNoFreeCode
	RequestTimeout time.Duration // Bound for calls made from watch callbacks
	Seed           int64         // Room code generator seed, 0 uses the clock
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CodeAttempts:   20,
		RequestTimeout: 5 * time.Second,
	}
}

// Session is one client's view of a two-player room. It owns no transport
// logic; everything goes through the Channel.
//
// Methods that talk to the Channel block and belong on a background
// goroutine, never on the game's tick path.
type Session struct {
	ch     Channel
	self   PlayerID
	cfg    SessionConfig
	codes  *CodeGenerator
	events *Emitter

	// opMu serializes room operations. mu guards the fields below and is
	// never held across Channel calls.
	opMu sync.Mutex

	mu        sync.Mutex
	phase     Phase
	code      string
	gen       uint64 // bumped whenever the current watch stops being authoritative
	stopWatch func()
	paired    bool
	startSeen bool
	closed    bool
}

// NewSession creates a session with a fresh identity.
func NewSession(ch Channel, cfg SessionConfig) *Session {
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = DefaultSessionConfig().CodeAttempts
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultSessionConfig().RequestTimeout
	}
	return &Session{
		ch:     ch,
		self:   NewPlayerID(),
		cfg:    cfg,
		codes:  NewCodeGenerator(cfg.Seed),
		events: NewEmitter(),
	}
}

// ID returns the session identity.
func (s *Session) ID() PlayerID {
	return s.self
}

// Phase returns the current room phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Code returns the current room code, or "" when not in a room.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// On registers a listener for kind. Listeners may run on the Channel's
// delivery goroutine: they must not block and must not call LeaveRoom or Close.
func (s *Session) On(kind EventKind, fn func(Event)) (off func()) {
	return s.events.On(kind, fn)
}

// CreateRoom claims a fresh code and waits in it for a second player.
// Any previous room is left first.
func (s *Session) CreateRoom(ctx context.Context) (string, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkOpen(); err != nil {
		return "", err
	}
	_ = s.leave(ctx) //nolint:errcheck // best effort, the new room does not depend on it

	var code string
	for attempt := 0; ; attempt++ {
		if attempt == s.cfg.CodeAttempts {
			err := fmt.Errorf("multiplayer: create room after %d attempts: %w", attempt, ErrNoFreeCode)
			s.events.Emit(ErrorEvent{Err: err})
			return "", err
		}
		code = s.codes.Next()
		err := s.ch.Claim(ctx, code, s.self)
		if err == nil {
			break
		}
		if errors.Is(err, ErrRoomExists) {
			continue
		}
		return "", s.transportFailure("create room", err)
	}

	if err := s.enter(ctx, code, PhaseAwaitingPeer, RoomCreatedEvent{Code: code}); err != nil {
		return "", err
	}
	return code, nil
}

// JoinRoom joins an existing room as its second member. ErrRoomNotFound and
// ErrRoomFull leave the session unjoined.
func (s *Session) JoinRoom(ctx context.Context, code string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	if !ValidCode(code) {
		err := fmt.Errorf("multiplayer: join room %q: %w", code, ErrInvalidCode)
		s.events.Emit(ErrorEvent{Err: err})
		return err
	}
	_ = s.leave(ctx) //nolint:errcheck // best effort, see CreateRoom

	if err := s.ch.Join(ctx, code, s.self); err != nil {
		if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrRoomFull) {
			err = fmt.Errorf("multiplayer: join room %s: %w", code, err)
			s.events.Emit(ErrorEvent{Err: err})
			return err
		}
		return s.transportFailure("join room", err)
	}

	return s.enter(ctx, code, PhaseAwaitingStart, RoomJoinedEvent{Code: code})
}

// enter records the membership, announces it and subscribes to the room.
func (s *Session) enter(ctx context.Context, code string, phase Phase, announce Event) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.code = code
	s.phase = phase
	s.paired = false
	s.startSeen = false
	s.mu.Unlock()

	s.events.Emit(announce)

	stop, err := s.ch.Watch(ctx, code, s.self, func(sig Signal) {
		s.handle(gen, sig)
	})
	if err != nil {
		return s.transportFailure("watch room", err)
	}

	s.mu.Lock()
	if s.gen != gen || s.closed {
		// The room failed while the subscription was being set up.
		s.mu.Unlock()
		stop()
		return nil
	}
	s.stopWatch = stop
	s.mu.Unlock()
	return nil
}

// SendState publishes a local snapshot. There is no buffering: callers
// throttle, and a failed publish ends the room.
func (s *Session) SendState(ctx context.Context, snap game.Snapshot) error {
	s.mu.Lock()
	code, closed := s.code, s.closed
	s.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if code == "" {
		return ErrNotJoined
	}
	if err := s.ch.Publish(ctx, code, s.self, snap); err != nil {
		return s.transportFailure("send state", err)
	}
	return nil
}

// LeaveRoom deregisters from the current room. It is safe to call at any
// time and returns once the room subscription has stopped.
func (s *Session) LeaveRoom(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.leave(ctx)
}

func (s *Session) leave(ctx context.Context) error {
	s.mu.Lock()
	stop := s.stopWatch
	code := s.code
	s.stopWatch = nil
	s.code = ""
	s.gen++
	if !s.closed {
		s.phase = PhaseUnjoined
	}
	s.paired = false
	s.startSeen = false
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if code == "" {
		return nil
	}
	if err := s.ch.Leave(ctx, code, s.self); err != nil {
		return fmt.Errorf("multiplayer: leave room %s: %w: %w", code, ErrTransport, err)
	}
	return nil
}

// ReportDisconnect reports a loss the Channel cannot see, such as the
// embedding application dropping its network. Channels report their own
// failures with SignalLost instead. The session emits one error event and
// stops treating the room as live.
func (s *Session) ReportDisconnect(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	evt := s.failLocked(fmt.Errorf("multiplayer: %w: %w", ErrTransport, err))
	s.mu.Unlock()
	s.events.Emit(evt)
}

// Close leaves any room and drops all listeners. Later calls return ErrClosed.
// The Channel is owned by the caller and stays open.
func (s *Session) Close(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	err := s.leave(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.events.Clear()
	return err
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// transportFailure wraps err, moves to an inactive phase and emits it once.
func (s *Session) transportFailure(op string, err error) error {
	wrapped := fmt.Errorf("multiplayer: %s: %w: %w", op, ErrTransport, err)
	s.mu.Lock()
	evt := s.failLocked(wrapped)
	s.mu.Unlock()
	s.events.Emit(evt)
	return wrapped
}

// failLocked drops the room without touching the Channel. The watch stop
// function is kept so the next leave can release it outside any callback.
func (s *Session) failLocked(err error) ErrorEvent {
	if s.code != "" {
		s.phase = PhaseEnded
	} else {
		s.phase = PhaseUnjoined
	}
	s.code = ""
	s.gen++
	s.paired = false
	s.startSeen = false
	return ErrorEvent{Err: err}
}

// handle turns channel signals into session events. Signals from a watch
// that is no longer current are dropped.
func (s *Session) handle(gen uint64, sig Signal) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}

	var out []Event
	rearm := false
	code := s.code

	switch sig.Kind {
	case SignalPresence:
		switch {
		case sig.Members >= 2 && !s.paired:
			s.paired = true
			out = append(out, PlayerJoinedEvent{Members: sig.Members})
		case sig.Members < 2 && s.paired:
			s.paired = false
			s.startSeen = false
			s.phase = PhaseEnded
			rearm = true
			out = append(out, OpponentLeftEvent{Code: code})
		}
	case SignalStart:
		if s.paired && !s.startSeen {
			s.startSeen = true
			s.phase = PhaseActive
			out = append(out, GameStartEvent{Code: code})
		}
	case SignalState:
		if sig.From != s.self {
			out = append(out, OpponentStateEvent{From: sig.From, State: sig.State})
		}
	case SignalLost:
		err := sig.Err
		if !errors.Is(err, ErrRoomExpired) {
			err = fmt.Errorf("multiplayer: room %s: %w: %w", code, ErrTransport, err)
		}
		out = append(out, s.failLocked(err))
	}
	s.mu.Unlock()

	for _, evt := range out {
		s.events.Emit(evt)
	}

	if rearm {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
		defer cancel()
		_ = s.ch.Rearm(ctx, code) //nolint:errcheck // a stale flag only delays the next start
	}
}
