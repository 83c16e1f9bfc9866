package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neostack/internal/game"
)

// maxBacklog bounds signals kept while no watcher is registered.
const maxBacklog = 32

type relayReply struct {
	env Envelope
	err error
}

// RelayChannel is the Channel variant for a Hub that pushes explicit room
// events. One RelayChannel owns one Conn and serves one Session.
type RelayChannel struct {
	conn   Conn
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	reqMu   sync.Mutex // one create or join in flight
	mu      sync.Mutex
	pending chan relayReply
	err     error // sticky once the read loop fails

	deliverMu sync.Mutex // held while a watcher runs
	watcher   func(Signal)
	watchID   uint64
	backlog   []Signal

	readDone  chan struct{}
	closeOnce sync.Once
}

// NewRelayChannel starts reading from conn. A nil logger discards output.
func NewRelayChannel(conn Conn, logger *log.Logger) *RelayChannel {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &RelayChannel{
		conn:     conn,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *RelayChannel) readLoop() {
	defer close(c.readDone)
	for {
		env, err := c.conn.Receive(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.fail(err)
			return
		}
		c.route(env)
	}
}

func (c *RelayChannel) fail(err error) {
	c.logger.Warn("relay connection lost", "err", err)

	c.mu.Lock()
	c.err = fmt.Errorf("%w: %w", ErrTransport, err)
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending != nil {
		pending <- relayReply{err: err}
	}
	c.deliver(Signal{Kind: SignalLost, Err: err})
}

func (c *RelayChannel) route(env Envelope) {
	switch env.Type {
	case MsgRoomCreated, MsgRoomJoined:
		c.reply(relayReply{env: env})
	case MsgError:
		err := ErrorFor(env.Reason)
		if !c.reply(relayReply{env: env, err: err}) {
			c.deliver(Signal{Kind: SignalLost, Err: err})
		}
	case MsgPlayerJoined:
		c.deliver(Signal{Kind: SignalPresence, Members: env.Members})
	case MsgGameStart:
		c.deliver(Signal{Kind: SignalStart})
	case MsgOpponentState:
		if env.State != nil {
			c.deliver(Signal{Kind: SignalState, From: env.From, State: *env.State})
		}
	case MsgOpponentLeft:
		c.deliver(Signal{Kind: SignalPresence, Members: 1})
	default:
		c.logger.Debug("ignoring envelope", "type", env.Type)
	}
}

// reply hands r to the waiting request, if any.
func (c *RelayChannel) reply(r relayReply) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return false
	}
	c.pending <- r
	c.pending = nil
	return true
}

// deliver runs the watcher, or keeps the signal until one registers.
func (c *RelayChannel) deliver(sig Signal) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if c.watcher == nil {
		if len(c.backlog) < maxBacklog {
			c.backlog = append(c.backlog, sig)
		}
		return
	}
	c.watcher(sig)
}

func (c *RelayChannel) dropBacklog() {
	c.deliverMu.Lock()
	c.backlog = nil
	c.deliverMu.Unlock()
}

func (c *RelayChannel) broken() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *RelayChannel) request(ctx context.Context, env Envelope, want MessageType) error {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	replyCh := make(chan relayReply, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending = replyCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.pending == replyCh {
			c.pending = nil
		}
		c.mu.Unlock()
	}()

	if err := c.conn.Send(ctx, env); err != nil {
		return fmt.Errorf("relay: send %s: %w", env.Type, err)
	}

	select {
	case r := <-replyCh:
		if r.err != nil {
			return r.err
		}
		if r.env.Type != want || r.env.Code != env.Code {
			return fmt.Errorf("relay: unexpected reply %s %q to %s %q", r.env.Type, r.env.Code, env.Type, env.Code)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.readDone:
		if err := c.broken(); err != nil {
			return err
		}
		return ErrClosed
	}
}

// Claim asks the hub to create a room under code.
func (c *RelayChannel) Claim(ctx context.Context, code string, self PlayerID) error {
	c.dropBacklog()
	return c.request(ctx, Envelope{Type: MsgCreateRoom, Code: code, From: self}, MsgRoomCreated)
}

// Join asks the hub to add this connection to the room.
func (c *RelayChannel) Join(ctx context.Context, code string, self PlayerID) error {
	c.dropBacklog()
	return c.request(ctx, Envelope{Type: MsgJoinRoom, Code: code, From: self}, MsgRoomJoined)
}

// Watch registers fn and replays signals that arrived before it.
func (c *RelayChannel) Watch(_ context.Context, _ string, _ PlayerID, fn func(Signal)) (func(), error) {
	if err := c.broken(); err != nil {
		return nil, err
	}

	c.deliverMu.Lock()
	c.watchID++
	id := c.watchID
	c.watcher = fn
	backlog := c.backlog
	c.backlog = nil
	for _, sig := range backlog {
		fn(sig)
	}
	c.deliverMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.deliverMu.Lock()
			if c.watchID == id {
				c.watcher = nil
			}
			c.deliverMu.Unlock()
		})
	}, nil
}

// Publish sends a snapshot for the hub to forward.
func (c *RelayChannel) Publish(ctx context.Context, code string, self PlayerID, state game.Snapshot) error {
	if err := c.broken(); err != nil {
		return err
	}
	return c.conn.Send(ctx, Envelope{Type: MsgState, Code: code, From: self, State: &state})
}

// Rearm clears the room's started flag on the hub.
func (c *RelayChannel) Rearm(ctx context.Context, code string) error {
	if err := c.broken(); err != nil {
		return err
	}
	return c.conn.Send(ctx, Envelope{Type: MsgRearm, Code: code})
}

// Leave removes this connection from the room. After a connection loss the
// hub has already dropped it, so there is nothing to send.
func (c *RelayChannel) Leave(ctx context.Context, code string, self PlayerID) error {
	c.dropBacklog()
	if c.broken() != nil {
		return nil
	}
	err := c.conn.Send(ctx, Envelope{Type: MsgLeaveRoom, Code: code, From: self})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Close stops the read loop and closes the connection.
func (c *RelayChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
		<-c.readDone
	})
	return err
}
