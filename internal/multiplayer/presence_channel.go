package multiplayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neostack/internal/game"
)

// PresenceConfig tunes a PresenceStoreChannel.
type PresenceConfig struct {
	PollInterval time.Duration // How often the room record is read
	PresenceTTL  time.Duration // Members silent for longer are pruned
}

// DefaultPresenceConfig returns sensible defaults.
func DefaultPresenceConfig() PresenceConfig {
	return PresenceConfig{
		PollInterval: 200 * time.Millisecond,
		PresenceTTL:  10 * time.Second,
	}
}

// PresenceStoreChannel is the Channel variant for a shared room record.
// Each client writes its own member row and watches the whole room: joins
// and departures are inferred from the member count, and liveness comes
// from heartbeats that peers prune once they go stale.
type PresenceStoreChannel struct {
	store  RoomStore
	config PresenceConfig
	logger *log.Logger
	now    func() time.Time

	mu     sync.Mutex
	stops  map[uint64]func()
	nextID uint64
	closed bool
}

// NewPresenceStoreChannel creates a channel over store. A nil logger discards output.
func NewPresenceStoreChannel(store RoomStore, cfg PresenceConfig, logger *log.Logger) *PresenceStoreChannel {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	def := DefaultPresenceConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PresenceTTL <= 0 {
		cfg.PresenceTTL = def.PresenceTTL
	}
	return &PresenceStoreChannel{
		store:  store,
		config: cfg,
		logger: logger,
		now:    time.Now,
		stops:  make(map[uint64]func()),
	}
}

func (c *PresenceStoreChannel) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Claim creates the room record, reclaiming it if every member went stale.
func (c *PresenceStoreChannel) Claim(ctx context.Context, code string, self PlayerID) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.store.ClaimRoom(ctx, code, self, c.now().Add(-c.config.PresenceTTL))
}

// Join adds self to the room in one conditional write and raises the start flag.
func (c *PresenceStoreChannel) Join(ctx context.Context, code string, self PlayerID) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.store.JoinRoom(ctx, code, self)
}

// Watch polls the room until stop is called or the store fails.
func (c *PresenceStoreChannel) Watch(_ context.Context, code string, self PlayerID, fn func(Signal)) (func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.nextID++
	id := c.nextID

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			c.mu.Lock()
			delete(c.stops, id)
			c.mu.Unlock()
		})
	}
	c.stops[id] = stop
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.poll(ctx, code, self, fn)
	}()
	return stop, nil
}

func (c *PresenceStoreChannel) poll(ctx context.Context, code string, self PlayerID, fn func(Signal)) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	seqs := make(map[PlayerID]int64)
	for {
		if err := c.pollOnce(ctx, code, self, seqs, fn); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("presence poll failed", "code", code, "err", err)
			fn(Signal{Kind: SignalLost, Err: err})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *PresenceStoreChannel) pollOnce(ctx context.Context, code string, self PlayerID, seqs map[PlayerID]int64, fn func(Signal)) error {
	if err := c.store.Heartbeat(ctx, code, self); err != nil {
		return err
	}
	n, err := c.store.PruneMembers(ctx, code, c.now().Add(-c.config.PresenceTTL))
	if err != nil {
		return err
	}
	if n > 0 {
		c.logger.Info("pruned silent members", "code", code, "count", n)
	}

	rec, err := c.store.ReadRoom(ctx, code)
	if errors.Is(err, ErrRoomNotFound) {
		fn(Signal{Kind: SignalPresence, Members: 0})
		return nil
	}
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	fn(Signal{Kind: SignalPresence, Members: len(rec.Members)})
	if rec.Started {
		fn(Signal{Kind: SignalStart})
	}
	for _, m := range rec.Members {
		if m.Player == self || m.State == nil || m.StateSeq <= seqs[m.Player] {
			continue
		}
		seqs[m.Player] = m.StateSeq

		var snap game.Snapshot
		if err := json.Unmarshal(m.State, &snap); err != nil {
			c.logger.Warn("discarding undecodable snapshot", "code", code, "player", m.Player, "err", err)
			continue
		}
		fn(Signal{Kind: SignalState, From: m.Player, State: snap})
	}
	return nil
}

// Publish stores the snapshot in self's member row.
func (c *PresenceStoreChannel) Publish(ctx context.Context, code string, self PlayerID, state game.Snapshot) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("multiplayer: encode snapshot: %w", err)
	}
	return c.store.PutState(ctx, code, self, data)
}

// Rearm clears the started flag unless a new opponent already joined.
func (c *PresenceStoreChannel) Rearm(ctx context.Context, code string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.store.RearmRoom(ctx, code)
}

// Leave deletes self's member row.
func (c *PresenceStoreChannel) Leave(ctx context.Context, code string, self PlayerID) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.store.LeaveRoom(ctx, code, self)
}

// Close stops every watch. The store is owned by the caller.
func (c *PresenceStoreChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stops := make([]func(), 0, len(c.stops))
	for _, stop := range c.stops {
		stops = append(stops, stop)
	}
	c.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	return nil
}
