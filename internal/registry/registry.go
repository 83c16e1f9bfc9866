// Package registry provides a global registry for multiplayer channel
// backends. Backends register themselves in init() functions, allowing the
// CLI to select one by name without hardcoded dependencies.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

// Options carries everything a backend may need to open a channel.
// Each backend reads only the fields it uses.
type Options struct {
	RelayURL     string        // relay: websocket URL
	RoomsPath    string        // store: shared room database
	PollInterval time.Duration // store: how often the room is read
	PresenceTTL  time.Duration // store: heartbeat expiry
	Logger       *log.Logger
}

// Backend is an open channel together with the resources it owns.
type Backend struct {
	Channel multiplayer.Channel
	release func() error
}

// NewBackend wraps ch. release, if not nil, runs after the channel closes.
func NewBackend(ch multiplayer.Channel, release func() error) *Backend {
	return &Backend{Channel: ch, release: release}
}

// Close closes the channel, then releases what it owned.
func (b *Backend) Close() error {
	err := b.Channel.Close()
	if b.release != nil {
		err = errors.Join(err, b.release())
	}
	return err
}

// BackendInfo contains metadata about a registered backend.
type BackendInfo struct {
	ID    string
	Title string
}

// Factory opens a new backend.
type Factory func(ctx context.Context, opts Options) (*Backend, error)

type entry struct {
	title   string
	factory Factory
}

var (
	backends = make(map[string]entry)
	mu       sync.RWMutex
)

// Register adds a backend factory to the registry.
// Typically called from a backend's init() function.
// Panics if a backend with the same ID is already registered.
func Register(id, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := backends[id]; exists {
		panic(fmt.Sprintf("registry: backend %q already registered", id))
	}
	backends[id] = entry{title: title, factory: f}
}

// List returns information about all registered backends, sorted by ID.
func List() []BackendInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]BackendInfo, 0, len(backends))
	for id, e := range backends {
		result = append(result, BackendInfo{ID: id, Title: e.title})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Open creates a backend by its ID.
// Returns an error if the ID is not registered or the backend fails to open.
func Open(ctx context.Context, id string, opts Options) (*Backend, error) {
	mu.RLock()
	e, ok := backends[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown backend %q", id)
	}

	b, err := e.factory(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s: %w", id, err)
	}
	return b, nil
}

// Exists checks if a backend with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := backends[id]
	return ok
}
