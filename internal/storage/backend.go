package storage

import (
	"context"

	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/registry"
)

// BackendID selects the shared room database with --backend.
const BackendID = "store"

// DefaultRoomsPath is the room database used when none is configured.
// Players on one machine or a shared filesystem meet through it.
const DefaultRoomsPath = "~/.neostack/rooms.db"

func init() {
	registry.Register(BackendID, "Shared room database", openBackend)
}

func openBackend(_ context.Context, opts registry.Options) (*registry.Backend, error) {
	path := opts.RoomsPath
	if path == "" {
		path = DefaultRoomsPath
	}
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	ch := multiplayer.NewPresenceStoreChannel(store, multiplayer.PresenceConfig{
		PollInterval: opts.PollInterval,
		PresenceTTL:  opts.PresenceTTL,
	}, opts.Logger)
	return registry.NewBackend(ch, store.Close), nil
}
