package relay

import (
	"context"

	"github.com/vovakirdan/neostack/internal/multiplayer"
	"github.com/vovakirdan/neostack/internal/registry"
)

// BackendID selects the websocket relay with --backend.
const BackendID = "relay"

// DefaultURL is used when no relay URL is configured.
const DefaultURL = "ws://localhost:8080/ws"

func init() {
	registry.Register(BackendID, "Websocket relay", openBackend)
}

func openBackend(ctx context.Context, opts registry.Options) (*registry.Backend, error) {
	url := opts.RelayURL
	if url == "" {
		url = DefaultURL
	}
	conn, err := Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return registry.NewBackend(multiplayer.NewRelayChannel(conn, opts.Logger), nil), nil
}
