package relay

import (
	"context"
	"fmt"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

// Conn is a multiplayer.Conn over a websocket to a relay Server.
type Conn struct {
	ws        *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// Ensure Conn implements multiplayer.Conn
var _ multiplayer.Conn = (*Conn)(nil)

// Dial connects to a relay at url, e.g. "ws://localhost:8080/ws".
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("relay: dial %s: %w", url, err)
	}
	ws.SetReadLimit(readLimit)
	return &Conn{ws: ws}, nil
}

// Send writes one envelope.
func (c *Conn) Send(ctx context.Context, env multiplayer.Envelope) error {
	if err := wsjson.Write(ctx, c.ws, env); err != nil {
		return fmt.Errorf("relay: write: %w", err)
	}
	return nil
}

// Receive reads the next envelope. Cancelling ctx closes the connection.
func (c *Conn) Receive(ctx context.Context) (multiplayer.Envelope, error) {
	var env multiplayer.Envelope
	if err := wsjson.Read(ctx, c.ws, &env); err != nil {
		return env, fmt.Errorf("relay: read: %w", err)
	}
	return env, nil
}

// Close performs the closing handshake. Safe to call multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		err := c.ws.Close(websocket.StatusNormalClosure, "")
		if err != nil && websocket.CloseStatus(err) == -1 {
			c.closeErr = err
		}
	})
	return c.closeErr
}
