package multiplayer

import (
	"context"
	"sync"
)

// LocalConn connects to a Hub in the same process. The SSH server uses it
// so every terminal session plays through the same hub as websocket clients.
type LocalConn struct {
	hub       *Hub
	peer      *Peer
	closeOnce sync.Once
}

// NewLocalConn registers a new peer on h.
func NewLocalConn(h *Hub) *LocalConn {
	return &LocalConn{hub: h, peer: h.Connect()}
}

// Send delivers env to the hub.
func (c *LocalConn) Send(ctx context.Context, env Envelope) error {
	select {
	case <-c.peer.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	c.hub.Deliver(c.peer.ID(), env)
	return nil
}

// Receive waits for the next envelope from the hub.
func (c *LocalConn) Receive(ctx context.Context) (Envelope, error) {
	select {
	case env := <-c.peer.Events():
		return env, nil
	case <-c.peer.Done():
		return Envelope{}, ErrClosed
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}

// Close disconnects from the hub. Safe to call multiple times.
func (c *LocalConn) Close() error {
	c.closeOnce.Do(func() {
		c.hub.Disconnect(c.peer.ID())
		c.peer.Close()
	})
	return nil
}
