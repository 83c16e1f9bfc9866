package multiplayer

import (
	"sync"

	"github.com/google/uuid"
)

// PeerID identifies one connection to a Hub.
type PeerID string

// Peer is the Hub's handle on one connection. Envelopes queued for the
// connection are read from Events.
type Peer struct {
	id       PeerID
	events   chan Envelope
	done     chan struct{}
	doneOnce sync.Once
}

// NewPeer creates a peer with a random ID.
// bufferSize controls how many envelopes can queue before the oldest is dropped.
func NewPeer(bufferSize int) *Peer {
	if bufferSize < 1 {
		bufferSize = 64
	}
	return &Peer{
		id:     PeerID(uuid.NewString()),
		events: make(chan Envelope, bufferSize),
		done:   make(chan struct{}),
	}
}

// ID returns the peer identifier.
func (p *Peer) ID() PeerID {
	return p.id
}

// Send queues an envelope without blocking.
// If the buffer is full the oldest envelope is dropped.
func (p *Peer) Send(env Envelope) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.events <- env:
	default:
		select {
		case <-p.events:
		default:
		}
		select {
		case p.events <- env:
		default:
		}
	}
}

// Events returns the queue the connection writer drains.
func (p *Peer) Events() <-chan Envelope {
	return p.events
}

// Done returns a channel that closes when the peer is closed.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Close marks the peer as done. Safe to call multiple times.
func (p *Peer) Close() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

// PeerRegistry tracks connected peers. Safe for concurrent use.
type PeerRegistry struct {
	mu    sync.RWMutex
	peers map[PeerID]*Peer
}

// NewPeerRegistry creates an empty registry.
func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{peers: make(map[PeerID]*Peer)}
}

// Register adds a peer.
func (r *PeerRegistry) Register(p *Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[p.ID()] = p
}

// Unregister removes a peer.
func (r *PeerRegistry) Unregister(id PeerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, id)
}

// Get retrieves a peer by ID.
func (r *PeerRegistry) Get(id PeerID) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// Count returns the number of connected peers.
func (r *PeerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
