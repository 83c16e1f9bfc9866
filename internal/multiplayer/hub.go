package multiplayer

import (
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// HubConfig holds configuration for the hub.
type HubConfig struct {
	LobbyTimeout  time.Duration // How long a room may wait for a second player
	CleanupPeriod time.Duration // How often to look for expired rooms
	PeerBuffer    int           // Envelopes queued per peer
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		LobbyTimeout:  5 * time.Minute,
		CleanupPeriod: 30 * time.Second,
		PeerBuffer:    64,
	}
}

// RoomStatus is the public view of a hub room.
type RoomStatus struct {
	Code      string    `json:"code"`
	Members   int       `json:"members"`
	Started   bool      `json:"started"`
	CreatedAt time.Time `json:"createdAt"`
}

type hubRoom struct {
	code         string
	members      []*Peer
	started      bool
	createdAt    time.Time
	waitingSince time.Time // last time the room dropped to one member
}

func (r *hubRoom) status() RoomStatus {
	return RoomStatus{Code: r.code, Members: len(r.members), Started: r.started, CreatedAt: r.createdAt}
}

func (r *hubRoom) broadcast(env Envelope) {
	for _, p := range r.members {
		p.Send(env)
	}
}

// hubMessage is a unit of work for the hub goroutine.
type hubMessage interface {
	hubMessage()
}

type envelopeMsg struct {
	Peer PeerID
	Env  Envelope
}

func (envelopeMsg) hubMessage() {}

type disconnectMsg struct {
	Peer PeerID
}

func (disconnectMsg) hubMessage() {}

// Hub is the relay's room authority. All room mutations happen on one
// goroutine, so a join against a full room is rejected no matter how joins
// interleave.
type Hub struct {
	config HubConfig
	logger *log.Logger
	peers  *PeerRegistry

	mu       sync.RWMutex
	rooms    map[string]*hubRoom
	peerRoom map[PeerID]string

	msgChan  chan hubMessage
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. A nil logger discards output.
func NewHub(cfg HubConfig, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	def := DefaultHubConfig()
	if cfg.LobbyTimeout <= 0 {
		cfg.LobbyTimeout = def.LobbyTimeout
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	if cfg.PeerBuffer <= 0 {
		cfg.PeerBuffer = def.PeerBuffer
	}
	return &Hub{
		config:   cfg,
		logger:   logger,
		peers:    NewPeerRegistry(),
		rooms:    make(map[string]*hubRoom),
		peerRoom: make(map[PeerID]string),
		msgChan:  make(chan hubMessage, 256),
		done:     make(chan struct{}),
	}
}

// Start begins the hub's background processing.
func (h *Hub) Start() {
	go h.processMessages()
	go h.cleanupLoop()
}

// Stop shuts down the hub. Safe to call multiple times.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Connect registers a new peer.
func (h *Hub) Connect() *Peer {
	p := NewPeer(h.config.PeerBuffer)
	h.peers.Register(p)
	h.logger.Debug("peer connected", "peer", p.ID())
	return p
}

// Deliver queues an envelope received from a peer.
func (h *Hub) Deliver(id PeerID, env Envelope) {
	h.send(envelopeMsg{Peer: id, Env: env})
}

// Disconnect removes a peer from its room and the registry.
func (h *Hub) Disconnect(id PeerID) {
	h.send(disconnectMsg{Peer: id})
}

func (h *Hub) send(msg hubMessage) {
	select {
	case h.msgChan <- msg:
	case <-h.done:
	}
}

func (h *Hub) processMessages() {
	for {
		select {
		case msg := <-h.msgChan:
			h.handleMessage(msg)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleMessage(msg hubMessage) {
	switch m := msg.(type) {
	case envelopeMsg:
		peer, ok := h.peers.Get(m.Peer)
		if !ok {
			return
		}
		h.handleEnvelope(peer, m.Env)
	case disconnectMsg:
		h.handleDisconnect(m.Peer)
	}
}

func (h *Hub) handleEnvelope(peer *Peer, env Envelope) {
	switch env.Type {
	case MsgCreateRoom:
		h.handleCreateRoom(peer, env.Code)
	case MsgJoinRoom:
		h.handleJoinRoom(peer, env.Code)
	case MsgState:
		h.handleState(peer, env)
	case MsgLeaveRoom:
		h.mu.Lock()
		h.removeFromRoom(peer.ID())
		h.mu.Unlock()
	case MsgRearm:
		h.mu.Lock()
		if r, ok := h.rooms[env.Code]; ok && len(r.members) < 2 && slices.Contains(r.members, peer) {
			r.started = false
		}
		h.mu.Unlock()
	default:
		peer.Send(Envelope{Type: MsgError, Reason: ReasonBadRequest})
	}
}

func (h *Hub) handleCreateRoom(peer *Peer, code string) {
	if !ValidCode(code) {
		peer.Send(errorEnvelope(code, ErrInvalidCode))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoom(peer.ID())

	if _, exists := h.rooms[code]; exists {
		peer.Send(errorEnvelope(code, ErrRoomExists))
		return
	}

	now := time.Now()
	h.rooms[code] = &hubRoom{
		code:         code,
		members:      []*Peer{peer},
		createdAt:    now,
		waitingSince: now,
	}
	h.peerRoom[peer.ID()] = code

	h.logger.Info("room created", "code", code, "peer", peer.ID())
	peer.Send(Envelope{Type: MsgRoomCreated, Code: code})
}

func (h *Hub) handleJoinRoom(peer *Peer, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.peerRoom[peer.ID()]; ok && current != code {
		h.removeFromRoom(peer.ID())
	}

	room, exists := h.rooms[code]
	if !exists {
		peer.Send(errorEnvelope(code, ErrRoomNotFound))
		return
	}
	if slices.Contains(room.members, peer) {
		peer.Send(Envelope{Type: MsgRoomJoined, Code: code})
		return
	}
	if len(room.members) >= 2 {
		peer.Send(errorEnvelope(code, ErrRoomFull))
		return
	}

	room.members = append(room.members, peer)
	h.peerRoom[peer.ID()] = code

	h.logger.Info("room joined", "code", code, "peer", peer.ID())
	peer.Send(Envelope{Type: MsgRoomJoined, Code: code})
	room.broadcast(Envelope{Type: MsgPlayerJoined, Code: code, Members: len(room.members)})

	if len(room.members) == 2 {
		room.started = true
		room.broadcast(Envelope{Type: MsgGameStart, Code: code})
	}
}

func (h *Hub) handleState(peer *Peer, env Envelope) {
	if env.State == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	code, ok := h.peerRoom[peer.ID()]
	if !ok {
		return
	}
	room := h.rooms[code]
	out := Envelope{Type: MsgOpponentState, Code: code, From: env.From, State: env.State}
	for _, p := range room.members {
		if p != peer {
			p.Send(out)
		}
	}
}

func (h *Hub) handleDisconnect(id PeerID) {
	h.mu.Lock()
	h.removeFromRoom(id)
	h.mu.Unlock()

	if p, ok := h.peers.Get(id); ok {
		p.Close()
	}
	h.peers.Unregister(id)
	h.logger.Debug("peer disconnected", "peer", id)
}

// removeFromRoom must be called with h.mu held.
func (h *Hub) removeFromRoom(id PeerID) {
	code, ok := h.peerRoom[id]
	if !ok {
		return
	}
	delete(h.peerRoom, id)

	room, exists := h.rooms[code]
	if !exists {
		return
	}
	wasPaired := len(room.members) == 2
	room.members = slices.DeleteFunc(room.members, func(p *Peer) bool { return p.ID() == id })

	if len(room.members) == 0 {
		delete(h.rooms, code)
		h.logger.Info("room closed", "code", code)
		return
	}

	if wasPaired {
		room.started = false
		room.waitingSince = time.Now()
		room.broadcast(Envelope{Type: MsgOpponentLeft, Code: code})
	}
}

func (h *Hub) cleanupLoop() {
	ticker := time.NewTicker(h.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanupExpiredRooms(time.Now())
		case <-h.done:
			return
		}
	}
}

func (h *Hub) cleanupExpiredRooms(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for code, room := range h.rooms {
		// Only rooms still waiting for a second player expire.
		if len(room.members) == 1 && now.Sub(room.waitingSince) > h.config.LobbyTimeout {
			host := room.members[0]
			host.Send(errorEnvelope(code, ErrRoomExpired))
			delete(h.peerRoom, host.ID())
			delete(h.rooms, code)
			h.logger.Info("room expired", "code", code)
		}
	}
}

// Room returns the status of a room.
func (h *Hub) Room(code string) (RoomStatus, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[code]
	if !ok {
		return RoomStatus{}, false
	}
	return r.status(), true
}

// RoomCount returns the number of open rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	return h.peers.Count()
}
