package multiplayer

import (
	"context"
	"time"

	"github.com/vovakirdan/neostack/internal/game"
)

// SignalKind classifies what a Channel observed in a room.
type SignalKind int

const (
	// SignalPresence carries the current member count.
	SignalPresence SignalKind = iota
	// SignalStart means the room's started flag is set.
	SignalStart
	// SignalState carries a snapshot published by another member.
	SignalState
	// SignalLost reports that the channel can no longer serve the room. It is
	// how a Channel reports loss; the session handles it like ReportDisconnect.
	SignalLost
)

// Signal is one observation delivered to a Watch callback.
type Signal struct {
	Kind    SignalKind
	Members int
	From    PlayerID
	State   game.Snapshot
	Err     error
}

// Channel is the transport a Session runs over. Every method may block on
// the network or a database and takes a context.
//
// Watch callbacks for one room are delivered serially. They must not block
// and must not call back into the Channel's stop function.
type Channel interface {
	// Claim registers a new room with self as its only member.
	// It returns ErrRoomExists if the code is taken.
	Claim(ctx context.Context, code string, self PlayerID) error

	// Join adds self as the second member and raises the started flag.
	// It returns ErrRoomNotFound or ErrRoomFull without side effects.
	Join(ctx context.Context, code string, self PlayerID) error

	// Watch subscribes fn to the room. stop unsubscribes and has returned
	// only once no further fn call can happen.
	Watch(ctx context.Context, code string, self PlayerID, fn func(Signal)) (stop func(), err error)

	// Publish sends a snapshot to the other member. It is unreliable.
	Publish(ctx context.Context, code string, self PlayerID, state game.Snapshot) error

	// Rearm clears the started flag so a later join does not start mid-game.
	// A room that has filled up again keeps its flag.
	Rearm(ctx context.Context, code string) error

	// Leave removes self from the room. Leaving a room twice is not an error.
	Leave(ctx context.Context, code string, self PlayerID) error

	// Close releases the transport.
	Close() error
}

// Conn is a bidirectional envelope stream to a Hub, over a websocket or in process.
type Conn interface {
	Send(ctx context.Context, env Envelope) error
	Receive(ctx context.Context) (Envelope, error)
	Close() error
}

// RoomStore is the shared record a PresenceStoreChannel watches.
type RoomStore interface {
	// ClaimRoom creates the room with host as sole member. A room whose
	// members all went silent before staleBefore is reclaimed.
	ClaimRoom(ctx context.Context, code string, host PlayerID, staleBefore time.Time) error

	// JoinRoom atomically adds player if the room exists and has fewer than
	// two members, and sets the started flag.
	JoinRoom(ctx context.Context, code string, player PlayerID) error

	// LeaveRoom removes player. Empty rooms are deleted.
	LeaveRoom(ctx context.Context, code string, player PlayerID) error

	// RearmRoom clears the started flag in one conditional write. A room
	// that already holds two members keeps the flag.
	RearmRoom(ctx context.Context, code string) error

	// PutState stores player's latest encoded snapshot.
	PutState(ctx context.Context, code string, player PlayerID, state []byte) error

	// Heartbeat marks player as alive.
	Heartbeat(ctx context.Context, code string, player PlayerID) error

	// PruneMembers removes members whose last heartbeat is before cutoff.
	PruneMembers(ctx context.Context, code string, cutoff time.Time) (int, error)

	// ReadRoom returns the current record or ErrRoomNotFound.
	ReadRoom(ctx context.Context, code string) (RoomRecord, error)
}

// RoomRecord is a point-in-time copy of a stored room.
type RoomRecord struct {
	Code      string
	Started   bool
	CreatedAt time.Time
	Members   []MemberRecord
}

// MemberRecord is one member of a stored room.
type MemberRecord struct {
	Player   PlayerID
	Host     bool
	State    []byte // Encoded snapshot, nil before the first publish
	StateSeq int64  // Incremented on every PutState
	SeenAt   time.Time
}
