package multiplayer

import "github.com/vovakirdan/neostack/internal/game"

// EventKind names an event delivered by a Session to its listeners.
type EventKind string

const (
	EventRoomCreated   EventKind = "room_created"
	EventRoomJoined    EventKind = "room_joined"
	EventError         EventKind = "error"
	EventPlayerJoined  EventKind = "player_joined"
	EventGameStart     EventKind = "game_start"
	EventOpponentState EventKind = "opponent_state"
	EventOpponentLeft  EventKind = "opponent_left"
)

// Event is a notification from a Session to the presentation layer.
type Event interface {
	Kind() EventKind
}

// RoomCreatedEvent is sent when a room is established with this session as sole member.
type RoomCreatedEvent struct {
	Code string
}

func (RoomCreatedEvent) Kind() EventKind { return EventRoomCreated }

// RoomJoinedEvent is sent when a join is accepted.
type RoomJoinedEvent struct {
	Code string
}

func (RoomJoinedEvent) Kind() EventKind { return EventRoomJoined }

// ErrorEvent is sent once for every failed room operation or transport loss.
type ErrorEvent struct {
	Err error
}

func (ErrorEvent) Kind() EventKind { return EventError }

// Reason returns the user-facing message for the error.
func (e ErrorEvent) Reason() string {
	return ReasonFor(e.Err)
}

// PlayerJoinedEvent is sent when the room reaches two members.
type PlayerJoinedEvent struct {
	Members int
}

func (PlayerJoinedEvent) Kind() EventKind { return EventPlayerJoined }

// GameStartEvent is sent once per pairing when both members are ready.
type GameStartEvent struct {
	Code string
}

func (GameStartEvent) Kind() EventKind { return EventGameStart }

// OpponentStateEvent carries the latest remote snapshot. Older snapshots
// are simply replaced by newer ones.
type OpponentStateEvent struct {
	From  PlayerID
	State game.Snapshot
}

func (OpponentStateEvent) Kind() EventKind { return EventOpponentState }

// OpponentLeftEvent is sent when the room drops below two members after a pairing.
type OpponentLeftEvent struct {
	Code string
}

func (OpponentLeftEvent) Kind() EventKind { return EventOpponentLeft }
