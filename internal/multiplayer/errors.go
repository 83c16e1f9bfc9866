package multiplayer

import "errors"

var (
	// ErrRoomNotFound is returned when joining a code no room is registered under.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomFull is returned when joining a room that already has two members.
	ErrRoomFull = errors.New("room is full")

	// ErrRoomExists is returned by Channel.Claim when the code is taken.
	ErrRoomExists = errors.New("room code taken")

	// ErrRoomExpired is reported when a waiting room is reclaimed by the backend.
	ErrRoomExpired = errors.New("room expired")

	// ErrNoFreeCode is returned when every generated code collided.
	ErrNoFreeCode = errors.New("no free room code")

	// ErrTransport wraps any connectivity or backend failure.
	ErrTransport = errors.New("transport failure")

	// ErrNotJoined is returned by operations that need a room.
	ErrNotJoined = errors.New("not in a room")

	// ErrInvalidCode is returned for codes that are not four digits 1000-9999.
	ErrInvalidCode = errors.New("invalid room code")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("closed")
)

// Human readable reasons carried by "error" envelopes.
const (
	ReasonRoomNotFound = "Room not found"
	ReasonRoomFull     = "Room is full"
	ReasonRoomExists   = "Room code taken"
	ReasonRoomExpired  = "Room expired"
	ReasonBadRequest   = "Bad request"
)

// ReasonFor maps a sentinel to the reason string used on the wire.
func ReasonFor(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return ReasonRoomNotFound
	case errors.Is(err, ErrRoomFull):
		return ReasonRoomFull
	case errors.Is(err, ErrRoomExists):
		return ReasonRoomExists
	case errors.Is(err, ErrRoomExpired):
		return ReasonRoomExpired
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}

// ErrorFor maps a wire reason back to its sentinel.
func ErrorFor(reason string) error {
	switch reason {
	case ReasonRoomNotFound:
		return ErrRoomNotFound
	case ReasonRoomFull:
		return ErrRoomFull
	case ReasonRoomExists:
		return ErrRoomExists
	case ReasonRoomExpired:
		return ErrRoomExpired
	default:
		return errors.New(reason)
	}
}
