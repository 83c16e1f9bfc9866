// Package multiplayer implements two-player rooms for NEO-STACK: the room
// protocol seen from one client (Session), the Channel abstraction it runs
// over, and the two Channel variants. RelayChannel talks to a Hub that fans
// out explicit events. PresenceStoreChannel watches a shared membership
// record and infers join and leave from member counts.
package multiplayer

import "github.com/google/uuid"

// PlayerID is the ephemeral identity of one session. It is not an account.
type PlayerID string

// NewPlayerID returns a fresh random identity.
func NewPlayerID() PlayerID {
	return PlayerID(uuid.NewString())
}

// Phase is the room state of a Session.
type Phase int

const (
	PhaseUnjoined      Phase = iota // Not in any room
	PhaseAwaitingPeer               // Created a room, waiting for the second player
	PhaseAwaitingStart              // Joined a room, waiting for the start signal
	PhaseActive                     // Both players present and started
	PhaseEnded                      // Opponent left or the transport failed
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnjoined:
		return "Unjoined"
	case PhaseAwaitingPeer:
		return "AwaitingPeer"
	case PhaseAwaitingStart:
		return "AwaitingStart"
	case PhaseActive:
		return "Active"
	case PhaseEnded:
		return "Ended"
	default:
		return "Unknown"
	}
}
