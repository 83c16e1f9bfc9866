package multiplayer

import "github.com/vovakirdan/neostack/internal/game"

// MessageType is the "type" field of an Envelope.
type MessageType string

// Client to hub.
const (
	MsgCreateRoom MessageType = "create_room"
	MsgJoinRoom   MessageType = "join_room"
	MsgState      MessageType = "state"
	MsgLeaveRoom  MessageType = "leave_room"
	MsgRearm      MessageType = "rearm"
)

// Hub to client.
const (
	MsgRoomCreated   MessageType = "room_created"
	MsgRoomJoined    MessageType = "room_joined"
	MsgError         MessageType = "error"
	MsgPlayerJoined  MessageType = "player_joined"
	MsgGameStart     MessageType = "game_start"
	MsgOpponentState MessageType = "opponent_state"
	MsgOpponentLeft  MessageType = "opponent_left"
)

// Envelope is the JSON message exchanged between a RelayChannel and a Hub.
type Envelope struct {
	Type    MessageType    `json:"type"`
	Code    string         `json:"code,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Members int            `json:"members,omitempty"`
	From    PlayerID       `json:"from,omitempty"`
	State   *game.Snapshot `json:"state,omitempty"`
}

func errorEnvelope(code string, err error) Envelope {
	return Envelope{Type: MsgError, Code: code, Reason: ReasonFor(err)}
}
