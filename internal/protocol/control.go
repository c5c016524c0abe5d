package protocol

import (
	"encoding/json"
	"fmt"
)

// Control message types sent by the relay as websocket text frames.
const (
	TypeWaiting    = "waiting"
	TypeMatchStart = "match_start"
	TypePeerLeft   = "peer_left"
	TypeRoomClosed = "room_closed"
	TypeError      = "error"
)

// Control is a relay-to-peer JSON message.
type Control struct {
	Type    string `json:"type"`
	Room    string `json:"room,omitempty"`
	Slot    int    `json:"slot"`
	Players int    `json:"players,omitempty"`
	Token   string `json:"token,omitempty"`
	Rack    string `json:"rack,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c Control) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// DecodeControl parses a control message and rejects ones without a type.
func DecodeControl(data []byte) (Control, error) {
	var c Control
	if err := json.Unmarshal(data, &c); err != nil {
		return Control{}, fmt.Errorf("decode control: %w", err)
	}
	if c.Type == "" {
		return Control{}, fmt.Errorf("decode control: missing type")
	}
	return c, nil
}
