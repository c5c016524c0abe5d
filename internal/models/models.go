package models

import "time"

// DesyncReport is a peer's record of a checksum mismatch at a confirmed
// frame. Checksums are stored as hex strings since they use all 64 bits.
type DesyncReport struct {
	ID             int       `db:"id" json:"id"`
	Room           string    `db:"room" json:"room"`
	Slot           int       `db:"slot" json:"slot"`
	Frame          int       `db:"frame" json:"frame"`
	LocalChecksum  string    `db:"local_checksum" json:"local_checksum"`
	RemoteChecksum string    `db:"remote_checksum" json:"remote_checksum"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// RoomEvent is published on the relay events channel whenever a room
// changes state.
type RoomEvent struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Slot    int    `json:"slot,omitempty"`
	Players int    `json:"players,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
