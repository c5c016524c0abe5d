package game

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Snapshot is the complete rollback state: the ball array and the turn
// state. Nothing else may influence a tick.
type Snapshot struct {
	Balls []Ball    `json:"balls"`
	Turn  TurnState `json:"turn"`
}

// Clone returns a deep copy so a saved snapshot never aliases live state.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{Turn: s.Turn}
	if s.Balls != nil {
		c.Balls = make([]Ball, len(s.Balls))
		copy(c.Balls, s.Balls)
	}
	return c
}

const (
	snapshotVersion  = 1
	snapshotHeader   = 1 + 4 // version + ball count
	snapshotBallSize = 4 + 1 + 4*4
	snapshotTurnSize = 2
)

var ErrBadSnapshot = errors.New("malformed snapshot")

// MarshalBinary encodes the snapshot in a fixed little-endian layout. Two
// snapshots encode to the same bytes exactly when they are bit-identical.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, snapshotHeader+len(s.Balls)*snapshotBallSize+snapshotTurnSize)
	buf = append(buf, snapshotVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Balls)))
	for _, b := range s.Balls {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(b.ID)))
		buf = append(buf, byte(b.Color))
		for _, f := range [4]float32{b.Position.X, b.Position.Y, b.Velocity.X, b.Velocity.Y} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	var ready byte
	if s.Turn.Ready {
		ready = 1
	}
	buf = append(buf, ready, byte(s.Turn.ActivePlayer))
	return buf, nil
}

// UnmarshalBinary restores a snapshot written by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	if len(data) < snapshotHeader+snapshotTurnSize {
		return fmt.Errorf("%w: %d bytes", ErrBadSnapshot, len(data))
	}
	if data[0] != snapshotVersion {
		return fmt.Errorf("%w: version %d", ErrBadSnapshot, data[0])
	}
	n := int(binary.LittleEndian.Uint32(data[1:5]))
	if len(data) != snapshotHeader+n*snapshotBallSize+snapshotTurnSize {
		return fmt.Errorf("%w: %d balls in %d bytes", ErrBadSnapshot, n, len(data))
	}

	balls := make([]Ball, n)
	off := snapshotHeader
	f32 := func() float32 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		return v
	}
	for i := range balls {
		balls[i].ID = int(int32(binary.LittleEndian.Uint32(data[off : off+4])))
		off += 4
		balls[i].Color = BallColor(data[off])
		off++
		balls[i].Position = Vec2{X: f32(), Y: f32()}
		balls[i].Velocity = Vec2{X: f32(), Y: f32()}
	}

	s.Balls = balls
	s.Turn = TurnState{Ready: data[off] == 1, ActivePlayer: int(data[off+1])}
	return nil
}

// Checksum is a 64-bit digest of the encoded snapshot, exchanged between
// peers to detect desyncs.
func (s Snapshot) Checksum() uint64 {
	data, _ := s.MarshalBinary()
	sum := blake2b.Sum256(data)
	return binary.LittleEndian.Uint64(sum[:8])
}
