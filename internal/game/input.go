package game

import (
	"fmt"
	"math"
)

// InputRecord is one player's input for one tick. It is exactly three bytes
// on the wire: dir_x int8, dir_y int8, power uint8, no padding.
type InputRecord struct {
	DirX  int8  `json:"dir_x"`
	DirY  int8  `json:"dir_y"`
	Power uint8 `json:"power"`
}

// NullInput is the record for "no shot this tick".
var NullInput = InputRecord{}

// IsNull reports whether the record carries no shot.
func (r InputRecord) IsNull() bool {
	return r.Power == 0
}

// MarshalBinary encodes the record into its 3-byte wire form.
func (r InputRecord) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, InputRecordSize)), nil
}

// AppendBinary appends the 3-byte wire form to b.
func (r InputRecord) AppendBinary(b []byte) []byte {
	return append(b, byte(r.DirX), byte(r.DirY), r.Power)
}

// UnmarshalBinary decodes a 3-byte wire form.
func (r *InputRecord) UnmarshalBinary(b []byte) error {
	if len(b) != InputRecordSize {
		return fmt.Errorf("input record: want %d bytes, got %d", InputRecordSize, len(b))
	}
	r.DirX = int8(b[0])
	r.DirY = int8(b[1])
	r.Power = b[2]
	return nil
}

// Velocity converts the record into the cue ball velocity it produces:
// dir / 127 * power, per component.
func (r InputRecord) Velocity() Vec2 {
	p := float32(r.Power)
	return Vec2{
		X: r32(r32(float32(r.DirX)/DirectionScale) * p),
		Y: r32(r32(float32(r.DirY)/DirectionScale) * p),
	}
}

// quantizeDirection maps a unit-vector component to the int8 wire range,
// rounding half away from zero and clamping to [-127, 127].
func quantizeDirection(c float32) int8 {
	v := math.Round(float64(r32(c * DirectionScale)))
	if v > DirectionScale {
		v = DirectionScale
	}
	if v < -DirectionScale {
		v = -DirectionScale
	}
	return int8(v)
}

// EncodeDirection builds a shot record for a direction with the fixed power.
func EncodeDirection(dir Vec2) InputRecord {
	return InputRecord{
		DirX:  quantizeDirection(dir.X),
		DirY:  quantizeDirection(dir.Y),
		Power: ShotPower,
	}
}

// InputContext is everything Input Capture may look at for one tick.
// Turn may be nil when there is no local simulation to gate on.
type InputContext struct {
	Trigger bool
	Aim     AimDirection
	Turn    *TurnState
}

// CaptureInput turns the local player's intent into an Input Record.
//
// The null record is produced when the trigger is not pressed, no aim is
// available, or the table is still moving. A non-null record flips
// Turn.Ready to false immediately as a local prediction; the simulation does
// the same when the record is applied.
func CaptureInput(ctx InputContext) InputRecord {
	if !ctx.Trigger || !ctx.Aim.Valid {
		return NullInput
	}
	if ctx.Turn != nil && !ctx.Turn.Ready {
		return NullInput
	}

	rec := EncodeDirection(ctx.Aim.Dir)
	if rec.DirX == 0 && rec.DirY == 0 {
		return NullInput
	}
	if ctx.Turn != nil {
		ctx.Turn.Ready = false
	}
	return rec
}
