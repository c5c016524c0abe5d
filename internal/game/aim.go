package game

// AimDirection is the current aim, recomputed every rendered frame. It is
// never part of a snapshot; it reaches the simulation only through the
// quantized Input Record.
type AimDirection struct {
	Dir   Vec2
	Valid bool
}

// ComputeAim returns the unit vector from the cue ball to the pointer's
// world position. ok is false when the pointer could not be projected into
// the world (off-window); that, or a pointer sitting exactly on the cue
// ball, clears the aim.
func ComputeAim(pointer Vec2, ok bool, cue Vec2) AimDirection {
	if !ok {
		return AimDirection{}
	}
	dir := pointer.Minus(cue).Normalize()
	if dir.IsZero() {
		return AimDirection{}
	}
	return AimDirection{Dir: dir, Valid: true}
}

// AimFromSnapshot computes the aim against the white ball of s.
func AimFromSnapshot(pointer Vec2, ok bool, s Snapshot) AimDirection {
	i := cueIndex(s.Balls)
	if i < 0 {
		return AimDirection{}
	}
	return ComputeAim(pointer, ok, s.Balls[i].Position)
}

// CueStickPose is where the presentation layer should draw the cue stick.
type CueStickPose struct {
	Rotation float32 `json:"rotation"` // radians around z
	Position Vec2    `json:"position"`
	Z        float32 `json:"z"`
	Visible  bool    `json:"visible"`
}

// CuePose places the stick behind the cue ball along the aim, or hides it
// below the table when there is no aim.
func CuePose(aim AimDirection, cue Vec2) CueStickPose {
	if !aim.Valid {
		return CueStickPose{Position: cue, Z: CueStickHiddenZ}
	}
	return CueStickPose{
		Rotation: aim.Dir.Angle(),
		Position: cue.Minus(aim.Dir.Times(CueStickOffset)),
		Z:        CueStickVisibleZ,
		Visible:  true,
	}
}
