package game

// Table and physics constants. Every peer must run with identical values;
// changing any of them breaks replay compatibility with older builds.

const (
	BoardWidth       = 244.0
	BoardHeight      = 112.0
	BallDiameter     = 6.0
	EdgeThickness    = 4.0
	HoleWidth        = 13.0
	Damping          = 0.97 // per-tick velocity multiplier
	StopEpsilon      = 0.1  // per-component speed below which a ball is snapped to rest
	ShotPower        = 5    // power is not player-controlled yet
	DirectionScale   = 127  // Input Record direction fixed-point scale
	CueStickOffset   = 60.0 // distance from cue ball centre to the stick sprite
	CueStickVisibleZ = 10.0
	CueStickHiddenZ  = -10.0
	NumPlayers       = 2
	InputRecordSize  = 3
)
