package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBoard     = errors.New("invalid board geometry")
	ErrNoBalls          = errors.New("ball set is empty")
	ErrNoCueBall        = errors.New("ball set has no white ball")
	ErrMultipleCueBalls = errors.New("ball set has more than one white ball")
	ErrDuplicateBallID  = errors.New("duplicate ball id")
	ErrBallOutsideBoard = errors.New("ball outside board")
	ErrOverlappingBalls = errors.New("balls overlap at setup")
)

// Board is the static table configuration, fixed for the match lifetime.
type Board struct {
	Width        float32 `json:"width" toml:"width" yaml:"width"`
	Height       float32 `json:"height" toml:"height" yaml:"height"`
	BallDiameter float32 `json:"ball_diameter" toml:"ball_diameter" yaml:"ball_diameter"`
}

// DefaultBoard returns the 244 x 112 table with 6-unit balls.
func DefaultBoard() Board {
	return Board{Width: BoardWidth, Height: BoardHeight, BallDiameter: BallDiameter}
}

// Validate checks the geometry is usable.
func (b Board) Validate() error {
	if b.Width <= 0 || b.Height <= 0 || b.BallDiameter <= 0 {
		return fmt.Errorf("%w: %gx%g, ball %g", ErrInvalidBoard, b.Width, b.Height, b.BallDiameter)
	}
	if b.BallDiameter >= b.Width || b.BallDiameter >= b.Height {
		return fmt.Errorf("%w: ball %g does not fit %gx%g", ErrInvalidBoard, b.BallDiameter, b.Width, b.Height)
	}
	return nil
}

// HalfExtents returns half the width and height, the bounce thresholds.
func (b Board) HalfExtents() (float32, float32) {
	return r32(b.Width / 2), r32(b.Height / 2)
}

// Rect is an axis-aligned rectangle centred on Center.
type Rect struct {
	Center Vec2 `json:"center"`
	Size   Vec2 `json:"size"`
}

// Pocket is a hole on the table. Pocketing is not simulated yet; pockets
// are geometry for the presentation layer.
type Pocket struct {
	ID       int     `json:"id"`
	Position Vec2    `json:"position"`
	Width    float32 `json:"width"`
}

// Edges returns the four cushion rectangles: top, bottom, right, left.
func (b Board) Edges() [4]Rect {
	hw, hh := b.HalfExtents()
	return [4]Rect{
		{Center: NewVec2(0, hh), Size: NewVec2(b.Width, EdgeThickness)},
		{Center: NewVec2(0, -hh), Size: NewVec2(b.Width, EdgeThickness)},
		{Center: NewVec2(hw, 0), Size: NewVec2(EdgeThickness, b.Height)},
		{Center: NewVec2(-hw, 0), Size: NewVec2(EdgeThickness, b.Height)},
	}
}

// Pockets returns the six holes: two middle, four corners.
func (b Board) Pockets() [6]Pocket {
	hw, hh := b.HalfExtents()
	pos := [6]Vec2{
		NewVec2(0, hh),
		NewVec2(0, -hh),
		NewVec2(hw, hh),
		NewVec2(hw, -hh),
		NewVec2(-hw, hh),
		NewVec2(-hw, -hh),
	}
	var pockets [6]Pocket
	for i, p := range pos {
		pockets[i] = Pocket{ID: i, Position: p, Width: HoleWidth}
	}
	return pockets
}

// DefaultRack returns the opening layout: the white ball at the origin and
// eight filled balls on a cross around it. Positions are fixed so every peer
// starts from the same snapshot.
func DefaultRack() []Ball {
	balls := []Ball{{ID: 0, Color: ColorWhite}}
	for i, p := range []Vec2{
		NewVec2(-20, 0),
		NewVec2(-10, 0),
		NewVec2(10, 0),
		NewVec2(0, 20),
		NewVec2(0, 10),
		NewVec2(0, -10),
		NewVec2(0, -20),
		NewVec2(10, 10),
	} {
		balls = append(balls, Ball{ID: i + 1, Color: ColorFilled, Position: p})
	}
	return balls
}

// ValidateBalls enforces the setup invariants: at least one ball, unique
// ids, exactly one white ball, every centre on the board, no overlaps.
func ValidateBalls(balls []Ball, board Board) error {
	if len(balls) == 0 {
		return ErrNoBalls
	}

	hw, hh := board.HalfExtents()
	seen := make(map[int]bool, len(balls))
	whites := 0
	for _, b := range balls {
		if seen[b.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateBallID, b.ID)
		}
		seen[b.ID] = true
		if b.Color == ColorWhite {
			whites++
		}
		if abs32(b.Position.X) > hw || abs32(b.Position.Y) > hh {
			return fmt.Errorf("%w: ball %d at (%g, %g)", ErrBallOutsideBoard, b.ID, b.Position.X, b.Position.Y)
		}
	}
	if whites == 0 {
		return ErrNoCueBall
	}
	if whites > 1 {
		return fmt.Errorf("%w: found %d", ErrMultipleCueBalls, whites)
	}

	for i := range balls {
		for j := i + 1; j < len(balls); j++ {
			if balls[i].Position.Distance(balls[j].Position) < board.BallDiameter {
				return fmt.Errorf("%w: %d and %d", ErrOverlappingBalls, balls[i].ID, balls[j].ID)
			}
		}
	}
	return nil
}

// NewTable validates the board and ball set and returns the initial
// snapshot. Any error here is a configuration error and must abort the match.
func NewTable(board Board, balls []Ball) (Snapshot, error) {
	if err := board.Validate(); err != nil {
		return Snapshot{}, err
	}
	if err := ValidateBalls(balls, board); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		Balls: make([]Ball, len(balls)),
		Turn:  NewTurnState(),
	}
	copy(s.Balls, balls)
	for i := range s.Balls {
		s.Balls[i].Velocity = Vec2{}
	}
	return s, nil
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
