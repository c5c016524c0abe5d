package game

import "fmt"

// BallColor is the closed set of ball categories. Only presentation and
// (future) pocketing rules look at it; the simulation treats all balls alike.
type BallColor uint8

const (
	ColorWhite BallColor = iota
	ColorBlack
	ColorFilled
	ColorStriped
)

func (c BallColor) String() string {
	switch c {
	case ColorWhite:
		return "white"
	case ColorBlack:
		return "black"
	case ColorFilled:
		return "filled"
	case ColorStriped:
		return "striped"
	}
	return fmt.Sprintf("BallColor(%d)", uint8(c))
}

// ParseBallColor maps a rack file color name to a BallColor.
func ParseBallColor(s string) (BallColor, error) {
	switch s {
	case "white", "cue":
		return ColorWhite, nil
	case "black", "eight":
		return ColorBlack, nil
	case "filled", "solid":
		return ColorFilled, nil
	case "striped", "stripe":
		return ColorStriped, nil
	}
	return 0, fmt.Errorf("unknown ball color %q", s)
}

// Ball is a single pool ball's simulated state.
type Ball struct {
	ID       int       `json:"id"`
	Color    BallColor `json:"color"`
	Position Vec2      `json:"position"`
	Velocity Vec2      `json:"velocity"`
}

// AtRest reports whether both velocity components are exactly zero.
func (b Ball) AtRest() bool {
	return b.Velocity.IsZero()
}

// cueIndex returns the slice index of the white ball, or -1.
func cueIndex(balls []Ball) int {
	for i := range balls {
		if balls[i].Color == ColorWhite {
			return i
		}
	}
	return -1
}
