package peer

import "github.com/playmatatu/rollpool/internal/game"

// ScriptedController aims at the nearest non-white ball and shoots after
// the table has been READY for ThinkFrames ticks.
type ScriptedController struct {
	ThinkFrames int

	readyFor int
}

func (c *ScriptedController) Pointer(s game.Snapshot, _ int) (game.Vec2, bool) {
	var cue *game.Ball
	for i := range s.Balls {
		if s.Balls[i].Color == game.ColorWhite {
			cue = &s.Balls[i]
			break
		}
	}
	if cue == nil {
		return game.Vec2{}, false
	}

	best, found := game.Vec2{}, false
	var bestDist float32
	for _, b := range s.Balls {
		if b.Color == game.ColorWhite {
			continue
		}
		d := cue.Position.Distance(b.Position)
		if !found || d < bestDist {
			best, bestDist, found = b.Position, d, true
		}
	}
	return best, found
}

func (c *ScriptedController) Trigger(s game.Snapshot, local int) bool {
	if !s.Turn.Ready || s.Turn.ActivePlayer != local {
		c.readyFor = 0
		return false
	}
	c.readyFor++
	return c.readyFor > c.ThinkFrames
}
