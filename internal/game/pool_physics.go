package game

// PhysicsStep advances every moving ball by one tick.
//
// A ball whose velocity components are both below StopEpsilon is snapped to
// rest and does not move this tick. Otherwise the ball moves by its
// velocity, the velocity is damped, and any component whose post-move
// position lies beyond the half extent is reflected. Balls are independent
// of each other here, so iteration order cannot change the outcome.
func PhysicsStep(balls []Ball, board Board) {
	hw, hh := board.HalfExtents()
	for i := range balls {
		stepBall(&balls[i], hw, hh)
	}
}

func stepBall(b *Ball, halfWidth, halfHeight float32) {
	if b.Velocity.IsZero() {
		return
	}
	if abs32(b.Velocity.X) < StopEpsilon && abs32(b.Velocity.Y) < StopEpsilon {
		b.Velocity = Vec2{}
		return
	}

	b.Position = b.Position.Plus(b.Velocity)
	b.Velocity = b.Velocity.Times(Damping)

	if abs32(b.Position.X) > halfWidth {
		b.Velocity.X = -b.Velocity.X
	}
	if abs32(b.Position.Y) > halfHeight {
		b.Velocity.Y = -b.Velocity.Y
	}
}

// AllStopped returns true if every ball has zero velocity.
func AllStopped(balls []Ball) bool {
	for i := range balls {
		if !balls[i].AtRest() {
			return false
		}
	}
	return true
}
