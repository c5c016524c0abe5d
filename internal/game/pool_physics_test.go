package game

import "testing"

// singleBall returns a one-ball slice with the given position and velocity.
func singleBall(x, y, vx, vy float32) []Ball {
	return []Ball{{ID: 0, Color: ColorWhite, Position: NewVec2(x, y), Velocity: NewVec2(vx, vy)}}
}

func TestRestStateIsIdempotent(t *testing.T) {
	board := DefaultBoard()
	balls := singleBall(12, -7, 0, 0)

	PhysicsStep(balls, board)
	PhysicsStep(balls, board)

	if !balls[0].Velocity.IsZero() {
		t.Errorf("resting ball gained velocity: %+v", balls[0].Velocity)
	}
	if !balls[0].Position.IsEqualTo(NewVec2(12, -7)) {
		t.Errorf("resting ball moved: %+v", balls[0].Position)
	}
}

func TestSlowBallSnapsToRest(t *testing.T) {
	cases := []struct {
		name   string
		vx, vy float32
	}{
		{"tiny positive", 0.05, 0.05},
		{"mixed signs", -0.09, 0.03},
		{"one axis only", 0.0999, 0},
		{"just under on both", -0.0999, -0.0999},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			balls := singleBall(3, 4, tc.vx, tc.vy)
			PhysicsStep(balls, DefaultBoard())

			if balls[0].Velocity.X != 0 || balls[0].Velocity.Y != 0 {
				t.Errorf("velocity not snapped: %+v", balls[0].Velocity)
			}
			if !balls[0].Position.IsEqualTo(NewVec2(3, 4)) {
				t.Errorf("snapped ball should not move this tick: %+v", balls[0].Position)
			}
		})
	}
}

func TestOneFastComponentKeepsBallMoving(t *testing.T) {
	balls := singleBall(0, 0, 0.05, 0.5)
	PhysicsStep(balls, DefaultBoard())

	if balls[0].Velocity.IsZero() {
		t.Fatal("ball with one component above epsilon was snapped")
	}
	if balls[0].Position.Y != 0.5 {
		t.Errorf("expected y=0.5 after one tick, got %v", balls[0].Position.Y)
	}
}

func TestSnapDoesNotStopLaterBalls(t *testing.T) {
	balls := []Ball{
		{ID: 0, Color: ColorWhite, Position: NewVec2(0, 0), Velocity: NewVec2(0.01, 0)},
		{ID: 1, Color: ColorFilled, Position: NewVec2(50, 0), Velocity: NewVec2(1, 0)},
	}
	PhysicsStep(balls, DefaultBoard())

	if balls[1].Position.X != 51 {
		t.Errorf("second ball should have moved to x=51, got %v", balls[1].Position.X)
	}
}

func TestFrictionDampsVelocity(t *testing.T) {
	balls := singleBall(0, 0, 2, -1)
	PhysicsStep(balls, DefaultBoard())

	d := float32(Damping)
	vx, vy := float32(2), float32(-1)
	want := NewVec2(vx*d, vy*d)

	if !balls[0].Position.IsEqualTo(NewVec2(2, -1)) {
		t.Errorf("position should integrate before damping: %+v", balls[0].Position)
	}
	if !balls[0].Velocity.IsEqualTo(want) {
		t.Errorf("velocity = %+v, want %+v", balls[0].Velocity, want)
	}
}

func TestWallBounceReflectsVelocity(t *testing.T) {
	d := float32(Damping)
	two := float32(2)

	cases := []struct {
		name    string
		balls   []Ball
		wantVel Vec2
	}{
		{"right cushion", singleBall(121, 0, 2, 0), NewVec2(-(two * d), 0)},
		{"left cushion", singleBall(-121, 0, -2, 0), NewVec2(two*d, 0)},
		{"top cushion", singleBall(0, 55, 0, 2), NewVec2(0, -(two * d))},
		{"bottom cushion", singleBall(0, -55, 0, -2), NewVec2(0, two*d)},
		{"inside stays", singleBall(100, 30, 2, 2), NewVec2(two*d, two*d)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			PhysicsStep(tc.balls, DefaultBoard())
			if !tc.balls[0].Velocity.IsEqualTo(tc.wantVel) {
				t.Errorf("velocity = %+v, want %+v", tc.balls[0].Velocity, tc.wantVel)
			}
		})
	}
}

func TestBallEventuallyStops(t *testing.T) {
	balls := singleBall(0, 0, 5, 0)
	board := DefaultBoard()

	for i := 0; i < 1000 && !AllStopped(balls); i++ {
		PhysicsStep(balls, board)
	}
	if !AllStopped(balls) {
		t.Errorf("ball did not stop: %+v", balls[0].Velocity)
	}
}

func TestAllStoppedLogic(t *testing.T) {
	balls := []Ball{
		{ID: 0, Color: ColorWhite},
		{ID: 1, Color: ColorFilled, Position: NewVec2(20, 0)},
	}
	if !AllStopped(balls) {
		t.Error("AllStopped should return true when no balls have velocity")
	}

	balls[1].Velocity = NewVec2(0, 0.01)
	if AllStopped(balls) {
		t.Error("AllStopped should return false when a ball has velocity")
	}
}
