package game

import (
	"cmp"
	"math"
	"slices"
)

// CollisionEvent records a ball-ball contact for presentation (sound, debug
// overlays). Striker is the ball whose velocity drove the response.
type CollisionEvent struct {
	Striker int     `json:"striker"`
	Target  int     `json:"target"`
	Force   float32 `json:"force"`
}

// pairKey identifies an unordered pair by slice index, lo < hi.
type pairKey struct {
	lo, hi int
}

func comparePairs(a, b pairKey) int {
	if c := cmp.Compare(a.lo, b.lo); c != 0 {
		return c
	}
	return cmp.Compare(a.hi, b.hi)
}

// velocityUpdate is a buffered phase-1 result.
type velocityUpdate struct {
	ball     int
	pair     pairKey
	velocity Vec2
}

// ResolveCollisions runs both phases of the resolver over balls and
// returns the contacts it found.
//
// Phase 1 evaluates every unordered pair exactly once against the velocities
// the balls had when the resolver started and buffers the results. Phase 2
// writes them back. Nothing in phase 1 reads a velocity written in the same
// tick, so simultaneous contacts cannot influence each other through
// mutation order.
func ResolveCollisions(balls []Ball, board Board) []CollisionEvent {
	updates, events := computeCollisions(balls, collisionPairs(len(balls)), board.BallDiameter)
	applyVelocityUpdates(balls, updates)
	return events
}

// collisionPairs lists each unordered pair once, using an outer cursor that
// marks balls as checked.
func collisionPairs(n int) []pairKey {
	checked := make([]bool, n)
	pairs := make([]pairKey, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		checked[i] = true
		for j := 0; j < n; j++ {
			if checked[j] {
				continue
			}
			pairs = append(pairs, pairKey{lo: i, hi: j})
		}
	}
	return pairs
}

// computeCollisions is phase 1. balls is read, never written.
func computeCollisions(balls []Ball, pairs []pairKey, diameter float32) ([]velocityUpdate, []CollisionEvent) {
	var updates []velocityUpdate
	var events []CollisionEvent

	for _, p := range pairs {
		// Only the outer-cursor ball drives a response; a resting lo ball
		// leaves the pair untouched even when hi is moving into it.
		striker, target := p.lo, p.hi
		if balls[striker].AtRest() {
			continue
		}

		a, b := balls[striker], balls[target]
		if a.Position.Distance(b.Position) > diameter {
			continue
		}
		vA, vB, force, ok := collisionResponse(a, b)
		if !ok {
			continue
		}

		updates = append(updates,
			velocityUpdate{ball: striker, pair: p, velocity: vA},
			velocityUpdate{ball: target, pair: p, velocity: vB},
		)
		events = append(events, CollisionEvent{Striker: a.ID, Target: b.ID, Force: force})
	}
	return updates, events
}

// collisionResponse is the reference response. It is a known simplification:
// it conserves neither momentum nor energy, and the striker's outgoing
// direction ignores its own incoming direction. Both peers must run exactly
// this, so it is kept as is.
//
//	dir   = normalize(B - A)
//	perp  = (-dir.y, dir.x)
//	force = |vA| * cos(angle(vA, dir))
//	vB'   = vB + dir * force
//	vA'   = -perp * force
//
// ok is false when the centres coincide and no direction exists.
func collisionResponse(a, b Ball) (vA, vB Vec2, force float32, ok bool) {
	dir := b.Position.Minus(a.Position).Normalize()
	if dir.IsZero() {
		return Vec2{}, Vec2{}, 0, false
	}
	perp := dir.Perpendicular()
	angle := a.Velocity.AngleBetween(dir)
	force = r32(a.Velocity.Length() * float32(math.Cos(float64(angle))))

	vB = b.Velocity.Plus(dir.Times(force))
	vA = perp.Invert().Times(force)
	return vA, vB, force, true
}

// applyVelocityUpdates is phase 2. Updates are applied in pair order so a
// ball touched by several pairs ends with the same velocity no matter in
// which order the pairs were discovered.
func applyVelocityUpdates(balls []Ball, updates []velocityUpdate) {
	slices.SortFunc(updates, func(x, y velocityUpdate) int {
		if c := comparePairs(x.pair, y.pair); c != 0 {
			return c
		}
		return cmp.Compare(x.ball, y.ball)
	})
	for _, u := range updates {
		balls[u.ball].Velocity = u.velocity
	}
}
