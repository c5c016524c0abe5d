package game

import (
	"errors"
	"fmt"
)

var ErrInputCount = errors.New("input set size does not match player count")

// TickResult carries the per-tick byproducts the presentation layer may
// want. None of it is rollback state.
type TickResult struct {
	ShotApplied bool
	Shooter     int
	Collisions  []CollisionEvent
}

// Tick is the pure tick function: it returns the state one tick after s
// given the aggregated input set, and never modifies s.
func Tick(s Snapshot, inputs []InputRecord, board Board) Snapshot {
	next := s.Clone()
	step(&next, inputs, board)
	return next
}

// step runs the four phases in place. The order is part of the determinism
// contract: shot, physics, collisions, settle check.
func step(s *Snapshot, inputs []InputRecord, board Board) TickResult {
	var res TickResult

	res.Shooter = s.Turn.ActivePlayer
	res.ShotApplied = applyShot(s, inputs)

	PhysicsStep(s.Balls, board)
	res.Collisions = ResolveCollisions(s.Balls, board)
	s.Turn.SettleCheck(s.Balls)

	return res
}

// applyShot sets the cue ball velocity from the active player's record and
// hands the turn over. Records from the other slot are ignored.
func applyShot(s *Snapshot, inputs []InputRecord) bool {
	p := s.Turn.ActivePlayer
	if p < 0 || p >= len(inputs) {
		return false
	}
	in := inputs[p]
	if in.IsNull() {
		return false
	}
	cue := cueIndex(s.Balls)
	if cue < 0 {
		return false
	}

	s.Balls[cue].Velocity = in.Velocity()
	s.Turn.Ready = false
	s.Turn.switchPlayer()
	return true
}

// Simulation owns the live state between ticks. It is not safe for
// concurrent use; the rollback runtime drives it from a single goroutine.
type Simulation struct {
	board Board
	state Snapshot
	frame int
}

// NewSimulation validates the setup and returns a simulation at frame 0.
func NewSimulation(board Board, balls []Ball) (*Simulation, error) {
	s, err := NewTable(board, balls)
	if err != nil {
		return nil, fmt.Errorf("table setup: %w", err)
	}
	return &Simulation{board: board, state: s}, nil
}

func (sim *Simulation) Board() Board { return sim.board }

func (sim *Simulation) Frame() int { return sim.frame }

// State returns a copy of the current state for read-only consumers.
func (sim *Simulation) State() Snapshot { return sim.state.Clone() }

// Turn exposes the live turn state. Only Input Capture's local prediction
// writes through it between ticks.
func (sim *Simulation) Turn() *TurnState { return &sim.state.Turn }

// Advance runs one tick with one record per player slot.
func (sim *Simulation) Advance(inputs []InputRecord) (TickResult, error) {
	if len(inputs) != NumPlayers {
		return TickResult{}, fmt.Errorf("%w: got %d, want %d", ErrInputCount, len(inputs), NumPlayers)
	}
	res := step(&sim.state, inputs, sim.board)
	sim.frame++
	return res, nil
}

// Save returns a deep copy of the current state for the snapshot ring.
func (sim *Simulation) Save() Snapshot { return sim.state.Clone() }

// Load restores a saved state and its frame number.
func (sim *Simulation) Load(frame int, s Snapshot) {
	sim.state = s.Clone()
	sim.frame = frame
}
