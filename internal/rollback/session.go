// Package rollback runs the pool simulation under rollback netcode: local
// inputs are delayed by a fixed number of frames, missing remote inputs are
// predicted, and a late input that contradicts its prediction rewinds the
// simulation to that frame and replays it.
package rollback

import (
	"errors"
	"fmt"

	"github.com/playmatatu/rollpool/internal/game"
)

var (
	ErrInvalidConfig       = errors.New("invalid session config")
	ErrInvalidPlayer       = errors.New("invalid player slot")
	ErrPredictionThreshold = errors.New("prediction threshold reached")
	ErrMissingLocalInput   = errors.New("no local input for frame")
	ErrInputAlreadySet     = errors.New("local input already set for frame")
	ErrInputConflict       = errors.New("confirmed input changed")
	ErrInputTooOld         = errors.New("input older than saved snapshots")
	ErrInputTooNew         = errors.New("input too far ahead")
	ErrSnapshotMissing     = errors.New("snapshot missing for rollback")
	ErrChecksumPending     = errors.New("checksum not confirmed yet")
)

// DesyncError reports that two peers computed different states for the
// same confirmed frame.
type DesyncError struct {
	Frame  int
	Local  uint64
	Remote uint64
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("desync at frame %d: local %016x, remote %016x", e.Frame, e.Local, e.Remote)
}

// Config holds the session parameters. Both peers must use the same values.
type Config struct {
	NumPlayers    int
	LocalPlayer   int
	InputDelay    int
	MaxPrediction int
	CheckDistance int
}

// DefaultConfig returns the parameters used by the peer binary.
func DefaultConfig(local int) Config {
	return Config{
		NumPlayers:    game.NumPlayers,
		LocalPlayer:   local,
		InputDelay:    2,
		MaxPrediction: 8,
		CheckDistance: 10,
	}
}

func (c Config) validate() error {
	switch {
	case c.NumPlayers != game.NumPlayers:
		return fmt.Errorf("%w: %d players, simulation needs %d", ErrInvalidConfig, c.NumPlayers, game.NumPlayers)
	case c.LocalPlayer < 0 || c.LocalPlayer >= c.NumPlayers:
		return fmt.Errorf("%w: local player %d", ErrInvalidConfig, c.LocalPlayer)
	case c.InputDelay < 0:
		return fmt.Errorf("%w: input delay %d", ErrInvalidConfig, c.InputDelay)
	case c.MaxPrediction < 1:
		return fmt.Errorf("%w: max prediction %d", ErrInvalidConfig, c.MaxPrediction)
	case c.CheckDistance < 1:
		return fmt.Errorf("%w: check distance %d", ErrInvalidConfig, c.CheckDistance)
	}
	return nil
}

// FrameChecksum is the checksum of the confirmed state at Frame.
type FrameChecksum struct {
	Frame int
	Sum   uint64
}

// checksumHistory is how many checksum intervals are kept for comparison.
const checksumHistory = 64

// Session owns a simulation and the input bookkeeping around it. It is not
// safe for concurrent use.
type Session struct {
	cfg Config
	sim *game.Simulation

	inputs    []map[int]game.InputRecord
	confirmed []int
	used      map[int][]game.InputRecord

	ring       *snapshotRing
	rollbackTo int
	rollbacks  int

	checksums    map[int]uint64
	lastChecksum int
	outgoing     []FrameChecksum
}

// NewSession validates cfg and the table setup and returns a session at
// frame 0. Frames before the input delay carry null records for every
// player.
func NewSession(cfg Config, board game.Board, balls []game.Ball) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sim, err := game.NewSimulation(board, balls)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:        cfg,
		sim:        sim,
		inputs:     make([]map[int]game.InputRecord, cfg.NumPlayers),
		confirmed:  make([]int, cfg.NumPlayers),
		used:       make(map[int][]game.InputRecord),
		ring:       newSnapshotRing(cfg.MaxPrediction + 2),
		rollbackTo: -1,
		checksums:  make(map[int]uint64),
	}
	for p := range s.inputs {
		s.inputs[p] = make(map[int]game.InputRecord)
		for f := 0; f < cfg.InputDelay; f++ {
			s.inputs[p][f] = game.NullInput
		}
		s.confirmed[p] = cfg.InputDelay - 1
	}
	return s, nil
}

func (s *Session) Config() Config { return s.cfg }

// Frame is the number of ticks simulated so far.
func (s *Session) Frame() int { return s.sim.Frame() }

// State returns a copy of the current, possibly predicted, state.
func (s *Session) State() game.Snapshot { return s.sim.State() }

func (s *Session) Board() game.Board { return s.sim.Board() }

// Rollbacks counts how many times the session rewound.
func (s *Session) Rollbacks() int { return s.rollbacks }

// ConfirmedFrame is the last frame for which every player's input is known.
func (s *Session) ConfirmedFrame() int {
	c := s.confirmed[0]
	for _, f := range s.confirmed[1:] {
		c = min(c, f)
	}
	return c
}

// NeedsLocalInput reports whether the local record for the next scheduled
// frame is still missing.
func (s *Session) NeedsLocalInput() bool {
	_, ok := s.inputs[s.cfg.LocalPlayer][s.sim.Frame()+s.cfg.InputDelay]
	return !ok
}

// AddLocalInput schedules the local record InputDelay frames ahead and
// returns that frame so the caller can send it to the other peers.
func (s *Session) AddLocalInput(in game.InputRecord) (int, error) {
	frame := s.sim.Frame() + s.cfg.InputDelay
	p := s.cfg.LocalPlayer
	if _, ok := s.inputs[p][frame]; ok {
		return frame, fmt.Errorf("%w: %d", ErrInputAlreadySet, frame)
	}
	s.inputs[p][frame] = in
	s.advanceConfirmed(p)
	return frame, nil
}

// AddRemoteInput records a confirmed input from another peer. If the frame
// was already simulated with a different record, a rollback to that frame
// is scheduled for the next AdvanceFrame.
func (s *Session) AddRemoteInput(player, frame int, in game.InputRecord) error {
	if player < 0 || player >= s.cfg.NumPlayers || player == s.cfg.LocalPlayer {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}
	if frame < 0 || frame > s.sim.Frame()+2*(s.cfg.InputDelay+s.cfg.MaxPrediction)+1 {
		return fmt.Errorf("%w: frame %d at %d", ErrInputTooNew, frame, s.sim.Frame())
	}

	if existing, ok := s.inputs[player][frame]; ok {
		if existing != in {
			return fmt.Errorf("%w: player %d frame %d", ErrInputConflict, player, frame)
		}
		return nil
	}
	if frame <= s.confirmed[player] {
		// Pruned history; the record was confirmed long ago.
		return nil
	}

	if frame < s.sim.Frame() {
		used, ok := s.used[frame]
		if !ok || !s.ring.has(frame) {
			return fmt.Errorf("%w: frame %d at %d", ErrInputTooOld, frame, s.sim.Frame())
		}
		if used[player] != in && (s.rollbackTo < 0 || frame < s.rollbackTo) {
			s.rollbackTo = frame
		}
	}

	s.inputs[player][frame] = in
	s.advanceConfirmed(player)
	return nil
}

func (s *Session) advanceConfirmed(p int) {
	for {
		if _, ok := s.inputs[p][s.confirmed[p]+1]; !ok {
			return
		}
		s.confirmed[p]++
	}
}

// AdvanceFrame applies any pending rollback and then simulates one tick.
// It returns ErrPredictionThreshold without advancing when a remote player
// is more than MaxPrediction frames behind; the caller retries next tick.
func (s *Session) AdvanceFrame() (game.TickResult, error) {
	frame := s.sim.Frame()
	if _, ok := s.inputs[s.cfg.LocalPlayer][frame]; !ok {
		return game.TickResult{}, fmt.Errorf("%w: %d", ErrMissingLocalInput, frame)
	}

	if err := s.rollback(); err != nil {
		return game.TickResult{}, err
	}
	s.updateChecksums()

	for p, c := range s.confirmed {
		if p != s.cfg.LocalPlayer && frame-c > s.cfg.MaxPrediction {
			return game.TickResult{}, fmt.Errorf("%w: player %d confirmed %d, frame %d", ErrPredictionThreshold, p, c, frame)
		}
	}

	res, err := s.simulate(frame)
	if err != nil {
		return game.TickResult{}, err
	}
	s.updateChecksums()
	s.prune()
	return res, nil
}

// simulate saves the state at frame and runs its tick with the known or
// predicted inputs.
func (s *Session) simulate(frame int) (game.TickResult, error) {
	s.ring.save(frame, s.sim.Save())

	in := make([]game.InputRecord, s.cfg.NumPlayers)
	for p := range in {
		if rec, ok := s.inputs[p][frame]; ok {
			in[p] = rec
		} else {
			in[p] = game.NullInput
		}
	}
	s.used[frame] = in
	return s.sim.Advance(in)
}

func (s *Session) rollback() error {
	if s.rollbackTo < 0 {
		return nil
	}
	target := s.rollbackTo
	s.rollbackTo = -1

	snap, ok := s.ring.load(target)
	if !ok {
		return fmt.Errorf("%w: frame %d", ErrSnapshotMissing, target)
	}
	end := s.sim.Frame()
	s.sim.Load(target, snap)
	for f := target; f < end; f++ {
		if _, err := s.simulate(f); err != nil {
			return err
		}
	}
	s.rollbacks++
	return nil
}

// snapshotAt returns the state at the start of frame.
func (s *Session) snapshotAt(frame int) (game.Snapshot, bool) {
	if frame == s.sim.Frame() {
		return s.sim.State(), true
	}
	return s.ring.load(frame)
}

func (s *Session) updateChecksums() {
	limit := min(s.ConfirmedFrame()+1, s.sim.Frame())
	for f := s.lastChecksum + s.cfg.CheckDistance; f <= limit; f += s.cfg.CheckDistance {
		s.lastChecksum = f
		snap, ok := s.snapshotAt(f)
		if !ok {
			continue
		}
		sum := snap.Checksum()
		s.checksums[f] = sum
		s.outgoing = append(s.outgoing, FrameChecksum{Frame: f, Sum: sum})
	}
}

func (s *Session) prune() {
	horizon := s.sim.Frame() - s.ring.size() - 1
	for f := range s.used {
		if f < horizon {
			delete(s.used, f)
		}
	}
	for p := range s.inputs {
		for f := range s.inputs[p] {
			if f < horizon && f <= s.confirmed[p] {
				delete(s.inputs[p], f)
			}
		}
	}
	oldest := s.lastChecksum - checksumHistory*s.cfg.CheckDistance
	for f := range s.checksums {
		if f < oldest {
			delete(s.checksums, f)
		}
	}
}

// ConfirmedChecksum returns the checksum of the confirmed state at frame,
// if it was recorded and is still kept.
func (s *Session) ConfirmedChecksum(frame int) (uint64, bool) {
	sum, ok := s.checksums[frame]
	return sum, ok
}

// DrainChecksums returns the checksums confirmed since the last call, for
// sending to the other peers.
func (s *Session) DrainChecksums() []FrameChecksum {
	out := s.outgoing
	s.outgoing = nil
	return out
}

// CompareChecksum checks a remote checksum against the local one for the
// same frame. It returns ErrChecksumPending when the local frame is not
// confirmed yet and a *DesyncError on mismatch.
func (s *Session) CompareChecksum(frame int, remote uint64) error {
	local, ok := s.checksums[frame]
	if !ok {
		if frame > s.lastChecksum {
			return fmt.Errorf("%w: frame %d", ErrChecksumPending, frame)
		}
		// Too old to compare.
		return nil
	}
	if local != remote {
		return &DesyncError{Frame: frame, Local: local, Remote: remote}
	}
	return nil
}
