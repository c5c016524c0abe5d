package rollback

import (
	"errors"
	"testing"

	"github.com/playmatatu/rollpool/internal/game"
)

const matchFrames = 120

// matchInputs is the confirmed input table of a short match, indexed by
// frame then player. Frames before the input delay are null.
func matchInputs() [][]game.InputRecord {
	in := make([][]game.InputRecord, matchFrames)
	for f := range in {
		in[f] = []game.InputRecord{game.NullInput, game.NullInput}
	}
	in[3][0] = game.InputRecord{DirX: 127, DirY: 2, Power: game.ShotPower}
	in[5][1] = game.InputRecord{DirX: -50, DirY: 50, Power: game.ShotPower} // out of turn, ignored
	in[40][1] = game.InputRecord{DirX: -100, DirY: 78, Power: game.ShotPower}
	in[70][0] = game.InputRecord{DirX: 0, DirY: -127, Power: game.ShotPower}
	in[90][1] = game.InputRecord{DirX: 127, DirY: 0, Power: game.ShotPower}
	return in
}

func linear(t *testing.T, frames int) game.Snapshot {
	t.Helper()
	s, err := game.NewTable(game.DefaultBoard(), game.DefaultRack())
	if err != nil {
		t.Fatal(err)
	}
	table := matchInputs()
	for f := 0; f < frames; f++ {
		s = game.Tick(s, table[f], game.DefaultBoard())
	}
	return s
}

func newTestSession(t *testing.T, local int) *Session {
	t.Helper()
	s, err := NewSession(DefaultConfig(local), game.DefaultBoard(), game.DefaultRack())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

type packet struct {
	deliverAt int
	frame     int
	input     game.InputRecord
}

// runPair drives two sessions tick by tick. Inputs sent by player p reach
// the other peer lag[p] ticks later.
func runPair(t *testing.T, lag [2]int) [2]*Session {
	t.Helper()
	table := matchInputs()
	sessions := [2]*Session{newTestSession(t, 0), newTestSession(t, 1)}
	var inflight [2][]packet

	for tick := 0; tick < matchFrames; tick++ {
		for p, s := range sessions {
			other := 1 - p

			queue := inflight[other][:0]
			for _, pk := range inflight[other] {
				if pk.deliverAt > tick {
					queue = append(queue, pk)
					continue
				}
				if err := s.AddRemoteInput(other, pk.frame, pk.input); err != nil {
					t.Fatalf("tick %d player %d: AddRemoteInput: %v", tick, p, err)
				}
			}
			inflight[other] = queue

			if s.NeedsLocalInput() {
				frame := s.Frame() + s.Config().InputDelay
				rec := game.NullInput
				if frame < matchFrames {
					rec = table[frame][p]
				}
				if _, err := s.AddLocalInput(rec); err != nil {
					t.Fatal(err)
				}
				inflight[p] = append(inflight[p], packet{deliverAt: tick + lag[p], frame: frame, input: rec})
			}

			if _, err := s.AdvanceFrame(); err != nil {
				t.Fatalf("tick %d player %d: AdvanceFrame: %v", tick, p, err)
			}
		}
	}
	return sessions
}

func TestLateRemoteInputsMatchLinearRun(t *testing.T) {
	sessions := runPair(t, [2]int{5, 4})
	want := linear(t, matchFrames).Checksum()

	for p, s := range sessions {
		if s.Frame() != matchFrames {
			t.Fatalf("player %d at frame %d", p, s.Frame())
		}
		if got := s.State().Checksum(); got != want {
			t.Errorf("player %d: checksum %x, want %x", p, got, want)
		}
		if s.Rollbacks() == 0 {
			t.Errorf("player %d never rolled back", p)
		}
	}
}

func TestNoRollbackWithinInputDelay(t *testing.T) {
	sessions := runPair(t, [2]int{1, 2})
	for p, s := range sessions {
		if s.Rollbacks() != 0 {
			t.Errorf("player %d rolled back %d times", p, s.Rollbacks())
		}
	}
	if sessions[0].State().Checksum() != sessions[1].State().Checksum() {
		t.Error("peers diverged")
	}
}

func TestConfirmedChecksumsAgree(t *testing.T) {
	sessions := runPair(t, [2]int{6, 3})

	a := sessions[0].DrainChecksums()
	b := sessions[1].DrainChecksums()
	if len(a) == 0 || len(b) == 0 {
		t.Fatal("no checksums confirmed")
	}
	for _, c := range a {
		if err := sessions[1].CompareChecksum(c.Frame, c.Sum); err != nil {
			t.Errorf("frame %d: %v", c.Frame, err)
		}
		if c.Frame%DefaultConfig(0).CheckDistance != 0 {
			t.Errorf("checksum for off-interval frame %d", c.Frame)
		}
	}
	if len(sessions[0].DrainChecksums()) != 0 {
		t.Error("drain should empty the queue")
	}
}

func TestCompareChecksumDetectsDesync(t *testing.T) {
	s := runPair(t, [2]int{2, 2})[0]
	sum, ok := s.ConfirmedChecksum(50)
	if !ok {
		t.Fatal("frame 50 not confirmed")
	}

	err := s.CompareChecksum(50, sum^1)
	var desync *DesyncError
	if !errors.As(err, &desync) {
		t.Fatalf("expected DesyncError, got %v", err)
	}
	if desync.Frame != 50 || desync.Local != sum {
		t.Errorf("unexpected error %+v", desync)
	}

	if err := s.CompareChecksum(s.Frame()+100, 0); !errors.Is(err, ErrChecksumPending) {
		t.Errorf("expected ErrChecksumPending, got %v", err)
	}
}

func TestPredictionThresholdStalls(t *testing.T) {
	s := newTestSession(t, 0)
	maxPred := s.Config().MaxPrediction
	delay := s.Config().InputDelay

	// Remote confirmed through delay-1, so frames up to delay-1+maxPred may be
	// predicted.
	for i := 0; i < delay+maxPred; i++ {
		s.AddLocalInput(game.NullInput)
		if _, err := s.AdvanceFrame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	if s.NeedsLocalInput() {
		s.AddLocalInput(game.NullInput)
	}
	if _, err := s.AdvanceFrame(); !errors.Is(err, ErrPredictionThreshold) {
		t.Fatalf("expected ErrPredictionThreshold, got %v", err)
	}
	frame := s.Frame()

	if err := s.AddRemoteInput(1, delay, game.NullInput); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AdvanceFrame(); err != nil {
		t.Fatalf("still stalled: %v", err)
	}
	if s.Frame() != frame+1 {
		t.Errorf("frame = %d, want %d", s.Frame(), frame+1)
	}
}

func TestLocalInputBookkeeping(t *testing.T) {
	s := newTestSession(t, 1)

	if _, err := s.AdvanceFrame(); err != nil {
		t.Fatalf("frames inside the delay are pre-filled: %v", err)
	}
	frame, err := s.AddLocalInput(game.NullInput)
	if err != nil || frame != 1+s.Config().InputDelay {
		t.Fatalf("AddLocalInput = %d, %v", frame, err)
	}
	if _, err := s.AddLocalInput(game.NullInput); !errors.Is(err, ErrInputAlreadySet) {
		t.Errorf("expected ErrInputAlreadySet, got %v", err)
	}

	s.AdvanceFrame()
	if _, err := s.AdvanceFrame(); !errors.Is(err, ErrMissingLocalInput) {
		t.Errorf("expected ErrMissingLocalInput, got %v", err)
	}
}

func TestAddRemoteInputValidation(t *testing.T) {
	s := newTestSession(t, 0)
	shot := game.InputRecord{DirX: 1, Power: game.ShotPower}

	if err := s.AddRemoteInput(0, 3, shot); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("local slot accepted as remote: %v", err)
	}
	if err := s.AddRemoteInput(2, 3, shot); !errors.Is(err, ErrInvalidPlayer) {
		t.Errorf("out of range slot accepted: %v", err)
	}
	if err := s.AddRemoteInput(1, 10_000, shot); !errors.Is(err, ErrInputTooNew) {
		t.Errorf("far future frame accepted: %v", err)
	}
	if err := s.AddRemoteInput(1, 0, shot); !errors.Is(err, ErrInputConflict) {
		t.Errorf("pre-filled frame overwritten: %v", err)
	}
	if err := s.AddRemoteInput(1, 3, shot); err != nil {
		t.Fatal(err)
	}
	if err := s.AddRemoteInput(1, 3, shot); err != nil {
		t.Errorf("duplicate delivery rejected: %v", err)
	}
}

func TestNewSessionValidatesConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"players":    func(c *Config) { c.NumPlayers = 3 },
		"local":      func(c *Config) { c.LocalPlayer = 2 },
		"delay":      func(c *Config) { c.InputDelay = -1 },
		"prediction": func(c *Config) { c.MaxPrediction = 0 },
		"distance":   func(c *Config) { c.CheckDistance = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig(0)
		mutate(&cfg)
		if _, err := NewSession(cfg, game.DefaultBoard(), game.DefaultRack()); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}

	if _, err := NewSession(DefaultConfig(0), game.DefaultBoard(), nil); !errors.Is(err, game.ErrNoBalls) {
		t.Errorf("expected ErrNoBalls, got %v", err)
	}
}
