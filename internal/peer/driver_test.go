package peer

import (
	"errors"
	"testing"

	"github.com/playmatatu/rollpool/internal/game"
	"github.com/playmatatu/rollpool/internal/protocol"
	"github.com/playmatatu/rollpool/internal/rollback"
)

func newDriver(t *testing.T, local int) *Driver {
	t.Helper()
	s, err := rollback.NewSession(rollback.DefaultConfig(local), game.DefaultBoard(), game.DefaultRack())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return NewDriver(s, &ScriptedController{ThinkFrames: 5})
}

func deliver(t *testing.T, to *Driver, packets []protocol.Packet) {
	t.Helper()
	for _, p := range packets {
		data, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := to.HandlePacket(data); err != nil {
			t.Fatalf("frame %d: %v", to.Frame(), err)
		}
	}
}

// runLockstep ticks both drivers and exchanges their packets after every
// tick.
func runLockstep(t *testing.T, a, b *Driver, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		pa, err := a.Tick()
		if err != nil {
			t.Fatalf("a tick %d: %v", i, err)
		}
		pb, err := b.Tick()
		if err != nil {
			t.Fatalf("b tick %d: %v", i, err)
		}
		deliver(t, b, pa)
		deliver(t, a, pb)
	}
}

func TestDriversStayInSync(t *testing.T) {
	a, b := newDriver(t, 0), newDriver(t, 1)
	runLockstep(t, a, b, 300)

	if a.Frame() != 300 || b.Frame() != 300 {
		t.Fatalf("frames %d/%d", a.Frame(), b.Frame())
	}
	sa, sb := a.Session().State(), b.Session().State()
	if sa.Checksum() != sb.Checksum() {
		t.Fatalf("states differ at frame 300")
	}

	moved := false
	for i, ball := range sa.Balls {
		if !ball.Position.IsEqualTo(game.DefaultRack()[i].Position) {
			moved = true
		}
	}
	if !moved {
		t.Error("no shot was taken")
	}
	if a.Session().Rollbacks() != 0 || b.Session().Rollbacks() != 0 {
		t.Errorf("rollbacks without lag: %d/%d", a.Session().Rollbacks(), b.Session().Rollbacks())
	}
}

func TestDriverReportsDesyncOnce(t *testing.T) {
	a, b := newDriver(t, 0), newDriver(t, 1)
	runLockstep(t, a, b, 40)

	sum, ok := a.Session().ConfirmedChecksum(20)
	if !ok {
		t.Fatal("frame 20 not confirmed")
	}
	bad, _ := protocol.ChecksumPacket(1, 20, sum+1).MarshalBinary()

	var desync *rollback.DesyncError
	if err := a.HandlePacket(bad); !errors.As(err, &desync) || desync.Frame != 20 {
		t.Fatalf("got %v, want desync at frame 20", err)
	}
	if err := a.HandlePacket(bad); err != nil {
		t.Errorf("second report of the same frame: %v", err)
	}
}

func TestDriverDefersEarlyChecksum(t *testing.T) {
	a, b := newDriver(t, 0), newDriver(t, 1)
	runLockstep(t, a, b, 5)

	bad, _ := protocol.ChecksumPacket(1, 10, 12345).MarshalBinary()
	if err := a.HandlePacket(bad); err != nil {
		t.Fatalf("early checksum: %v", err)
	}

	var desync *rollback.DesyncError
	for i := 0; i < 20; i++ {
		pa, err := a.Tick()
		if errors.As(err, &desync) {
			break
		}
		if err != nil {
			t.Fatalf("tick: %v", err)
		}
		pb, _ := b.Tick()
		deliver(t, b, pa)
		deliver(t, a, pb)
	}
	if desync == nil || desync.Frame != 10 {
		t.Fatalf("pending checksum never compared: %v", desync)
	}
}

func TestDriverRejectsMalformedPacket(t *testing.T) {
	a := newDriver(t, 0)
	if err := a.HandlePacket([]byte{1, 2}); !errors.Is(err, protocol.ErrShortPacket) {
		t.Errorf("got %v", err)
	}
}

func TestScriptedControllerWaitsForTurn(t *testing.T) {
	c := &ScriptedController{ThinkFrames: 2}
	s := game.Snapshot{Balls: game.DefaultRack(), Turn: game.TurnState{Ready: true, ActivePlayer: 1}}

	if c.Trigger(s, 0) {
		t.Fatal("triggered on the other player's turn")
	}
	s.Turn.ActivePlayer = 0
	for i := 0; i < 2; i++ {
		if c.Trigger(s, 0) {
			t.Fatalf("triggered after %d ticks", i+1)
		}
	}
	if !c.Trigger(s, 0) {
		t.Error("did not trigger after thinking")
	}

	target, ok := c.Pointer(s, 0)
	if !ok || target.IsEqualTo(s.Balls[0].Position) {
		t.Errorf("pointer %v %v", target, ok)
	}
}
