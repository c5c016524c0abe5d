// Package peer is the native pool client: it joins a relay room, runs the
// rollback session at a fixed tick rate and exchanges inputs and checksums
// with the other peer.
package peer

import (
	"errors"
	"log"

	"github.com/playmatatu/rollpool/internal/game"
	"github.com/playmatatu/rollpool/internal/protocol"
	"github.com/playmatatu/rollpool/internal/rollback"
)

// Controller supplies the local player's pointer and trigger each tick.
type Controller interface {
	Pointer(s game.Snapshot, local int) (game.Vec2, bool)
	Trigger(s game.Snapshot, local int) bool
}

// Driver feeds one rollback session from local input and remote packets.
// It does no I/O and is not safe for concurrent use.
type Driver struct {
	session *rollback.Session
	ctrl    Controller
	local   int

	shotPending  bool
	hud          string
	pendingSums  map[int]uint64
	reportedSync map[int]bool
}

func NewDriver(session *rollback.Session, ctrl Controller) *Driver {
	return &Driver{
		session:      session,
		ctrl:         ctrl,
		local:        session.Config().LocalPlayer,
		pendingSums:  make(map[int]uint64),
		reportedSync: make(map[int]bool),
	}
}

func (d *Driver) Session() *rollback.Session { return d.session }

func (d *Driver) Frame() int { return d.session.Frame() }

// HandlePacket applies a packet received from the relay. A checksum that
// disagrees with the local one is returned as *rollback.DesyncError.
func (d *Driver) HandlePacket(data []byte) error {
	var p protocol.Packet
	if err := p.UnmarshalBinary(data); err != nil {
		return err
	}

	switch p.Kind {
	case protocol.KindInput:
		return d.session.AddRemoteInput(int(p.Slot), int(p.Frame), p.Input)
	case protocol.KindChecksum:
		return d.compare(int(p.Frame), p.Checksum)
	}
	return nil
}

func (d *Driver) compare(frame int, sum uint64) error {
	err := d.session.CompareChecksum(frame, sum)
	if errors.Is(err, rollback.ErrChecksumPending) {
		d.pendingSums[frame] = sum
		return nil
	}
	var desync *rollback.DesyncError
	if errors.As(err, &desync) {
		if d.reportedSync[frame] {
			return nil
		}
		d.reportedSync[frame] = true
	}
	return err
}

// Tick captures local input, advances the session one frame and returns
// the packets to send. A stalled session (prediction threshold) is not an
// error; the frame is simply retried next tick.
func (d *Driver) Tick() ([]protocol.Packet, error) {
	var out []protocol.Packet

	if d.session.NeedsLocalInput() {
		in := d.capture()
		frame, err := d.session.AddLocalInput(in)
		if err != nil {
			return nil, err
		}
		out = append(out, protocol.InputPacket(d.local, frame, in))
	}

	_, err := d.session.AdvanceFrame()
	if err != nil && !errors.Is(err, rollback.ErrPredictionThreshold) {
		return out, err
	}

	state := d.session.State()
	if !state.Turn.Ready || state.Turn.ActivePlayer != d.local {
		d.shotPending = false
	}
	if hud := state.Turn.HUDText(); hud != d.hud {
		d.hud = hud
		log.Printf("[PEER] frame %d: %s", d.session.Frame(), hud)
	}

	for _, c := range d.session.DrainChecksums() {
		out = append(out, protocol.ChecksumPacket(d.local, c.Frame, c.Sum))
	}

	return out, d.retryPending()
}

// capture runs Input Capture against a copy of the predicted turn state,
// so the live snapshot is only ever changed by ticks.
func (d *Driver) capture() game.InputRecord {
	state := d.session.State()
	turn := state.Turn

	pointer, ok := d.ctrl.Pointer(state, d.local)
	aim := game.AimFromSnapshot(pointer, ok, state)
	trigger := !d.shotPending && turn.ActivePlayer == d.local && d.ctrl.Trigger(state, d.local)

	in := game.CaptureInput(game.InputContext{Trigger: trigger, Aim: aim, Turn: &turn})
	if !in.IsNull() {
		d.shotPending = true
		log.Printf("[PEER] slot %d shoots dir=(%d,%d) for frame %d",
			d.local, in.DirX, in.DirY, d.session.Frame()+d.session.Config().InputDelay)
	}
	return in
}

// retryPending compares remote checksums that arrived before the local
// frame was confirmed.
func (d *Driver) retryPending() error {
	for frame, sum := range d.pendingSums {
		err := d.session.CompareChecksum(frame, sum)
		if errors.Is(err, rollback.ErrChecksumPending) {
			continue
		}
		delete(d.pendingSums, frame)
		var desync *rollback.DesyncError
		if errors.As(err, &desync) && !d.reportedSync[frame] {
			d.reportedSync[frame] = true
			return err
		}
	}
	return nil
}
