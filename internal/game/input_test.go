package game

import (
	"bytes"
	"testing"
)

func TestEncodeDirectionRounding(t *testing.T) {
	cases := []struct {
		name  string
		dir   Vec2
		wantX int8
		wantY int8
	}{
		{"3-4-5 triangle", NewVec2(0.6, 0.8), 76, 102},
		{"negated", NewVec2(-0.6, -0.8), -76, -102},
		{"unit x", NewVec2(1, 0), 127, 0},
		{"unit -y", NewVec2(0, -1), 0, -127},
		{"half rounds away from zero", NewVec2(0.5, -0.5), 64, -64},
		{"overshoot clamps", NewVec2(1.2, -1.2), 127, -127},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := EncodeDirection(tc.dir)
			if rec.DirX != tc.wantX || rec.DirY != tc.wantY {
				t.Errorf("EncodeDirection(%+v) = (%d, %d), want (%d, %d)", tc.dir, rec.DirX, rec.DirY, tc.wantX, tc.wantY)
			}
			if rec.Power != ShotPower {
				t.Errorf("power = %d, want %d", rec.Power, ShotPower)
			}
		})
	}
}

func TestInputRecordWireFormat(t *testing.T) {
	rec := InputRecord{DirX: -76, DirY: 102, Power: 5}

	data, err := rec.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := []byte{0xB4, 0x66, 0x05}
	if !bytes.Equal(data, want) {
		t.Fatalf("wire bytes = % x, want % x", data, want)
	}

	var back InputRecord
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != rec {
		t.Errorf("decoded %+v, want %+v", back, rec)
	}
	again, _ := back.MarshalBinary()
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoded bytes differ: % x vs % x", again, data)
	}
}

func TestInputRecordRejectsWrongLength(t *testing.T) {
	var rec InputRecord
	for _, b := range [][]byte{nil, {1, 2}, {1, 2, 3, 4}} {
		if err := rec.UnmarshalBinary(b); err == nil {
			t.Errorf("expected error for %d bytes", len(b))
		}
	}
}

func TestInputRecordVelocity(t *testing.T) {
	rec := InputRecord{DirX: 127, DirY: 0, Power: 5}
	if v := rec.Velocity(); v.X != 5 || v.Y != 0 {
		t.Errorf("velocity = %+v, want (5, 0)", v)
	}
	if v := NullInput.Velocity(); !v.IsZero() {
		t.Errorf("null record velocity = %+v", v)
	}
}

func TestCaptureInputNullCases(t *testing.T) {
	aim := AimDirection{Dir: NewVec2(0.6, 0.8), Valid: true}

	cases := []struct {
		name string
		ctx  func(*TurnState) InputContext
	}{
		{"trigger not pressed", func(ts *TurnState) InputContext {
			return InputContext{Trigger: false, Aim: aim, Turn: ts}
		}},
		{"no aim", func(ts *TurnState) InputContext {
			return InputContext{Trigger: true, Aim: AimDirection{}, Turn: ts}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := &TurnState{Ready: true}
			rec := CaptureInput(tc.ctx(ts))
			if rec != NullInput {
				t.Errorf("expected null record, got %+v", rec)
			}
			if !ts.Ready {
				t.Error("null record must not flip ready")
			}
		})
	}

	t.Run("table moving", func(t *testing.T) {
		ts := &TurnState{Ready: false}
		if rec := CaptureInput(InputContext{Trigger: true, Aim: aim, Turn: ts}); rec != NullInput {
			t.Errorf("expected null record while moving, got %+v", rec)
		}
	})
}

func TestCaptureInputFlipsReady(t *testing.T) {
	ts := &TurnState{Ready: true}
	rec := CaptureInput(InputContext{
		Trigger: true,
		Aim:     AimDirection{Dir: NewVec2(0.6, 0.8), Valid: true},
		Turn:    ts,
	})

	if rec != (InputRecord{DirX: 76, DirY: 102, Power: ShotPower}) {
		t.Errorf("unexpected record %+v", rec)
	}
	if ts.Ready {
		t.Error("ready should be false after producing a shot")
	}
	if ts.Phase() != PhaseMoving {
		t.Errorf("phase = %s, want %s", ts.Phase(), PhaseMoving)
	}
}

func TestCaptureInputIsDeterministic(t *testing.T) {
	aim := ComputeAim(NewVec2(17.25, -3.5), true, NewVec2(-1, 2))
	first := CaptureInput(InputContext{Trigger: true, Aim: aim, Turn: &TurnState{Ready: true}})
	for i := 0; i < 50; i++ {
		again := CaptureInput(InputContext{Trigger: true, Aim: aim, Turn: &TurnState{Ready: true}})
		if again != first {
			t.Fatalf("run %d produced %+v, first produced %+v", i, again, first)
		}
	}
}
