package game

import "fmt"

// TurnPhase is the settle-check state.
type TurnPhase string

const (
	PhaseMoving TurnPhase = "MOVING"
	PhaseReady  TurnPhase = "READY"
)

// TurnState is rollback state alongside the balls.
type TurnState struct {
	Ready        bool `json:"ready"`
	ActivePlayer int  `json:"active_player"`
}

// NewTurnState starts in MOVING with player 0 to shoot; the first settle
// check promotes a resting table to READY.
func NewTurnState() TurnState {
	return TurnState{Ready: false, ActivePlayer: 0}
}

func (t TurnState) Phase() TurnPhase {
	if t.Ready {
		return PhaseReady
	}
	return PhaseMoving
}

// SettleCheck moves MOVING to READY once every ball's velocity is exactly
// zero. There is no timeout: stopping is owned by the physics snap.
func (t *TurnState) SettleCheck(balls []Ball) {
	if t.Ready {
		return
	}
	for i := range balls {
		if !balls[i].AtRest() {
			return
		}
	}
	t.Ready = true
}

// switchPlayer hands the turn to the other player.
func (t *TurnState) switchPlayer() {
	if t.ActivePlayer == 1 {
		t.ActivePlayer = 0
	} else {
		t.ActivePlayer = 1
	}
}

// HUDText is the status line shown to players.
func (t TurnState) HUDText() string {
	if t.Ready {
		return fmt.Sprintf("Player to move is %d", t.ActivePlayer)
	}
	return "Moving balls"
}
