package rollback

import "github.com/playmatatu/rollpool/internal/game"

type savedFrame struct {
	frame int
	state game.Snapshot
	valid bool
}

// snapshotRing keeps the most recent saved states, one slot per frame
// modulo its size.
type snapshotRing struct {
	slots []savedFrame
}

func newSnapshotRing(n int) *snapshotRing {
	return &snapshotRing{slots: make([]savedFrame, n)}
}

func (r *snapshotRing) size() int { return len(r.slots) }

func (r *snapshotRing) save(frame int, s game.Snapshot) {
	r.slots[frame%len(r.slots)] = savedFrame{frame: frame, state: s, valid: true}
}

func (r *snapshotRing) has(frame int) bool {
	slot := r.slots[frame%len(r.slots)]
	return slot.valid && slot.frame == frame
}

// load returns a copy of the state saved for frame.
func (r *snapshotRing) load(frame int) (game.Snapshot, bool) {
	if frame < 0 || !r.has(frame) {
		return game.Snapshot{}, false
	}
	return r.slots[frame%len(r.slots)].state.Clone(), true
}
