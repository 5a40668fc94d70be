package texdoc

import (
	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/engine/marker"
)

// PushPosition records a position on the history stack. The entry is
// marker-backed, so it stays valid while the document is edited.
func (d *Document) PushPosition(off buffer.ByteOffset) {
	root := d.root()
	m := root.markers.Create(off, marker.GravityLeft)

	root.mu.Lock()
	root.history = append(root.history, m)
	root.mu.Unlock()
}

// PopPosition removes and returns the most recent history entry.
// Returns false if the stack is empty.
func (d *Document) PopPosition() (buffer.ByteOffset, bool) {
	root := d.root()
	root.mu.Lock()
	n := len(root.history)
	if n == 0 {
		root.mu.Unlock()
		return 0, false
	}
	m := root.history[n-1]
	root.history = root.history[:n-1]
	root.mu.Unlock()

	off := m.Offset()
	m.Release()
	return off, true
}

// PositionHistoryLen returns the history stack depth.
func (d *Document) PositionHistoryLen() int {
	root := d.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return len(root.history)
}
