// Package marker provides positions that survive buffer edits.
//
// A Marker is a byte offset owned by a Set. Every edit applied to the
// owning document is replayed through the set, which transforms each
// live marker so it keeps pointing at the same logical position. Gravity
// decides which way a marker leans when text is inserted exactly at it.
//
// Regions pair two markers to track a span. Span regions exclude text
// inserted at their boundaries; insertion regions absorb it, which is
// what a freshly typed identifier needs.
package marker

import (
	"sync"

	"github.com/dshills/refwalk/internal/engine/buffer"
)

// Gravity determines marker behavior for insertions exactly at the marker.
type Gravity uint8

const (
	// GravityLeft keeps the marker before text inserted at its position.
	GravityLeft Gravity = iota
	// GravityRight moves the marker past text inserted at its position.
	GravityRight
)

// String returns a string representation of the gravity.
func (g Gravity) String() string {
	if g == GravityRight {
		return "right"
	}
	return "left"
}

// Marker is a buffer position that tracks edits.
// Markers are created through a Set and stay valid until released.
type Marker struct {
	set      *Set
	offset   buffer.ByteOffset
	gravity  Gravity
	released bool
}

// Offset returns the marker's current byte offset.
func (m *Marker) Offset() buffer.ByteOffset {
	m.set.mu.Lock()
	defer m.set.mu.Unlock()
	return m.offset
}

// Gravity returns the marker's gravity.
func (m *Marker) Gravity() Gravity {
	return m.gravity
}

// MoveTo repositions the marker to a new offset.
func (m *Marker) MoveTo(offset buffer.ByteOffset) {
	m.set.mu.Lock()
	defer m.set.mu.Unlock()
	m.offset = offset
}

// Released returns true if the marker has been released.
func (m *Marker) Released() bool {
	m.set.mu.Lock()
	defer m.set.mu.Unlock()
	return m.released
}

// Release removes the marker from its set.
// A released marker no longer tracks edits; Release is idempotent.
func (m *Marker) Release() {
	m.set.mu.Lock()
	defer m.set.mu.Unlock()
	if m.released {
		return
	}
	m.released = true
	delete(m.set.markers, m)
}

// Set owns a collection of markers for one document.
// All methods are thread-safe.
type Set struct {
	mu      sync.Mutex
	markers map[*Marker]struct{}
}

// NewSet creates an empty marker set.
func NewSet() *Set {
	return &Set{markers: make(map[*Marker]struct{})}
}

// Create adds a new marker at the given offset.
func (s *Set) Create(offset buffer.ByteOffset, gravity Gravity) *Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &Marker{set: s, offset: offset, gravity: gravity}
	s.markers[m] = struct{}{}
	return m
}

// Apply transforms every live marker for an edit.
// The edit must be in pre-edit coordinates, applied once, in order.
func (s *Set) Apply(edit buffer.Edit) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for m := range s.markers {
		m.offset = TransformOffset(m.offset, edit, m.gravity)
	}
}

// Len returns the number of live markers.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}
