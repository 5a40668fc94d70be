package marker

import (
	"testing"

	"github.com/dshills/refwalk/internal/engine/buffer"
)

func TestTransformOffsetEditBefore(t *testing.T) {
	tests := []struct {
		name     string
		offset   buffer.ByteOffset
		edit     buffer.Edit
		expected buffer.ByteOffset
	}{
		{"insert before", 10, buffer.NewInsert(5, "abc"), 13},
		{"delete before", 10, buffer.NewEdit(buffer.NewRange(2, 5), ""), 7},
		{"replace before shrinks", 10, buffer.NewEdit(buffer.NewRange(0, 4), "x"), 7},
		{"replace before grows", 10, buffer.NewEdit(buffer.NewRange(0, 2), "xxxx"), 12},
	}

	for _, tt := range tests {
		for _, g := range []Gravity{GravityLeft, GravityRight} {
			got := TransformOffset(tt.offset, tt.edit, g)
			if got != tt.expected {
				t.Errorf("%s (gravity %s): got %d, want %d", tt.name, g, got, tt.expected)
			}
		}
	}
}

func TestTransformOffsetEditAfter(t *testing.T) {
	tests := []struct {
		name   string
		offset buffer.ByteOffset
		edit   buffer.Edit
	}{
		{"insert after", 5, buffer.NewInsert(10, "abc")},
		{"delete after", 5, buffer.NewEdit(buffer.NewRange(7, 9), "")},
		{"replace starting at offset", 5, buffer.NewEdit(buffer.NewRange(5, 8), "xy")},
	}

	for _, tt := range tests {
		for _, g := range []Gravity{GravityLeft, GravityRight} {
			got := TransformOffset(tt.offset, tt.edit, g)
			if got != tt.offset {
				t.Errorf("%s (gravity %s): got %d, want unchanged %d", tt.name, g, got, tt.offset)
			}
		}
	}
}

func TestTransformOffsetInsertionAtMarker(t *testing.T) {
	edit := buffer.NewInsert(5, "abc")

	if got := TransformOffset(5, edit, GravityLeft); got != 5 {
		t.Errorf("left gravity should stay at 5, got %d", got)
	}

	if got := TransformOffset(5, edit, GravityRight); got != 8 {
		t.Errorf("right gravity should move to 8, got %d", got)
	}
}

func TestTransformOffsetEditSpanning(t *testing.T) {
	// Marker inside the replaced span collapses to the end of the new text
	edit := buffer.NewEdit(buffer.NewRange(3, 9), "xy")

	for _, g := range []Gravity{GravityLeft, GravityRight} {
		if got := TransformOffset(6, edit, g); got != 5 {
			t.Errorf("gravity %s: got %d, want 5", g, got)
		}
	}

	// Marker at the span end shifts with the delta
	if got := TransformOffset(9, edit, GravityLeft); got != 5 {
		t.Errorf("marker at span end: got %d, want 5", got)
	}
}

func TestSetApply(t *testing.T) {
	s := NewSet()
	a := s.Create(2, GravityLeft)
	b := s.Create(10, GravityRight)

	s.Apply(buffer.NewInsert(5, "abc"))

	if a.Offset() != 2 {
		t.Errorf("marker before insert should stay at 2, got %d", a.Offset())
	}
	if b.Offset() != 13 {
		t.Errorf("marker after insert should shift to 13, got %d", b.Offset())
	}
}

func TestSetRelease(t *testing.T) {
	s := NewSet()
	m := s.Create(5, GravityLeft)

	if s.Len() != 1 {
		t.Fatalf("expected 1 marker, got %d", s.Len())
	}

	m.Release()

	if !m.Released() {
		t.Error("marker should report released")
	}
	if s.Len() != 0 {
		t.Errorf("expected 0 markers after release, got %d", s.Len())
	}

	// Released markers stop tracking
	s.Apply(buffer.NewInsert(0, "abc"))
	if m.Offset() != 5 {
		t.Errorf("released marker should keep offset 5, got %d", m.Offset())
	}

	// Idempotent
	m.Release()
}

func TestMarkerMoveTo(t *testing.T) {
	s := NewSet()
	m := s.Create(5, GravityRight)

	m.MoveTo(20)
	if m.Offset() != 20 {
		t.Errorf("expected 20 after move, got %d", m.Offset())
	}

	s.Apply(buffer.NewInsert(0, "ab"))
	if m.Offset() != 22 {
		t.Errorf("moved marker should keep tracking, got %d", m.Offset())
	}
}

func TestSpanRegionExcludesBoundaryInserts(t *testing.T) {
	s := NewSet()
	r := s.CreateRegion(buffer.NewRange(5, 10))

	// Insert at the start: span text moves right, region follows it
	s.Apply(buffer.NewInsert(5, "ab"))
	if got := r.Range(); got != buffer.NewRange(7, 12) {
		t.Errorf("after insert at start: got %v, want [7:12)", got)
	}

	// Insert at the end: stays outside
	s.Apply(buffer.NewInsert(12, "cd"))
	if got := r.Range(); got != buffer.NewRange(7, 12) {
		t.Errorf("after insert at end: got %v, want [7:12)", got)
	}

	r.Release()
	if s.Len() != 0 {
		t.Errorf("expected 0 markers after release, got %d", s.Len())
	}
}

func TestInsertionRegionAbsorbsText(t *testing.T) {
	s := NewSet()
	r := s.CreateInsertionRegion(5)

	if !r.IsEmpty() {
		t.Fatal("fresh insertion region should be empty")
	}

	s.Apply(buffer.NewInsert(5, "hello"))
	if got := r.Range(); got != buffer.NewRange(5, 10) {
		t.Errorf("after insert: got %v, want [5:10)", got)
	}

	// Replacing the tracked content keeps the region on the new text
	s.Apply(buffer.NewEdit(buffer.NewRange(5, 10), "hi"))
	if got := r.Range(); got != buffer.NewRange(5, 7) {
		t.Errorf("after replace: got %v, want [5:7)", got)
	}
}

func TestRegionSurvivesRollback(t *testing.T) {
	s := NewSet()
	r := s.CreateRegion(buffer.NewRange(20, 25))

	edit := buffer.NewInsert(3, "xxxx")
	s.Apply(edit)
	if got := r.Range(); got != buffer.NewRange(24, 29) {
		t.Fatalf("after edit: got %v, want [24:29)", got)
	}

	// Applying the inverse restores the original span
	inverse := buffer.Change{
		Type:     buffer.ChangeInsert,
		Range:    edit.Range,
		NewRange: buffer.NewRange(3, 7),
		NewText:  "xxxx",
	}.Invert()
	s.Apply(inverse.ToEdit())

	if got := r.Range(); got != buffer.NewRange(20, 25) {
		t.Errorf("after rollback: got %v, want [20:25)", got)
	}
}

func TestTransformRange(t *testing.T) {
	r := buffer.NewRange(5, 10)
	edit := buffer.NewInsert(2, "ab")

	got := TransformRange(r, edit, GravityRight, GravityLeft)
	if got != buffer.NewRange(7, 12) {
		t.Errorf("got %v, want [7:12)", got)
	}
}
