package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()

	if !b.IsEmpty() {
		t.Error("new buffer should be empty")
	}
	if b.Len() != 0 {
		t.Errorf("Len = %d, want 0", b.Len())
	}
	// An empty buffer still has one (empty) line.
	if b.LineCount() != 1 {
		t.Errorf("LineCount = %d, want 1", b.LineCount())
	}
}

func TestNewBufferFromString(t *testing.T) {
	b := NewBufferFromString("line1\nline2\nline3")

	if got := b.Len(); got != 17 {
		t.Errorf("Len = %d, want 17", got)
	}
	if got := b.LineCount(); got != 3 {
		t.Errorf("LineCount = %d, want 3", got)
	}
	for i, want := range []string{"line1", "line2", "line3"} {
		if got := b.LineText(uint32(i)); got != want {
			t.Errorf("LineText(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestNewBufferFromReader(t *testing.T) {
	b, err := NewBufferFromReader(strings.NewReader("alpha\nbeta"))
	if err != nil {
		t.Fatalf("reader failed: %v", err)
	}
	if got := b.Text(); got != "alpha\nbeta" {
		t.Errorf("Text = %q", got)
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		offset  ByteOffset
		text    string
		wantEnd ByteOffset
		want    string
	}{
		{"middle", "Hello World", 5, ",", 6, "Hello, World"},
		{"start", "World", 0, "Hello ", 6, "Hello World"},
		{"end", "Hello", 5, " World", 11, "Hello World"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferFromString(tt.initial)
			end, err := b.Insert(tt.offset, tt.text)
			if err != nil {
				t.Fatalf("insert failed: %v", err)
			}
			if end != tt.wantEnd {
				t.Errorf("end = %d, want %d", end, tt.wantEnd)
			}
			if got := b.Text(); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsertOutOfRange(t *testing.T) {
	b := NewBufferFromString("Hello")

	for _, off := range []ByteOffset{100, -1} {
		if _, err := b.Insert(off, "X"); !errors.Is(err, ErrOffsetOutOfRange) {
			t.Errorf("Insert(%d): err = %v, want ErrOffsetOutOfRange", off, err)
		}
	}
}

func TestDelete(t *testing.T) {
	b := NewBufferFromString("Hello, World!")

	if err := b.Delete(5, 7); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := b.Text(); got != "HelloWorld!" {
		t.Errorf("text = %q", got)
	}
}

func TestDeleteInvalidRange(t *testing.T) {
	b := NewBufferFromString("Hello")

	tests := []struct{ start, end ByteOffset }{
		{3, 2},
		{0, 100},
	}
	for _, tt := range tests {
		if err := b.Delete(tt.start, tt.end); !errors.Is(err, ErrRangeInvalid) {
			t.Errorf("Delete(%d, %d): err = %v, want ErrRangeInvalid", tt.start, tt.end, err)
		}
	}
}

func TestReplace(t *testing.T) {
	b := NewBufferFromString("Hello World")

	end, err := b.Replace(6, 11, "Go")
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if end != 8 {
		t.Errorf("end = %d, want 8", end)
	}
	if got := b.Text(); got != "Hello Go" {
		t.Errorf("text = %q", got)
	}
}

func TestApplyEditResult(t *testing.T) {
	b := NewBufferFromString("Hello World")

	res, err := b.ApplyEdit(NewEdit(NewRange(0, 5), "Hi"))
	if err != nil {
		t.Fatalf("apply edit failed: %v", err)
	}
	if got := b.Text(); got != "Hi World" {
		t.Errorf("text = %q", got)
	}

	want := EditResult{
		OldRange: NewRange(0, 5),
		NewRange: NewRange(0, 2),
		OldText:  "Hello",
		NewText:  "Hi",
		Delta:    -3,
	}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
}

func TestLineIndexTracksEdits(t *testing.T) {
	b := NewBufferFromString("abc\ndef")

	// Splitting a line grows the index.
	if _, err := b.Insert(1, "X\nY"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if got := b.Text(); got != "aX\nYbc\ndef" {
		t.Fatalf("text = %q", got)
	}
	if got := b.LineCount(); got != 3 {
		t.Errorf("LineCount = %d, want 3", got)
	}
	if got := b.LineText(1); got != "Ybc" {
		t.Errorf("LineText(1) = %q, want Ybc", got)
	}

	// Deleting the newline merges lines again.
	if err := b.Delete(2, 3); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := b.LineCount(); got != 2 {
		t.Errorf("LineCount = %d, want 2", got)
	}
	if got := b.LineText(0); got != "aXYbc" {
		t.Errorf("LineText(0) = %q, want aXYbc", got)
	}
}

func TestLineOffsets(t *testing.T) {
	b := NewBufferFromString("abc\ndefgh\nij")

	tests := []struct {
		line       uint32
		start, end ByteOffset
	}{
		{0, 0, 3},
		{1, 4, 9},
		{2, 10, 12},
	}
	for _, tt := range tests {
		if got := b.LineStartOffset(tt.line); got != tt.start {
			t.Errorf("LineStartOffset(%d) = %d, want %d", tt.line, got, tt.start)
		}
		if got := b.LineEndOffset(tt.line); got != tt.end {
			t.Errorf("LineEndOffset(%d) = %d, want %d", tt.line, got, tt.end)
		}
	}
}

func TestOffsetPointRoundTrip(t *testing.T) {
	b := NewBufferFromString("abc\ndefgh\nij")

	tests := []struct {
		offset ByteOffset
		point  Point
	}{
		{0, Point{Line: 0, Column: 0}},
		{2, Point{Line: 0, Column: 2}},
		{3, Point{Line: 0, Column: 3}},
		{4, Point{Line: 1, Column: 0}},
		{7, Point{Line: 1, Column: 3}},
		{10, Point{Line: 2, Column: 0}},
	}
	for _, tt := range tests {
		if got := b.OffsetToPoint(tt.offset); got != tt.point {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.point)
		}
		if got := b.PointToOffset(tt.point); got != tt.offset {
			t.Errorf("PointToOffset(%v) = %d, want %d", tt.point, got, tt.offset)
		}
	}
}

func TestRuneAt(t *testing.T) {
	b := NewBufferFromString("aéb")

	if r, size := b.RuneAt(0); r != 'a' || size != 1 {
		t.Errorf("RuneAt(0) = (%q, %d), want (a, 1)", r, size)
	}
	if r, size := b.RuneAt(1); r != 'é' || size != 2 {
		t.Errorf("RuneAt(1) = (%q, %d), want (é, 2)", r, size)
	}
	if _, size := b.RuneAt(100); size != 0 {
		t.Errorf("RuneAt out of range: size = %d, want 0", size)
	}
}

func TestLineEndingNormalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"crlf", "line1\r\nline2\r\n"},
		{"bare cr", "line1\rline2\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBufferFromString(tt.input)
			if got := b.Text(); got != "line1\nline2\n" {
				t.Errorf("text = %q, want normalized LF", got)
			}
		})
	}
}

func TestCRLFBuffer(t *testing.T) {
	b := NewBufferFromString("line1\nline2", WithCRLF())

	if got := b.Text(); got != "line1\r\nline2" {
		t.Fatalf("text = %q, want CRLF endings", got)
	}

	if _, err := b.Insert(b.Len(), "\nline3"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if got := b.Text(); got != "line1\r\nline2\r\nline3" {
		t.Errorf("text after insert = %q", got)
	}
	// Line text never includes the \r.
	if got := b.LineText(1); got != "line2" {
		t.Errorf("LineText(1) = %q, want line2", got)
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text string
		want LineEnding
	}{
		{"no newlines", LineEndingLF},
		{"unix\nstyle\n", LineEndingLF},
		{"windows\r\nstyle\r\n", LineEndingCRLF},
		{"old mac\rstyle\r", LineEndingLF},
		{"mixed\r\nmore\r\nlines\n", LineEndingCRLF},
	}
	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.want {
			t.Errorf("DetectLineEnding(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestRevisionIDChangesOnEveryEdit(t *testing.T) {
	b := NewBufferFromString("Hello")

	rev := b.RevisionID()
	if _, err := b.Insert(5, "!"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	rev2 := b.RevisionID()
	if rev == rev2 {
		t.Error("revision unchanged after insert")
	}

	if err := b.Delete(0, 1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if b.RevisionID() == rev2 {
		t.Error("revision unchanged after delete")
	}
}

func TestConcurrentReadWrite(t *testing.T) {
	b := NewBufferFromString("Hello")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, _ = b.Insert(0, "X")
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = b.Text()
				_ = b.LineCount()
			}
		}()
	}
	wg.Wait()

	if got := strings.Count(b.Text(), "X"); got != 100 {
		t.Errorf("found %d X's, want 100", got)
	}
}

func TestPointOrdering(t *testing.T) {
	p1 := Point{Line: 1, Column: 5}
	p2 := Point{Line: 1, Column: 10}
	p3 := Point{Line: 2, Column: 0}

	if !p1.Before(p2) || !p2.Before(p3) {
		t.Error("points should order by line then column")
	}
	if p2.Before(p1) {
		t.Error("p2 is not before p1")
	}
	if p1.Compare(p1) != 0 {
		t.Error("point should compare equal to itself")
	}
}

func TestRangeOperations(t *testing.T) {
	r1 := NewRange(0, 10)
	r2 := NewRange(5, 15)
	r3 := NewRange(20, 30)

	if !r1.Overlaps(r2) {
		t.Error("r1 should overlap r2")
	}
	if r1.Overlaps(r3) {
		t.Error("r1 should not overlap r3")
	}
	if !r1.Contains(5) {
		t.Error("r1 should contain 5")
	}
	if r1.Contains(10) {
		t.Error("end is exclusive")
	}
	if got := r1.Intersect(r2); got != NewRange(5, 10) {
		t.Errorf("Intersect = %v, want [5:10)", got)
	}
	if got := r1.Union(r2); got != NewRange(0, 15) {
		t.Errorf("Union = %v, want [0:15)", got)
	}
}

func TestChangeInvert(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		want   Change
	}{
		{
			"insert becomes delete",
			Change{Type: ChangeInsert, Range: NewRange(5, 5), NewRange: NewRange(5, 10), NewText: "Hello"},
			Change{Type: ChangeDelete, Range: NewRange(5, 10), OldText: "Hello"},
		},
		{
			"delete becomes insert",
			Change{Type: ChangeDelete, Range: NewRange(0, 5), OldText: "Hello"},
			Change{Type: ChangeInsert, Range: NewRange(0, 0), NewRange: NewRange(0, 5), NewText: "Hello"},
		},
		{
			"replace swaps texts",
			Change{Type: ChangeReplace, Range: NewRange(4, 7), NewRange: NewRange(4, 5), OldText: "two", NewText: "2"},
			Change{Type: ChangeReplace, Range: NewRange(4, 5), NewRange: NewRange(4, 7), OldText: "2", NewText: "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Invert(); got != tt.want {
				t.Errorf("Invert = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Applying a change's inverse must restore the exact prior text. This
// is the contract transaction rollback is built on.
func TestChangeInvertRestoresText(t *testing.T) {
	edits := []Edit{
		NewInsert(4, "little "),
		NewEdit(NewRange(4, 7), "2"),
		NewEdit(NewRange(0, 4), ""),
	}

	for _, edit := range edits {
		b := NewBufferFromString("one two three")

		res, err := b.ApplyEdit(edit)
		if err != nil {
			t.Fatalf("apply %v failed: %v", edit, err)
		}

		typ := ChangeReplace
		switch {
		case res.OldText == "":
			typ = ChangeInsert
		case res.NewText == "":
			typ = ChangeDelete
		}
		change := Change{
			Type:     typ,
			Range:    res.OldRange,
			NewRange: res.NewRange,
			OldText:  res.OldText,
			NewText:  res.NewText,
		}

		if _, err := b.ApplyEdit(change.Invert().ToEdit()); err != nil {
			t.Fatalf("apply inverse of %v failed: %v", edit, err)
		}
		if got := b.Text(); got != "one two three" {
			t.Errorf("after %v and inverse: text = %q, want original", edit, got)
		}
	}
}
