package scan

import (
	"strings"
	"testing"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/texdoc"
)

func TestFindNextForwardNearest(t *testing.T) {
	// Labels a, point, b, c: forward finds b then c then nothing
	text := `\label{a} text POINT more \label{b} and \label{c} end`
	doc := texdoc.NewFromString(text)
	origin := buffer.ByteOffset(strings.Index(text, "POINT"))

	s := New(doc)

	a, err := s.FindNext(origin, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "b" {
		t.Fatalf("expected b, got %+v", a)
	}
	if got := doc.TextRange(a.Span); got != "b" {
		t.Errorf("span should cover the identifier, got %q", got)
	}
	if got := doc.TextRange(a.Construct); got != `\label{b}` {
		t.Errorf("construct should cover the declaration, got %q", got)
	}

	a, err = s.FindNext(a.Construct.End, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "c" {
		t.Fatalf("expected c, got %+v", a)
	}

	a, err = s.FindNext(a.Construct.End, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a != nil {
		t.Errorf("expected no candidate past c, got %+v", a)
	}
}

func TestFindNextBackwardNearest(t *testing.T) {
	text := `\label{a} then \label{b} then POINT`
	doc := texdoc.NewFromString(text)
	origin := buffer.ByteOffset(strings.Index(text, "POINT"))

	s := New(doc)

	a, err := s.FindNext(origin, Backward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "b" {
		t.Fatalf("expected b, got %+v", a)
	}

	a, err = s.FindNext(a.Construct.Start, Backward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "a" {
		t.Fatalf("expected a, got %+v", a)
	}

	a, err = s.FindNext(a.Construct.Start, Backward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a != nil {
		t.Errorf("expected no candidate before a, got %+v", a)
	}
}

func TestFindNextSkipsComments(t *testing.T) {
	text := "start\n% \\label{commented}\n\\label{real}\n"
	doc := texdoc.NewFromString(text)

	s := New(doc)

	a, err := s.FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "real" {
		t.Fatalf("expected real, got %+v", a)
	}

	// Backward from the end skips it too
	a, err = s.FindNext(buffer.ByteOffset(strings.Index(text, "% ")), Backward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a != nil {
		t.Errorf("expected nothing before the comment, got %+v", a)
	}
}

func TestFindNextSkipsBlankArguments(t *testing.T) {
	// A blank label between point and the next valid label is skipped
	// transparently
	text := `POINT \label{} \label{   } \label{good}`
	doc := texdoc.NewFromString(text)

	s := New(doc)

	a, err := s.FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "good" {
		t.Fatalf("expected good, got %+v", a)
	}
}

func TestFindNextNeverReturnsBlankOrCommented(t *testing.T) {
	text := "% \\label{c1}\n\\label{}\n\\label{v1}\n% \\label{c2}\n\\label{ }\n\\label{v2}\n"
	doc := texdoc.NewFromString(text)

	s := New(doc)

	for origin := buffer.ByteOffset(0); origin <= doc.Len(); origin += 7 {
		for _, dir := range []Direction{Forward, Backward} {
			a, err := s.FindNext(origin, dir)
			if err != nil {
				t.Fatalf("find from %d %s failed: %v", origin, dir, err)
			}
			if a == nil {
				continue
			}
			if strings.TrimSpace(a.Identifier) == "" {
				t.Errorf("find from %d %s returned blank identifier", origin, dir)
			}
			if doc.IsInComment(a.Construct.Start) {
				t.Errorf("find from %d %s returned commented label %q", origin, dir, a.Identifier)
			}
		}
	}
}

func TestForwardWalkIsMonotonic(t *testing.T) {
	text := "\\label{a}\nfiller\n\\label{b}\n% \\label{x}\n\\label{c}\n\\label{}\n\\label{d}\n"
	doc := texdoc.NewFromString(text)

	s := New(doc)

	seen := make(map[string]bool)
	var order []string
	pos := buffer.ByteOffset(0)
	for {
		a, err := s.FindNext(pos, Forward)
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if a == nil {
			break
		}
		if seen[a.Identifier] {
			t.Fatalf("anchor %q revisited in forward walk", a.Identifier)
		}
		if a.Construct.Start < pos {
			t.Fatalf("anchor %q behind the walk position", a.Identifier)
		}
		seen[a.Identifier] = true
		order = append(order, a.Identifier)
		pos = a.Construct.End
	}

	want := []string{"a", "b", "c", "d"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestAll(t *testing.T) {
	text := "\\label{one}\n% \\label{no}\n\\label{two}\n"
	doc := texdoc.NewFromString(text)

	anchors, err := New(doc).All()
	if err != nil {
		t.Fatalf("all failed: %v", err)
	}

	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].Identifier != "one" || anchors[1].Identifier != "two" {
		t.Errorf("expected [one two], got [%s %s]", anchors[0].Identifier, anchors[1].Identifier)
	}
}

func TestFilterSkipsRejected(t *testing.T) {
	text := `\label{skip:a} \label{keep:b}`
	doc := texdoc.NewFromString(text)

	s := New(doc, WithFilter(func(id string) bool {
		return !strings.HasPrefix(id, "skip:")
	}))

	a, err := s.FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "keep:b" {
		t.Fatalf("expected keep:b, got %+v", a)
	}
}

func TestContextExtraction(t *testing.T) {
	text := "  above 50%  \nhere \\label{x} after\n  below  \nfar away"
	doc := texdoc.NewFromString(text)

	s := New(doc, WithContext(true))

	a, err := s.FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil {
		t.Fatal("expected an anchor")
	}

	if !strings.HasPrefix(a.Context, "\n\n") {
		t.Errorf("context should start with a blank-line separator, got %q", a.Context)
	}
	body := strings.TrimPrefix(a.Context, "\n\n")
	if strings.HasPrefix(body, " ") || strings.HasSuffix(body, " ") {
		t.Errorf("context body should be trimmed, got %q", body)
	}
	if !strings.Contains(body, "50%%") {
		t.Errorf("literal %% should be doubled, got %q", body)
	}
	if !strings.Contains(body, "above") || !strings.Contains(body, "below") {
		t.Errorf("context should span the surrounding lines, got %q", body)
	}
	if strings.Contains(body, "far away") {
		t.Errorf("context should stop one line below, got %q", body)
	}
}

func TestContextDisabledByDefault(t *testing.T) {
	doc := texdoc.NewFromString(`\label{x}`)

	a, err := New(doc).FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Context != "" {
		t.Errorf("context should be empty when disabled, got %+v", a)
	}
}

func TestScannerOnReadOnlyClone(t *testing.T) {
	doc := texdoc.NewFromString(`\label{a} POINT \label{b}`)
	clone := doc.CloneReadOnly()
	defer clone.Close()

	a, err := New(clone).FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "a" {
		t.Fatalf("expected a, got %+v", a)
	}

	// Edits through the base are visible to a scan on the clone
	if _, err := doc.Insert(0, `\label{new} `); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	a, err = New(clone).FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "new" {
		t.Fatalf("expected new, got %+v", a)
	}
}

func TestIdentifierBraceWrapperTrimmed(t *testing.T) {
	doc := texdoc.NewFromString(`\label{{wrapped}} tail \label{x}`)

	a, err := New(doc).FindNext(0, Forward)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if a == nil || a.Identifier != "wrapped" {
		t.Fatalf("expected wrapped, got %+v", a)
	}
}
