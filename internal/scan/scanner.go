// Package scan locates labeled anchors in a document.
//
// The scanner walks label declarations outward from an origin, skipping
// declarations inside comments and declarations with blank arguments,
// and reports the nearest qualifying anchor in the requested direction.
// It re-derives anchors fresh on every call; nothing is cached across
// edits.
package scan

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/texdoc"
)

// Direction selects which way the scanner walks from the origin.
type Direction uint8

const (
	Backward Direction = iota
	Forward
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Anchor is one labeled point in the document.
// Span is the argument span inside the braces; Construct covers the
// whole declaration. Anchors are immutable snapshots: spans are plain
// offsets valid for the revision they were read from.
type Anchor struct {
	Identifier string
	Span       buffer.Range
	Construct  buffer.Range
	Context    string
}

// Scanner finds qualifying anchors in a document.
// It is stateless between calls and safe to run against a read-only
// clone.
type Scanner struct {
	doc         *texdoc.Document
	showContext bool
	filter      func(identifier string) bool
	log         zerolog.Logger
}

// Option is a functional option for configuring a Scanner.
type Option func(*Scanner)

// WithContext enables surrounding-context extraction on each anchor.
func WithContext(show bool) Option {
	return func(s *Scanner) { s.showContext = show }
}

// WithFilter adds a candidate filter beyond the built-in comment and
// blank skipping. Anchors whose identifier the filter rejects are
// skipped the same way commented ones are.
func WithFilter(fn func(identifier string) bool) Option {
	return func(s *Scanner) { s.filter = fn }
}

// WithLogger sets the scanner's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// New creates a Scanner over the given document.
func New(doc *texdoc.Document, opts ...Option) *Scanner {
	s := &Scanner{doc: doc, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindNext returns the nearest qualifying anchor from origin in the
// given direction, or nil if none exists. Matches inside comments, with
// blank identifiers, or rejected by the filter are skipped by advancing
// the search past them.
func (s *Scanner) FindNext(origin buffer.ByteOffset, dir Direction) (*Anchor, error) {
	pos := origin
	for {
		m := s.doc.FindLabel(pos, dir == Backward)
		if m == nil {
			return nil, nil
		}

		// Advance past this match so a skip keeps walking
		if dir == Forward {
			pos = m.Construct.End
		} else {
			pos = m.Construct.Start
		}

		if s.doc.IsInComment(m.Construct.Start) {
			s.log.Debug().Str("label", m.Text).Msg("skipping commented label")
			continue
		}

		id := identifierText(m.Text)
		if strings.TrimSpace(id) == "" {
			s.log.Debug().Msg("skipping blank label")
			continue
		}

		if s.filter != nil && !s.filter(id) {
			s.log.Debug().Str("label", id).Msg("label rejected by filter")
			continue
		}

		return s.anchor(m, id)
	}
}

// All returns every qualifying anchor in document order.
func (s *Scanner) All() ([]Anchor, error) {
	var out []Anchor
	pos := buffer.ByteOffset(0)
	for {
		a, err := s.FindNext(pos, Forward)
		if err != nil {
			return out, err
		}
		if a == nil {
			return out, nil
		}
		out = append(out, *a)
		pos = a.Construct.End
	}
}

func (s *Scanner) anchor(m *texdoc.LabelMatch, id string) (*Anchor, error) {
	if !m.Arg.IsValid() || !m.Construct.ContainsRange(m.Arg) {
		return nil, fmt.Errorf("label at %v: %w", m.Construct, ErrSpanExtraction)
	}

	a := &Anchor{
		Identifier: id,
		Span:       m.Arg,
		Construct:  m.Construct,
	}
	if s.showContext {
		a.Context = s.context(m)
	}
	return a, nil
}

// context returns the text from one visual line above the match to one
// below, trimmed, with % doubled for safe display formatting, preceded
// by a blank-line separator.
func (s *Scanner) context(m *texdoc.LabelMatch) string {
	start := s.doc.VisualLineBounds(m.Construct.Start, -1)
	end := s.doc.VisualLineBounds(m.Construct.Start, 1)
	text := strings.TrimSpace(s.doc.TextRange(buffer.NewRange(start, end)))
	return "\n\n" + strings.ReplaceAll(text, "%", "%%")
}

// identifierText trims one leading and one trailing brace wrapper from
// a raw argument, for arguments written with an extra brace group.
func identifierText(raw string) string {
	if strings.HasPrefix(raw, "{") {
		raw = raw[1:]
	}
	if strings.HasSuffix(raw, "}") {
		raw = raw[:len(raw)-1]
	}
	return raw
}
