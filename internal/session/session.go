// Package session implements the interactive reference-insertion loop.
//
// A Session walks the labels of a document outward from the cursor.
// Starting it inserts a live placeholder at the origin; every step asks
// the scanner for the next candidate in the current direction and
// rewrites the placeholder's identifier to match. A terminal key either
// keeps the last-written text, or rolls the whole insertion back and
// moves the cursor to the chosen label.
//
// The session is a synchronous state machine driven one key event at a
// time through Handle. It owns a read-only scratch clone of the
// document and two highlight overlays for its lifetime; all three are
// released on every exit path.
package session

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/engine/marker"
	"github.com/dshills/refwalk/internal/input/key"
	"github.com/dshills/refwalk/internal/scan"
	"github.com/dshills/refwalk/internal/texdoc"
)

// Errors returned by session operations.
var (
	ErrInvalidChoice = errors.New("not a direction key")
	ErrAlreadyActive = errors.New("session already started")
	ErrNotActive     = errors.New("session not active")
)

// State identifies where the session is in its lifecycle.
type State uint8

const (
	StateIdle State = iota
	StateAwaitingDirection
	StateStepping
	StateTerminated
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDirection:
		return "awaiting-direction"
	case StateStepping:
		return "stepping"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// InitialDirection selects how a session begins.
type InitialDirection uint8

const (
	// AskDirection prompts for a direction key before touching the
	// document.
	AskDirection InitialDirection = iota
	// StartBackward begins stepping backward immediately.
	StartBackward
	// StartForward begins stepping forward immediately.
	StartForward
)

// Outcome reports how a session ended.
type Outcome uint8

const (
	// OutcomeAccepted keeps the last-written reference text.
	OutcomeAccepted Outcome = iota
	// OutcomeNavigated reverted the insertion and moved the cursor to
	// the selected label.
	OutcomeNavigated
)

// String returns a string representation of the outcome.
func (o Outcome) String() string {
	if o == OutcomeNavigated {
		return "navigated"
	}
	return "accepted"
}

// Result describes a finished session.
type Result struct {
	Outcome    Outcome
	Identifier string // selected identifier, empty if no candidate was found
	Text       string // final reference text for OutcomeAccepted
	// Forward holds a printable key that terminated the session and
	// should be replayed through the host's normal input handling.
	Forward *key.Event
}

// Config holds the options that shape session behavior.
type Config struct {
	PrevKey key.Event // step backward
	NextKey key.Event // step forward
	GotoKey key.Event // navigate to the candidate

	// ShowContext includes the candidate's surrounding lines in status
	// messages.
	ShowContext bool
	// OnlyIdentifierInArgument inserts a bare identifier when the
	// origin already sits inside a reference command's argument.
	OnlyIdentifierInArgument bool
	// RefCommand names the command used for the inserted skeleton,
	// without the backslash. Defaults to "ref".
	RefCommand string
	// Filter rejects candidates beyond the built-in comment and blank
	// skipping. Nil accepts all.
	Filter func(identifier string) bool
}

// Session is one interactive reference-insertion loop over a document.
// Sessions are single-use: create, Start, feed events to Handle until
// it returns a Result, discard.
type Session struct {
	doc *texdoc.Document
	cfg Config
	log zerolog.Logger

	state     State
	dir       scan.Direction
	stepIndex int
	idOnly    bool
	origin    buffer.ByteOffset

	scratch     *texdoc.Document
	scanner     *scan.Scanner
	tx          *texdoc.Transaction
	live        *marker.Region // the whole inserted span
	ident       *marker.Region // identifier sub-span, nil in identifier-only mode
	current     *scan.Anchor
	currentSpan *marker.Region // tracks the candidate's span through edits
	context     string

	atPoint string // highlight handle for the live insertion
	target  string // highlight handle for the current candidate
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// New creates a session over the given document.
func New(doc *texdoc.Document, cfg Config, opts ...Option) *Session {
	if cfg.RefCommand == "" {
		cfg.RefCommand = "ref"
	}
	s := &Session{doc: doc, cfg: cfg, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Active returns true while the session still consumes key events.
func (s *Session) Active() bool {
	return s.state == StateAwaitingDirection || s.state == StateStepping
}

// StepIndex returns the current step count: positive forward, negative
// backward, zero before the first successful step.
func (s *Session) StepIndex() int { return s.stepIndex }

// Direction returns the current scan direction.
func (s *Session) Direction() scan.Direction { return s.dir }

// IdentifierOnly returns true when the session inserts a bare
// identifier instead of a reference construct.
func (s *Session) IdentifierOnly() bool { return s.idOnly }

// LiveText returns the text currently inserted at the origin.
func (s *Session) LiveText() string {
	if s.live == nil {
		return ""
	}
	return s.doc.TextRange(s.live.Range())
}

// Start begins the session at the given origin. With AskDirection the
// session prompts for a direction key and the document is not touched
// until one arrives; otherwise the placeholder is inserted and the
// first step runs immediately.
//
// onlyIdentifier forces bare-identifier insertion regardless of where
// the origin sits.
func (s *Session) Start(origin buffer.ByteOffset, initial InitialDirection, onlyIdentifier bool) error {
	if s.state != StateIdle {
		return ErrAlreadyActive
	}
	s.origin = origin
	s.idOnly = onlyIdentifier ||
		(s.cfg.OnlyIdentifierInArgument && s.doc.InRefArgument(origin))

	switch initial {
	case AskDirection:
		s.state = StateAwaitingDirection
		s.doc.ShowStatus(fmt.Sprintf("reference: %s) previous label  %s) next label",
			s.cfg.PrevKey, s.cfg.NextKey))
		return nil
	case StartBackward:
		return s.begin(scan.Backward)
	default:
		return s.begin(scan.Forward)
	}
}

// Handle feeds one key event to the session. A nil Result means the
// session is still active and wants the next event; a non-nil Result
// means it terminated. After an error the session is also terminated.
func (s *Session) Handle(ev key.Event) (*Result, error) {
	switch s.state {
	case StateAwaitingDirection:
		return s.handleDirection(ev)
	case StateStepping:
		return s.handleStep(ev)
	default:
		return nil, ErrNotActive
	}
}

// Abort terminates an active session from outside, reverting any
// insertion. It is the teardown path for a host shutting down mid-loop.
func (s *Session) Abort() error {
	if !s.Active() {
		return nil
	}
	if s.state == StateAwaitingDirection {
		s.state = StateTerminated
		return nil
	}

	err := s.tx.Rollback()
	s.cleanup()
	s.state = StateTerminated
	return err
}

// handleDirection resolves the direction prompt. An unrecognized key
// aborts before any document mutation.
func (s *Session) handleDirection(ev key.Event) (*Result, error) {
	switch {
	case ev.Equals(s.cfg.PrevKey):
		return nil, s.begin(scan.Backward)
	case ev.Equals(s.cfg.NextKey):
		return nil, s.begin(scan.Forward)
	default:
		s.state = StateTerminated
		return nil, fmt.Errorf("%w: %s", ErrInvalidChoice, ev)
	}
}

// begin enters Stepping: push the origin for jump-back, insert the live
// placeholder inside a transaction, clone the document for scanning,
// and run the first step.
func (s *Session) begin(dir scan.Direction) error {
	s.dir = dir
	s.doc.PushPosition(s.origin)

	tx, err := s.doc.BeginTransaction()
	if err != nil {
		s.state = StateTerminated
		return err
	}
	s.tx = tx

	if err := s.insertPlaceholder(); err != nil {
		rbErr := tx.Rollback()
		s.state = StateTerminated
		return errors.Join(err, rbErr)
	}

	s.atPoint = s.doc.Highlight(s.live.Range(), texdoc.StyleHighlight)
	s.scratch = s.doc.CloneReadOnly()
	s.scanner = scan.New(s.scratch,
		scan.WithContext(s.cfg.ShowContext),
		scan.WithFilter(s.cfg.Filter),
		scan.WithLogger(s.log),
	)

	s.state = StateStepping
	s.step()
	return nil
}

// insertPlaceholder inserts the live region at the origin: a single
// blank in identifier-only mode, otherwise a reference skeleton with an
// empty argument and a trailing space.
func (s *Session) insertPlaceholder() error {
	if s.idOnly {
		live, err := s.tx.Insert(s.origin, " ")
		if err != nil {
			return err
		}
		s.live = live
		return nil
	}

	prefix := `\` + s.cfg.RefCommand + `{`
	live, err := s.tx.Insert(s.origin, prefix+`} `)
	if err != nil {
		return err
	}
	s.live = live
	s.ident = s.doc.CreateInsertionRegion(s.origin + buffer.ByteOffset(len(prefix)))
	return nil
}

// handleStep dispatches one key event inside the Stepping loop. The
// candidate highlight is removed up front, whatever the outcome.
func (s *Session) handleStep(ev key.Event) (*Result, error) {
	s.clearTarget()

	switch {
	case ev.Equals(s.cfg.GotoKey):
		return s.finishNavigate()
	case ev.Equals(s.cfg.PrevKey):
		s.dir = scan.Backward
		s.step()
		return nil, nil
	case ev.Equals(s.cfg.NextKey):
		s.dir = scan.Forward
		s.step()
		return nil, nil
	default:
		return s.finishAccept(ev)
	}
}

// step runs one scan from the scratch cursor in the current direction
// and rewrites the live region to the found identifier. Scan failures
// degrade to "no candidate": the live region is left alone.
func (s *Session) step() {
	a, err := s.scanner.FindNext(s.scratch.Cursor(), s.dir)
	if err != nil {
		s.log.Warn().Err(err).Msg("scan failed, treating as no candidate")
		a = nil
	}

	if a == nil {
		s.doc.ShowStatus(s.statusNoCandidate())
		return
	}

	// Resume later scans past this match
	if s.dir == scan.Forward {
		s.scratch.SetCursor(a.Construct.End)
	} else {
		s.scratch.SetCursor(a.Construct.Start)
	}

	s.current = a
	s.context = a.Context
	s.bumpStepIndex()

	// The span's raw offsets go stale once the identifier rewrite below
	// shifts the text; track it with a region from here on.
	if s.currentSpan != nil {
		s.currentSpan.Release()
	}
	s.currentSpan = s.doc.CreateRegion(a.Span)
	s.target = s.doc.Highlight(a.Span, texdoc.StyleTarget)
	s.doc.ShowStatus(s.statusStep(a))

	if err := s.rewriteIdentifier(a.Identifier); err != nil {
		s.log.Error().Err(err).Str("label", a.Identifier).Msg("identifier rewrite failed")
	}
}

// bumpStepIndex advances the step count in the current direction,
// skipping zero: zero is reserved for "no step taken yet".
func (s *Session) bumpStepIndex() {
	if s.dir == scan.Forward {
		s.stepIndex++
		if s.stepIndex == 0 {
			s.stepIndex = 1
		}
		return
	}
	s.stepIndex--
	if s.stepIndex == 0 {
		s.stepIndex = -1
	}
}

// rewriteIdentifier replaces the identifier portion of the live region,
// leaving any construct markup untouched, and recreates the at-point
// highlight over the result.
func (s *Session) rewriteIdentifier(id string) error {
	region := s.ident
	if s.idOnly {
		region = s.live
	}
	if err := s.tx.Replace(region.Range(), id); err != nil {
		return err
	}

	s.doc.ClearHighlight(s.atPoint)
	s.atPoint = s.doc.Highlight(s.live.Range(), texdoc.StyleHighlight)
	return nil
}

// finishNavigate reverts the insertion and moves the cursor to the end
// of the current candidate's span, revealing it if hidden.
func (s *Session) finishNavigate() (*Result, error) {
	res := &Result{Outcome: OutcomeNavigated}

	// Read the destination after the rollback so it reflects the
	// reverted text; the span region tracks the revert edits.
	dest := s.currentSpan
	s.currentSpan = nil
	if s.current != nil {
		res.Identifier = s.current.Identifier
	}

	err := s.tx.Rollback()

	if dest != nil {
		off := dest.End()
		dest.Release()
		if err == nil {
			s.doc.RevealAt(off)
			s.doc.SetCursor(off)
		}
	}
	s.cleanup()
	s.state = StateTerminated
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("label", res.Identifier).Msg("session ended by navigation")
	return res, nil
}

// finishAccept keeps the last-written text. A printable terminating key
// is handed back to the caller for normal input handling.
func (s *Session) finishAccept(ev key.Event) (*Result, error) {
	res := &Result{
		Outcome: OutcomeAccepted,
		Text:    s.LiveText(),
	}
	if s.current != nil {
		res.Identifier = s.current.Identifier
	}
	if ev.IsChar() {
		fwd := ev
		res.Forward = &fwd
	}

	err := s.tx.Commit()
	s.cleanup()
	s.state = StateTerminated
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("label", res.Identifier).Msg("session ended by accept")
	return res, nil
}

// cleanup releases everything the session acquired at begin: both
// highlight handles, the identifier region, and the scratch clone. It
// runs on every exit path out of Stepping.
func (s *Session) cleanup() {
	s.clearTarget()
	if s.currentSpan != nil {
		s.currentSpan.Release()
		s.currentSpan = nil
	}
	if s.atPoint != "" {
		s.doc.ClearHighlight(s.atPoint)
		s.atPoint = ""
	}
	if s.ident != nil {
		s.ident.Release()
		s.ident = nil
	}
	if s.live != nil {
		s.live.Release()
		s.live = nil
	}
	if s.scratch != nil {
		if err := s.scratch.Close(); err != nil {
			s.log.Error().Err(err).Msg("scratch close failed")
		}
		s.scratch = nil
	}
}

func (s *Session) clearTarget() {
	if s.target != "" {
		s.doc.ClearHighlight(s.target)
		s.target = ""
	}
}

// statusStep formats the step-count message for a found candidate.
func (s *Session) statusStep(a *scan.Anchor) string {
	return fmt.Sprintf("label %q (%+d)%s", a.Identifier, s.stepIndex, a.Context)
}

// statusNoCandidate formats the boundary message, keeping the step
// count and any leftover context from the last candidate.
func (s *Session) statusNoCandidate() string {
	word := "previous"
	if s.dir == scan.Forward {
		word = "next"
	}
	return fmt.Sprintf("no %s label (%+d)%s", word, s.stepIndex, s.context)
}
