// Package app is the interactive terminal frontend.
//
// It hosts a single texdoc.Document in a minimal modal editor: cursor
// movement, self-inserting text, save, quit, jump-back, and the
// reference-session entry key. The session does the interesting work;
// the app renders what it emits (status text and highlight overlays)
// and feeds it one key event at a time.
package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/dshills/refwalk/internal/config"
	"github.com/dshills/refwalk/internal/input/key"
	"github.com/dshills/refwalk/internal/script"
	"github.com/dshills/refwalk/internal/session"
	"github.com/dshills/refwalk/internal/texdoc"
	"github.com/dshills/refwalk/internal/watch"
)

// Editor keys not subject to configuration.
var (
	keySave = key.MustParse("<C-s>")
	keyQuit = key.MustParse("<C-q>")
)

// App is one editor instance over one document.
type App struct {
	cfg  config.Config
	doc  *texdoc.Document
	path string
	orig string // content at load time, for diff preview
	log  zerolog.Logger

	hooks   *script.Hooks
	watcher *watch.Watcher

	keyPrev, keyNext, keyGoto, keyRef, keyBack key.Event

	screen         tcell.Screen
	sess           *session.Session
	status         string
	topLine        uint32
	diffMode       bool
	onlyIdentifier bool
	pendingQuit    bool
	quit           bool
}

// Option is a functional option for configuring an App.
type Option func(*App)

// WithLogger sets the app logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithHooks attaches the user hook script.
func WithHooks(h *script.Hooks) Option {
	return func(a *App) { a.hooks = h }
}

// WithDiffMode keeps all changes in memory; saving is disabled and the
// caller prints a diff on exit instead.
func WithDiffMode() Option {
	return func(a *App) { a.diffMode = true }
}

// WithOnlyIdentifier makes reference sessions insert the bare
// identifier instead of a full reference command.
func WithOnlyIdentifier() Option {
	return func(a *App) { a.onlyIdentifier = true }
}

// New loads the file at path into an editor. A missing file starts an
// empty document that will be created on save.
func New(cfg config.Config, path string, opts ...Option) (*App, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	a := &App{
		cfg:  cfg,
		path: path,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.doc = texdoc.NewFromString(string(data),
		texdoc.WithPath(path),
		texdoc.WithWrapWidth(cfg.Editor.WrapWidth),
		texdoc.WithTabWidth(cfg.Editor.TabWidth),
		texdoc.WithRefCommands(cfg.Session.RefCommands),
		texdoc.WithStatusFunc(func(msg string) { a.status = msg }),
	)
	a.orig = a.doc.Text()

	a.keyPrev, a.keyNext, a.keyGoto, a.keyRef, a.keyBack = cfg.ControlKeys()

	if _, statErr := os.Stat(path); statErr == nil {
		w, werr := watch.New(path, watch.WithLogger(a.log))
		if werr != nil {
			a.log.Warn().Err(werr).Msg("file watch unavailable")
		} else {
			a.watcher = w
		}
	}

	return a, nil
}

// Document returns the app's document.
func (a *App) Document() *texdoc.Document { return a.doc }

// Diff returns a preview of unsaved changes and whether any exist.
func (a *App) Diff() (string, bool) {
	if !a.doc.Modified() {
		return "", false
	}
	return unifiedDiff(a.path, a.orig, a.doc.Text()), true
}

// Run drives the editor until quit. It owns the screen for its
// duration.
func (a *App) Run(screen tcell.Screen) error {
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	a.screen = screen
	defer func() {
		a.shutdown()
		screen.Fini()
	}()

	if a.watcher != nil {
		go a.forwardWatchEvents()
	}

	for !a.quit {
		a.render()

		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			if wev, ok := ev.Data().(watch.Event); ok {
				a.noteExternalChange(wev)
			}
		case *tcell.EventKey:
			kev, ok := translateKey(ev)
			if !ok {
				continue
			}
			a.handleKey(kev)
		case nil:
			return nil // screen finalized under us
		}
	}
	return nil
}

// shutdown tears down session state and background resources.
func (a *App) shutdown() {
	if a.sess != nil && a.sess.Active() {
		if err := a.sess.Abort(); err != nil {
			a.log.Error().Err(err).Msg("session abort failed")
		}
		a.sess = nil
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("watcher close failed")
		}
		a.watcher = nil
	}
}

// forwardWatchEvents reposts watcher notifications into the tcell
// event queue so the single event loop sees them.
func (a *App) forwardWatchEvents() {
	for ev := range a.watcher.Events() {
		if err := a.screen.PostEvent(tcell.NewEventInterrupt(ev)); err != nil {
			a.log.Debug().Err(err).Msg("dropping watch notification")
		}
	}
}

// noteExternalChange surfaces an on-disk change as status text. The
// buffer is never reloaded behind the author's back.
func (a *App) noteExternalChange(ev watch.Event) {
	if ev.Removed {
		a.status = fmt.Sprintf("%s was removed on disk", a.path)
		return
	}
	a.status = fmt.Sprintf("%s changed on disk; saving will overwrite it", a.path)
}

// handleKey routes one key event: to the active session if there is
// one, to the editor otherwise.
func (a *App) handleKey(ev key.Event) {
	a.pendingQuitGuard(ev)

	if a.sess != nil && a.sess.Active() {
		a.handleSessionKey(ev)
		return
	}

	switch {
	case ev.Equals(keyQuit):
		a.requestQuit()
	case ev.Equals(keySave):
		a.save()
	case ev.Equals(a.keyRef):
		a.startSession()
	case ev.Equals(a.keyBack):
		a.jumpBack()
	case ev.Key == key.KeyUp:
		a.moveVertical(-1)
	case ev.Key == key.KeyDown:
		a.moveVertical(1)
	case ev.Key == key.KeyLeft:
		a.moveHorizontal(-1)
	case ev.Key == key.KeyRight:
		a.moveHorizontal(1)
	case ev.Key == key.KeyHome:
		a.moveLineStart()
	case ev.Key == key.KeyEnd:
		a.moveLineEnd()
	case ev.Key == key.KeyPageUp:
		a.movePage(-1)
	case ev.Key == key.KeyPageDown:
		a.movePage(1)
	case ev.Key == key.KeyEnter:
		a.insertText("\n")
	case ev.Key == key.KeyTab:
		a.insertText("\t")
	case ev.Key == key.KeyBackspace:
		a.deleteBackward()
	case ev.Key == key.KeyDelete:
		a.deleteForward()
	case ev.IsChar():
		a.insertText(string(ev.Rune))
	}
}

// handleSessionKey feeds one event to the reference session and
// finishes it when a terminal action fires.
func (a *App) handleSessionKey(ev key.Event) {
	res, err := a.sess.Handle(ev)
	if err != nil {
		if errors.Is(err, session.ErrInvalidChoice) {
			a.status = fmt.Sprintf("%s is not a direction key (%s or %s)",
				ev, a.keyPrev, a.keyNext)
		} else {
			a.log.Error().Err(err).Msg("session error")
			a.status = fmt.Sprintf("reference session failed: %v", err)
		}
		a.sess = nil
		return
	}
	if res == nil {
		return
	}

	a.sess = nil
	if res.Outcome == session.OutcomeAccepted && res.Identifier != "" {
		a.hooks.OnAccept(res.Identifier, res.Text)
	}
	if res.Forward != nil {
		a.insertText(string(res.Forward.Rune))
	}
}

// startSession opens a reference session at the cursor, prompting for
// the initial direction.
func (a *App) startSession() {
	sess := session.New(a.doc, session.Config{
		PrevKey:                  a.keyPrev,
		NextKey:                  a.keyNext,
		GotoKey:                  a.keyGoto,
		ShowContext:              a.cfg.Session.ShowContext,
		OnlyIdentifierInArgument: a.cfg.Session.OnlyIdentifierInArgument,
		RefCommand:               a.cfg.Session.RefCommand,
		Filter:                   a.hooks.FilterLabel,
	}, session.WithLogger(a.log.With().Str("component", "session").Logger()))

	if err := sess.Start(a.doc.Cursor(), session.AskDirection, a.onlyIdentifier); err != nil {
		a.status = fmt.Sprintf("cannot start reference session: %v", err)
		return
	}
	a.sess = sess
}

// jumpBack pops the position history, landing where the last reference
// session began.
func (a *App) jumpBack() {
	off, ok := a.doc.PopPosition()
	if !ok {
		a.status = "position history is empty"
		return
	}
	a.doc.SetCursor(off)
}

// save writes the buffer to disk, unless running in diff mode.
func (a *App) save() {
	if a.diffMode {
		a.status = "diff mode: changes are not written"
		return
	}
	if err := os.WriteFile(a.path, []byte(a.doc.Text()), 0o644); err != nil {
		a.log.Error().Err(err).Msg("save failed")
		a.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	a.doc.MarkSaved()
	a.status = fmt.Sprintf("wrote %s", a.path)
}

// requestQuit quits immediately when nothing would be lost; otherwise
// the first press warns and the second press confirms.
func (a *App) requestQuit() {
	if a.diffMode || !a.doc.Modified() || a.pendingQuit {
		a.quit = true
		return
	}
	a.pendingQuit = true
	a.status = fmt.Sprintf("unsaved changes: %s again to quit, %s to save", keyQuit, keySave)
}

// pendingQuitGuard clears a pending quit on any key but the quit key.
func (a *App) pendingQuitGuard(ev key.Event) {
	if a.pendingQuit && !ev.Equals(keyQuit) {
		a.pendingQuit = false
	}
}
