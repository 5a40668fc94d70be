// Package watch notifies about external changes to a single file.
//
// The watch is attached to the file's directory rather than the file
// itself, so saves that replace the file (write to temp, rename over)
// keep being observed.
package watch

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when using a closed watcher.
var ErrClosed = errors.New("watcher closed")

// Event reports one external change to the watched file.
type Event struct {
	Path    string
	Removed bool // the file was removed or renamed away
}

// Watcher watches one file for external modification.
type Watcher struct {
	fw   *fsnotify.Watcher
	path string // absolute path of the watched file
	log  zerolog.Logger

	events chan Event

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Option is a functional option for configuring a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New starts watching the file at path.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		fw:      fw,
		path:    abs,
		log:     zerolog.Nop(),
		events:  make(chan Event, 16),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events returns the channel of change notifications.
// The channel is closed when the watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// loop filters directory events down to the watched file.
func (w *Watcher) loop() {
	defer w.wg.Done()
	defer close(w.events)

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			out := Event{Path: w.path}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				out.Removed = true
			case ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) == 0:
				continue
			}
			w.log.Debug().Str("op", ev.Op.String()).Msg("file changed on disk")

			select {
			case w.events <- out:
			default:
				// Drop rather than block: the consumer only needs to
				// know that something changed.
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// Close stops the watcher. Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	return err
}
