// Package script runs the optional user hook script.
//
// The script is plain Lua, executed in a sandboxed state with only the
// safe standard libraries. Two global functions are recognized:
//
//	function filter_label(name)   -- return false to skip a candidate
//	function on_accept(name, text) -- observe a committed reference
//
// Hook failures are never fatal: a broken filter accepts everything
// and a broken on_accept is a no-op, with the error logged.
package script

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"
)

const (
	filterFn = "filter_label"
	acceptFn = "on_accept"
)

// Hooks wraps a loaded hook script. A nil *Hooks is valid and behaves
// as if no script were configured.
//
// gopher-lua states are not goroutine-safe; the mutex serializes all
// calls into the state.
type Hooks struct {
	mu sync.Mutex
	L  *lua.LState

	hasFilter bool
	hasAccept bool
	log       zerolog.Logger
}

// Option is a functional option for configuring Hooks.
type Option func(*Hooks)

// WithLogger sets the logger used for hook failures.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Hooks) { h.log = log }
}

// Load executes the hook script at path in a fresh sandboxed state.
// An empty path returns nil Hooks without error.
func Load(path string, opts ...Option) (*Hooks, error) {
	if path == "" {
		return nil, nil
	}

	h := &Hooks{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(h)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	sandbox(L)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("hook script %s: %w", path, err)
	}

	h.L = L
	h.hasFilter = L.GetGlobal(filterFn).Type() == lua.LTFunction
	h.hasAccept = L.GetGlobal(acceptFn).Type() == lua.LTFunction
	return h, nil
}

// openSafeLibraries opens only the Lua libraries without system access.
// io, os, debug, and package loading stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes the base-library escapes that could load arbitrary
// code from disk.
func sandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// HasFilter returns true if the script defines filter_label.
func (h *Hooks) HasFilter() bool {
	return h != nil && h.hasFilter
}

// FilterLabel asks the script whether a candidate identifier should be
// offered. Missing hook or any error accepts the candidate.
func (h *Hooks) FilterLabel(name string) bool {
	if !h.HasFilter() {
		return true
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.L.CallByParam(lua.P{
		Fn:      h.L.GetGlobal(filterFn),
		NRet:    1,
		Protect: true,
	}, lua.LString(name)); err != nil {
		h.log.Warn().Err(err).Str("label", name).Msg("filter_label hook failed")
		return true
	}

	ret := h.L.Get(-1)
	h.L.Pop(1)
	return lua.LVAsBool(ret)
}

// OnAccept notifies the script of a committed reference. Missing hook
// or any error is a no-op.
func (h *Hooks) OnAccept(name, text string) {
	if h == nil || !h.hasAccept {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.L.CallByParam(lua.P{
		Fn:      h.L.GetGlobal(acceptFn),
		NRet:    0,
		Protect: true,
	}, lua.LString(name), lua.LString(text)); err != nil {
		h.log.Warn().Err(err).Str("label", name).Msg("on_accept hook failed")
	}
}

// Close releases the Lua state. Safe on nil.
func (h *Hooks) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.L != nil {
		h.L.Close()
		h.L = nil
	}
}
