package key

import (
	"strings"
	"unicode"
)

// Event represents a single key press.
type Event struct {
	Key       Key
	Rune      rune // set for KeyRune events
	Modifiers Modifier
}

// NewRuneEvent creates an event for a character key.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates an event for a non-character key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods}
}

// IsRune returns true for character key events.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true for printable character events without Ctrl or
// Alt held. These are the events the editor self-inserts.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune) &&
		e.Modifiers&(ModCtrl|ModAlt) == 0
}

// Equals returns true if two events represent the same key press.
// For character events Shift is ignored, since it is already folded
// into the rune.
func (e Event) Equals(other Event) bool {
	if e.Key != other.Key || e.Rune != other.Rune {
		return false
	}
	em, om := e.Modifiers, other.Modifiers
	if e.IsRune() {
		em &^= ModShift
		om &^= ModShift
	}
	return em == om
}

// Matches returns true if the event matches a key spec string.
// Unparseable specs never match.
func (e Event) Matches(spec string) bool {
	parsed, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Equals(parsed)
}

// String returns a display form like "n", "Space", or "C-p".
func (e Event) String() string {
	var parts []string
	if e.Modifiers.Has(ModCtrl) {
		parts = append(parts, "C")
	}
	if e.Modifiers.Has(ModAlt) {
		parts = append(parts, "A")
	}
	if e.Modifiers.Has(ModShift) && !e.IsRune() {
		parts = append(parts, "S")
	}

	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		parts = append(parts, "Space")
	case e.Key == KeyRune:
		parts = append(parts, string(e.Rune))
	default:
		parts = append(parts, e.Key.String())
	}
	return strings.Join(parts, "-")
}

// Spec returns the canonical spec form that parses back to this event:
// bare characters stay bare, everything else is bracketed.
func (e Event) Spec() string {
	if e.IsRune() && e.Modifiers&(ModCtrl|ModAlt) == 0 && e.Rune != ' ' {
		return string(e.Rune)
	}
	return "<" + e.String() + ">"
}
