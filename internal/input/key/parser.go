package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse parses a key specification into an Event.
//
// Supported forms:
//   - Single character: "n", "N", "@"
//   - Key names: "Enter", "Escape", "Space"
//   - Modifier+key: "Ctrl+G", "Alt+Enter"
//   - Bracketed: "<C-p>", "<A-Enter>", "<CR>", "<Esc>"
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}

	if strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseBracketed(spec[1 : len(spec)-1])
	}
	if strings.Contains(spec, "+") {
		return parseModified(spec)
	}
	return parseBare(spec)
}

// MustParse parses a spec and panics on error. Use only for known-valid
// specs such as compiled-in defaults.
func MustParse(spec string) Event {
	e, err := Parse(spec)
	if err != nil {
		panic("invalid key specification " + spec + ": " + err.Error())
	}
	return e
}

// parseBracketed handles "<C-p>" style: hyphen-separated modifier
// letters followed by a key part.
func parseBracketed(inner string) (Event, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Event{}, ErrInvalidSpec
	}

	parts := strings.Split(inner, "-")
	keyPart := parts[len(parts)-1]

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := modifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}
	return parseKeyPart(keyPart, mods)
}

// parseModified handles "Ctrl+G" style: plus-separated modifier names
// followed by a key part.
func parseModified(spec string) (Event, error) {
	parts := strings.Split(spec, "+")
	keyPart := parts[len(parts)-1]

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := modifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}
	return parseKeyPart(keyPart, mods)
}

// parseBare handles a spec with no modifier notation.
func parseBare(spec string) (Event, error) {
	if k := FromName(spec); k != KeyNone {
		return NewSpecialEvent(k, ModNone), nil
	}
	if strings.EqualFold(spec, "space") {
		return NewRuneEvent(' ', ModNone), nil
	}

	runes := []rune(spec)
	if len(runes) != 1 {
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
	}

	r := runes[0]
	var mods Modifier
	if unicode.IsUpper(r) {
		mods = ModShift
	}
	return NewRuneEvent(r, mods), nil
}

func parseKeyPart(keyPart string, mods Modifier) (Event, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}

	if k := FromName(keyPart); k != KeyNone {
		return NewSpecialEvent(k, mods), nil
	}
	if strings.EqualFold(keyPart, "space") {
		return NewRuneEvent(' ', mods), nil
	}

	runes := []rune(keyPart)
	if len(runes) != 1 {
		return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
	}

	r := runes[0]
	// Ctrl combinations are case-insensitive
	if mods.Has(ModCtrl) {
		r = unicode.ToLower(r)
	}
	return NewRuneEvent(r, mods), nil
}
