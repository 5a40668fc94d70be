package texdoc

import (
	"regexp"

	"github.com/dshills/refwalk/internal/engine/buffer"
)

// labelPattern matches a label declaration with its braced argument.
// The argument group excludes the braces.
var labelPattern = regexp.MustCompile(`\\label\s*\{([^}]*)\}`)

// LabelMatch is one label declaration found in the document.
type LabelMatch struct {
	Construct buffer.Range // the whole \label{...} construct
	Arg       buffer.Range // the argument span inside the braces
	Text      string       // the raw argument text
}

// FindLabel returns the nearest label declaration from origin in the
// given direction, or nil if none exists. Forward returns the first
// match starting at or after origin; backward returns the last match
// ending at or before origin. Matches whose leading backslash is itself
// escaped are not label declarations and are skipped. Comment and blank
// filtering is the caller's concern.
func (d *Document) FindLabel(origin buffer.ByteOffset, backward bool) *LabelMatch {
	text := d.buf.Text()
	matches := labelPattern.FindAllStringSubmatchIndex(text, -1)

	if backward {
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			if buffer.ByteOffset(m[1]) <= origin && !isEscapedAt(text, m[0]) {
				return newLabelMatch(text, m)
			}
		}
		return nil
	}

	for _, m := range matches {
		if buffer.ByteOffset(m[0]) >= origin && !isEscapedAt(text, m[0]) {
			return newLabelMatch(text, m)
		}
	}
	return nil
}

func newLabelMatch(text string, m []int) *LabelMatch {
	return &LabelMatch{
		Construct: buffer.NewRange(buffer.ByteOffset(m[0]), buffer.ByteOffset(m[1])),
		Arg:       buffer.NewRange(buffer.ByteOffset(m[2]), buffer.ByteOffset(m[3])),
		Text:      text[m[2]:m[3]],
	}
}

// IsEscaped returns true if the character at the given offset is
// escaped, that is, preceded by an odd number of backslashes.
func (d *Document) IsEscaped(off buffer.ByteOffset) bool {
	return isEscapedAt(d.buf.Text(), int(off))
}

// IsInComment returns true if the given offset lies inside a LaTeX
// comment: an unescaped % appears earlier on the same line.
func (d *Document) IsInComment(off buffer.ByteOffset) bool {
	if off < 0 {
		return false
	}
	if n := d.buf.Len(); off > n {
		off = n
	}

	text := d.buf.Text()
	lineStart := int(d.buf.LineStartOffset(d.buf.OffsetToPoint(off).Line))
	for i := lineStart; i < int(off) && i < len(text); i++ {
		if text[i] == '%' && !isEscapedAt(text, i) {
			return true
		}
	}
	return false
}

// InRefArgument returns true if the offset lies inside the braced
// argument of a reference command such as \ref{...} or \eqref{...}.
// The recognized command names come from the document's configuration.
func (d *Document) InRefArgument(off buffer.ByteOffset) bool {
	text := d.buf.Text()
	if off < 0 || off > buffer.ByteOffset(len(text)) {
		return false
	}

	// Walk backward through the unescaped braces opening the groups
	// that contain the offset, innermost first. The offset is inside a
	// reference argument if any of those groups belongs to a reference
	// command.
	depth := 0
	for i := int(off) - 1; i >= 0; i-- {
		switch text[i] {
		case '}':
			if !isEscapedAt(text, i) {
				depth++
			}
		case '{':
			if isEscapedAt(text, i) {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			if d.refCommandBefore(text, i) {
				return true
			}
		}
	}
	return false
}

// refCommandBefore reports whether the text immediately before an
// opening brace is one of the configured reference commands, written as
// an unescaped backslash, the command name, and an optional star.
func (d *Document) refCommandBefore(text string, brace int) bool {
	j := brace
	if j > 0 && text[j-1] == '*' {
		j--
	}

	i := j
	for i > 0 && isCommandLetter(text[i-1]) {
		i--
	}
	if i == j || i == 0 || text[i-1] != '\\' || isEscapedAt(text, i-1) {
		return false
	}

	name := text[i:j]
	for _, cmd := range d.refCommands {
		if name == cmd {
			return true
		}
	}
	return false
}

func isCommandLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isEscapedAt reports whether the byte at index i is preceded by an odd
// number of backslashes.
func isEscapedAt(text string, i int) bool {
	count := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		count++
	}
	return count%2 == 1
}
