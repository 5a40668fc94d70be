package buffer

// Edit replaces a range with new text. An empty range inserts at its
// start; empty replacement text deletes the range.
type Edit struct {
	Range   Range
	NewText string
}

// NewEdit creates an edit replacing r with text.
func NewEdit(r Range, text string) Edit {
	return Edit{Range: r, NewText: text}
}

// NewInsert creates an edit inserting text at offset.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{Range: Range{Start: offset, End: offset}, NewText: text}
}

// EditResult describes an applied edit. NewText is the inserted text
// after line ending normalization, which may differ from what the edit
// carried.
type EditResult struct {
	OldRange Range
	NewRange Range
	OldText  string
	NewText  string
	Delta    int64 // change in buffer length
}

// ChangeType categorizes a recorded change.
type ChangeType uint8

const (
	ChangeInsert ChangeType = iota
	ChangeDelete
	ChangeReplace
)

// Change is one recorded buffer mutation. Transactions keep the slice
// of changes they caused and undo them in reverse order on rollback.
type Change struct {
	Type     ChangeType
	Range    Range  // range the change replaced
	NewRange Range  // range it produced
	OldText  string // removed text, for delete/replace
	NewText  string // added text, for insert/replace
}

// Invert returns the change that undoes this one.
func (c Change) Invert() Change {
	switch c.Type {
	case ChangeInsert:
		return Change{
			Type:    ChangeDelete,
			Range:   c.NewRange,
			OldText: c.NewText,
		}
	case ChangeDelete:
		return Change{
			Type:     ChangeInsert,
			Range:    Range{Start: c.Range.Start, End: c.Range.Start},
			NewRange: c.Range,
			NewText:  c.OldText,
		}
	default:
		return Change{
			Type:     ChangeReplace,
			Range:    c.NewRange,
			NewRange: c.Range,
			OldText:  c.NewText,
			NewText:  c.OldText,
		}
	}
}

// ToEdit renders the change as an edit that applies it.
func (c Change) ToEdit() Edit {
	return Edit{Range: c.Range, NewText: c.NewText}
}
