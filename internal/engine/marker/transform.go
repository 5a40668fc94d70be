package marker

import "github.com/dshills/refwalk/internal/engine/buffer"

// TransformOffset updates an offset after an edit.
//
// Transformation rules:
//   - Pure insertion exactly at the offset: gravity decides the side
//   - Edit entirely before the offset: shift by the edit's length delta
//   - Edit starting at or after the offset: offset unchanged
//   - Edit spanning the offset: collapse to the end of the new text
//
// The insertion case is checked first. An insertion at the offset has
// Range.End == offset, so the before-offset rule would otherwise
// swallow it and gravity would never apply.
func TransformOffset(offset buffer.ByteOffset, edit buffer.Edit, gravity Gravity) buffer.ByteOffset {
	newLen := buffer.ByteOffset(len(edit.NewText))

	if edit.Range.IsEmpty() && edit.Range.Start == offset {
		if gravity == GravityLeft {
			return offset
		}
		return offset + newLen
	}

	if edit.Range.End <= offset {
		return offset - edit.Range.Len() + newLen
	}

	if edit.Range.Start >= offset {
		return offset
	}

	return edit.Range.Start + newLen
}

// TransformRange updates a range after an edit, applying the given
// gravities to its endpoints. The result is normalized so Start <= End.
func TransformRange(r buffer.Range, edit buffer.Edit, startGravity, endGravity Gravity) buffer.Range {
	start := TransformOffset(r.Start, edit, startGravity)
	end := TransformOffset(r.End, edit, endGravity)
	if start > end {
		start, end = end, start
	}
	return buffer.Range{Start: start, End: end}
}
