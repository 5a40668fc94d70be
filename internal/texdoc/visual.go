package texdoc

import "github.com/dshills/refwalk/internal/engine/buffer"

// VisualLineBounds returns a boundary of the visual line offsetLines
// away from the one containing pos. Zero or negative offsets return the
// start of the target line; positive offsets return its end. The target
// is clamped to the document.
//
// With a wrap width configured, visual lines are the soft-wrapped rows
// of wrapWidth bytes; otherwise they are the logical lines.
func (d *Document) VisualLineBounds(pos buffer.ByteOffset, offsetLines int) buffer.ByteOffset {
	if pos < 0 {
		pos = 0
	}
	if n := d.buf.Len(); pos > n {
		pos = n
	}

	if d.wrapWidth <= 0 {
		return d.logicalLineBounds(pos, offsetLines)
	}
	return d.wrappedLineBounds(pos, offsetLines)
}

func (d *Document) logicalLineBounds(pos buffer.ByteOffset, offsetLines int) buffer.ByteOffset {
	line := int(d.buf.OffsetToPoint(pos).Line) + offsetLines
	if line < 0 {
		line = 0
	}
	if last := int(d.buf.LineCount()) - 1; line > last {
		line = last
	}

	if offsetLines > 0 {
		return d.buf.LineEndOffset(uint32(line))
	}
	return d.buf.LineStartOffset(uint32(line))
}

func (d *Document) wrappedLineBounds(pos buffer.ByteOffset, offsetLines int) buffer.ByteOffset {
	p := d.buf.OffsetToPoint(pos)
	line := p.Line
	row := int(p.Column) / d.wrapWidth
	if rows := d.rowsInLine(line); row >= rows {
		row = rows - 1
	}

	for steps := offsetLines; steps < 0; steps++ {
		if row > 0 {
			row--
		} else if line > 0 {
			line--
			row = d.rowsInLine(line) - 1
		} else {
			break
		}
	}
	for steps := offsetLines; steps > 0; steps-- {
		if row < d.rowsInLine(line)-1 {
			row++
		} else if line+1 < d.buf.LineCount() {
			line++
			row = 0
		} else {
			break
		}
	}

	rowStart := d.buf.LineStartOffset(line) + buffer.ByteOffset(row*d.wrapWidth)
	if offsetLines > 0 {
		rowEnd := rowStart + buffer.ByteOffset(d.wrapWidth)
		if end := d.buf.LineEndOffset(line); rowEnd > end {
			rowEnd = end
		}
		return rowEnd
	}
	return rowStart
}

// rowsInLine returns how many wrapped rows a logical line occupies.
// An empty line is one row.
func (d *Document) rowsInLine(line uint32) int {
	n := d.buf.LineLen(line)
	if n == 0 {
		return 1
	}
	return (n + d.wrapWidth - 1) / d.wrapWidth
}
