package app

import (
	"unicode/utf8"

	"github.com/dshills/refwalk/internal/engine/buffer"
)

// Editing primitives. The document cursor has right gravity, so it
// lands after inserted text on its own.

func (a *App) insertText(text string) {
	region, err := a.doc.Insert(a.doc.Cursor(), text)
	if err != nil {
		a.log.Error().Err(err).Msg("insert failed")
		return
	}
	region.Release()
}

func (a *App) deleteBackward() {
	cur := a.doc.Cursor()
	if cur == 0 {
		return
	}
	start := a.prevRuneStart(cur)
	if err := a.doc.Delete(buffer.NewRange(start, cur)); err != nil {
		a.log.Error().Err(err).Msg("delete failed")
	}
}

func (a *App) deleteForward() {
	cur := a.doc.Cursor()
	if cur >= a.doc.Len() {
		return
	}
	_, size := a.doc.RuneAt(cur)
	if size == 0 {
		size = 1
	}
	if err := a.doc.Delete(buffer.NewRange(cur, cur+buffer.ByteOffset(size))); err != nil {
		a.log.Error().Err(err).Msg("delete failed")
	}
}

// prevRuneStart returns the offset of the rune ending at off.
func (a *App) prevRuneStart(off buffer.ByteOffset) buffer.ByteOffset {
	start := off - 1
	for start > 0 {
		b, ok := a.doc.ByteAt(start)
		if ok && !utf8.RuneStart(b) {
			start--
			continue
		}
		break
	}
	return start
}

// Cursor movement

func (a *App) moveHorizontal(dir int) {
	cur := a.doc.Cursor()
	if dir < 0 {
		if cur > 0 {
			a.doc.SetCursor(a.prevRuneStart(cur))
		}
		return
	}
	if cur < a.doc.Len() {
		_, size := a.doc.RuneAt(cur)
		if size == 0 {
			size = 1
		}
		a.doc.SetCursor(cur + buffer.ByteOffset(size))
	}
}

func (a *App) moveVertical(lines int) {
	p := a.doc.OffsetToPoint(a.doc.Cursor())
	target := int(p.Line) + lines
	if target < 0 {
		target = 0
	}
	if last := int(a.doc.LineCount()) - 1; target > last {
		target = last
	}
	// PointToOffset clamps the column to the target line's length
	a.doc.SetCursor(a.doc.PointToOffset(buffer.Point{Line: uint32(target), Column: p.Column}))
}

func (a *App) moveLineStart() {
	p := a.doc.OffsetToPoint(a.doc.Cursor())
	a.doc.SetCursor(a.doc.LineStartOffset(p.Line))
}

func (a *App) moveLineEnd() {
	p := a.doc.OffsetToPoint(a.doc.Cursor())
	a.doc.SetCursor(a.doc.LineEndOffset(p.Line))
}

func (a *App) movePage(dir int) {
	page := a.pageLines()
	a.moveVertical(dir * page)
}

// pageLines returns the number of text rows on screen, minus one line
// of overlap for orientation.
func (a *App) pageLines() int {
	if a.screen == nil {
		return 20
	}
	_, h := a.screen.Size()
	if h <= 2 {
		return 1
	}
	return h - 2
}
