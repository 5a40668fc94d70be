package app

import (
	"fmt"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/texdoc"
)

// render draws the document, the overlays, and the status line. The
// bottom row is reserved for status.
func (a *App) render() {
	if a.screen == nil {
		return
	}
	a.screen.Clear()

	width, height := a.screen.Size()
	rows := height - 1
	if width <= 0 || rows <= 0 {
		a.screen.Show()
		return
	}

	cur := a.doc.OffsetToPoint(a.doc.Cursor())
	a.scrollTo(cur.Line, rows)

	hls := a.doc.Highlights()
	for row := 0; row < rows; row++ {
		line := a.topLine + uint32(row)
		if line >= a.doc.LineCount() {
			break
		}
		a.drawLine(row, line, width, hls)
	}

	a.drawStatus(rows, width, cur)

	if cur.Line >= a.topLine && cur.Line < a.topLine+uint32(rows) {
		a.screen.ShowCursor(a.visualColumn(cur.Line, a.doc.Cursor()), int(cur.Line-a.topLine))
	} else {
		a.screen.HideCursor()
	}

	a.screen.Show()
}

// scrollTo adjusts topLine so the given line is on screen.
func (a *App) scrollTo(line uint32, rows int) {
	if line < a.topLine {
		a.topLine = line
	}
	if line >= a.topLine+uint32(rows) {
		a.topLine = line - uint32(rows) + 1
	}
}

// drawLine renders one logical line, expanding tabs and applying
// overlay styles.
func (a *App) drawLine(row int, line uint32, width int, hls []*texdoc.Highlight) {
	tab := a.doc.TabWidth()
	off := a.doc.LineStartOffset(line)

	x := 0
	for _, r := range a.doc.LineText(line) {
		style := a.styleAt(off, hls)
		if r == '\t' {
			next := (x/tab + 1) * tab
			for ; x < next && x < width; x++ {
				a.screen.SetContent(x, row, ' ', nil, style)
			}
		} else {
			if x < width {
				a.screen.SetContent(x, row, r, nil, style)
			}
			x++
		}
		off += buffer.ByteOffset(utf8.RuneLen(r))
		if x >= width {
			return
		}
	}
}

// styleAt returns the style for the byte at off. Target overlays win
// over plain highlights; hidden text renders dimmed.
func (a *App) styleAt(off buffer.ByteOffset, hls []*texdoc.Highlight) tcell.Style {
	style := tcell.StyleDefault
	if a.doc.IsHidden(off) {
		style = style.Dim(true)
	}
	for _, h := range hls {
		if !h.Range().Contains(off) {
			continue
		}
		switch h.Style {
		case texdoc.StyleTarget:
			return style.Underline(true).Bold(true)
		case texdoc.StyleHighlight:
			style = style.Reverse(true)
		}
	}
	return style
}

// drawStatus renders the bottom status row.
func (a *App) drawStatus(row, width int, cur buffer.Point) {
	text := a.status
	if text == "" {
		mod := ""
		if a.doc.Modified() {
			mod = " [+]"
		}
		text = fmt.Sprintf("%s%s  %d,%d", a.path, mod, cur.Line+1, cur.Column+1)
	}

	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range text {
		if x >= width {
			break
		}
		a.screen.SetContent(x, row, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		a.screen.SetContent(x, row, ' ', nil, style)
	}
}

// visualColumn returns the screen column for a byte offset, accounting
// for tab expansion.
func (a *App) visualColumn(line uint32, off buffer.ByteOffset) int {
	tab := a.doc.TabWidth()
	pos := a.doc.LineStartOffset(line)

	x := 0
	for _, r := range a.doc.LineText(line) {
		if pos >= off {
			break
		}
		if r == '\t' {
			x = (x/tab + 1) * tab
		} else {
			x++
		}
		pos += buffer.ByteOffset(utf8.RuneLen(r))
	}
	return x
}
