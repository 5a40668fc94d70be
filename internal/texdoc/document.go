package texdoc

import (
	"sync"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/engine/marker"
)

// DefaultRefCommands lists the reference commands recognized by the
// in-argument check when none are configured.
var DefaultRefCommands = []string{"ref", "eqref", "pageref", "autoref", "cref", "Cref"}

// Document is a LaTeX document handle.
// It owns the text buffer, the marker set, the cursor, and the
// session-facing collaborator surface. A Document is either a base or a
// read-only clone of one; clones share the base's text and markers.
type Document struct {
	buf     *buffer.Buffer
	markers *marker.Set
	cursor  *marker.Marker

	path        string
	wrapWidth   int
	tabWidth    int
	refCommands []string
	readOnly    bool
	base        *Document // nil for base documents

	mu         sync.Mutex
	clones     int
	closed     bool
	modified   bool
	tx         *Transaction
	highlights map[string]*Highlight
	history    []*marker.Marker
	hidden     []*marker.Region
	statusFn   func(string)
}

// Option is a functional option for configuring a Document.
type Option func(*Document)

// WithPath records the file path the document was loaded from.
func WithPath(path string) Option {
	return func(d *Document) { d.path = path }
}

// WithWrapWidth enables soft wrapping at the given byte column for
// visual line bounds. Zero or negative disables wrapping.
func WithWrapWidth(width int) Option {
	return func(d *Document) { d.wrapWidth = width }
}

// WithRefCommands sets the reference commands recognized by InRefArgument.
func WithRefCommands(cmds []string) Option {
	return func(d *Document) {
		if len(cmds) > 0 {
			d.refCommands = cmds
		}
	}
}

// WithStatusFunc sets the sink for status messages.
func WithStatusFunc(fn func(string)) Option {
	return func(d *Document) { d.statusFn = fn }
}

// WithTabWidth sets the tab width used for display.
func WithTabWidth(width int) Option {
	return func(d *Document) { d.tabWidth = width }
}

// NewFromString creates a base document with the given content.
// Line endings are detected from the content and normalized.
func NewFromString(text string, opts ...Option) *Document {
	d := &Document{
		markers:     marker.NewSet(),
		refCommands: DefaultRefCommands,
		highlights:  make(map[string]*Highlight),
		tabWidth:    4,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.buf = buffer.NewBufferFromString(text,
		buffer.WithDetectedLineEnding(text),
		buffer.WithTabWidth(d.tabWidth),
	)
	d.cursor = d.markers.Create(0, marker.GravityRight)
	return d
}

// Path returns the file path the document was loaded from, if any.
func (d *Document) Path() string { return d.path }

// ReadOnly returns true for read-only clones.
func (d *Document) ReadOnly() bool { return d.readOnly }

// IsClone returns true if this document is a clone of a base document.
func (d *Document) IsClone() bool { return d.base != nil }

// WrapWidth returns the soft wrap width, or 0 when wrapping is off.
func (d *Document) WrapWidth() int { return d.wrapWidth }

// Read Operations

// Text returns the full document content.
func (d *Document) Text() string { return d.buf.Text() }

// TextRange returns the text in the given range.
func (d *Document) TextRange(r buffer.Range) string {
	return d.buf.TextRange(r.Start, r.End)
}

// Len returns the document length in bytes.
func (d *Document) Len() buffer.ByteOffset { return d.buf.Len() }

// LineCount returns the number of lines.
func (d *Document) LineCount() uint32 { return d.buf.LineCount() }

// LineText returns the text of a line without its terminator.
func (d *Document) LineText(line uint32) string { return d.buf.LineText(line) }

// LineStartOffset returns the offset of the first byte of a line.
func (d *Document) LineStartOffset(line uint32) buffer.ByteOffset {
	return d.buf.LineStartOffset(line)
}

// LineEndOffset returns the offset past the last content byte of a line.
func (d *Document) LineEndOffset(line uint32) buffer.ByteOffset {
	return d.buf.LineEndOffset(line)
}

// ByteAt returns the byte at the given offset.
func (d *Document) ByteAt(off buffer.ByteOffset) (byte, bool) { return d.buf.ByteAt(off) }

// RuneAt returns the rune at the given byte offset and its size.
func (d *Document) RuneAt(off buffer.ByteOffset) (rune, int) { return d.buf.RuneAt(off) }

// OffsetToPoint converts a byte offset to a line/column point.
func (d *Document) OffsetToPoint(off buffer.ByteOffset) buffer.Point {
	return d.buf.OffsetToPoint(off)
}

// PointToOffset converts a line/column point to a byte offset.
func (d *Document) PointToOffset(p buffer.Point) buffer.ByteOffset {
	return d.buf.PointToOffset(p)
}

// RevisionID returns the buffer's current revision.
func (d *Document) RevisionID() buffer.RevisionID { return d.buf.RevisionID() }

// TabWidth returns the tab width used for display.
func (d *Document) TabWidth() int { return d.buf.TabWidth() }

// LineEnding returns the buffer's line ending style.
func (d *Document) LineEnding() buffer.LineEnding { return d.buf.LineEnding() }

// Modified reports whether the document changed since load or last save.
func (d *Document) Modified() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.modified
}

// MarkSaved clears the modified flag.
func (d *Document) MarkSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modified = false
}

// Cursor

// Cursor returns the document's cursor offset.
func (d *Document) Cursor() buffer.ByteOffset { return d.cursor.Offset() }

// SetCursor moves the cursor, clamping to the document bounds.
func (d *Document) SetCursor(off buffer.ByteOffset) {
	if off < 0 {
		off = 0
	}
	if n := d.buf.Len(); off > n {
		off = n
	}
	d.cursor.MoveTo(off)
}

// Mutation

// Insert inserts text at the given offset and returns a region tracking
// the inserted span. The region grows and shifts with later edits.
func (d *Document) Insert(off buffer.ByteOffset, text string) (*marker.Region, error) {
	if d.readOnly {
		return nil, ErrReadOnly
	}

	region := d.markers.CreateInsertionRegion(off)
	if _, err := d.applyEdit(buffer.NewInsert(off, text)); err != nil {
		region.Release()
		return nil, err
	}
	return region, nil
}

// Replace replaces the text in a range.
func (d *Document) Replace(r buffer.Range, text string) error {
	if d.readOnly {
		return ErrReadOnly
	}

	_, err := d.applyEdit(buffer.NewEdit(r, text))
	return err
}

// Delete removes the text in a range.
func (d *Document) Delete(r buffer.Range) error {
	return d.Replace(r, "")
}

// applyEdit routes one edit through the buffer and replays it over the
// marker set. Markers are transformed with the normalized text so their
// lengths agree with what the buffer actually stored.
func (d *Document) applyEdit(edit buffer.Edit) (buffer.EditResult, error) {
	res, err := d.buf.ApplyEdit(edit)
	if err != nil {
		return res, err
	}

	d.markers.Apply(buffer.Edit{Range: res.OldRange, NewText: res.NewText})

	d.mu.Lock()
	d.modified = true
	d.mu.Unlock()
	return res, nil
}

// Regions

// CreateRegion returns a marker-backed region tracking an existing span.
func (d *Document) CreateRegion(r buffer.Range) *marker.Region {
	return d.markers.CreateRegion(r)
}

// CreateInsertionRegion returns an empty region at the given offset that
// grows to cover text inserted at it.
func (d *Document) CreateInsertionRegion(off buffer.ByteOffset) *marker.Region {
	return d.markers.CreateInsertionRegion(off)
}

// MarkerCount returns the number of live markers on the document.
// Clones share the base's markers, so the count is document-wide.
func (d *Document) MarkerCount() int { return d.markers.Len() }

// Clones

// CloneReadOnly returns a read-only clone sharing this document's text
// and markers. The clone has its own cursor, initialized to the base
// cursor. Callers own the clone and must Close it.
func (d *Document) CloneReadOnly() *Document {
	base := d
	if d.base != nil {
		base = d.base
	}

	base.mu.Lock()
	base.clones++
	base.mu.Unlock()

	clone := &Document{
		buf:         base.buf,
		markers:     base.markers,
		path:        base.path,
		wrapWidth:   base.wrapWidth,
		refCommands: base.refCommands,
		readOnly:    true,
		base:        base,
	}
	clone.cursor = base.markers.Create(d.Cursor(), marker.GravityRight)
	return clone
}

// OpenClones returns the number of clones not yet closed.
func (d *Document) OpenClones() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clones
}

// Close releases the document. Closing a clone releases its cursor and
// decrements the base's clone count; closing a base requires all clones
// to be closed first. Close is idempotent for clones.
func (d *Document) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	if d.base != nil {
		d.cursor.Release()
		d.base.mu.Lock()
		d.base.clones--
		d.base.mu.Unlock()
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clones > 0 {
		d.closed = false
		return ErrClonesOpen
	}
	d.cursor.Release()
	return nil
}
