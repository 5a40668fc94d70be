package texdoc

import (
	"sort"

	"github.com/google/uuid"

	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/engine/marker"
)

// Style tags a highlight for rendering.
type Style string

const (
	// StyleHighlight marks the live insertion at point.
	StyleHighlight Style = "highlight"
	// StyleTarget marks the current candidate span.
	StyleTarget Style = "target"
)

// Highlight is one active overlay on the document.
type Highlight struct {
	ID     string
	Style  Style
	region *marker.Region
}

// Range returns the highlight's current span.
func (h *Highlight) Range() buffer.Range { return h.region.Range() }

// root returns the base document. Overlays, status, history, and hidden
// regions live on the base; calls on a clone operate on its base.
func (d *Document) root() *Document {
	if d.base != nil {
		return d.base
	}
	return d
}

// Highlight adds an overlay over the given range and returns an opaque
// handle for clearing it. The overlay tracks edits.
func (d *Document) Highlight(r buffer.Range, style Style) string {
	root := d.root()
	h := &Highlight{
		ID:     uuid.New().String(),
		Style:  style,
		region: root.markers.CreateRegion(r),
	}

	root.mu.Lock()
	root.highlights[h.ID] = h
	root.mu.Unlock()
	return h.ID
}

// ClearHighlight removes the overlay with the given handle.
// Unknown handles are ignored.
func (d *Document) ClearHighlight(id string) {
	root := d.root()
	root.mu.Lock()
	h, ok := root.highlights[id]
	if ok {
		delete(root.highlights, id)
	}
	root.mu.Unlock()

	if ok {
		h.region.Release()
	}
}

// ClearAllHighlights removes every overlay.
func (d *Document) ClearAllHighlights() {
	root := d.root()
	root.mu.Lock()
	cleared := make([]*Highlight, 0, len(root.highlights))
	for id, h := range root.highlights {
		cleared = append(cleared, h)
		delete(root.highlights, id)
	}
	root.mu.Unlock()

	for _, h := range cleared {
		h.region.Release()
	}
}

// Highlights returns the active overlays ordered by position.
func (d *Document) Highlights() []*Highlight {
	root := d.root()
	root.mu.Lock()
	out := make([]*Highlight, 0, len(root.highlights))
	for _, h := range root.highlights {
		out = append(out, h)
	}
	root.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Range(), out[j].Range()
		if ri.Start != rj.Start {
			return ri.Start < rj.Start
		}
		return ri.End < rj.End
	})
	return out
}

// HighlightCount returns the number of active overlays.
func (d *Document) HighlightCount() int {
	root := d.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return len(root.highlights)
}

// SetStatusFunc sets the sink that ShowStatus writes to.
func (d *Document) SetStatusFunc(fn func(string)) {
	root := d.root()
	root.mu.Lock()
	root.statusFn = fn
	root.mu.Unlock()
}

// ShowStatus sends transient status text to the sink, if one is set.
func (d *Document) ShowStatus(text string) {
	root := d.root()
	root.mu.Lock()
	fn := root.statusFn
	root.mu.Unlock()

	if fn != nil {
		fn(text)
	}
}
