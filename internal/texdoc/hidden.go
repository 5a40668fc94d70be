package texdoc

import (
	"github.com/dshills/refwalk/internal/engine/buffer"
	"github.com/dshills/refwalk/internal/engine/marker"
)

// Hide marks a span as hidden, as a folded section would be.
func (d *Document) Hide(r buffer.Range) {
	root := d.root()
	region := root.markers.CreateRegion(r)

	root.mu.Lock()
	root.hidden = append(root.hidden, region)
	root.mu.Unlock()
}

// IsHidden returns true if the offset lies inside a hidden span.
// Both span boundaries count as inside, so a position at the edge of a
// fold is still treated as hidden.
func (d *Document) IsHidden(off buffer.ByteOffset) bool {
	root := d.root()
	root.mu.Lock()
	defer root.mu.Unlock()

	for _, region := range root.hidden {
		r := region.Range()
		if off >= r.Start && off <= r.End {
			return true
		}
	}
	return false
}

// RevealAt removes every hidden span containing the offset.
func (d *Document) RevealAt(off buffer.ByteOffset) {
	root := d.root()
	root.mu.Lock()
	kept := root.hidden[:0]
	var revealed []*marker.Region
	for _, region := range root.hidden {
		r := region.Range()
		if off >= r.Start && off <= r.End {
			revealed = append(revealed, region)
		} else {
			kept = append(kept, region)
		}
	}
	root.hidden = kept
	root.mu.Unlock()

	for _, region := range revealed {
		region.Release()
	}
}
