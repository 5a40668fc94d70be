package marker

import "github.com/dshills/refwalk/internal/engine/buffer"

// Region tracks a span of text through edits using a marker pair.
type Region struct {
	start *Marker
	end   *Marker
}

// CreateRegion adds a region tracking an existing span of text.
// Text inserted exactly at either boundary falls outside the region.
func (s *Set) CreateRegion(r buffer.Range) *Region {
	return &Region{
		start: s.Create(r.Start, GravityRight),
		end:   s.Create(r.End, GravityLeft),
	}
}

// CreateInsertionRegion adds an empty region at the given offset that
// grows to cover text inserted at it. This is the shape used for a spot
// that is about to receive content.
func (s *Set) CreateInsertionRegion(offset buffer.ByteOffset) *Region {
	return &Region{
		start: s.Create(offset, GravityLeft),
		end:   s.Create(offset, GravityRight),
	}
}

// Range returns the region's current span.
// The result is normalized so Start <= End.
func (r *Region) Range() buffer.Range {
	start := r.start.Offset()
	end := r.end.Offset()
	if start > end {
		start, end = end, start
	}
	return buffer.Range{Start: start, End: end}
}

// Start returns the region's current start offset.
func (r *Region) Start() buffer.ByteOffset {
	return r.Range().Start
}

// End returns the region's current end offset.
func (r *Region) End() buffer.ByteOffset {
	return r.Range().End
}

// IsEmpty returns true if the region currently has zero length.
func (r *Region) IsEmpty() bool {
	return r.Range().IsEmpty()
}

// Released returns true if the region's markers have been released.
func (r *Region) Released() bool {
	return r.start.Released()
}

// Release frees both markers. Release is idempotent.
func (r *Region) Release() {
	r.start.Release()
	r.end.Release()
}
