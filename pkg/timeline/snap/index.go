// Package snap provides the sorted set of "interesting" frames that drag
// input is attracted to.
//
// An [Index] is immutable once built; callers rebuild it whenever the item
// set or the selection changes. Points come from item boundaries, clip
// markers, guides and the playhead. Queries return the nearest point
// within a frame tolerance derived from the current zoom via [Tolerance].
package snap

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// Source identifies where a snap point came from.
type Source int

const (
	SourceItem Source = iota
	SourceMarker
	SourceGuide
	SourcePlayhead
	// SourceAlignEnd points are item boundaries shifted left by the extent
	// of the dragged selection, so the selection's end lands on them.
	SourceAlignEnd
)

func (s Source) String() string {
	switch s {
	case SourceItem:
		return "item"
	case SourceMarker:
		return "marker"
	case SourceGuide:
		return "guide"
	case SourcePlayhead:
		return "playhead"
	case SourceAlignEnd:
		return "align-end"
	}
	return "unknown"
}

// Point is a candidate frame with its origin.
type Point struct {
	Time   timeline.Frame
	Source Source
}

// Index is a sorted, de-duplicated set of snap points.
type Index struct {
	points []Point
}

// Build returns an index over points. When several points share a frame
// the one with the lowest Source value is kept. Negative frames are
// dropped.
func Build(points []Point) *Index {
	ps := slices.DeleteFunc(slices.Clone(points), func(p Point) bool { return p.Time < 0 })
	slices.SortFunc(ps, func(a, b Point) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
	ps = slices.CompactFunc(ps, func(a, b Point) bool { return a.Time == b.Time })
	return &Index{points: ps}
}

// Empty returns an index with no points.
func Empty() *Index { return &Index{} }

// Len returns the number of points.
func (x *Index) Len() int { return len(x.points) }

// Points returns a copy of the points in ascending order.
func (x *Index) Points() []Point { return slices.Clone(x.points) }

// Nearest returns the point closest to t if it lies within tolerance
// frames. Ties go to the earlier point.
func (x *Index) Nearest(t, tolerance timeline.Frame) (Point, bool) {
	if len(x.points) == 0 || tolerance < 0 {
		return Point{}, false
	}
	i := x.search(t)
	best, found := Point{}, false
	var bestDist timeline.Frame
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(x.points) {
			continue
		}
		d := absFrame(x.points[j].Time - t)
		if d > tolerance {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = x.points[j], d, true
		}
	}
	return best, found
}

// Previous returns the last point strictly before t.
func (x *Index) Previous(t timeline.Frame) (Point, bool) {
	i := x.search(t)
	if i == 0 {
		return Point{}, false
	}
	return x.points[i-1], true
}

// Next returns the first point strictly after t.
func (x *Index) Next(t timeline.Frame) (Point, bool) {
	i := x.search(t)
	if i < len(x.points) && x.points[i].Time == t {
		i++
	}
	if i >= len(x.points) {
		return Point{}, false
	}
	return x.points[i], true
}

// search returns the index of the first point at or after t.
func (x *Index) search(t timeline.Frame) int {
	i, _ := slices.BinarySearchFunc(x.points, t, func(p Point, f timeline.Frame) int {
		return cmp.Compare(p.Time, f)
	})
	return i
}

// Tolerance converts a pixel snap distance into frames at the given zoom
// (pixels per frame). Zooming in yields a smaller frame tolerance. A
// non-positive zoom disables snapping by returning -1.
func Tolerance(px int, pixelsPerFrame float64) timeline.Frame {
	if pixelsPerFrame <= 0 || px < 0 {
		return -1
	}
	return timeline.Frame(math.Floor(float64(px) / pixelsPerFrame))
}

func absFrame(f timeline.Frame) timeline.Frame {
	if f < 0 {
		return -f
	}
	return f
}
