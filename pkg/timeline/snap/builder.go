package snap

import (
	"slices"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// FromItems collects snap points from items, skipping any whose ID is in
// exclude. Each remaining item contributes its start, its end and its
// in-crop markers. When exclude is non-empty and extent > 0, every
// contributed frame b with b > extent also yields b-extent as an
// align-end point; extra points are offset the same way.
func FromItems(items []timeline.Item, exclude []timeline.ItemID, extent timeline.Frame, extra []Point) []Point {
	align := len(exclude) > 0 && extent > 0
	var out []Point
	add := func(t timeline.Frame, src Source) {
		out = append(out, Point{Time: t, Source: src})
		if align && t > extent {
			out = append(out, Point{Time: t - extent, Source: SourceAlignEnd})
		}
	}
	for _, it := range items {
		if slices.Contains(exclude, it.ID) {
			continue
		}
		add(it.Span.Start, SourceItem)
		add(it.Span.End(), SourceItem)
		for _, m := range it.TimelineMarkers() {
			add(m, SourceMarker)
		}
	}
	for _, p := range extra {
		add(p.Time, p.Source)
	}
	return out
}
