package timeline

import "fmt"

// ItemID is the stable handle of an item inside a Timeline.
type ItemID int

// GroupID is the stable handle of a group inside a Timeline.
type GroupID int

// NoGroup is the GroupID of an ungrouped item or a root group's parent.
const NoGroup GroupID = 0

// ItemKind is the closed set of placeable item variants.
type ItemKind int

const (
	// KindClip is a piece of source media. Clips fill the whole lane height
	// and carry a crop into their source.
	KindClip ItemKind = iota
	// KindTransition blends two clips. Transitions sit in the lower third
	// of the lane and never collide with clips.
	KindTransition
)

func (k ItemKind) String() string {
	switch k {
	case KindClip:
		return "clip"
	case KindTransition:
		return "transition"
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// ParseItemKind maps "clip"/"transition" to an ItemKind.
func ParseItemKind(s string) (ItemKind, bool) {
	switch s {
	case "clip", "":
		return KindClip, true
	case "transition":
		return KindTransition, true
	}
	return KindClip, false
}

// Kinds lists every item kind in collision-test order.
var Kinds = []ItemKind{KindClip, KindTransition}

// SubLaneOffset returns the vertical offset, in pixels, of an item of
// this kind inside a lane of the given height.
func (k ItemKind) SubLaneOffset(trackHeight int) int {
	if k == KindTransition {
		return trackHeight/3*2 - 1
	}
	return 0
}

// Item is a clip or transition occupying one track.
//
// For clips, CropStart is the first source frame shown and the crop
// duration always equals Span.Duration. Transitions ignore CropStart.
type Item struct {
	ID        ItemID
	Kind      ItemKind
	Name      string
	Track     int
	Span      Span
	CropStart Frame

	// Markers are source-relative frames flagged on a clip. They become
	// snap points once mapped onto the timeline.
	Markers []Frame
}

// IsClip reports whether the item is a clip.
func (it Item) IsClip() bool { return it.Kind == KindClip }

// IsTransition reports whether the item is a transition.
func (it Item) IsTransition() bool { return it.Kind == KindTransition }

// CropDuration returns the number of source frames exposed by the item.
func (it Item) CropDuration() Frame { return it.Span.Duration }

// CropEnd returns the first source frame after the crop.
func (it Item) CropEnd() Frame { return it.CropStart + it.Span.Duration }

// Placement returns the item's current placement.
func (it Item) Placement() Placement {
	return Placement{Span: it.Span, Track: it.Track, CropStart: it.CropStart}
}

// WithPlacement returns a copy of the item moved to p.
func (it Item) WithPlacement(p Placement) Item {
	it.Span = p.Span
	it.Track = p.Track
	if it.Kind == KindClip {
		it.CropStart = p.CropStart
	}
	return it
}

// TimelineMarkers maps the item's source markers that fall inside the
// crop onto timeline frames.
func (it Item) TimelineMarkers() []Frame {
	var out []Frame
	for _, m := range it.Markers {
		if m < it.CropStart || m >= it.CropEnd() {
			continue
		}
		out = append(out, it.Span.Start+m-it.CropStart)
	}
	return out
}

func (it Item) String() string {
	name := it.Name
	if name == "" {
		name = fmt.Sprintf("#%d", it.ID)
	}
	return fmt.Sprintf("%s %s t%d %s", it.Kind, name, it.Track, it.Span)
}

// Placement is where an item sits: its span, its track, and for clips the
// crop start that goes with the span.
type Placement struct {
	Span      Span
	Track     int
	CropStart Frame
}

// Shift returns the placement moved by delta frames and trackDelta tracks.
// The crop is unchanged: moving never changes what part of the source is
// shown.
func (p Placement) Shift(delta Frame, trackDelta int) Placement {
	p.Span = p.Span.Shift(delta)
	p.Track += trackDelta
	return p
}

func (p Placement) String() string {
	return fmt.Sprintf("t%d %s crop@%d", p.Track, p.Span, p.CropStart)
}
