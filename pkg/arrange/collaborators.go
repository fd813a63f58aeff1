package arrange

import "github.com/matzehuels/cutline/pkg/timeline"

// KeyframeStore is the per-effect parameter store. After a committed
// resize the engine asks it to move keyframes that fell outside the new
// crop onto the nearest boundary.
type KeyframeStore interface {
	ClampKeyframesToRange(id timeline.ItemID, cropStart, cropEnd timeline.Frame)
}

// DurationProvider reports the native length of an item's source. ok is
// false for unbounded sources such as generated color or title clips.
type DurationProvider interface {
	MaxDuration(id timeline.ItemID) (frames timeline.Frame, ok bool)
}

// KeyframeFunc adapts a function to KeyframeStore.
type KeyframeFunc func(id timeline.ItemID, cropStart, cropEnd timeline.Frame)

func (f KeyframeFunc) ClampKeyframesToRange(id timeline.ItemID, cropStart, cropEnd timeline.Frame) {
	f(id, cropStart, cropEnd)
}

// DurationMap is a DurationProvider backed by a map. Missing IDs are
// unbounded.
type DurationMap map[timeline.ItemID]timeline.Frame

func (m DurationMap) MaxDuration(id timeline.ItemID) (timeline.Frame, bool) {
	d, ok := m[id]
	return d, ok
}

type noopKeyframes struct{}

func (noopKeyframes) ClampKeyframesToRange(timeline.ItemID, timeline.Frame, timeline.Frame) {}

type unbounded struct{}

func (unbounded) MaxDuration(timeline.ItemID) (timeline.Frame, bool) { return 0, false }
