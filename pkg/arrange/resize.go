package arrange

import (
	"github.com/matzehuels/cutline/pkg/timeline"
)

// TryResizeStart moves an item's in point to frame, keeping its out point.
//
// For clips the crop start follows the edge. A bounded source cannot be
// cropped before its first frame, so extending past it is clamped there;
// a clamp that leaves nothing to do is rejected as INVALID_CROP. A result
// shorter than one frame is rejected, as is a new start that would overlap
// a preceding same-kind item.
func (e *Engine) TryResizeStart(id timeline.ItemID, frame timeline.Frame) Result {
	it, ok := e.tl.Item(id)
	if !ok {
		return e.reject(OpResizeStart, ReasonNotFound)
	}
	cur := it.Placement()
	if frame == cur.Span.Start {
		return e.unchanged(OpResizeStart, id)
	}
	if e.tracks.IsLocked(cur.Track) {
		return e.reject(OpResizeStart, ReasonLockedTrack, id)
	}

	e.drag(id)
	frame = max(e.SnapFrame(frame), 0)
	delta := frame - cur.Span.Start
	if delta == 0 {
		return e.unchanged(OpResizeStart, id)
	}
	delta, reason := e.clampStartDelta(it, delta)
	if reason != ReasonNone {
		return e.reject(OpResizeStart, reason, id)
	}
	if cur.Span.Duration-delta < 1 {
		return e.reject(OpResizeStart, ReasonDurationTooSmall, id)
	}

	next := resizedStart(it, delta)
	if len(e.idx.Query(next.Track, it.Kind, next.Span, id)) > 0 {
		return e.reject(OpResizeStart, ReasonCollision, id)
	}

	res := e.commit(OpResizeStart, []ItemPlacement{{ID: id, Before: cur, After: next}})
	if res.Committed() {
		e.clampKeyframes(it.WithPlacement(next))
	}
	return res
}

// clampStartDelta limits a start delta so a clip's crop never begins
// before its source. Unbounded sources have no lower crop limit beyond
// zero, which resizedStart enforces without limiting the span.
func (e *Engine) clampStartDelta(it timeline.Item, delta timeline.Frame) (timeline.Frame, Reason) {
	if !it.IsClip() || delta >= 0 {
		return delta, ReasonNone
	}
	if _, bounded := e.maxDuration(it.ID); !bounded {
		return delta, ReasonNone
	}
	if it.CropStart+delta < 0 {
		delta = -it.CropStart
	}
	if delta == 0 {
		return 0, ReasonInvalidCrop
	}
	return delta, ReasonNone
}

func resizedStart(it timeline.Item, delta timeline.Frame) timeline.Placement {
	p := it.Placement()
	p.Span = timeline.Span{Start: p.Span.Start + delta, Duration: p.Span.Duration - delta}
	if it.IsClip() {
		p.CropStart = max(p.CropStart+delta, 0)
	}
	return p
}

// TryResizeEnd moves an item's out point to frame, keeping its in point.
//
// A result shorter than one frame is rejected. A bounded clip cannot
// extend past the end of its source; the extension is clamped there. When
// extending, the new end is trimmed to the start of the next same-kind
// item on the track so the neighbor is never displaced.
func (e *Engine) TryResizeEnd(id timeline.ItemID, frame timeline.Frame) Result {
	it, ok := e.tl.Item(id)
	if !ok {
		return e.reject(OpResizeEnd, ReasonNotFound)
	}
	cur := it.Placement()
	if frame == cur.Span.End() {
		return e.unchanged(OpResizeEnd, id)
	}
	if e.tracks.IsLocked(cur.Track) {
		return e.reject(OpResizeEnd, ReasonLockedTrack, id)
	}

	e.drag(id)
	delta := e.SnapFrame(frame) - cur.Span.End()
	if delta == 0 {
		return e.unchanged(OpResizeEnd, id)
	}
	if cur.Span.Duration+delta < 1 {
		return e.reject(OpResizeEnd, ReasonDurationTooSmall, id)
	}
	if delta > 0 {
		var reason Reason
		delta, reason = e.clampEndDelta(it, delta)
		if reason != ReasonNone {
			return e.reject(OpResizeEnd, reason, id)
		}
	}

	next := cur
	next.Span.Duration += delta
	res := e.commit(OpResizeEnd, []ItemPlacement{{ID: id, Before: cur, After: next}})
	if res.Committed() {
		e.clampKeyframes(it.WithPlacement(next))
	}
	return res
}

// clampEndDelta limits a positive end delta to the source length and to
// the start of the next same-kind item on the track. A clamp down to zero
// is reported as the limiting reason.
func (e *Engine) clampEndDelta(it timeline.Item, delta timeline.Frame) (timeline.Frame, Reason) {
	if it.IsClip() {
		if maxDur, bounded := e.maxDuration(it.ID); bounded {
			delta = min(delta, maxDur-it.CropEnd())
			if delta <= 0 {
				return 0, ReasonOutOfBounds
			}
		}
	}
	if n, ok := e.idx.NextAfter(it.Track, it.Kind, it.Span.Start, it.ID); ok {
		delta = min(delta, n.Span.Start-it.Span.End())
		if delta <= 0 {
			return 0, ReasonCollision
		}
	}
	return delta, ReasonNone
}
