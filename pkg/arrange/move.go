package arrange

import (
	"github.com/matzehuels/cutline/pkg/timeline"
	"github.com/matzehuels/cutline/pkg/timeline/collision"
)

// TryMove drags one item so that it starts at frame on track.
//
// The frame is snapped and clamped to zero and the track is clamped into
// range. A locked source or destination track rejects the move. A
// candidate that collides on a different track is rejected; on the same
// track it gets one pushback correction against the neighbor in the
// direction of motion and is rejected if it still collides.
//
// Moving an item to where it already is returns StatusUnchanged with the
// item's placement.
func (e *Engine) TryMove(id timeline.ItemID, frame timeline.Frame, track int) Result {
	it, ok := e.tl.Item(id)
	if !ok {
		return e.reject(OpMove, ReasonNotFound)
	}
	cur := it.Placement()
	if frame == cur.Span.Start && track == cur.Track {
		return e.unchanged(OpMove, id)
	}

	e.drag(id)
	t := max(e.SnapFrame(frame), 0)
	track = timeline.ClampTrack(track, e.tracks.TrackCount())
	if e.tracks.IsLocked(cur.Track) || e.tracks.IsLocked(track) {
		return e.reject(OpMove, ReasonLockedTrack, id)
	}

	cand := cur
	cand.Span.Start = t
	cand.Track = track
	if cand == cur {
		return e.unchanged(OpMove, id)
	}

	if hits := e.idx.Query(cand.Track, it.Kind, cand.Span, id); len(hits) > 0 {
		if cand.Track != cur.Track {
			return e.reject(OpMove, ReasonCollision, id)
		}
		span, ok := pushback(cand.Span, t-cur.Span.Start, hits)
		if !ok || span.Start < 0 {
			return e.reject(OpMove, ReasonCollision, id)
		}
		cand.Span = span
		if len(e.idx.Query(cand.Track, it.Kind, cand.Span, id)) > 0 {
			return e.reject(OpMove, ReasonCollision, id)
		}
		if cand == cur {
			return e.unchanged(OpMove, id)
		}
	}

	return e.commit(OpMove, []ItemPlacement{{ID: id, Before: cur, After: cand}})
}

// pushback computes the single corrective shift for a candidate that
// collides with hits while moving by delta. Moving forward, the candidate
// is pulled back so its end abuts the start of the first neighbor it hit;
// moving backward, it is pushed forward so its start abuts the end of the
// last one. The correction only applies while the candidate has not
// jumped past the neighbor's leading edge. ok is false otherwise.
func pushback(cand timeline.Span, delta timeline.Frame, hits []collision.Entry) (timeline.Span, bool) {
	switch {
	case delta > 0:
		n := hits[0].Span
		if cand.Start >= n.Start {
			return cand, false
		}
		return cand.Shift(-(cand.End() - n.Start)), true
	case delta < 0:
		n := hits[len(hits)-1].Span
		if cand.End() <= n.End() {
			return cand, false
		}
		return cand.Shift(n.End() - cand.Start), true
	}
	return cand, false
}
