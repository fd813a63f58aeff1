package arrange

import (
	"github.com/matzehuels/cutline/pkg/timeline"
)

// TryInsertSpace shifts every item that ends after at by offset frames in
// one commit, opening a gap when offset is positive and closing one when it
// is negative.
//
// track limits the shift to a single track; 0 shifts all tracks and skips
// the locked ones, while a locked track named explicitly rejects the
// operation. On a single track, a clip covering at moves whole: the gap
// opens at that clip's start. Closing a gap is rejected when a shifted
// item would overlap an item that stays put or start before frame zero.
func (e *Engine) TryInsertSpace(track int, at, offset timeline.Frame) Result {
	if track < 0 || track > e.tracks.TrackCount() {
		return e.reject(OpInsertSpace, ReasonOutOfBounds)
	}
	if track != 0 && e.tracks.IsLocked(track) {
		return e.reject(OpInsertSpace, ReasonLockedTrack)
	}
	if offset == 0 {
		return e.unchanged(OpInsertSpace)
	}
	at = max(at, 0)
	if track != 0 {
		if hits := e.idx.Query(track, timeline.KindClip, timeline.Span{Start: at, Duration: 1}); len(hits) > 0 {
			at = hits[0].Span.Start
		}
	}

	var moved []timeline.Item
	for _, it := range e.tl.Items() {
		if track != 0 && it.Track != track {
			continue
		}
		if e.tracks.IsLocked(it.Track) || it.Span.End() <= at {
			continue
		}
		moved = append(moved, it)
	}
	if len(moved) == 0 {
		return e.unchanged(OpInsertSpace)
	}
	ids := idsOf(moved)
	if res, ok := e.checkMembersIndexed(OpInsertSpace, moved); !ok {
		return res
	}

	shifted := make(map[timeline.ItemID]bool, len(moved))
	for _, it := range moved {
		shifted[it.ID] = true
	}
	skip := func(id timeline.ItemID) bool { return shifted[id] }

	ps := make([]ItemPlacement, len(moved))
	for i, it := range moved {
		before := it.Placement()
		after := before.Shift(offset, 0)
		if after.Span.Start < 0 {
			return e.reject(OpInsertSpace, ReasonOutOfBounds, ids...)
		}
		if len(e.idx.QueryFunc(it.Track, it.Kind, after.Span, skip)) > 0 {
			return e.reject(OpInsertSpace, ReasonCollision, ids...)
		}
		ps[i] = ItemPlacement{ID: it.ID, Before: before, After: after}
	}
	return e.commit(OpInsertSpace, ps)
}
