package arrange

import (
	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/timeline"
)

// groupRef is a group's reference position: its topmost track and the
// vertical pixel offset of that position inside the lane stack.
type groupRef struct {
	Track int
	Y     int
}

// reference returns the reference position of items. The reference track
// is the highest track index among the members. When only transitions sit
// on it, the transitions' sub-lane offset is added to the vertical
// position since they render in the lower part of the lane.
func (e *Engine) reference(items []timeline.Item) groupRef {
	top := 0
	for _, it := range items {
		top = max(top, it.Track)
	}
	offset := -1
	for _, it := range items {
		if it.Track != top {
			continue
		}
		o := it.Kind.SubLaneOffset(e.cfg.TrackHeight)
		if offset < 0 || o < offset {
			offset = o
		}
	}
	return groupRef{Track: top, Y: (top-1)*e.cfg.TrackHeight + max(offset, 0)}
}

func trackRange(items []timeline.Item) (lo, hi int) {
	lo, hi = items[0].Track, items[0].Track
	for _, it := range items[1:] {
		lo, hi = min(lo, it.Track), max(hi, it.Track)
	}
	return lo, hi
}

// TryGroupMove moves every member of a group by the same frame and track
// delta. Dragging any member of a nested group should target its root
// group (see timeline.Timeline.RootGroupOf).
//
// The group start is snapped and clamped to zero. The track delta is
// clamped so the whole group stays inside the track range, and dropped
// when any member would land on a locked track; the horizontal part of the
// move still applies and the result has VerticalDropped set. Collisions
// are resolved per kind, clips first, with one shared pushback correction
// for the whole group.
//
// The transition sub-lane offset never changes the destination of a
// whole-track delta; use TryGroupDrag to move by pointer travel instead.
func (e *Engine) TryGroupMove(gid timeline.GroupID, deltaFrames timeline.Frame, deltaTracks int) Result {
	return e.groupMove(OpGroupMove, gid, deltaFrames, deltaTracks*e.cfg.TrackHeight)
}

// TryGroupDrag is TryGroupMove with the vertical part given as pointer
// travel dy in pixels. The destination track is the lane containing the
// group's reference position moved by dy, positive toward higher tracks.
// A group whose top track holds only transitions starts from the
// transition sub-lane offset inside its lane, so less travel toward higher
// tracks and more toward lower ones is needed to change tracks than for a
// group topped by a clip.
func (e *Engine) TryGroupDrag(gid timeline.GroupID, deltaFrames timeline.Frame, dy int) Result {
	return e.groupMove(OpGroupDrag, gid, deltaFrames, dy)
}

func (e *Engine) groupMove(op string, gid timeline.GroupID, deltaFrames timeline.Frame, dy int) Result {
	items, err := e.groupItems(gid)
	if err != nil {
		return e.reject(op, ReasonNotFound)
	}
	ids := idsOf(items)
	if deltaFrames == 0 && dy == 0 {
		return e.unchanged(op, ids...)
	}
	if res, ok := e.checkMembersIndexed(op, items); !ok {
		return res
	}
	for _, it := range items {
		if e.tracks.IsLocked(it.Track) {
			return e.reject(op, ReasonLockedTrack, ids...)
		}
	}

	ext := extentOf(items)
	e.drag(ids...)
	deltaFrames = max(e.SnapFrame(ext.Start+deltaFrames), 0) - ext.Start

	lo, hi := trackRange(items)
	ref := e.reference(items)
	headroom := hi - lo + 1
	destTop := floorDiv(ref.Y+dy, e.cfg.TrackHeight) + 1
	deltaTracks := max(headroom, min(destTop, e.tracks.TrackCount())) - ref.Track

	dropped := false
	if deltaTracks != 0 {
		for _, it := range items {
			if e.tracks.IsLocked(it.Track + deltaTracks) {
				dropped, deltaTracks = true, 0
				break
			}
		}
	}
	noop := func() Result {
		if dropped {
			res := e.reject(op, ReasonLockedTrack, ids...)
			res.VerticalDropped = true
			return res
		}
		return e.unchanged(op, ids...)
	}
	if deltaFrames == 0 && deltaTracks == 0 {
		return noop()
	}

	members := make(map[timeline.ItemID]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	skip := func(id timeline.ItemID) bool { return members[id] }

	for _, kind := range timeline.Kinds {
		hits := e.groupHits(items, kind, deltaFrames, deltaTracks, skip)
		if len(hits) == 0 {
			continue
		}
		corr, ok := groupPushback(hits, deltaFrames)
		if !ok || ext.Start+deltaFrames+corr < 0 {
			return e.reject(op, ReasonCollision, ids...)
		}
		deltaFrames += corr
		if len(e.groupHits(items, kind, deltaFrames, deltaTracks, skip)) > 0 {
			return e.reject(op, ReasonCollision, ids...)
		}
	}
	// The transition pass may have shifted the group back onto a clip.
	if len(e.groupHits(items, timeline.KindClip, deltaFrames, deltaTracks, skip)) > 0 {
		return e.reject(op, ReasonCollision, ids...)
	}
	if deltaFrames == 0 && deltaTracks == 0 {
		return noop()
	}

	ps := make([]ItemPlacement, len(items))
	for i, it := range items {
		before := it.Placement()
		ps[i] = ItemPlacement{ID: it.ID, Before: before, After: before.Shift(deltaFrames, deltaTracks)}
	}
	res := e.commit(op, ps)
	res.VerticalDropped = dropped && res.Committed()
	return res
}

// hit pairs a translated member span with the span of an occupant it
// overlaps.
type hit struct {
	member   timeline.Span
	neighbor timeline.Span
}

func (e *Engine) groupHits(items []timeline.Item, kind timeline.ItemKind, df timeline.Frame, dt int, skip func(timeline.ItemID) bool) []hit {
	var out []hit
	for _, it := range items {
		if it.Kind != kind {
			continue
		}
		span := it.Span.Shift(df)
		for _, n := range e.idx.QueryFunc(it.Track+dt, kind, span, skip) {
			out = append(out, hit{member: span, neighbor: n.Span})
		}
	}
	return out
}

// groupPushback is pushback over a whole group: every member-occupant pair
// must be correctable in the direction of motion and the largest required
// shift wins, so all members move by the same corrected delta.
func groupPushback(hits []hit, delta timeline.Frame) (timeline.Frame, bool) {
	var shift timeline.Frame
	for _, h := range hits {
		switch {
		case delta > 0:
			if h.member.Start >= h.neighbor.Start {
				return 0, false
			}
			shift = min(shift, h.neighbor.Start-h.member.End())
		case delta < 0:
			if h.member.End() <= h.neighbor.End() {
				return 0, false
			}
			shift = max(shift, h.neighbor.End()-h.member.Start)
		default:
			return 0, false
		}
	}
	return shift, true
}

// checkMembersIndexed verifies that every group member is present in the
// collision index. A mismatch is a bug in the engine or in a caller that
// bypassed it.
func (e *Engine) checkMembersIndexed(op string, items []timeline.Item) (Result, bool) {
	indexed := 0
	for _, it := range items {
		if e.idx.Has(it.ID) {
			indexed++
		}
	}
	if indexed == len(items) && len(items) > 0 {
		return Result{}, true
	}
	e.logger.Error("group member count mismatch", "op", op, "members", len(items), "indexed", indexed)
	observability.Arrange().OnReject(op, ReasonInternal.String())
	return Result{Op: op, Status: StatusRejected, Reason: ReasonInternal, Placements: e.current(idsOf(items))}, false
}

// =============================================================================
// Group resize
// =============================================================================

// TryGroupResizeStart moves the in point of every clip in a group by delta
// frames. Transitions are left alone. Each clip's achievable delta is
// computed with the single-item rules, and the smallest one is applied to
// all clips so they stay aligned.
func (e *Engine) TryGroupResizeStart(gid timeline.GroupID, delta timeline.Frame) Result {
	return e.groupResize(OpGroupResizeStart, gid, delta, e.achievableStart, resizedStart)
}

// TryGroupResizeEnd moves the out point of every clip in a group by delta
// frames, in lockstep like TryGroupResizeStart.
func (e *Engine) TryGroupResizeEnd(gid timeline.GroupID, delta timeline.Frame) Result {
	return e.groupResize(OpGroupResizeEnd, gid, delta, e.achievableEnd, resizedEnd)
}

func (e *Engine) groupResize(
	op string,
	gid timeline.GroupID,
	delta timeline.Frame,
	achievable func(timeline.Item, timeline.Frame) (timeline.Frame, Reason),
	apply func(timeline.Item, timeline.Frame) timeline.Placement,
) Result {
	items, err := e.groupItems(gid)
	if err != nil {
		return e.reject(op, ReasonNotFound)
	}
	var clips []timeline.Item
	for _, it := range items {
		if it.IsClip() {
			clips = append(clips, it)
		}
	}
	if len(clips) == 0 {
		return e.reject(op, ReasonUnsupported, idsOf(items)...)
	}
	ids := idsOf(clips)
	if delta == 0 {
		return e.unchanged(op, ids...)
	}
	if res, ok := e.checkMembersIndexed(op, clips); !ok {
		return res
	}
	for _, c := range clips {
		if e.tracks.IsLocked(c.Track) {
			return e.reject(op, ReasonLockedTrack, ids...)
		}
	}

	common, limit := delta, ReasonNone
	for _, c := range clips {
		d, reason := achievable(c, delta)
		if absFrame(d) < absFrame(common) {
			common, limit = d, reason
		}
	}
	if common == 0 {
		return e.reject(op, limit, ids...)
	}

	ps := make([]ItemPlacement, len(clips))
	for i, c := range clips {
		ps[i] = ItemPlacement{ID: c.ID, Before: c.Placement(), After: apply(c, common)}
	}
	res := e.commit(op, ps)
	if res.Committed() {
		for i, c := range clips {
			e.clampKeyframes(c.WithPlacement(ps[i].After))
		}
	}
	return res
}

// achievableStart returns how far toward delta a clip's in point can move.
// Group members are not skipped: a member ahead on the same track keeps
// its end while this clip's start moves, so it limits the extension.
func (e *Engine) achievableStart(c timeline.Item, delta timeline.Frame) (timeline.Frame, Reason) {
	if delta > 0 {
		d := min(delta, c.Span.Duration-1)
		if d == 0 {
			return 0, ReasonDurationTooSmall
		}
		return d, ReasonNone
	}
	d := max(delta, -c.Span.Start)
	if d == 0 {
		return 0, ReasonOutOfBounds
	}
	if _, bounded := e.maxDuration(c.ID); bounded {
		d = max(d, -c.CropStart)
		if d == 0 {
			return 0, ReasonInvalidCrop
		}
	}
	if p, ok := e.idx.PrevBefore(c.Track, c.Kind, c.Span.Start, c.ID); ok {
		d = max(d, p.Span.End()-c.Span.Start)
		if d >= 0 {
			return 0, ReasonCollision
		}
	}
	return d, ReasonNone
}

func (e *Engine) achievableEnd(c timeline.Item, delta timeline.Frame) (timeline.Frame, Reason) {
	if delta < 0 {
		d := max(delta, -(c.Span.Duration - 1))
		if d == 0 {
			return 0, ReasonDurationTooSmall
		}
		return d, ReasonNone
	}
	return e.clampEndDelta(c, delta)
}

func resizedEnd(it timeline.Item, delta timeline.Frame) timeline.Placement {
	p := it.Placement()
	p.Span.Duration += delta
	return p
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func absFrame(f timeline.Frame) timeline.Frame {
	if f < 0 {
		return -f
	}
	return f
}
