package arrange

import (
	"fmt"
	"slices"

	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/timeline"
	"github.com/matzehuels/cutline/pkg/timeline/collision"
)

// MinCutDuration is the smallest left piece a cut produces. A cut at or
// before a clip's third frame still leaves this many frames on the left.
// It applies to cuts only; resizes use a one-frame floor.
const MinCutDuration timeline.Frame = 3

// cutPlan is a validated cut of one clip: the first left frames stay with
// the clip, the rest become a new item.
type cutPlan struct {
	it   timeline.Item
	left timeline.Frame
}

func planCut(it timeline.Item, frame timeline.Frame) (cutPlan, Reason) {
	left := max(frame-it.Span.Start, MinCutDuration)
	if it.Span.Duration-left < 1 {
		return cutPlan{}, ReasonDurationTooSmall
	}
	return cutPlan{it: it, left: left}, ReasonNone
}

// TryCut splits a clip at frame. The left piece keeps the item's ID and is
// at least MinCutDuration frames long; the right piece is a new clip that
// continues the crop and joins the same group. A cut that leaves no frames
// for the right piece is rejected.
func (e *Engine) TryCut(id timeline.ItemID, frame timeline.Frame) Result {
	it, ok := e.tl.Item(id)
	if !ok {
		return e.reject(OpCut, ReasonNotFound)
	}
	if !it.IsClip() {
		return e.reject(OpCut, ReasonUnsupported, id)
	}
	if e.tracks.IsLocked(it.Track) {
		return e.reject(OpCut, ReasonLockedTrack, id)
	}
	plan, reason := planCut(it, frame)
	if reason != ReasonNone {
		return e.reject(OpCut, reason, id)
	}

	ps, items, err := e.split(plan)
	if err != nil {
		cur := it.Placement()
		return e.internal(OpCut, []ItemPlacement{{ID: id, Before: cur, After: cur}}, err)
	}
	e.logger.Debug("committed", "op", OpCut, "item", id, "new", ps[1].ID, "at", ps[1].After.Span.Start)
	e.rebuildSnaps()
	observability.Arrange().OnCommit(OpCut, items)
	return Result{Op: OpCut, Status: StatusCommitted, Placements: ps}
}

// TryGroupCut cuts every clip of a group that spans frame, then splits the
// group in two: members starting before frame stay, the others move to a
// new root group named after the original with a ".2" suffix. Clips on
// locked tracks are left whole. If no clip spans frame the result is
// unchanged; if any spanning clip is too short to cut, nothing is cut.
func (e *Engine) TryGroupCut(gid timeline.GroupID, frame timeline.Frame) Result {
	items, err := e.groupItems(gid)
	if err != nil {
		return e.reject(OpGroupCut, ReasonNotFound)
	}
	ids := idsOf(items)
	if res, ok := e.checkMembersIndexed(OpGroupCut, items); !ok {
		return res
	}

	var plans []cutPlan
	for _, it := range items {
		if !it.IsClip() || e.tracks.IsLocked(it.Track) {
			continue
		}
		if it.Span.Start >= frame || it.Span.End() <= frame {
			continue
		}
		plan, reason := planCut(it, frame)
		if reason != ReasonNone {
			return e.reject(OpGroupCut, reason, ids...)
		}
		plans = append(plans, plan)
	}
	if len(plans) == 0 {
		return e.unchanged(OpGroupCut, ids...)
	}

	var ps []ItemPlacement
	var changed []timeline.Item
	for _, plan := range plans {
		p, its, err := e.split(plan)
		if err != nil {
			e.unsplit(ps)
			return e.internal(OpGroupCut, e.current(ids), err)
		}
		ps = append(ps, p...)
		changed = append(changed, its...)
	}

	g, _ := e.tl.GroupByID(gid)
	newGroup, err := e.tl.Split(gid, g.Name+".2", func(id timeline.ItemID) bool {
		it, _ := e.tl.Item(id)
		return it.Span.Start >= frame
	})
	if err != nil {
		e.logger.Error("group split failed", "group", gid, "err", err)
	}

	e.logger.Debug("committed", "op", OpGroupCut, "group", gid, "cuts", len(plans), "new_group", newGroup)
	e.rebuildSnaps()
	observability.Arrange().OnCommit(OpGroupCut, changed)
	return Result{Op: OpGroupCut, Status: StatusCommitted, Placements: ps, NewGroup: newGroup}
}

// split performs a planned cut and returns the placements of both pieces
// and their items. On failure the timeline and index are left as they were.
func (e *Engine) split(c cutPlan) ([]ItemPlacement, []timeline.Item, error) {
	it := c.it
	cur := it.Placement()
	leftP := cur
	leftP.Span.Duration = c.left
	piece := timeline.Item{
		Kind:      timeline.KindClip,
		Name:      it.Name,
		Track:     it.Track,
		Span:      timeline.Span{Start: cur.Span.Start + c.left, Duration: cur.Span.Duration - c.left},
		CropStart: cur.CropStart + c.left,
		Markers:   slices.Clone(it.Markers),
	}

	// Shrinking never collides, and the right piece takes over the frames
	// the left piece released.
	if err := e.idx.Commit([]collision.Entry{collision.EntryOf(it.WithPlacement(leftP))}); err != nil {
		return nil, nil, err
	}
	_ = e.tl.SetPlacement(it.ID, leftP)
	newID, err := e.tl.AddItem(piece)
	if err == nil {
		piece, _ = e.tl.Item(newID)
		err = e.idx.Insert(collision.EntryOf(piece))
	}
	if err != nil {
		_ = e.idx.Commit([]collision.Entry{collision.EntryOf(it)})
		_ = e.tl.SetPlacement(it.ID, cur)
		if newID != 0 {
			_ = e.tl.RemoveItem(newID)
		}
		return nil, nil, fmt.Errorf("insert right piece: %w", err)
	}
	if gid := e.tl.GroupOf(it.ID); gid != timeline.NoGroup {
		_ = e.tl.AddToGroup(gid, newID)
	}
	src := it.ID
	if s, ok := e.sources[it.ID]; ok {
		src = s
	}
	e.sources[newID] = src

	leftItem, _ := e.tl.Item(it.ID)
	e.clampKeyframes(leftItem)
	e.clampKeyframes(piece)
	return []ItemPlacement{
		{ID: it.ID, Before: cur, After: leftP},
		{ID: newID, After: piece.Placement(), Created: true},
	}, []timeline.Item{leftItem, piece}, nil
}

// unsplit reverts cuts made by split, newest first.
func (e *Engine) unsplit(ps []ItemPlacement) {
	for i := len(ps) - 1; i >= 0; i-- {
		p := ps[i]
		if p.Created {
			e.idx.Remove(p.ID)
			_ = e.tl.RemoveItem(p.ID)
			delete(e.sources, p.ID)
			continue
		}
		if it, ok := e.tl.Item(p.ID); ok {
			_ = e.idx.Commit([]collision.Entry{collision.EntryOf(it.WithPlacement(p.Before))})
			_ = e.tl.SetPlacement(p.ID, p.Before)
		}
	}
}
