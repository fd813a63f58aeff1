package arrange

import (
	"testing"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// newGroupEngine builds an engine and groups the first n items.
func newGroupEngine(t *testing.T, tracks int, items []timeline.Item, n int, opts ...Option) (*Engine, timeline.GroupID) {
	t.Helper()
	e := newEngine(t, tracks, items, opts...)
	ids := make([]timeline.ItemID, n)
	for i := range ids {
		ids[i] = timeline.ItemID(i + 1)
	}
	gid, err := e.Timeline().Group("g", ids, nil)
	if err != nil {
		t.Fatalf("Group() error: %v", err)
	}
	return e, gid
}

func TestTryGroupMoveLockedDestination(t *testing.T) {
	// E (clip) and F (transition) on track 2; track 3 is locked.
	items := []timeline.Item{clip(2, 0, 50), transition(2, 40, 10)}

	t.Run("vertical only", func(t *testing.T) {
		e, gid := newGroupEngine(t, 3, items, 2)
		e.Timeline().Tracks().SetLocked(3, true)

		res := e.TryGroupMove(gid, 0, 1)
		if res.Reason != ReasonLockedTrack || !res.VerticalDropped {
			t.Fatalf("TryGroupMove() = %+v, want locked-track with vertical dropped", res)
		}
		for _, id := range []timeline.ItemID{1, 2} {
			if got := mustItem(t, e, id).Track; got != 2 {
				t.Errorf("item %d track = %d, want 2", id, got)
			}
		}
	})

	t.Run("horizontal survives", func(t *testing.T) {
		e, gid := newGroupEngine(t, 3, items, 2)
		e.Timeline().Tracks().SetLocked(3, true)

		res := e.TryGroupMove(gid, 20, 1)
		if !res.Committed() || !res.VerticalDropped {
			t.Fatalf("TryGroupMove() = %+v, want committed with vertical dropped", res)
		}
		if got := mustItem(t, e, 1); got.Track != 2 || got.Span != timeline.SpanBetween(20, 70) {
			t.Errorf("E = t%d %v, want t2 [20,70)", got.Track, got.Span)
		}
		if got := mustItem(t, e, 2); got.Track != 2 || got.Span != timeline.SpanBetween(60, 70) {
			t.Errorf("F = t%d %v, want t2 [60,70)", got.Track, got.Span)
		}
	})
}

func TestTryGroupMove(t *testing.T) {
	tests := []struct {
		name       string
		tracks     int
		items      []timeline.Item
		n          int
		dFrames    timeline.Frame
		dTracks    int
		status     Status
		wantStarts []timeline.Frame
		wantTracks []int
	}{
		{
			name:       "shared pushback",
			tracks:     2,
			items:      []timeline.Item{clip(1, 0, 50), clip(2, 0, 50), clip(1, 100, 50)},
			n:          2,
			dFrames:    80,
			status:     StatusCommitted,
			wantStarts: []timeline.Frame{50, 50},
			wantTracks: []int{1, 2},
		},
		{
			name:       "pushback from deepest overlap",
			tracks:     2,
			items:      []timeline.Item{clip(1, 0, 50), clip(2, 20, 50), clip(1, 100, 50), clip(2, 110, 50)},
			n:          2,
			dFrames:    70,
			status:     StatusCommitted,
			wantStarts: []timeline.Frame{40, 60},
			wantTracks: []int{1, 2},
		},
		{
			name:       "backward pushback",
			tracks:     1,
			items:      []timeline.Item{clip(1, 100, 50), transition(1, 120, 10), clip(1, 0, 60)},
			n:          2,
			dFrames:    -60,
			status:     StatusCommitted,
			wantStarts: []timeline.Frame{60, 80},
			wantTracks: []int{1, 1},
		},
		{
			name:       "jumped past occupant",
			tracks:     1,
			items:      []timeline.Item{clip(1, 0, 50), clip(1, 60, 20)},
			n:          1,
			dFrames:    65,
			status:     StatusRejected,
			wantStarts: []timeline.Frame{0},
			wantTracks: []int{1},
		},
		{
			name:       "tracks clamped to range",
			tracks:     3,
			items:      []timeline.Item{clip(1, 0, 50), clip(2, 0, 50)},
			n:          2,
			dTracks:    5,
			status:     StatusCommitted,
			wantStarts: []timeline.Frame{0, 0},
			wantTracks: []int{2, 3},
		},
		{
			name:       "cannot move below first track",
			tracks:     3,
			items:      []timeline.Item{clip(1, 0, 50), clip(2, 0, 50)},
			n:          2,
			dTracks:    -1,
			status:     StatusUnchanged,
			wantStarts: []timeline.Frame{0, 0},
			wantTracks: []int{1, 2},
		},
		{
			name:       "track change into occupant",
			tracks:     3,
			items:      []timeline.Item{clip(1, 0, 50), clip(2, 0, 50), clip(3, 0, 10)},
			n:          2,
			dTracks:    1,
			status:     StatusRejected,
			wantStarts: []timeline.Frame{0, 0},
			wantTracks: []int{1, 2},
		},
		{
			name:       "transitions pass over clips",
			tracks:     2,
			items:      []timeline.Item{transition(1, 0, 20), transition(1, 30, 20), clip(2, 0, 100)},
			n:          2,
			dTracks:    1,
			status:     StatusCommitted,
			wantStarts: []timeline.Frame{0, 30},
			wantTracks: []int{2, 2},
		},
		{
			name:       "start clamped at zero",
			tracks:     1,
			items:      []timeline.Item{clip(1, 10, 50)},
			n:          1,
			dFrames:    -40,
			status:     StatusCommitted,
			wantStarts: []timeline.Frame{0},
			wantTracks: []int{1},
		},
		{
			name:       "zero delta",
			tracks:     1,
			items:      []timeline.Item{clip(1, 10, 50)},
			n:          1,
			status:     StatusUnchanged,
			wantStarts: []timeline.Frame{10},
			wantTracks: []int{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, gid := newGroupEngine(t, tt.tracks, tt.items, tt.n)
			before := e.Fingerprint()

			res := e.TryGroupMove(gid, tt.dFrames, tt.dTracks)
			if res.Status != tt.status {
				t.Fatalf("TryGroupMove() = %+v, want %v", res, tt.status)
			}
			for i := range tt.wantStarts {
				got := mustItem(t, e, timeline.ItemID(i+1))
				if got.Span.Start != tt.wantStarts[i] || got.Track != tt.wantTracks[i] {
					t.Errorf("item %d = t%d start %d, want t%d start %d",
						i+1, got.Track, got.Span.Start, tt.wantTracks[i], tt.wantStarts[i])
				}
			}
			if tt.status != StatusCommitted && e.Fingerprint() != before {
				t.Error("collision index changed without a commit")
			}
		})
	}
}

func TestTryGroupMoveSourceLocked(t *testing.T) {
	e, gid := newGroupEngine(t, 2, []timeline.Item{clip(1, 0, 50), clip(2, 0, 50)}, 2)
	e.Timeline().Tracks().SetLocked(1, true)

	if res := e.TryGroupMove(gid, 10, 0); res.Reason != ReasonLockedTrack || res.VerticalDropped {
		t.Errorf("TryGroupMove() = %+v, want locked-track", res)
	}
}

func TestTryGroupMoveNested(t *testing.T) {
	e := newEngine(t, 2, []timeline.Item{clip(1, 0, 50), clip(2, 0, 50), clip(1, 60, 10)})
	tl := e.Timeline()
	inner, _ := tl.Group("inner", []timeline.ItemID{1, 2}, nil)
	outer, _ := tl.Group("outer", []timeline.ItemID{3}, []timeline.GroupID{inner})

	if got := tl.RootGroupOf(1); got != outer {
		t.Fatalf("RootGroupOf(1) = %d, want %d", got, outer)
	}
	if res := e.TryGroupMove(outer, 100, 0); !res.Committed() || len(res.Placements) != 3 {
		t.Fatalf("TryGroupMove() = %+v, want 3 committed placements", res)
	}
	if got := mustItem(t, e, 3).Span.Start; got != 160 {
		t.Errorf("item 3 start = %d, want 160", got)
	}
}

func TestTryGroupMoveMemberCountMismatch(t *testing.T) {
	e, gid := newGroupEngine(t, 1, []timeline.Item{clip(1, 0, 50), clip(1, 60, 10)}, 2)
	e.idx.Remove(2)

	res := e.TryGroupMove(gid, 100, 0)
	if res.Reason != ReasonInternal {
		t.Fatalf("TryGroupMove() = %+v, want internal", res)
	}
	if got := mustItem(t, e, 1).Span.Start; got != 0 {
		t.Errorf("item 1 start = %d, want 0", got)
	}
}

func TestTryGroupMoveUnknown(t *testing.T) {
	e := newEngine(t, 1, nil)
	if res := e.TryGroupMove(7, 10, 0); res.Reason != ReasonNotFound {
		t.Errorf("TryGroupMove(unknown) = %v, want not-found", res)
	}
}

func TestTryGroupResize(t *testing.T) {
	// A [0,100) on track 1 with a neighbor at 120; B [0,60) on track 2; a
	// transition T inside the group is never resized.
	items := []timeline.Item{clip(1, 0, 100), clip(2, 0, 60), transition(2, 50, 10), clip(1, 120, 50)}

	tests := []struct {
		name   string
		end    bool
		delta  timeline.Frame
		wantA  timeline.Span
		wantB  timeline.Span
		reason Reason
	}{
		{"end limited by neighbor", true, 50, timeline.SpanBetween(0, 120), timeline.SpanBetween(0, 80), ReasonNone},
		{"end shrink limited by shortest", true, -80, timeline.SpanBetween(0, 41), timeline.SpanBetween(0, 1), ReasonNone},
		{"start shrink limited by shortest", false, 70, timeline.SpanBetween(59, 100), timeline.SpanBetween(59, 60), ReasonNone},
		{"start extend at zero", false, -10, timeline.SpanBetween(0, 100), timeline.SpanBetween(0, 60), ReasonOutOfBounds},
		{"zero delta", true, 0, timeline.SpanBetween(0, 100), timeline.SpanBetween(0, 60), ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, gid := newGroupEngine(t, 2, items, 3)

			var res Result
			if tt.end {
				res = e.TryGroupResizeEnd(gid, tt.delta)
			} else {
				res = e.TryGroupResizeStart(gid, tt.delta)
			}
			if res.Reason != tt.reason {
				t.Fatalf("group resize = %+v, want reason %v", res, tt.reason)
			}
			if got := mustItem(t, e, 1).Span; got != tt.wantA {
				t.Errorf("A = %v, want %v", got, tt.wantA)
			}
			if got := mustItem(t, e, 2).Span; got != tt.wantB {
				t.Errorf("B = %v, want %v", got, tt.wantB)
			}
			if got := mustItem(t, e, 3).Span; got != timeline.SpanBetween(50, 60) {
				t.Errorf("transition = %v, want [50,60)", got)
			}
		})
	}
}

func TestTryGroupResizeStartBoundedAndStacked(t *testing.T) {
	a := clip(1, 50, 50)
	a.CropStart = 5
	b := clip(1, 100, 50)
	b.CropStart = 40
	e, gid := newGroupEngine(t, 1, []timeline.Item{a, b}, 2, WithDurations(DurationMap{1: 500, 2: 500}))

	// B's start cannot move left of A's end, which stays put.
	if res := e.TryGroupResizeStart(gid, -10); res.Reason != ReasonCollision {
		t.Errorf("TryGroupResizeStart(-10) = %v, want collision", res)
	}

	// Shrinking works for both.
	if res := e.TryGroupResizeStart(gid, 10); !res.Committed() {
		t.Fatalf("TryGroupResizeStart(10) = %v, want committed", res)
	}
	if got := mustItem(t, e, 1); got.Span != timeline.SpanBetween(60, 100) || got.CropStart != 15 {
		t.Errorf("A = %v crop %d, want [60,100) crop 15", got.Span, got.CropStart)
	}

	// Extending is limited by A's remaining crop of 15 frames and by B
	// reaching A's end at 100, which allows 10.
	if res := e.TryGroupResizeStart(gid, -30); !res.Committed() {
		t.Fatalf("TryGroupResizeStart(-30) = %v, want committed", res)
	}
	if got := mustItem(t, e, 2).Span; got != timeline.SpanBetween(100, 150) {
		t.Errorf("B = %v, want [100,150)", got)
	}
}

func TestTryGroupResizeTransitionsOnly(t *testing.T) {
	e, gid := newGroupEngine(t, 1, []timeline.Item{transition(1, 0, 10)}, 1)
	if res := e.TryGroupResizeEnd(gid, 5); res.Reason != ReasonUnsupported {
		t.Errorf("TryGroupResizeEnd() = %v, want unsupported", res)
	}
}

func TestGroupExtent(t *testing.T) {
	e, gid := newGroupEngine(t, 2, []timeline.Item{clip(1, 0, 100), transition(2, 20, 140)}, 2)

	got, err := e.GroupExtent(gid)
	if err != nil {
		t.Fatal(err)
	}
	if want := timeline.SpanBetween(0, 160); got != want {
		t.Errorf("GroupExtent() = %v, want %v", got, want)
	}
	if _, err := e.GroupExtent(99); err == nil {
		t.Error("GroupExtent(unknown) should fail")
	}
}

func TestReferenceSubLaneOffset(t *testing.T) {
	e := newEngine(t, 3, nil)
	h := e.Config().TrackHeight

	tests := []struct {
		name  string
		items []timeline.Item
		want  groupRef
	}{
		{"clip on top", []timeline.Item{clip(2, 0, 1), transition(2, 0, 1), clip(1, 0, 1)}, groupRef{Track: 2, Y: h}},
		{"transition on top", []timeline.Item{transition(3, 0, 1), clip(1, 0, 1)}, groupRef{Track: 3, Y: 2*h + h/3*2 - 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.reference(tt.items); got != tt.want {
				t.Errorf("reference() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTryGroupDrag(t *testing.T) {
	// Lanes are 50 px high; the transition sub-lane starts 31 px in.
	tests := []struct {
		name      string
		item      timeline.Item
		dy        int
		status    Status
		wantTrack int
	}{
		{"transition top crosses at half lane", transition(1, 0, 50), 25, StatusCommitted, 2},
		{"clip top stays at half lane", clip(1, 0, 50), 25, StatusUnchanged, 1},
		{"clip top full lane", clip(1, 0, 50), 50, StatusCommitted, 2},
		{"clip top down at half lane", clip(2, 0, 50), -25, StatusCommitted, 1},
		{"transition top stays down at half lane", transition(2, 0, 50), -25, StatusUnchanged, 2},
		{"transition top down past lane start", transition(2, 0, 50), -32, StatusCommitted, 1},
		{"clamped to top track", clip(1, 0, 50), 500, StatusCommitted, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, gid := newGroupEngine(t, 3, []timeline.Item{tt.item}, 1)

			res := e.TryGroupDrag(gid, 0, tt.dy)
			if res.Status != tt.status || res.Op != OpGroupDrag {
				t.Fatalf("TryGroupDrag() = %v, want %s %v", res, OpGroupDrag, tt.status)
			}
			if got := mustItem(t, e, 1).Track; got != tt.wantTrack {
				t.Errorf("track = %d, want %d", got, tt.wantTrack)
			}
		})
	}
}

func TestTryGroupMoveIgnoresSubLaneOffset(t *testing.T) {
	for _, it := range []timeline.Item{clip(1, 0, 50), transition(1, 0, 50)} {
		e, gid := newGroupEngine(t, 3, []timeline.Item{it}, 1)
		if res := e.TryGroupMove(gid, 0, 1); !res.Committed() {
			t.Fatalf("TryGroupMove(%v) = %v, want committed", it.Kind, res)
		}
		if got := mustItem(t, e, 1).Track; got != 2 {
			t.Errorf("%v track = %d, want 2", it.Kind, got)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{7, 5, 1}, {5, 5, 1}, {0, 5, 0}, {-1, 5, -1}, {-5, 5, -1}, {-6, 5, -2},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
