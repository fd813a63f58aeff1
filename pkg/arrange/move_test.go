package arrange

import (
	"testing"

	"github.com/matzehuels/cutline/pkg/timeline"
)

func TestTryMove(t *testing.T) {
	// A [0,100) and B [150,200) on track 1, C [0,50) on track 2.
	items := []timeline.Item{clip(1, 0, 100), clip(1, 150, 50), clip(2, 0, 50)}
	const a = timeline.ItemID(1)

	tests := []struct {
		name      string
		frame     timeline.Frame
		track     int
		wantSpan  timeline.Span
		wantTrack int
		status    Status
		reason    Reason
	}{
		{"forward pushback", 120, 1, timeline.SpanBetween(50, 150), 1, StatusCommitted, ReasonNone},
		{"unreachable target", 170, 1, timeline.SpanBetween(0, 100), 1, StatusRejected, ReasonCollision},
		{"free slot", 250, 1, timeline.SpanBetween(250, 350), 1, StatusCommitted, ReasonNone},
		{"abut neighbor", 50, 1, timeline.SpanBetween(50, 150), 1, StatusCommitted, ReasonNone},
		{"track change into collision", 0, 2, timeline.SpanBetween(0, 100), 1, StatusRejected, ReasonCollision},
		{"track change into free space", 60, 2, timeline.SpanBetween(60, 160), 2, StatusCommitted, ReasonNone},
		{"track clamped high", 300, 9, timeline.SpanBetween(300, 400), 3, StatusCommitted, ReasonNone},
		{"track clamped low", 300, -4, timeline.SpanBetween(300, 400), 1, StatusCommitted, ReasonNone},
		{"negative frame clamped", -20, 3, timeline.SpanBetween(0, 100), 3, StatusCommitted, ReasonNone},
		{"negative frame on same track", -20, 1, timeline.SpanBetween(0, 100), 1, StatusUnchanged, ReasonNone},
		{"no move", 0, 1, timeline.SpanBetween(0, 100), 1, StatusUnchanged, ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 3, items)
			before := e.Fingerprint()

			res := e.TryMove(a, tt.frame, tt.track)
			if res.Status != tt.status || res.Reason != tt.reason {
				t.Fatalf("TryMove() = %v, want %v (%v)", res, tt.status, tt.reason)
			}
			got := mustItem(t, e, a)
			if got.Span != tt.wantSpan || got.Track != tt.wantTrack {
				t.Errorf("item = t%d %v, want t%d %v", got.Track, got.Span, tt.wantTrack, tt.wantSpan)
			}
			p, ok := res.Placement(a)
			if !ok || p != got.Placement() {
				t.Errorf("Placement() = %v, %v; want %v", p, ok, got.Placement())
			}
			if tt.status != StatusCommitted && e.Fingerprint() != before {
				t.Error("collision index changed without a commit")
			}
		})
	}
}

func TestTryMoveBackwardPushback(t *testing.T) {
	tests := []struct {
		name     string
		items    []timeline.Item
		frame    timeline.Frame
		wantSpan timeline.Span
		status   Status
	}{
		{
			name:     "pushed to neighbor end",
			items:    []timeline.Item{clip(1, 0, 50), clip(1, 100, 100)},
			frame:    30,
			wantSpan: timeline.SpanBetween(50, 150),
			status:   StatusCommitted,
		},
		{
			name:     "jumped past neighbor",
			items:    []timeline.Item{clip(1, 0, 50), clip(1, 60, 10)},
			frame:    10,
			wantSpan: timeline.SpanBetween(60, 70),
			status:   StatusRejected,
		},
		{
			name:     "single correction only",
			items:    []timeline.Item{clip(1, 0, 50), clip(1, 60, 20), clip(1, 100, 30), clip(1, 200, 60)},
			frame:    30,
			wantSpan: timeline.SpanBetween(200, 260),
			status:   StatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 1, tt.items)
			moved := timeline.ItemID(len(tt.items))

			res := e.TryMove(moved, tt.frame, 1)
			if res.Status != tt.status {
				t.Fatalf("TryMove() = %v, want %v", res, tt.status)
			}
			if got := mustItem(t, e, moved).Span; got != tt.wantSpan {
				t.Errorf("span = %v, want %v", got, tt.wantSpan)
			}
		})
	}
}

func TestTryMoveKindsDoNotCollide(t *testing.T) {
	e := newEngine(t, 2, []timeline.Item{clip(1, 0, 100), transition(2, 0, 100)})

	if res := e.TryMove(1, 0, 2); !res.Committed() {
		t.Fatalf("clip onto transition: %v, want committed", res)
	}
	if res := e.TryMove(2, 0, 1); !res.Committed() {
		t.Fatalf("transition onto empty track: %v, want committed", res)
	}
	if res := e.TryMove(2, 0, 2); !res.Committed() {
		t.Fatalf("transition back under clip: %v, want committed", res)
	}
}

func TestTryMoveLockedTracks(t *testing.T) {
	tests := []struct {
		name   string
		locked int
		track  int
	}{
		{"destination locked", 2, 2},
		{"source locked", 1, 1},
		{"source locked leaving", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 2, []timeline.Item{clip(1, 0, 100)})
			if err := e.Timeline().Tracks().SetLocked(tt.locked, true); err != nil {
				t.Fatal(err)
			}
			before := e.Fingerprint()

			res := e.TryMove(1, 300, tt.track)
			if res.Reason != ReasonLockedTrack {
				t.Fatalf("TryMove() = %v, want locked-track", res)
			}
			if e.Fingerprint() != before {
				t.Error("rejected move changed the collision index")
			}
		})
	}
}

func TestTryMoveIdempotent(t *testing.T) {
	e := newEngine(t, 2, []timeline.Item{clip(2, 40, 100)})
	before := e.Fingerprint()
	cur := mustItem(t, e, 1).Placement()

	for range 3 {
		res := e.TryMove(1, 40, 2)
		if res.Status != StatusUnchanged {
			t.Fatalf("TryMove(current) = %v, want unchanged", res)
		}
		if p, _ := res.Placement(1); p != cur {
			t.Errorf("Placement() = %v, want %v", p, cur)
		}
	}
	if e.Fingerprint() != before {
		t.Error("no-op move changed the collision index")
	}
}

func TestTryMoveSnapsToAlignEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TolerancePx = 5
	e := newEngine(t, 1, []timeline.Item{clip(1, 0, 100), clip(1, 300, 100)}, WithConfig(cfg))

	// While dragging A, B's start minus A's length lets A's end stick to B.
	e.RebuildSnapIndex([]timeline.ItemID{1}, nil)
	res := e.TryMove(1, 196, 1)
	if !res.Committed() {
		t.Fatalf("TryMove() = %v, want committed", res)
	}
	if got := mustItem(t, e, 1).Span; got != timeline.SpanBetween(200, 300) {
		t.Errorf("span = %v, want [200,300)", got)
	}
}

func TestTryMoveUnknownItem(t *testing.T) {
	e := newEngine(t, 1, nil)
	res := e.TryMove(42, 0, 1)
	if res.Reason != ReasonNotFound || len(res.Placements) != 0 {
		t.Errorf("TryMove(unknown) = %+v, want not-found with no placements", res)
	}
}
