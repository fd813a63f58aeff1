package arrange

import (
	"testing"

	"github.com/matzehuels/cutline/pkg/timeline"
)

func TestTryResizeEnd(t *testing.T) {
	tests := []struct {
		name      string
		items     []timeline.Item
		durations DurationMap
		frame     timeline.Frame
		want      timeline.Span
		reason    Reason
	}{
		{
			name:  "unbounded extend",
			items: []timeline.Item{clip(1, 0, 50)},
			frame: 80,
			want:  timeline.SpanBetween(0, 80),
		},
		{
			name:      "bounded source clamps",
			items:     []timeline.Item{clip(1, 0, 50)},
			durations: DurationMap{1: 60},
			frame:     80,
			want:      timeline.SpanBetween(0, 60),
		},
		{
			name:      "source exhausted",
			items:     []timeline.Item{clip(1, 0, 50)},
			durations: DurationMap{1: 50},
			frame:     80,
			want:      timeline.SpanBetween(0, 50),
			reason:    ReasonOutOfBounds,
		},
		{
			name:  "trimmed to neighbor",
			items: []timeline.Item{clip(1, 0, 50), clip(1, 100, 50)},
			frame: 130,
			want:  timeline.SpanBetween(0, 100),
		},
		{
			name:   "already abutting",
			items:  []timeline.Item{clip(1, 0, 100), clip(1, 100, 50)},
			frame:  130,
			want:   timeline.SpanBetween(0, 100),
			reason: ReasonCollision,
		},
		{
			name:  "transition neighbor ignored",
			items: []timeline.Item{clip(1, 0, 50), transition(1, 60, 20)},
			frame: 100,
			want:  timeline.SpanBetween(0, 100),
		},
		{
			name:  "shrink to one frame",
			items: []timeline.Item{clip(1, 0, 50)},
			frame: 1,
			want:  timeline.SpanBetween(0, 1),
		},
		{
			name:   "shrink to nothing",
			items:  []timeline.Item{clip(1, 10, 50)},
			frame:  10,
			want:   timeline.SpanBetween(10, 60),
			reason: ReasonDurationTooSmall,
		},
		{
			name:   "shrink past start",
			items:  []timeline.Item{clip(1, 10, 50)},
			frame:  0,
			want:   timeline.SpanBetween(10, 60),
			reason: ReasonDurationTooSmall,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 1, tt.items, WithDurations(tt.durations))
			before := e.Fingerprint()

			res := e.TryResizeEnd(1, tt.frame)
			if res.Reason != tt.reason {
				t.Fatalf("TryResizeEnd() = %v, want reason %v", res, tt.reason)
			}
			if got := mustItem(t, e, 1).Span; got != tt.want {
				t.Errorf("span = %v, want %v", got, tt.want)
			}
			if res.Rejected() && e.Fingerprint() != before {
				t.Error("rejected resize changed the collision index")
			}
		})
	}
}

func TestTryResizeStart(t *testing.T) {
	withCrop := func(it timeline.Item, crop timeline.Frame) timeline.Item {
		it.CropStart = crop
		return it
	}

	tests := []struct {
		name      string
		items     []timeline.Item
		durations DurationMap
		frame     timeline.Frame
		want      timeline.Span
		wantCrop  timeline.Frame
		reason    Reason
	}{
		{
			name:      "bounded extend clamps to source start",
			items:     []timeline.Item{withCrop(clip(1, 50, 50), 10)},
			durations: DurationMap{1: 200},
			frame:     30,
			want:      timeline.SpanBetween(40, 100),
			wantCrop:  0,
		},
		{
			name:      "bounded at source start",
			items:     []timeline.Item{withCrop(clip(1, 50, 50), 0)},
			durations: DurationMap{1: 200},
			frame:     30,
			want:      timeline.SpanBetween(50, 100),
			wantCrop:  0,
			reason:    ReasonInvalidCrop,
		},
		{
			name:     "unbounded extend",
			items:    []timeline.Item{withCrop(clip(1, 50, 50), 10)},
			frame:    30,
			want:     timeline.SpanBetween(30, 100),
			wantCrop: 0,
		},
		{
			name:     "shrink moves crop",
			items:    []timeline.Item{withCrop(clip(1, 50, 50), 10)},
			frame:    99,
			want:     timeline.SpanBetween(99, 100),
			wantCrop: 59,
		},
		{
			name:     "shrink to nothing",
			items:    []timeline.Item{withCrop(clip(1, 50, 50), 10)},
			frame:    100,
			want:     timeline.SpanBetween(50, 100),
			wantCrop: 10,
			reason:   ReasonDurationTooSmall,
		},
		{
			name:     "overlaps predecessor",
			items:    []timeline.Item{clip(1, 50, 50), clip(1, 0, 40)},
			frame:    30,
			want:     timeline.SpanBetween(50, 100),
			wantCrop: 0,
			reason:   ReasonCollision,
		},
		{
			name:     "abuts predecessor",
			items:    []timeline.Item{clip(1, 50, 50), clip(1, 0, 40)},
			frame:    40,
			want:     timeline.SpanBetween(40, 100),
			wantCrop: 0,
		},
		{
			name:     "negative frame clamped",
			items:    []timeline.Item{clip(1, 50, 50)},
			frame:    -10,
			want:     timeline.SpanBetween(0, 100),
			wantCrop: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, 1, tt.items, WithDurations(tt.durations))

			res := e.TryResizeStart(1, tt.frame)
			if res.Reason != tt.reason {
				t.Fatalf("TryResizeStart() = %v, want reason %v", res, tt.reason)
			}
			got := mustItem(t, e, 1)
			if got.Span != tt.want || got.CropStart != tt.wantCrop {
				t.Errorf("item = %v crop %d, want %v crop %d", got.Span, got.CropStart, tt.want, tt.wantCrop)
			}
		})
	}
}

func TestResizeLockedTrack(t *testing.T) {
	e := newEngine(t, 1, []timeline.Item{clip(1, 50, 50)})
	e.Timeline().Tracks().SetLocked(1, true)

	if res := e.TryResizeEnd(1, 200); res.Reason != ReasonLockedTrack {
		t.Errorf("TryResizeEnd() = %v, want locked-track", res)
	}
	if res := e.TryResizeStart(1, 0); res.Reason != ReasonLockedTrack {
		t.Errorf("TryResizeStart() = %v, want locked-track", res)
	}
}

func TestResizeClampsKeyframes(t *testing.T) {
	type call struct {
		id         timeline.ItemID
		start, end timeline.Frame
	}
	var calls []call
	store := KeyframeFunc(func(id timeline.ItemID, start, end timeline.Frame) {
		calls = append(calls, call{id, start, end})
	})
	item := clip(1, 0, 100)
	item.CropStart = 20
	e := newEngine(t, 1, []timeline.Item{item}, WithKeyframes(store))

	e.TryResizeEnd(1, 80)
	e.TryResizeStart(1, 10)
	e.TryResizeStart(1, 200) // rejected: no call

	want := []call{{1, 20, 100}, {1, 30, 100}}
	if len(calls) != len(want) {
		t.Fatalf("keyframe calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}
