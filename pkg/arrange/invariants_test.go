package arrange

import (
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/cutline/pkg/timeline"
	"github.com/matzehuels/cutline/pkg/timeline/collision"
)

// TestRandomEditsKeepInvariants drives long random edit sequences and
// checks the engine's invariants after every step.
func TestRandomEditsKeepInvariants(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewPCG(seed, 42))
		const lockedTrack = 4

		var items []timeline.Item
		for track := 1; track <= 3; track++ {
			var at timeline.Frame
			for range 4 {
				at += timeline.Frame(rng.IntN(30))
				dur := timeline.Frame(10 + rng.IntN(60))
				items = append(items, clip(track, at, dur))
				if rng.IntN(2) == 0 {
					items = append(items, transition(track, at+dur-5, 10))
				}
				at += dur
			}
		}
		durations := DurationMap{}
		for i := range items {
			if rng.IntN(2) == 0 {
				durations[timeline.ItemID(i+1)] = items[i].Span.Duration + timeline.Frame(rng.IntN(40))
			}
		}

		cfg := DefaultConfig()
		cfg.TolerancePx = rng.IntN(8)
		e := newEngine(t, 4, items, WithConfig(cfg), WithDurations(durations))
		tl := e.Timeline()
		tl.Tracks().SetLocked(lockedTrack, true)
		if _, err := tl.Group("a", []timeline.ItemID{1, 2}, nil); err != nil {
			t.Fatal(err)
		}
		if _, err := tl.Group("b", []timeline.ItemID{5, 6}, nil); err != nil {
			t.Fatal(err)
		}

		for step := range 1500 {
			ids := idsOf(tl.Items())
			id := ids[rng.IntN(len(ids))]
			it, _ := tl.Item(id)
			frame := it.Span.Start + timeline.Frame(rng.IntN(201)-100)
			before := e.Fingerprint()

			var res Result
			switch op := rng.IntN(10); {
			case op < 4:
				e.RebuildSnapIndex([]timeline.ItemID{id}, nil)
				res = e.TryMove(id, frame, it.Track+rng.IntN(3)-1)
			case op < 5:
				res = e.TryResizeStart(id, frame)
			case op < 7:
				res = e.TryResizeEnd(id, it.Span.End()+timeline.Frame(rng.IntN(81)-40))
			case op < 8 && tl.ItemCount() < 60:
				res = e.TryCut(id, frame)
			default:
				gid := tl.RootGroupOf(id)
				if gid == timeline.NoGroup {
					continue
				}
				switch rng.IntN(3) {
				case 0:
					res = e.TryGroupMove(gid, frame-it.Span.Start, rng.IntN(3)-1)
				case 1:
					res = e.TryGroupResizeStart(gid, timeline.Frame(rng.IntN(21)-10))
				default:
					res = e.TryGroupResizeEnd(gid, timeline.Frame(rng.IntN(21)-10))
				}
			}

			if res.Reason == ReasonInternal {
				t.Fatalf("seed %d step %d: %v reported an internal error", seed, step, res.Op)
			}
			if res.Status != StatusCommitted && e.Fingerprint() != before {
				t.Fatalf("seed %d step %d: %v changed the collision index", seed, step, res)
			}
			checkInvariants(t, e, lockedTrack)
			if t.Failed() {
				t.Fatalf("seed %d step %d: invariants broken after %v", seed, step, res)
			}
		}
	}
}

func checkInvariants(t *testing.T, e *Engine, lockedTrack int) {
	t.Helper()
	items := e.Timeline().Items()
	if e.idx.Len() != len(items) {
		t.Errorf("index holds %d entries, timeline %d items", e.idx.Len(), len(items))
	}
	for i, a := range items {
		if a.Span.Duration < 1 {
			t.Errorf("%v has duration < 1", a)
		}
		if a.Track == lockedTrack {
			t.Errorf("%v sits on locked track", a)
		}
		if a.CropStart < 0 {
			t.Errorf("%v has negative crop", a)
		}
		if got, ok := e.idx.Get(a.ID); !ok || got != collision.EntryOf(a) {
			t.Errorf("index entry %v does not match %v", got, a)
		}
		for _, b := range items[i+1:] {
			if a.Track == b.Track && a.Kind == b.Kind && a.Span.Overlaps(b.Span) {
				t.Errorf("%v overlaps %v", a, b)
			}
		}
	}
}
