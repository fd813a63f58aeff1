package timeline

import (
	"errors"
	"slices"
	"testing"
)

func newTestTimeline(t *testing.T, spans ...Span) (*Timeline, []ItemID) {
	t.Helper()
	tl := New(NewTracks(Track{Name: "V1"}, Track{Name: "V2", Locked: true}))
	var ids []ItemID
	for _, s := range spans {
		id, err := tl.AddItem(Item{Track: 1, Span: s})
		if err != nil {
			t.Fatalf("AddItem(%v) error: %v", s, err)
		}
		ids = append(ids, id)
	}
	return tl, ids
}

func TestAddItem(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10}, Span{20, 10})
	if !slices.Equal(ids, []ItemID{1, 2}) {
		t.Errorf("AddItem IDs = %v, want [1 2]", ids)
	}

	tests := []struct {
		name string
		item Item
		want error
	}{
		{"zero duration", Item{Track: 1, Span: Span{0, 0}}, ErrInvalidSpan},
		{"negative start", Item{Track: 1, Span: Span{-1, 5}}, ErrInvalidSpan},
		{"unknown track", Item{Track: 3, Span: Span{0, 5}}, ErrUnknownTrack},
		{"negative crop", Item{Track: 1, Span: Span{0, 5}, CropStart: -1}, ErrInvalidCrop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tl.AddItem(tt.item); !errors.Is(err, tt.want) {
				t.Errorf("AddItem() error = %v, want %v", err, tt.want)
			}
		})
	}

	// Transitions carry no crop, so a negative one is ignored.
	if _, err := tl.AddItem(Item{Kind: KindTransition, Track: 1, Span: Span{0, 5}, CropStart: -1}); err != nil {
		t.Errorf("AddItem(transition) error: %v", err)
	}
}

func TestItemsOrder(t *testing.T) {
	tl, _ := newTestTimeline(t, Span{50, 10}, Span{0, 10})
	if _, err := tl.AddItem(Item{Track: 2, Span: Span{0, 5}}); err != nil {
		t.Fatal(err)
	}
	var got []ItemID
	for _, it := range tl.Items() {
		got = append(got, it.ID)
	}
	if want := []ItemID{2, 1, 3}; !slices.Equal(got, want) {
		t.Errorf("Items() order = %v, want %v", got, want)
	}
}

func TestSetPlacement(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10})
	p := Placement{Span: Span{30, 5}, Track: 1, CropStart: 4}
	if err := tl.SetPlacement(ids[0], p); err != nil {
		t.Fatalf("SetPlacement() error: %v", err)
	}
	if it, _ := tl.Item(ids[0]); it.Placement() != p {
		t.Errorf("Placement() = %v, want %v", it.Placement(), p)
	}
	if err := tl.SetPlacement(99, p); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("SetPlacement(unknown) error = %v", err)
	}
	if err := tl.SetPlacement(ids[0], Placement{Span: Span{0, 0}, Track: 1}); !errors.Is(err, ErrInvalidSpan) {
		t.Errorf("SetPlacement(empty span) error = %v", err)
	}
}

func TestGroupMembership(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10}, Span{10, 10}, Span{20, 10}, Span{30, 10})

	inner, err := tl.Group("inner", ids[:2], nil)
	if err != nil {
		t.Fatalf("Group(inner) error: %v", err)
	}
	outer, err := tl.Group("outer", ids[2:3], []GroupID{inner})
	if err != nil {
		t.Fatalf("Group(outer) error: %v", err)
	}

	if _, err := tl.Group("again", ids[:1], nil); !errors.Is(err, ErrAlreadyGrouped) {
		t.Errorf("regrouping an item error = %v, want ErrAlreadyGrouped", err)
	}
	if _, err := tl.Group("again", nil, []GroupID{inner}); !errors.Is(err, ErrAlreadyGrouped) {
		t.Errorf("regrouping a subgroup error = %v, want ErrAlreadyGrouped", err)
	}
	if _, err := tl.Group("empty", nil, nil); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("empty group error = %v, want ErrEmptyGroup", err)
	}

	if got := tl.GroupOf(ids[0]); got != inner {
		t.Errorf("GroupOf() = %d, want %d", got, inner)
	}
	if got := tl.RootGroupOf(ids[0]); got != outer {
		t.Errorf("RootGroupOf() = %d, want %d", got, outer)
	}
	if got := tl.RootGroupOf(ids[3]); got != NoGroup {
		t.Errorf("RootGroupOf(free) = %d, want NoGroup", got)
	}
	members, err := tl.Members(outer)
	if err != nil || !slices.Equal(members, ids[:3]) {
		t.Errorf("Members(outer) = %v, %v; want %v", members, err, ids[:3])
	}

	if err := tl.AddToGroup(inner, ids[3]); err != nil {
		t.Fatalf("AddToGroup() error: %v", err)
	}
	if err := tl.RemoveFromGroup(ids[3]); err != nil {
		t.Fatalf("RemoveFromGroup() error: %v", err)
	}
	if got := tl.GroupOf(ids[3]); got != NoGroup {
		t.Errorf("GroupOf() after removal = %d", got)
	}
}

func TestUngroupKeepsParent(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10}, Span{10, 10}, Span{20, 10})
	inner, _ := tl.Group("inner", ids[:2], nil)
	outer, _ := tl.Group("outer", ids[2:], []GroupID{inner})

	if err := tl.Ungroup(inner); err != nil {
		t.Fatalf("Ungroup() error: %v", err)
	}
	g, ok := tl.GroupByID(outer)
	if !ok {
		t.Fatal("outer group vanished")
	}
	if !slices.Equal(g.Items, ids) || len(g.Groups) != 0 {
		t.Errorf("outer = %+v, want all three items and no subgroups", g)
	}
	if err := tl.Ungroup(inner); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("second Ungroup() error = %v", err)
	}
}

func TestRemoveItemPrunesEmptyGroups(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10}, Span{10, 10})
	inner, _ := tl.Group("inner", ids[:1], nil)
	outer, _ := tl.Group("outer", nil, []GroupID{inner})

	if err := tl.RemoveItem(ids[0]); err != nil {
		t.Fatalf("RemoveItem() error: %v", err)
	}
	for _, gid := range []GroupID{inner, outer} {
		if _, ok := tl.GroupByID(gid); ok {
			t.Errorf("group %d survived losing its last member", gid)
		}
	}
	if tl.ItemCount() != 1 {
		t.Errorf("ItemCount() = %d, want 1", tl.ItemCount())
	}
	if err := tl.RemoveItem(ids[0]); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("second RemoveItem() error = %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10})
	gid, _ := tl.Group("g", ids, nil)

	cp := tl.Clone()
	_ = cp.SetPlacement(ids[0], Placement{Span: Span{50, 10}, Track: 1})
	_ = cp.Ungroup(gid)
	_ = cp.Tracks().SetLocked(1, true)

	if it, _ := tl.Item(ids[0]); it.Span.Start != 0 {
		t.Errorf("original moved to %d", it.Span.Start)
	}
	if _, ok := tl.GroupByID(gid); !ok {
		t.Error("original lost its group")
	}
	if tl.Tracks().IsLocked(1) {
		t.Error("original track became locked")
	}
}

func TestTracks(t *testing.T) {
	r := NewTracks(Track{Name: "V1", Index: 7}, Track{Kind: TrackAudio})
	if r.Count() != 2 {
		t.Fatalf("Count() = %d", r.Count())
	}
	if tr, _ := r.Track(1); tr.Index != 1 {
		t.Errorf("caller index not replaced: %d", tr.Index)
	}
	if err := r.SetLocked(2, true); err != nil {
		t.Fatalf("SetLocked() error: %v", err)
	}
	if !r.IsLocked(2) || r.IsLocked(3) {
		t.Error("IsLocked() mismatch")
	}
	if got := r.Locked(); !slices.Equal(got, []int{2}) {
		t.Errorf("Locked() = %v", got)
	}
	if err := r.SetLocked(0, true); !errors.Is(err, ErrUnknownTrack) {
		t.Errorf("SetLocked(0) error = %v", err)
	}
	if tr, _ := r.Track(2); tr.Kind.Prefix() != "A" {
		t.Errorf("Prefix() = %q", tr.Kind.Prefix())
	}
}

func TestSplitGroup(t *testing.T) {
	tl, ids := newTestTimeline(t, Span{0, 10}, Span{10, 10}, Span{20, 10}, Span{30, 10})
	inner, err := tl.Group("inner", ids[2:], nil)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := tl.Group("outer", ids[:2], []GroupID{inner})
	if err != nil {
		t.Fatal(err)
	}
	startsAt := func(f Frame) func(ItemID) bool {
		return func(id ItemID) bool {
			it, _ := tl.Item(id)
			return it.Span.Start >= f
		}
	}

	if gid, err := tl.Split(outer, "none", startsAt(100)); err != nil || gid != NoGroup {
		t.Errorf("Split(nothing right) = %d, %v; want NoGroup", gid, err)
	}
	if gid, err := tl.Split(outer, "all", startsAt(0)); err != nil || gid != NoGroup {
		t.Errorf("Split(everything right) = %d, %v; want NoGroup", gid, err)
	}

	right, err := tl.Split(outer, "outer.2", startsAt(10))
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	got, _ := tl.Members(right)
	if !slices.Equal(got, ids[1:]) {
		t.Errorf("right members = %v, want %v", got, ids[1:])
	}
	if g, _ := tl.GroupByID(right); g.Parent != NoGroup || g.Name != "outer.2" {
		t.Errorf("right group = %+v, want root named outer.2", g)
	}
	if got, _ := tl.Members(outer); !slices.Equal(got, ids[:1]) {
		t.Errorf("left members = %v, want %v", got, ids[:1])
	}
	// inner lost both items and was dissolved.
	if _, ok := tl.GroupByID(inner); ok {
		t.Error("emptied nested group should be dissolved")
	}

	if _, err := tl.Split(99, "x", startsAt(0)); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("Split(unknown) error = %v, want ErrUnknownGroup", err)
	}
	if err := tl.RenameGroup(outer, "left"); err != nil {
		t.Fatal(err)
	}
	if g, _ := tl.GroupByID(outer); g.Name != "left" {
		t.Errorf("RenameGroup() name = %q, want left", g.Name)
	}
}
