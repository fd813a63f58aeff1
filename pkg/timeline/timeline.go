package timeline

import (
	"cmp"
	"errors"
	"slices"
)

var (
	// ErrUnknownItem is returned when an ItemID does not name an item.
	ErrUnknownItem = errors.New("unknown item")

	// ErrUnknownGroup is returned when a GroupID does not name a group.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrUnknownTrack is returned when a track index is outside [1, count].
	ErrUnknownTrack = errors.New("unknown track")

	// ErrInvalidSpan is returned for spans with a non-positive duration or
	// a negative start.
	ErrInvalidSpan = errors.New("span must have a positive duration and a non-negative start")

	// ErrInvalidCrop is returned for clips with a negative crop start.
	ErrInvalidCrop = errors.New("crop start must not be negative")

	// ErrAlreadyGrouped is returned when an item or group that already has
	// a parent group is added to another group. Membership is exclusive.
	ErrAlreadyGrouped = errors.New("member already belongs to a group")

	// ErrEmptyGroup is returned when a group would have no members.
	ErrEmptyGroup = errors.New("group needs at least one member")
)

// Group is a rigid composite of items and nested groups. It stores member
// handles only; the items themselves live in the Timeline.
type Group struct {
	ID     GroupID
	Name   string
	Items  []ItemID
	Groups []GroupID
	Parent GroupID
}

// Timeline is the arena of tracks, items and groups.
//
// The zero value is not usable - use New.
type Timeline struct {
	tracks      *Tracks
	items       map[ItemID]*Item
	groups      map[GroupID]*Group
	itemGroup   map[ItemID]GroupID
	nextItemID  ItemID
	nextGroupID GroupID
}

// New creates an empty timeline over tracks. A nil tracks value creates an
// empty track list.
func New(tracks *Tracks) *Timeline {
	if tracks == nil {
		tracks = NewTracks()
	}
	return &Timeline{
		tracks:    tracks,
		items:     make(map[ItemID]*Item),
		groups:    make(map[GroupID]*Group),
		itemGroup: make(map[ItemID]GroupID),
	}
}

// Tracks returns the track registry.
func (t *Timeline) Tracks() *Tracks { return t.tracks }

// =============================================================================
// Items
// =============================================================================

// AddItem validates it, assigns it a fresh ID and stores it. The ID set by
// the caller is ignored. AddItem does not check for overlaps.
func (t *Timeline) AddItem(it Item) (ItemID, error) {
	if err := t.validate(it.Placement(), it.Kind); err != nil {
		return 0, err
	}
	t.nextItemID++
	it.ID = t.nextItemID
	it.Markers = slices.Clone(it.Markers)
	t.items[it.ID] = &it
	return it.ID, nil
}

func (t *Timeline) validate(p Placement, kind ItemKind) error {
	if !p.Span.Valid() {
		return ErrInvalidSpan
	}
	if !t.tracks.Valid(p.Track) {
		return ErrUnknownTrack
	}
	if kind == KindClip && p.CropStart < 0 {
		return ErrInvalidCrop
	}
	return nil
}

// RemoveItem deletes an item and drops it from its group. A group left
// without members is dissolved.
func (t *Timeline) RemoveItem(id ItemID) error {
	if _, ok := t.items[id]; !ok {
		return ErrUnknownItem
	}
	if gid, ok := t.itemGroup[id]; ok {
		t.detachItem(gid, id)
	}
	delete(t.items, id)
	return nil
}

// Item returns a copy of the item with the given ID.
func (t *Timeline) Item(id ItemID) (Item, bool) {
	it, ok := t.items[id]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// ItemCount returns the number of items.
func (t *Timeline) ItemCount() int { return len(t.items) }

// Items returns copies of all items ordered by track, start, then ID.
func (t *Timeline) Items() []Item {
	out := make([]Item, 0, len(t.items))
	for _, it := range t.items {
		out = append(out, *it)
	}
	slices.SortFunc(out, CompareItems)
	return out
}

// CompareItems orders items by track, start, then ID.
func CompareItems(a, b Item) int {
	if c := cmp.Compare(a.Track, b.Track); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Span.Start, b.Span.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SetPlacement relocates an item. It validates the placement on its own
// but performs no collision checks; the arrangement engine calls it only
// after a placement has been resolved.
func (t *Timeline) SetPlacement(id ItemID, p Placement) error {
	it, ok := t.items[id]
	if !ok {
		return ErrUnknownItem
	}
	if err := t.validate(p, it.Kind); err != nil {
		return err
	}
	*it = it.WithPlacement(p)
	return nil
}

// Rename changes an item's display name.
func (t *Timeline) Rename(id ItemID, name string) error {
	it, ok := t.items[id]
	if !ok {
		return ErrUnknownItem
	}
	it.Name = name
	return nil
}

// =============================================================================
// Groups
// =============================================================================

// Group creates a group from free items and root groups. Every member must
// exist and must not already belong to a group.
func (t *Timeline) Group(name string, items []ItemID, groups []GroupID) (GroupID, error) {
	if len(items) == 0 && len(groups) == 0 {
		return NoGroup, ErrEmptyGroup
	}
	for _, id := range items {
		if _, ok := t.items[id]; !ok {
			return NoGroup, ErrUnknownItem
		}
		if _, grouped := t.itemGroup[id]; grouped {
			return NoGroup, ErrAlreadyGrouped
		}
	}
	for _, gid := range groups {
		g, ok := t.groups[gid]
		if !ok {
			return NoGroup, ErrUnknownGroup
		}
		if g.Parent != NoGroup {
			return NoGroup, ErrAlreadyGrouped
		}
	}

	t.nextGroupID++
	g := &Group{
		ID:     t.nextGroupID,
		Name:   name,
		Items:  slices.Clone(items),
		Groups: slices.Clone(groups),
	}
	slices.Sort(g.Items)
	g.Items = slices.Compact(g.Items)
	slices.Sort(g.Groups)
	g.Groups = slices.Compact(g.Groups)

	t.groups[g.ID] = g
	for _, id := range g.Items {
		t.itemGroup[id] = g.ID
	}
	for _, sub := range g.Groups {
		t.groups[sub].Parent = g.ID
	}
	return g.ID, nil
}

// Ungroup dissolves a group. Its items become free and its subgroups
// become children of the dissolved group's parent.
func (t *Timeline) Ungroup(gid GroupID) error {
	g, ok := t.groups[gid]
	if !ok {
		return ErrUnknownGroup
	}
	parent := g.Parent
	for _, id := range g.Items {
		if parent != NoGroup {
			t.itemGroup[id] = parent
		} else {
			delete(t.itemGroup, id)
		}
	}
	for _, sub := range g.Groups {
		t.groups[sub].Parent = parent
	}
	if parent != NoGroup {
		p := t.groups[parent]
		p.Groups = slices.DeleteFunc(p.Groups, func(x GroupID) bool { return x == gid })
		p.Items = append(p.Items, g.Items...)
		p.Groups = append(p.Groups, g.Groups...)
		slices.Sort(p.Items)
		slices.Sort(p.Groups)
	}
	delete(t.groups, gid)
	return nil
}

// AddToGroup adds a free item to a group.
func (t *Timeline) AddToGroup(gid GroupID, id ItemID) error {
	g, ok := t.groups[gid]
	if !ok {
		return ErrUnknownGroup
	}
	if _, ok := t.items[id]; !ok {
		return ErrUnknownItem
	}
	if _, grouped := t.itemGroup[id]; grouped {
		return ErrAlreadyGrouped
	}
	g.Items = append(g.Items, id)
	slices.Sort(g.Items)
	t.itemGroup[id] = gid
	return nil
}

// RemoveFromGroup makes a grouped item free again. Removing a free item is
// a no-op.
func (t *Timeline) RemoveFromGroup(id ItemID) error {
	if _, ok := t.items[id]; !ok {
		return ErrUnknownItem
	}
	if gid, ok := t.itemGroup[id]; ok {
		t.detachItem(gid, id)
	}
	return nil
}

func (t *Timeline) detachItem(gid GroupID, id ItemID) {
	delete(t.itemGroup, id)
	g := t.groups[gid]
	g.Items = slices.DeleteFunc(g.Items, func(x ItemID) bool { return x == id })
	t.pruneEmpty(gid)
}

// pruneEmpty dissolves gid and then each ancestor for as long as they are
// left without members.
func (t *Timeline) pruneEmpty(gid GroupID) {
	for gid != NoGroup {
		g := t.groups[gid]
		if len(g.Items) > 0 || len(g.Groups) > 0 {
			return
		}
		parent := g.Parent
		_ = t.Ungroup(gid)
		gid = parent
	}
}

// RenameGroup changes a group's display name.
func (t *Timeline) RenameGroup(gid GroupID, name string) error {
	g, ok := t.groups[gid]
	if !ok {
		return ErrUnknownGroup
	}
	g.Name = name
	return nil
}

// Split moves the items of gid, at any nesting depth, for which right
// reports true out of the group and into a new root group called name.
// The new group holds its items directly; nesting is not carried over.
// When right holds for none or all of the members nothing changes and
// NoGroup is returned.
func (t *Timeline) Split(gid GroupID, name string, right func(ItemID) bool) (GroupID, error) {
	members, err := t.Members(gid)
	if err != nil {
		return NoGroup, err
	}
	var moved []ItemID
	for _, id := range members {
		if right(id) {
			moved = append(moved, id)
		}
	}
	if len(moved) == 0 || len(moved) == len(members) {
		return NoGroup, nil
	}
	for _, id := range moved {
		t.detachItem(t.itemGroup[id], id)
	}
	return t.Group(name, moved, nil)
}

// GroupByID returns a copy of the group with the given ID.
func (t *Timeline) GroupByID(gid GroupID) (Group, bool) {
	g, ok := t.groups[gid]
	if !ok {
		return Group{}, false
	}
	cp := *g
	cp.Items = slices.Clone(g.Items)
	cp.Groups = slices.Clone(g.Groups)
	return cp, true
}

// Groups returns copies of all groups ordered by ID.
func (t *Timeline) Groups() []Group {
	out := make([]Group, 0, len(t.groups))
	for gid := range t.groups {
		g, _ := t.GroupByID(gid)
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b Group) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// GroupOf returns the group that directly contains the item, or NoGroup.
func (t *Timeline) GroupOf(id ItemID) GroupID {
	return t.itemGroup[id]
}

// RootGroupOf returns the outermost group containing the item, or NoGroup.
// Dragging any member of a nested group moves the root group.
func (t *Timeline) RootGroupOf(id ItemID) GroupID {
	gid := t.itemGroup[id]
	for gid != NoGroup {
		parent := t.groups[gid].Parent
		if parent == NoGroup {
			return gid
		}
		gid = parent
	}
	return NoGroup
}

// Members returns every item inside the group, including items of nested
// groups, in ascending ID order.
func (t *Timeline) Members(gid GroupID) ([]ItemID, error) {
	if _, ok := t.groups[gid]; !ok {
		return nil, ErrUnknownGroup
	}
	var out []ItemID
	stack := []GroupID{gid}
	for len(stack) > 0 {
		g := t.groups[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		out = append(out, g.Items...)
		stack = append(stack, g.Groups...)
	}
	slices.Sort(out)
	return out, nil
}

// Clone returns a deep copy of the timeline, including its tracks.
func (t *Timeline) Clone() *Timeline {
	cp := New(NewTracks(t.tracks.All()...))
	cp.nextItemID = t.nextItemID
	cp.nextGroupID = t.nextGroupID
	for id, it := range t.items {
		c := *it
		c.Markers = slices.Clone(it.Markers)
		cp.items[id] = &c
	}
	for gid := range t.groups {
		g, _ := t.GroupByID(gid)
		cp.groups[gid] = &g
	}
	for id, gid := range t.itemGroup {
		cp.itemGroup[id] = gid
	}
	return cp
}
