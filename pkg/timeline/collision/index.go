// Package collision provides the spatial query structure used to test
// candidate placements against the committed state of a timeline.
//
// Entries are kept in lanes keyed by (track, kind) and ordered by start
// frame. Because same-kind items on a track never overlap, starts and ends
// within a lane are both monotonic, so overlap queries are a binary search
// plus a short scan.
//
// The index holds committed state only. Candidates are tested with
// [Index.Query] and become visible only through [Index.Commit], which
// applies a whole batch of relocations or none of them.
package collision

import (
	"cmp"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/cutline/pkg/timeline"
)

var (
	// ErrOverlap is returned when an entry would overlap a same-kind entry
	// on the same track.
	ErrOverlap = errors.New("placement overlaps an existing item")

	// ErrDuplicate is returned when inserting an ID that is already indexed.
	ErrDuplicate = errors.New("item already indexed")

	// ErrNotIndexed is returned when an ID is not in the index.
	ErrNotIndexed = errors.New("item not indexed")
)

// Entry is the indexed footprint of one item.
type Entry struct {
	ID    timeline.ItemID
	Kind  timeline.ItemKind
	Track int
	Span  timeline.Span
}

// EntryOf returns the footprint of it.
func EntryOf(it timeline.Item) Entry {
	return Entry{ID: it.ID, Kind: it.Kind, Track: it.Track, Span: it.Span}
}

type laneKey struct {
	track int
	kind  timeline.ItemKind
}

// Index is the committed-state collision index.
//
// The zero value is not usable - use New or Build.
type Index struct {
	lanes map[laneKey][]Entry
	where map[timeline.ItemID]laneKey
}

// New returns an empty index.
func New() *Index {
	return &Index{
		lanes: make(map[laneKey][]Entry),
		where: make(map[timeline.ItemID]laneKey),
	}
}

// Build indexes items, returning an error wrapping ErrOverlap if any two
// same-kind items on a track overlap.
func Build(items []timeline.Item) (*Index, error) {
	idx := New()
	for _, it := range items {
		if err := idx.Insert(EntryOf(it)); err != nil {
			return nil, fmt.Errorf("item %d: %w", it.ID, err)
		}
	}
	return idx, nil
}

// Len returns the number of indexed entries.
func (x *Index) Len() int { return len(x.where) }

// Has reports whether id is indexed.
func (x *Index) Has(id timeline.ItemID) bool {
	_, ok := x.where[id]
	return ok
}

// Get returns the entry for id.
func (x *Index) Get(id timeline.ItemID) (Entry, bool) {
	key, ok := x.where[id]
	if !ok {
		return Entry{}, false
	}
	lane := x.lanes[key]
	i := slices.IndexFunc(lane, func(e Entry) bool { return e.ID == id })
	return lane[i], true
}

// Insert adds e after checking it against its lane.
func (x *Index) Insert(e Entry) error {
	if x.Has(e.ID) {
		return ErrDuplicate
	}
	if len(x.Query(e.Track, e.Kind, e.Span)) > 0 {
		return ErrOverlap
	}
	x.put(e)
	return nil
}

// Remove deletes id from the index. It reports whether id was present.
func (x *Index) Remove(id timeline.ItemID) bool {
	key, ok := x.where[id]
	if !ok {
		return false
	}
	x.lanes[key] = slices.DeleteFunc(x.lanes[key], func(e Entry) bool { return e.ID == id })
	if len(x.lanes[key]) == 0 {
		delete(x.lanes, key)
	}
	delete(x.where, id)
	return true
}

func (x *Index) put(e Entry) {
	key := laneKey{track: e.Track, kind: e.Kind}
	lane := x.lanes[key]
	i, _ := slices.BinarySearchFunc(lane, e, compareEntries)
	x.lanes[key] = slices.Insert(lane, i, e)
	x.where[e.ID] = key
}

func compareEntries(a, b Entry) int {
	if c := cmp.Compare(a.Span.Start, b.Span.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Commit replaces the entries named in batch in one step. Every entry must
// already be indexed; the new footprints are checked against the rest of
// the index and against each other. On error the index is unchanged.
func (x *Index) Commit(batch []Entry) error {
	moving := make(map[timeline.ItemID]bool, len(batch))
	for _, e := range batch {
		if !x.Has(e.ID) {
			return fmt.Errorf("item %d: %w", e.ID, ErrNotIndexed)
		}
		moving[e.ID] = true
	}
	exclude := func(id timeline.ItemID) bool { return moving[id] }
	for i, e := range batch {
		if len(x.QueryFunc(e.Track, e.Kind, e.Span, exclude)) > 0 {
			return fmt.Errorf("item %d: %w", e.ID, ErrOverlap)
		}
		for _, o := range batch[i+1:] {
			if o.Track == e.Track && o.Kind == e.Kind && o.Span.Overlaps(e.Span) {
				return fmt.Errorf("items %d and %d: %w", e.ID, o.ID, ErrOverlap)
			}
		}
	}
	for _, e := range batch {
		x.Remove(e.ID)
	}
	for _, e := range batch {
		x.put(e)
	}
	return nil
}

// Query returns the entries of the given kind on track that overlap span,
// skipping any IDs in exclude. Results are ordered by start.
func (x *Index) Query(track int, kind timeline.ItemKind, span timeline.Span, exclude ...timeline.ItemID) []Entry {
	return x.QueryFunc(track, kind, span, func(id timeline.ItemID) bool {
		return slices.Contains(exclude, id)
	})
}

// QueryFunc is Query with an exclusion predicate. A nil skip excludes
// nothing.
func (x *Index) QueryFunc(track int, kind timeline.ItemKind, span timeline.Span, skip func(timeline.ItemID) bool) []Entry {
	lane := x.lanes[laneKey{track: track, kind: kind}]
	if len(lane) == 0 || span.Duration <= 0 {
		return nil
	}
	// First entry starting at or after span's end cannot overlap; neither
	// can anything after it.
	hi, _ := slices.BinarySearchFunc(lane, span.End(), func(e Entry, f timeline.Frame) int {
		if e.Span.Start < f {
			return -1
		}
		return 1
	})
	var out []Entry
	for i := hi - 1; i >= 0; i-- {
		e := lane[i]
		if e.Span.End() <= span.Start {
			break
		}
		if skip != nil && skip(e.ID) {
			continue
		}
		out = append(out, e)
	}
	slices.Reverse(out)
	return out
}

// NextAfter returns the first entry of kind on track whose start is
// strictly greater than f, skipping exclude.
func (x *Index) NextAfter(track int, kind timeline.ItemKind, f timeline.Frame, exclude ...timeline.ItemID) (Entry, bool) {
	lane := x.lanes[laneKey{track: track, kind: kind}]
	i, _ := slices.BinarySearchFunc(lane, f, func(e Entry, t timeline.Frame) int {
		if e.Span.Start <= t {
			return -1
		}
		return 1
	})
	for ; i < len(lane); i++ {
		if !slices.Contains(exclude, lane[i].ID) {
			return lane[i], true
		}
	}
	return Entry{}, false
}

// PrevBefore returns the last entry of kind on track whose start is
// strictly less than f, skipping exclude.
func (x *Index) PrevBefore(track int, kind timeline.ItemKind, f timeline.Frame, exclude ...timeline.ItemID) (Entry, bool) {
	lane := x.lanes[laneKey{track: track, kind: kind}]
	i, _ := slices.BinarySearchFunc(lane, f, func(e Entry, t timeline.Frame) int {
		if e.Span.Start < t {
			return -1
		}
		return 1
	})
	for i--; i >= 0; i-- {
		if !slices.Contains(exclude, lane[i].ID) {
			return lane[i], true
		}
	}
	return Entry{}, false
}

// Occupancy returns every entry of any kind on track overlapping span,
// ordered by start then kind.
func (x *Index) Occupancy(track int, span timeline.Span) []Entry {
	var out []Entry
	for _, k := range timeline.Kinds {
		out = append(out, x.Query(track, k, span)...)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := compareEntries(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return out
}

// Entries returns every entry ordered by track, kind, start.
func (x *Index) Entries() []Entry {
	keys := make([]laneKey, 0, len(x.lanes))
	for k := range x.lanes {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b laneKey) int {
		if c := cmp.Compare(a.track, b.track); c != 0 {
			return c
		}
		return cmp.Compare(a.kind, b.kind)
	})
	out := make([]Entry, 0, len(x.where))
	for _, k := range keys {
		out = append(out, x.lanes[k]...)
	}
	return out
}

// Fingerprint returns a SHA-256 digest of every entry. Two indexes with
// the same fingerprint hold field-for-field identical entries.
func (x *Index) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, e := range x.Entries() {
		for _, v := range []int64{int64(e.ID), int64(e.Kind), int64(e.Track), int64(e.Span.Start), int64(e.Span.Duration)} {
			binary.BigEndian.PutUint64(buf[:], uint64(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Clone returns an independent copy of the index.
func (x *Index) Clone() *Index {
	cp := New()
	for k, lane := range x.lanes {
		cp.lanes[k] = slices.Clone(lane)
	}
	for id, k := range x.where {
		cp.where[id] = k
	}
	return cp
}
