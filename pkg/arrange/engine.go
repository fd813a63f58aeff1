package arrange

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/timeline"
	"github.com/matzehuels/cutline/pkg/timeline/collision"
	"github.com/matzehuels/cutline/pkg/timeline/snap"
)

// Engine applies arrangement operations to a timeline.
type Engine struct {
	tl        *timeline.Timeline
	tracks    timeline.TrackRegistry
	idx       *collision.Index
	snaps     *snap.Index
	cfg       Config
	logger    *log.Logger
	durations DurationProvider
	keyframes KeyframeStore

	// sources maps items created by a cut to the item whose source they
	// share, so duration lookups keep working for both halves.
	sources map[timeline.ItemID]timeline.ItemID

	// selection and extra are the inputs of the last snap rebuild. They are
	// reused whenever a commit changes the item set.
	selection []timeline.ItemID
	extra     []snap.Point
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option {
	return func(e *Engine) { e.cfg = c }
}

// WithLogger sets the logger. Rejections are logged at debug level.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithDurations sets the source duration provider. Without one every
// source is unbounded.
func WithDurations(p DurationProvider) Option {
	return func(e *Engine) {
		if p != nil {
			e.durations = p
		}
	}
}

// WithKeyframes sets the keyframe store notified after resizes.
func WithKeyframes(s KeyframeStore) Option {
	return func(e *Engine) {
		if s != nil {
			e.keyframes = s
		}
	}
}

// WithTracks overrides the registry used for lock and count queries. By
// default the timeline's own track list is used.
func WithTracks(r timeline.TrackRegistry) Option {
	return func(e *Engine) {
		if r != nil {
			e.tracks = r
		}
	}
}

// New creates an engine over tl. The timeline's items must already satisfy
// the no-overlap invariant; the initial snap index holds every item.
func New(tl *timeline.Timeline, opts ...Option) (*Engine, error) {
	if tl == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "timeline is nil")
	}
	e := &Engine{
		tl:        tl,
		tracks:    tl.Tracks(),
		cfg:       DefaultConfig(),
		logger:    log.New(io.Discard),
		durations: unbounded{},
		keyframes: noopKeyframes{},
		sources:   make(map[timeline.ItemID]timeline.ItemID),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	idx, err := collision.Build(tl.Items())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "build collision index")
	}
	e.idx = idx
	e.RebuildSnapIndex(nil, nil)
	return e, nil
}

// Timeline returns the underlying timeline. Callers may change group
// membership and track locks directly; item placements must only change
// through the engine.
func (e *Engine) Timeline() *timeline.Timeline { return e.tl }

// Config returns the current configuration.
func (e *Engine) Config() Config { return e.cfg }

// SetConfig replaces the configuration, e.g. after a zoom change.
func (e *Engine) SetConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.cfg = c
	return nil
}

// Item returns the current state of an item.
func (e *Engine) Item(id timeline.ItemID) (timeline.Item, bool) { return e.tl.Item(id) }

// Fingerprint returns a digest of the committed collision state.
func (e *Engine) Fingerprint() string { return e.idx.Fingerprint() }

// SnapIndex returns the current snap index.
func (e *Engine) SnapIndex() *snap.Index { return e.snaps }

// =============================================================================
// Structural edits
// =============================================================================

// Insert adds a new item, standing in for the editor's "add clip" action.
// It fails with a COLLISION error if the item would overlap a same-kind
// item on its track.
func (e *Engine) Insert(it timeline.Item) (timeline.ItemID, error) {
	id, err := e.tl.AddItem(it)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "insert %s", it.Kind)
	}
	added, _ := e.tl.Item(id)
	if err := e.idx.Insert(collision.EntryOf(added)); err != nil {
		_ = e.tl.RemoveItem(id)
		return 0, errors.Wrap(errors.ErrCodeCollision, err, "insert %s at t%d %s", it.Kind, it.Track, it.Span)
	}
	e.logger.Debug("inserted", "item", id, "kind", added.Kind, "track", added.Track, "span", added.Span)
	e.rebuildSnaps()
	return id, nil
}

// Remove deletes an item, standing in for the editor's "delete" action.
func (e *Engine) Remove(id timeline.ItemID) error {
	if err := e.tl.RemoveItem(id); err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "remove item %d", id)
	}
	e.idx.Remove(id)
	delete(e.sources, id)
	e.selection = slices.DeleteFunc(e.selection, func(s timeline.ItemID) bool { return s == id })
	e.logger.Debug("removed", "item", id)
	e.rebuildSnaps()
	return nil
}

// =============================================================================
// Queries
// =============================================================================

// QueryOccupancy returns the items of any kind on track that overlap r,
// ordered by start.
func (e *Engine) QueryOccupancy(track int, r timeline.Span) []timeline.Item {
	entries := e.idx.Occupancy(track, r)
	out := make([]timeline.Item, 0, len(entries))
	for _, en := range entries {
		if it, ok := e.tl.Item(en.ID); ok {
			out = append(out, it)
		}
	}
	return out
}

// GroupExtent returns the smallest span covering every member of a group.
func (e *Engine) GroupExtent(gid timeline.GroupID) (timeline.Span, error) {
	items, err := e.groupItems(gid)
	if err != nil {
		return timeline.Span{}, err
	}
	return extentOf(items), nil
}

// =============================================================================
// Snapping
// =============================================================================

// RebuildSnapIndex rebuilds the snap index from every item not in exclude
// plus extra points such as guides and the playhead. Call it when a drag
// starts; the engine itself rebuilds after every commit, insert and removal
// with the same exclude set and extra points. When exclude is non-empty,
// boundaries are also offered shifted left by the selection's extent so
// the selection's end can snap.
func (e *Engine) RebuildSnapIndex(exclude []timeline.ItemID, extra []snap.Point) {
	e.selection = sortedIDs(exclude)
	e.extra = slices.Clone(extra)
	e.rebuildSnaps()
}

// Selection returns the items the snap index currently excludes.
func (e *Engine) Selection() []timeline.ItemID { return slices.Clone(e.selection) }

func (e *Engine) rebuildSnaps() {
	start := time.Now()
	var extent timeline.Frame
	var sel []timeline.Item
	for _, id := range e.selection {
		if it, ok := e.tl.Item(id); ok {
			sel = append(sel, it)
		}
	}
	if len(sel) > 0 {
		extent = extentOf(sel).Duration
	}
	e.snaps = snap.Build(snap.FromItems(e.tl.Items(), e.selection, extent, e.extra))
	observability.Arrange().OnSnapRebuild(e.snaps.Len(), time.Since(start))
}

// drag makes sure the snap index excludes ids before an operation snaps
// their edges, so an item never snaps onto its own boundaries. A current
// selection that already covers ids is kept as is; otherwise ids become
// the selection and the index is rebuilt.
func (e *Engine) drag(ids ...timeline.ItemID) {
	covered := !slices.ContainsFunc(ids, func(id timeline.ItemID) bool {
		return !slices.Contains(e.selection, id)
	})
	if covered {
		return
	}
	e.selection = sortedIDs(ids)
	e.rebuildSnaps()
}

// SnapFrame returns t moved onto the nearest snap point within tolerance,
// or t itself when there is none or snapping is off.
func (e *Engine) SnapFrame(t timeline.Frame) timeline.Frame {
	if p, ok := e.snaps.Nearest(t, e.cfg.SnapTolerance()); ok {
		return p.Time
	}
	return t
}

// =============================================================================
// Commit
// =============================================================================

// commit makes the After placements of ps the committed state. The
// collision index is checked again as a whole; a failure here means the
// resolver let an overlap through and is reported as an internal error.
func (e *Engine) commit(op string, ps []ItemPlacement) Result {
	batch := make([]collision.Entry, 0, len(ps))
	for _, p := range ps {
		it, ok := e.tl.Item(p.ID)
		if !ok {
			return e.internal(op, ps, fmt.Errorf("item %d vanished", p.ID))
		}
		if !p.After.Span.Valid() || p.After.CropStart < 0 {
			return e.internal(op, ps, fmt.Errorf("item %d: invalid placement %s", p.ID, p.After))
		}
		if e.tracks.IsLocked(p.After.Track) && p.Changed() {
			return e.internal(op, ps, fmt.Errorf("item %d: placement on locked track %d", p.ID, p.After.Track))
		}
		batch = append(batch, collision.EntryOf(it.WithPlacement(p.After)))
	}
	if err := e.idx.Commit(batch); err != nil {
		return e.internal(op, ps, err)
	}
	items := make([]timeline.Item, 0, len(ps))
	for _, p := range ps {
		// The index accepted the batch, so every placement is valid.
		_ = e.tl.SetPlacement(p.ID, p.After)
		it, _ := e.tl.Item(p.ID)
		items = append(items, it)
	}
	e.logger.Debug("committed", "op", op, "items", len(ps))
	e.rebuildSnaps()
	observability.Arrange().OnCommit(op, items)
	return Result{Op: op, Status: StatusCommitted, Placements: ps}
}

// reject builds a rejection carrying the current placements of ids.
func (e *Engine) reject(op string, reason Reason, ids ...timeline.ItemID) Result {
	e.logger.Debug("rejected", "op", op, "items", ids, "reason", reason)
	observability.Arrange().OnReject(op, reason.String())
	return Result{Op: op, Status: StatusRejected, Reason: reason, Placements: e.current(ids)}
}

func (e *Engine) unchanged(op string, ids ...timeline.ItemID) Result {
	return Result{Op: op, Status: StatusUnchanged, Placements: e.current(ids)}
}

func (e *Engine) internal(op string, ps []ItemPlacement, err error) Result {
	e.logger.Error("consistency check failed", "op", op, "err", err)
	observability.Arrange().OnReject(op, ReasonInternal.String())
	ids := make([]timeline.ItemID, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return Result{Op: op, Status: StatusRejected, Reason: ReasonInternal, Placements: e.current(ids)}
}

func (e *Engine) current(ids []timeline.ItemID) []ItemPlacement {
	out := make([]ItemPlacement, 0, len(ids))
	for _, id := range ids {
		if it, ok := e.tl.Item(id); ok {
			p := it.Placement()
			out = append(out, ItemPlacement{ID: id, Before: p, After: p})
		}
	}
	return out
}

// =============================================================================
// Helpers
// =============================================================================

// maxDuration resolves the source length of id, following cut pieces back
// to the item that was originally added.
func (e *Engine) maxDuration(id timeline.ItemID) (timeline.Frame, bool) {
	if src, ok := e.sources[id]; ok {
		id = src
	}
	return e.durations.MaxDuration(id)
}

func (e *Engine) clampKeyframes(it timeline.Item) {
	if it.IsClip() {
		e.keyframes.ClampKeyframesToRange(it.ID, it.CropStart, it.CropEnd())
	}
}

func (e *Engine) groupItems(gid timeline.GroupID) ([]timeline.Item, error) {
	ids, err := e.tl.Members(gid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "group %d", gid)
	}
	items := make([]timeline.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := e.tl.Item(id); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func extentOf(items []timeline.Item) timeline.Span {
	if len(items) == 0 {
		return timeline.Span{}
	}
	ext := items[0].Span
	for _, it := range items[1:] {
		ext = ext.Union(it.Span)
	}
	return ext
}

func sortedIDs(ids []timeline.ItemID) []timeline.ItemID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func idsOf(items []timeline.Item) []timeline.ItemID {
	ids := make([]timeline.ItemID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	slices.Sort(ids)
	return ids
}
