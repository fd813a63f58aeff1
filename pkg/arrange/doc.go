// Package arrange resolves interactive edits on a timeline into valid
// placements.
//
// # Overview
//
// An [Engine] owns the committed state of one timeline: the item arena,
// a collision index over it, and the snap index used to quantize drag
// input. Every edit goes through a Try* method which either commits a
// valid placement or leaves the state untouched:
//
//   - [Engine.TryMove] drags one item, with snapping, track clamping,
//     lock checks and a single pushback correction.
//   - [Engine.TryResizeStart] and [Engine.TryResizeEnd] trim an item's
//     in and out points. Extending the end is trimmed to the next item.
//   - [Engine.TryCut] splits a clip in two at a frame.
//   - [Engine.TryGroupMove], [Engine.TryGroupDrag],
//     [Engine.TryGroupResizeStart] and [Engine.TryGroupResizeEnd] apply
//     the same rules to a group as a single rigid unit.
//   - [Engine.TryGroupCut] cuts every clip of a group at a frame and
//     splits the group in two.
//   - [Engine.TryInsertSpace] opens or closes a gap on one track or all
//     of them.
//
// # Snapping
//
// The snap index holds the boundaries of every item outside the current
// selection, plus extra points such as guides. [Engine.RebuildSnapIndex]
// sets the selection when a drag starts. Operations on items outside it
// replace the selection with the dragged items first, so an item never
// snaps onto its own edges. The index is rebuilt after every commit,
// insert and removal, so it never offers boundaries that have moved away.
//
// # Results
//
// Operations never return errors for user input. A [Result] carries a
// [Status] and, for rejections, a [Reason]. Rejections are silent: the
// caller decides whether to show feedback. [Result.Err] converts a
// rejection into a coded error for callers that prefer error flow.
//
// # Invariants
//
// After any sequence of operations:
//   - No two items of the same kind on one track overlap.
//   - No committed placement lands on a locked track.
//   - No item has a duration below one frame.
//   - A rejected operation leaves the collision index field-for-field
//     identical to its prior state (see [Engine.Fingerprint]).
//
// Clips and transitions live in independent lanes of the same track and
// never block each other.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Operations are expected to run
// on the goroutine that handles input events, one at a time. Callers that
// share an engine (the HTTP API, for example) serialize access with a
// mutex.
package arrange
