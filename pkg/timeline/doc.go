// Package timeline provides the placement model of a non-linear editing
// timeline: tracks, the items placed on them, and groups of items.
//
// # Overview
//
// A timeline is a set of numbered tracks (lanes) laid out along a discrete
// frame axis. Each track holds two independent populations of items:
// clips, which occupy the full lane height, and transitions, which occupy
// the lower third of the lane. Items of the same kind on the same track
// never overlap in time; clips and transitions do not block each other.
//
// The package is the arena for that state. Items and groups are stored as
// records addressed by stable integer handles ([ItemID], [GroupID]); a
// [Group] holds member handles rather than owning its members, so an item
// belongs to the timeline and, optionally, to exactly one group.
//
// # Basic Usage
//
//	tl := timeline.New(timeline.NewTracks(
//	    timeline.Track{Kind: timeline.TrackVideo},
//	    timeline.Track{Kind: timeline.TrackAudio},
//	))
//	a, _ := tl.AddItem(timeline.Item{
//	    Kind:  timeline.KindClip,
//	    Track: 1,
//	    Span:  timeline.Span{Start: 0, Duration: 100},
//	})
//	g, _ := tl.Group([]timeline.ItemID{a}, nil)
//
// The package does not enforce the no-overlap rule: that is the job of
// [github.com/matzehuels/cutline/pkg/timeline/collision] and the
// arrangement engine in [github.com/matzehuels/cutline/pkg/arrange],
// which are the only callers that relocate items after creation.
//
// # Track Numbering
//
// Tracks are numbered from 1 to [Tracks.Count]. Index 0 is never valid.
//
// # Concurrency
//
// Timeline values are not safe for concurrent use. The arrangement engine
// runs on the single goroutine handling user input.
package timeline
