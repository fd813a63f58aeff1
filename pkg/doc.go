// Package pkg provides the core libraries of Cutline, a timeline
// arrangement engine for non-linear video editing.
//
// # Overview
//
// Cutline decides where clips and transitions land when an editor drags,
// trims or cuts them. Every request is checked against the items already
// on the timeline; a request that would overlap another item is either
// corrected (pushed back, clamped) or rejected, and a rejected request
// never changes the timeline. The pkg directory is organized as:
//
//  1. [timeline] - Item, group, track and time model
//  2. [arrange] - Move, resize, cut and group operations
//  3. [scene] - TOML scene files, edit scripts and JSON export
//  4. [render] - Text lanes and group diagrams
//  5. [session], [api], [notify] - HTTP sessions and event publishing
//
// # Architecture
//
// The typical data flow:
//
//	scene file (TOML)
//	         ↓
//	    [scene] package (load tracks, items, groups)
//	         ↓
//	    [arrange] package (engine over timeline, snap and collision indexes)
//	         ↓
//	    [render] package, JSON export or HTTP responses
//
// # Quick Start
//
//	tl := timeline.New(timeline.NewTracks(timeline.Track{Name: "V1"}))
//	a, _ := tl.AddItem(timeline.Item{Name: "A", Track: 1, Span: timeline.Span{Duration: 100}})
//
//	e, _ := arrange.New(tl)
//	res := e.TryMove(a, 120, 1)
//	if res.Committed() {
//	    p, _ := res.Placement(a)
//	    fmt.Println(p.Span)
//	}
//
// # Main Packages
//
// [timeline] - Frames, spans and frame rates; items with source crops and
// markers; nested groups; tracks with lock state. Subpackages [snap] and
// [collision] hold the per-gesture snap index and per-track interval index.
//
// [arrange] - The engine. Single-item moves resolve snapping, pushback and
// track changes; resizes clamp to the source media; group operations move
// or trim every member in lockstep. Results report committed, rejected or
// unchanged status with the placements that changed.
//
// [scene] - Reading and writing scenes as TOML, replaying edit scripts
// and exporting arrangements as JSON.
//
// [errors] - Error codes and user-facing messages shared by the CLI and
// the HTTP API.
//
// [observability] - Hooks invoked around every arrangement operation.
//
// [timeline]: github.com/matzehuels/cutline/pkg/timeline
// [snap]: github.com/matzehuels/cutline/pkg/timeline/snap
// [collision]: github.com/matzehuels/cutline/pkg/timeline/collision
// [arrange]: github.com/matzehuels/cutline/pkg/arrange
// [scene]: github.com/matzehuels/cutline/pkg/scene
// [render]: github.com/matzehuels/cutline/pkg/render
// [session]: github.com/matzehuels/cutline/pkg/session
// [api]: github.com/matzehuels/cutline/pkg/api
// [notify]: github.com/matzehuels/cutline/pkg/notify
// [errors]: github.com/matzehuels/cutline/pkg/errors
// [observability]: github.com/matzehuels/cutline/pkg/observability
package pkg
