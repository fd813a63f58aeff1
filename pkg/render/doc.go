// Package render provides visual output for timelines.
//
// # Overview
//
// Rendering never changes a timeline; it reads the arrangement and draws
// it. Two renderers are provided:
//
//   - Track lanes as text (in [lanes] subpackage)
//   - Group hierarchy diagrams (in [groups] subpackage)
//
// # Lanes
//
// The [lanes] subpackage draws each track as a block of text rows, used by
// the show, apply and tui commands.
//
//	out := lanes.Render(tl, lanes.Options{Scale: 5})
//	fmt.Print(out, lanes.Legend(tl))
//
// # Group Diagrams
//
// The [groups] subpackage renders nested groups with Graphviz.
//
//	dot := groups.ToDOT(tl, groups.Options{Free: true})
//	svg, err := groups.RenderSVG(ctx, dot)
//
// [lanes]: github.com/matzehuels/cutline/pkg/render/lanes
// [groups]: github.com/matzehuels/cutline/pkg/render/groups
package render
