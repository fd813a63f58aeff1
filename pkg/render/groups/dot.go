// Package groups renders the group hierarchy of a timeline as a Graphviz
// graph.
//
// Groups become rounded boxes labelled with their name and time extent,
// items become plain boxes, and edges run from each group to its direct
// members. Nested groups therefore read top-down from root group to leaf
// item. [ToDOT] produces the DOT source; [RenderSVG] lays it out with the
// embedded Graphviz from go-graphviz.
package groups

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// Options configures group diagram rendering.
type Options struct {
	// Free includes items that belong to no group as isolated nodes.
	Free bool
	// Detailed adds track and crop information to item labels.
	Detailed bool
}

// ToDOT converts the group forest of tl to Graphviz DOT.
func ToDOT(tl *timeline.Timeline, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph groups {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, g := range tl.Groups() {
		fmt.Fprintf(&buf, "  %q [%s];\n", groupNode(g.ID), strings.Join(groupAttrs(tl, g), ", "))
	}
	for _, it := range tl.Items() {
		if !opts.Free && tl.GroupOf(it.ID) == timeline.NoGroup {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", itemNode(it.ID), strings.Join(itemAttrs(it, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, g := range tl.Groups() {
		for _, sub := range g.Groups {
			fmt.Fprintf(&buf, "  %q -> %q;\n", groupNode(g.ID), groupNode(sub))
		}
		for _, id := range g.Items {
			fmt.Fprintf(&buf, "  %q -> %q;\n", groupNode(g.ID), itemNode(id))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func groupNode(id timeline.GroupID) string { return fmt.Sprintf("g%d", id) }
func itemNode(id timeline.ItemID) string   { return fmt.Sprintf("i%d", id) }

func groupAttrs(tl *timeline.Timeline, g timeline.Group) []string {
	name := g.Name
	if name == "" {
		name = groupNode(g.ID)
	}
	label := name
	if ext, ok := extent(tl, g.ID); ok {
		label += "\n" + ext.String()
	}
	attrs := []string{fmt.Sprintf("label=%q", label), "style=\"rounded,filled\"", "fillcolor=lightblue"}
	if g.Parent == timeline.NoGroup {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

func itemAttrs(it timeline.Item, detailed bool) []string {
	name := it.Name
	if name == "" {
		name = itemNode(it.ID)
	}
	label := name
	if detailed {
		label = fmt.Sprintf("%s\n%s t%d %s", name, it.Kind, it.Track, it.Span)
		if it.IsClip() {
			label += fmt.Sprintf("\ncrop@%d", it.CropStart)
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if it.IsTransition() {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

func extent(tl *timeline.Timeline, gid timeline.GroupID) (timeline.Span, bool) {
	ids, err := tl.Members(gid)
	if err != nil || len(ids) == 0 {
		return timeline.Span{}, false
	}
	var out timeline.Span
	for i, id := range ids {
		it, _ := tl.Item(id)
		if i == 0 {
			out = it.Span
			continue
		}
		out = out.Union(it.Span)
	}
	return out, true
}

// RenderSVG lays out a DOT graph and returns the SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root element so the drawing scales from a
// zero origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
