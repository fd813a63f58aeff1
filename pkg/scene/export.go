package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cutline/pkg/timeline"
)

type arrangement struct {
	FPS    string      `json:"fps"`
	Tracks []trackJSON `json:"tracks"`
	Groups []groupJSON `json:"groups,omitempty"`
}

type trackJSON struct {
	Index  int        `json:"index"`
	Name   string     `json:"name"`
	Kind   string     `json:"kind"`
	Locked bool       `json:"locked,omitempty"`
	Items  []itemJSON `json:"items"`
}

type itemJSON struct {
	ID        timeline.ItemID  `json:"id"`
	Name      string           `json:"name,omitempty"`
	Kind      string           `json:"kind"`
	Start     timeline.Frame   `json:"start"`
	End       timeline.Frame   `json:"end"`
	Duration  timeline.Frame   `json:"duration"`
	CropStart timeline.Frame   `json:"crop_start,omitempty"`
	Group     timeline.GroupID `json:"group,omitempty"`
}

type groupJSON struct {
	ID     timeline.GroupID   `json:"id"`
	Name   string             `json:"name,omitempty"`
	Parent timeline.GroupID   `json:"parent,omitempty"`
	Items  []timeline.ItemID  `json:"items,omitempty"`
	Groups []timeline.GroupID `json:"groups,omitempty"`
}

// WriteJSON writes the scene's current arrangement to w: every track with
// the items occupying it in start order, then the group tree.
func WriteJSON(s *Scene, w io.Writer) error {
	tl := s.Timeline
	out := arrangement{FPS: s.Config.FPS.String()}
	for _, t := range tl.Tracks().All() {
		out.Tracks = append(out.Tracks, trackJSON{
			Index:  t.Index,
			Name:   t.Name,
			Kind:   t.Kind.String(),
			Locked: t.Locked,
			Items:  []itemJSON{},
		})
	}
	for _, it := range tl.Items() {
		tr := &out.Tracks[it.Track-1]
		tr.Items = append(tr.Items, itemJSON{
			ID:        it.ID,
			Name:      it.Name,
			Kind:      it.Kind.String(),
			Start:     it.Span.Start,
			End:       it.Span.End(),
			Duration:  it.Span.Duration,
			CropStart: it.CropStart,
			Group:     tl.GroupOf(it.ID),
		})
	}
	for _, g := range tl.Groups() {
		out.Groups = append(out.Groups, groupJSON{
			ID:     g.ID,
			Name:   g.Name,
			Parent: g.Parent,
			Items:  g.Items,
			Groups: g.Groups,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the arrangement to a JSON file at path.
func ExportJSON(s *Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(s, f)
}

// WriteTOML writes the scene's current state to w in the format Read
// accepts. Unnamed items and groups get names derived from their IDs.
// Times are written as frames.
func WriteTOML(s *Scene, w io.Writer) error {
	tl := s.Timeline
	f := sceneFile{FPS: s.Config.FPS, Config: s.Config}
	if s.Playhead >= 0 {
		p := FrameTime(s.Playhead)
		f.Playhead = &p
	}
	for _, g := range s.Guides {
		f.Guides = append(f.Guides, FrameTime(g))
	}
	for _, t := range tl.Tracks().All() {
		entry := trackEntry{Name: t.Name, Locked: t.Locked}
		if t.Kind != timeline.TrackVideo {
			entry.Kind = t.Kind.String()
		}
		f.Tracks = append(f.Tracks, entry)
	}

	itemName := func(id timeline.ItemID) string {
		it, _ := tl.Item(id)
		if it.Name != "" {
			return it.Name
		}
		return fmt.Sprintf("item%d", id)
	}
	for _, it := range tl.Items() {
		entry := itemEntry{
			Name:      itemName(it.ID),
			Track:     it.Track,
			Start:     FrameTime(it.Span.Start),
			Duration:  FrameTime(it.Span.Duration),
			CropStart: FrameTime(it.CropStart),
		}
		if it.IsTransition() {
			entry.Kind = it.Kind.String()
		}
		if d, ok := s.Durations.MaxDuration(it.ID); ok {
			md := FrameTime(d)
			entry.MaxDuration = &md
		}
		for _, m := range it.Markers {
			entry.Markers = append(entry.Markers, FrameTime(m))
		}
		f.Items = append(f.Items, entry)
	}

	groupName := func(g timeline.Group) string {
		if g.Name != "" {
			return g.Name
		}
		return fmt.Sprintf("group%d", g.ID)
	}
	groups := tl.Groups()
	depth := func(g timeline.Group) int {
		d := 0
		for p := g.Parent; p != timeline.NoGroup; d++ {
			parent, _ := tl.GroupByID(p)
			p = parent.Parent
		}
		return d
	}
	// Nested groups must be declared before the groups that contain them.
	slices.SortStableFunc(groups, func(a, b timeline.Group) int { return depth(b) - depth(a) })
	for _, g := range groups {
		entry := groupEntry{Name: groupName(g)}
		for _, id := range g.Items {
			entry.Items = append(entry.Items, itemName(id))
		}
		for _, sub := range g.Groups {
			sg, _ := tl.GroupByID(sub)
			entry.Groups = append(entry.Groups, groupName(sg))
		}
		f.Groups = append(f.Groups, entry)
	}

	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
