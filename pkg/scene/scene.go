package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/timeline"
	"github.com/matzehuels/cutline/pkg/timeline/snap"
)

// Scene is a loaded fixture: a timeline plus the collaborator data an
// engine needs.
type Scene struct {
	Timeline  *timeline.Timeline
	Config    arrange.Config
	Durations arrange.DurationMap
	Guides    []timeline.Frame

	// Playhead is the cursor position, or -1 when the scene has none.
	Playhead timeline.Frame

	itemNames  map[string]timeline.ItemID
	groupNames map[string]timeline.GroupID
}

type sceneFile struct {
	FPS      timeline.FrameRate `toml:"fps"`
	Playhead *Time              `toml:"playhead,omitempty"`
	Guides   []Time             `toml:"guides,omitempty"`
	Config   arrange.Config     `toml:"config"`
	Tracks   []trackEntry       `toml:"tracks"`
	Items    []itemEntry        `toml:"items"`
	Groups   []groupEntry       `toml:"groups,omitempty"`
}

type trackEntry struct {
	Name   string `toml:"name"`
	Kind   string `toml:"kind,omitempty"`
	Locked bool   `toml:"locked,omitempty"`
}

type itemEntry struct {
	Name        string `toml:"name" json:"name"`
	Kind        string `toml:"kind,omitempty" json:"kind,omitempty"`
	Track       int    `toml:"track" json:"track"`
	Start       Time   `toml:"start" json:"start"`
	Duration    Time   `toml:"duration" json:"duration"`
	CropStart   Time   `toml:"crop_start,omitempty" json:"crop_start,omitzero"`
	MaxDuration *Time  `toml:"max_duration,omitempty" json:"max_duration,omitempty"`
	Markers     []Time `toml:"markers,omitempty" json:"markers,omitempty"`
}

type groupEntry struct {
	Name   string   `toml:"name"`
	Items  []string `toml:"items,omitempty"`
	Groups []string `toml:"groups,omitempty"`
}

// Read decodes a scene from r.
//
// Read returns an INVALID_SCENE error if the TOML is malformed, a name is
// missing or duplicated, a reference names an unknown item or group, or
// two same-kind items on a track overlap. Keys the format does not know
// are rejected so typos do not silently change a fixture.
func Read(r io.Reader) (*Scene, error) {
	// Keys absent from [config] keep their defaults.
	f := sceneFile{Config: arrange.DefaultConfig()}
	md, err := toml.NewDecoder(r).Decode(&f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "unknown key %q", undecoded[0].String())
	}
	return build(f)
}

// Load reads the scene file at path.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	s, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scene held in memory.
func Parse(data []byte) (*Scene, error) { return Read(bytes.NewReader(data)) }

func build(f sceneFile) (*Scene, error) {
	cfg := f.Config
	if f.FPS.Valid() {
		cfg.FPS = f.FPS
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "config")
	}
	rate := cfg.FPS

	s := &Scene{
		Config:     cfg,
		Durations:  arrange.DurationMap{},
		Playhead:   -1,
		itemNames:  make(map[string]timeline.ItemID),
		groupNames: make(map[string]timeline.GroupID),
	}
	if f.Playhead != nil {
		s.Playhead = f.Playhead.Resolve(rate)
	}
	for _, g := range f.Guides {
		s.Guides = append(s.Guides, g.Resolve(rate))
	}
	slices.Sort(s.Guides)

	tracks := timeline.NewTracks()
	for i, t := range f.Tracks {
		kind, ok := timeline.ParseTrackKind(t.Kind)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidScene, "track %d: unknown kind %q", i+1, t.Kind)
		}
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("%s%d", kind.Prefix(), i+1)
		}
		tracks.Append(timeline.Track{Name: name, Kind: kind, Locked: t.Locked})
	}
	tl := timeline.New(tracks)
	s.Timeline = tl

	for _, it := range f.Items {
		if err := s.addItem(it, rate); err != nil {
			return nil, err
		}
	}
	for _, g := range f.Groups {
		if err := s.addGroup(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scene) addItem(e itemEntry, rate timeline.FrameRate) error {
	if err := errors.ValidateName(e.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "item")
	}
	if _, dup := s.itemNames[e.Name]; dup {
		return errors.New(errors.ErrCodeInvalidScene, "duplicate item name %q", e.Name)
	}
	kind, ok := timeline.ParseItemKind(e.Kind)
	if !ok {
		return errors.New(errors.ErrCodeInvalidScene, "item %q: unknown kind %q", e.Name, e.Kind)
	}
	it := timeline.Item{
		Kind:      kind,
		Name:      e.Name,
		Track:     e.Track,
		Span:      timeline.Span{Start: e.Start.Resolve(rate), Duration: e.Duration.Resolve(rate)},
		CropStart: e.CropStart.Resolve(rate),
	}
	for _, m := range e.Markers {
		it.Markers = append(it.Markers, m.Resolve(rate))
	}
	if e.MaxDuration != nil && kind == timeline.KindClip {
		maxDur := e.MaxDuration.Resolve(rate)
		if it.CropEnd() > maxDur {
			return errors.New(errors.ErrCodeInvalidScene, "item %q: crop ends at %d past source length %d", e.Name, it.CropEnd(), maxDur)
		}
	}

	id, err := s.Timeline.AddItem(it)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "item %q", e.Name)
	}
	s.itemNames[e.Name] = id
	if e.MaxDuration != nil && kind == timeline.KindClip {
		s.Durations[id] = e.MaxDuration.Resolve(rate)
	}
	return nil
}

func (s *Scene) addGroup(e groupEntry) error {
	if err := errors.ValidateName(e.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "group")
	}
	if _, dup := s.groupNames[e.Name]; dup {
		return errors.New(errors.ErrCodeInvalidScene, "duplicate group name %q", e.Name)
	}
	var items []timeline.ItemID
	for _, name := range e.Items {
		id, ok := s.itemNames[name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidScene, "group %q: unknown item %q", e.Name, name)
		}
		items = append(items, id)
	}
	var groups []timeline.GroupID
	for _, name := range e.Groups {
		gid, ok := s.groupNames[name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidScene, "group %q: unknown group %q (groups must be declared before use)", e.Name, name)
		}
		groups = append(groups, gid)
	}
	gid, err := s.Timeline.Group(e.Name, items, groups)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "group %q", e.Name)
	}
	s.groupNames[e.Name] = gid
	return nil
}

// ItemID returns the ID of the item with the given name.
func (s *Scene) ItemID(name string) (timeline.ItemID, bool) {
	id, ok := s.itemNames[name]
	return id, ok
}

// GroupID returns the ID of the group with the given name.
func (s *Scene) GroupID(name string) (timeline.GroupID, bool) {
	gid, ok := s.groupNames[name]
	return gid, ok
}

// SnapPoints returns the guides and playhead as extra snap points.
func (s *Scene) SnapPoints() []snap.Point {
	var out []snap.Point
	for _, g := range s.Guides {
		out = append(out, snap.Point{Time: g, Source: snap.SourceGuide})
	}
	if s.Playhead >= 0 {
		out = append(out, snap.Point{Time: s.Playhead, Source: snap.SourcePlayhead})
	}
	return out
}

// Engine creates an arrangement engine over the scene's timeline using its
// config and source durations, and seeds the snap index with the scene's
// guides and playhead.
func (s *Scene) Engine(logger *log.Logger, opts ...arrange.Option) (*arrange.Engine, error) {
	base := []arrange.Option{
		arrange.WithConfig(s.Config),
		arrange.WithDurations(s.Durations),
		arrange.WithLogger(logger),
	}
	e, err := arrange.New(s.Timeline, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	e.RebuildSnapIndex(nil, s.SnapPoints())
	return e, nil
}
