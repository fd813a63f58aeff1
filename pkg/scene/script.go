package scene

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/timeline"
)

// Script operation names. The arrangement operations reuse the engine's
// names; the rest change editor state around them.
const (
	OpLock   = "lock"
	OpUnlock = "unlock"
	OpSnap   = "snap"
	OpInsert = "insert"
	OpRemove = "remove"
)

// Script is an ordered list of edit operations.
type Script struct {
	Ops []Op `toml:"ops"`
}

// Op is one scripted edit. Which fields apply depends on Name.
type Op struct {
	Name string `toml:"op" json:"op"`

	Item  string `toml:"item,omitempty" json:"item,omitempty"`
	Group string `toml:"group,omitempty" json:"group,omitempty"`
	Frame Time   `toml:"frame,omitempty" json:"frame,omitzero"`
	Track int    `toml:"track,omitempty" json:"track,omitempty"`

	// Frames and Tracks are deltas for group operations. Frames is also
	// the offset of insert-space.
	Frames Time `toml:"frames,omitempty" json:"frames,omitzero"`
	Tracks int  `toml:"tracks,omitempty" json:"tracks,omitempty"`

	// DY is the vertical pointer travel in pixels for group-drag.
	DY int `toml:"dy,omitempty" json:"dy,omitempty"`

	// Exclude lists the items being dragged for a snap rebuild.
	Exclude []string `toml:"exclude,omitempty" json:"exclude,omitempty"`

	// Insert describes a new item for the insert operation.
	Insert *itemEntry `toml:"new,omitempty" json:"new,omitempty"`
}

func (o Op) String() string {
	switch {
	case o.Item != "":
		return fmt.Sprintf("%s %s", o.Name, o.Item)
	case o.Group != "":
		return fmt.Sprintf("%s %s", o.Name, o.Group)
	case o.Track != 0:
		return fmt.Sprintf("%s t%d", o.Name, o.Track)
	}
	return o.Name
}

// Step is the outcome of one operation.
type Step struct {
	Op     Op
	Result arrange.Result
}

// ReadScript decodes a script from r.
func ReadScript(r io.Reader) (*Script, error) {
	var s Script
	md, err := toml.NewDecoder(r).Decode(&s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode script")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown script key %q", undecoded[0].String())
	}
	return &s, nil
}

// LoadScript reads the script file at path.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadScript(f)
}

// Apply runs every operation against e in order. Rejections are recorded
// in the returned steps and do not stop the script; unknown names and
// malformed operations do, returning the steps completed so far.
func (s *Script) Apply(sc *Scene, e *arrange.Engine) ([]Step, error) {
	steps := make([]Step, 0, len(s.Ops))
	for i, op := range s.Ops {
		res, err := sc.apply(e, op)
		if err != nil {
			return steps, fmt.Errorf("op %d (%s): %w", i+1, op, err)
		}
		steps = append(steps, Step{Op: op, Result: res})
	}
	return steps, nil
}

// Apply runs a single operation against e. Rejections are returned in the
// result; the error reports operations that could not be attempted.
func (sc *Scene) Apply(e *arrange.Engine, op Op) (arrange.Result, error) {
	return sc.apply(e, op)
}

func (sc *Scene) apply(e *arrange.Engine, op Op) (arrange.Result, error) {
	rate := e.Config().FPS
	switch op.Name {
	case arrange.OpMove, arrange.OpResizeStart, arrange.OpResizeEnd, arrange.OpCut:
		id, err := sc.item(op.Item)
		if err != nil {
			return arrange.Result{}, err
		}
		frame := op.Frame.Resolve(rate)
		switch op.Name {
		case arrange.OpMove:
			track := op.Track
			if track == 0 {
				it, _ := e.Item(id)
				track = it.Track
			}
			return e.TryMove(id, frame, track), nil
		case arrange.OpResizeStart:
			return e.TryResizeStart(id, frame), nil
		case arrange.OpResizeEnd:
			return e.TryResizeEnd(id, frame), nil
		}
		res := e.TryCut(id, frame)
		if res.Committed() {
			sc.nameCut(e, res)
		}
		return res, nil

	case arrange.OpGroupMove, arrange.OpGroupDrag, arrange.OpGroupResizeStart, arrange.OpGroupResizeEnd, arrange.OpGroupCut:
		gid, err := sc.group(op.Group)
		if err != nil {
			return arrange.Result{}, err
		}
		delta := op.Frames.Resolve(rate)
		switch op.Name {
		case arrange.OpGroupMove:
			return e.TryGroupMove(gid, delta, op.Tracks), nil
		case arrange.OpGroupDrag:
			return e.TryGroupDrag(gid, delta, op.DY), nil
		case arrange.OpGroupResizeStart:
			return e.TryGroupResizeStart(gid, delta), nil
		case arrange.OpGroupResizeEnd:
			return e.TryGroupResizeEnd(gid, delta), nil
		}
		res := e.TryGroupCut(gid, op.Frame.Resolve(rate))
		if res.Committed() {
			sc.nameCut(e, res)
			sc.nameGroup(e, op.Group, res.NewGroup)
		}
		return res, nil

	case arrange.OpInsertSpace:
		return e.TryInsertSpace(op.Track, op.Frame.Resolve(rate), op.Frames.Resolve(rate)), nil

	case OpLock, OpUnlock:
		if err := e.Timeline().Tracks().SetLocked(op.Track, op.Name == OpLock); err != nil {
			return arrange.Result{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "track %d", op.Track)
		}
		return arrange.Result{Op: op.Name, Status: arrange.StatusCommitted}, nil

	case OpSnap:
		var exclude []timeline.ItemID
		for _, name := range op.Exclude {
			id, err := sc.item(name)
			if err != nil {
				return arrange.Result{}, err
			}
			exclude = append(exclude, id)
		}
		e.RebuildSnapIndex(exclude, sc.SnapPoints())
		return arrange.Result{Op: op.Name, Status: arrange.StatusUnchanged}, nil

	case OpInsert:
		if op.Insert == nil {
			return arrange.Result{}, errors.New(errors.ErrCodeInvalidInput, "insert needs a [ops.new] table")
		}
		return sc.insert(e, *op.Insert)

	case OpRemove:
		id, err := sc.item(op.Item)
		if err != nil {
			return arrange.Result{}, err
		}
		if err := e.Remove(id); err != nil {
			return arrange.Result{}, err
		}
		delete(sc.itemNames, op.Item)
		delete(sc.Durations, id)
		return arrange.Result{Op: op.Name, Status: arrange.StatusCommitted}, nil
	}
	return arrange.Result{}, errors.New(errors.ErrCodeInvalidInput, "unknown op %q", op.Name)
}

func (sc *Scene) insert(e *arrange.Engine, it itemEntry) (arrange.Result, error) {
	if err := errors.ValidateName(it.Name); err != nil {
		return arrange.Result{}, err
	}
	if _, dup := sc.itemNames[it.Name]; dup {
		return arrange.Result{}, errors.New(errors.ErrCodeInvalidInput, "duplicate item name %q", it.Name)
	}
	kind, ok := timeline.ParseItemKind(it.Kind)
	if !ok {
		return arrange.Result{}, errors.New(errors.ErrCodeInvalidInput, "unknown kind %q", it.Kind)
	}
	rate := e.Config().FPS
	item := timeline.Item{
		Kind:      kind,
		Name:      it.Name,
		Track:     it.Track,
		Span:      timeline.Span{Start: it.Start.Resolve(rate), Duration: it.Duration.Resolve(rate)},
		CropStart: it.CropStart.Resolve(rate),
	}
	id, err := e.Insert(item)
	if errors.Is(err, errors.ErrCodeCollision) {
		return arrange.Result{Op: OpInsert, Status: arrange.StatusRejected, Reason: arrange.ReasonCollision}, nil
	}
	if err != nil {
		return arrange.Result{}, err
	}
	sc.itemNames[it.Name] = id
	if it.MaxDuration != nil && kind == timeline.KindClip {
		sc.Durations[id] = it.MaxDuration.Resolve(rate)
	}
	added, _ := e.Item(id)
	return arrange.Result{
		Op:         OpInsert,
		Status:     arrange.StatusCommitted,
		Placements: []arrange.ItemPlacement{{ID: id, After: added.Placement(), Created: true}},
	}, nil
}

// nameCut registers the right piece of a cut under a fresh name derived
// from the original ("A" -> "A.2", "A.3", ...).
func (sc *Scene) nameCut(e *arrange.Engine, res arrange.Result) {
	for _, p := range res.Placements {
		if !p.Created {
			continue
		}
		it, _ := e.Item(p.ID)
		for n := 2; ; n++ {
			name := fmt.Sprintf("%s.%d", it.Name, n)
			if _, taken := sc.itemNames[name]; !taken {
				sc.itemNames[name] = p.ID
				_ = e.Timeline().Rename(p.ID, name)
				break
			}
		}
	}
}

// nameGroup registers the group split off by a group cut under a fresh
// name derived from the original group's.
func (sc *Scene) nameGroup(e *arrange.Engine, from string, gid timeline.GroupID) {
	if gid == timeline.NoGroup {
		return
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s.%d", from, n)
		if _, taken := sc.groupNames[name]; !taken {
			sc.groupNames[name] = gid
			_ = e.Timeline().RenameGroup(gid, name)
			return
		}
	}
}

func (sc *Scene) item(name string) (timeline.ItemID, error) {
	id, ok := sc.itemNames[name]
	if !ok {
		return 0, errors.New(errors.ErrCodeNotFound, "unknown item %q", name)
	}
	return id, nil
}

func (sc *Scene) group(name string) (timeline.GroupID, error) {
	gid, ok := sc.groupNames[name]
	if !ok {
		return 0, errors.New(errors.ErrCodeNotFound, "unknown group %q", name)
	}
	if _, exists := sc.Timeline.GroupByID(gid); !exists {
		return 0, errors.New(errors.ErrCodeNotFound, "group %q was dissolved", name)
	}
	return gid, nil
}
