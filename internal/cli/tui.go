package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/render/lanes"
	"github.com/matzehuels/cutline/pkg/scene"
	"github.com/matzehuels/cutline/pkg/timeline"
)

var (
	tuiStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	tuiModeStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// tuiCommand creates the tui command for keyboard editing of a scene.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		eng    engineOpts
		draw   lanesOpts
		output string
	)

	cmd := &cobra.Command{
		Use:   "tui [scene]",
		Short: "Edit a scene with the keyboard",
		Long: `Edit a scene with the keyboard.

Select an item with tab, then nudge it with the arrow keys. The mode keys
switch between moving (m), trimming the in point (s) and trimming the out
point (e); g applies the edit to the item's whole group. Consecutive nudges
of the same selection form one drag, so snapping works as it does with a
mouse. x cuts at the playhead, the whole group in group mode; i and I open
and close a gap at the playhead on the selected item's track.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			sc, e, err := eng.loadScene(cmd, logger, args[0])
			if err != nil {
				return err
			}
			opts := draw.options(sc)
			opts.Color = true

			p := tea.NewProgram(newEditorModel(sc, e, opts), tea.WithContext(cmd.Context()), tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("tui: %w", err)
			}
			m := final.(editorModel)
			logger.Info("editing finished", "committed", m.committed, "rejected", m.rejected)
			if output != "" {
				if err := writeSceneFile(sc, output); err != nil {
					return err
				}
				printFile(cmd.OutOrStdout(), output)
			}
			return nil
		},
	}

	eng.register(cmd)
	draw.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the edited scene (TOML) on exit")

	return cmd
}

// =============================================================================
// Editor Model
// =============================================================================

type editMode int

const (
	modeMove editMode = iota
	modeResizeStart
	modeResizeEnd
)

func (m editMode) String() string {
	switch m {
	case modeResizeStart:
		return "trim in"
	case modeResizeEnd:
		return "trim out"
	}
	return "move"
}

// drag is the gesture in progress. Nudges accumulate into offset and every
// request is made from the drag origin, so the engine sees the raw pointer
// position and snaps it, just as it would for a mouse drag.
type drag struct {
	active bool
	id     timeline.ItemID
	group  timeline.GroupID
	mode   editMode
	origin timeline.Span
	offset timeline.Frame
}

// editorModel is the bubbletea model of the tui command. Update runs on a
// single goroutine, so engine calls never overlap.
type editorModel struct {
	scene  *scene.Scene
	engine *arrange.Engine
	opts   lanes.Options

	selected timeline.ItemID
	mode     editMode
	grouped  bool
	drag     drag
	playhead timeline.Frame
	zoom     float64 // pixels per frame at the default scale

	last      string
	committed int
	rejected  int
}

func newEditorModel(sc *scene.Scene, e *arrange.Engine, opts lanes.Options) editorModel {
	if opts.Scale <= 0 {
		opts.Scale = lanes.DefaultScale
	}
	m := editorModel{
		scene:    sc,
		engine:   e,
		opts:     opts,
		playhead: max(sc.Playhead, 0),
		zoom:     e.Config().PixelsPerFrame * float64(opts.Scale),
	}
	if items := sc.Timeline.Items(); len(items) > 0 {
		m.selected = items[0].ID
	}
	m.rebuildSnaps()
	return m
}

func (m editorModel) Init() tea.Cmd {
	return nil
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if ws, ok := msg.(tea.WindowSizeMsg); ok {
			m.opts.Width = max(ws.Width-8, 10)
		}
		return m, nil
	}

	step := m.opts.Scale
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab":
		m.selectNext(1)
	case "shift+tab":
		m.selectNext(-1)
	case "m":
		m.setMode(modeMove)
	case "s":
		m.setMode(modeResizeStart)
	case "e":
		m.setMode(modeResizeEnd)
	case "g":
		m.grouped = !m.grouped
		m.endDrag()
	case "left", "h":
		m.nudge(-step, 0)
	case "right", "l":
		m.nudge(step, 0)
	case "up", "k":
		m.nudge(0, -1)
	case "down", "j":
		m.nudge(0, 1)
	case ",":
		m.playhead = max(m.playhead-step, 0)
		m.endDrag()
	case ".":
		m.playhead += step
		m.endDrag()
	case "x":
		m.cut()
	case "i":
		m.space(step)
	case "I":
		m.space(-step)
	case "n":
		m.toggleSnap()
	case "+", "=":
		m.setScale(m.opts.Scale / 2)
	case "-":
		m.setScale(m.opts.Scale * 2)
	}
	return m, nil
}

func (m editorModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(appName))
	b.WriteString("  ")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	opts := m.opts
	opts.Playhead = m.playhead
	opts.Selected = m.selection()
	b.WriteString(lanes.Render(m.scene.Timeline, opts))
	b.WriteString("\n")

	if it, ok := m.engine.Item(m.selected); ok {
		b.WriteString(StyleValue.Render(it.String()))
		b.WriteString("\n")
	}
	if m.last != "" {
		b.WriteString(m.last)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(tuiHelpStyle.Render("tab select  ←/→ nudge  ↑/↓ track  m/s/e mode  g group  ,/. playhead  x cut  n snap  +/- zoom  q quit"))
	return b.String()
}

func (m editorModel) statusLine() string {
	mode := m.mode.String()
	if m.grouped {
		mode = "group " + mode
	}
	snapState := "snap off"
	if tol := m.engine.Config().SnapTolerance(); tol >= 0 {
		snapState = fmt.Sprintf("snap %df", tol)
	}
	return tuiModeStyle.Render(mode) + tuiStatusStyle.Render(fmt.Sprintf("  %s  %d f/cell  playhead %d", snapState, m.opts.Scale, m.playhead))
}

// =============================================================================
// Editing
// =============================================================================

// selection returns the items an edit of the current selection touches.
func (m editorModel) selection() []timeline.ItemID {
	if gid := m.group(); gid != timeline.NoGroup {
		if ids, err := m.scene.Timeline.Members(gid); err == nil {
			return ids
		}
	}
	return []timeline.ItemID{m.selected}
}

// group returns the root group edits apply to, or NoGroup in single-item
// mode.
func (m editorModel) group() timeline.GroupID {
	if !m.grouped {
		return timeline.NoGroup
	}
	return m.scene.Timeline.RootGroupOf(m.selected)
}

func (m *editorModel) selectNext(dir int) {
	items := m.scene.Timeline.Items()
	if len(items) == 0 {
		return
	}
	i := 0
	for j, it := range items {
		if it.ID == m.selected {
			i = j
			break
		}
	}
	i = (i + dir + len(items)) % len(items)
	m.selected = items[i].ID
	m.endDrag()
}

func (m *editorModel) setMode(mode editMode) {
	m.mode = mode
	m.endDrag()
}

// endDrag finishes the current gesture and rebuilds the snap index for
// the next one.
func (m *editorModel) endDrag() {
	m.drag = drag{}
	m.rebuildSnaps()
}

func (m *editorModel) rebuildSnaps() {
	m.scene.Playhead = m.playhead
	m.engine.RebuildSnapIndex(m.selection(), m.scene.SnapPoints())
}

// beginDrag starts a gesture on the current selection if none is active.
func (m *editorModel) beginDrag() bool {
	if m.drag.active {
		return true
	}
	d := drag{active: true, id: m.selected, mode: m.mode, group: m.group()}
	if d.group != timeline.NoGroup {
		ext, err := m.engine.GroupExtent(d.group)
		if err != nil {
			m.last = StyleWarning.Render(err.Error())
			return false
		}
		d.origin = ext
	} else {
		it, ok := m.engine.Item(m.selected)
		if !ok {
			return false
		}
		d.origin = it.Span
	}
	m.drag = d
	return true
}

func (m *editorModel) nudge(frames timeline.Frame, tracks int) {
	if !m.beginDrag() {
		return
	}
	if tracks != 0 && m.mode != modeMove {
		return
	}
	m.drag.offset += frames
	d := m.drag

	var res arrange.Result
	if d.group != timeline.NoGroup {
		ext, err := m.engine.GroupExtent(d.group)
		if err != nil {
			return
		}
		switch d.mode {
		case modeMove:
			res = m.engine.TryGroupMove(d.group, d.origin.Start+d.offset-ext.Start, tracks)
		case modeResizeStart:
			res = m.engine.TryGroupResizeStart(d.group, frames)
		case modeResizeEnd:
			res = m.engine.TryGroupResizeEnd(d.group, frames)
		}
	} else {
		it, ok := m.engine.Item(d.id)
		if !ok {
			return
		}
		switch d.mode {
		case modeMove:
			res = m.engine.TryMove(d.id, d.origin.Start+d.offset, it.Track+tracks)
		case modeResizeStart:
			res = m.engine.TryResizeStart(d.id, d.origin.Start+d.offset)
		case modeResizeEnd:
			res = m.engine.TryResizeEnd(d.id, d.origin.End()+d.offset)
		}
	}
	m.record(res)
}

func (m *editorModel) cut() {
	var res arrange.Result
	if g := m.group(); g != timeline.NoGroup {
		res = m.engine.TryGroupCut(g, m.playhead)
	} else {
		res = m.engine.TryCut(m.selected, m.playhead)
	}
	m.record(res)
	if res.Committed() {
		m.endDrag()
	}
}

// space opens (offset > 0) or closes a gap at the playhead on the selected
// item's track.
func (m *editorModel) space(offset timeline.Frame) {
	it, ok := m.engine.Item(m.selected)
	if !ok {
		return
	}
	res := m.engine.TryInsertSpace(it.Track, m.playhead, offset)
	m.record(res)
	if res.Committed() {
		m.endDrag()
	}
}

func (m *editorModel) toggleSnap() {
	cfg := m.engine.Config()
	cfg.SnapEnabled = !cfg.SnapEnabled
	if err := m.engine.SetConfig(cfg); err != nil {
		m.last = StyleWarning.Render(err.Error())
	}
	m.endDrag()
}

// setScale changes the lane zoom. The engine zoom follows so the snap
// tolerance stays the same number of screen pixels.
func (m *editorModel) setScale(scale timeline.Frame) {
	if scale < 1 || scale > 1000 {
		return
	}
	m.opts.Scale = scale
	cfg := m.engine.Config()
	cfg.PixelsPerFrame = m.zoom / float64(scale)
	if err := m.engine.SetConfig(cfg); err != nil {
		m.last = StyleWarning.Render(err.Error())
	}
	m.endDrag()
}

func (m *editorModel) record(res arrange.Result) {
	switch res.Status {
	case arrange.StatusCommitted:
		m.committed++
		m.last = styleIconSuccess.Render(iconSuccess) + " " + res.String()
	case arrange.StatusRejected:
		m.rejected++
		m.last = styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(res.String())
	default:
		m.last = styleIconInfo.Render(iconInfo) + " " + res.String()
	}
}
