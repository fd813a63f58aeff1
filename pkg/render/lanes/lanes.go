// Package lanes draws a timeline as rows of text cells, one block of rows
// per track.
//
// Each cell stands for [Options.Scale] frames. Clips fill every row of
// their lane with the first letter of their name; transitions are drawn
// over the lower rows starting at [timeline.ItemKind.SubLaneOffset], the
// same sub-lane the arrangement engine uses for vertical reference. A
// ruler line on top labels every tenth cell and marks the playhead.
//
// Output is plain text unless [Options.Color] is set, in which case cells
// are styled with lipgloss.
package lanes

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// Default values applied by [Options.withDefaults].
const (
	DefaultScale = 5
	DefaultRows  = 3
	rulerStep    = 10
)

const (
	cellEmpty      = '.'
	cellTransition = '~'
	markPlayhead   = 'v'
	markLocked     = "#"
)

var palette = []lipgloss.Color{"36", "75", "35", "220", "170", "208", "111", "150"}

var (
	styleEmpty      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleTransition = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	styleLabel      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleLocked     = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	styleRuler      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	stylePlayhead   = lipgloss.NewStyle().Foreground(lipgloss.Color("167")).Bold(true)
)

// Options controls the drawing.
type Options struct {
	// Scale is the number of frames per cell.
	Scale timeline.Frame
	// Rows is the height of one lane in text rows.
	Rows int
	// Width is the number of cells. Zero fits the last item end.
	Width int
	// Playhead is marked on the ruler when non-negative.
	Playhead timeline.Frame
	// Selected items are drawn reversed in color mode.
	Selected []timeline.ItemID
	// Color enables lipgloss styling.
	Color bool
}

// DefaultOptions returns plain-text options with no playhead.
func DefaultOptions() Options {
	return Options{Scale: DefaultScale, Rows: DefaultRows, Playhead: -1}
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Rows <= 0 {
		o.Rows = DefaultRows
	}
	return o
}

// Render draws every track of tl.
func Render(tl *timeline.Timeline, opts Options) string {
	opts = opts.withDefaults()
	items := tl.Items()
	width := opts.Width
	if width <= 0 {
		width = fitWidth(items, opts)
	}
	tracks := tl.Tracks().All()
	labelW := 0
	for _, t := range tracks {
		labelW = max(labelW, utf8.RuneCountInString(trackLabel(t)))
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", labelW+3))
	b.WriteString(ruler(width, opts))
	b.WriteByte('\n')

	byTrack := make(map[int][]timeline.Item)
	for _, it := range items {
		byTrack[it.Track] = append(byTrack[it.Track], it)
	}
	for _, t := range tracks {
		rows := laneRows(byTrack[t.Index], width, opts)
		for r, row := range rows {
			label := ""
			if r == 0 {
				label = trackLabel(t)
			}
			b.WriteString(renderLabel(label, labelW, t.Locked, opts.Color))
			b.WriteString("  ")
			b.WriteString(row)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Legend lists the letter drawn for each clip, one per line.
func Legend(tl *timeline.Timeline) string {
	var b strings.Builder
	for _, it := range tl.Items() {
		if !it.IsClip() {
			continue
		}
		fmt.Fprintf(&b, "%c  %s\n", letter(it), it)
	}
	return b.String()
}

func fitWidth(items []timeline.Item, opts Options) int {
	var end timeline.Frame
	for _, it := range items {
		end = max(end, it.Span.End())
	}
	if opts.Playhead >= 0 {
		end = max(end, opts.Playhead+1)
	}
	w := int((end + opts.Scale - 1) / opts.Scale)
	return max(w, rulerStep)
}

func trackLabel(t timeline.Track) string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s%d", t.Kind.Prefix(), t.Index)
}

func renderLabel(label string, width int, locked, color bool) string {
	pad := label + strings.Repeat(" ", width-utf8.RuneCountInString(label))
	lock := " "
	if locked && label != "" {
		lock = markLocked
	}
	if !color {
		return pad + lock
	}
	return styleLabel.Render(pad) + styleLocked.Render(lock)
}

func ruler(width int, opts Options) string {
	line := []rune(strings.Repeat(" ", width))
	for c := 0; c < width; c += rulerStep {
		label := fmt.Sprint(timeline.Frame(c) * opts.Scale)
		for i, r := range label {
			if c+i < width {
				line[c+i] = r
			}
		}
	}
	head := -1
	if opts.Playhead >= 0 {
		head = int(opts.Playhead / opts.Scale)
		if head < width {
			line[head] = markPlayhead
		}
	}
	if !opts.Color {
		return string(line)
	}
	var b strings.Builder
	for i, r := range line {
		if i == head {
			b.WriteString(stylePlayhead.Render(string(r)))
			continue
		}
		b.WriteString(styleRuler.Render(string(r)))
	}
	return b.String()
}

// cell is one drawn position: the rune and the item that owns it.
type cell struct {
	r    rune
	item timeline.Item
	set  bool
}

func laneRows(items []timeline.Item, width int, opts Options) []string {
	grid := make([][]cell, opts.Rows)
	for r := range grid {
		grid[r] = make([]cell, width)
	}
	// Clips first so transitions land on top.
	for _, kind := range timeline.Kinds {
		first := kind.SubLaneOffset(opts.Rows)
		for _, it := range items {
			if it.Kind != kind {
				continue
			}
			ch := cellTransition
			if it.IsClip() {
				ch = letter(it)
			}
			lo, hi := cellRange(it.Span, opts.Scale, width)
			for r := max(first, 0); r < opts.Rows; r++ {
				for c := lo; c < hi; c++ {
					grid[r][c] = cell{r: ch, item: it, set: true}
				}
			}
		}
	}
	out := make([]string, opts.Rows)
	for r, row := range grid {
		out[r] = renderRow(row, opts)
	}
	return out
}

func cellRange(s timeline.Span, scale timeline.Frame, width int) (int, int) {
	lo := int(s.Start / scale)
	hi := int((s.End() + scale - 1) / scale)
	return min(lo, width), min(hi, width)
}

func renderRow(row []cell, opts Options) string {
	var b strings.Builder
	for _, c := range row {
		if !c.set {
			if opts.Color {
				b.WriteString(styleEmpty.Render(string(cellEmpty)))
			} else {
				b.WriteRune(cellEmpty)
			}
			continue
		}
		if !opts.Color {
			b.WriteRune(c.r)
			continue
		}
		b.WriteString(itemStyle(c.item, opts).Render(string(c.r)))
	}
	return b.String()
}

func itemStyle(it timeline.Item, opts Options) lipgloss.Style {
	st := styleTransition
	if it.IsClip() {
		st = lipgloss.NewStyle().Foreground(palette[int(it.ID)%len(palette)])
	}
	if slices.Contains(opts.Selected, it.ID) {
		st = st.Reverse(true)
	}
	return st
}

func letter(it timeline.Item) rune {
	r, _ := utf8.DecodeRuneInString(it.Name)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return '#'
	}
	return unicode.ToUpper(r)
}
