package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frame is the atomic unit of time on the timeline axis.
type Frame int64

// Span is a half-open interval [Start, Start+Duration) on the frame axis.
type Span struct {
	Start    Frame
	Duration Frame
}

// End returns the first frame after the span.
func (s Span) End() Frame { return s.Start + s.Duration }

// Valid reports whether the span has a positive duration and a
// non-negative start.
func (s Span) Valid() bool { return s.Duration > 0 && s.Start >= 0 }

// Shift returns the span moved by delta frames.
func (s Span) Shift(delta Frame) Span {
	return Span{Start: s.Start + delta, Duration: s.Duration}
}

// Overlaps reports whether s and o share at least one frame.
// Spans that merely touch (s.End() == o.Start) do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End() && o.Start < s.End()
}

// Intersection returns the overlapping part of s and o, or a zero span
// when they do not overlap.
func (s Span) Intersection(o Span) Span {
	if !s.Overlaps(o) {
		return Span{}
	}
	start := max(s.Start, o.Start)
	return Span{Start: start, Duration: min(s.End(), o.End()) - start}
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	start := min(s.Start, o.Start)
	return Span{Start: start, Duration: max(s.End(), o.End()) - start}
}

// Contains reports whether frame f lies inside the span.
func (s Span) Contains(f Frame) bool { return f >= s.Start && f < s.End() }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End()) }

// SpanBetween returns the span [start, end). The result is invalid when
// end <= start.
func SpanBetween(start, end Frame) Span {
	return Span{Start: start, Duration: end - start}
}

// FrameRate is a rational frames-per-second value. Conversions round to
// the nearest frame so repeated arithmetic never drifts: callers convert
// once at the boundary and stay in frames afterwards.
type FrameRate struct {
	Num int
	Den int
}

// Common frame rates.
var (
	FPS24      = FrameRate{Num: 24, Den: 1}
	FPS25      = FrameRate{Num: 25, Den: 1}
	FPS30      = FrameRate{Num: 30, Den: 1}
	FPS2997    = FrameRate{Num: 30000, Den: 1001}
	FPS60      = FrameRate{Num: 60, Den: 1}
	DefaultFPS = FPS25
)

// FPS returns the rate as a float.
func (r FrameRate) FPS() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Valid reports whether the rate is positive.
func (r FrameRate) Valid() bool { return r.Num > 0 && r.Den > 0 }

// Frames converts seconds to the nearest frame.
func (r FrameRate) Frames(seconds float64) Frame {
	return Frame(math.Round(seconds * float64(r.Num) / float64(r.Den)))
}

// Seconds converts a frame count to seconds.
func (r FrameRate) Seconds(f Frame) float64 {
	return float64(f) * float64(r.Den) / float64(r.Num)
}

// Timecode formats f as HH:MM:SS:FF using the rate's integer frame base.
func (r FrameRate) Timecode(f Frame) string {
	base := Frame(math.Round(r.FPS()))
	if base <= 0 {
		return fmt.Sprintf("%d", f)
	}
	sign := ""
	if f < 0 {
		sign, f = "-", -f
	}
	ff := f % base
	secs := f / base
	return fmt.Sprintf("%s%02d:%02d:%02d:%02d", sign, secs/3600, (secs/60)%60, secs%60, ff)
}

func (r FrameRate) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// ParseFrameRate parses "25", "29.97" or "30000/1001". Decimal NTSC
// spellings map to their exact rational form.
func ParseFrameRate(s string) (FrameRate, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(num)
		if err != nil {
			return FrameRate{}, fmt.Errorf("frame rate %q: %w", s, err)
		}
		d, err := strconv.Atoi(den)
		if err != nil {
			return FrameRate{}, fmt.Errorf("frame rate %q: %w", s, err)
		}
		r := FrameRate{Num: n, Den: d}
		if !r.Valid() {
			return FrameRate{}, fmt.Errorf("frame rate %q must be positive", s)
		}
		return r, nil
	}
	switch s {
	case "23.976", "23.98":
		return FrameRate{Num: 24000, Den: 1001}, nil
	case "29.97":
		return FPS2997, nil
	case "59.94":
		return FrameRate{Num: 60000, Den: 1001}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return FrameRate{}, fmt.Errorf("frame rate %q: %w", s, err)
	}
	if n <= 0 {
		return FrameRate{}, fmt.Errorf("frame rate %q must be positive", s)
	}
	return FrameRate{Num: n, Den: 1}, nil
}

// MarshalText implements encoding.TextMarshaler.
func (r FrameRate) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *FrameRate) UnmarshalText(b []byte) error {
	v, err := ParseFrameRate(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
