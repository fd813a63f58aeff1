package scene

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// Time is a scene time value: integer frames, or seconds written as a
// string with an "s" suffix ("2.5s").
type Time struct {
	Frames  timeline.Frame
	Seconds float64
	seconds bool
}

// FrameTime returns a Time holding f frames.
func FrameTime(f timeline.Frame) Time { return Time{Frames: f} }

// UnmarshalTOML implements toml.Unmarshaler.
func (t *Time) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		*t = Time{Frames: timeline.Frame(x)}
		return nil
	case string:
		s, ok := strings.CutSuffix(strings.TrimSpace(x), "s")
		if !ok {
			return fmt.Errorf("time %q: want frames or seconds like \"2.5s\"", x)
		}
		sec, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("time %q: %w", x, err)
		}
		*t = Time{Seconds: sec, seconds: true}
		return nil
	}
	return fmt.Errorf("time: unsupported value %v (%T)", v, v)
}

// MarshalTOML writes the value back as integer frames.
func (t Time) MarshalTOML() ([]byte, error) {
	if t.seconds {
		return nil, fmt.Errorf("time %gs has not been resolved to frames", t.Seconds)
	}
	return []byte(strconv.FormatInt(int64(t.Frames), 10)), nil
}

// UnmarshalJSON accepts the same forms as UnmarshalTOML: an integer frame
// count or a seconds string.
func (t *Time) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if f, ok := v.(float64); ok {
		if f != math.Trunc(f) {
			return fmt.Errorf("time %v: frames must be an integer", f)
		}
		v = int64(f)
	}
	return t.UnmarshalTOML(v)
}

// MarshalJSON writes frames as a number and unresolved seconds as a
// string.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.seconds {
		return json.Marshal(strconv.FormatFloat(t.Seconds, 'f', -1, 64) + "s")
	}
	return json.Marshal(int64(t.Frames))
}

// Resolve converts the value to frames at rate.
func (t Time) Resolve(rate timeline.FrameRate) timeline.Frame {
	if t.seconds {
		return rate.Frames(t.Seconds)
	}
	return t.Frames
}
