package arrange

import (
	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/timeline"
	"github.com/matzehuels/cutline/pkg/timeline/snap"
)

// Default configuration values.
const (
	DefaultTolerancePx    = 10
	DefaultPixelsPerFrame = 1.0
	DefaultTrackHeight    = 50
)

// Config holds the editor settings the engine reads on every operation.
// It replaces process-wide settings: two engines with different configs
// never observe each other.
type Config struct {
	// TolerancePx is the snap distance in screen pixels.
	TolerancePx int `toml:"tolerance_px"`

	// PixelsPerFrame is the current zoom. Larger values mean a smaller
	// snap tolerance in frames.
	PixelsPerFrame float64 `toml:"pixels_per_frame"`

	// TrackHeight is the lane height in pixels. It only affects the
	// sub-lane offset of transitions when computing a group's reference
	// position.
	TrackHeight int `toml:"track_height"`

	// SnapEnabled turns snapping of drag input on or off.
	SnapEnabled bool `toml:"snap"`

	// FPS is the project frame rate used to convert seconds at the edges.
	FPS timeline.FrameRate `toml:"fps"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		TolerancePx:    DefaultTolerancePx,
		PixelsPerFrame: DefaultPixelsPerFrame,
		TrackHeight:    DefaultTrackHeight,
		SnapEnabled:    true,
		FPS:            timeline.DefaultFPS,
	}
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if c.TolerancePx < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "tolerance_px must not be negative, got %d", c.TolerancePx)
	}
	if c.PixelsPerFrame <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pixels_per_frame must be positive, got %g", c.PixelsPerFrame)
	}
	if c.TrackHeight < 3 {
		return errors.New(errors.ErrCodeInvalidInput, "track_height must be at least 3, got %d", c.TrackHeight)
	}
	if !c.FPS.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "fps %s is not a positive rate", c.FPS)
	}
	return nil
}

// SnapTolerance returns the snap distance in frames at the configured zoom,
// or -1 when snapping is disabled.
func (c Config) SnapTolerance() timeline.Frame {
	if !c.SnapEnabled {
		return -1
	}
	return snap.Tolerance(c.TolerancePx, c.PixelsPerFrame)
}
