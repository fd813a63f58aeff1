package timeline

// TrackKind distinguishes video lanes from audio lanes.
type TrackKind int

const (
	TrackVideo TrackKind = iota
	TrackAudio
)

func (k TrackKind) String() string {
	if k == TrackAudio {
		return "audio"
	}
	return "video"
}

// Prefix returns the short label used for default track names ("V", "A").
func (k TrackKind) Prefix() string {
	if k == TrackAudio {
		return "A"
	}
	return "V"
}

// ParseTrackKind maps "video"/"audio" to a TrackKind.
func ParseTrackKind(s string) (TrackKind, bool) {
	switch s {
	case "video", "":
		return TrackVideo, true
	case "audio":
		return TrackAudio, true
	}
	return TrackVideo, false
}

// Track is one horizontal lane of the timeline.
type Track struct {
	Index  int // 1-based, assigned by Tracks
	Name   string
	Kind   TrackKind
	Locked bool
}

// TrackRegistry is the read side of the track list consumed by the
// arrangement engine.
type TrackRegistry interface {
	IsLocked(track int) bool
	TrackCount() int
}

// Tracks is the ordered track list. Indices are stable for the session:
// tracks are only appended, never reordered.
type Tracks struct {
	list []Track
}

// NewTracks creates a registry from ts, assigning indices 1..len(ts).
// Any Index set by the caller is ignored.
func NewTracks(ts ...Track) *Tracks {
	r := &Tracks{}
	for _, t := range ts {
		r.Append(t)
	}
	return r
}

// Append adds a track after the last one and returns its index.
func (r *Tracks) Append(t Track) int {
	t.Index = len(r.list) + 1
	r.list = append(r.list, t)
	return t.Index
}

// Count returns the number of tracks.
func (r *Tracks) Count() int { return len(r.list) }

// TrackCount implements TrackRegistry.
func (r *Tracks) TrackCount() int { return len(r.list) }

// Valid reports whether index names an existing track.
func (r *Tracks) Valid(index int) bool { return index >= 1 && index <= len(r.list) }

// Track returns the track at index.
func (r *Tracks) Track(index int) (Track, bool) {
	if !r.Valid(index) {
		return Track{}, false
	}
	return r.list[index-1], true
}

// All returns a copy of the track list in index order.
func (r *Tracks) All() []Track {
	out := make([]Track, len(r.list))
	copy(out, r.list)
	return out
}

// IsLocked reports whether the track at index is locked. Unknown indices
// report false; range checks are the caller's job.
func (r *Tracks) IsLocked(index int) bool {
	if !r.Valid(index) {
		return false
	}
	return r.list[index-1].Locked
}

// SetLocked changes the lock flag of a track.
func (r *Tracks) SetLocked(index int, locked bool) error {
	if !r.Valid(index) {
		return ErrUnknownTrack
	}
	r.list[index-1].Locked = locked
	return nil
}

// Locked returns the indices of all locked tracks.
func (r *Tracks) Locked() []int {
	var out []int
	for _, t := range r.list {
		if t.Locked {
			out = append(out, t.Index)
		}
	}
	return out
}

// ClampTrack clamps index into [1, count]. With no tracks it returns 0.
func ClampTrack(index, count int) int {
	if count < 1 {
		return 0
	}
	return max(1, min(index, count))
}
