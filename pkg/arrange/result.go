package arrange

import (
	"fmt"

	"github.com/matzehuels/cutline/pkg/errors"
	"github.com/matzehuels/cutline/pkg/timeline"
)

// Operation names reported in results, logs and hooks.
const (
	OpMove             = "move"
	OpResizeStart      = "resize-start"
	OpResizeEnd        = "resize-end"
	OpCut              = "cut"
	OpGroupMove        = "group-move"
	OpGroupResizeStart = "group-resize-start"
	OpGroupResizeEnd   = "group-resize-end"
	OpGroupDrag        = "group-drag"
	OpGroupCut         = "group-cut"
	OpInsertSpace      = "insert-space"
)

// Status is the outcome of an operation.
type Status int

const (
	// StatusUnchanged means the request resolved to the current placement.
	// Nothing was written.
	StatusUnchanged Status = iota
	// StatusCommitted means new placements are now the committed state.
	StatusCommitted
	// StatusRejected means the request could not be satisfied. The
	// committed state is untouched.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusCommitted:
		return "committed"
	case StatusRejected:
		return "rejected"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Reason explains a rejection.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonCollision
	ReasonLockedTrack
	ReasonOutOfBounds
	ReasonDurationTooSmall
	ReasonInvalidCrop

	// ReasonNotFound is returned for unknown item or group handles.
	ReasonNotFound
	// ReasonUnsupported is returned when the operation does not apply to
	// the item kind, e.g. cutting a transition.
	ReasonUnsupported
	// ReasonInternal marks a failed consistency check. It is a bug.
	ReasonInternal
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCollision:
		return "collision"
	case ReasonLockedTrack:
		return "locked-track"
	case ReasonOutOfBounds:
		return "out-of-bounds"
	case ReasonDurationTooSmall:
		return "duration-too-small"
	case ReasonInvalidCrop:
		return "invalid-crop"
	case ReasonNotFound:
		return "not-found"
	case ReasonUnsupported:
		return "unsupported"
	case ReasonInternal:
		return "internal"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Code maps the reason onto the error taxonomy.
func (r Reason) Code() errors.Code {
	switch r {
	case ReasonCollision:
		return errors.ErrCodeCollision
	case ReasonLockedTrack:
		return errors.ErrCodeLockedTrack
	case ReasonOutOfBounds:
		return errors.ErrCodeOutOfBounds
	case ReasonDurationTooSmall:
		return errors.ErrCodeDurationTooSmall
	case ReasonInvalidCrop:
		return errors.ErrCodeInvalidCrop
	case ReasonNotFound:
		return errors.ErrCodeNotFound
	case ReasonUnsupported:
		return errors.ErrCodeUnsupported
	case ReasonNone:
		return ""
	}
	return errors.ErrCodeInternal
}

// ItemPlacement records where one item was and where it is now. For
// unchanged and rejected results Before and After are equal.
type ItemPlacement struct {
	ID     timeline.ItemID
	Before timeline.Placement
	After  timeline.Placement

	// Created is set for items the operation added, such as the right half
	// of a cut. Before is zero for those.
	Created bool
}

// Changed reports whether the item moved or was created.
func (p ItemPlacement) Changed() bool { return p.Created || p.Before != p.After }

// Result is the outcome of a Try* operation.
type Result struct {
	Op         string
	Status     Status
	Reason     Reason
	Placements []ItemPlacement

	// VerticalDropped is set on group moves whose track change was
	// discarded because a destination track is locked.
	VerticalDropped bool

	// NewGroup is the group a group cut split off, or NoGroup.
	NewGroup timeline.GroupID
}

// Committed reports whether the operation changed the committed state.
func (r Result) Committed() bool { return r.Status == StatusCommitted }

// Rejected reports whether the operation was refused.
func (r Result) Rejected() bool { return r.Status == StatusRejected }

// Placement returns the resulting placement of id.
func (r Result) Placement(id timeline.ItemID) (timeline.Placement, bool) {
	for _, p := range r.Placements {
		if p.ID == id {
			return p.After, true
		}
	}
	return timeline.Placement{}, false
}

// Err converts a rejection into a *errors.Error. It returns nil for
// committed and unchanged results.
func (r Result) Err() error {
	if r.Status != StatusRejected {
		return nil
	}
	return errors.New(r.Reason.Code(), "%s rejected: %s", r.Op, r.Reason)
}

func (r Result) String() string {
	if r.Status == StatusRejected {
		return fmt.Sprintf("%s %s (%s)", r.Op, r.Status, r.Reason)
	}
	return fmt.Sprintf("%s %s", r.Op, r.Status)
}
