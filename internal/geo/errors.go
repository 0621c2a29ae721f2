package geo

import (
	"errors"
	"fmt"
)

// ErrEmptyAnchorSet is returned when an index is built over zero anchors.
var ErrEmptyAnchorSet = errors.New("geo: cannot build index over an empty anchor set")

// PreconditionError reports malformed input reaching the join, such as a
// non-finite or out-of-range coordinate. Index is the offending element's
// position in its batch, or -1 for a single value.
type PreconditionError struct {
	Index  int
	Reason string
}

func (e *PreconditionError) Error() string {
	if e.Index < 0 {
		return "geo: precondition violated: " + e.Reason
	}
	return fmt.Sprintf("geo: precondition violated at element %d: %s", e.Index, e.Reason)
}

// InvariantViolationError reports an incident resolved to an anchor id that
// is not part of the anchor set. It always indicates a bug.
type InvariantViolationError struct {
	AnchorID string
	Incident int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("geo: invariant violated: incident %d resolved to unknown anchor %q", e.Incident, e.AnchorID)
}
