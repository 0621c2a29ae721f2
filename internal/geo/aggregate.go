package geo

import (
	"fmt"
)

// Count is the number of incidents assigned to one anchor.
type Count struct {
	AnchorID string `json:"anchor_id"`
	Count    int64  `json:"count"`
}

// Aggregate counts assigned incidents per anchor. The result has exactly one
// entry per anchor in anchorIDs order, including anchors that received no
// incidents. An assignment to an id outside anchorIDs is an
// InvariantViolationError.
func Aggregate(anchorIDs []string, assigned []string) ([]Count, error) {
	counts := make(map[string]int64, len(anchorIDs))
	for i, id := range anchorIDs {
		if _, dup := counts[id]; dup {
			return nil, &PreconditionError{Index: i, Reason: fmt.Sprintf("duplicate anchor id %q", id)}
		}
		counts[id] = 0
	}

	for i, id := range assigned {
		if _, ok := counts[id]; !ok {
			return nil, &InvariantViolationError{AnchorID: id, Incident: i}
		}
		counts[id]++
	}

	out := make([]Count, len(anchorIDs))
	for i, id := range anchorIDs {
		out[i] = Count{AnchorID: id, Count: counts[id]}
	}
	return out, nil
}
