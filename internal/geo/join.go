package geo

import (
	"context"

	"github.com/rotisserie/eris"
)

// Anchor is a reporting unit's representative point.
type Anchor struct {
	ID    string
	Point LatLng
}

// JoinConfig controls index construction and query parallelism.
type JoinConfig struct {
	Metric      Metric
	LeafSize    int
	Concurrency int
}

// JoinResult holds the per-incident assignment and the per-anchor counts.
type JoinResult struct {
	// Assigned[i] is the anchor id of incident i.
	Assigned []string
	// Distances[i] is the angular distance from incident i to its anchor.
	Distances []float64
	// Counts has one entry per anchor, in anchor order.
	Counts []Count
}

// AnchorIndex is a spatial index over identified anchors.
type AnchorIndex struct {
	ids []string
	idx *Index
}

// NewAnchorIndex normalizes anchors and builds the index over them.
func NewAnchorIndex(anchors []Anchor, cfg JoinConfig) (*AnchorIndex, error) {
	ids := make([]string, len(anchors))
	points := make([]LatLng, len(anchors))
	for i, a := range anchors {
		ids[i] = a.ID
		points[i] = a.Point
	}

	coords, err := NormalizeAll(points)
	if err != nil {
		return nil, eris.Wrap(err, "geo: normalize anchors")
	}
	idx, err := Build(coords, WithMetric(cfg.Metric), WithLeafSize(cfg.LeafSize))
	if err != nil {
		return nil, err
	}
	return &AnchorIndex{ids: ids, idx: idx}, nil
}

// IDs returns the anchor ids in build order.
func (a *AnchorIndex) IDs() []string { return a.ids }

// Index returns the underlying ball tree.
func (a *AnchorIndex) Index() *Index { return a.idx }

// Nearest returns the id of the anchor closest to p and the distance in
// the index metric's units.
func (a *AnchorIndex) Nearest(p LatLng) (string, Neighbor, error) {
	c, err := ToRadians(p)
	if err != nil {
		return "", Neighbor{}, err
	}
	n := a.idx.Query(c)
	return a.ids[n.Index], n, nil
}

// Join runs the full kernel: normalize both point sets, build the index over
// anchors, resolve every incident and count incidents per anchor.
func Join(ctx context.Context, anchors []Anchor, incidents []LatLng, cfg JoinConfig) (*JoinResult, error) {
	ai, err := NewAnchorIndex(anchors, cfg)
	if err != nil {
		return nil, err
	}
	incidentCoords, err := NormalizeAll(incidents)
	if err != nil {
		return nil, eris.Wrap(err, "geo: normalize incidents")
	}

	neighbors, err := NewResolver(ai.idx, WithConcurrency(cfg.Concurrency)).Resolve(ctx, incidentCoords)
	if err != nil {
		return nil, err
	}

	res := &JoinResult{
		Assigned:  make([]string, len(neighbors)),
		Distances: make([]float64, len(neighbors)),
	}
	for i, n := range neighbors {
		res.Assigned[i] = ai.ids[n.Index]
		res.Distances[i] = n.Distance
	}

	res.Counts, err = Aggregate(ai.ids, res.Assigned)
	if err != nil {
		return nil, err
	}
	return res, nil
}
