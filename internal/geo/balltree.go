package geo

import (
	"cmp"
	"math"
	"slices"
)

// DefaultLeafSize is the number of anchors below which a node is scanned
// linearly instead of split.
const DefaultLeafSize = 40

// pruneSlack absorbs rounding in the triangle-inequality bound.
const pruneSlack = 1e-12

// Neighbor is a query result: the anchor's position in the slice the index
// was built from and its distance to the query point.
type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
}

// Kilometers converts an angular haversine distance to kilometers.
func (n Neighbor) Kilometers() float64 {
	return n.Distance * EarthRadiusKM
}

// IndexOption configures Build.
type IndexOption func(*Index)

// WithMetric selects the distance metric. The default is Haversine.
func WithMetric(m Metric) IndexOption {
	return func(ix *Index) {
		ix.metric = m
	}
}

// WithLeafSize overrides DefaultLeafSize. Values below 1 are ignored.
func WithLeafSize(n int) IndexOption {
	return func(ix *Index) {
		if n > 0 {
			ix.leafSize = n
		}
	}
}

type ballNode struct {
	pivot       Coord
	radius      float64
	start, end  int
	left, right int // -1 on leaves
}

// Index is a ball tree over a fixed set of anchor coordinates. It is never
// mutated after Build and is safe for concurrent queries.
type Index struct {
	metric   Metric
	leafSize int
	points   []Coord // copy of the anchors, original order
	order    []int   // tree order -> original position
	nodes    []ballNode
}

// Build constructs an index over anchors, which must be in radians. The
// anchors are copied; later changes to the slice do not affect the index.
func Build(anchors []Coord, opts ...IndexOption) (*Index, error) {
	if len(anchors) == 0 {
		return nil, ErrEmptyAnchorSet
	}

	ix := &Index{
		metric:   Haversine,
		leafSize: DefaultLeafSize,
		points:   slices.Clone(anchors),
		order:    make([]int, len(anchors)),
	}
	for _, opt := range opts {
		opt(ix)
	}
	for i := range ix.order {
		ix.order[i] = i
	}

	ix.nodes = make([]ballNode, 0, 2*len(anchors)/ix.leafSize+1)
	ix.build(0, len(anchors))
	return ix, nil
}

// Len returns the number of anchors in the index.
func (ix *Index) Len() int { return len(ix.points) }

// Metric returns the metric the index was built with.
func (ix *Index) Metric() Metric { return ix.metric }

// Anchor returns the coordinate of anchor i.
func (ix *Index) Anchor(i int) Coord { return ix.points[i] }

func (ix *Index) build(start, end int) int {
	id := len(ix.nodes)
	ix.nodes = append(ix.nodes, ballNode{start: start, end: end, left: -1, right: -1})

	pivot := ix.centroid(start, end)
	var radius float64
	for _, p := range ix.order[start:end] {
		radius = max(radius, ix.metric.Distance(pivot, ix.points[p]))
	}
	ix.nodes[id].pivot = pivot
	ix.nodes[id].radius = radius

	if end-start <= ix.leafSize {
		return id
	}

	// Split on the axis with the widest spread; ties in value fall back to
	// original position so the layout is reproducible.
	byLat := ix.spread(start, end, func(c Coord) float64 { return c.Lat }) >=
		ix.spread(start, end, func(c Coord) float64 { return c.Lng })
	axis := func(i int) float64 {
		if byLat {
			return ix.points[i].Lat
		}
		return ix.points[i].Lng
	}
	slices.SortFunc(ix.order[start:end], func(a, b int) int {
		if c := cmp.Compare(axis(a), axis(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	mid := start + (end-start)/2
	left := ix.build(start, mid)
	right := ix.build(mid, end)
	ix.nodes[id].left = left
	ix.nodes[id].right = right
	return id
}

func (ix *Index) centroid(start, end int) Coord {
	var lat, lng float64
	for _, p := range ix.order[start:end] {
		lat += ix.points[p].Lat
		lng += ix.points[p].Lng
	}
	n := float64(end - start)
	return Coord{Lat: lat / n, Lng: lng / n}
}

func (ix *Index) spread(start, end int, val func(Coord) float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range ix.order[start:end] {
		v := val(ix.points[p])
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return hi - lo
}

// Query returns the single nearest anchor to p. Among equidistant anchors
// the one with the lowest index wins.
func (ix *Index) Query(p Coord) Neighbor {
	best := []Neighbor{{Index: -1, Distance: math.Inf(1)}}
	ix.search(0, p, best)
	return best[0]
}

// QueryK returns up to k nearest anchors to p in ascending distance order,
// ties ordered by anchor index.
func (ix *Index) QueryK(p Coord, k int) []Neighbor {
	if k <= 0 {
		return nil
	}
	k = min(k, len(ix.points))
	best := make([]Neighbor, k)
	for i := range best {
		best[i] = Neighbor{Index: -1, Distance: math.Inf(1)}
	}
	ix.search(0, p, best)
	return best
}

// search walks the tree keeping best sorted; best[len(best)-1] is the bound.
func (ix *Index) search(id int, p Coord, best []Neighbor) {
	n := &ix.nodes[id]
	bound := best[len(best)-1].Distance
	if ix.metric.Distance(p, n.pivot)-n.radius > bound+pruneSlack {
		return
	}

	if n.left < 0 {
		for _, i := range ix.order[n.start:n.end] {
			offer(best, Neighbor{Index: i, Distance: ix.metric.Distance(p, ix.points[i])})
		}
		return
	}

	first, second := n.left, n.right
	if ix.lowerBound(second, p) < ix.lowerBound(first, p) {
		first, second = second, first
	}
	ix.search(first, p, best)
	ix.search(second, p, best)
}

func (ix *Index) lowerBound(id int, p Coord) float64 {
	n := &ix.nodes[id]
	return ix.metric.Distance(p, n.pivot) - n.radius
}

// offer inserts c into the sorted best slice if it beats the current tail.
func offer(best []Neighbor, c Neighbor) {
	last := len(best) - 1
	if !better(c, best[last]) {
		return
	}
	best[last] = c
	for i := last; i > 0 && better(best[i], best[i-1]); i-- {
		best[i], best[i-1] = best[i-1], best[i]
	}
}

func better(a, b Neighbor) bool {
	if b.Index < 0 {
		return true
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Index < b.Index
}
