package geo

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// minChunk keeps tiny batches on a single goroutine.
const minChunk = 1024

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithConcurrency sets how many goroutines query the index in parallel.
// Values below 1 are treated as 1.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		r.concurrency = max(n, 1)
	}
}

// Resolver assigns incidents to their nearest anchor.
type Resolver struct {
	index       *Index
	concurrency int
}

// NewResolver creates a Resolver over a built index.
func NewResolver(idx *Index, opts ...ResolverOption) *Resolver {
	r := &Resolver{index: idx, concurrency: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve queries the index once per incident. The result is index-aligned
// with incidents. Parallel workers each own a contiguous range of the output,
// so the result does not depend on scheduling.
func (r *Resolver) Resolve(ctx context.Context, incidents []Coord) ([]Neighbor, error) {
	if r.index == nil {
		return nil, eris.New("geo: resolver has no index")
	}

	start := time.Now()
	out := make([]Neighbor, len(incidents))

	workers := r.concurrency
	if len(incidents) < minChunk*2 {
		workers = 1
	}
	chunk := (len(incidents) + workers - 1) / max(workers, 1)

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(incidents); lo += chunk {
		hi := min(lo+chunk, len(incidents))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%minChunk == 0 && gctx.Err() != nil {
					return eris.Wrap(gctx.Err(), "geo: resolve cancelled")
				}
				out[i] = r.index.Query(incidents[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("geo: resolved incidents",
		zap.Int("incidents", len(incidents)),
		zap.Int("anchors", r.index.Len()),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// ResolveIDs resolves incidents and maps each nearest neighbor onto its
// anchor id. anchorIDs must be index-aligned with the coordinates the index
// was built from.
func (r *Resolver) ResolveIDs(ctx context.Context, anchorIDs []string, incidents []Coord) ([]string, error) {
	if r.index == nil {
		return nil, eris.New("geo: resolver has no index")
	}
	if len(anchorIDs) != r.index.Len() {
		return nil, eris.Errorf("geo: %d anchor ids for an index of %d anchors", len(anchorIDs), r.index.Len())
	}
	neighbors, err := r.Resolve(ctx, incidents)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(neighbors))
	for i, n := range neighbors {
		if n.Index < 0 || n.Index >= len(anchorIDs) {
			return nil, &InvariantViolationError{AnchorID: "", Incident: i}
		}
		ids[i] = anchorIDs[n.Index]
	}
	return ids, nil
}
