// Package pipeline runs the end-to-end analysis: load and clean the
// datasets, join incidents to their nearest tract, check the result, write
// the processed table, persist the run and optionally summarize it.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/dataset"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/geo"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/model"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/store"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/summary"
)

// Options locates the inputs and output of a run.
type Options struct {
	CrimeFile      string
	TractFile      string
	RentalFile     string
	TractShapefile string
	GEOIDField     string
	OutputFile     string
	Join           geo.JoinConfig
}

// Pipeline wires the run's dependencies. store and summarizer may be nil.
type Pipeline struct {
	opts       Options
	loader     *dataset.Loader
	store      store.Store
	summarizer *summary.Summarizer
}

// New creates a Pipeline.
func New(opts Options, loader *dataset.Loader, st store.Store, sum *summary.Summarizer) *Pipeline {
	return &Pipeline{opts: opts, loader: loader, store: st, summarizer: sum}
}

// Run executes every phase. A failed summary is recorded on the result but
// does not fail the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{Metric: p.opts.Join.Metric.String(), OutputFile: p.opts.OutputFile}
	log := zap.L().With(zap.String("component", "pipeline"))
	log.Info("pipeline: starting run", zap.String("metric", res.Metric))

	if p.store != nil {
		run, err := p.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		res.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}

	err := p.run(ctx, res, log)
	if err != nil {
		if p.store != nil {
			if failErr := p.store.FailRun(ctx, res.RunID, err); failErr != nil {
				log.Warn("pipeline: failed to record run failure", zap.Error(failErr))
			}
		}
		return res, err
	}

	if p.store != nil {
		if err := p.store.CompleteRun(ctx, res.RunID, res.RunSummary()); err != nil {
			return res, eris.Wrap(err, "pipeline: complete run")
		}
	}
	log.Info("pipeline: run complete",
		zap.Int("incidents", res.Incidents),
		zap.Int("tracts", res.TractCount),
		zap.Float64("correlation", res.Correlation.Coefficient()),
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, res *Result, log *zap.Logger) error {
	var (
		incidents []model.Incident
		tracts    []model.Tract
	)

	if err := res.phase(log, "load", func() error {
		var err error
		incidents, tracts, err = p.load(ctx, res, log)
		return err
	}); err != nil {
		return err
	}

	if err := res.phase(log, "join", func() error {
		return p.join(ctx, res, incidents, tracts)
	}); err != nil {
		return err
	}
	res.Incidents = len(incidents)
	res.TractCount = len(tracts)
	res.Tracts = tracts

	if err := res.phase(log, "qa", func() error {
		return CheckQuality(incidents, tracts)
	}); err != nil {
		return eris.Wrap(err, "pipeline: quality checks failed")
	}

	if err := res.phase(log, "stats", func() error {
		var err error
		res.CrimeStats, res.PovertyStats, res.Correlation, err = Describe(tracts)
		return err
	}); err != nil {
		return err
	}

	if p.opts.OutputFile != "" {
		if err := res.phase(log, "write", func() error {
			return dataset.WriteTracts(p.opts.OutputFile, tracts)
		}); err != nil {
			return err
		}
	}

	if p.store != nil {
		if err := res.phase(log, "persist", func() error {
			return p.store.SaveTractCounts(ctx, res.RunID, tracts)
		}); err != nil {
			return err
		}
	}

	if p.summarizer != nil {
		// Summary failures are kept on the result; the numbers stand on their own.
		_ = res.phase(log, "summary", func() error {
			text, err := p.summarizer.Summarize(ctx, res.CrimeStats, res.PovertyStats, res.Correlation)
			if err != nil {
				res.SummaryError = err.Error()
				return err
			}
			res.Summary = text
			return nil
		})
	}
	return nil
}

func (p *Pipeline) load(ctx context.Context, res *Result, log *zap.Logger) ([]model.Incident, []model.Tract, error) {
	crimeTable, err := p.loader.LoadTable(ctx, "crime", p.opts.CrimeFile)
	if err != nil {
		return nil, nil, err
	}
	incidents, rep, err := dataset.CleanCrime(crimeTable)
	if err != nil {
		return nil, nil, err
	}
	res.Clean = append(res.Clean, rep)

	tractTable, err := p.loader.LoadTable(ctx, "tracts", p.opts.TractFile)
	if err != nil {
		return nil, nil, err
	}
	tracts, rep, err := dataset.CleanTracts(tractTable)
	if err != nil {
		return nil, nil, err
	}
	res.Clean = append(res.Clean, rep)

	if p.opts.TractShapefile != "" {
		tracts, rep, err = p.loader.LoadTractShapefile(ctx, p.opts.TractShapefile, dataset.ShapefileOptions{
			GEOIDField: p.opts.GEOIDField,
			Poverty:    dataset.PovertyByID(tracts),
		})
		if err != nil {
			return nil, nil, err
		}
		res.Clean = append(res.Clean, rep)
	}

	if p.opts.RentalFile != "" {
		rentals, err := p.loadRentals(ctx)
		if err != nil {
			log.Warn("pipeline: rental registry unavailable", zap.Error(err))
		} else {
			res.Rentals = rentals
		}
	}
	return incidents, tracts, nil
}

func (p *Pipeline) loadRentals(ctx context.Context) (int, error) {
	t, err := p.loader.LoadTable(ctx, "rentals", p.opts.RentalFile)
	if err != nil {
		return 0, err
	}
	rentals, _, err := dataset.CleanRentals(t)
	if err != nil {
		return 0, err
	}
	return len(rentals), nil
}

// join assigns every incident to its nearest tract, fills in the counts and
// records the incident-to-centroid distances on res.
func (p *Pipeline) join(ctx context.Context, res *Result, incidents []model.Incident, tracts []model.Tract) error {
	anchors := make([]geo.Anchor, len(tracts))
	for i, t := range tracts {
		anchors[i] = geo.Anchor{ID: t.GEOID, Point: geo.LatLng{Lat: t.Latitude, Lng: t.Longitude}}
	}
	points := make([]geo.LatLng, len(incidents))
	for i, inc := range incidents {
		points[i] = geo.LatLng{Lat: inc.Latitude, Lng: inc.Longitude}
	}

	jr, err := geo.Join(ctx, anchors, points, p.opts.Join)
	if err != nil {
		return eris.Wrap(err, "pipeline: join incidents to tracts")
	}
	pos := make(map[string]int, len(tracts))
	for i, t := range tracts {
		pos[t.GEOID] = i
	}
	var sum float64
	for i := range incidents {
		incidents[i].TractGEOID = jr.Assigned[i]
		d := tracts[pos[jr.Assigned[i]]].DistanceKM(incidents[i].Point())
		incidents[i].DistanceKM = d
		sum += d
		res.MaxDistKM = max(res.MaxDistKM, d)
	}
	if len(incidents) > 0 {
		res.MeanDistKM = sum / float64(len(incidents))
	}
	for i, c := range jr.Counts {
		tracts[i].CrimeCount = c.Count
	}
	return nil
}

func (r *Result) phase(log *zap.Logger, name string, fn func() error) error {
	start := time.Now()
	log.Info("pipeline: phase starting", zap.String("phase", name))
	err := fn()
	pr := PhaseResult{Name: name, Status: PhaseComplete, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		pr.Status = PhaseFailed
		pr.Error = err.Error()
		log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", pr.DurationMs),
			zap.Error(err),
		)
	} else {
		log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", pr.DurationMs),
		)
	}
	r.Phases = append(r.Phases, pr)
	return err
}
