// Package classify runs the full classification pipeline: parallel
// correlation of one spectrum against a template library, quality
// thresholding, clustering of the surviving matches, and weighted consensus
// estimation of type, subtype, redshift, and age.
package classify

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-specmatch/cluster"
	"github.com/cwbudde/algo-specmatch/correlate"
	"github.com/cwbudde/algo-specmatch/grid"
	"github.com/cwbudde/algo-specmatch/match"
	"github.com/cwbudde/algo-specmatch/stats/weighted"
	"github.com/cwbudde/algo-specmatch/template"
)

// minSubtypeMembers is the smallest member count for which a subtype-pure
// estimate replaces the whole-cluster estimate.
const minSubtypeMembers = 2

// Pipeline runs classifications with a fixed configuration. A Pipeline is
// safe for concurrent use; each run builds its own correlation engines.
type Pipeline struct {
	cfg     Config
	params  correlate.Params
	cluster cluster.Engine
}

// NewPipeline validates the configuration and builds a pipeline.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params := cfg.CorrelationParams()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, params: params, cluster: cfg.clusterEngine()}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Run correlates the spectrum against every template in the library and
// reduces the matches to a consensus classification.
//
// Templates that fail validation (wrong grid, zero RMS) are skipped, not
// errored: a partially unusable library still yields a result from the
// usable part. Run always returns a non-nil Result unless the spectrum
// itself is unusable or the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, spec correlate.Spectrum, lib template.Library) (*Result, error) {
	g := p.cfg.Grid()

	if len(spec.Flux) != g.NumPoints || spec.RMS <= 0 {
		return nil, fmt.Errorf("classify: %w", correlate.ErrInvalidSpectrum)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := p.correlateAll(ctx, spec, p.prepareTemplates(lib, g))
	if err != nil {
		return nil, err
	}

	good := p.threshold(matches)

	sort.SliceStable(good, func(i, j int) bool {
		return match.Best(good[i]) > match.Best(good[j])
	})

	result := emptyResult()
	result.AllMatches = good

	if len(good) == 0 {
		return result, nil
	}

	result.Clusters = p.cluster.ClusterMatches(good)
	result.WinningCluster = p.cluster.SelectWinner(result.Clusters)

	if result.WinningCluster == nil {
		// Degraded path: not enough matches to cluster. The strongest
		// match alone carries the consensus.
		best := good[0]
		result.ConsensusType = best.Template.Type
		result.ConsensusSubtype = best.Template.Subtype
		result.EnhancedRedshift = best.Redshift
		result.EnhancedRedshiftError = best.RedshiftError
		result.EnhancedAge = best.Template.AgeDays
		result.EnhancedAgeError = 0

		return result, nil
	}

	p.consensus(result)

	return result, nil
}

// prepareTemplates builds the working set for one run. Templates carrying
// flux but no precomputed transform are prepared into private copies; the
// library snapshot itself is never written, so concurrent runs over one
// Library stay independent. Templates whose flux cannot be prepared are
// passed through unchanged and skipped by the engine.
func (p *Pipeline) prepareTemplates(lib template.Library, g grid.StandardGrid) []*template.Template {
	work := make([]*template.Template, lib.Len())

	for i := 0; i < lib.Len(); i++ {
		t := lib.At(i)
		work[i] = t

		if len(t.FFT) == 0 && len(t.Flux) == g.NumPoints {
			cp := *t
			if err := template.Prepare(&cp, g); err == nil {
				work[i] = &cp
			}
		}
	}

	return work
}

// correlateAll fans the working set out over a bounded pool of workers, each
// with its own correlation engine, and gathers every match.
func (p *Pipeline) correlateAll(ctx context.Context, spec correlate.Spectrum, tpls []*template.Template) ([]match.Match, error) {
	workers := p.cfg.workers()
	if workers > len(tpls) && len(tpls) > 0 {
		workers = len(tpls)
	}

	if workers < 1 {
		workers = 1
	}

	indices := make(chan int)
	perWorker := make([][]match.Match, workers)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(indices)

		for i := range tpls {
			select {
			case indices <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	for w := 0; w < workers; w++ {
		w := w

		eg.Go(func() error {
			engine, err := correlate.NewEngine(p.params)
			if err != nil {
				return err
			}

			for i := range indices {
				ms, err := engine.Correlate(spec, tpls[i])
				if err != nil {
					return fmt.Errorf("classify: template %q: %w", tpls[i].Name, err)
				}

				perWorker[w] = append(perWorker[w], ms...)
			}

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []match.Match
	for _, ms := range perWorker {
		all = append(all, ms...)
	}

	return all, nil
}

// threshold keeps the matches whose best metric reaches the configured
// minimum.
func (p *Pipeline) threshold(matches []match.Match) []match.Match {
	var out []match.Match

	for _, m := range matches {
		v := match.Best(m)
		if !math.IsNaN(v) && v >= p.cfg.MinMetric {
			out = append(out, m)
		}
	}

	return out
}

// consensus fills the result's consensus fields from the winning cluster.
// A subtype-pure estimate over the members of the winning subtype is
// preferred; when too few members share it, or the pure estimate fails
// validation, the whole-cluster estimate stands.
func (p *Pipeline) consensus(r *Result) {
	c := r.WinningCluster

	r.ConsensusType = c.Type
	r.ConsensusSubtype = c.BestSubtype

	r.EnhancedRedshift = c.Redshift
	r.EnhancedRedshiftError = c.RedshiftSE
	r.EnhancedAge = c.AgeDays
	r.EnhancedAgeError = c.AgeSE

	if c.BestSubtype == "" {
		return
	}

	var zs, ages, zErrs, metrics []float64

	for _, m := range c.Matches {
		if m.Template.Subtype != c.BestSubtype {
			continue
		}

		zs = append(zs, m.Redshift)
		ages = append(ages, m.Template.AgeDays)
		zErrs = append(zErrs, m.RedshiftError)
		metrics = append(metrics, match.Best(m))
	}

	if len(zs) < minSubtypeMembers {
		return
	}

	w, err := weighted.CombinedWeights(metrics, zErrs)
	if err != nil {
		return
	}

	j, err := weighted.EstimateJoint(zs, ages, w)
	if err != nil || !weighted.ValidateJoint(zs, ages, j) {
		return
	}

	r.EnhancedRedshift = j.MeanX
	r.EnhancedRedshiftError = j.SEX
	r.EnhancedAge = j.MeanY
	r.EnhancedAgeError = j.SEY
}
