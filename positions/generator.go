// Package positions enumerates admissible multi-leg option combinations,
// prunes them with cheap filters before the payoff curve is computed, and
// hands survivors to the payoff engine. Candidate evaluation is independent
// per candidate and runs on a worker pool; output order is fixed by the
// enumeration index, not by completion order.
package positions

import (
	"context"
	"math/bits"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/delatour/stratgen/models"
	"github.com/delatour/stratgen/payoff"
	"github.com/delatour/stratgen/probability"
)

const jobBatchSize = 1000

// Config drives one generation run.
type Config struct {
	MaxLegs      int               `json:"max_legs" mapstructure:"max_legs"`
	PriceMin     float64           `json:"price_min" mapstructure:"price_min"`
	PriceMax     float64           `json:"price_max" mapstructure:"price_max"`
	NumPoints    int               `json:"num_points" mapstructure:"num_points"`
	IncludeLong  bool              `json:"include_long" mapstructure:"include_long"`
	IncludeShort bool              `json:"include_short" mapstructure:"include_short"`
	Asymmetric   bool              `json:"asymmetric" mapstructure:"asymmetric"`
	Scenarios    []models.Scenario `json:"scenarios" mapstructure:"scenarios"`
	// Target defaults to the mixture mean when zero.
	Target   float64             `json:"target" mapstructure:"target"`
	Filters  models.FilterConfig `json:"filters" mapstructure:"filters"`
	Workers  int                 `json:"workers" mapstructure:"workers"`
	Progress bool                `json:"progress" mapstructure:"progress"`
}

// job is one candidate: a leg index subset plus a short-side bit mask,
// tagged with its enumeration index for deterministic output ordering.
type job struct {
	index int
	legs  []int
	mask  uint32
}

type result struct {
	index int
	rec   *models.StrategyRecord
}

// Generate enumerates, filters and evaluates every candidate. Empty inventory
// or MaxLegs < 1 yields an empty result; an invalid mixture configuration is
// an error before any enumeration happens.
func Generate(ctx context.Context, options []*models.OptionLeg, cfg Config) ([]*models.StrategyRecord, *models.ScenarioMixture, error) {
	mixture, err := probability.BuildMixture(cfg.Scenarios, cfg.PriceMin, cfg.PriceMax, cfg.NumPoints, cfg.Asymmetric)
	if err != nil {
		return nil, nil, err
	}
	if len(options) == 0 || cfg.MaxLegs < 1 {
		log.Warn().Int("options", len(options)).Int("max_legs", cfg.MaxLegs).
			Msg("nothing to generate")
		return nil, mixture, nil
	}
	if !cfg.IncludeLong && !cfg.IncludeShort {
		log.Warn().Msg("both position directions disabled, nothing to generate")
		return nil, mixture, nil
	}

	for _, leg := range options {
		payoff.PrecomputeLeg(leg, mixture)
	}

	target := cfg.Target
	if target == 0 {
		target = mixture.Mean
	}

	jobs := enumerate(options, cfg)
	log.Info().Int("options", len(options)).Int("candidates", len(jobs)).
		Int("max_legs", cfg.MaxLegs).Msg("candidate space enumerated")

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *mpb.Bar
	var progress *mpb.Progress
	if cfg.Progress {
		progress = mpb.New(mpb.WithWidth(64))
		bar = progress.AddBar(int64(len(jobs)),
			mpb.PrependDecorators(
				decor.Name("Generating"),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
			),
		)
	}

	records, err := processJobs(ctx, jobs, options, mixture, target, &cfg.Filters, workers, bar)
	if progress != nil {
		if err != nil {
			bar.Abort(true)
		}
		progress.Wait()
	}
	if err != nil {
		return nil, mixture, err
	}

	log.Info().Int("accepted", len(records)).Int("rejected", len(jobs)-len(records)).
		Msg("generation complete")
	return records, mixture, nil
}

// enumerate walks subsets of size 1..MaxLegs in lexicographic index order and
// crosses each with its admissible sign masks. Bit j set in the mask shorts
// leg j of the subset.
func enumerate(options []*models.OptionLeg, cfg Config) []job {
	maxLegs := cfg.MaxLegs
	if maxLegs > len(options) {
		maxLegs = len(options)
	}

	var jobs []job
	index := 0
	for k := 1; k <= maxLegs; k++ {
		combo := make([]int, k)
		for i := range combo {
			combo[i] = i
		}
		for {
			for mask := uint32(0); mask < 1<<uint(k); mask++ {
				if !cfg.IncludeShort && mask != 0 {
					continue
				}
				if !cfg.IncludeLong && bits.OnesCount32(mask) != k {
					continue
				}
				legs := make([]int, k)
				copy(legs, combo)
				jobs = append(jobs, job{index: index, legs: legs, mask: mask})
				index++
			}
			if !nextCombination(combo, len(options)) {
				break
			}
		}
	}
	return jobs
}

// nextCombination advances combo to the next k-subset of [0, n), returning
// false after the last one.
func nextCombination(combo []int, n int) bool {
	k := len(combo)
	for i := k - 1; i >= 0; i-- {
		if combo[i] < n-k+i {
			combo[i]++
			for j := i + 1; j < k; j++ {
				combo[j] = combo[j-1] + 1
			}
			return true
		}
	}
	return false
}

func processJobs(ctx context.Context, jobs []job, options []*models.OptionLeg, mixture *models.ScenarioMixture, target float64, filters *models.FilterConfig, workers int, bar *mpb.Bar) ([]*models.StrategyRecord, error) {
	// Failing workers cancel this context so the feeder stops sending and
	// closes jobChan instead of blocking on a channel nobody reads.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobChan := make(chan job, jobBatchSize)
	resultChan := make(chan result, jobBatchSize)
	errChan := make(chan error, workers)

	var wg sync.WaitGroup
	var processed int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				rec, err := evaluate(j, options, mixture, target, filters)
				if err != nil {
					errChan <- err
					cancel()
					return
				}
				atomic.AddInt64(&processed, 1)
				if bar != nil {
					bar.Increment()
				}
				if rec != nil {
					resultChan <- result{index: j.index, rec: rec}
				}
			}
		}()
	}

	go func() {
		defer close(jobChan)
		for _, j := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobChan <- j:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []result
	for r := range resultChan {
		results = append(results, r)
	}

	select {
	case err := <-errChan:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Completion order depends on worker scheduling; the enumeration index
	// restores a stable, reproducible ordering.
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	records := make([]*models.StrategyRecord, len(results))
	for i, r := range results {
		records[i] = r.rec
	}
	return records, nil
}

// evaluate runs one candidate through the filter pipeline and the payoff
// engine. A nil record with nil error means the candidate was pruned.
func evaluate(j job, options []*models.OptionLeg, mixture *models.ScenarioMixture, target float64, filters *models.FilterConfig) (*models.StrategyRecord, error) {
	legs := make([]models.SignedLeg, len(j.legs))
	for i, idx := range j.legs {
		sign := models.Long
		if j.mask&(1<<uint(i)) != 0 {
			sign = models.Short
		}
		legs[i] = models.SignedLeg{Leg: options[idx], Sign: sign}
	}

	lin := Aggregate(legs)
	if !PreFilter(legs, lin, filters) {
		return nil, nil
	}

	family, display := Classify(legs)
	if !filters.AllowsStrategy(family) {
		return nil, nil
	}

	rec := &models.StrategyRecord{
		Name:                 display,
		Legs:                 legs,
		Expiration:           legs[0].Leg.Expiration,
		Premium:              lin.Premium,
		TotalDelta:           lin.Delta,
		TotalGamma:           lin.Gamma,
		TotalVega:            lin.Vega,
		TotalTheta:           lin.Theta,
		AvgImpliedVolatility: lin.AvgIV,
	}
	if err := payoff.Evaluate(rec, mixture, target); err != nil {
		return nil, err
	}
	if !PostFilter(rec, mixture.Prices, filters) {
		return nil, nil
	}
	return rec, nil
}
