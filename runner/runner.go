// Package runner executes a full generation-and-ranking pass off the
// caller's goroutine. The caller gets a handle it can poll, wait on or
// cancel; cancellation propagates through the context into the worker pool.
package runner

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/cpu"

	"github.com/delatour/stratgen/models"
)

var ErrNotDone = errors.New("runner: task still running")

// Result is what a completed task hands back.
type Result struct {
	Ranking *models.MultiRankingResult
	Mixture *models.ScenarioMixture
	Elapsed time.Duration
}

// Task is the unit of work the runner executes. It must honor context
// cancellation.
type Task func(ctx context.Context) (*Result, error)

// Handle tracks one in-flight task.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	res    *Result
	err    error
}

// Start launches the task on its own goroutine and returns immediately.
func Start(ctx context.Context, task Task) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	started := time.Now()
	go func() {
		defer close(h.done)
		defer cancel()
		res, err := task(ctx)
		if res != nil {
			res.Elapsed = time.Since(started)
		}
		h.res, h.err = res, err
		if err != nil {
			log.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("run failed")
		} else {
			log.Info().Dur("elapsed", time.Since(started)).Msg("run complete")
		}
	}()
	return h
}

// Done is closed when the task has finished, successfully or not.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Poll returns the result without blocking. The bool reports completion.
func (h *Handle) Poll() (*Result, error, bool) {
	select {
	case <-h.done:
		return h.res, h.err, true
	default:
		return nil, ErrNotDone, false
	}
}

// Wait blocks until the task finishes or the given context expires. The task
// keeps running if only the wait context expires; use Cancel to stop it.
func (h *Handle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.res, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel stops the task. The handle completes with the context error.
func (h *Handle) Cancel() { h.cancel() }

// SuggestWorkers sizes the worker pool from the logical CPU count, leaving
// one core free on busy machines so the foreground stays responsive.
func SuggestWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	if n > 2 {
		if busy, err := cpu.Percent(0, false); err == nil && len(busy) > 0 && busy[0] > 75 {
			n--
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// MonitorCPU logs overall CPU utilization at the given interval until the
// context is cancelled. Useful during long generation runs.
func MonitorCPU(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pct, err := cpu.Percent(0, false)
			if err != nil || len(pct) == 0 {
				continue
			}
			log.Debug().Float64("cpu_pct", pct[0]).Msg("cpu usage")
		}
	}
}
