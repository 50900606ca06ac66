// Package runner solves batches of positions on a pool of solvers and
// summarizes how long they took.
package runner

import (
	"context"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	bb "github.com/nicolandu/broken-connect-four/bitboard"
	"github.com/nicolandu/broken-connect-four/solver"
)

type Options struct {
	Workers int
	// TableBits sizes each worker's table; 0 splits MemoryFraction of the
	// system memory between the workers.
	TableBits      int
	MemoryFraction float64
	Weak           bool
	// Solver, when set, does the work of a single-worker run instead of a
	// new solver and table.
	Solver *solver.Solver
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job     Job
	Value   int
	Move    bb.Bitboard
	Nodes   uint64
	Elapsed time.Duration
}

// Correct reports whether the value matches the expected one. Weak results
// only have to agree on the sign. Jobs without an expected value are
// always correct.
func (r JobResult) Correct(weak bool) bool {
	if r.Job.Expected == nil {
		return true
	}
	want := *r.Job.Expected
	if weak {
		return sign(r.Value) == sign(want)
	}
	return r.Value == want
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

type indexedJob struct {
	idx int
	job Job
}

// Run solves every job and returns the results in job order. Each worker
// owns a solver and a table; jobs are routed to workers by a hash of the
// position so repeated positions hit the same table.
func Run(ctx context.Context, jobs []Job, opts Options) (*Summary, error) {
	if len(jobs) == 0 {
		return nil, ErrNoJobs
	}
	workers := max(opts.Workers, 1)
	workers = min(workers, len(jobs))
	shared := opts.Solver != nil && workers == 1
	bits := opts.TableBits
	switch {
	case shared:
		bits = opts.Solver.Table().Bits()
	case bits == 0:
		bits = solver.TableBitsForMemory(opts.MemoryFraction / float64(workers))
	}
	log.Info().Int("jobs", len(jobs)).Int("workers", workers).
		Int("table-bits", bits).Bool("weak", opts.Weak).Bool("shared-solver", shared).
		Msg("bench-starting")

	results := make([]JobResult, len(jobs))
	jobChans := make([]chan indexedJob, workers)
	for i := range jobChans {
		jobChans[i] = make(chan indexedJob, 16)
	}

	g, ctx := errgroup.WithContext(ctx)
	tstart := time.Now()

	for w := 0; w < workers; w++ {
		jobChan := jobChans[w]
		g.Go(func() error {
			s := opts.Solver
			if !shared {
				s = solver.NewSolver(solver.NewTranspositionTable(bits))
			}
			for ij := range jobChan {
				res, err := s.Solve(ctx, ij.job.Position, solver.Options{Weak: opts.Weak})
				if err != nil {
					return err
				}
				// each index is written by exactly one worker
				results[ij.idx] = JobResult{
					Job:     ij.job,
					Value:   res.Value,
					Move:    res.Move,
					Nodes:   res.Nodes,
					Elapsed: res.Elapsed,
				}
				log.Debug().Int("worker", w).Str("name", ij.job.Name).
					Int("value", res.Value).Msg("bench-job-done")
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range jobChans {
				close(ch)
			}
		}()
		for i, job := range jobs {
			hash := xxhash.Sum64String(job.Position.String())
			select {
			case jobChans[hash%uint64(workers)] <- indexedJob{idx: i, job: job}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary := Summarize(results, opts.Weak, time.Since(tstart))
	log.Info().Int("jobs", len(jobs)).Int("wrong", summary.Wrong).
		Float64("time-elapsed-sec", summary.Wall.Seconds()).Msg("bench-finished")
	return summary, nil
}
