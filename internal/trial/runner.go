package trial

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the worker pool size. Values below 1 use GOMAXPROCS.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithSeed sets the base seed every trial seed is derived from.
func WithSeed(seed uint64) RunnerOption {
	return func(r *Runner) { r.seed = seed }
}

// WithMaxTicks overrides the scenario's tick cutoff. Values below 1 are ignored.
func WithMaxTicks(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxTicks = n
		}
	}
}

// WithLogger sets the logger used for dice rolls and trial errors.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithEvents routes each trial's combat events to the sink returned by
// forTrial. Sinks are called from worker goroutines.
func WithEvents(forTrial func(trial int) combat.EventSink) RunnerOption {
	return func(r *Runner) { r.events = forTrial }
}

// Runner executes a Plan as independent trials. Trial i always runs with the
// seed DeriveSeed(seed, i), so results do not depend on the worker count or
// scheduling order.
type Runner struct {
	plan     *Plan
	workers  int
	seed     uint64
	maxTicks int
	logger   *zap.Logger
	events   func(trial int) combat.EventSink
}

// NewRunner creates a Runner for plan.
//
// Precondition: plan must be non-nil.
func NewRunner(plan *Plan, opts ...RunnerOption) *Runner {
	r := &Runner{
		plan:     plan,
		workers:  runtime.GOMAXPROCS(0),
		maxTicks: plan.Scenario.MaxTicks,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Workers returns the worker pool size.
func (r *Runner) Workers() int { return r.workers }

// Seed returns the base seed.
func (r *Runner) Seed() uint64 { return r.seed }

// RunTrial runs trial i to completion on the calling goroutine. Setup errors
// and timeouts are recorded in the returned Record, never returned.
func (r *Runner) RunTrial(i int) Record {
	seed := dice.DeriveSeed(r.seed, i)
	src := dice.NewSeededSource(seed)
	roller := dice.NewLoggedRoller(src, r.logger)

	parts, release, err := r.plan.instantiate(roller)
	if err != nil {
		r.logger.Warn("trial setup failed", zap.Int("trial", i), zap.Error(err))
		return Record{Trial: i, Seed: seed, Result: ResultError, Names: r.plan.Names(), Err: err.Error()}
	}
	defer release()

	opts := []combat.Option{combat.WithMaxTicks(r.maxTicks)}
	if r.events != nil {
		opts = append(opts, combat.WithSink(r.events(i)))
	}
	boss := combat.NewBoss(r.plan.boss, r.plan.Scenario.Scale, src)
	out, err := combat.NewEncounter(boss, parts, src, opts...).Run()
	rec := newRecord(i, seed, out)
	if err != nil {
		rec.Err = err.Error()
		if combat.IsTimeout(err) {
			r.logger.Warn("trial timed out", zap.Int("trial", i), zap.Int("ticks", out.Ticks))
		}
	}
	return rec
}

// Run executes n trials and returns their records in submission order.
//
// Postcondition: len(records) == n unless ctx is cancelled, in which case the
// context error is returned.
func (r *Runner) Run(ctx context.Context, n int) ([]Record, error) {
	records := make([]Record, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i] = r.RunTrial(i + 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Stream executes n trials and calls fn with each record as it completes, in
// completion order. fn is called from the caller's goroutine only. A non-nil
// error from fn stops the run and is returned.
func (r *Runner) Stream(ctx context.Context, n int, fn func(Record) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	jobs := make(chan int)
	results := make(chan Record)

	g.Go(func() error {
		defer close(jobs)
		for i := 1; i <= n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for w := 0; w < min(r.workers, max(n, 1)); w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for i := range jobs {
				rec := r.RunTrial(i)
				select {
				case results <- rec:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var fnErr error
	for rec := range results {
		if fnErr != nil {
			continue
		}
		if err := fn(rec); err != nil {
			fnErr = err
			cancel()
		}
	}
	err := g.Wait()
	if fnErr != nil {
		return fnErr
	}
	return err
}
