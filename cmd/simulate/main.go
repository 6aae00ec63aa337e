// Package main provides the batch simulation runner: it loads content, compiles
// a scenario, runs the configured number of trials across a worker pool and
// writes the records to the configured sinks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/raidsim/internal/config"
	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
	"github.com/cory-johannsen/raidsim/internal/observability"
	"github.com/cory-johannsen/raidsim/internal/storage/csvfile"
	"github.com/cory-johannsen/raidsim/internal/storage/postgres"
	"github.com/cory-johannsen/raidsim/internal/trial"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	scenarioID := flag.String("scenario", "", "scenario ID (overrides simulation.scenario)")
	trials := flag.Int("trials", 0, "number of trials (overrides simulation.trials)")
	seed := flag.Uint64("seed", 0, "base seed (overrides simulation.seed)")
	csvPath := flag.String("csv", "", "CSV output path (overrides output.csv)")
	flag.Parse()

	v, err := config.NewViper(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *scenarioID != "" {
		v.Set("simulation.scenario", *scenarioID)
	}
	if *trials > 0 {
		v.Set("simulation.trials", *trials)
	}
	if *seed != 0 {
		v.Set("simulation.seed", *seed)
	}
	if *csvPath != "" {
		v.Set("output.csv", *csvPath)
	}
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("simulation failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		os.Exit(1)
	}
	logger.Info("simulation done", zap.Duration("elapsed", time.Since(start)))
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	content, err := trial.LoadContent(trial.ContentPaths{
		Items:     cfg.Content.Items,
		Builds:    cfg.Content.Builds,
		Buffs:     cfg.Content.Buffs,
		Bosses:    cfg.Content.Bosses,
		Scenarios: cfg.Content.Scenarios,
		Scripts:   cfg.Content.Scripts,
	}, cfg.Simulation.ScriptInstructionLimit, logger)
	if err != nil {
		return err
	}

	scenario, ok := content.Scenarios[cfg.Simulation.Scenario]
	if !ok {
		logger.Error("unknown scenario",
			zap.String("scenario", cfg.Simulation.Scenario),
			zap.Strings("available", trial.ScenarioIDs(content.Scenarios)),
		)
		return fmt.Errorf("scenario %q: %w", cfg.Simulation.Scenario, trial.ErrUnknownReference)
	}
	plan, err := trial.Compile(scenario, content)
	if err != nil {
		return err
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = dice.RandomSeed()
	}
	opts := []trial.RunnerOption{
		trial.WithSeed(seed),
		trial.WithWorkers(cfg.Simulation.Workers),
		trial.WithMaxTicks(cfg.Simulation.MaxTicks),
		trial.WithLogger(logger),
	}
	if cfg.Simulation.TraceEvents {
		sink := observability.NewEventSink(logger)
		opts = append(opts, trial.WithEvents(func(i int) combat.EventSink { return sink.ForTrial(i) }))
	}
	runner := trial.NewRunner(plan, opts...)

	n := cfg.Simulation.Trials
	meta := trial.NewRun(plan, seed, n)
	logger.Info("running trials",
		zap.String("run_id", meta.ID.String()),
		zap.String("scenario", scenario.ID),
		zap.String("boss", plan.Boss().Name),
		zap.Int("scale", scenario.Scale),
		zap.Strings("participants", plan.Names()),
		zap.Int("trials", n),
		zap.Int("workers", runner.Workers()),
		zap.Uint64("seed", seed),
	)

	sinks, closeSinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	records := make([]trial.Record, n)
	step := max(n/10, 1)
	done := 0
	err = runner.Stream(ctx, n, func(rec trial.Record) error {
		records[rec.Trial-1] = rec
		done++
		if done%step == 0 || done == n {
			logger.Info("progress", zap.Int("done", done), zap.Int("total", n))
		}
		return nil
	})
	if err != nil {
		return err
	}
	meta.Duration = time.Since(meta.StartedAt)

	logSummary(logger, trial.Summarize(records))

	for _, s := range sinks {
		if err := s.Write(ctx, meta, records); err != nil {
			return err
		}
	}
	return nil
}

func openSinks(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]trial.Sink, func(), error) {
	var sinks []trial.Sink
	closeFn := func() {}
	if cfg.Output.CSV != "" {
		sinks = append(sinks, csvfile.NewWriter(cfg.Output.CSV))
		logger.Info("writing CSV results", zap.String("path", cfg.Output.CSV))
	}
	if cfg.Output.Postgres {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.CheckSchema(ctx, pool.DB()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		closeFn = pool.Close
		sinks = append(sinks, postgres.NewRunRepository(pool.DB()))
		logger.Info("writing results to postgres", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
	}
	return sinks, closeFn, nil
}

func logSummary(logger *zap.Logger, s trial.Summary) {
	fields := []zap.Field{
		zap.Int("trials", s.Trials),
		zap.Int("completed", s.Completed),
		zap.Int("timeouts", s.Timeouts),
		zap.Int("wipes", s.Wipes),
		zap.Int("errors", s.Errors),
		zap.Float64("mean_ticks", s.MeanTicks),
		zap.Float64("median_ticks", s.MedianTicks),
		zap.Float64("stddev_ticks", s.StdDevTicks),
		zap.Int("min_ticks", s.MinTicks),
		zap.Int("max_ticks", s.MaxTicks),
		zap.Float64("mean_proc_percent", s.MeanBossHPPercent),
	}
	for name, pct := range s.MeanDamagePercent {
		fields = append(fields, zap.Float64(name+"_dmg_percent", pct))
	}
	logger.Info("summary", fields...)
}
