package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/raidsim/internal/trial"
)

// ErrRunNotFound is returned when a run lookup yields no results.
var ErrRunNotFound = errors.New("run not found")

// ErrRunExists is returned when writing a run whose ID is already stored.
var ErrRunExists = errors.New("run already exists")

// RunRepository persists simulation runs and their trial records.
type RunRepository struct {
	db *pgxpool.Pool
}

var _ trial.Sink = (*RunRepository)(nil)

// NewRunRepository creates a RunRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// Write stores run and every record in one transaction. Trial rows and
// per-actor damage rows are bulk loaded with COPY.
//
// Precondition: run.ID must be set; records share run's participant layout.
// Postcondition: either everything is stored or nothing is; ErrRunExists on a duplicate ID.
func (r *RunRepository) Write(ctx context.Context, run trial.Run, records []trial.Record) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning run transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	participants := run.Participants
	if participants == nil {
		participants = []string{}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO sim_runs (id, scenario, boss, scale, seed, trials, participants, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.Scenario, run.Boss, run.Scale, int64(run.Seed), run.Trials,
		participants, run.StartedAt, run.Duration.Milliseconds(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrRunExists
		}
		return fmt.Errorf("inserting run: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"sim_trials"},
		[]string{"run_id", "trial", "seed", "result", "ticks", "boss_hp", "boss_hp_percent", "phase", "spawns", "error"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			rec := records[i]
			return []any{
				run.ID, rec.Trial, int64(rec.Seed), rec.Result, rec.Ticks,
				rec.BossHP, rec.BossHPPercent, rec.Phase, rec.Spawns, rec.Err,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copying trials: %w", err)
	}

	var damageRows [][]any
	for _, rec := range records {
		for i, name := range rec.Names {
			if i >= len(rec.Damage) {
				break
			}
			damageRows = append(damageRows, []any{
				run.ID, rec.Trial, i, name, rec.Damage[i], rec.DamagePercent[i],
			})
		}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"sim_trial_damage"},
		[]string{"run_id", "trial", "position", "actor", "damage", "damage_percent"},
		pgx.CopyFromRows(damageRows),
	)
	if err != nil {
		return fmt.Errorf("copying trial damage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID.
//
// Postcondition: Returns ErrRunNotFound if no such run exists.
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (trial.Run, error) {
	var (
		run  trial.Run
		seed int64
		ms   int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, scenario, boss, scale, seed, trials, participants, started_at, duration_ms
		FROM sim_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.Scenario, &run.Boss, &run.Scale, &seed, &run.Trials, &run.Participants, &run.StartedAt, &ms)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return trial.Run{}, ErrRunNotFound
		}
		return trial.Run{}, fmt.Errorf("querying run: %w", err)
	}
	run.Seed = uint64(seed)
	run.Duration = time.Duration(ms) * time.Millisecond
	return run, nil
}

// ListRuns returns the runs of scenario, newest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *RunRepository) ListRuns(ctx context.Context, scenario string) ([]trial.Run, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, scenario, boss, scale, seed, trials, participants, started_at, duration_ms
		FROM sim_runs WHERE scenario = $1 ORDER BY started_at DESC`, scenario)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]trial.Run, 0)
	for rows.Next() {
		var (
			run  trial.Run
			seed int64
			ms   int64
		)
		if err := rows.Scan(&run.ID, &run.Scenario, &run.Boss, &run.Scale, &seed, &run.Trials, &run.Participants, &run.StartedAt, &ms); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Seed = uint64(seed)
		run.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListTrials returns every record of run id in trial order.
//
// Postcondition: Returns ErrRunNotFound if the run does not exist.
func (r *RunRepository) ListTrials(ctx context.Context, id uuid.UUID) ([]trial.Record, error) {
	if _, err := r.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT trial, seed, result, ticks, boss_hp, boss_hp_percent, phase, spawns, error
		FROM sim_trials WHERE run_id = $1 ORDER BY trial`, id)
	if err != nil {
		return nil, fmt.Errorf("listing trials: %w", err)
	}
	records := make([]trial.Record, 0)
	index := make(map[int]int)
	for rows.Next() {
		var (
			rec  trial.Record
			seed int64
		)
		if err := rows.Scan(&rec.Trial, &seed, &rec.Result, &rec.Ticks, &rec.BossHP,
			&rec.BossHPPercent, &rec.Phase, &rec.Spawns, &rec.Err); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning trial: %w", err)
		}
		rec.Seed = uint64(seed)
		index[rec.Trial] = len(records)
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing trials: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT trial, actor, damage, damage_percent
		FROM sim_trial_damage WHERE run_id = $1 ORDER BY trial, position`, id)
	if err != nil {
		return nil, fmt.Errorf("listing trial damage: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n, dmg int
			actor  string
			pct    float64
		)
		if err := rows.Scan(&n, &actor, &dmg, &pct); err != nil {
			return nil, fmt.Errorf("scanning trial damage: %w", err)
		}
		i, ok := index[n]
		if !ok {
			continue
		}
		rec := &records[i]
		rec.Names = append(rec.Names, actor)
		rec.Damage = append(rec.Damage, dmg)
		rec.DamagePercent = append(rec.DamagePercent, pct)
	}
	return records, rows.Err()
}

// DeleteRun removes a run and all of its trials.
//
// Postcondition: Returns ErrRunNotFound if no such run exists.
func (r *RunRepository) DeleteRun(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sim_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
