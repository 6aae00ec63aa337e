package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/raidsim/internal/storage/postgres"
	"github.com/cory-johannsen/raidsim/internal/testutil"
	"github.com/cory-johannsen/raidsim/internal/trial"
)

func setupRunRepo(t *testing.T) *postgres.RunRepository {
	t.Helper()
	return postgres.NewRunRepository(testutil.NewMigratedPool(t))
}

func makeRun(scenario string, trials int) trial.Run {
	return trial.Run{
		ID:           uuid.New(),
		Scenario:     scenario,
		Boss:         "verzik_p2",
		Scale:        2,
		Seed:         ^uint64(0) - 5,
		Trials:       trials,
		Participants: []string{"Mager", "Ranger"},
		StartedAt:    time.Now().UTC().Truncate(time.Millisecond),
		Duration:     1500 * time.Millisecond,
	}
}

func makeRecords(n int) []trial.Record {
	out := make([]trial.Record, n)
	for i := range out {
		out[i] = trial.Record{
			Trial:         i + 1,
			Seed:          uint64(1000 + i),
			Result:        trial.ResultPhaseEnded,
			Ticks:         100 + i,
			Names:         []string{"Mager", "Ranger"},
			Damage:        []int{1000, 707},
			DamagePercent: []float64{1000.0 / 17.07, 707.0 / 17.07},
			BossHP:        918,
			BossHPPercent: 34.97,
			Phase:         1,
		}
	}
	return out
}

func TestRunRepository_WriteAndRead(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()

	run := makeRun("verzik_8way", 25)
	records := makeRecords(25)
	records[3] = trial.Record{Trial: 4, Seed: 9, Result: trial.ResultError, Names: []string{"Mager", "Ranger"}, Err: "script failed"}
	require.NoError(t, repo.Write(ctx, run, records))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Seed, got.Seed, "uint64 seeds survive the BIGINT column")
	assert.Equal(t, run.Duration, got.Duration)
	assert.Equal(t, run.Participants, got.Participants)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))

	trials, err := repo.ListTrials(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, trials, 25)
	assert.Equal(t, records[0], trials[0])
	assert.Equal(t, "script failed", trials[3].Err)
	assert.Empty(t, trials[3].Damage, "error trials carry no damage rows")
	assert.Equal(t, trial.Summarize(records).MeanTicks, trial.Summarize(trials).MeanTicks)
}

func TestRunRepository_DuplicateRun(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	run := makeRun("verzik_8way", 1)
	require.NoError(t, repo.Write(ctx, run, makeRecords(1)))
	assert.ErrorIs(t, repo.Write(ctx, run, makeRecords(1)), postgres.ErrRunExists)
}

func TestRunRepository_NotFound(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	_, err := repo.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, postgres.ErrRunNotFound)
	_, err = repo.ListTrials(ctx, uuid.New())
	assert.ErrorIs(t, err, postgres.ErrRunNotFound)
	assert.ErrorIs(t, repo.DeleteRun(ctx, uuid.New()), postgres.ErrRunNotFound)
}

func TestRunRepository_ListAndDelete(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()

	older := makeRun("maiden_trio", 2)
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	newer := makeRun("maiden_trio", 2)
	require.NoError(t, repo.Write(ctx, older, makeRecords(2)))
	require.NoError(t, repo.Write(ctx, newer, makeRecords(2)))

	runs, err := repo.ListRuns(ctx, "maiden_trio")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)

	require.NoError(t, repo.DeleteRun(ctx, older.ID))
	_, err = repo.ListTrials(ctx, older.ID)
	assert.ErrorIs(t, err, postgres.ErrRunNotFound)
}

func TestProperty_RunRepository_RoundTrip(t *testing.T) {
	repo := setupRunRepo(t)
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		run := makeRun("prop", n)
		run.Seed = rapid.Uint64().Draw(rt, "seed")
		records := makeRecords(n)
		if err := repo.Write(ctx, run, records); err != nil {
			rt.Fatalf("write: %v", err)
		}
		got, err := repo.ListTrials(ctx, run.ID)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		if len(got) != n {
			rt.Fatalf("got %d trials, want %d", len(got), n)
		}
		back, err := repo.GetRun(ctx, run.ID)
		if err != nil || back.Seed != run.Seed {
			rt.Fatalf("seed %d round-tripped to %d (%v)", run.Seed, back.Seed, err)
		}
	})
}

func TestCheckSchema(t *testing.T) {
	db := testutil.NewMigratedPool(t)
	ctx := context.Background()
	require.NoError(t, postgres.CheckSchema(ctx, db))

	_, err := db.Exec(ctx, `UPDATE schema_migrations SET version = $1`, postgres.SchemaVersion-1)
	require.NoError(t, err)
	assert.ErrorIs(t, postgres.CheckSchema(ctx, db), postgres.ErrSchemaOutdated)

	_, err = db.Exec(ctx, `UPDATE schema_migrations SET version = $1, dirty = true`, postgres.SchemaVersion)
	require.NoError(t, err)
	assert.ErrorIs(t, postgres.CheckSchema(ctx, db), postgres.ErrSchemaOutdated)
}
