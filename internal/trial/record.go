package trial

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/raidsim/internal/game/combat"
)

// Result values recorded per trial. The first four mirror combat.Result.
const (
	ResultPhaseEnded = string(combat.ResultPhaseEnded)
	ResultDefeated   = string(combat.ResultDefeated)
	ResultWipe       = string(combat.ResultWipe)
	ResultTimeout    = string(combat.ResultTimeout)
	// ResultError marks a trial that could not be set up.
	ResultError = "error"
)

// Record is the fixed-shape summary of one trial.
type Record struct {
	// Trial is the 1-based submission index.
	Trial  int
	Seed   uint64
	Result string
	Ticks  int
	// Names, Damage and DamagePercent are parallel, in participant order.
	Names         []string
	Damage        []int
	DamagePercent []float64
	BossHP        int
	BossHPPercent float64
	Phase         int
	Spawns        int
	// Err holds the error message for error and timeout results.
	Err string
}

// Completed reports whether the trial reached a phase end or a defeat.
func (r Record) Completed() bool {
	return r.Result == ResultPhaseEnded || r.Result == ResultDefeated
}

// newRecord converts an encounter outcome into a record.
func newRecord(trial int, seed uint64, out combat.Outcome) Record {
	rec := Record{
		Trial:         trial,
		Seed:          seed,
		Result:        string(out.Result),
		Ticks:         out.Ticks,
		Names:         out.Names,
		Damage:        out.Damage,
		DamagePercent: make([]float64, len(out.Damage)),
		BossHP:        out.BossHP,
		Phase:         out.Phase,
		Spawns:        len(out.Spawns),
	}
	if total := out.TotalDamage(); total > 0 {
		for i, d := range out.Damage {
			rec.DamagePercent[i] = float64(d) / float64(total) * 100
		}
	}
	if out.BossBaseHP > 0 {
		rec.BossHPPercent = float64(out.BossHP) / float64(out.BossBaseHP) * 100
	}
	return rec
}

// Run identifies one batch of trials.
type Run struct {
	ID       uuid.UUID
	Scenario string
	Boss     string
	Scale    int
	Seed     uint64
	Trials   int
	// Participants lists the actor names in action order.
	Participants []string
	StartedAt    time.Time
	Duration     time.Duration
}

// NewRun creates run metadata with a fresh ID.
func NewRun(p *Plan, seed uint64, trials int) Run {
	return Run{
		ID:           uuid.New(),
		Scenario:     p.Scenario.ID,
		Boss:         p.boss.ID,
		Scale:        p.Scenario.Scale,
		Seed:         seed,
		Trials:       trials,
		Participants: p.Names(),
		StartedAt:    time.Now().UTC(),
	}
}

// Sink consumes a finished run's records. Implementations decide the storage
// format; records arrive in submission order.
type Sink interface {
	Write(ctx context.Context, run Run, records []Record) error
}

// Summary aggregates a run. Tick statistics cover completed trials only.
type Summary struct {
	Trials    int
	Completed int
	Timeouts  int
	Wipes     int
	Errors    int

	MeanTicks   float64
	StdDevTicks float64
	MedianTicks float64
	MinTicks    int
	MaxTicks    int

	// MeanDamagePercent is keyed by participant name.
	MeanDamagePercent map[string]float64
	MeanBossHPPercent float64
}

// Summarize computes aggregate statistics over records.
//
// Postcondition: Trials == len(records) and
// Completed+Timeouts+Wipes+Errors == Trials.
func Summarize(records []Record) Summary {
	s := Summary{Trials: len(records), MeanDamagePercent: make(map[string]float64)}
	var ticks []int
	var hpSum float64
	for _, r := range records {
		switch {
		case r.Completed():
			s.Completed++
			ticks = append(ticks, r.Ticks)
			hpSum += r.BossHPPercent
			for i, name := range r.Names {
				s.MeanDamagePercent[name] += r.DamagePercent[i]
			}
		case r.Result == ResultTimeout:
			s.Timeouts++
		case r.Result == ResultWipe:
			s.Wipes++
		default:
			s.Errors++
		}
	}
	if s.Completed == 0 {
		return s
	}
	n := float64(s.Completed)
	for name := range s.MeanDamagePercent {
		s.MeanDamagePercent[name] /= n
	}
	s.MeanBossHPPercent = hpSum / n

	sort.Ints(ticks)
	s.MinTicks, s.MaxTicks = ticks[0], ticks[len(ticks)-1]
	var sum float64
	for _, t := range ticks {
		sum += float64(t)
	}
	s.MeanTicks = sum / n
	var sq float64
	for _, t := range ticks {
		d := float64(t) - s.MeanTicks
		sq += d * d
	}
	s.StdDevTicks = math.Sqrt(sq / n)
	mid := len(ticks) / 2
	if len(ticks)%2 == 1 {
		s.MedianTicks = float64(ticks[mid])
	} else {
		s.MedianTicks = float64(ticks[mid-1]+ticks[mid]) / 2
	}
	return s
}
