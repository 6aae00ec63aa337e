package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
	"github.com/cory-johannsen/raidsim/internal/game/npc"
)

func TestBoss_HPByScale(t *testing.T) {
	src := dice.NewSeededSource(1)
	assert.Equal(t, 3500, combat.NewBoss(verzikTemplate(), 5, src).BaseHP())
	assert.Equal(t, 3062, combat.NewBoss(verzikTemplate(), 4, src).BaseHP())
	assert.Equal(t, 2625, combat.NewBoss(verzikTemplate(), 3, src).BaseHP())
}

func TestBoss_ExitThresholdScenario(t *testing.T) {
	b := combat.NewBoss(verzikTemplate(), 3, dice.NewSeededSource(1))
	require.Equal(t, 2625, b.HP())
	require.Equal(t, 918, b.ExitHP())

	for i := 0; i < 3; i++ {
		b.ApplyDamage(310)
	}
	assert.Equal(t, 2625-930, b.HP())
	assert.True(t, b.Active())

	calls := 3
	for b.Active() {
		b.ApplyDamage(310)
		calls++
		if b.HP() > 918 {
			require.True(t, b.Active(), "still active above the threshold at hp %d", b.HP())
		}
	}
	assert.Equal(t, combat.BossPhaseEnded, b.State())
	assert.Equal(t, 6, calls)
	assert.Equal(t, 765, b.HP())

	b.ApplyDamage(1000)
	assert.Equal(t, 765, b.HP(), "damage to an inactive boss is ignored")
}

func TestBoss_DefeatIsDistinctFromPhaseEnd(t *testing.T) {
	tmpl := verzikTemplate()
	tmpl.ExitThreshold = 0
	b := combat.NewBoss(tmpl, 3, dice.NewSeededSource(1))
	assert.Equal(t, -1, b.ExitHP())
	b.ApplyDamage(2000)
	assert.True(t, b.Active())
	b.ApplyDamage(5000)
	assert.Equal(t, 0, b.HP())
	assert.Equal(t, combat.BossDefeated, b.State())
	assert.Equal(t, combat.BossTurn{}, b.Step())
}

func TestBoss_AttackCycle(t *testing.T) {
	b := combat.NewBoss(verzikTemplate(), 3, dice.NewSeededSource(1))
	var kinds []string
	selfDamage := 0
	for i := 0; i < 25; i++ {
		attacking := b.Attacking()
		turn := b.Step()
		if turn.Attack != nil {
			require.True(t, attacking, "attack on step %d not announced", i)
			kinds = append(kinds, turn.Attack.Kind)
			selfDamage += turn.SelfDamage
		} else {
			require.False(t, attacking)
		}
	}
	assert.Equal(t, []string{"cabbage", "cabbage", "cabbage", "cabbage", "lightning"}, kinds)
	assert.Equal(t, 20, selfDamage)
	assert.Equal(t, 2605, b.HP())
}

func TestBoss_SelfDamageCanEndPhase(t *testing.T) {
	tmpl := verzikTemplate()
	tmpl.Pattern = []string{"lightning"}
	b := combat.NewBoss(tmpl, 3, dice.NewSeededSource(1))
	b.ApplyDamage(2625 - 930)
	require.True(t, b.Active())
	for i := 0; i < 4; i++ {
		b.Step()
	}
	turn := b.Step()
	require.NotNil(t, turn.Attack)
	assert.Equal(t, 910, b.HP())
	assert.Equal(t, combat.BossPhaseEnded, b.State())
}

func TestBoss_MultiplePhasesInOneHit(t *testing.T) {
	b := combat.NewBoss(maidenTemplate(), 5, dice.NewSeededSource(9))
	changes := b.ApplyDamage(3500 - 1000)
	require.Len(t, changes, 3)
	for i, c := range changes {
		assert.Equal(t, i+1, c.Phase)
		require.NotNil(t, c.Spawn)
		assert.Len(t, c.Spawn.Positions, 10)
		seen := map[string]bool{}
		for _, p := range c.Spawn.Positions {
			assert.False(t, seen[p], "position %s repeated", p)
			seen[p] = true
		}
	}
	assert.Equal(t, 3, b.Phase())
	assert.Len(t, b.Spawns(), 3)
	assert.True(t, b.Active(), "maiden has no exit threshold")
}

func TestBoss_SpawnCountByScale(t *testing.T) {
	b := combat.NewBoss(maidenTemplate(), 3, dice.NewSeededSource(2))
	changes := b.ApplyDamage(800)
	require.Len(t, changes, 1)
	assert.Len(t, changes[0].Spawn.Positions, 6)
}

func TestBoss_NegativeSpawnCountSpawnsNothing(t *testing.T) {
	tmpl := maidenTemplate()
	tmpl.Phases = []npc.Phase{{Threshold: 0.7, Spawn: &npc.Spawn{Kind: "nylocas", CountByScale: map[int]int{3: -1}}}}
	b := combat.NewBoss(tmpl, 3, dice.NewSeededSource(2))
	var changes []combat.PhaseChange
	require.NotPanics(t, func() { changes = b.ApplyDamage(1000) })
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].Spawn)
	assert.Empty(t, b.Spawns())
}

// TestProperty_BossPhaseMonotonic verifies that phase never decreases and an
// inactive boss never becomes active again.
func TestProperty_BossPhaseMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tmpl := maidenTemplate()
		if rapid.Bool().Draw(rt, "exit") {
			tmpl.ExitThreshold = 0.2
		}
		b := combat.NewBoss(tmpl, rapid.IntRange(1, 5).Draw(rt, "scale"), dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		hits := rapid.SliceOfN(rapid.IntRange(0, 600), 1, 40).Draw(rt, "hits")
		phase := 0
		wasActive := true
		for _, h := range hits {
			b.ApplyDamage(h)
			b.Step()
			if b.Phase() < phase {
				rt.Fatalf("phase decreased %d -> %d", phase, b.Phase())
			}
			if b.Active() && !wasActive {
				rt.Fatalf("boss reactivated")
			}
			phase, wasActive = b.Phase(), b.Active()
			if b.HP() < 0 {
				rt.Fatalf("negative hp")
			}
		}
	})
}

func TestBoss_DefenceRoll(t *testing.T) {
	b := combat.NewBoss(verzikTemplate(), 3, dice.NewSeededSource(1))
	tests := map[combat.DamageType]int{
		combat.DamageSlash:  (200 + 9) * (60 + 64),
		combat.DamageStab:   (200 + 9) * (100 + 64),
		combat.DamageCrush:  (200 + 9) * (100 + 64),
		combat.DamageRanged: (200 + 9) * (250 + 64),
		combat.DamageMagic:  (400 + 9) * (70 + 64),
	}
	for dt, want := range tests {
		got, err := b.DefenceRoll(dt)
		require.NoError(t, err)
		assert.Equal(t, want, got, dt)
	}
	_, err := b.DefenceRoll("psychic")
	assert.True(t, errors.Is(err, combat.ErrUnmappedDamageCategory))
}
