package combat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/raidsim/internal/game/buff"
	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
	"github.com/cory-johannsen/raidsim/internal/game/inventory"
	"github.com/cory-johannsen/raidsim/internal/game/npc"
)

// seqSrc returns its values in order, cycling, clamped to [0, n).
type seqSrc struct {
	vals []int
	i    int
}

func (s *seqSrc) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	if v >= n {
		return n - 1
	}
	return v
}

// recorder collects every emitted event.
type recorder struct{ events []combat.Event }

func (r *recorder) Emit(e combat.Event) { r.events = append(r.events, e) }

func (r *recorder) ofType(typ combat.EventType) []combat.Event {
	var out []combat.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func stdLevels() character.Levels {
	return character.Levels{Attack: 118, Strength: 118, Defence: 118, Magic: 112, Ranged: 112, Hitpoints: 121}
}

func weapon(name string, cat inventory.Category, speed int) *inventory.ItemDef {
	return &inventory.ItemDef{Name: name, Slot: inventory.SlotWeapon, Category: cat, Speed: speed}
}

func newLoadout(t testing.TB, name string, style character.Style, stat character.Stat, b *buff.Def, items ...*inventory.ItemDef) *combat.Loadout {
	t.Helper()
	eq := inventory.NewEquipment()
	for _, it := range items {
		_, err := eq.Equip(it)
		require.NoError(t, err)
	}
	return &combat.Loadout{Name: name, Equipment: eq, Style: style, Stat: stat, Buff: b}
}

func newActor(name string, l *combat.Loadout, seed uint64) *combat.Actor {
	return combat.NewActor(name, stdLevels(), l, dice.NewLoggedRoller(dice.NewSeededSource(seed), nil))
}

func mustBuff(t testing.TB, name string) *buff.Def {
	t.Helper()
	d, err := buff.Default().Get(name)
	require.NoError(t, err)
	return d
}

func verzikTemplate() *npc.Template {
	return &npc.Template{
		ID:             "verzik_p2",
		Name:           "Verzik",
		DefaultHP:      2625,
		HPByScale:      map[int]int{4: 3062, 5: 3500},
		Levels:         npc.Levels{Attack: 400, Defence: 200, Magic: 400, Ranged: 400},
		Defences:       npc.Defences{Stab: 100, Slash: 60, Crush: 100, Magic: 70, Ranged: 250},
		ExitThreshold:  0.35,
		AttackInterval: 4,
		Attacks: []*npc.AttackDef{
			{Kind: "cabbage", Category: "ranged"},
			{Kind: "lightning", Category: "magic", SelfDamage: 20},
		},
		Pattern: []string{"cabbage", "cabbage", "cabbage", "cabbage", "lightning"},
	}
}

func maidenTemplate() *npc.Template {
	spawn := &npc.Spawn{Kind: "nylocas", Count: 6, CountByScale: map[int]int{4: 8, 5: 10}}
	return &npc.Template{
		ID:             "maiden",
		Name:           "Maiden",
		DefaultHP:      2625,
		HPByScale:      map[int]int{4: 3062, 5: 3500},
		Levels:         npc.Levels{Attack: 350, Defence: 350, Magic: 350, Ranged: 350},
		Phases:         []npc.Phase{{Threshold: 0.7, Spawn: spawn}, {Threshold: 0.5, Spawn: spawn}, {Threshold: 0.3, Spawn: spawn}},
		AttackInterval: 10,
		Attacks:        []*npc.AttackDef{{Kind: "blood", Category: "magic", MaxHit: 36}},
		Pattern:        []string{"blood"},
		SpawnPositions: []string{"N1", "N2", "N3", "N4a", "N4b", "S1", "S2", "S3", "S4a", "S4b"},
	}
}
