package combat_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/inventory"
)

func TestAttackRoll_MeleeAccurateUnbuffed(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatSlash, nil), 1)
	roll, err := a.AttackRoll()
	require.NoError(t, err)
	assert.Equal(t, (118+3+8)*(0+64), roll)
	assert.Equal(t, 8256, roll)
}

func TestAttackRoll_MeleeBuffedUsesSelectedStat(t *testing.T) {
	w := weapon("Blade", inventory.CategoryMelee, 4)
	w.Offensive = inventory.StatBlock{Stab: 10, Slash: 100, Crush: 20}
	l := newLoadout(t, "m", character.StyleControlled, character.StatCrush, mustBuff(t, "Piety"), w)
	roll, err := newActor("p", l, 1).AttackRoll()
	require.NoError(t, err)
	assert.Equal(t, (141+1+8)*(20+64), roll)
}

func TestAttackRoll_RangedAndMagic(t *testing.T) {
	bow := weapon("Bow", inventory.CategoryRanged, 5)
	bow.Offensive.Ranged = 70
	l := newLoadout(t, "r", character.StyleAccurate, character.StatRanged, mustBuff(t, "Rigour"), bow)
	roll, err := newActor("r", l, 1).AttackRoll()
	require.NoError(t, err)
	// floor(112*1.2)=134
	assert.Equal(t, (134+3+8)*(70+64), roll)

	staff := weapon("Sanguinesti staff", inventory.CategoryMagic, 4)
	staff.Offensive.Magic = 25
	hat := &inventory.ItemDef{Name: "Hat", Slot: inventory.SlotHead, Offensive: inventory.StatBlock{Magic: 8}}
	l = newLoadout(t, "m", character.StyleAccurate, character.StatMagic, mustBuff(t, "Augury"), staff, hat)
	roll, err = newActor("m", l, 1).AttackRoll()
	require.NoError(t, err)
	assert.Equal(t, (140+2+9)*(33+64), roll)
}

func TestAttackRoll_SignatureStaffTriplesOtherItems(t *testing.T) {
	staff := weapon(combat.SignatureStaff, inventory.CategoryMagic, 5)
	staff.Offensive.Magic = 35
	hat := &inventory.ItemDef{Name: "Hat", Slot: inventory.SlotHead, Offensive: inventory.StatBlock{Magic: 20}}
	l := newLoadout(t, "m", character.StyleLongrange, character.StatMagic, mustBuff(t, "Augury"), staff, hat)
	roll, err := newActor("m", l, 1).AttackRoll()
	require.NoError(t, err)
	assert.Equal(t, (140+9)*(35+3*20+64), roll)
}

func TestMaxHit_Melee(t *testing.T) {
	w := weapon("Blade", inventory.CategoryMelee, 4)
	w.Bonuses.Str = 136
	l := newLoadout(t, "m", character.StyleAggressive, character.StatSlash, mustBuff(t, "Piety"), w)
	got, err := newActor("p", l, 1).MaxHit()
	require.NoError(t, err)
	// ((145+3+8)*(136+64)+320)/640 = 31520/640
	assert.Equal(t, 49, got)
}

func TestMaxHit_Ranged(t *testing.T) {
	bow := weapon("Bow", inventory.CategoryRanged, 5)
	bow.Bonuses.RangedStr = 100
	l := newLoadout(t, "r", character.StyleAccurate, character.StatRanged, mustBuff(t, "Rigour"), bow)
	got, err := newActor("r", l, 1).MaxHit()
	require.NoError(t, err)
	assert.Equal(t, 38, got)
}

func TestMaxHit_MagicSignatureStaff(t *testing.T) {
	staff := weapon(combat.SignatureStaff, inventory.CategoryMagic, 5)
	neck := &inventory.ItemDef{Name: "Neck", Slot: inventory.SlotNeck, Bonuses: inventory.Bonuses{MagicStr: 100}}
	cape := &inventory.ItemDef{Name: "Cape", Slot: inventory.SlotCape, Bonuses: inventory.Bonuses{MagicStr: 80}}
	l := newLoadout(t, "m", character.StyleLongrange, character.StatMagic, mustBuff(t, "Augury"), staff, neck, cape)
	got, err := newActor("m", l, 1).MaxHit()
	require.NoError(t, err)
	// base 112/3+1 = 38; 1 + (18*3 + 4)/100
	assert.Equal(t, 60, got)
}

func TestMaxHit_MagicWithoutTableEntry(t *testing.T) {
	l := newLoadout(t, "m", character.StyleAccurate, character.StatMagic, nil, weapon("Kodai wand", inventory.CategoryMagic, 4))
	_, err := newActor("m", l, 1).MaxHit()
	require.Error(t, err)
	assert.True(t, errors.Is(err, combat.ErrInvalidWeapon))
}

func TestMagicBaseDamage_Table(t *testing.T) {
	tests := map[string]int{
		combat.SignatureStaff:  38,
		"Sanguinesti staff":    36,
		"Trident of the swamp": 35,
		"Trident of the seas":  32,
		"Warped sceptre":       26,
		"Accursed sceptre":     31,
	}
	for name, want := range tests {
		got, err := combat.MagicBaseDamage(name, 112)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	got, err := combat.MagicBaseDamage("Trident of the seas", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, got, "base damage floors at zero")
}

func TestDamageType_MeleeWithNonMeleeStat(t *testing.T) {
	l := newLoadout(t, "m", character.StyleAccurate, character.StatMagic, nil, weapon("Blade", inventory.CategoryMelee, 4))
	_, err := newActor("p", l, 1).DamageType()
	assert.True(t, errors.Is(err, combat.ErrUnmappedDamageCategory))
}

func TestAttack_OnCooldownFailsClosed(t *testing.T) {
	l := newLoadout(t, "m", character.StyleAccurate, character.StatSlash, nil, weapon("Blade", inventory.CategoryMelee, 5))
	a := newActor("p", l, 1)
	ok, _ := a.Attack()
	require.True(t, ok)
	assert.Equal(t, 5, a.Cooldown())

	ok, thrall := a.Attack()
	assert.False(t, ok)
	assert.Nil(t, thrall)
	assert.Equal(t, 5, a.Cooldown())
}

func TestAttack_UnarmedDefaultsToFourTicks(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatCrush, nil), 1)
	ok, _ := a.Attack()
	require.True(t, ok)
	assert.Equal(t, combat.DefaultAttackSpeed, a.Cooldown())
}

// TestProperty_AttackCooldown verifies that Attack fails without mutation while
// on cooldown and always succeeds at cooldown zero, setting the weapon speed.
func TestProperty_AttackCooldown(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.IntRange(1, 8).Draw(rt, "speed")
		l := newLoadout(t, "m", character.StyleAccurate, character.StatSlash, nil, weapon("Blade", inventory.CategoryMelee, speed))
		a := newActor("p", l, 7)
		if rapid.Bool().Draw(rt, "thrall") {
			a.SummonThrall()
		}
		ops := rapid.SliceOfN(rapid.Bool(), 1, 60).Draw(rt, "ops")
		for _, attack := range ops {
			if !attack {
				a.Tick()
				if a.Cooldown() < 0 {
					rt.Fatalf("negative cooldown %d", a.Cooldown())
				}
				continue
			}
			before := *a
			ok, _ := a.Attack()
			if before.Cooldown() > 0 {
				if ok {
					rt.Fatalf("attack succeeded with cooldown %d", before.Cooldown())
				}
				if *a != before {
					rt.Fatalf("failed attack mutated state")
				}
				continue
			}
			if !ok {
				rt.Fatalf("attack failed at cooldown 0")
			}
			if a.Cooldown() != speed {
				rt.Fatalf("cooldown %d, want %d", a.Cooldown(), speed)
			}
		}
	})
}

func TestSpecial_RegenAndCap(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatSlash, nil), 1)
	require.True(t, a.UseSpecial(50))
	assert.False(t, a.UseSpecial(60))
	assert.Equal(t, 50, a.SpecialEnergy())

	for i := 0; i < combat.SpecialRegenInterval-1; i++ {
		a.Tick()
	}
	assert.Equal(t, 50, a.SpecialEnergy())
	a.Tick()
	assert.Equal(t, 60, a.SpecialEnergy())

	for i := 0; i < 10*combat.SpecialRegenInterval; i++ {
		a.Tick()
	}
	assert.Equal(t, combat.MaxSpecialEnergy, a.SpecialEnergy())
}

func TestSpecial_CounterRunsWhileFull(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatSlash, nil), 1)
	for i := 0; i < combat.SpecialRegenInterval+50; i++ {
		a.Tick()
	}
	require.Equal(t, combat.MaxSpecialEnergy, a.SpecialEnergy())
	require.True(t, a.UseSpecial(50))
	a.Tick()
	assert.Equal(t, 60, a.SpecialEnergy(), "regenerates on the first tick after spending")
	for i := 0; i < combat.SpecialRegenInterval-1; i++ {
		a.Tick()
	}
	assert.Equal(t, 60, a.SpecialEnergy())
	a.Tick()
	assert.Equal(t, 70, a.SpecialEnergy())
}

func TestSpecial_AcceleratedRegen(t *testing.T) {
	ring := &inventory.ItemDef{Name: combat.RegenAccelerant, Slot: inventory.SlotRing}
	a := newActor("p", newLoadout(t, "lb", character.StyleAccurate, character.StatSlash, nil, ring), 1)
	require.True(t, a.UseSpecial(100))
	for i := 0; i < combat.AcceleratedRegenInterval; i++ {
		a.Tick()
	}
	assert.Equal(t, 10, a.SpecialEnergy())
}

func TestThrall_AttacksOnTickAfterSummon(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatSlash, nil), 3)
	a.SummonThrall()
	require.True(t, a.ThrallActive())

	ok, thrall := a.Attack()
	require.True(t, ok)
	assert.Nil(t, thrall, "thrall is not ready on the summoning tick")

	for a.Cooldown() > 0 {
		a.Tick()
	}
	ok, thrall = a.Attack()
	require.True(t, ok)
	require.NotNil(t, thrall)
	assert.GreaterOrEqual(t, thrall.Total(), 0)
	assert.LessOrEqual(t, thrall.Total(), 3)

	a.DismissThrall()
	for a.Cooldown() > 0 {
		a.Tick()
	}
	_, thrall = a.Attack()
	assert.Nil(t, thrall)
}

func TestTakeDamage_VengeanceReflectsOnce(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatSlash, nil), 1)
	a.ArmVengeance()
	assert.Equal(t, 30, a.TakeDamage(40))
	assert.Equal(t, 81, a.HP())
	assert.False(t, a.VengeanceArmed())
	assert.Equal(t, 0, a.TakeDamage(10))

	a.ArmVengeance()
	assert.Equal(t, 0, a.TakeDamage(0))
	assert.False(t, a.VengeanceArmed(), "a zero hit still consumes vengeance")
}

func TestTakeDamageAndHeal_Clamp(t *testing.T) {
	a := newActor("p", newLoadout(t, "bare", character.StyleAccurate, character.StatSlash, nil), 1)
	a.TakeDamage(500)
	assert.Equal(t, 0, a.HP())
	assert.False(t, a.Alive())
	a.Heal(500)
	assert.Equal(t, 121, a.HP())
}

func TestDefenceRoll_Actor(t *testing.T) {
	body := &inventory.ItemDef{Name: "Body", Slot: inventory.SlotBody, Defensive: inventory.StatBlock{Crush: 36, Magic: 10}}
	a := newActor("p", newLoadout(t, "m", character.StyleAccurate, character.StatSlash, nil, body), 1)
	roll, err := a.DefenceRoll(combat.DamageCrush)
	require.NoError(t, err)
	assert.Equal(t, (118+9)*(36+64), roll)

	roll, err = a.DefenceRoll(combat.DamageMagic)
	require.NoError(t, err)
	// floor(0.7*112 + 0.3*118) = 113
	assert.Equal(t, (113+9)*(10+64), roll)

	_, err = a.DefenceRoll("psychic")
	assert.True(t, errors.Is(err, combat.ErrUnmappedDamageCategory))
}
