package combat

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/raidsim/internal/game/character"
)

// boosted applies a fractional buff to a level, flooring the result.
func boosted(level int, bonus float64) int {
	return int(math.Floor(float64(level) * (1 + bonus)))
}

// DamageType returns the damage type of the active loadout.
//
// Postcondition: err wraps ErrUnmappedDamageCategory when the weapon category
// and stat selection map to no defence rating.
func (a *Actor) DamageType() (DamageType, error) {
	return damageTypeFor(a.active.Category(), a.active.Stat)
}

// WeaponName returns the active weapon's name, or "" when unarmed.
func (a *Actor) WeaponName() string { return a.active.WeaponName() }

// AttackRoll returns the accuracy roll of the active loadout.
//
// Melee: (floor(attack*(1+b)) + style + 8) * (offence[stat] + 64), style 3
// Accurate, 1 Controlled. Ranged: the same with the ranged level and +3
// Accurate. Magic: +2 Accurate and +9, and with SignatureStaff equipped the
// other items' magic offence is tripled.
func (a *Actor) AttackRoll() (int, error) {
	dt, err := a.DamageType()
	if err != nil {
		return 0, err
	}
	l := a.active
	b := l.buff()
	totals := l.Equipment.Totals()
	switch dt {
	case DamageMagic:
		eff := boosted(a.levels.Magic, b.MagicBonus) + 9
		if l.Style == character.StyleAccurate {
			eff += 2
		}
		return eff * (a.magicOffence() + 64), nil
	case DamageRanged:
		eff := boosted(a.levels.Ranged, b.RangedBonus) + 8
		if l.Style == character.StyleAccurate {
			eff += 3
		}
		return eff * (totals.Offensive.Ranged + 64), nil
	default:
		eff := boosted(a.levels.Attack, b.AttackBonus) + 8
		switch l.Style {
		case character.StyleAccurate:
			eff += 3
		case character.StyleControlled:
			eff++
		}
		bonus, _ := pick(totals.Offensive, dt)
		return eff * (bonus + 64), nil
	}
}

// magicOffence returns the equipment magic offence, tripling every item other
// than the weapon when SignatureStaff is wielded.
func (a *Actor) magicOffence() int {
	eq := a.active.Equipment
	total := eq.Totals().Offensive.Magic
	w := eq.Weapon()
	if w == nil || w.Name != SignatureStaff {
		return total
	}
	others := total - w.Offensive.Magic
	return w.Offensive.Magic + 3*others
}

// MaxHit returns the damage ceiling of the active loadout.
//
// Postcondition: err wraps ErrInvalidWeapon when a magic weapon has no base
// damage entry; err wraps ErrUnmappedDamageCategory when the damage type is
// unmapped. The result is never negative.
func (a *Actor) MaxHit() (int, error) {
	dt, err := a.DamageType()
	if err != nil {
		return 0, err
	}
	l := a.active
	b := l.buff()
	bonuses := l.Equipment.Totals().Bonuses
	switch dt {
	case DamageMagic:
		base, err := MagicBaseDamage(l.WeaponName(), a.levels.Magic)
		if err != nil {
			return 0, err
		}
		gear := float64(bonuses.MagicStr) / 10
		if l.WeaponName() == SignatureStaff {
			gear *= 3
		}
		return int(math.Floor(float64(base) * (1 + (gear+b.MagicDamagePercent)/100))), nil
	case DamageRanged:
		eff := float64(a.levels.Ranged) * (1 + b.RangedStrengthBonus)
		if l.Style == character.StyleAccurate {
			eff += 3
		}
		eff += 8
		return int(math.Floor(0.5 + eff*float64(bonuses.RangedStr+64)/640)), nil
	default:
		eff := boosted(a.levels.Strength, b.StrengthBonus) + 8
		switch l.Style {
		case character.StyleAggressive:
			eff += 3
		case character.StyleControlled:
			eff++
		}
		return (eff*(bonuses.Str+64) + 320) / 640, nil
	}
}

// DefenceRoll returns the actor's defence roll against dt. Magic defence uses
// 70% magic and 30% defence level.
func (a *Actor) DefenceRoll(dt DamageType) (int, error) {
	l := a.active
	b := l.buff()
	bonus, ok := pick(l.Equipment.Totals().Defensive, dt)
	if !ok {
		return 0, fmt.Errorf("%w: actor defence against %q", ErrUnmappedDamageCategory, dt)
	}
	def := boosted(a.levels.Defence, b.DefenceBonus)
	switch l.Style {
	case character.StyleDefensive, character.StyleLongrange:
		def += 3
	case character.StyleControlled:
		def++
	}
	eff := def + 9
	if dt == DamageMagic {
		magic := boosted(a.levels.Magic, b.MagicBonus)
		eff = int(math.Floor(0.7*float64(magic)+0.3*float64(def))) + 9
	}
	return eff * (bonus + 64), nil
}
