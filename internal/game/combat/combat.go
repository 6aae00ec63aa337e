// Package combat implements the tick-based boss encounter engine: actor
// capability computation, the roll-versus-roll attack resolver, the boss
// phase and attack-cycle state machine, and the per-tick encounter loop.
package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/inventory"
)

var (
	// ErrInvalidBuild is returned when a build references an item or buff that
	// cannot be resolved. Construction is aborted; no partial state remains.
	ErrInvalidBuild = errors.New("invalid build")
	// ErrInvalidWeapon is returned when a magic max hit is requested for a
	// weapon without a base-damage table entry.
	ErrInvalidWeapon = errors.New("invalid weapon")
	// ErrUnmappedDamageCategory is returned when no defence roll exists for an
	// attacker's damage type.
	ErrUnmappedDamageCategory = errors.New("unmapped damage category")
	// ErrTrialTimeout is returned when an encounter reaches its tick cutoff.
	ErrTrialTimeout = errors.New("trial timeout")
)

// Named items with bespoke rules.
const (
	// SignatureStaff triples the magic offence of every other equipped item and
	// the equipment magic damage bonus.
	SignatureStaff = "Tumeken's shadow"
	// RegenAccelerant halves the special attack energy regeneration interval.
	RegenAccelerant = "Lightbearer"
	// MultiHitWeapon strikes three times at m, m/2 and m/4.
	MultiHitWeapon = "Scythe of vitur"
)

// DamageType selects which defensive rating an attack is checked against.
type DamageType string

const (
	DamageStab   DamageType = "stab"
	DamageSlash  DamageType = "slash"
	DamageCrush  DamageType = "crush"
	DamageMagic  DamageType = "magic"
	DamageRanged DamageType = "ranged"
)

// damageTypeFor maps a weapon category and melee stat selection to a DamageType.
//
// Postcondition: err wraps ErrUnmappedDamageCategory when no mapping exists.
func damageTypeFor(cat inventory.Category, stat character.Stat) (DamageType, error) {
	switch cat {
	case inventory.CategoryMagic:
		return DamageMagic, nil
	case inventory.CategoryRanged:
		return DamageRanged, nil
	case inventory.CategoryMelee, inventory.CategoryNone, "":
		switch stat {
		case character.StatStab:
			return DamageStab, nil
		case character.StatSlash:
			return DamageSlash, nil
		case character.StatCrush:
			return DamageCrush, nil
		}
		return "", fmt.Errorf("%w: melee attack with stat %q", ErrUnmappedDamageCategory, stat)
	}
	return "", fmt.Errorf("%w: category %q", ErrUnmappedDamageCategory, cat)
}

// pick returns the StatBlock field for dt.
func pick(b inventory.StatBlock, dt DamageType) (int, bool) {
	switch dt {
	case DamageStab:
		return b.Stab, true
	case DamageSlash:
		return b.Slash, true
	case DamageCrush:
		return b.Crush, true
	case DamageMagic:
		return b.Magic, true
	case DamageRanged:
		return b.Ranged, true
	}
	return 0, false
}
