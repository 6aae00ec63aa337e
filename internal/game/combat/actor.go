package combat

import (
	"math"

	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

const (
	// DefaultAttackSpeed is the cooldown applied after an unarmed attack.
	DefaultAttackSpeed = 4
	// MaxSpecialEnergy caps special attack energy.
	MaxSpecialEnergy = 100
	// SpecialRegenAmount is restored every regeneration interval.
	SpecialRegenAmount = 10
	// SpecialRegenInterval is the number of ticks between regenerations.
	SpecialRegenInterval = 100
	// AcceleratedRegenInterval applies while RegenAccelerant is equipped.
	AcceleratedRegenInterval = 50
	// ThrallCadence is the number of ticks between thrall attacks.
	ThrallCadence = 4
	// VengeanceFraction of incoming damage is reflected while vengeance is armed.
	VengeanceFraction = 0.75
)

// ThrallDamage is the damage expression rolled for each thrall attack. Thrall
// attacks never miss.
var ThrallDamage = dice.MustParse("d4-1")

// Actor is a player-like participant. An Actor is owned by a single trial and
// is not safe for concurrent use.
type Actor struct {
	Name   string
	levels character.Levels

	primary   *Loadout
	alternate *Loadout
	active    *Loadout

	hp           int
	cooldown     int
	special      int
	specialTicks int
	thrall       bool
	thrallTicks  int
	vengeance    bool

	roller *dice.Roller
}

// NewActor creates an actor at full hit points and special energy, attacking
// with primary.
//
// Precondition: primary must not be nil; roller must not be nil.
// Postcondition: Cooldown() == 0, HP() == levels.Hitpoints, SpecialEnergy() == 100.
func NewActor(name string, levels character.Levels, primary *Loadout, roller *dice.Roller) *Actor {
	return &Actor{
		Name:    name,
		levels:  levels,
		primary: primary,
		active:  primary,
		hp:      levels.Hitpoints,
		special: MaxSpecialEnergy,
		roller:  roller,
	}
}

// SetAlternate registers the loadout used by swap decisions. Nil clears it.
func (a *Actor) SetAlternate(l *Loadout) { a.alternate = l }

// Alternate returns the swap loadout, or nil.
func (a *Actor) Alternate() *Loadout { return a.alternate }

// Loadout returns the loadout the actor is currently attacking with.
func (a *Actor) Loadout() *Loadout { return a.active }

// useAlternate makes the alternate loadout active until restore is called.
//
// Postcondition: returns false and changes nothing when no alternate is set.
func (a *Actor) useAlternate() bool {
	if a.alternate == nil {
		return false
	}
	a.active = a.alternate
	return true
}

func (a *Actor) restore() { a.active = a.primary }

// Levels returns the actor's immutable base levels.
func (a *Actor) Levels() character.Levels { return a.levels }

// HP returns current hit points.
func (a *Actor) HP() int { return a.hp }

// Alive reports whether the actor has hit points remaining.
func (a *Actor) Alive() bool { return a.hp > 0 }

// Cooldown returns the ticks remaining until the actor may attack.
func (a *Actor) Cooldown() int { return a.cooldown }

// SpecialEnergy returns the current special attack energy in [0,100].
func (a *Actor) SpecialEnergy() int { return a.special }

// ThrallActive reports whether a thrall is summoned.
func (a *Actor) ThrallActive() bool { return a.thrall }

// VengeanceArmed reports whether the next hit taken will be reflected.
func (a *Actor) VengeanceArmed() bool { return a.vengeance }

// Attack begins an attack action.
//
// Postcondition: when Cooldown() > 0, returns (false, nil) and no state changes.
// Otherwise any due thrall attack is rolled and returned, the cooldown is set
// to the active weapon's speed, and ok is true. thrall is nil when no thrall
// attack was due.
func (a *Actor) Attack() (ok bool, thrall *dice.RollResult) {
	if a.cooldown > 0 {
		return false, nil
	}
	if a.thrall && a.thrallTicks >= ThrallCadence {
		r := a.roller.Roll(ThrallDamage)
		thrall = &r
		a.thrallTicks = 0
	}
	a.cooldown = a.active.Speed()
	return true, thrall
}

// Delay forces the actor to wait n ticks without attacking.
func (a *Actor) Delay(n int) {
	a.cooldown = max(a.cooldown, n)
}

// Tick advances per-tick state: cooldown, special regeneration and thrall
// readiness.
//
// Postcondition: Cooldown() >= 0; SpecialEnergy() <= 100.
func (a *Actor) Tick() {
	if a.cooldown > 0 {
		a.cooldown--
	}
	// The counter keeps running at full energy and resets only on a regeneration.
	a.specialTicks++
	if a.specialTicks >= a.regenInterval() && a.special < MaxSpecialEnergy {
		a.specialTicks = 0
		a.special = min(a.special+SpecialRegenAmount, MaxSpecialEnergy)
	}
	if a.thrall {
		a.thrallTicks++
	}
}

func (a *Actor) regenInterval() int {
	if a.active.Equipment.Has(RegenAccelerant) {
		return AcceleratedRegenInterval
	}
	return SpecialRegenInterval
}

// UseSpecial spends cost energy.
//
// Postcondition: returns false and spends nothing when energy < cost.
func (a *Actor) UseSpecial(cost int) bool {
	if a.special < cost {
		return false
	}
	a.special -= cost
	return true
}

// SummonThrall summons a thrall that attacks with the actor's next attack on
// or after the following tick.
func (a *Actor) SummonThrall() {
	a.thrall = true
	a.thrallTicks = ThrallCadence - 1
}

// DismissThrall removes an active thrall.
func (a *Actor) DismissThrall() {
	a.thrall = false
	a.thrallTicks = 0
}

// ArmVengeance arms a one-shot reflect of the next hit taken.
func (a *Actor) ArmVengeance() { a.vengeance = true }

// TakeDamage reduces hit points by amount, flooring at zero. When vengeance is
// armed, the reflected amount is returned and vengeance is consumed, even for
// a zero-damage hit.
//
// Precondition: amount >= 0.
// Postcondition: 0 <= HP() <= Levels().Hitpoints; VengeanceArmed() == false.
func (a *Actor) TakeDamage(amount int) (reflected int) {
	a.hp = max(a.hp-amount, 0)
	if a.vengeance {
		a.vengeance = false
		reflected = int(math.Floor(float64(amount) * VengeanceFraction))
	}
	return reflected
}

// Heal restores amount hit points, capped at the hitpoints level.
func (a *Actor) Heal(amount int) {
	a.hp = min(a.hp+amount, a.levels.Hitpoints)
}
