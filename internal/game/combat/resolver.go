package combat

import (
	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

// Attacker is the capability set the resolver reads from the attacking side.
// Actors and boss attack entries both implement it.
type Attacker interface {
	WeaponName() string
	DamageType() (DamageType, error)
	AttackRoll() (int, error)
	MaxHit() (int, error)
}

// Defender supplies the defence roll for a damage type.
type Defender interface {
	DefenceRoll(DamageType) (int, error)
}

// AttackResult holds the outcome of one resolved attack action.
type AttackResult struct {
	DamageType  DamageType
	AttackRoll  int
	DefenceRoll int
	MaxHit      int
	// Hits holds the damage of each sub-hit; a miss is 0.
	Hits []int
}

// Damage returns the summed damage of every sub-hit.
func (r AttackResult) Damage() int {
	total := 0
	for _, h := range r.Hits {
		total += h
	}
	return total
}

// Landed reports whether any sub-hit connected.
func (r AttackResult) Landed() bool {
	for _, h := range r.Hits {
		if h > 0 {
			return true
		}
	}
	return false
}

// Resolver resolves attacks with roll-versus-roll accuracy. A Resolver is bound
// to one trial's random source and is not safe for concurrent use.
type Resolver struct {
	src dice.Source
}

// NewResolver creates a Resolver drawing from src.
//
// Precondition: src must not be nil.
func NewResolver(src dice.Source) *Resolver {
	return &Resolver{src: src}
}

// Hits reports whether an attack roll beats a defence roll. Both sides draw
// uniformly from [0, roll]; ties favour the defender.
func (r *Resolver) Hits(attackRoll, defenceRoll int) bool {
	return dice.Between(r.src, 0, attackRoll) > dice.Between(r.src, 0, defenceRoll)
}

// strike resolves one accuracy check and, on a hit, a damage roll in
// [0, ceiling] where a drawn 0 becomes 1.
func (r *Resolver) strike(attackRoll, defenceRoll, ceiling int) int {
	if !r.Hits(attackRoll, defenceRoll) {
		return 0
	}
	return max(dice.Between(r.src, 0, ceiling), 1)
}

// Resolve resolves exactly one attack action by a against d.
//
// MultiHitWeapon strikes three times with ceilings m, m/2 and m/4, each with
// its own accuracy check. Every other weapon strikes once.
//
// Postcondition: on error (ErrUnmappedDamageCategory, ErrInvalidWeapon) the
// result carries no hits and must be treated as zero damage. Every landed
// sub-hit deals at least 1.
func (r *Resolver) Resolve(a Attacker, d Defender) (AttackResult, error) {
	var res AttackResult
	dt, err := a.DamageType()
	if err != nil {
		return res, err
	}
	res.DamageType = dt
	if res.DefenceRoll, err = d.DefenceRoll(dt); err != nil {
		return res, err
	}
	if res.AttackRoll, err = a.AttackRoll(); err != nil {
		return res, err
	}
	if res.MaxHit, err = a.MaxHit(); err != nil {
		return res, err
	}

	if a.WeaponName() == MultiHitWeapon {
		m := res.MaxHit
		res.Hits = []int{
			r.strike(res.AttackRoll, res.DefenceRoll, m),
			r.strike(res.AttackRoll, res.DefenceRoll, m/2),
			r.strike(res.AttackRoll, res.DefenceRoll, m/2/2),
		}
		return res, nil
	}
	res.Hits = []int{r.strike(res.AttackRoll, res.DefenceRoll, res.MaxHit)}
	return res, nil
}
