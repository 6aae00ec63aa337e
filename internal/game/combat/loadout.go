package combat

import (
	"fmt"

	"github.com/cory-johannsen/raidsim/internal/game/buff"
	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/inventory"
)

// Loadout bundles the equipment, style, melee stat and buff an actor attacks
// with. A Loadout is read-only once built and may be shared by many actors
// across concurrent trials.
type Loadout struct {
	Name      string
	Equipment *inventory.Equipment
	Style     character.Style
	Stat      character.Stat
	Buff      *buff.Def
}

// NewLoadout resolves b's gear and buff against the catalog.
//
// Precondition: b has passed Validate.
// Postcondition: err wraps ErrInvalidBuild (and the underlying
// inventory.ErrItemNotFound or buff.ErrUnknownBuff) when any reference is
// unresolved; no Loadout is returned in that case.
func NewLoadout(b *character.Build, items *inventory.Registry, buffs *buff.Registry) (*Loadout, error) {
	eq := inventory.NewEquipment()
	if err := eq.EquipNames(items, b.Gear); err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidBuild, b.ID, err)
	}
	def, err := buffs.Get(b.Buff)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidBuild, b.ID, err)
	}
	return &Loadout{
		Name:      b.ID,
		Equipment: eq,
		Style:     b.Style,
		Stat:      b.OffensiveStat,
		Buff:      def,
	}, nil
}

// WeaponName returns the equipped weapon's name, or "" when unarmed.
func (l *Loadout) WeaponName() string {
	if w := l.Equipment.Weapon(); w != nil {
		return w.Name
	}
	return ""
}

// Category returns the damage category of the equipped weapon. Unarmed
// loadouts attack as melee.
func (l *Loadout) Category() inventory.Category {
	if w := l.Equipment.Weapon(); w != nil && w.Category != inventory.CategoryNone {
		return w.Category
	}
	return inventory.CategoryMelee
}

// Speed returns the weapon's attack speed in ticks, or DefaultAttackSpeed
// when unarmed.
func (l *Loadout) Speed() int {
	if w := l.Equipment.Weapon(); w != nil && w.Speed > 0 {
		return w.Speed
	}
	return DefaultAttackSpeed
}

func (l *Loadout) buff() buff.Def {
	if l.Buff == nil {
		return buff.Def{}
	}
	return *l.Buff
}
