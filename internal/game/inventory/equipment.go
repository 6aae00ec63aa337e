package inventory

import (
	"errors"
	"fmt"
)

// ErrSlotEmpty is returned when unequipping a slot that holds nothing.
var ErrSlotEmpty = errors.New("slot is empty")

// ErrInvalidSlot is returned for a slot outside AllSlots.
var ErrInvalidSlot = errors.New("invalid slot")

// Totals are the running sums of every equipped item's bonuses.
type Totals struct {
	Offensive StatBlock
	Defensive StatBlock
	Bonuses   Bonuses
}

func (t Totals) apply(d *ItemDef, sign int) Totals {
	return Totals{
		Offensive: t.Offensive.add(d.Offensive, sign),
		Defensive: t.Defensive.add(d.Defensive, sign),
		Bonuses:   t.Bonuses.add(d.Bonuses, sign),
	}
}

// Equipment holds the item in each slot and the running totals derived from them.
//
// Invariant: totals == sum of bonuses over all occupied slots. Equip and
// Unequip of the same item are exact inverses on totals.
// Equipment is not safe for concurrent use; each actor owns its own.
type Equipment struct {
	slots  map[Slot]*ItemDef
	totals Totals
}

// NewEquipment returns an empty Equipment.
//
// Postcondition: no slots occupied; Totals() is the zero value.
func NewEquipment() *Equipment {
	return &Equipment{slots: make(map[Slot]*ItemDef)}
}

// Equip places def into its slot, unequipping any prior occupant first.
//
// Precondition: def must have passed Validate.
// Postcondition: Item(def.Slot) == def; returns the displaced item or nil.
func (e *Equipment) Equip(def *ItemDef) (*ItemDef, error) {
	if def == nil {
		return nil, errors.New("inventory: Equipment.Equip: def must not be nil")
	}
	if !def.Slot.Valid() {
		return nil, fmt.Errorf("inventory: Equipment.Equip: %w %q", ErrInvalidSlot, def.Slot)
	}
	var prior *ItemDef
	if old, ok := e.slots[def.Slot]; ok {
		prior = old
		e.totals = e.totals.apply(old, -1)
	}
	e.slots[def.Slot] = def
	e.totals = e.totals.apply(def, 1)
	return prior, nil
}

// Unequip removes the item in slot.
//
// Postcondition: Item(slot) == nil; returns ErrSlotEmpty and leaves state
// unchanged when nothing was equipped there.
func (e *Equipment) Unequip(slot Slot) (*ItemDef, error) {
	old, ok := e.slots[slot]
	if !ok {
		return nil, fmt.Errorf("inventory: Equipment.Unequip %q: %w", slot, ErrSlotEmpty)
	}
	delete(e.slots, slot)
	e.totals = e.totals.apply(old, -1)
	return old, nil
}

// Item returns the item in slot, or nil.
func (e *Equipment) Item(slot Slot) *ItemDef { return e.slots[slot] }

// Weapon returns the item in the weapon slot, or nil when unarmed.
func (e *Equipment) Weapon() *ItemDef { return e.slots[SlotWeapon] }

// Totals returns the current running totals.
func (e *Equipment) Totals() Totals { return e.totals }

// Has reports whether an item named name is equipped in any slot.
func (e *Equipment) Has(name string) bool {
	for _, d := range e.slots {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Equipped returns the occupied slots in AllSlots order.
func (e *Equipment) Equipped() []*ItemDef {
	out := make([]*ItemDef, 0, len(e.slots))
	for _, s := range AllSlots {
		if d, ok := e.slots[s]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Clone returns an independent copy sharing the read-only ItemDefs.
func (e *Equipment) Clone() *Equipment {
	c := &Equipment{slots: make(map[Slot]*ItemDef, len(e.slots)), totals: e.totals}
	for s, d := range e.slots {
		c.slots[s] = d
	}
	return c
}

// EquipNames looks up every name in reg and equips them in order. Every name is
// resolved before any slot changes, so an unknown name leaves e untouched.
//
// Postcondition: on error wrapping ErrItemNotFound, e is unchanged.
func (e *Equipment) EquipNames(reg *Registry, names []string) error {
	defs := make([]*ItemDef, 0, len(names))
	for _, n := range names {
		d, err := reg.Item(n)
		if err != nil {
			return err
		}
		defs = append(defs, d)
	}
	for _, d := range defs {
		if _, err := e.Equip(d); err != nil {
			return err
		}
	}
	return nil
}
