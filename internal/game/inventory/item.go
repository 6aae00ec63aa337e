// Package inventory provides the equipment catalog, slot-keyed equipment sets,
// and the running stat totals derived from them.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Slot identifies an equipment slot. Each slot holds at most one item.
type Slot string

const (
	SlotHead   Slot = "head"
	SlotCape   Slot = "cape"
	SlotNeck   Slot = "neck"
	SlotAmmo   Slot = "ammo"
	SlotWeapon Slot = "weapon"
	SlotBody   Slot = "body"
	SlotShield Slot = "shield"
	SlotLegs   Slot = "legs"
	SlotHands  Slot = "hands"
	SlotFeet   Slot = "feet"
	SlotRing   Slot = "ring"
)

// AllSlots lists every valid slot in display order.
var AllSlots = []Slot{
	SlotHead, SlotCape, SlotNeck, SlotAmmo, SlotWeapon, SlotBody,
	SlotShield, SlotLegs, SlotHands, SlotFeet, SlotRing,
}

// Valid reports whether s is one of AllSlots.
func (s Slot) Valid() bool {
	for _, v := range AllSlots {
		if v == s {
			return true
		}
	}
	return false
}

// Category is the damage category an item deals when it occupies the weapon slot.
type Category string

const (
	CategoryNone   Category = "none"
	CategoryMelee  Category = "melee"
	CategoryRanged Category = "ranged"
	CategoryMagic  Category = "magic"
)

// validCategories is the set of valid ItemDef categories.
var validCategories = map[Category]bool{
	CategoryNone:   true,
	CategoryMelee:  true,
	CategoryRanged: true,
	CategoryMagic:  true,
}

// StatBlock holds one value per attack type. It is used for both offensive
// (accuracy) and defensive bonuses.
type StatBlock struct {
	Stab   int `yaml:"stab"`
	Slash  int `yaml:"slash"`
	Crush  int `yaml:"crush"`
	Magic  int `yaml:"magic"`
	Ranged int `yaml:"ranged"`
}

func (b StatBlock) add(o StatBlock, sign int) StatBlock {
	return StatBlock{
		Stab:   b.Stab + sign*o.Stab,
		Slash:  b.Slash + sign*o.Slash,
		Crush:  b.Crush + sign*o.Crush,
		Magic:  b.Magic + sign*o.Magic,
		Ranged: b.Ranged + sign*o.Ranged,
	}
}

// Bonuses holds the strength-type bonuses of an item. MagicStr is expressed in
// tenths of a percent (50 == +5.0% magic damage).
type Bonuses struct {
	Str       int `yaml:"str"`
	RangedStr int `yaml:"ranged_str"`
	MagicStr  int `yaml:"magic_str"`
	Prayer    int `yaml:"prayer"`
}

func (b Bonuses) add(o Bonuses, sign int) Bonuses {
	return Bonuses{
		Str:       b.Str + sign*o.Str,
		RangedStr: b.RangedStr + sign*o.RangedStr,
		MagicStr:  b.MagicStr + sign*o.MagicStr,
		Prayer:    b.Prayer + sign*o.Prayer,
	}
}

// ItemDef defines the static properties of an equippable item loaded from YAML.
type ItemDef struct {
	Name      string    `yaml:"name"`
	Slot      Slot      `yaml:"slot"`
	Category  Category  `yaml:"category"`
	Speed     int       `yaml:"speed"` // ticks between attacks; weapon slot only
	Offensive StatBlock `yaml:"offensive"`
	Defensive StatBlock `yaml:"defensive"`
	Bonuses   Bonuses   `yaml:"bonuses"`
}

// Validate checks that the ItemDef satisfies its invariants. An empty category
// is accepted; ParseItems stores it as CategoryNone.
//
// Postcondition: returns nil iff all fields are valid; d is not modified.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !d.Slot.Valid() {
		errs = append(errs, fmt.Errorf("slot %q is not a valid slot", d.Slot))
	}
	if d.Category != "" && !validCategories[d.Category] {
		errs = append(errs, fmt.Errorf("category must be one of melee, ranged, magic, none; got %q", d.Category))
	}
	if d.Speed < 0 {
		errs = append(errs, errors.New("speed must be >= 0"))
	}
	if d.Slot == SlotWeapon && d.Speed == 0 {
		errs = append(errs, errors.New("weapon speed must be > 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %v", d.Name, errs)
	}
	return nil
}

// LoadItems reads a YAML list of item records from path and validates each one.
//
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(path string) ([]*ItemDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
	}
	return ParseItems(data)
}

// ParseItems decodes and validates a YAML list of item records.
func ParseItems(data []byte) ([]*ItemDef, error) {
	var doc struct {
		Items []*ItemDef `yaml:"items"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("LoadItems: cannot parse catalog: %w", err)
	}
	for _, d := range doc.Items {
		if d.Category == "" {
			d.Category = CategoryNone
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: %w", err)
		}
	}
	return doc.Items, nil
}
