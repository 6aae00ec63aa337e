// Package character defines combat levels and the named build presets that
// actors are constructed from.
package character

import (
	"fmt"
	"strings"
)

// Levels holds the base skill levels of a combatant. Levels are immutable once
// an actor has been constructed; gear and buffs only ever derive from them.
type Levels struct {
	Attack    int `yaml:"attack"`
	Strength  int `yaml:"strength"`
	Defence   int `yaml:"defence"`
	Magic     int `yaml:"magic"`
	Ranged    int `yaml:"ranged"`
	Hitpoints int `yaml:"hitpoints"`
}

// Validate reports every level outside [1, 150].
func (l Levels) Validate() error {
	var bad []string
	check := func(name string, v int) {
		if v < 1 || v > 150 {
			bad = append(bad, fmt.Sprintf("%s=%d", name, v))
		}
	}
	check("attack", l.Attack)
	check("strength", l.Strength)
	check("defence", l.Defence)
	check("magic", l.Magic)
	check("ranged", l.Ranged)
	check("hitpoints", l.Hitpoints)
	if len(bad) > 0 {
		return fmt.Errorf("levels out of range [1,150]: %s", strings.Join(bad, ", "))
	}
	return nil
}

// Style is the selected attack style. It contributes invisible level bonuses
// to accuracy and max hit.
type Style string

const (
	StyleAccurate   Style = "Accurate"
	StyleAggressive Style = "Aggressive"
	StyleDefensive  Style = "Defensive"
	StyleControlled Style = "Controlled"
	StyleRapid      Style = "Rapid"
	StyleLongrange  Style = "Longrange"
)

var validStyles = map[Style]bool{
	StyleAccurate:   true,
	StyleAggressive: true,
	StyleDefensive:  true,
	StyleControlled: true,
	StyleRapid:      true,
	StyleLongrange:  true,
}

// Valid reports whether s is a known attack style.
func (s Style) Valid() bool { return validStyles[s] }

// Stat selects which offensive bonus a melee attack draws on. Magic and ranged
// builds carry their own type for completeness; the weapon category decides
// which roll is used for them.
type Stat string

const (
	StatStab   Stat = "stab"
	StatSlash  Stat = "slash"
	StatCrush  Stat = "crush"
	StatMagic  Stat = "magic"
	StatRanged Stat = "ranged"
)

var validStats = map[Stat]bool{
	StatStab:   true,
	StatSlash:  true,
	StatCrush:  true,
	StatMagic:  true,
	StatRanged: true,
}

// Valid reports whether s is a known offensive stat.
func (s Stat) Valid() bool { return validStats[s] }

// Melee reports whether s selects a melee defence rating.
func (s Stat) Melee() bool {
	return s == StatStab || s == StatSlash || s == StatCrush
}
