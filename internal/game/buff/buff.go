// Package buff defines prayer-style modifiers that scale an actor's derived
// combat levels. At most one buff is active per actor.
package buff

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownBuff is returned when a build names a buff that is not registered.
var ErrUnknownBuff = errors.New("unknown buff")

// None is the name that resolves to no active buff.
const None = "None"

// Def is the static definition of a buff. Level bonuses are fractions
// (0.20 == +20%); MagicDamagePercent is whole percent points added to the
// magic damage multiplier.
type Def struct {
	Name                string  `yaml:"name"`
	AttackBonus         float64 `yaml:"attack_bonus"`
	StrengthBonus       float64 `yaml:"strength_bonus"`
	DefenceBonus        float64 `yaml:"defence_bonus"`
	RangedBonus         float64 `yaml:"ranged_bonus"`
	RangedStrengthBonus float64 `yaml:"ranged_strength_bonus"`
	MagicBonus          float64 `yaml:"magic_bonus"`
	MagicDamagePercent  float64 `yaml:"magic_damage_percent"`
}

// Validate checks that the buff has a name and no negative modifiers.
func (d *Def) Validate() error {
	if d.Name == "" {
		return errors.New("buff name must not be empty")
	}
	for field, v := range map[string]float64{
		"attack_bonus":          d.AttackBonus,
		"strength_bonus":        d.StrengthBonus,
		"defence_bonus":         d.DefenceBonus,
		"ranged_bonus":          d.RangedBonus,
		"ranged_strength_bonus": d.RangedStrengthBonus,
		"magic_bonus":           d.MagicBonus,
		"magic_damage_percent":  d.MagicDamagePercent,
	} {
		if v < 0 {
			return fmt.Errorf("buff %q: %s must be >= 0, got %v", d.Name, field, v)
		}
	}
	return nil
}

// Registry holds buff definitions keyed by name. It is read-only after
// construction.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry indexes defs by name.
//
// Postcondition: returns an error on an invalid or duplicate definition.
func NewRegistry(defs []*Def) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Def, len(defs))}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("buff %q registered twice", d.Name)
		}
		r.defs[d.Name] = d
	}
	return r, nil
}

// Default returns the built-in prayer set.
func Default() *Registry {
	r, err := NewRegistry([]*Def{
		{Name: "Piety", AttackBonus: 0.20, StrengthBonus: 0.23, DefenceBonus: 0.25},
		{Name: "Chivalry", AttackBonus: 0.15, StrengthBonus: 0.18, DefenceBonus: 0.20},
		{Name: "Rigour", RangedBonus: 0.20, RangedStrengthBonus: 0.23, DefenceBonus: 0.25},
		{Name: "Augury", MagicBonus: 0.25, MagicDamagePercent: 4, DefenceBonus: 0.25},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// Get resolves name to its Def. An empty name or None resolves to (nil, nil).
//
// Postcondition: err wraps ErrUnknownBuff iff name is neither None nor registered.
func (r *Registry) Get(name string) (*Def, error) {
	if name == "" || name == None {
		return nil, nil
	}
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBuff, name)
	}
	return d, nil
}

// Names returns every registered buff name in lexical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for n := range r.defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// LoadFile reads buff definitions from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("buff.LoadFile: reading %s: %w", path, err)
	}
	var doc struct {
		Buffs []*Def `yaml:"buffs"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("buff.LoadFile: parsing %s: %w", path, err)
	}
	return NewRegistry(doc.Buffs)
}
