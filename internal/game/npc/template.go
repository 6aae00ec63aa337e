// Package npc provides boss template definitions loaded from YAML.
package npc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Levels holds the boss skill levels used for its defence and attack rolls.
type Levels struct {
	Attack  int `yaml:"attack"`
	Defence int `yaml:"defence"`
	Magic   int `yaml:"magic"`
	Ranged  int `yaml:"ranged"`
}

// Defences holds the boss's defensive bonus per attack type.
type Defences struct {
	Stab   int `yaml:"stab"`
	Slash  int `yaml:"slash"`
	Crush  int `yaml:"crush"`
	Magic  int `yaml:"magic"`
	Ranged int `yaml:"ranged"`
}

// Spawn describes the adds created when a phase begins. CountByScale
// overrides Count for the listed party sizes.
type Spawn struct {
	Kind         string      `yaml:"kind"`
	Count        int         `yaml:"count"`
	CountByScale map[int]int `yaml:"count_by_scale"`
}

// CountFor returns the number of adds spawned at the given scale.
func (s *Spawn) CountFor(scale int) int {
	if s == nil {
		return 0
	}
	if n, ok := s.CountByScale[scale]; ok {
		return n
	}
	return s.Count
}

// MaxCount returns the largest count across every scale.
func (s *Spawn) MaxCount() int {
	if s == nil {
		return 0
	}
	n := s.Count
	for _, c := range s.CountByScale {
		n = max(n, c)
	}
	return n
}

// Phase is a health-fraction threshold that advances the boss phase index
// when crossed.
type Phase struct {
	Threshold float64 `yaml:"threshold"`
	Spawn     *Spawn  `yaml:"spawn"`
}

// AttackDef is one entry kind in the boss's attack cycle.
type AttackDef struct {
	Kind string `yaml:"kind"`
	// Category is melee, ranged or magic. It selects the target's defence roll.
	Category string `yaml:"category"`
	// MaxHit of 0 means the attack deals no damage to actors.
	MaxHit   int `yaml:"max_hit"`
	Accuracy int `yaml:"accuracy"`
	// SelfDamage is subtracted from the boss's own hit points when used.
	SelfDamage int `yaml:"self_damage"`
}

// Template defines a boss loaded from YAML.
type Template struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	DefaultHP int         `yaml:"default_hp"`
	HPByScale map[int]int `yaml:"hp_by_scale"`
	Levels    Levels      `yaml:"levels"`
	Defences  Defences    `yaml:"defences"`
	Phases    []Phase     `yaml:"phases"`
	// ExitThreshold ends the encounter when hp <= floor(base_hp * ExitThreshold).
	// Zero means only defeat ends it.
	ExitThreshold  float64      `yaml:"exit_threshold"`
	AttackInterval int          `yaml:"attack_interval"`
	Attacks        []*AttackDef `yaml:"attacks"`
	// Pattern is the repeating attack cycle, naming Attacks by kind.
	Pattern        []string `yaml:"pattern"`
	SpawnPositions []string `yaml:"spawn_positions"`
}

// HP returns the base hit points for a party of the given scale.
func (t *Template) HP(scale int) int {
	if hp, ok := t.HPByScale[scale]; ok {
		return hp
	}
	return t.DefaultHP
}

// Attack returns the AttackDef named kind, or nil.
func (t *Template) Attack(kind string) *AttackDef {
	for _, a := range t.Attacks {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

var validAttackCategories = map[string]bool{"melee": true, "ranged": true, "magic": true}

// Validate checks that the template satisfies its invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, DefaultHP >= 1,
// phase thresholds are strictly decreasing within (0,1), spawn counts are
// non-negative at every scale, ExitThreshold is in
// [0,1), AttackInterval >= 1, and every pattern entry names a defined attack.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("boss template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("boss template %q: name must not be empty", t.ID)
	}
	if t.DefaultHP < 1 {
		return fmt.Errorf("boss template %q: default_hp must be >= 1", t.ID)
	}
	for scale, hp := range t.HPByScale {
		if hp < 1 {
			return fmt.Errorf("boss template %q: hp_by_scale[%d] must be >= 1", t.ID, scale)
		}
	}
	prev := 1.0
	for i, p := range t.Phases {
		if p.Threshold <= 0 || p.Threshold >= prev {
			return fmt.Errorf("boss template %q: phase %d threshold %v must be in (0, %v)", t.ID, i, p.Threshold, prev)
		}
		prev = p.Threshold
		if p.Spawn != nil {
			if p.Spawn.Count < 0 {
				return fmt.Errorf("boss template %q: phase %d spawn count must be >= 0", t.ID, i)
			}
			for scale, n := range p.Spawn.CountByScale {
				if n < 0 {
					return fmt.Errorf("boss template %q: phase %d count_by_scale[%d] must be >= 0", t.ID, i, scale)
				}
			}
		}
		if n := p.Spawn.MaxCount(); n > len(t.SpawnPositions) {
			return fmt.Errorf("boss template %q: phase %d spawns %d adds but only %d positions exist", t.ID, i, n, len(t.SpawnPositions))
		}
	}
	if t.ExitThreshold < 0 || t.ExitThreshold >= 1 {
		return fmt.Errorf("boss template %q: exit_threshold must be in [0,1)", t.ID)
	}
	if t.AttackInterval < 1 {
		return fmt.Errorf("boss template %q: attack_interval must be >= 1", t.ID)
	}
	if len(t.Pattern) == 0 {
		return fmt.Errorf("boss template %q: pattern must not be empty", t.ID)
	}
	for _, a := range t.Attacks {
		if !validAttackCategories[a.Category] {
			return fmt.Errorf("boss template %q: attack %q category must be melee, ranged or magic", t.ID, a.Kind)
		}
		if a.MaxHit < 0 || a.SelfDamage < 0 {
			return fmt.Errorf("boss template %q: attack %q max_hit and self_damage must be >= 0", t.ID, a.Kind)
		}
	}
	for _, kind := range t.Pattern {
		if t.Attack(kind) == nil {
			return fmt.Errorf("boss template %q: pattern references unknown attack %q", t.ID, kind)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single boss template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse, validate
// or duplicate-ID failure; on error, the partial result is discarded.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading boss dir %q: %w", dir, err)
	}

	templates := make(map[string]*Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := templates[tmpl.ID]; dup {
			return nil, fmt.Errorf("loading %q: duplicate boss id %q", path, tmpl.ID)
		}
		templates[tmpl.ID] = tmpl
	}
	return templates, nil
}

// IDs returns the keys of templates in lexical order.
func IDs(templates map[string]*Template) []string {
	out := make([]string, 0, len(templates))
	for id := range templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
