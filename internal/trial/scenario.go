package trial

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Strategy kinds accepted in scenario files.
const (
	StrategyAttack = "attack"
	StrategySwap   = "swap_on_boss_attack"
	StrategyDelay  = "delay_on_boss_attack"
	StrategyLua    = "lua"
)

// StrategySpec selects the tick strategy driving one participant.
type StrategySpec struct {
	// Kind is one of attack, swap_on_boss_attack, delay_on_boss_attack or lua.
	// Empty means attack.
	Kind string `yaml:"kind"`
	// Ticks is the delay length for delay_on_boss_attack.
	Ticks int `yaml:"ticks"`
	// Script names a loaded Lua script for kind lua.
	Script string `yaml:"script"`
}

// ParticipantSpec declares one actor of a scenario.
type ParticipantSpec struct {
	Name string `yaml:"name"`
	// Build is the primary loadout preset.
	Build string `yaml:"build"`
	// AltBuild is the loadout used by swap decisions.
	AltBuild string `yaml:"alt_build"`
	// Thrall overrides the build's thrall flag when set.
	Thrall   *bool        `yaml:"thrall"`
	Strategy StrategySpec `yaml:"strategy"`
}

// Scenario is a named encounter setup: one boss at a team scale and an
// ordered participant list. Participant order is the per-tick action order.
type Scenario struct {
	ID           string            `yaml:"id"`
	Description  string            `yaml:"description"`
	Boss         string            `yaml:"boss"`
	Scale        int               `yaml:"scale"`
	MaxTicks     int               `yaml:"max_ticks"`
	Participants []ParticipantSpec `yaml:"participants"`
}

// Validate checks the scenario's structure. References to builds, bosses and
// scripts are resolved by Compile.
//
// Postcondition: returns nil iff the scenario is structurally valid.
func (s *Scenario) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Boss == "" {
		errs = append(errs, errors.New("boss must not be empty"))
	}
	if s.Scale < 1 {
		errs = append(errs, fmt.Errorf("scale must be >= 1, got %d", s.Scale))
	}
	if s.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("max_ticks must be >= 0, got %d", s.MaxTicks))
	}
	if len(s.Participants) == 0 {
		errs = append(errs, errors.New("at least one participant is required"))
	}
	seen := make(map[string]bool, len(s.Participants))
	for i := range s.Participants {
		p := &s.Participants[i]
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("participant %d: name must not be empty", i))
		} else if seen[p.Name] {
			errs = append(errs, fmt.Errorf("participant %q is declared twice", p.Name))
		}
		seen[p.Name] = true
		if p.Build == "" {
			errs = append(errs, fmt.Errorf("participant %q: build must not be empty", p.Name))
		}
		if p.Strategy.Kind == "" {
			p.Strategy.Kind = StrategyAttack
		}
		switch p.Strategy.Kind {
		case StrategyAttack, StrategyDelay:
		case StrategySwap:
			if p.AltBuild == "" {
				errs = append(errs, fmt.Errorf("participant %q: %s requires alt_build", p.Name, StrategySwap))
			}
		case StrategyLua:
			if p.Strategy.Script == "" {
				errs = append(errs, fmt.Errorf("participant %q: lua strategy requires script", p.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("participant %q: unknown strategy kind %q", p.Name, p.Strategy.Kind))
		}
		if p.Strategy.Ticks < 0 {
			errs = append(errs, fmt.Errorf("participant %q: strategy ticks must be >= 0", p.Name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scenario %q: %w", s.ID, errors.Join(errs...))
	}
	return nil
}

// LoadScenarios reads and validates the scenarios at path.
func LoadScenarios(path string) (map[string]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScenarios: cannot read file %q: %w", path, err)
	}
	return ParseScenarios(data)
}

// ParseScenarios decodes and validates YAML scenarios keyed by ID.
func ParseScenarios(data []byte) (map[string]*Scenario, error) {
	var doc struct {
		Scenarios []*Scenario `yaml:"scenarios"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("LoadScenarios: cannot parse scenarios: %w", err)
	}
	out := make(map[string]*Scenario, len(doc.Scenarios))
	for _, s := range doc.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("LoadScenarios: %w", err)
		}
		if _, dup := out[s.ID]; dup {
			return nil, fmt.Errorf("LoadScenarios: duplicate scenario %q", s.ID)
		}
		out[s.ID] = s
	}
	return out, nil
}

// ScenarioIDs returns the scenario IDs in lexical order.
func ScenarioIDs(scenarios map[string]*Scenario) []string {
	ids := make([]string, 0, len(scenarios))
	for id := range scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
