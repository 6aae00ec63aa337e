// Package trial compiles scenarios against the content catalog and runs them
// as many independent, seeded trials across a worker pool.
package trial

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/raidsim/internal/game/buff"
	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/inventory"
	"github.com/cory-johannsen/raidsim/internal/game/npc"
	"github.com/cory-johannsen/raidsim/internal/scripting"
)

// ContentPaths locates the content files loaded by LoadContent.
type ContentPaths struct {
	Items     string
	Builds    string
	Buffs     string
	Bosses    string
	Scenarios string
	// Scripts is optional; empty means no Lua strategies are available.
	Scripts string
}

// Content is the read-only catalog every trial is built from. It is shared
// across concurrent trials and must not be mutated after loading.
type Content struct {
	Items     *inventory.Registry
	Buffs     *buff.Registry
	Builds    character.Builds
	Bosses    map[string]*npc.Template
	Scenarios map[string]*Scenario
	Scripts   *scripting.Manager
}

// LoadContent reads and validates every content source.
//
// Precondition: logger must be non-nil.
// Postcondition: returns a fully populated Content or the first load error.
func LoadContent(paths ContentPaths, instLimit int, logger *zap.Logger) (*Content, error) {
	items, err := inventory.LoadItems(paths.Items)
	if err != nil {
		return nil, err
	}
	reg, err := inventory.NewRegistry(items)
	if err != nil {
		return nil, fmt.Errorf("building item registry: %w", err)
	}
	buffs, err := buff.LoadFile(paths.Buffs)
	if err != nil {
		return nil, err
	}
	builds, err := character.LoadBuilds(paths.Builds)
	if err != nil {
		return nil, err
	}
	bosses, err := npc.LoadTemplates(paths.Bosses)
	if err != nil {
		return nil, err
	}
	scenarios, err := LoadScenarios(paths.Scenarios)
	if err != nil {
		return nil, err
	}
	scripts := scripting.NewManager(instLimit, logger)
	if paths.Scripts != "" {
		if err := scripts.LoadDir(paths.Scripts); err != nil {
			return nil, err
		}
	}

	logger.Info("content loaded",
		zap.Int("items", reg.Len()),
		zap.Int("builds", len(builds)),
		zap.Strings("buffs", buffs.Names()),
		zap.Strings("bosses", npc.IDs(bosses)),
		zap.Int("scenarios", len(scenarios)),
		zap.Strings("scripts", scripts.Names()),
	)
	return &Content{
		Items:     reg,
		Buffs:     buffs,
		Builds:    builds,
		Bosses:    bosses,
		Scenarios: scenarios,
		Scripts:   scripts,
	}, nil
}
