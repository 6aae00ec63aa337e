package trial

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/raidsim/internal/game/character"
	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
	"github.com/cory-johannsen/raidsim/internal/game/npc"
	"github.com/cory-johannsen/raidsim/internal/scripting"
)

// ErrUnknownReference is returned when a scenario names a boss, build or
// script that is not loaded.
var ErrUnknownReference = errors.New("unknown reference")

// strategyFactory builds a fresh strategy for one trial. The returned close
// function releases any per-trial resources and may be nil.
type strategyFactory func(roller *dice.Roller) (combat.TickStrategy, func() error, error)

type plannedParticipant struct {
	name      string
	levels    character.Levels
	primary   *combat.Loadout
	alternate *combat.Loadout
	thrall    bool
	strategy  strategyFactory
}

// Plan is a scenario with every reference resolved. A Plan is immutable and
// shared by all trials of a run.
type Plan struct {
	Scenario     *Scenario
	boss         *npc.Template
	participants []plannedParticipant
}

// Compile resolves every build, item, buff, boss and script reference of s.
// Unresolvable gear or buffs surface as combat.ErrInvalidBuild before any
// trial runs.
//
// Precondition: s has passed Validate.
// Postcondition: returns a Plan or an error naming the first unresolved reference.
func Compile(s *Scenario, c *Content) (*Plan, error) {
	boss, ok := c.Bosses[s.Boss]
	if !ok {
		return nil, fmt.Errorf("scenario %q: boss %q: %w", s.ID, s.Boss, ErrUnknownReference)
	}
	p := &Plan{Scenario: s, boss: boss}
	for _, spec := range s.Participants {
		pp, err := compileParticipant(spec, c)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: participant %q: %w", s.ID, spec.Name, err)
		}
		p.participants = append(p.participants, pp)
	}
	return p, nil
}

func compileParticipant(spec ParticipantSpec, c *Content) (plannedParticipant, error) {
	build, ok := c.Builds.Get(spec.Build)
	if !ok {
		return plannedParticipant{}, fmt.Errorf("build %q: %w", spec.Build, ErrUnknownReference)
	}
	primary, err := combat.NewLoadout(build, c.Items, c.Buffs)
	if err != nil {
		return plannedParticipant{}, err
	}
	pp := plannedParticipant{
		name:    spec.Name,
		levels:  build.Levels,
		primary: primary,
		thrall:  build.Thrall,
	}
	if spec.Thrall != nil {
		pp.thrall = *spec.Thrall
	}
	if spec.AltBuild != "" {
		alt, ok := c.Builds.Get(spec.AltBuild)
		if !ok {
			return plannedParticipant{}, fmt.Errorf("alt_build %q: %w", spec.AltBuild, ErrUnknownReference)
		}
		if pp.alternate, err = combat.NewLoadout(alt, c.Items, c.Buffs); err != nil {
			return plannedParticipant{}, err
		}
	}
	pp.strategy, err = strategyFor(spec.Strategy, c.Scripts)
	if err != nil {
		return plannedParticipant{}, err
	}
	return pp, nil
}

func strategyFor(spec StrategySpec, scripts *scripting.Manager) (strategyFactory, error) {
	fixed := func(s combat.TickStrategy) strategyFactory {
		return func(*dice.Roller) (combat.TickStrategy, func() error, error) { return s, nil, nil }
	}
	switch spec.Kind {
	case StrategySwap:
		return fixed(combat.SwapOnBossAttack{}), nil
	case StrategyDelay:
		return fixed(combat.DelayOnBossAttack{Ticks: spec.Ticks}), nil
	case StrategyLua:
		if scripts == nil || !scripts.Has(spec.Script) {
			return nil, fmt.Errorf("script %q: %w", spec.Script, ErrUnknownReference)
		}
		return func(roller *dice.Roller) (combat.TickStrategy, func() error, error) {
			st, err := scripts.NewStrategy(spec.Script, roller)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		}, nil
	default:
		return fixed(combat.AlwaysAttack{}), nil
	}
}

// Names returns the participant names in action order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.participants))
	for i, pp := range p.participants {
		out[i] = pp.name
	}
	return out
}

// Boss returns the resolved boss template.
func (p *Plan) Boss() *npc.Template { return p.boss }

// instantiate builds fresh per-trial actors and strategies bound to roller.
//
// Postcondition: on error every strategy created so far has been closed.
func (p *Plan) instantiate(roller *dice.Roller) ([]*combat.Participant, func(), error) {
	var closers []func() error
	release := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	parts := make([]*combat.Participant, 0, len(p.participants))
	for _, pp := range p.participants {
		st, closeFn, err := pp.strategy(roller)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("participant %q: %w", pp.name, err)
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		a := combat.NewActor(pp.name, pp.levels, pp.primary, roller)
		a.SetAlternate(pp.alternate)
		if pp.thrall {
			a.SummonThrall()
		}
		parts = append(parts, &combat.Participant{Actor: a, Strategy: st})
	}
	return parts, release, nil
}
