package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

// DefaultMaxTicks bounds an encounter when no cutoff is configured.
const DefaultMaxTicks = 10000

// Result is the terminal outcome of an encounter.
type Result string

const (
	ResultPhaseEnded Result = "phase_ended"
	ResultDefeated   Result = "defeated"
	ResultWipe       Result = "wipe"
	ResultTimeout    Result = "timeout"
)

// Participant pairs an actor with the strategy that drives it.
type Participant struct {
	Actor    *Actor
	Strategy TickStrategy
}

// Outcome summarises a finished encounter.
type Outcome struct {
	Result     Result
	Ticks      int
	Names      []string
	Damage     []int
	BossHP     int
	BossBaseHP int
	Phase      int
	Spawns     []SpawnRecord
}

// TotalDamage returns the damage dealt by every participant.
func (o Outcome) TotalDamage() int {
	total := 0
	for _, d := range o.Damage {
		total += d
	}
	return total
}

// Option configures an Encounter.
type Option func(*Encounter)

// WithSink routes events to sink.
func WithSink(sink EventSink) Option {
	return func(e *Encounter) { e.sink = sink }
}

// WithMaxTicks sets the tick cutoff. Values below 1 keep the default.
func WithMaxTicks(n int) Option {
	return func(e *Encounter) {
		if n > 0 {
			e.maxTicks = n
		}
	}
}

// Encounter drives participants against a boss one tick at a time. An
// Encounter is owned by a single goroutine.
type Encounter struct {
	boss         *Boss
	participants []*Participant
	resolver     *Resolver
	src          dice.Source
	sink         EventSink
	maxTicks     int

	tick   int
	damage []int
	result Result
}

// NewEncounter creates an encounter.
//
// Precondition: boss and every participant's Actor and Strategy are non-nil;
// src is the trial's random source.
func NewEncounter(boss *Boss, participants []*Participant, src dice.Source, opts ...Option) *Encounter {
	e := &Encounter{
		boss:         boss,
		participants: participants,
		resolver:     NewResolver(src),
		src:          src,
		sink:         NopSink{},
		maxTicks:     DefaultMaxTicks,
		damage:       make([]int, len(participants)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Tick returns the number of ticks elapsed.
func (e *Encounter) Tick() int { return e.tick }

// Done reports whether the encounter has reached a terminal outcome.
func (e *Encounter) Done() bool { return e.result != "" }

// Run steps until a terminal outcome.
//
// Postcondition: returns an error wrapping ErrTrialTimeout iff the cutoff was
// reached; the Outcome is populated in every case.
func (e *Encounter) Run() (Outcome, error) {
	for !e.Done() {
		e.Step()
	}
	out := e.Outcome()
	if out.Result == ResultTimeout {
		return out, fmt.Errorf("%w after %d ticks", ErrTrialTimeout, out.Ticks)
	}
	return out, nil
}

// Outcome returns the current summary.
func (e *Encounter) Outcome() Outcome {
	names := make([]string, len(e.participants))
	for i, p := range e.participants {
		names[i] = p.Actor.Name
	}
	return Outcome{
		Result:     e.result,
		Ticks:      e.tick,
		Names:      names,
		Damage:     append([]int(nil), e.damage...),
		BossHP:     e.boss.HP(),
		BossBaseHP: e.boss.BaseHP(),
		Phase:      e.boss.Phase(),
		Spawns:     e.boss.Spawns(),
	}
}

// Step runs one tick: participant attacks in order, per-actor ticks, the boss
// step, then the tick counter. Processing of further participants stops the
// moment the boss leaves the active state; the terminating tick counts.
func (e *Encounter) Step() {
	if e.Done() {
		return
	}
	attacking := e.boss.Attacking()
	for i, p := range e.participants {
		if !e.boss.Active() {
			break
		}
		if !p.Actor.Alive() || p.Actor.Cooldown() > 0 {
			continue
		}
		e.act(i, p, attacking)
	}
	for _, p := range e.participants {
		p.Actor.Tick()
	}
	if e.boss.Active() {
		e.bossTurn()
	}
	e.tick++
	e.settle()
}

func (e *Encounter) act(i int, p *Participant, attacking bool) {
	a := p.Actor
	d := p.Strategy.Decide(TickContext{
		Tick:           e.tick,
		Actor:          a.Name,
		BossAttacking:  attacking,
		Cooldown:       a.Cooldown(),
		SpecialEnergy:  a.SpecialEnergy(),
		HP:             a.HP(),
		BossHP:         e.boss.HP(),
		BossBaseHP:     e.boss.BaseHP(),
		Phase:          e.boss.Phase(),
		VengeanceArmed: a.VengeanceArmed(),
	})
	if d.Vengeance {
		a.ArmVengeance()
	}
	switch d.Action {
	case ActionDelay:
		a.Delay(max(d.Delay, 1))
		e.emit(Event{Type: EventDelay, Actor: a.Name, Amount: max(d.Delay, 1)})
		return
	case ActionSwap:
		if a.useAlternate() {
			defer a.restore()
		}
	}
	e.attack(i, a)
}

func (e *Encounter) attack(i int, a *Actor) {
	ok, thrall := a.Attack()
	if !ok {
		return
	}
	if thrall != nil {
		e.damageBoss(i, thrall.Total())
		e.emit(Event{Type: EventThrall, Actor: a.Name, Amount: thrall.Total(), Detail: thrall.String()})
		if !e.boss.Active() {
			return
		}
	}
	res, err := e.resolver.Resolve(a, e.boss)
	if err != nil {
		e.emit(Event{Type: EventError, Actor: a.Name, Detail: err.Error()})
		return
	}
	dmg := res.Damage()
	typ := EventAttack
	if !res.Landed() {
		typ = EventMiss
	}
	e.damageBoss(i, dmg)
	e.emit(Event{Type: typ, Actor: a.Name, Amount: dmg, Detail: a.WeaponName()})
}

// damageBoss credits participant i and applies amount to the boss. Nothing is
// credited once the boss has left the active state.
func (e *Encounter) damageBoss(i, amount int) bool {
	if !e.boss.Active() {
		return false
	}
	e.damage[i] += amount
	e.applyToBoss(e.boss.ApplyDamage(amount))
	return true
}

func (e *Encounter) applyToBoss(changes []PhaseChange) {
	for _, c := range changes {
		e.emit(Event{Type: EventPhase, Phase: c.Phase})
		if c.Spawn != nil {
			e.emit(Event{Type: EventSpawn, Phase: c.Phase, Amount: len(c.Spawn.Positions), Detail: fmt.Sprint(c.Spawn.Positions)})
		}
	}
}

func (e *Encounter) bossTurn() {
	turn := e.boss.Step()
	if turn.Attack == nil {
		return
	}
	e.emit(Event{Type: EventBossAttack, Detail: turn.Attack.Kind})
	if turn.SelfDamage > 0 {
		e.emit(Event{Type: EventSelfDamage, Amount: turn.SelfDamage, Detail: turn.Attack.Kind})
		e.applyToBoss(turn.Changes)
	}
	if turn.Attack.MaxHit <= 0 {
		return
	}
	i, target := e.randomLiving()
	if target == nil {
		return
	}
	res, err := e.resolver.Resolve(bossAttack{boss: e.boss, def: turn.Attack}, target)
	if err != nil {
		e.emit(Event{Type: EventError, Actor: target.Name, Detail: err.Error()})
		return
	}
	dmg := res.Damage()
	reflected := target.TakeDamage(dmg)
	e.emit(Event{Type: EventBossAttack, Actor: target.Name, Amount: dmg, Detail: turn.Attack.Kind})
	if reflected > 0 && e.damageBoss(i, reflected) {
		e.emit(Event{Type: EventReflect, Actor: target.Name, Amount: reflected})
	}
}

// randomLiving picks a living participant uniformly.
func (e *Encounter) randomLiving() (int, *Actor) {
	var idx []int
	for i, p := range e.participants {
		if p.Actor.Alive() {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1, nil
	}
	i := idx[e.src.Intn(len(idx))]
	return i, e.participants[i].Actor
}

// settle records a terminal result once one is reached.
func (e *Encounter) settle() {
	switch e.boss.State() {
	case BossPhaseEnded:
		e.finish(ResultPhaseEnded, EventPhaseEnd)
		return
	case BossDefeated:
		e.finish(ResultDefeated, EventDefeat)
		return
	}
	living := false
	for _, p := range e.participants {
		if p.Actor.Alive() {
			living = true
			break
		}
	}
	if !living {
		e.finish(ResultWipe, EventWipe)
		return
	}
	if e.tick >= e.maxTicks {
		e.finish(ResultTimeout, EventTimeout)
	}
}

func (e *Encounter) finish(r Result, typ EventType) {
	e.result = r
	e.emit(Event{Type: typ, Amount: e.tick})
}

func (e *Encounter) emit(ev Event) {
	ev.Tick = e.tick
	ev.BossHP = e.boss.HP()
	if ev.Phase == 0 {
		ev.Phase = e.boss.Phase()
	}
	e.sink.Emit(ev)
}

// IsTimeout reports whether err marks an encounter that hit its tick cutoff.
func IsTimeout(err error) bool { return errors.Is(err, ErrTrialTimeout) }
