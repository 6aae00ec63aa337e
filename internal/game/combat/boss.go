package combat

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/raidsim/internal/game/dice"
	"github.com/cory-johannsen/raidsim/internal/game/npc"
)

// BossState is the boss's position in its lifecycle.
type BossState int

const (
	// BossActive means hp > 0 and the tracked phase has not ended.
	BossActive BossState = iota
	// BossPhaseEnded means hp crossed the exit threshold.
	BossPhaseEnded
	// BossDefeated means hp reached zero.
	BossDefeated
)

// String returns a human-readable state label.
func (s BossState) String() string {
	switch s {
	case BossActive:
		return "active"
	case BossPhaseEnded:
		return "phase_ended"
	case BossDefeated:
		return "defeated"
	default:
		return "unknown"
	}
}

// SpawnRecord describes adds created when a phase begins. Spawns do not
// participate in damage math.
type SpawnRecord struct {
	Phase     int
	Tick      int
	Kind      string
	Positions []string
}

// PhaseChange reports one phase advance caused by a damage application.
type PhaseChange struct {
	Phase int
	Spawn *SpawnRecord
}

// BossTurn is the result of one boss state-machine step.
type BossTurn struct {
	// Attack is the pattern entry used this tick, or nil.
	Attack     *npc.AttackDef
	SelfDamage int
	Changes    []PhaseChange
}

// Boss is a live boss instance owned by a single trial.
//
// Invariant: Phase() never decreases; once State() leaves BossActive it never
// returns.
type Boss struct {
	tmpl   *npc.Template
	scale  int
	baseHP int
	hp     int
	// exitHP is the hp at or below which the phase ends; -1 disables it.
	exitHP int

	phase            int
	state            BossState
	ticksSinceAttack int
	patternPos       int
	tick             int

	src    dice.Source
	spawns []SpawnRecord
}

// NewBoss creates a boss at full hit points for the given party scale. src
// chooses spawn positions.
//
// Precondition: tmpl has passed Validate; src must not be nil.
// Postcondition: State() == BossActive; Phase() == 0; HP() == tmpl.HP(scale).
func NewBoss(tmpl *npc.Template, scale int, src dice.Source) *Boss {
	base := tmpl.HP(scale)
	exit := -1
	if tmpl.ExitThreshold > 0 {
		exit = int(math.Floor(float64(base) * tmpl.ExitThreshold))
	}
	return &Boss{
		tmpl:   tmpl,
		scale:  scale,
		baseHP: base,
		hp:     base,
		exitHP: exit,
		src:    src,
	}
}

// Name returns the template name.
func (b *Boss) Name() string { return b.tmpl.Name }

// HP returns current hit points.
func (b *Boss) HP() int { return b.hp }

// BaseHP returns the hit points the boss started with.
func (b *Boss) BaseHP() int { return b.baseHP }

// ExitHP returns the phase-exit hp threshold, or -1 when none is configured.
func (b *Boss) ExitHP() int { return b.exitHP }

// Phase returns the current phase index.
func (b *Boss) Phase() int { return b.phase }

// State returns the lifecycle state.
func (b *Boss) State() BossState { return b.state }

// Active reports whether the boss is still fighting.
func (b *Boss) Active() bool { return b.state == BossActive }

// Spawns returns every spawn record created so far.
func (b *Boss) Spawns() []SpawnRecord { return b.spawns }

// Attacking reports whether the boss attacks on the current tick.
func (b *Boss) Attacking() bool {
	return b.Active() && b.ticksSinceAttack == b.tmpl.AttackInterval
}

// ApplyDamage subtracts amount from hit points and evaluates transitions in
// order: defeat at zero, then every crossed phase threshold, then the exit
// threshold.
//
// Precondition: amount >= 0.
// Postcondition: HP() >= 0. Damage applied to an inactive boss is ignored.
func (b *Boss) ApplyDamage(amount int) []PhaseChange {
	if !b.Active() {
		return nil
	}
	b.hp = max(b.hp-amount, 0)
	if b.hp == 0 {
		b.state = BossDefeated
		return nil
	}
	var changes []PhaseChange
	for b.phase < len(b.tmpl.Phases) {
		p := b.tmpl.Phases[b.phase]
		if float64(b.hp) > float64(b.baseHP)*p.Threshold {
			break
		}
		b.phase++
		changes = append(changes, PhaseChange{Phase: b.phase, Spawn: b.spawn(p.Spawn)})
	}
	if b.exitHP >= 0 && b.hp <= b.exitHP {
		b.state = BossPhaseEnded
	}
	return changes
}

// spawn places adds at distinct positions chosen without replacement.
func (b *Boss) spawn(s *npc.Spawn) *SpawnRecord {
	n := s.CountFor(b.scale)
	if n <= 0 {
		return nil
	}
	pool := append([]string(nil), b.tmpl.SpawnPositions...)
	for i := len(pool) - 1; i > 0; i-- {
		j := b.src.Intn(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	if n > len(pool) {
		n = len(pool)
	}
	rec := SpawnRecord{Phase: b.phase, Tick: b.tick, Kind: s.Kind, Positions: pool[:n]}
	b.spawns = append(b.spawns, rec)
	return &rec
}

// Step advances the attack cycle by one tick. When the attack counter has
// reached the interval the next pattern entry is used, any self-damage it
// carries is applied through ApplyDamage, and the counter resets.
//
// Postcondition: an inactive boss does nothing and returns a zero BossTurn.
func (b *Boss) Step() BossTurn {
	var turn BossTurn
	if !b.Active() {
		return turn
	}
	if b.ticksSinceAttack == b.tmpl.AttackInterval {
		kind := b.tmpl.Pattern[b.patternPos]
		atk := b.tmpl.Attack(kind)
		turn.Attack = atk
		if atk.SelfDamage > 0 {
			turn.SelfDamage = atk.SelfDamage
			turn.Changes = b.ApplyDamage(atk.SelfDamage)
		}
		b.patternPos = (b.patternPos + 1) % len(b.tmpl.Pattern)
		b.ticksSinceAttack = 0
	} else {
		b.ticksSinceAttack++
	}
	b.tick++
	return turn
}

// DefenceRoll returns (level + 9) * (bonus + 64) for dt. Magic uses the magic
// level; every other type uses defence.
func (b *Boss) DefenceRoll(dt DamageType) (int, error) {
	d := b.tmpl.Defences
	lvl := b.tmpl.Levels.Defence
	var bonus int
	switch dt {
	case DamageStab:
		bonus = d.Stab
	case DamageSlash:
		bonus = d.Slash
	case DamageCrush:
		bonus = d.Crush
	case DamageRanged:
		bonus = d.Ranged
	case DamageMagic:
		bonus = d.Magic
		lvl = b.tmpl.Levels.Magic
	default:
		return 0, fmt.Errorf("%w: boss defence against %q", ErrUnmappedDamageCategory, dt)
	}
	return (lvl + 9) * (bonus + 64), nil
}

// bossAttack adapts one boss attack entry to the Attacker interface.
type bossAttack struct {
	boss *Boss
	def  *npc.AttackDef
}

func (a bossAttack) WeaponName() string { return a.def.Kind }

func (a bossAttack) DamageType() (DamageType, error) {
	switch a.def.Category {
	case "magic":
		return DamageMagic, nil
	case "ranged":
		return DamageRanged, nil
	case "melee":
		return DamageCrush, nil
	}
	return "", fmt.Errorf("%w: boss attack category %q", ErrUnmappedDamageCategory, a.def.Category)
}

func (a bossAttack) AttackRoll() (int, error) {
	lv := a.boss.tmpl.Levels
	lvl := lv.Attack
	switch a.def.Category {
	case "magic":
		lvl = lv.Magic
	case "ranged":
		lvl = lv.Ranged
	}
	return (lvl + 9) * (a.def.Accuracy + 64), nil
}

func (a bossAttack) MaxHit() (int, error) { return a.def.MaxHit, nil }
