package combat

// Action is what an actor does on a tick where its cooldown is zero.
type Action int

const (
	// ActionAttack attacks with the primary loadout.
	ActionAttack Action = iota
	// ActionSwap attacks once with the alternate loadout.
	ActionSwap
	// ActionDelay skips the attack and waits Decision.Delay ticks.
	ActionDelay
)

// String returns the lowercase action name.
func (a Action) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionSwap:
		return "swap"
	case ActionDelay:
		return "delay"
	default:
		return "unknown"
	}
}

// Decision is a strategy's choice for one tick.
type Decision struct {
	Action Action
	Delay  int
	// Vengeance arms a one-shot reflect before the action is taken.
	Vengeance bool
}

// Attack is the default decision.
var Attack = Decision{Action: ActionAttack}

// TickContext is the read-only view a strategy decides from.
type TickContext struct {
	Tick          int
	Actor         string
	BossAttacking bool
	Cooldown      int
	SpecialEnergy int
	HP            int
	BossHP        int
	BossBaseHP    int
	Phase         int
	// VengeanceArmed is true while a reflect is waiting for the next hit.
	VengeanceArmed bool
}

// TickStrategy chooses an actor's action on ticks where its cooldown is zero.
// Implementations are owned by a single trial.
type TickStrategy interface {
	Decide(TickContext) Decision
}

// StrategyFunc adapts a function to TickStrategy.
type StrategyFunc func(TickContext) Decision

// Decide implements TickStrategy.
func (f StrategyFunc) Decide(c TickContext) Decision { return f(c) }

// AlwaysAttack attacks whenever possible.
type AlwaysAttack struct{}

// Decide implements TickStrategy.
func (AlwaysAttack) Decide(TickContext) Decision { return Attack }

// SwapOnBossAttack attacks with the alternate loadout on ticks where the boss
// also attacks.
type SwapOnBossAttack struct{}

// Decide implements TickStrategy.
func (SwapOnBossAttack) Decide(c TickContext) Decision {
	if c.BossAttacking {
		return Decision{Action: ActionSwap}
	}
	return Attack
}

// DelayOnBossAttack holds the attack for Ticks ticks when the boss attacks on
// the same tick, modelling a guaranteed miss. Zero Ticks means one.
type DelayOnBossAttack struct {
	Ticks int
}

// Decide implements TickStrategy.
func (s DelayOnBossAttack) Decide(c TickContext) Decision {
	if !c.BossAttacking {
		return Attack
	}
	return Decision{Action: ActionDelay, Delay: max(s.Ticks, 1)}
}
