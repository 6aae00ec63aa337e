package combat

// EventType names an observable occurrence in an encounter.
type EventType string

const (
	EventAttack     EventType = "attack"
	EventMiss       EventType = "miss"
	EventDelay      EventType = "delay"
	EventThrall     EventType = "thrall"
	EventBossAttack EventType = "boss_attack"
	EventSelfDamage EventType = "self_damage"
	EventReflect    EventType = "reflect"
	EventPhase      EventType = "phase"
	EventSpawn      EventType = "spawn"
	EventPhaseEnd   EventType = "phase_end"
	EventDefeat     EventType = "defeat"
	EventWipe       EventType = "wipe"
	EventTimeout    EventType = "timeout"
	EventError      EventType = "error"
)

// Event is one structured record emitted by the encounter loop.
type Event struct {
	Tick   int
	Type   EventType
	Actor  string
	Amount int
	BossHP int
	Phase  int
	Detail string
}

// EventSink receives encounter events. Implementations must not retain the
// encounter and are called from the goroutine running the trial.
type EventSink interface {
	Emit(Event)
}

// NopSink discards every event.
type NopSink struct{}

// Emit implements EventSink.
func (NopSink) Emit(Event) {}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// Emit implements EventSink.
func (f EventSinkFunc) Emit(e Event) { f(e) }
