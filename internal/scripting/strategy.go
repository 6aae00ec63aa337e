package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/raidsim/internal/game/combat"
	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

// Strategy is a combat.TickStrategy backed by a Lua decide(ctx) function.
//
// decide may return an action string ("attack", "swap" or "delay"), an
// optional delay in ticks and an optional vengeance flag, or a single table
// with action, delay and vengeance fields. Lua runtime errors and unknown
// actions are logged at Warn level and fall back to attack.
//
// A Strategy owns its LState and is not safe for concurrent use.
type Strategy struct {
	script    string
	L         *lua.LState
	decide    *lua.LFunction
	instLimit int
	logger    *zap.Logger
}

var _ combat.TickStrategy = (*Strategy)(nil)

func newStrategy(s *Script, instLimit int, roller *dice.Roller, logger *zap.Logger) (*Strategy, error) {
	L := NewSandboxedState(instLimit)
	registerModules(L, s.Name, roller, logger)

	err := withBudget(L, instLimit, func() error {
		L.Push(L.NewFunctionFromProto(s.proto))
		return L.PCall(0, 0, nil)
	})
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", s.Name, err)
	}
	fn, ok := L.GetGlobal("decide").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("scripting: script %q does not define decide(ctx)", s.Name)
	}
	return &Strategy{
		script:    s.Name,
		L:         L,
		decide:    fn,
		instLimit: instLimit,
		logger:    logger,
	}, nil
}

// Decide implements combat.TickStrategy.
func (st *Strategy) Decide(c combat.TickContext) combat.Decision {
	ctx := st.contextTable(c)
	var ret [3]lua.LValue
	err := withBudget(st.L, st.instLimit, func() error {
		if err := st.L.CallByParam(lua.P{Fn: st.decide, NRet: 3, Protect: true}, ctx); err != nil {
			return err
		}
		ret[0], ret[1], ret[2] = st.L.Get(-3), st.L.Get(-2), st.L.Get(-1)
		st.L.Pop(3)
		return nil
	})
	if err != nil {
		st.logger.Warn("scripting: Lua runtime error",
			zap.String("script", st.script),
			zap.Int("tick", c.Tick),
			zap.Error(err),
		)
		return combat.Attack
	}

	if tbl, ok := ret[0].(*lua.LTable); ok {
		ret = [3]lua.LValue{tbl.RawGetString("action"), tbl.RawGetString("delay"), tbl.RawGetString("vengeance")}
	}
	d, err := toDecision(ret)
	if err != nil {
		st.logger.Warn("scripting: invalid decision",
			zap.String("script", st.script),
			zap.Int("tick", c.Tick),
			zap.Error(err),
		)
		return combat.Attack
	}
	return d
}

func (st *Strategy) contextTable(c combat.TickContext) *lua.LTable {
	t := st.L.NewTable()
	t.RawSetString("tick", lua.LNumber(c.Tick))
	t.RawSetString("actor", lua.LString(c.Actor))
	t.RawSetString("boss_attacking", lua.LBool(c.BossAttacking))
	t.RawSetString("cooldown", lua.LNumber(c.Cooldown))
	t.RawSetString("special_energy", lua.LNumber(c.SpecialEnergy))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("boss_hp", lua.LNumber(c.BossHP))
	t.RawSetString("boss_base_hp", lua.LNumber(c.BossBaseHP))
	t.RawSetString("phase", lua.LNumber(c.Phase))
	t.RawSetString("vengeance_armed", lua.LBool(c.VengeanceArmed))
	return t
}

func toDecision(ret [3]lua.LValue) (combat.Decision, error) {
	var d combat.Decision
	action := ret[0]
	if action == lua.LNil {
		return combat.Attack, nil
	}
	s, ok := action.(lua.LString)
	if !ok {
		return d, fmt.Errorf("action must be a string, got %s", action.Type())
	}
	switch string(s) {
	case "attack":
		d.Action = combat.ActionAttack
	case "swap":
		d.Action = combat.ActionSwap
	case "delay":
		d.Action = combat.ActionDelay
		d.Delay = 1
		if n, ok := ret[1].(lua.LNumber); ok && int(n) > 0 {
			d.Delay = int(n)
		}
	default:
		return d, fmt.Errorf("unknown action %q", string(s))
	}
	d.Vengeance = lua.LVAsBool(ret[2])
	return d, nil
}

// Close releases the Lua state.
func (st *Strategy) Close() error {
	st.L.Close()
	return nil
}
