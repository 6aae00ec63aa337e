package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

// registerModules installs the engine global into L:
//
//	engine.roll(expr)  rolls a dice expression with the trial's roller
//	engine.log(msg)    logs msg at debug level
//
// Precondition: L must be from NewSandboxedState; roller and logger non-nil.
func registerModules(L *lua.LState, script string, roller *dice.Roller, logger *zap.Logger) {
	engine := L.NewTable()
	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.ArgError(1, err.Error())
			return 0
		}
		L.Push(lua.LNumber(roller.Roll(expr).Total()))
		return 1
	}))
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		logger.Debug("script log",
			zap.String("script", script),
			zap.String("msg", L.CheckString(1)),
		)
		return 0
	}))
	L.SetGlobal("engine", engine)
}
