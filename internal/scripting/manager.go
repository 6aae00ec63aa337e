package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	"github.com/cory-johannsen/raidsim/internal/game/dice"
)

// Script is a compiled strategy script. It is immutable and may be
// instantiated concurrently.
type Script struct {
	Name  string
	proto *lua.FunctionProto
}

// Compile parses and compiles src.
//
// Postcondition: returns an error on any syntax error.
func Compile(name, src string) (*Script, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("scripting: parsing %q: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling %q: %w", name, err)
	}
	return &Script{Name: name, proto: proto}, nil
}

// Manager owns the compiled strategy scripts and creates per-trial
// strategies from them.
//
// Manager is safe for concurrent NewStrategy after all loads complete.
type Manager struct {
	mu        sync.RWMutex
	scripts   map[string]*Script
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil; instLimit 0 uses DefaultInstructionLimit.
// Postcondition: Returns a non-nil Manager with no scripts.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	return &Manager{
		scripts:   make(map[string]*Script),
		instLimit: instLimit,
		logger:    logger,
	}
}

// Load compiles src and registers it under name, replacing any prior script.
func (m *Manager) Load(name, src string) error {
	s, err := Compile(name, src)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.scripts[name] = s
	m.mu.Unlock()
	return nil
}

// LoadDir compiles every *.lua file in dir in lexicographic order. Each
// script is registered under its file name without the extension.
//
// Precondition: dir must be a readable directory.
// Postcondition: on error no script from dir is registered.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	sort.Strings(luaFiles)

	compiled := make(map[string]*Script, len(luaFiles))
	for _, f := range luaFiles {
		src, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return fmt.Errorf("scripting: reading %q: %w", f, err)
		}
		name := strings.TrimSuffix(f, ".lua")
		s, err := Compile(name, string(src))
		if err != nil {
			return err
		}
		compiled[name] = s
	}

	m.mu.Lock()
	for name, s := range compiled {
		m.scripts[name] = s
	}
	m.mu.Unlock()
	m.logger.Debug("scripting: loaded scripts", zap.String("dir", dir), zap.Int("count", len(compiled)))
	return nil
}

// Names returns the registered script names in lexical order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.scripts))
	for n := range m.scripts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a script named name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scripts[name]
	return ok
}

// NewStrategy instantiates the named script in a fresh sandboxed VM bound to
// roller. The returned Strategy belongs to one trial and must be closed.
//
// Postcondition: returns an error if the script is unknown, fails while
// loading, or does not define a global decide function.
func (m *Manager) NewStrategy(name string, roller *dice.Roller) (*Strategy, error) {
	m.mu.RLock()
	s, ok := m.scripts[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("scripting: unknown script %q", name)
	}
	return newStrategy(s, m.instLimit, roller, m.logger)
}
