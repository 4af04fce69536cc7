package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuocduong/prime-engine/internal/core/event"
	"github.com/phuocduong/prime-engine/internal/fx"
	"github.com/phuocduong/prime-engine/internal/fx/motion"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

// Engine wraps a single gopher-lua VM running effect-trigger scripts.
// Single-goroutine access only (tick loop).
//
// Scripts see an `fx` table whose functions queue effect requests on the bus;
// nothing touches a pool from inside Lua. A global on_tick(now, tick) is
// called once per tick when defined.
type Engine struct {
	vm   *lua.LState
	bus  *event.Bus
	set  *fx.Set
	log  *zap.Logger
	hook lua.LValue
}

// NewEngine creates a Lua engine and loads every script in scriptsDir. An
// empty or missing directory yields an engine with no scripts.
func NewEngine(scriptsDir string, bus *event.Bus, set *fx.Set, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, bus: bus, set: set, log: log, hook: lua.LNil}
	e.openFx()

	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load effect scripts: %w", err)
		}
	}
	e.hook = vm.GetGlobal("on_tick")
	return e, nil
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source and refreshes the on_tick hook.
func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return err
	}
	e.hook = e.vm.GetGlobal("on_tick")
	return nil
}

// HasTickHook reports whether on_tick is defined.
func (e *Engine) HasTickHook() bool {
	return e.hook.Type() == lua.LTFunction
}

// OnTick calls on_tick(now, tick). A script error is returned to the caller
// and leaves the VM usable.
func (e *Engine) OnTick(now float64, tick uint64) error {
	if !e.HasTickHook() {
		return nil
	}
	return e.vm.CallByParam(lua.P{
		Fn:      e.hook,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(now), lua.LNumber(tick))
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) openFx() {
	mod := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"spawn":    e.luaSpawn,
		"spawn_at": e.luaSpawnAt,
		"label":    e.luaLabel,
		"clear":    e.luaClear,
		"count":    e.luaCount,
	})
	e.vm.SetGlobal("fx", mod)
}

// checkSystem validates the system name argument at position n.
func (e *Engine) checkSystem(L *lua.LState, n int) string {
	name := L.CheckString(n)
	if _, err := e.set.Get(name); err != nil {
		L.ArgError(n, err.Error())
	}
	return name
}

// fx.spawn(system, params)
func (e *Engine) luaSpawn(L *lua.LState) int {
	name := e.checkSystem(L, 1)
	t := L.CheckTable(2)

	num := func(key string, def float64) float64 {
		v := t.RawGetString(key)
		if n, ok := v.(lua.LNumber); ok {
			return float64(n)
		}
		return def
	}
	sp := fx.Spawn{
		Origin:      motion.Vec3{X: num("x", 0), Y: num("y", 0), Z: num("z", 0)},
		Velocity:    motion.Vec3{X: num("vx", 0), Y: num("vy", 0), Z: num("vz", 0)},
		Accel:       motion.Vec3{X: num("ax", 0), Y: num("ay", 0), Z: num("az", 0)},
		Cycle:       num("cycle", 1),
		ScaleStart:  num("scale_start", 1),
		ScaleEnd:    num("scale_end", 1),
		RotateSpeed: num("rotate", 0),
		Content: motion.Content{
			Markup: lua.LVAsString(t.RawGetString("markup")),
			Style:  lua.LVAsString(t.RawGetString("style")),
		},
	}
	event.Emit(e.bus, event.SpawnRequested{System: name, Spawn: sp})
	return 0
}

// fx.spawn_at(system, x, y [, z])
func (e *Engine) luaSpawnAt(L *lua.LState) int {
	name := e.checkSystem(L, 1)
	pos := motion.Vec3{
		X: float64(L.CheckNumber(2)),
		Y: float64(L.CheckNumber(3)),
		Z: float64(L.OptNumber(4, 0)),
	}
	event.Emit(e.bus, event.SpawnAtRequested{System: name, Pos: pos})
	return 0
}

// fx.label(system, x, y, text [, style])
func (e *Engine) luaLabel(L *lua.LState) int {
	name := e.checkSystem(L, 1)
	ev := event.LabelRequested{
		System: name,
		Pos:    motion.Vec3{X: float64(L.CheckNumber(2)), Y: float64(L.CheckNumber(3))},
		Text:   L.CheckString(4),
		Style:  L.OptString(5, ""),
	}
	event.Emit(e.bus, ev)
	return 0
}

// fx.clear(system)
func (e *Engine) luaClear(L *lua.LState) int {
	event.Emit(e.bus, event.ClearRequested{System: e.checkSystem(L, 1)})
	return 0
}

// fx.count(system) -> index_count, sync_count
func (e *Engine) luaCount(L *lua.LState) int {
	sys, err := e.set.Get(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(lua.LNumber(sys.IndexCount()))
	L.Push(lua.LNumber(sys.SyncCount()))
	return 2
}
