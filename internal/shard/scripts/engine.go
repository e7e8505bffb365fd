// Package scripts wraps a single gopher-lua VM that loads per-room entry
// hooks (spec.md §4.2.1 "run a per-room entry hook"). Each *.lua file under
// scripts/rooms/ may call the global on_enter(room_id, fn) to register a
// hook; Engine.OnEnter calls the hook registered for a room, if any, when a
// character enters it.
//
// Grounded on the teacher's internal/scripting/engine.go: the loadDir
// pattern (tolerant of an absent scripts directory) and the
// lua.LState/CallByParam/table-marshaling calling convention are reused
// here, narrowed from the teacher's combat/buff/item formula bridge down to
// the one hook this world needs.
package scripts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// EnterContext is the table passed to a room's on_enter hook.
type EnterContext struct {
	RoomID        string
	CharacterID   uint64
	CharacterName string
	Class         string
}

// Engine owns the Lua VM and the room-id -> hook-function registry that
// scripts populate by calling on_enter from Lua.
type Engine struct {
	vm   *lua.LState
	log  *zap.Logger
	hook map[string]*lua.LFunction
}

// NewEngine creates a VM, registers the on_enter builtin, then loads every
// *.lua file directly under dir/rooms (if dir or dir/rooms is absent, the
// engine starts with no hooks registered rather than erroring — room
// scripting is optional content, not a required boot dependency).
func NewEngine(dir string, log *zap.Logger) (*Engine, error) {
	e := &Engine{
		vm:   lua.NewState(),
		log:  log,
		hook: make(map[string]*lua.LFunction),
	}
	e.vm.SetGlobal("on_enter", e.vm.NewFunction(e.luaRegisterOnEnter))

	if err := e.loadDir(filepath.Join(dir, "rooms")); err != nil {
		e.vm.Close()
		return nil, err
	}
	return e, nil
}

// loadDir runs every *.lua file in dir, in name order. A missing directory
// is not an error: room hook scripts are optional.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read script dir %s: %w", dir, err)
	}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".lua") {
			continue
		}
		path := filepath.Join(dir, ent.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load script %s: %w", path, err)
		}
	}
	return nil
}

// luaRegisterOnEnter implements the Lua-visible on_enter(room_id, fn)
// registration call.
func (e *Engine) luaRegisterOnEnter(L *lua.LState) int {
	roomID := L.CheckString(1)
	fn := L.CheckFunction(2)
	e.hook[roomID] = fn
	return 0
}

// HasHook reports whether roomID has a registered entry hook.
func (e *Engine) HasHook(roomID string) bool {
	_, ok := e.hook[roomID]
	return ok
}

// OnEnter invokes the entry hook registered for ctx.RoomID, if any. The
// hook receives a single table argument with room_id, character_id,
// character_name, and class fields, and may return a string line (empty
// return emits nothing); World.Move appends that line to the entering
// character's own output.
func (e *Engine) OnEnter(ctx EnterContext) (string, error) {
	fn, ok := e.hook[ctx.RoomID]
	if !ok {
		return "", nil
	}

	tbl := e.vm.NewTable()
	tbl.RawSetString("room_id", lua.LString(ctx.RoomID))
	tbl.RawSetString("character_id", lua.LNumber(ctx.CharacterID))
	tbl.RawSetString("character_name", lua.LString(ctx.CharacterName))
	tbl.RawSetString("class", lua.LString(ctx.Class))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, tbl); err != nil {
		e.log.Warn("room on_enter hook failed", zap.String("room_id", ctx.RoomID), zap.Error(err))
		return "", fmt.Errorf("on_enter(%s): %w", ctx.RoomID, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	if s, ok := ret.(lua.LString); ok {
		return string(s), nil
	}
	return "", nil
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
