// Package encounter loads Lua encounter scripts into Go structs at
// startup. The Lua VM is sandboxed and discarded after loading; nothing
// scripted runs at simulation time.
package encounter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"rift-and-ruin/server/combat/tags"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	meta   *lua.LTable
	spawns []rawSpawn
	waves  []rawWave
	casts  []*lua.LTable
}

type rawSpawn struct {
	id    string
	table *lua.LTable
}

type rawWave struct {
	number int
	table  *lua.LTable
}

// LoadFile compiles a single encounter script.
func LoadFile(path string) (*Script, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("encounter: executing %s: %w", filepath.Base(path), err)
	}

	script, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("encounter: compiling %s: %w", filepath.Base(path), err)
	}
	if err := script.validate(); err != nil {
		return nil, err
	}
	script.normalize()
	return script, nil
}

// LoadDir compiles every .lua file in dir, sorted by filename.
func LoadDir(dir string) ([]*Script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("encounter: reading directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".lua") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("encounter: no .lua files in %s", dir)
	}
	sort.Strings(names)

	scripts := make([]*Script, 0, len(names))
	for _, name := range names {
		script, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that could touch the host or break
// determinism.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}

// registerAPI installs the encounter constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Encounter { name = "...", description = "..." }
	L.SetGlobal("Encounter", L.NewFunction(func(L *lua.LState) int {
		coll.meta = L.CheckTable(1)
		return 0
	}))

	// Actor "id" { ... } places an actor at encounter start. Curried:
	// Actor("id") returns a function that takes the definition table.
	L.SetGlobal("Actor", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.spawns = append(coll.spawns, rawSpawn{id: id, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Wave(n) { at = ..., spawn = { {...}, ... } }
	L.SetGlobal("Wave", L.NewFunction(func(L *lua.LState) int {
		number := L.CheckInt(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.waves = append(coll.waves, rawWave{number: number, table: L.CheckTable(1)})
			return 0
		}))
		return 1
	}))

	// Cast { at = ..., caster = "...", tags = {...}, params = {...}, target = "..." }
	L.SetGlobal("Cast", L.NewFunction(func(L *lua.LState) int {
		coll.casts = append(coll.casts, L.CheckTable(1))
		return 0
	}))
}

func compile(coll *collector) (*Script, error) {
	if coll.meta == nil {
		return nil, fmt.Errorf("no Encounter block")
	}
	script := &Script{
		Name:        getString(coll.meta, "name"),
		Description: getString(coll.meta, "description"),
	}
	for _, raw := range coll.spawns {
		script.Spawns = append(script.Spawns, spawnFromTable(raw.id, raw.table))
	}
	for _, raw := range coll.waves {
		wave := Wave{
			Number: raw.number,
			At:     getNumber(raw.table, "at"),
		}
		if list := getTable(raw.table, "spawn"); list != nil {
			for i := 1; i <= list.MaxN(); i++ {
				entry, ok := list.RawGetInt(i).(*lua.LTable)
				if !ok {
					return nil, fmt.Errorf("wave %d: spawn %d is not a table", raw.number, i)
				}
				wave.Spawns = append(wave.Spawns, spawnFromTable(getString(entry, "id"), entry))
			}
		}
		script.Waves = append(script.Waves, wave)
	}
	for _, raw := range coll.casts {
		cast := Cast{
			At:       getNumber(raw, "at"),
			CasterID: getString(raw, "caster"),
			TargetID: getString(raw, "target"),
			Tags:     stringsFromTable(getTable(raw, "tags")),
			Params:   paramsFromTable(getTable(raw, "params")),
		}
		script.Casts = append(script.Casts, cast)
	}
	return script, nil
}

func spawnFromTable(id string, tbl *lua.LTable) Spawn {
	spawn := Spawn{
		ID:        id,
		Name:      getString(tbl, "name"),
		Category:  getString(tbl, "category"),
		X:         getNumber(tbl, "x"),
		Y:         getNumber(tbl, "y"),
		Health:    getNumber(tbl, "health"),
		MoveSpeed: getNumber(tbl, "move_speed"),
	}
	if resist := getTable(tbl, "resistances"); resist != nil {
		spawn.Resistances = make(map[string]float64)
		resist.ForEach(func(k, v lua.LValue) {
			key, kok := k.(lua.LString)
			value, vok := v.(lua.LNumber)
			if kok && vok {
				spawn.Resistances[string(key)] = float64(value)
			}
		})
	}
	return spawn
}

func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func getNumber(tbl *lua.LTable, key string) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

func stringsFromTable(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	out := make([]string, 0, tbl.MaxN())
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// paramsFromTable converts a Lua table into effect parameters. Numbers
// stay float64 so they merge cleanly with catalog defaults.
func paramsFromTable(tbl *lua.LTable) tags.Params {
	if tbl == nil {
		return nil
	}
	params := tags.Params{}
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch value := v.(type) {
		case lua.LNumber:
			params[string(key)] = float64(value)
		case lua.LString:
			params[string(key)] = string(value)
		case lua.LBool:
			params[string(key)] = bool(value)
		}
	})
	if len(params) == 0 {
		return nil
	}
	return params
}
