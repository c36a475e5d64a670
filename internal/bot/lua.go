package bot

import (
	"encoding/json"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"flip/internal/domain"
)

// LuaBrain runs a script that defines a global function decide(view). The
// view arrives as a table shaped like its JSON form; decide returns a command
// table such as {type="DRAW_CARD"} or nil to wait.
type LuaBrain struct {
	mu sync.Mutex
	L  *lua.LState
}

// fileLoaders are base library globals that reach the filesystem.
var fileLoaders = []string{"dofile", "loadfile", "require", "module"}

// NewLuaBrain compiles script in a sandbox that cannot reach the filesystem.
func NewLuaBrain(script string) (*LuaBrain, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua %s library: %w", lib.name, err)
		}
	}
	for _, name := range fileLoaders {
		L.SetGlobal(name, lua.LNil)
	}
	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load bot script: %w", err)
	}
	if L.GetGlobal("decide").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("bot script does not define decide(view)")
	}
	return &LuaBrain{L: L}, nil
}

// Close releases the interpreter.
func (b *LuaBrain) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.L != nil {
		b.L.Close()
		b.L = nil
	}
}

func (b *LuaBrain) Decide(view domain.View) (domain.Envelope, bool, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return domain.Envelope{}, false, err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return domain.Envelope{}, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.L == nil {
		return domain.Envelope{}, false, fmt.Errorf("lua brain is closed")
	}
	arg := toLua(b.L, generic)
	if err := b.L.CallByParam(lua.P{Fn: b.L.GetGlobal("decide"), NRet: 1, Protect: true}, arg); err != nil {
		return domain.Envelope{}, false, fmt.Errorf("bot script failed: %w", err)
	}
	ret := b.L.Get(-1)
	b.L.Pop(1)

	if ret == lua.LNil {
		return domain.Envelope{}, false, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return domain.Envelope{}, false, fmt.Errorf("decide returned %s, want table or nil", ret.Type())
	}
	env := envelopeFromTable(tbl)
	if env.Type == "" {
		return domain.Envelope{}, false, fmt.Errorf("decide returned a command without type")
	}
	return env, true, nil
}

// toLua converts decoded JSON into Lua values. Arrays become 1-based tables.
func toLua(L *lua.LState, v interface{}) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case float64:
		return lua.LNumber(t)
	case string:
		return lua.LString(t)
	case []interface{}:
		tbl := L.NewTable()
		for _, item := range t {
			tbl.Append(toLua(L, item))
		}
		return tbl
	case map[string]interface{}:
		tbl := L.NewTable()
		for k, item := range t {
			tbl.RawSetString(k, toLua(L, item))
		}
		return tbl
	}
	return lua.LNil
}

func envelopeFromTable(tbl *lua.LTable) domain.Envelope {
	env := domain.Envelope{
		Type:   lua.LVAsString(tbl.RawGetString("type")),
		Color:  lua.LVAsString(tbl.RawGetString("color")),
		Value:  lua.LVAsString(tbl.RawGetString("value")),
		Target: lua.LVAsString(tbl.RawGetString("target")),
		Joker:  lua.LVAsBool(tbl.RawGetString("joker")),
	}
	if n, ok := tbl.RawGetString("index").(lua.LNumber); ok {
		env.Index = domain.IntPtr(int(n))
	}
	if n, ok := tbl.RawGetString("rank").(lua.LNumber); ok {
		env.Rank = domain.IntPtr(int(n))
	}
	if c, ok := tbl.RawGetString("continue").(lua.LBool); ok {
		env.Continue = domain.BoolPtr(bool(c))
	}
	if order, ok := tbl.RawGetString("order").(*lua.LTable); ok {
		for i := 1; i <= order.Len(); i++ {
			env.Order = append(env.Order, lua.LVAsString(order.RawGetInt(i)))
		}
	}
	return env
}
