package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/hearthd/hearth/internal/bus"
	"github.com/hearthd/hearth/internal/plugin"
)

// Errors for script plugin loading.
var (
	// ErrNoPluginTable is returned when a script does not declare the
	// global plugin table with an id.
	ErrNoPluginTable = errors.New("script must declare plugin = { id = ... }")

	// ErrNoRegisterFunc is returned when a script has no register function.
	ErrNoRegisterFunc = errors.New("script must define register()")
)

// scriptPlugin owns one Lua state for the lifetime of the host. The state is
// not goroutine safe, so every entry into Lua is serialized; a script handler
// must not send a message that routes back into its own script.
type scriptPlugin struct {
	mu   sync.Mutex
	path string
	L    *lua.LState
	br   *bridge
	pctx *plugin.Context
}

// Load reads a Lua plugin file, runs its top level to collect the plugin
// declaration, and wraps it as an ordinary plugin record. The manager treats
// script plugins identically to built-in ones.
//
// A script declares its identity and callback like:
//
//	plugin = { id = "greeter", depends = { "store" } }
//
//	function register()
//	    hearth.subscribe("greet:hello", function(msg)
//	        return { success = true, data = "hi " .. tostring(msg.payload) }
//	    end)
//	    return { commands = { { id = "greet", title = "Greet" } } }
//	end
func Load(path string) (plugin.Plugin, error) {
	L := lua.NewState()

	if err := L.DoFile(path); err != nil {
		L.Close()
		return plugin.Plugin{}, fmt.Errorf("script %s: %w", path, err)
	}

	sp := &scriptPlugin{path: path, L: L, br: &bridge{L: L}}

	decl, ok := L.GetGlobal("plugin").(*lua.LTable)
	if !ok {
		L.Close()
		return plugin.Plugin{}, fmt.Errorf("%w: %s", ErrNoPluginTable, path)
	}
	id := lua.LVAsString(decl.RawGetString("id"))
	if id == "" {
		L.Close()
		return plugin.Plugin{}, fmt.Errorf("%w: %s", ErrNoPluginTable, path)
	}

	var deps []string
	if dt, ok := decl.RawGetString("depends").(*lua.LTable); ok {
		dt.ForEach(func(_, v lua.LValue) {
			if s := lua.LVAsString(v); s != "" {
				deps = append(deps, s)
			}
		})
	}

	if _, ok := L.GetGlobal("register").(*lua.LFunction); !ok {
		L.Close()
		return plugin.Plugin{}, fmt.Errorf("%w: %s", ErrNoRegisterFunc, path)
	}

	return plugin.Plugin{
		ID:           id,
		Dependencies: deps,
		Register:     sp.register,
	}, nil
}

// Discover scans a plugin directory for single-file plugins (<name>.lua) and
// directory plugins (<dir>/init.lua). Load failures do not stop discovery;
// they are aggregated into the returned error alongside the plugins that did
// load.
func Discover(dir string) ([]plugin.Plugin, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var plugins []plugin.Plugin
	var loadErrs []error
	seen := make(map[string]bool)
	for _, entry := range entries {
		var name, path string
		switch {
		case entry.IsDir():
			name = entry.Name()
			path = filepath.Join(dir, name, "init.lua")
			if _, err := os.Stat(path); err != nil {
				continue
			}
		case filepath.Ext(entry.Name()) == ".lua":
			name = strings.TrimSuffix(entry.Name(), ".lua")
			path = filepath.Join(dir, entry.Name())
		default:
			continue
		}

		// A directory plugin and a file plugin with the same name: the
		// first path in directory order wins.
		if seen[name] {
			continue
		}
		seen[name] = true

		p, err := Load(path)
		if err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		plugins = append(plugins, p)
	}

	return plugins, errors.Join(loadErrs...)
}

// register is the plugin registration callback: it installs the hearth
// module into the script's globals and invokes the script's register().
func (sp *scriptPlugin) register(ctx context.Context, pctx *plugin.Context) (*plugin.Capabilities, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.pctx = pctx
	sp.installModule()

	fn := sp.L.GetGlobal("register").(*lua.LFunction)
	if err := sp.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}); err != nil {
		return nil, fmt.Errorf("script %s: %w", sp.path, err)
	}
	ret := sp.L.Get(-1)
	sp.L.Pop(1)

	return capsFromLua(sp.br.toGo(ret))
}

// installModule exposes the host API to the script as the global hearth
// table: send, subscribe, and log.
func (sp *scriptPlugin) installModule() {
	mod := sp.L.NewTable()
	mod.RawSetString("send", sp.L.NewFunction(sp.luaSend))
	mod.RawSetString("subscribe", sp.L.NewFunction(sp.luaSubscribe))
	mod.RawSetString("log", sp.L.NewFunction(sp.luaLog))
	sp.L.SetGlobal("hearth", mod)
}

// luaSend implements hearth.send(type, payload[, opts]) where opts may carry
// target, metadata, and broadcast. Returns a response table.
func (sp *scriptPlugin) luaSend(L *lua.LState) int {
	msgType := L.CheckString(1)
	payload := sp.br.toGo(L.Get(2))

	var opts []bus.SendOption
	if optTable := L.OptTable(3, nil); optTable != nil {
		if target := lua.LVAsString(optTable.RawGetString("target")); target != "" {
			opts = append(opts, bus.WithTarget(target))
		}
		if md := toStringMap(sp.br.toGo(optTable.RawGetString("metadata"))); md != nil {
			opts = append(opts, bus.WithMetadata(md))
		}
		if lua.LVAsBool(optTable.RawGetString("broadcast")) {
			opts = append(opts, bus.WithBroadcast())
		}
	}

	resp := sp.pctx.Send(context.Background(), msgType, payload, opts...)

	t := L.NewTable()
	t.RawSetString("success", lua.LBool(resp.Success))
	t.RawSetString("data", sp.br.toLua(resp.Data))
	if resp.Error != "" {
		t.RawSetString("error", lua.LString(resp.Error))
	}
	L.Push(t)
	return 1
}

// luaSubscribe implements hearth.subscribe(type, fn). It returns a disposer
// function mirroring the Go API.
func (sp *scriptPlugin) luaSubscribe(L *lua.LState) int {
	msgType := L.CheckString(1)
	fn := L.CheckFunction(2)

	dispose, err := sp.pctx.Subscribe(msgType, sp.handlerFor(fn))
	if err != nil {
		L.RaiseError("subscribe %s: %v", msgType, err)
		return 0
	}

	L.Push(L.NewFunction(func(L *lua.LState) int {
		dispose()
		return 0
	}))
	return 1
}

// luaLog implements hearth.log(level, message).
func (sp *scriptPlugin) luaLog(L *lua.LState) int {
	level := L.CheckString(1)
	msg := L.CheckString(2)

	log := sp.pctx.Logger()
	switch level {
	case "debug":
		log.Debug(msg)
	case "warn":
		log.Warn(msg)
	case "error":
		log.Error(msg)
	default:
		log.Info(msg)
	}
	return 0
}

// handlerFor wraps a Lua function as a bus handler. The handler may return
// nothing (treated as no-reply) or a table {success=, data=, error=}.
func (sp *scriptPlugin) handlerFor(fn *lua.LFunction) bus.Handler {
	return func(ctx context.Context, msg bus.Message) (bus.Response, error) {
		sp.mu.Lock()
		defer sp.mu.Unlock()

		if err := sp.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, sp.messageToLua(msg)); err != nil {
			return bus.Response{}, err
		}
		ret := sp.L.Get(-1)
		sp.L.Pop(1)
		return sp.responseFromLua(ret), nil
	}
}

// messageToLua converts a message envelope to a Lua table.
func (sp *scriptPlugin) messageToLua(msg bus.Message) *lua.LTable {
	t := sp.L.NewTable()
	t.RawSetString("id", lua.LString(msg.ID))
	t.RawSetString("type", lua.LString(msg.Type))
	t.RawSetString("source", lua.LString(msg.Source))
	if msg.Target != "" {
		t.RawSetString("target", lua.LString(msg.Target))
	}
	if msg.Metadata != nil {
		t.RawSetString("metadata", sp.br.toLua(msg.Metadata))
	}
	t.RawSetString("payload", sp.br.toLua(msg.Payload))
	return t
}

// responseFromLua interprets a handler's return value.
func (sp *scriptPlugin) responseFromLua(ret lua.LValue) bus.Response {
	t, ok := ret.(*lua.LTable)
	if !ok {
		return bus.NoReply()
	}

	success := true
	if sv := t.RawGetString("success"); sv != lua.LNil {
		success = lua.LVAsBool(sv)
	}
	if !success {
		return bus.Failure(lua.LVAsString(t.RawGetString("error")))
	}
	return bus.OK(sp.br.toGo(t.RawGetString("data")))
}

// capsFromLua converts a script register() return value into a validated
// capability structure. A nil return means no capabilities.
func capsFromLua(v any) (*plugin.Capabilities, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("register() must return a table, got %T", v)
	}

	caps := &plugin.Capabilities{}
	for _, entry := range asEntries(m["tools"]) {
		caps.Tools = append(caps.Tools, plugin.Tool{
			ID:          str(entry, "id"),
			Description: str(entry, "description"),
			MessageType: str(entry, "message_type"),
		})
	}
	for _, entry := range asEntries(m["resources"]) {
		caps.Resources = append(caps.Resources, plugin.Resource{
			ID:          str(entry, "id"),
			URI:         str(entry, "uri"),
			Description: str(entry, "description"),
		})
	}
	for _, entry := range asEntries(m["commands"]) {
		caps.Commands = append(caps.Commands, plugin.Command{
			ID:          str(entry, "id"),
			Title:       str(entry, "title"),
			Description: str(entry, "description"),
		})
	}

	if caps.Count() == 0 {
		return nil, nil
	}
	return caps, nil
}

// asEntries narrows a decoded Lua array into its table entries.
func asEntries(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	entries := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if entry, ok := item.(map[string]any); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
