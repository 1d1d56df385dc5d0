package hooks

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LuaHook is a native-module hook: a Lua source file whose chunk returns a
// function (the module's default export). The function is called in-process
// with a context table for every dispatched step.
//
// gopher-lua's LState is not goroutine-safe; each hook owns a private state
// and dispatch is strictly sequential, so no locking is needed.
type LuaHook struct {
	source Source
	state  *lua.LState
	fn     *lua.LFunction

	// Detached marks a hook that declared (via its optional second return
	// value, { detach = true }) that it only performs fire-and-forget work.
	// Display-only: dispatch always waits for the call to return.
	Detached bool
}

// newLuaState creates a Lua state with only the safe standard libraries
// opened. io, os, debug, and package stay closed: hooks interact with the
// filesystem through the context's artifact callbacks instead.
func newLuaState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	return L
}

// loadLuaHook evaluates the hook file and extracts its default function.
// All failure modes (syntax error, runtime error during chunk evaluation,
// missing or non-callable export) are returned as diagnostics, never raised.
func loadLuaHook(source Source) (*LuaHook, []string) {
	L := newLuaState()

	var diags []string
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("lua panic: %v", r)
			}
		}()
		// The hook path is always resolved from the discovered absolute
		// path, never relative to this library's own location.
		return L.DoFile(source.AbsolutePath)
	}()
	if err != nil {
		L.Close()
		return nil, []string{err.Error()}
	}

	n := L.GetTop()
	if n < 1 {
		L.Close()
		return nil, []string{"does not have a default function"}
	}

	fn, ok := L.Get(1).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, append(diags, "does not have a default function")
	}

	hook := &LuaHook{source: source, state: L, fn: fn}
	if n >= 2 {
		if marker, ok := L.Get(2).(*lua.LTable); ok {
			hook.Detached = lua.LVAsBool(marker.RawGetString("detach"))
		}
	}
	L.SetTop(0)
	return hook, nil
}

// Execute calls the hook function with a freshly built context table. Errors
// raised inside the hook propagate and abort the lifecycle step.
func (h *LuaHook) Execute(ctx context.Context, hctx *HookContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic in hook %s: %v", h.source.FriendlyName, r)
		}
	}()

	h.state.SetContext(ctx)
	tbl := h.contextTable(hctx)
	if callErr := h.state.CallByParam(lua.P{
		Fn:      h.fn,
		NRet:    lua.MultRet,
		Protect: true,
	}, tbl); callErr != nil {
		return fmt.Errorf("hook %s failed: %w", h.source.FriendlyName, callErr)
	}
	h.state.SetTop(0)
	return nil
}

// contextTable builds the Lua-side view of the HookContext.
func (h *LuaHook) contextTable(hctx *HookContext) *lua.LTable {
	L := h.state
	opts := hctx.Options

	tbl := L.NewTable()
	L.SetField(tbl, "step", lua.LString(hctx.Command.ProxyCmd))
	L.SetField(tbl, "project_home", lua.LString(opts.ProjectHome))
	L.SetField(tbl, "verbose", lua.LBool(opts.Verbose))
	L.SetField(tbl, "dry_run", lua.LBool(opts.DryRun))
	L.SetField(tbl, "transaction_id", lua.LString(opts.TransactionID))

	targets := L.NewTable()
	for _, t := range opts.Targets {
		targets.Append(lua.LString(t))
	}
	L.SetField(tbl, "targets", targets)

	args := L.NewTable()
	for name, value := range hctx.Arguments {
		L.SetField(args, name, lua.LString(value))
	}
	L.SetField(tbl, "args", args)

	for _, extra := range []struct {
		name    string
		persist func(name, content string) (string, error)
	}{
		{"persist_text_artifact", hctx.PersistTextArtifact},
		{"persist_markdown_artifact", hctx.PersistMarkdownArtifact},
		{"persist_executable_script_artifact", hctx.PersistExecutableScriptArtifact},
	} {
		persist := extra.persist
		L.SetField(tbl, extra.name, L.NewFunction(func(L *lua.LState) int {
			name := L.CheckString(1)
			content := L.CheckString(2)
			path, err := persist(name, content)
			if err != nil {
				L.RaiseError("persist artifact %s: %v", name, err)
				return 0
			}
			L.Push(lua.LString(path))
			return 1
		}))
	}

	L.SetField(tbl, "activity", L.NewFunction(func(L *lua.LState) int {
		hctx.Activity(L.CheckString(1))
		return 0
	}))
	L.SetField(tbl, "inspection_diag", L.NewFunction(func(L *lua.LState) int {
		hctx.InspectionDiag(L.CheckString(1))
		return 0
	}))

	return tbl
}

// Close releases the hook's Lua state.
func (h *LuaHook) Close() {
	if h.state != nil {
		h.state.Close()
		h.state = nil
	}
}
