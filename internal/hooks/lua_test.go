package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pubctl/internal/config"
)

func luaPlugin(t *testing.T, root, name, code string) *Plugin {
	t.Helper()
	abs := writeFile(t, root, name, code, 0o644)
	valid, invalid := Register(sourceFor(t, root, abs))
	require.Nil(t, invalid)
	t.Cleanup(valid.Plugin.Lua.Close)
	return valid.Plugin
}

func TestLuaExecuteReceivesContext(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{
		Project:   root,
		Targets:   []string{"alpha"},
		ArgNames:  []string{"who"},
		ArgValues: []string{"world"},
		DryRun:    true,
	}, root)

	p := luaPlugin(t, root, "ctx.hook-pubctl.lua", `
return function(ctx)
  assert(ctx.step == "generate", "unexpected step: " .. tostring(ctx.step))
  assert(ctx.dry_run == true)
  assert(ctx.verbose == true)
  assert(ctx.targets[1] == "alpha")
  assert(ctx.args.who == "world")
  assert(#ctx.transaction_id > 0)
  return {}
end
`)

	hctx := testContext(t, opts, p, StepGenerate)
	require.NoError(t, p.Lua.Execute(context.Background(), hctx))
}

func TestLuaExecutePersistsArtifact(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)

	p := luaPlugin(t, root, "persist.hook-pubctl.lua", `
return function(ctx)
  ctx.persist_text_artifact("from-lua.txt", "written by hook")
  return {}
end
`)

	require.NoError(t, p.Lua.Execute(context.Background(), testContext(t, opts, p, StepInstall)))

	data, err := os.ReadFile(filepath.Join(root, "from-lua.txt"))
	require.NoError(t, err)
	assert.Equal(t, "written by hook", string(data))
}

func TestLuaExecuteActivityAndDiagSinks(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)

	p := luaPlugin(t, root, "sink.hook-pubctl.lua", `
return function(ctx)
  ctx.activity("working")
  ctx.inspection_diag("all clear")
  return {}
end
`)

	var activities, diags []string
	hctx := testContext(t, opts, p, StepInspect)
	hctx.OnActivity = func(a Activity) Activity {
		activities = append(activities, a.Message)
		return a
	}
	hctx.OnInspectionDiags = func(d string) { diags = append(diags, d) }

	require.NoError(t, p.Lua.Execute(context.Background(), hctx))
	assert.Equal(t, []string{"working"}, activities)
	assert.Equal(t, []string{"all clear"}, diags)
}

func TestLuaExecuteErrorPropagates(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)

	p := luaPlugin(t, root, "err.hook-pubctl.lua", `
return function(ctx)
  error("hook exploded")
end
`)

	err := p.Lua.Execute(context.Background(), testContext(t, opts, p, StepClean))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook exploded")
}

func TestLuaExecuteRepeatable(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)

	p := luaPlugin(t, root, "count.hook-pubctl.lua", `
local calls = 0
return function(ctx)
  calls = calls + 1
  ctx.activity(tostring(calls))
  return {}
end
`)

	var seen []string
	hctx := testContext(t, opts, p, StepDoctor)
	hctx.OnActivity = func(a Activity) Activity {
		seen = append(seen, a.Message)
		return a
	}

	require.NoError(t, p.Lua.Execute(context.Background(), hctx))
	require.NoError(t, p.Lua.Execute(context.Background(), hctx))
	assert.Equal(t, []string{"1", "2"}, seen)
}
