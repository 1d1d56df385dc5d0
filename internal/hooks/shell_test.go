package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pubctl/internal/artifacts"
	"git.home.luguber.info/inful/pubctl/internal/config"
)

func testContext(t *testing.T, opts *config.Options, p *Plugin, step Step) *HookContext {
	t.Helper()
	return &HookContext{
		Plugin:    p,
		Command:   Command{ProxyCmd: step},
		Options:   opts,
		Arguments: opts.Arguments,
		Persister: artifacts.NewPersister(opts.ProjectHome, opts.HTMLDestHome, opts.DryRun),
	}
}

func shellPlugin(t *testing.T, root, name, script string) *Plugin {
	t.Helper()
	abs := writeFile(t, root, name, script, 0o755)
	valid, invalid := Register(sourceFor(t, root, abs))
	require.Nil(t, invalid)
	return valid.Plugin
}

func TestShellCmdArgumentConvention(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{
		Project:   root,
		Targets:   []string{"site-a", "site-b"},
		DryRun:    true,
		ArgNames:  []string{"color", "depth"},
		ArgValues: []string{"red", "3"},
	}, root)

	p := shellPlugin(t, root, "x.hook-pubctl.sh", "#!/bin/sh\n")
	argv := p.Shell.ShellCmd(testContext(t, opts, p, StepDoctor))

	// First three tokens are the shell invocation wrapper.
	require.Greater(t, len(argv), 3)
	stripped := argv[3:]
	assert.Equal(t, []string{
		p.Source.AbsolutePath,
		"doctor", "site-a", "site-b",
		"--verbose", "--dry-run",
		"color", "red", "depth", "3",
	}, stripped)
}

func TestShellCmdNoFlagsWhenQuiet(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)
	p := shellPlugin(t, root, "x.hook-pubctl.sh", "#!/bin/sh\n")

	argv := p.Shell.ShellCmd(testContext(t, opts, p, StepInstall))
	assert.Equal(t, []string{p.Source.AbsolutePath, "install"}, argv[3:])
}

func TestEnvVars(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{
		Project:   root,
		Schedule:  "0 4 * * *",
		Targets:   []string{"main", "docs"},
		ArgNames:  []string{"k"},
		ArgValues: []string{"v"},
		Verbose:   true,
	}, root)

	p := shellPlugin(t, root, "hooks/env.hook-pubctl.sh", "#!/bin/sh\n")
	vars := p.Shell.EnvVars(testContext(t, opts, p, StepGenerate))

	assert.Equal(t, "generate", vars["PUBCTLHOOK_LIFECYLE_STEP"])
	assert.Equal(t, "1", vars["PUBCTLHOOK_VERBOSE"])
	assert.Equal(t, "0", vars["PUBCTLHOOK_DRY_RUN"])
	assert.Equal(t, root, vars["PUBCTLHOOK_PROJECT_HOME_ABS"])
	assert.Equal(t, "..", vars["PUBCTLHOOK_PROJECT_HOME_REL"])
	assert.Equal(t, filepath.Join(root, "hooks"), vars["PUBCTLHOOK_HOME_ABS"])
	assert.Equal(t, "hooks", vars["PUBCTLHOOK_HOME_REL"])
	assert.Equal(t, filepath.Join("hooks", "env.hook-pubctl.sh"), vars["PUBCTLHOOK_NAME"])
	assert.Equal(t, "0 4 * * *", vars["PUBCTLHOOK_SCHEDULE"])
	assert.Equal(t, "main docs", vars["PUBCTLHOOK_TARGETS"])
	assert.JSONEq(t, `{"k":"v"}`, vars["PUBCTLHOOK_ARGS_JSON"])
	assert.Contains(t, vars["PUBCTLHOOK_OPTIONS_JSON"], `"verbose":true`)
}

func TestEnvVarsOptionalEntriesOmitted(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)
	p := shellPlugin(t, root, "x.hook-pubctl.sh", "#!/bin/sh\n")

	vars := p.Shell.EnvVars(testContext(t, opts, p, StepDoctor))
	_, hasSchedule := vars["PUBCTLHOOK_SCHEDULE"]
	_, hasTargets := vars["PUBCTLHOOK_TARGETS"]
	_, hasArgs := vars["PUBCTLHOOK_ARGS_JSON"]
	assert.False(t, hasSchedule)
	assert.False(t, hasTargets)
	assert.False(t, hasArgs)
}

func TestShellExecutePassesStepAndEnv(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)
	p := shellPlugin(t, root, "rec.hook-pubctl.sh",
		"#!/bin/sh\necho \"$1 $PUBCTLHOOK_LIFECYLE_STEP\" > observed.txt\n")

	err := p.Shell.Execute(context.Background(), testContext(t, opts, p, StepDoctor))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "observed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "doctor doctor", strings.TrimSpace(string(data)))
}

func TestShellExecuteNonZeroExitIsError(t *testing.T) {
	root := t.TempDir()
	opts := config.ResolveOptions(config.CLIValues{Project: root}, root)
	p := shellPlugin(t, root, "fail.hook-pubctl.sh", "#!/bin/sh\necho nope >&2\nexit 3\n")

	err := p.Shell.Execute(context.Background(), testContext(t, opts, p, StepBuildPrepare))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail.hook-pubctl.sh")
	assert.Contains(t, err.Error(), "nope")
}
