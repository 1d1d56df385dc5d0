package controller

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pubctl/internal/config"
	"git.home.luguber.info/inful/pubctl/internal/health"
	"git.home.luguber.info/inful/pubctl/internal/hooks"
	"git.home.luguber.info/inful/pubctl/internal/metrics"
)

func newTestController(t *testing.T, cli config.CLIValues) *Controller {
	t.Helper()
	if cli.Project == "" {
		cli.Project = t.TempDir()
	}
	opts := config.ResolveOptions(cli, "")
	c := New(opts)
	c.Stdout = &bytes.Buffer{}
	require.NoError(t, c.Init(context.Background()))
	t.Cleanup(c.Close)
	return c
}

// captureLogs routes slog output into a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// recordingPlugin appends a marker to order every time it runs.
func recordingPlugin(name string, order *[]string) *hooks.Plugin {
	return hooks.NewBuiltinPlugin(name, func(context.Context, *hooks.HookContext) error {
		*order = append(*order, name)
		return nil
	})
}

func TestInstallDispatchesHooks(t *testing.T) {
	c := newTestController(t, config.CLIValues{})
	var order []string
	c.Manager().RegisterBuiltin(recordingPlugin("first", &order), false)
	c.Manager().RegisterBuiltin(recordingPlugin("second", &order), false)

	require.NoError(t, c.Install(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCleanRunsHooksBeforeDeleting(t *testing.T) {
	dir := t.TempDir()
	publicDir := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(publicDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.sum"), []byte("x"), 0o644))

	c := newTestController(t, config.CLIValues{Project: dir})

	var sawPublic bool
	c.Manager().RegisterBuiltin(hooks.NewBuiltinPlugin("observer", func(context.Context, *hooks.HookContext) error {
		_, err := os.Stat(publicDir)
		sawPublic = err == nil
		return nil
	}), false)

	require.NoError(t, c.Clean(context.Background()))

	assert.True(t, sawPublic, "hook must run before deletion")
	assert.NoDirExists(t, publicDir)
	assert.NoFileExists(t, filepath.Join(dir, "go.sum"))
}

func TestCleanHookFailureLeavesTreeUntouched(t *testing.T) {
	dir := t.TempDir()
	publicDir := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(publicDir, 0o755))

	c := newTestController(t, config.CLIValues{Project: dir})
	c.Manager().RegisterBuiltin(hooks.NewBuiltinPlugin("boom", func(context.Context, *hooks.HookContext) error {
		return assert.AnError
	}), false)

	require.Error(t, c.Clean(context.Background()))
	assert.DirExists(t, publicDir)
}

func TestCleanDryRunEmitsWouldDelete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public"), 0o755))
	logs := captureLogs(t)

	c := newTestController(t, config.CLIValues{Project: dir, DryRun: true})
	require.NoError(t, c.Clean(context.Background()))

	out := logs.String()
	assert.Contains(t, out, "would delete")
	assert.Contains(t, out, "go.sum")
	assert.Contains(t, out, "public")
	assert.Contains(t, out, "resources")
	assert.DirExists(t, filepath.Join(dir, "public"))
}

func TestInspectShortCircuitsListings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "publications.yaml"), []byte(`
publications:
  - name: docs
    title: Documentation
    modules: [guides]
`), 0o644))

	c := newTestController(t, config.CLIValues{Project: dir, Targets: []string{"publications"}})
	var order []string
	c.Manager().RegisterBuiltin(recordingPlugin("hook", &order), false)

	require.NoError(t, c.Inspect(context.Background()))

	out := c.Stdout.(*bytes.Buffer).String()
	assert.Contains(t, out, "docs")
	assert.Empty(t, order, "listing must not dispatch hooks")
}

func TestInspectDispatchesBuiltinDiagnostics(t *testing.T) {
	c := newTestController(t, config.CLIValues{})
	var diags []string
	c.Manager().OnInspectionDiags = func(msg string) { diags = append(diags, msg) }

	require.NoError(t, c.Inspect(context.Background()))
	assert.NotEmpty(t, diags)
	assert.Contains(t, diags[0], "valid hooks")
}

func TestBuildPrepareWritesBuildingHealthFirst(t *testing.T) {
	dir := t.TempDir()
	c := newTestController(t, config.CLIValues{Project: dir})

	var statusDuringHook health.Status
	c.Manager().RegisterBuiltin(hooks.NewBuiltinPlugin("probe", func(context.Context, *hooks.HookContext) error {
		rec, err := health.Read(c.Options().HTMLDestHome)
		if err == nil {
			statusDuringHook = rec.Status
		}
		return nil
	}), false)

	require.NoError(t, c.BuildPrepare(context.Background()))
	assert.Equal(t, health.StatusBuilding, statusDuringHook)
}

func TestBuildFinalizePublishesOutcome(t *testing.T) {
	dir := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ReportFileName), []byte(`{
		"schema_version": 1,
		"start": "2026-08-30T10:00:00Z",
		"end": "2026-08-30T10:00:05Z",
		"rendered_pages": 3,
		"outcome": "success"
	}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "public", "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public", "docs", "index.html"), []byte("<html>"), 0o644))

	c := newTestController(t, config.CLIValues{Project: dir, HTMLDest: dest})
	prom := metrics.NewPrometheusRecorder(nil)
	c.Recorder = prom
	c.Prom = prom

	require.NoError(t, c.BuildFinalize(context.Background()))

	rec, err := health.Read(dest)
	require.NoError(t, err)
	assert.Equal(t, health.StatusHealthy, rec.Status)
	assert.FileExists(t, filepath.Join(dest, MetricsFileName))
	assert.FileExists(t, filepath.Join(dest, "docs", "index.html"))
}

func TestBuildFinalizeMissingReportIsFailed(t *testing.T) {
	dir := t.TempDir()
	dest := t.TempDir()
	c := newTestController(t, config.CLIValues{Project: dir, HTMLDest: dest})

	require.NoError(t, c.BuildFinalize(context.Background()))

	rec, err := health.Read(dest)
	require.NoError(t, err)
	assert.Equal(t, health.StatusFailed, rec.Status)
}

func TestUpdateWithoutUpdaterStillDispatchesHooks(t *testing.T) {
	c := newTestController(t, config.CLIValues{})
	var order []string
	c.Manager().RegisterBuiltin(recordingPlugin("update-hook", &order), false)

	require.NoError(t, c.Update(context.Background()))
	assert.Equal(t, []string{"update-hook"}, order)
}

func TestHugoInitUnknownPublication(t *testing.T) {
	c := newTestController(t, config.CLIValues{})
	assert.Error(t, c.HugoInit(context.Background(), "absent"))
}

func TestHugoInitWritesConfigAndDispatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "publications.yaml"), []byte(`
publications:
  - name: docs
    title: Documentation
`), 0o644))

	c := newTestController(t, config.CLIValues{Project: dir})
	var steps []hooks.Step
	c.Manager().RegisterBuiltin(hooks.NewBuiltinPlugin("rec", func(_ context.Context, hctx *hooks.HookContext) error {
		steps = append(steps, hctx.Command.ProxyCmd)
		assert.Equal(t, "docs", hctx.Command.Extra["publication"])
		return nil
	}), false)

	require.NoError(t, c.HugoInit(context.Background(), "docs"))
	assert.Equal(t, []hooks.Step{hooks.StepHugoInit}, steps)
	assert.FileExists(t, filepath.Join(dir, "hugo.yaml"))
}
