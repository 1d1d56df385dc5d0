package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultEnvPrefix is prepended to every environment variable handed to an
// external-executable hook.
const DefaultEnvPrefix = "PUBCTLHOOK_"

// ShellHook invokes an external executable through a POSIX shell. The
// lifecycle step, targets, verbosity flags, and custom arguments are appended
// to the command line, and run metadata is passed via prefixed environment
// variables.
type ShellHook struct {
	source    Source
	envPrefix string
}

// ShellCmd returns the full argument vector the hook would be (or is) invoked
// with. The first three tokens are the shell invocation wrapper; the
// remainder is the hook path followed by the fixed argument convention:
// step, targets, --verbose, --dry-run, then name/value pairs in insertion
// order.
func (h *ShellHook) ShellCmd(hctx *HookContext) []string {
	opts := hctx.Options
	argv := []string{"/bin/sh", "-c", `exec "$0" "$@"`, h.source.AbsolutePath, hctx.Command.ProxyCmd.String()}
	argv = append(argv, opts.Targets...)
	if opts.Verbose {
		argv = append(argv, "--verbose")
	}
	if opts.DryRun {
		argv = append(argv, "--dry-run")
	}
	for _, name := range opts.ArgumentNames {
		argv = append(argv, name, opts.Arguments[name])
	}
	return argv
}

// EnvVars returns the prefixed environment variables for this hook and step.
func (h *ShellHook) EnvVars(hctx *HookContext) map[string]string {
	opts := hctx.Options
	hookDir := filepath.Dir(h.source.AbsolutePath)

	vars := map[string]string{
		"LIFECYLE_STEP":    hctx.Command.ProxyCmd.String(),
		"VERBOSE":          boolFlag(opts.Verbose),
		"DRY_RUN":          boolFlag(opts.DryRun),
		"PROJECT_HOME_ABS": opts.ProjectHome,
		"PROJECT_HOME_REL": relOr(hookDir, opts.ProjectHome),
		"HOME_ABS":         hookDir,
		"HOME_REL":         relOr(opts.ProjectHome, hookDir),
		"NAME":             h.source.FriendlyName,
	}

	if optionsJSON, err := json.Marshal(opts.CLI); err == nil {
		vars["OPTIONS_JSON"] = string(optionsJSON)
	}
	if opts.Schedule != "" {
		vars["SCHEDULE"] = opts.Schedule
	}
	if len(opts.Targets) > 0 {
		vars["TARGETS"] = strings.Join(opts.Targets, " ")
	}
	if len(opts.Arguments) > 0 {
		if argsJSON, err := json.Marshal(opts.Arguments); err == nil {
			vars["ARGS_JSON"] = string(argsJSON)
		}
	}

	prefixed := make(map[string]string, len(vars))
	for k, v := range vars {
		prefixed[h.envPrefix+k] = v
	}
	return prefixed
}

// Execute spawns the hook process and waits for it to exit. A non-zero exit
// is returned as an error and aborts the lifecycle step upstream. Output is
// streamed when verbose, otherwise captured and surfaced only on failure.
func (h *ShellHook) Execute(ctx context.Context, hctx *HookContext) error {
	argv := h.ShellCmd(hctx)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = hctx.Options.ProjectHome
	cmd.Env = append(os.Environ(), flattenEnv(h.EnvVars(hctx))...)

	var captured bytes.Buffer
	if hctx.Options.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	}

	slog.Debug("Spawning executable hook",
		"hook", h.source.FriendlyName, "step", hctx.Command.ProxyCmd)

	if err := cmd.Run(); err != nil {
		if captured.Len() > 0 {
			return fmt.Errorf("hook %s failed: %w\noutput:\n%s",
				h.source.FriendlyName, err, captured.String())
		}
		return fmt.Errorf("hook %s failed: %w", h.source.FriendlyName, err)
	}
	return nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func relOr(base, target string) string {
	if rel, err := filepath.Rel(base, target); err == nil {
		return rel
	}
	return target
}

// flattenEnv renders the variable map as KEY=VALUE entries in sorted key
// order for reproducible process environments.
func flattenEnv(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, k+"="+vars[k])
	}
	return entries
}
