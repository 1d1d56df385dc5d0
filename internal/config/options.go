// Package config resolves CLI input into the immutable per-run Options record
// shared by the hook manager and lifecycle controller.
package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultHookGlob is the universal hook pattern. It is always placed first in
// the glob list so hooks it matches register (and therefore execute) before
// hooks matched by user-supplied patterns.
const DefaultHookGlob = "*.hook-pubctl.*"

// CLIValues mirrors the parsed command-line flags relevant to option
// resolution. The full record is serialized into PUBCTLHOOK_OPTIONS_JSON for
// external-executable hooks, so field names are part of the hook IPC contract.
type CLIValues struct {
	Project   string   `json:"project,omitempty"`
	Union     string   `json:"union,omitempty"`
	HTMLDest  string   `json:"htmlDest,omitempty"`
	Hooks     []string `json:"hooks,omitempty"`
	Targets   []string `json:"targets,omitempty"`
	ArgNames  []string `json:"arg,omitempty"`
	ArgValues []string `json:"argv,omitempty"`
	Schedule  string   `json:"schedule,omitempty"`
	Verbose   bool     `json:"verbose"`
	DryRun    bool     `json:"dryRun"`
	TxID      string   `json:"txId,omitempty"`
	Updater   string   `json:"updater,omitempty"`
}

// Options is the resolved, immutable per-run configuration. It is constructed
// once by ResolveOptions and never mutated afterwards; every component holds
// the same pointer.
type Options struct {
	// ProjectHome is the absolute project root used for hook discovery.
	ProjectHome string

	// UnionHome is the workspace root shared across publications.
	UnionHome string

	// HTMLDestHome is where rendered artifacts are copied on build finalize.
	HTMLDestHome string

	// HookGlobs are the discovery patterns, default glob first.
	HookGlobs []string

	// Targets are positional target identifiers passed through to hooks.
	Targets []string

	// Arguments holds custom name/value pairs from --arg/--argv.
	// ArgumentNames preserves insertion order for reproducible iteration.
	Arguments     map[string]string
	ArgumentNames []string

	// Schedule is an opaque cron-like string handed to hooks, never
	// interpreted by pubctl itself.
	Schedule string

	Verbose bool
	DryRun  bool

	// BuildHost identifies the machine performing the run.
	BuildHost string

	// TransactionID is a UUID correlating all activity of one run.
	TransactionID string

	// UpdaterCommand, when set, is invoked by the update step with the
	// source ids of every native-module hook.
	UpdaterCommand string

	// CLI is the raw parsed input, kept for OPTIONS_JSON serialization.
	CLI CLIValues
}

// ResolveOptions builds the Options record from parsed CLI values and a
// caller-supplied default project path. It never fails: malformed input
// degrades with a logged warning per the documented policy.
func ResolveOptions(cli CLIValues, defaultProject string) *Options {
	opts := &Options{
		Schedule: cli.Schedule,
		Targets:  append([]string(nil), cli.Targets...),
		DryRun:   cli.DryRun,
		// Dry-run implies verbose, not vice versa.
		Verbose: cli.Verbose || cli.DryRun,
		CLI:     cli,
	}

	opts.ProjectHome = resolveProjectHome(cli.Project, defaultProject)
	opts.UnionHome = resolveRelativeTo(cli.Union, opts.ProjectHome)
	if opts.UnionHome == "" {
		opts.UnionHome = opts.ProjectHome
	}
	opts.HTMLDestHome = resolveRelativeTo(cli.HTMLDest, opts.ProjectHome)
	if opts.HTMLDestHome == "" {
		opts.HTMLDestHome = filepath.Join(opts.ProjectHome, "public")
	}

	opts.HookGlobs = resolveHookGlobs(cli.Hooks)
	opts.Arguments, opts.ArgumentNames = resolveArguments(cli.ArgNames, cli.ArgValues)

	if host, err := os.Hostname(); err == nil {
		opts.BuildHost = host
	}

	opts.TransactionID = cli.TxID
	if opts.TransactionID == "" {
		opts.TransactionID = uuid.NewString()
	}

	opts.UpdaterCommand = cli.Updater
	if opts.UpdaterCommand == "" {
		opts.UpdaterCommand = os.Getenv("PUBCTL_UPDATER")
	}

	return opts
}

func resolveProjectHome(cliValue, defaultProject string) string {
	home := cliValue
	if home == "" {
		home = defaultProject
	}
	if home == "" {
		if cwd, err := os.Getwd(); err == nil {
			home = cwd
		} else {
			home = "."
		}
	}
	if abs, err := filepath.Abs(home); err == nil {
		return abs
	}
	return home
}

// resolveRelativeTo normalizes path against base when relative. Empty input
// stays empty so callers can apply their own default.
func resolveRelativeTo(path, base string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// resolveHookGlobs unshifts the default glob unless already supplied.
// Discovery order follows glob order, so the default glob runs first.
func resolveHookGlobs(globs []string) []string {
	for _, g := range globs {
		if g == DefaultHookGlob {
			return append([]string(nil), globs...)
		}
	}
	return append([]string{DefaultHookGlob}, globs...)
}

// resolveArguments zips the parallel --arg/--argv lists. On any length
// mismatch the entire map is left empty and a warning is emitted; partial
// pairing would silently change hook behavior mid-list.
func resolveArguments(names, values []string) (map[string]string, []string) {
	if len(names) != len(values) {
		if len(names) > 0 || len(values) > 0 {
			slog.Warn("--arg and --argv counts must be balanced, ignoring custom arguments",
				"args", len(names), "argvs", len(values))
		}
		return map[string]string{}, nil
	}
	args := make(map[string]string, len(names))
	order := make([]string, 0, len(names))
	for i, name := range names {
		if _, seen := args[name]; !seen {
			order = append(order, name)
		}
		args[name] = values[i]
	}
	return args, order
}
