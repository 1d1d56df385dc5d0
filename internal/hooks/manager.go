package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/pubctl/internal/artifacts"
	"git.home.luguber.info/inful/pubctl/internal/config"
	"git.home.luguber.info/inful/pubctl/internal/observability"
)

// Manager owns the registered plugin collection and dispatches lifecycle
// commands to every plugin sequentially, in registration order. Registration
// order equals discovery order, which is the ordering hooks are allowed to
// rely on (later hooks may depend on files earlier hooks wrote).
type Manager struct {
	opts      *config.Options
	persister *artifacts.Persister

	valid   []*Plugin
	invalid []*InvalidRegistration

	// OnActivity and OnInspectionDiags are threaded into every HookContext.
	OnActivity        func(Activity) Activity
	OnInspectionDiags func(string)
}

// NewManager creates a manager bound to one run's options. The shared
// Persister keeps all hook artifact writes under the same project root with
// the same dry-run behavior.
func NewManager(opts *config.Options) *Manager {
	return &Manager{
		opts:      opts,
		persister: artifacts.NewPersister(opts.ProjectHome, opts.HTMLDestHome, opts.DryRun),
	}
}

// Options returns the shared, immutable run options.
func (m *Manager) Options() *config.Options { return m.opts }

// Init discovers hook candidates across all configured globs and registers
// each one, partitioning results into valid and invalid collections. It is
// not an error for discovery to find nothing, and invalid hooks never abort
// the pass.
func (m *Manager) Init(ctx context.Context) {
	for _, candidate := range Discover(m.opts.ProjectHome, m.opts.HookGlobs) {
		source := NewSource(m.opts.ProjectHome, candidate)
		valid, invalid := Register(source)
		if invalid != nil {
			m.invalid = append(m.invalid, invalid)
			observability.DebugContext(ctx, "Hook registration failed",
				slog.String("hook", source.FriendlyName),
				slog.Any("diagnostics", invalid.Issues[0].Diagnostics))
			continue
		}
		m.valid = append(m.valid, valid.Plugin)
		observability.DebugContext(ctx, "Hook registered",
			slog.String("hook", source.FriendlyName),
			slog.String("nature", string(valid.Plugin.Nature)))
	}
	observability.InfoContext(ctx, "Hook discovery complete",
		slog.Int("valid", len(m.valid)), slog.Int("invalid", len(m.invalid)))
}

// RegisterBuiltin adds a programmatic plugin. Builtins are appended after
// filesystem-discovered plugins unless unshift is set.
func (m *Manager) RegisterBuiltin(p *Plugin, unshift bool) {
	if unshift {
		m.valid = append([]*Plugin{p}, m.valid...)
		return
	}
	m.valid = append(m.valid, p)
}

// ValidPlugins returns registered plugins in execution order.
func (m *Manager) ValidPlugins() []*Plugin { return m.valid }

// InvalidPlugins returns diagnosed registration failures in discovery order.
func (m *Manager) InvalidPlugins() []*InvalidRegistration { return m.invalid }

// LuaModuleIDs returns the source ids of every native-module plugin, for the
// update step's dependency updater.
func (m *Manager) LuaModuleIDs() []string {
	var ids []string
	for _, p := range m.valid {
		if p.Lua != nil {
			ids = append(ids, p.Source.SystemID)
		}
	}
	return ids
}

// Execute dispatches the command to every valid plugin in registration
// order, strictly sequentially: each hook is awaited before the next starts.
// A hook error aborts the whole call; catching it is the responsibility of
// the outer CLI handler, not this loop.
func (m *Manager) Execute(ctx context.Context, cmd Command) error {
	for _, p := range m.valid {
		hctx := m.newHookContext(p, cmd)
		hookCtx := observability.WithHook(ctx, p.Source.FriendlyName)

		switch {
		case p.Shell != nil:
			observability.DebugContext(hookCtx, "Executing shell hook")
			if err := p.Shell.Execute(hookCtx, hctx); err != nil {
				return err
			}
		case p.Lua != nil:
			observability.DebugContext(hookCtx, "Executing lua hook")
			if err := p.Lua.Execute(hookCtx, hctx); err != nil {
				return err
			}
		case p.Builtin != nil:
			observability.DebugContext(hookCtx, "Executing builtin hook")
			if err := p.Builtin.Fn(hookCtx, hctx); err != nil {
				return err
			}
		default:
			// Registered without any runnable variant; diagnose and move on.
			observability.WarnContext(hookCtx, "Plugin has no executable capability, skipping")
		}
	}
	return nil
}

// newHookContext binds one plugin and one command to the shared run state.
// Fresh per dispatch; never reused across plugins or steps.
func (m *Manager) newHookContext(p *Plugin, cmd Command) *HookContext {
	return &HookContext{
		Plugin:            p,
		Command:           cmd,
		Options:           m.opts,
		Arguments:         m.opts.Arguments,
		Persister:         m.persister,
		OnActivity:        m.OnActivity,
		OnInspectionDiags: m.OnInspectionDiags,
	}
}

// ValidateHooks writes a dry audit of every registered plugin: friendly
// name, nature, and for shell hooks the exact command line and environment
// the DOCTOR step would use. It reuses the same context and command
// construction as real execution but never spawns a process or calls a
// function, and it mutates no manager state.
func (m *Manager) ValidateHooks(w io.Writer) {
	for _, p := range m.valid {
		fmt.Fprintf(w, "valid: %s (%s)\n", p.Source.FriendlyName, p.Nature)
		if p.Lua != nil && p.Lua.Detached {
			fmt.Fprintf(w, "  detached: true\n")
		}
		if p.Shell != nil {
			hctx := m.newHookContext(p, Command{ProxyCmd: StepDoctor})
			fmt.Fprintf(w, "  cmd: %v\n", p.Shell.ShellCmd(hctx))
			for _, entry := range flattenEnv(p.Shell.EnvVars(hctx)) {
				fmt.Fprintf(w, "  env: %s\n", entry)
			}
		}
	}
	for _, inv := range m.invalid {
		fmt.Fprintf(w, "invalid: %s\n", inv.Source.FriendlyName)
		for _, issue := range inv.Issues {
			for _, diag := range issue.Diagnostics {
				fmt.Fprintf(w, "  diagnostic: %s\n", diag)
			}
		}
	}
}

// Close releases per-plugin resources (Lua states).
func (m *Manager) Close() {
	for _, p := range m.valid {
		if p.Lua != nil {
			p.Lua.Close()
		}
	}
}
