package hooks

import "context"

// Plugin is the uniform hook abstraction. Exactly one of the variant fields
// is non-nil; the manager dispatches on the variant with a single type check
// instead of scattered capability predicates.
type Plugin struct {
	Nature Nature
	Source Source

	Shell   *ShellHook
	Lua     *LuaHook
	Builtin *BuiltinHook
}

// Executable reports whether this plugin carries any runnable variant.
func (p *Plugin) Executable() bool {
	return p.Shell != nil || p.Lua != nil || p.Builtin != nil
}

// BuiltinHook is a library-provided plugin registered programmatically rather
// than discovered from disk.
type BuiltinHook struct {
	Fn func(ctx context.Context, hctx *HookContext) error
}

// NewBuiltinPlugin wraps a Go function as a plugin.
func NewBuiltinPlugin(name string, fn func(ctx context.Context, hctx *HookContext) error) *Plugin {
	return &Plugin{
		Nature:  NatureBuiltin,
		Source:  Source{SystemID: "builtin:" + name, FriendlyName: name},
		Builtin: &BuiltinHook{Fn: fn},
	}
}
