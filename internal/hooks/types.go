// Package hooks implements the plugin discovery, registration, and execution
// engine for publication lifecycle steps. Hooks are discovered by glob under
// the project root, classified by file extension into external executables
// and Lua function modules, and dispatched sequentially in discovery order.
package hooks

// Step names a lifecycle phase during which every registered hook is given a
// chance to act.
type Step string

const (
	StepInstall            Step = "install"
	StepDoctor             Step = "doctor"
	StepDescribe           Step = "describe"
	StepInspect            Step = "inspect"
	StepGenerate           Step = "generate"
	StepBuildPrepare       Step = "build-prepare"
	StepBuildFinalize      Step = "build-finalize"
	StepClean              Step = "clean"
	StepUpdate             Step = "update"
	StepHugoInit           Step = "hugo-init"
	StepHugoInspect        Step = "hugo-inspect"
	StepHugoClean          Step = "hugo-clean"
	StepObservabilityClean Step = "observability-clean"
)

// String returns the step's wire name as passed to hooks.
func (s Step) String() string { return string(s) }

// Nature identifies a plugin's registration kind. It is used for display and
// diagnostics only; dispatch branches on the plugin variant, not the nature.
type Nature string

const (
	NatureShellExecutable   Nature = "shell-file-executable"
	NatureLuaModule         Nature = "lua-module"
	NatureLuaModuleFunction Nature = "lua-module-function"
	NatureBuiltin           Nature = "builtin"
)

// Source identifies where a plugin came from. Immutable once created.
type Source struct {
	// SystemID is the canonical unique id, the absolute path for
	// filesystem-discovered hooks.
	SystemID string

	// FriendlyName is the display form, the path relative to the project
	// root for filesystem-discovered hooks.
	FriendlyName string

	// DiscoveryPath is the project root used for discovery.
	DiscoveryPath string

	// Glob is the pattern that matched this source.
	Glob string

	// AbsolutePath is the resolved file location.
	AbsolutePath string
}

// ValidRegistration wraps a successfully registered plugin.
type ValidRegistration struct {
	Plugin *Plugin
}

// RegistrationIssue records diagnostics for one problematic source.
type RegistrationIssue struct {
	Source      Source
	Diagnostics []string
}

// InvalidRegistration is returned (never thrown) when a discovered candidate
// cannot be turned into a usable plugin, so one malformed hook never aborts
// the discovery pass.
type InvalidRegistration struct {
	Source Source
	Issues []RegistrationIssue
}

// invalidFor builds an InvalidRegistration with a single issue.
func invalidFor(source Source, diagnostics ...string) *InvalidRegistration {
	return &InvalidRegistration{
		Source: source,
		Issues: []RegistrationIssue{{Source: source, Diagnostics: diagnostics}},
	}
}
