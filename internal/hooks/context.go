package hooks

import (
	"git.home.luguber.info/inful/pubctl/internal/artifacts"
	"git.home.luguber.info/inful/pubctl/internal/config"
)

// Command is the lifecycle command carried by a hook context. ProxyCmd is the
// step being dispatched; Extra carries step-specific values (e.g. the
// publication identity for hugo-init).
type Command struct {
	ProxyCmd Step
	Extra    map[string]string
}

// Activity describes a unit of hook work reported through OnActivity.
type Activity struct {
	Message string
}

// HookContext is constructed fresh for every (plugin, step) pair immediately
// before dispatch and discarded after the call returns. All contexts of one
// run share the same Options record and artifact Persister.
type HookContext struct {
	Plugin    *Plugin
	Command   Command
	Options   *config.Options
	Arguments map[string]string

	// Persister backs the artifact callbacks below; hooks must go through
	// the callbacks so dry-run and root placement stay uniform.
	Persister *artifacts.Persister

	// OnActivity receives hook progress reports and returns the activity,
	// possibly annotated, for chaining.
	OnActivity func(Activity) Activity

	// OnInspectionDiags receives structured inspection diagnostics.
	OnInspectionDiags func(string)
}

// PersistTextArtifact persists a named text artifact under the project root.
func (c *HookContext) PersistTextArtifact(name, content string) (string, error) {
	return c.Persister.PersistText(name, content)
}

// PersistMarkdownArtifact persists markdown and its rendered HTML companion.
func (c *HookContext) PersistMarkdownArtifact(name, content string) (string, error) {
	return c.Persister.PersistMarkdown(name, content)
}

// PersistExecutableScriptArtifact persists a script with the execute bit set.
func (c *HookContext) PersistExecutableScriptArtifact(name, content string) (string, error) {
	return c.Persister.PersistExecutableScript(name, content)
}

// CreateMutableTextArtifact returns an empty accumulating artifact.
func (c *HookContext) CreateMutableTextArtifact(name string) *artifacts.MutableTextArtifact {
	return c.Persister.CreateMutableText(name)
}

// Activity reports a hook activity through the configured sink.
func (c *HookContext) Activity(msg string) {
	if c.OnActivity != nil {
		c.OnActivity(Activity{Message: msg})
	}
}

// InspectionDiag reports a structured inspection diagnostic.
func (c *HookContext) InspectionDiag(msg string) {
	if c.OnInspectionDiags != nil {
		c.OnInspectionDiags(msg)
	}
}
