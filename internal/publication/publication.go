// Package publication manages named site-configuration suppliers. A
// publication describes one publishable site: its identity, Hugo settings,
// and the content modules it publishes. Publications are declared in
// publications.yaml at the project home and surfaced through the inspect
// step's listings.
package publication

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"gopkg.in/yaml.v3"

	pubctlerrors "git.home.luguber.info/inful/pubctl/internal/errors"
)

// ConfigFileName is the publication registry file under the project home.
const ConfigFileName = "publications.yaml"

// Publication is one named site-configuration supplier.
type Publication struct {
	Name        string         `yaml:"name"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description,omitempty"`
	BaseURL     string         `yaml:"baseURL,omitempty"`
	Theme       string         `yaml:"theme,omitempty"`
	Modules     []string       `yaml:"modules,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
}

// Registry holds the declared publications in file order.
type Registry struct {
	Publications []Publication `yaml:"publications"`
}

// Load reads the registry from the project home. A missing file yields an
// empty registry; a malformed one is a configuration error.
func Load(projectHome string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Join(projectHome, ConfigFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{}, nil
		}
		return nil, pubctlerrors.Wrap(err, pubctlerrors.CategoryConfig, pubctlerrors.SeverityFatal, "read publication registry")
	}
	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, pubctlerrors.Wrap(err, pubctlerrors.CategoryConfig, pubctlerrors.SeverityFatal, "decode publication registry")
	}
	return &reg, nil
}

// Get returns the publication with the given name.
func (r *Registry) Get(name string) (*Publication, bool) {
	for i := range r.Publications {
		if r.Publications[i].Name == name {
			return &r.Publications[i], true
		}
	}
	return nil, false
}

// Names lists publication names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Publications))
	for _, p := range r.Publications {
		names = append(names, p.Name)
	}
	return names
}

// PublishableModules returns the union of all module names across
// publications, sorted and deduplicated.
func (r *Registry) PublishableModules() []string {
	seen := map[string]bool{}
	var modules []string
	for _, p := range r.Publications {
		for _, m := range p.Modules {
			if !seen[m] {
				seen[m] = true
				modules = append(modules, m)
			}
		}
	}
	sort.Strings(modules)
	return modules
}

// ListPublications writes the publication listing for the inspect step.
func (r *Registry) ListPublications(w io.Writer) {
	if len(r.Publications) == 0 {
		fmt.Fprintln(w, "no publications declared")
		return
	}
	for _, p := range r.Publications {
		fmt.Fprintf(w, "%s\t%s\t%d modules\n", p.Name, p.Title, len(p.Modules))
	}
}

// ListPublishableModules writes the module listing for the inspect step.
func (r *Registry) ListPublishableModules(w io.Writer) {
	modules := r.PublishableModules()
	if len(modules) == 0 {
		fmt.Fprintln(w, "no publishable modules declared")
		return
	}
	for _, m := range modules {
		fmt.Fprintln(w, m)
	}
}

// WriteHugoConfig renders the publication as hugo.yaml in dir. Build metadata
// (generation timestamp, HEAD commit when the project is a repository) lands
// under params.
func (p *Publication) WriteHugoConfig(dir, projectHome string) error {
	params := map[string]any{
		"build_date": time.Now().Format("2006-01-02 15:04:05"),
	}
	for k, v := range p.Params {
		params[k] = v
	}
	if head := HeadCommit(projectHome); head != "" {
		params["build_commit"] = head
	}

	root := map[string]any{
		"title":        p.Title,
		"baseURL":      p.BaseURL,
		"languageCode": "en",
		"params":       params,
	}
	if p.Description != "" {
		root["description"] = p.Description
	}
	if p.Theme != "" {
		root["theme"] = p.Theme
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryInternal, pubctlerrors.SeverityFatal, "marshal hugo config")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryFileSystem, pubctlerrors.SeverityFatal, "ensure hugo config dir")
	}
	path := filepath.Join(dir, "hugo.yaml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryFileSystem, pubctlerrors.SeverityFatal, "write hugo config")
	}
	if err := os.Rename(tmp, path); err != nil {
		return pubctlerrors.Wrap(err, pubctlerrors.CategoryFileSystem, pubctlerrors.SeverityFatal, "rename hugo config")
	}
	return nil
}

// HeadCommit resolves the current HEAD hash when projectHome is a git
// repository. Non-repositories and detached edge cases yield "".
func HeadCommit(projectHome string) string {
	repo, err := gogit.PlainOpen(projectHome)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
