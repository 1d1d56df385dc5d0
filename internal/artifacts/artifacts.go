// Package artifacts persists named text artifacts produced by hooks and the
// lifecycle controller. One Persister instance is shared by every hook in a
// run so all writes land under the same project root and honor the same
// dry-run flag.
package artifacts

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Persister writes artifacts under the project root. Markdown artifacts are
// additionally rendered to HTML under the HTML destination home.
type Persister struct {
	root     string
	htmlDest string
	dryRun   bool
	md       goldmark.Markdown
}

// NewPersister creates a Persister rooted at the project home.
func NewPersister(root, htmlDest string, dryRun bool) *Persister {
	return &Persister{
		root:     root,
		htmlDest: htmlDest,
		dryRun:   dryRun,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// MutableTextArtifact accumulates text content before persistence.
type MutableTextArtifact struct {
	name string
	buf  bytes.Buffer
}

// Name returns the artifact name as supplied at creation.
func (a *MutableTextArtifact) Name() string { return a.name }

// WriteString appends text to the artifact.
func (a *MutableTextArtifact) WriteString(s string) { a.buf.WriteString(s) }

// Write implements io.Writer.
func (a *MutableTextArtifact) Write(p []byte) (int, error) { return a.buf.Write(p) }

// Text returns the accumulated content.
func (a *MutableTextArtifact) Text() string { return a.buf.String() }

// CreateMutableText returns a new empty mutable text artifact.
func (p *Persister) CreateMutableText(name string) *MutableTextArtifact {
	return &MutableTextArtifact{name: NormalizeName(name)}
}

// PersistText writes a text artifact under the project root and returns its
// final path. In dry-run mode nothing is written.
func (p *Persister) PersistText(name, content string) (string, error) {
	return p.persist(p.root, name, []byte(content), 0o644)
}

// PersistMutable persists a previously created mutable artifact.
func (p *Persister) PersistMutable(a *MutableTextArtifact) (string, error) {
	return p.persist(p.root, a.name, a.buf.Bytes(), 0o644)
}

// PersistExecutableScript writes an artifact with the execute bit set.
func (p *Persister) PersistExecutableScript(name, content string) (string, error) {
	return p.persist(p.root, name, []byte(content), 0o755)
}

// PersistMarkdown writes the markdown source under the project root and a
// rendered HTML companion under the HTML destination home.
func (p *Persister) PersistMarkdown(name, content string) (string, error) {
	path, err := p.persist(p.root, name, []byte(content), 0o644)
	if err != nil {
		return "", err
	}

	var html bytes.Buffer
	if err := p.md.Convert([]byte(content), &html); err != nil {
		return "", fmt.Errorf("render markdown artifact %q: %w", name, err)
	}
	normalized := NormalizeName(name)
	htmlName := strings.TrimSuffix(normalized, filepath.Ext(normalized)) + ".html"
	if _, err := p.persist(p.htmlDest, htmlName, html.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// persist writes atomically (temp file then rename) so partially written
// artifacts are never observed by later hooks.
func (p *Persister) persist(dir, name string, content []byte, mode os.FileMode) (string, error) {
	name = NormalizeName(name)
	path := filepath.Join(dir, name)

	if p.dryRun {
		slog.Info("Dry run: would persist artifact", "path", path, "bytes", len(content))
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure artifact dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, mode); err != nil {
		return "", fmt.Errorf("write temp artifact %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("atomic rename artifact %q: %w", name, err)
	}
	slog.Debug("Persisted artifact", "path", path, "bytes", len(content))
	return path, nil
}
