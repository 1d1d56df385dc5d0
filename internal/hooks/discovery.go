package hooks

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Candidate is a file yielded by glob discovery, before registration.
type Candidate struct {
	AbsolutePath string
	Glob         string
}

// Discover expands each glob relative to root and yields candidate files in
// glob-list order, then lexical path order within a glob. Non-file matches
// are skipped silently and a glob matching nothing is not an error, so the
// result is deterministic for a given filesystem state and glob list.
func Discover(root string, globs []string) []Candidate {
	var candidates []Candidate
	for _, glob := range globs {
		matches, err := filepath.Glob(filepath.Join(root, glob))
		if err != nil {
			// Malformed pattern; skip it and keep discovering.
			slog.Warn("Invalid hook glob pattern", "glob", glob, "error", err)
			continue
		}
		// Registration order follows lexical path order within a glob; sort
		// explicitly instead of relying on Glob's unspecified ordering.
		sort.Strings(matches)
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			abs, err := filepath.Abs(match)
			if err != nil {
				abs = match
			}
			candidates = append(candidates, Candidate{AbsolutePath: abs, Glob: glob})
		}
	}
	return candidates
}

// NewSource builds the plugin source record for a discovered candidate.
func NewSource(root string, c Candidate) Source {
	friendly := c.AbsolutePath
	if rel, err := filepath.Rel(root, c.AbsolutePath); err == nil {
		friendly = rel
	}
	return Source{
		SystemID:      c.AbsolutePath,
		FriendlyName:  friendly,
		DiscoveryPath: root,
		Glob:          c.Glob,
		AbsolutePath:  c.AbsolutePath,
	}
}
