package artifacts

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts an artifact name into a filesystem-safe form:
// diacritics stripped, spaces collapsed to dashes, path separators removed
// from individual segments.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, name); err == nil {
		name = stripped
	}
	name = strings.ReplaceAll(name, " ", "-")
	// Keep forward slashes as directory separators but drop anything that
	// would escape the artifact root.
	parts := strings.Split(name, "/")
	clean := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, "/")
}
