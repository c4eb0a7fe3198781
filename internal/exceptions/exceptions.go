// Package exceptions holds the hand-curated archive tables used when extracting
// text from a data directory, and the file name conventions they key on.
package exceptions

import (
	"iter"
	"maps"
	"path/filepath"
	"strings"
)

// Tables is read-only after construction. Keys are archive base names.
type Tables struct {
	// SkipFiles maps archives to leave out to the reason they are left out.
	SkipFiles map[string]string
	// KnownVariants maps archives to the full language tag they should be filed under.
	KnownVariants map[string]string
}

// Default returns a copy of the built-in tables.
func Default() Tables {
	return Tables{
		SkipFiles:     maps.Clone(defaultSkipFiles),
		KnownVariants: maps.Clone(defaultKnownVariants),
	}
}

// Skip reports whether the archive at path should be left out, and why.
func (t Tables) Skip(path string) (string, bool) {
	reason, ok := t.SkipFiles[filepath.Base(path)]
	return reason, ok
}

// Tag returns the language tag for p, preferring a known variant over the code in
// the file name.
func (t Tables) Tag(p Project) string {
	if v, ok := t.KnownVariants[filepath.Base(p.Path)]; ok {
		return v
	}
	return p.Language
}

// Project is an archive named <language>_<entry id>.zip.
type Project struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	EntryID  string `json:"entry_id"`
}

// ParseName splits an archive base name into language code and entry id. Names
// carrying a path separator or a ".." element are rejected.
func ParseName(name string) (lang, id string, ok bool) {
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", "", false
	}
	stem, found := strings.CutSuffix(name, ".zip")
	if !found {
		return "", "", false
	}
	lang, id, ok = strings.Cut(stem, "_")
	if !ok || lang == "" || id == "" || strings.Contains(id, "_") {
		return "", "", false
	}
	return lang, id, true
}

// Projects yields the archives among paths, in order. Names that do not follow
// the archive convention are passed over. A non-empty lang keeps only that language.
func Projects(paths []string, lang string) iter.Seq[Project] {
	return func(yield func(Project) bool) {
		for _, p := range paths {
			l, id, ok := ParseName(filepath.Base(p))
			if !ok {
				continue
			}
			if lang != "" && l != lang {
				continue
			}
			if !yield(Project{Path: p, Language: l, EntryID: id}) {
				return
			}
		}
	}
}
