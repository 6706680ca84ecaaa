// Package ignore decides which working-tree paths are never tracked.
//
// Rules live in a TOML file with four lists:
//
//	prefixes   = [".git"]          # path starts with the prefix
//	extensions = [".swp"]          # file extension, dot included
//	files      = [".DS_Store"]     # exact base name of a file
//	dirs       = ["__pycache__"]   # any path component
//
// The repository state directory is always ignored regardless of the rules.
package ignore

import (
	"bytes"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/javanhut/cvs/internal/fsadapter"
)

// Rules is the on-disk ignore configuration.
type Rules struct {
	Prefixes   []string `toml:"prefixes"`
	Extensions []string `toml:"extensions"`
	Files      []string `toml:"files"`
	Dirs       []string `toml:"dirs"`
}

// DefaultRules returns the rules written by init.
func DefaultRules() Rules {
	return Rules{
		Prefixes:   []string{".git"},
		Extensions: []string{".swp", ".tmp"},
		Files:      []string{".DS_Store", "Thumbs.db"},
		Dirs:       []string{"__pycache__", "node_modules"},
	}
}

// Matcher evaluates Rules against relative paths.
type Matcher struct {
	stateDir string
	rules    Rules
}

// NewMatcher returns a Matcher that always ignores stateDir.
func NewMatcher(stateDir string, rules Rules) *Matcher {
	return &Matcher{stateDir: path.Clean(stateDir), rules: rules}
}

// Rules returns a copy of the active rules.
func (m *Matcher) Rules() Rules {
	return Rules{
		Prefixes:   slices.Clone(m.rules.Prefixes),
		Extensions: slices.Clone(m.rules.Extensions),
		Files:      slices.Clone(m.rules.Files),
		Dirs:       slices.Clone(m.rules.Dirs),
	}
}

// IsIgnored reports whether relPath must not be tracked.
func (m *Matcher) IsIgnored(relPath string) bool {
	relPath = path.Clean(relPath)
	if relPath == m.stateDir || strings.HasPrefix(relPath, m.stateDir+"/") {
		return true
	}

	for _, prefix := range m.rules.Prefixes {
		if prefix != "" && strings.HasPrefix(relPath, prefix) {
			return true
		}
	}

	base := path.Base(relPath)
	if slices.Contains(m.rules.Files, base) {
		return true
	}
	if ext := path.Ext(base); ext != "" && slices.Contains(m.rules.Extensions, ext) {
		return true
	}
	for _, component := range strings.Split(relPath, "/") {
		if slices.Contains(m.rules.Dirs, component) {
			return true
		}
	}
	return false
}

// Load reads rules from name. A missing file yields empty rules.
func Load(fs *fsadapter.Adapter, name string) (Rules, error) {
	var rules Rules

	exists, err := fs.Exists(name)
	if err != nil {
		return rules, err
	}
	if !exists {
		return rules, nil
	}

	data, err := fs.ReadFile(name)
	if err != nil {
		return rules, fmt.Errorf("read ignore rules: %w", err)
	}
	if _, err := toml.Decode(string(data), &rules); err != nil {
		return rules, fmt.Errorf("parse ignore rules %s: %w", name, err)
	}
	return rules, nil
}

// Save writes rules to name.
func Save(fs *fsadapter.Adapter, name string, rules Rules) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(rules); err != nil {
		return fmt.Errorf("encode ignore rules: %w", err)
	}
	return fs.WriteFileAtomic(name, buf.Bytes())
}

// AddFiles appends explicit file names to the rules, skipping duplicates.
func (r *Rules) AddFiles(names ...string) int {
	added := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || slices.Contains(r.Files, name) {
			continue
		}
		r.Files = append(r.Files, name)
		added++
	}
	return added
}
