package walker

import (
	"bufio"
	"bytes"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	".tocsync",
	".venv",
	".idea",
	".vscode",
}

// MatchesInclude reports whether relPath matches one of patterns. An empty
// pattern list includes everything.
func MatchesInclude(relPath string, patterns []string) bool {
	return len(patterns) == 0 || globAny(patterns, relPath)
}

// MatchesExclude reports whether relPath matches one of patterns. An empty
// pattern list excludes nothing.
func MatchesExclude(relPath string, patterns []string) bool {
	return len(patterns) > 0 && globAny(patterns, relPath)
}

// globAny matches each pattern against the full slash path and against its
// last element, so a bare "draft-*" works at any depth.
func globAny(patterns []string, relPath string) bool {
	p := filepath.ToSlash(relPath)
	base := path.Base(p)
	for _, pat := range patterns {
		pat = filepath.ToSlash(pat)
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// ignoreRule is one line of a .gitignore.
type ignoreRule struct {
	pattern string
	dirOnly bool // trailing slash
	rooted  bool // contains a slash, matched against the whole path
}

func (r ignoreRule) match(dirs []string, base, full string) bool {
	if r.rooted {
		return globAny([]string{r.pattern, r.pattern + "/**"}, full)
	}
	for _, d := range dirs {
		if ok, _ := path.Match(r.pattern, d); ok {
			return true
		}
	}
	if r.dirOnly {
		return false
	}
	ok, _ := path.Match(r.pattern, base)
	return ok
}

// rules is the compiled page filter for one walk.
type rules struct {
	include []string
	exclude []string
	ignore  []ignoreRule
}

func newRules(include, exclude []string, ignore []ignoreRule) *rules {
	if len(include) == 0 {
		include = DefaultInclude
	}
	return &rules{include: include, exclude: exclude, ignore: ignore}
}

func (r *rules) skipDir(name string) bool {
	for _, d := range DefaultExcludes {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// keep reports whether the file at rel is a page.
func (r *rules) keep(rel string) bool {
	if r.ignored(rel) {
		return false
	}
	return MatchesInclude(rel, r.include) && !MatchesExclude(rel, r.exclude)
}

func (r *rules) ignored(rel string) bool {
	if len(r.ignore) == 0 {
		return false
	}
	parts := strings.Split(rel, "/")
	dirs, base := parts[:len(parts)-1], parts[len(parts)-1]
	for _, rule := range r.ignore {
		if rule.match(dirs, base, rel) {
			return true
		}
	}
	return false
}

// readIgnoreFile parses the .gitignore at the root of fsys, if any.
func readIgnoreFile(fsys fs.FS) []ignoreRule {
	data, err := fs.ReadFile(fsys, ".gitignore")
	if err != nil {
		return nil
	}
	var out []ignoreRule
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		pat := strings.Trim(line, "/")
		if pat == "" {
			continue
		}
		out = append(out, ignoreRule{
			pattern: pat,
			dirOnly: strings.HasSuffix(line, "/"),
			rooted:  strings.Contains(pat, "/"),
		})
	}
	return out
}
