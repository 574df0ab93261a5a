// Package pathfilter loads tree ignore rules.
//
// A rule file is line oriented. Blank lines and lines starting with '#' are
// skipped. A rule ending in '/' is shallow: the path stays visible in the tree
// but its contents are not expanded. Every other rule is deep: the path and
// everything beneath it disappear from the walk entirely. Rules are literal
// root-relative prefixes; "node_modules/" matches "node_modules" and
// "node_modules/anything" but not "node_modules_old".
package pathfilter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Rules holds the compiled deep and shallow patterns.
type Rules struct {
	deep    []*regexp.Regexp
	shallow []*regexp.Regexp

	// gitignore is consulted as an extra deep rule when set.
	gitignore gitignore.IgnoreMatcher

	// Source is the rule file the rules were read from; empty when none existed.
	Source string
}

// New returns an empty rule set.
func New() *Rules {
	return &Rules{}
}

// Load reads rules from path. A missing file yields empty rules and no error.
// Any other failure also yields empty rules, together with an error the caller
// is expected to report as a warning.
func Load(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return New(), fmt.Errorf("could not read ignore file at %s: %w", path, err)
	}
	defer f.Close()

	rules, err := Parse(f)
	if err != nil {
		return New(), fmt.Errorf("could not read ignore file at %s: %w", path, err)
	}
	rules.Source = path
	return rules, nil
}

// Parse compiles rules from r.
func Parse(r io.Reader) (*Rules, error) {
	rules := New()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Add compiles a single rule and files it under deep or shallow.
func (r *Rules) Add(rule string) {
	shallow := strings.HasSuffix(rule, "/")
	escaped := regexp.QuoteMeta(strings.TrimSuffix(rule, "/"))
	// QuoteMeta output always compiles.
	re := regexp.MustCompile("^" + escaped + "(/|$)")
	if shallow {
		r.shallow = append(r.shallow, re)
	} else {
		r.deep = append(r.deep, re)
	}
}

// UseGitignore adds the patterns of a .gitignore file as deep rules. Paths
// passed to Excluded are interpreted relative to the directory holding it.
func (r *Rules) UseGitignore(path string) error {
	matcher, err := gitignore.NewGitIgnore(path, ".")
	if err != nil {
		return fmt.Errorf("could not parse gitignore file %s: %w", path, err)
	}
	r.gitignore = matcher
	return nil
}

// Deep reports whether the root-relative path matches a deep rule.
func (r *Rules) Deep(relPath string) bool {
	return matchAny(r.deep, normalize(relPath))
}

// Shallow reports whether the root-relative path matches a shallow rule.
func (r *Rules) Shallow(relPath string) bool {
	return matchAny(r.shallow, normalize(relPath))
}

// Excluded reports whether the walker should drop the path entirely.
func (r *Rules) Excluded(relPath string, isDir bool) bool {
	if r.Deep(relPath) {
		return true
	}
	if r.gitignore != nil {
		return r.gitignore.Match(filepath.FromSlash(normalize(relPath)), isDir)
	}
	return false
}

// Counts returns the number of deep and shallow rules.
func (r *Rules) Counts() (deep, shallow int) {
	return len(r.deep), len(r.shallow)
}

func matchAny(patterns []*regexp.Regexp, path string) bool {
	for _, re := range patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// normalize converts Windows separators, matching how rules are written.
func normalize(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
