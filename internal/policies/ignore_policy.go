package policies

import (
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// IgnorePolicy decides which candidate source paths are skipped before any
// parse attempt. The built-in rules always apply; Patterns adds glob
// patterns matched against single path segments.
type IgnorePolicy struct {
	Patterns []string
}

func NewIgnorePolicy(patterns []string) (IgnorePolicy, error) {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return IgnorePolicy{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid ignore pattern: " + pattern).
				WithCause(err)
		}
	}
	return IgnorePolicy{Patterns: patterns}, nil
}

// IsIgnoredName applies the rules to a single path segment.
func (p IgnorePolicy) IsIgnoredName(name string) bool {
	if IsIgnoredName(name) {
		return true
	}
	for _, pattern := range p.Patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// IsIgnored reports whether any segment of path below root is ignored.
// Segments above root are not inspected. An empty root checks every
// segment.
func (p IgnorePolicy) IsIgnored(root string, path string) bool {
	rel := path
	if root != "" {
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if segment == "" {
			continue
		}
		if p.IsIgnoredName(segment) {
			return true
		}
	}
	return false
}

// IsIgnoredName applies the built-in rules: "." and "..", hidden names with
// a leading or trailing dot, CVS directories, thumbs.db in any case, and
// editor leftovers ending in "~" or ".scc". A leading underscore alone does
// not hide a name.
func IsIgnoredName(name string) bool {
	switch {
	case name == "." || name == "..":
		return true
	case strings.HasPrefix(name, ".") || strings.HasSuffix(name, "."):
		return true
	case name == "CVS":
		return true
	case strings.EqualFold(name, "thumbs.db"):
		return true
	case strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".scc"):
		return true
	default:
		return false
	}
}
