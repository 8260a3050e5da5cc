// Package directive recognizes the two line directives shbundle acts on:
// load-directives (". <path>" or "source <path>") and include-directives
// ("###Include: <path>").
package directive

import (
	"regexp"
	"strings"
)

var (
	// A load-directive starts the line with "." or "source" followed by
	// whitespace. Everything after that whitespace is the target path,
	// taken literally: a trailing comment on the same line becomes part
	// of the path and produces a lookup failure downstream.
	loadRe = regexp.MustCompile(`^(?:\.|source)[ \t]+(.+)$`)

	// The include keyword is matched case-insensitively; the colon is
	// required and the rest of the line is the target path.
	includeRe = regexp.MustCompile(`(?i)^###include:(.*)$`)
)

// Load reports whether line is a load-directive and returns its target path.
func Load(line string) (string, bool) {
	m := loadRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Include reports whether line is an include-directive and returns its
// target path.
func Include(line string) (string, bool) {
	m := includeRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Any reports whether line is either kind of directive.
func Any(line string) bool {
	if _, ok := Load(line); ok {
		return true
	}
	_, ok := Include(line)
	return ok
}
