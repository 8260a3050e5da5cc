// Package inline drives the line-oriented rewriting of a main script.
//
// The driver makes one pass over the script's lines. A load-directive is
// replaced by the definitions of exactly the functions the remainder of
// the script transitively needs from that library; an include-directive is
// replaced by the literal contents of its target file; every other line
// passes through unchanged. Runs of blank lines in the final output are
// squeezed to one.
package inline

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/averill/shbundle/internal/directive"
	"github.com/averill/shbundle/internal/extract"
	"github.com/averill/shbundle/internal/locate"
	"github.com/averill/shbundle/internal/model"
	"github.com/averill/shbundle/internal/resolve"
)

// Matches a trailing comment: a '#' preceded by whitespace, through end of
// line. Leaves "$#" and "${#name}" alone.
var trailingComment = regexp.MustCompile(`[ \t]#.*$`)

// Driver owns the per-run state: the function registry accumulated across
// load-directives and the processed set that enforces at-most-once
// emission with first-resolved-wins precedence. It processes one main
// script and is then discarded.
type Driver struct {
	locator   *locate.Locator
	logger    *log.Logger
	registry  model.Registry
	processed model.NameSet
}

// New returns a Driver ready to process one main script.
func New(locator *locate.Locator, logger *log.Logger) *Driver {
	return &Driver{
		locator:   locator,
		logger:    logger,
		registry:  make(model.Registry),
		processed: make(model.NameSet),
	}
}

// Run reads the main script at scriptPath and writes the self-contained
// result to w.
func (d *Driver) Run(scriptPath string, w io.Writer) error {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	var out []string

	for i, line := range lines {
		if path, ok := directive.Load(line); ok {
			emitted, err := d.loadDirective(path, lines[i+1:])
			if err != nil {
				return fmt.Errorf("load directive %q: %w", path, err)
			}
			out = append(out, emitted...)
			continue
		}
		if path, ok := directive.Include(line); ok {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("include directive: %w", err)
			}
			out = append(out, strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")...)
			continue
		}
		out = append(out, line)
	}

	_, err = io.WriteString(w, strings.Join(squeezeBlank(out), "\n"))
	return err
}

// loadDirective handles one load-directive: merge the library's functions
// into the registry, resolve which registered functions the rest of the
// script needs, and return the definition lines that replace the directive.
func (d *Driver) loadDirective(path string, rest []string) ([]string, error) {
	needed, err := d.resolveLoad(path, rest)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, name := range needed.Names() {
		if !d.processed.Add(name) {
			continue // already emitted from an earlier library
		}
		def, err := extract.Definition(name, d.registry[name])
		if err != nil {
			return nil, err
		}
		if def == "" {
			// The name is consumed even when its text cannot be found
			// again; an empty emission is not an error.
			continue
		}
		d.logger.Debug("inlining function", "name", name, "file", d.registry[name])
		out = append(out, strings.Split(def, "\n")...)
		out = append(out, "")
	}
	return out, nil
}

// resolveLoad merges the library at path into the registry and returns the
// needed set for this directive: every registered name (from this and all
// prior loads) that the remaining script references, closed over its call
// edges.
func (d *Driver) resolveLoad(path string, rest []string) (model.NameSet, error) {
	funcs, err := d.locator.Functions(path)
	if err != nil {
		return nil, err
	}
	d.registry.Merge(funcs)
	d.logger.Debug("registry merged", "library", path, "functions", len(funcs), "registry", len(d.registry))

	search := usageText(rest)
	needed := make(model.NameSet)
	res := &resolve.Resolver{Registry: d.registry}

	for _, name := range d.registry.Names() {
		if !strings.Contains(search, name) {
			continue
		}
		if err := res.Closure(name, needed); err != nil {
			return nil, err
		}
	}
	return needed, nil
}

// usageText prepares the remaining script lines for the usage test:
// directive lines are excluded, comment-only lines are dropped, and
// trailing comment fragments are cut. What survives is searched by plain
// substring containment.
func usageText(rest []string) string {
	var b strings.Builder
	for _, line := range rest {
		if directive.Any(line) {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		b.WriteString(trailingComment.ReplaceAllString(line, ""))
		b.WriteByte('\n')
	}
	return b.String()
}

// squeezeBlank collapses every run of two or more blank (whitespace-only)
// lines down to its first line.
func squeezeBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return out
}
