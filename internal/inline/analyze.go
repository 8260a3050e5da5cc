package inline

import (
	"fmt"
	"os"
	"strings"

	"github.com/averill/shbundle/internal/directive"
	"github.com/averill/shbundle/internal/model"
)

// Analysis summarizes what inlining a script would pull in: the libraries
// its load-directives name and the union of function closures they would
// emit.
type Analysis struct {
	Script string
	Loads  []string
	Needed []string
}

// Analyze performs the resolution pass of Run without emitting anything.
// Registry state accumulates exactly as it would during inlining, so the
// reported closure matches what Run would produce.
func (d *Driver) Analyze(scriptPath string) (*Analysis, error) {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	a := &Analysis{Script: scriptPath}
	all := make(model.NameSet)

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		path, ok := directive.Load(line)
		if !ok {
			continue
		}
		a.Loads = append(a.Loads, path)
		needed, err := d.resolveLoad(path, lines[i+1:])
		if err != nil {
			return nil, fmt.Errorf("load directive %q: %w", path, err)
		}
		for name := range needed {
			all.Add(name)
		}
	}

	a.Needed = all.Names()
	return a, nil
}
