// Package locate enumerates the shell functions a library file defines.
//
// Libraries are parsed with tree-sitter rather than evaluated by a shell,
// so enumerating their functions never executes their content. A library
// may itself contain load-directives; those files are scanned too, and
// each function is tagged with the file whose text actually holds its
// definition.
package locate

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"

	"github.com/averill/shbundle/internal/directive"
)

//go:embed queries/*.scm
var queryFS embed.FS

var (
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error
)

func functionQuery() (*sitter.Query, error) {
	queryOnce.Do(func() {
		data, err := queryFS.ReadFile("queries/bash.scm")
		if err != nil {
			queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, bash.GetLanguage())
		if err != nil {
			queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		query = q
	})
	return query, queryErr
}

// Locator scans library files for function definitions. It is not safe
// for concurrent use (the underlying parser is single-threaded), which
// matches the strictly sequential pipeline it serves.
type Locator struct {
	parser *sitter.Parser
}

// New returns a Locator ready to scan bash libraries.
func New() (*Locator, error) {
	if _, err := functionQuery(); err != nil {
		return nil, err
	}
	p := sitter.NewParser()
	p.SetLanguage(bash.GetLanguage())
	return &Locator{parser: p}, nil
}

// Functions returns every function the library at path defines, mapped to
// the file whose text contains the definition. When the same name is
// defined more than once across the library and the files it loads, the
// entry scanned last wins. Any file that cannot be read or does not parse
// cleanly makes the whole call fail; there is no partial-library recovery.
func (l *Locator) Functions(path string) (map[string]string, error) {
	funcs := make(map[string]string)
	visited := make(map[string]struct{})
	if err := l.scan(path, visited, funcs); err != nil {
		return nil, err
	}
	return funcs, nil
}

func (l *Locator) scan(path string, visited map[string]struct{}, funcs map[string]string) error {
	if _, ok := visited[path]; ok {
		return nil
	}
	visited[path] = struct{}{}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("loading library: %w", err)
	}

	tree, err := l.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	if tree.RootNode().HasError() {
		return fmt.Errorf("library %s does not parse cleanly", path)
	}

	q, err := functionQuery()
	if err != nil {
		return err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			if q.CaptureNameForId(c.Index) != "name" {
				continue
			}
			name := string(source[c.Node.StartByte():c.Node.EndByte()])
			funcs[name] = path
		}
	}

	// Follow the library's own load-directives so functions defined in
	// nested files are tagged with their real defining file.
	for _, line := range strings.Split(string(source), "\n") {
		if nested, ok := directive.Load(line); ok {
			if err := l.scan(nested, visited, funcs); err != nil {
				return err
			}
		}
	}

	return nil
}
