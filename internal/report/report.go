// Package report renders scan results as compact tabular text.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/averill/shbundle/internal/inline"
)

var needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)

// Encode renders one row per analyzed script: its path, the libraries its
// load-directives name, and the function closure inlining would emit.
func Encode(analyses []*inline.Analysis) string {
	rows := make([][]string, 0, len(analyses))
	for _, a := range analyses {
		rows = append(rows, []string{
			a.Script,
			strings.Join(a.Loads, " "),
			strings.Join(a.Needed, " "),
		})
	}
	return formatTabular("scripts", []string{"path", "loads", "functions"}, rows)
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}
	if value != strings.TrimSpace(value) || strings.ContainsAny(value, "\n\r\t") || needsQuoting.MatchString(value) {
		escaped := strings.ReplaceAll(value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		escaped = strings.ReplaceAll(escaped, "\n", `\n`)
		escaped = strings.ReplaceAll(escaped, "\r", `\r`)
		escaped = strings.ReplaceAll(escaped, "\t", `\t`)
		return `"` + escaped + `"`
	}
	return value
}
