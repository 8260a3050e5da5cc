// Package resolve computes the transitive closure of function dependencies.
//
// Dependency detection is textual: a function depends on every
// registry-resolvable name that appears as a token in its definition.
// Tokens are maximal runs of name-alphabet characters (letters, digits,
// underscore); any other byte terminates a candidate token. Names that do
// not resolve to a defined function are dropped silently. The direction of
// error is conservative — a coincidental textual match over-includes, a
// genuinely called function is never missed.
package resolve

import (
	"strings"

	"github.com/averill/shbundle/internal/extract"
	"github.com/averill/shbundle/internal/model"
)

// Resolver walks call edges against a function registry.
type Resolver struct {
	Registry model.Registry
}

// Closure adds seed and every function transitively reachable from it to
// needed. A name already in needed is not re-descended, which terminates
// recursion cycles. Definitions are re-read from their defining files on
// each visit; only read failures are errors.
func (r *Resolver) Closure(seed string, needed model.NameSet) error {
	if !needed.Add(seed) {
		return nil
	}

	def, err := extract.Definition(seed, r.Registry[seed])
	if err != nil {
		return err
	}
	if def == "" {
		return nil
	}

	// Drop the function's own name before tokenizing so a recursive call
	// (or the name inside a comment) is never treated as a dependency.
	body := strings.ReplaceAll(def, seed, "")

	for _, tok := range Tokens(body) {
		if _, defined := r.Registry[tok]; !defined {
			continue
		}
		if needed.Has(tok) {
			continue
		}
		if err := r.Closure(tok, needed); err != nil {
			return err
		}
	}

	return nil
}

// Tokens splits text into deduplicated candidate function names: maximal
// runs of letters, digits, and underscores, returned in ordinal order.
func Tokens(text string) []string {
	seen := make(model.NameSet)
	start := -1
	for i := 0; i <= len(text); i++ {
		if i < len(text) && isNameByte(text[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			seen.Add(text[start:i])
			start = -1
		}
	}
	return seen.Names()
}

func isNameByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
