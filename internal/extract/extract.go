// Package extract pulls verbatim function definitions out of library text.
//
// Extraction is purely textual: the first line whose head matches the
// function name in either shell definition form ("name()" or
// "function name"), followed by a brace-delimited body found by balanced
// counting of '{' and '}'. The captured span runs from the start of the
// header line through the matching closing brace, inclusive of every
// comment, blank line, and nested block in between. No reformatting.
package extract

import (
	"fmt"
	"os"
	"regexp"
)

// Definition returns the verbatim definition of name in the file at path.
// If the file contains no definition of name, it returns "" and no error;
// callers treat an empty result as "nothing to emit". A read failure is an
// error.
func Definition(name, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return definition(name, string(data)), nil
}

// headerRe builds a pattern for the two header forms of a named function:
//
//	name() {          (POSIX form, optional space before the parens)
//	function name {   (ksh/bash form, parens optional)
//
// The opening brace may sit on the header line or a following line.
func headerRe(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?m)^[ \t]*(?:function[ \t]+` + q + `[ \t]*(?:\(\s*\))?(?:[ \t]|$)|` + q + `[ \t]*\(\s*\))`)
}

// definition returns the span of the first header for name that is
// followed by a complete brace-delimited body, or "".
func definition(name, text string) string {
	for _, loc := range headerRe(name).FindAllStringIndex(text, -1) {
		// Only whitespace may sit between the header and the opening brace.
		open := loc[1]
		for open < len(text) && (text[open] == ' ' || text[open] == '\t' || text[open] == '\n' || text[open] == '\r') {
			open++
		}
		if open >= len(text) || text[open] != '{' {
			continue
		}

		depth := 0
		for i := open; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[loc[0] : i+1]
				}
			}
		}
		// Unbalanced braces: no complete body here or anywhere after.
		return ""
	}
	return ""
}
