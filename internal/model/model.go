// Package model defines core data structures for shbundle.
package model

import "sort"

// Registry maps function names to the file whose text defines them.
// Entries accumulate across load-directives in directive order; a later
// load that redefines a name overwrites the mapping. The registry only
// grows or overwrites, it never shrinks.
type Registry map[string]string

// Merge applies locator results for one library on top of the registry,
// overwriting on conflict.
func (r Registry) Merge(funcs map[string]string) {
	for name, file := range funcs {
		r[name] = file
	}
}

// Names returns the registered function names in ordinal (byte) order.
func (r Registry) Names() []string {
	return sortedKeys(r)
}

// NameSet is a set of function names. The driver uses one transient
// instance per load-directive (the needed set) and one run-global
// instance (the processed set).
type NameSet map[string]struct{}

// Add records name and reports whether it was newly added.
func (s NameSet) Add(name string) bool {
	if _, ok := s[name]; ok {
		return false
	}
	s[name] = struct{}{}
	return true
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the set's members in ordinal (byte) order.
func (s NameSet) Names() []string {
	return sortedKeys(s)
}

// sort.Strings compares bytewise, so ordering is locale-independent.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
