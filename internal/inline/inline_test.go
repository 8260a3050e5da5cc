package inline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/averill/shbundle/internal/locate"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newDriver(t *testing.T) *Driver {
	t.Helper()
	loc, err := locate.New()
	if err != nil {
		t.Fatal(err)
	}
	return New(loc, log.New(io.Discard))
}

func runScript(t *testing.T, d *Driver, script string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := d.Run(script, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestRunInlinesOnlyUsedFunctions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", `greet() {
	echo hi
}

helper() {
	echo unused
}
`)
	script := writeFile(t, dir, "main.sh", ". "+lib+"\ngreet\n")

	out := runScript(t, newDriver(t), script)

	if strings.Contains(out, ". "+lib) {
		t.Error("load-directive line should be removed")
	}
	if !strings.Contains(out, "greet() {\n\techo hi\n}") {
		t.Errorf("greet definition missing:\n%s", out)
	}
	if strings.Contains(out, "helper") {
		t.Errorf("helper should not be emitted:\n%s", out)
	}
}

func TestRunTransitiveClosure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", `greet() {
	helper
}

helper() {
	echo hi
}
`)
	script := writeFile(t, dir, "main.sh", ". "+lib+"\ngreet\n")

	out := runScript(t, newDriver(t), script)

	if !strings.Contains(out, "greet() {") || !strings.Contains(out, "helper() {") {
		t.Errorf("expected both definitions:\n%s", out)
	}
}

func TestRunFirstResolvedWins(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib1 := writeFile(t, dir, "lib1.sh", "greet() {\n\techo one\n}\n")
	lib2 := writeFile(t, dir, "lib2.sh", "greet() {\n\techo two\n}\n")
	script := writeFile(t, dir, "main.sh", ". "+lib1+"\n. "+lib2+"\ngreet\n")

	out := runScript(t, newDriver(t), script)

	if !strings.Contains(out, "echo one") {
		t.Errorf("first library's definition missing:\n%s", out)
	}
	if strings.Contains(out, "echo two") {
		t.Errorf("second definition must never shadow the first:\n%s", out)
	}
	if strings.Count(out, "greet() {") != 1 {
		t.Errorf("greet must be emitted exactly once:\n%s", out)
	}
}

func TestRunRegistryAccumulatesAcrossDirectives(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib1 := writeFile(t, dir, "lib1.sh", "other() {\n\techo other\n}\n")
	lib2 := writeFile(t, dir, "lib2.sh", "greet() {\n\techo hi\n}\n")
	script := writeFile(t, dir, "main.sh", ". "+lib1+"\n. "+lib2+"\ngreet\n")

	out := runScript(t, newDriver(t), script)

	if !strings.Contains(out, "greet() {") {
		t.Errorf("greet definition missing:\n%s", out)
	}
	if strings.Contains(out, "other() {") {
		t.Errorf("other is unused and should not be emitted:\n%s", out)
	}
}

func TestRunLateResolvableDependency(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// alpha's call edge to beta only becomes resolvable once lib2 is
	// loaded; beta must be emitted at lib2's directive.
	lib1 := writeFile(t, dir, "lib1.sh", "alpha() {\n\tbeta\n}\n")
	lib2 := writeFile(t, dir, "lib2.sh", "beta() {\n\techo hi\n}\n")
	script := writeFile(t, dir, "main.sh", ". "+lib1+"\n. "+lib2+"\nalpha\n")

	out := runScript(t, newDriver(t), script)

	if strings.Count(out, "alpha() {") != 1 {
		t.Errorf("alpha must be emitted exactly once:\n%s", out)
	}
	if strings.Count(out, "beta() {") != 1 {
		t.Errorf("beta must be emitted once lib2 makes it resolvable:\n%s", out)
	}
	if strings.Index(out, "beta() {") < strings.Index(out, "alpha() {") {
		t.Errorf("beta belongs at the second directive's position:\n%s", out)
	}
}

func TestRunSameLibraryTwice(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", "greet() {\n\techo hi\n}\n")
	script := writeFile(t, dir, "main.sh", ". "+lib+"\n. "+lib+"\ngreet\n")

	out := runScript(t, newDriver(t), script)

	if strings.Count(out, "greet() {") != 1 {
		t.Errorf("loading a library twice must not duplicate emissions:\n%s", out)
	}
}

func TestRunSelfRecursiveFunction(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", `countdown() {
	countdown "$(($1 - 1))"
}
`)
	script := writeFile(t, dir, "main.sh", ". "+lib+"\ncountdown 3\n")

	out := runScript(t, newDriver(t), script)

	if strings.Count(out, "countdown() {") != 1 {
		t.Errorf("recursive function must be emitted exactly once:\n%s", out)
	}
}

func TestRunUsageIgnoresComments(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", "greet() {\n\techo hi\n}\n")
	script := writeFile(t, dir, "main.sh", ". "+lib+"\n# greet\necho done # greet\n")

	out := runScript(t, newDriver(t), script)

	if strings.Contains(out, "greet() {") {
		t.Errorf("a name mentioned only in comments is not a use:\n%s", out)
	}
}

func TestRunUsageIsSubstringBased(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", "greet() {\n\techo hi\n}\n")
	// "greeting" contains "greet": over-inclusion is the documented bias.
	script := writeFile(t, dir, "main.sh", ". "+lib+"\necho greeting\n")

	out := runScript(t, newDriver(t), script)

	if !strings.Contains(out, "greet() {") {
		t.Errorf("substring usage detection should include greet:\n%s", out)
	}
}

func TestRunIncludePurity(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	inc := writeFile(t, dir, "banner.sh", "# banner\nunused_function() {\n\techo still here\n}\n")
	script := writeFile(t, dir, "main.sh", "###Include: "+inc+"\necho done\n")

	out := runScript(t, newDriver(t), script)

	if strings.Contains(out, "###Include") {
		t.Error("include-directive line should be removed")
	}
	if !strings.Contains(out, "unused_function() {\n\techo still here\n}") {
		t.Errorf("included content must appear verbatim, unfiltered:\n%s", out)
	}
}

func TestRunIncludeMissingFileIsFatal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeFile(t, dir, "main.sh", "###Include: "+filepath.Join(dir, "absent.sh")+"\n")

	var buf bytes.Buffer
	if err := newDriver(t).Run(script, &buf); err == nil {
		t.Error("expected error for missing include target")
	}
}

func TestRunLoadMissingLibraryIsFatal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeFile(t, dir, "main.sh", ". "+filepath.Join(dir, "absent.sh")+"\n")

	var buf bytes.Buffer
	if err := newDriver(t).Run(script, &buf); err == nil {
		t.Error("expected error for missing library")
	}
}

func TestRunSqueezesBlankLines(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeFile(t, dir, "main.sh", "echo a\n\n\n\necho b\n")

	out := runScript(t, newDriver(t), script)

	if out != "echo a\n\necho b\n" {
		t.Errorf("out = %q", out)
	}
}

func TestRunPassthroughUnchanged(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	content := "#!/bin/sh\nset -eu\necho \"  spaced  \"\n"
	script := writeFile(t, dir, "main.sh", content)

	out := runScript(t, newDriver(t), script)

	if out != content {
		t.Errorf("out = %q, want %q", out, content)
	}
}

func TestAnalyze(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.sh", `greet() {
	helper
}

helper() {
	echo hi
}

unused() {
	echo never
}
`)
	script := writeFile(t, dir, "main.sh", ". "+lib+"\ngreet\n")

	a, err := newDriver(t).Analyze(script)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Loads) != 1 || a.Loads[0] != lib {
		t.Errorf("loads = %v", a.Loads)
	}
	if want := []string{"greet", "helper"}; !equalStrings(a.Needed, want) {
		t.Errorf("needed = %v, want %v", a.Needed, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
