package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	sentinelStart = "<!-- shbundle:start -->"
	sentinelEnd   = "<!-- shbundle:end -->"
)

// runInit implements the `shbundle init` subcommand, which writes (or
// updates) a shbundle usage section in a project docs file.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("shbundle init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: shbundle init [flags] [path-to-docs-file]

Write a shbundle usage section to a docs file. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path-to-docs-file defaults to ./CLAUDE.md.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	section := generateSection()

	// --dry-run with no path: just print the section itself.
	if dryRun && fs.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := "CLAUDE.md"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}

	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote shbundle section to %s\n", path)
	return nil
}

// generateSection returns the full sentinel-wrapped shbundle documentation block.
func generateSection() string {
	body := `## shbundle — Script Bundler

Run ` + "`shbundle <script>`" + ` to produce a single self-contained copy of a
shell script that loads function libraries with ` + "`. lib.sh`" + ` or
` + "`source lib.sh`" + `. Only the functions the script actually uses (directly
or through other inlined functions) are copied in; each definition appears
exactly once.

**Run it:**
` + "```" + `bash
shbundle deploy.sh > deploy-standalone.sh    # inline to stdout
shbundle -check deploy.sh                    # also verify the output parses
shbundle -scan scripts/                      # report scripts, loads, closures
` + "```" + `

**Directive rules:**

1. A load-directive line must contain nothing but the directive and the
   library path. A trailing comment becomes part of the path and fails.
2. ` + "`###Include: <path>`" + ` pastes the file verbatim, with no function
   filtering.
3. Libraries must parse as valid shell; a broken library aborts the run.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
