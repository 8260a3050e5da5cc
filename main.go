// shbundle replaces load-directives in a shell script with the definitions
// of exactly the library functions the script transitively needs, writing
// a single self-contained script to stdout.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"github.com/averill/shbundle/internal/discover"
	"github.com/averill/shbundle/internal/inline"
	"github.com/averill/shbundle/internal/locate"
	"github.com/averill/shbundle/internal/report"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("shbundle", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		check       bool
		scan        bool
		verbose     bool
		showVersion bool
	)

	fs.BoolVar(&check, "check", false, "parse the output as shell and fail on syntax errors")
	fs.BoolVar(&scan, "scan", false, "report scripts, loads, and needed functions under a directory")
	fs.BoolVar(&verbose, "v", false, "enable debug logging")
	fs.BoolVar(&verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: shbundle [flags] <script>
       shbundle -scan [dir]
       shbundle init [-dry-run] [path]

Inline exactly the library functions <script> needs and write the
self-contained result to stdout. Load-directives (". <path>" or
"source <path>") are replaced by the definitions the script transitively
uses; "###Include: <path>" lines are replaced by the literal file contents.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "shbundle %s\n", version)
		return nil
	}

	logger := log.NewWithOptions(stderr, log.Options{
		ReportTimestamp: false,
		Level:           log.WarnLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	loc, err := locate.New()
	if err != nil {
		return err
	}

	if scan {
		root := "."
		if fs.NArg() > 0 {
			root = fs.Arg(0)
		}
		return runScan(root, loc, logger, stdout)
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing script argument")
	}
	script := fs.Arg(0)

	driver := inline.New(loc, logger)
	var buf bytes.Buffer
	if err := driver.Run(script, &buf); err != nil {
		return err
	}

	if check {
		parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
		if _, err := parser.Parse(bytes.NewReader(buf.Bytes()), script); err != nil {
			return fmt.Errorf("output failed shell syntax check: %w", err)
		}
	}

	_, err = stdout.Write(buf.Bytes())
	return err
}

// runScan reports, for every shell script under root, the libraries its
// load-directives name and the function closure inlining would emit.
// Scripts whose libraries cannot be resolved from the current working
// directory are skipped with a warning.
func runScan(root string, loc *locate.Locator, logger *log.Logger, stdout io.Writer) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	scripts, err := discover.Scripts(root)
	if err != nil {
		return fmt.Errorf("discovering scripts: %w", err)
	}
	if len(scripts) == 0 {
		return fmt.Errorf("no shell scripts found under %s", root)
	}

	var analyses []*inline.Analysis
	for _, rel := range scripts {
		// Fresh driver per script: registry and processed state are
		// per-run by contract.
		driver := inline.New(loc, logger)
		a, err := driver.Analyze(filepath.Join(root, rel))
		if err != nil {
			logger.Warn("skipping script", "path", rel, "err", err)
			continue
		}
		a.Script = rel
		analyses = append(analyses, a)
	}

	_, err = fmt.Fprintln(stdout, report.Encode(analyses))
	return err
}

// reorderArgs moves positional arguments after all flags so Go's flag
// package can parse them correctly (it stops at the first non-flag arg).
// Every shbundle flag is boolean, so no value lookahead is needed.
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
