// Command linxc drives the session pipeline from the command line: register
// include directories, parse every input file, compile to C, and print
// accumulated diagnostics (spec.md §6's driver, "out of scope" for the
// compiler's own semantics but needed to make the pipeline runnable).
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hashicorp/logutils"
	"github.com/spf13/cobra"

	"github.com/linxc-lang/linxc/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var includeDirs []string
	var stdlibDir string
	var outputDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "linxc [files...]",
		Short: "Transpile Linxc source files to C89/C99",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verbose)
			return run(args, includeDirs, stdlibDir, outputDir)
		},
	}

	cmd.Flags().StringArrayVarP(&includeDirs, "include", "I", nil, "add an include directory (glob roots allowed)")
	cmd.Flags().StringVar(&stdlibDir, "stdlib", "", "path to the Linxc standard library headers")
	cmd.Flags().StringVarP(&outputDir, "outdir", "o", ".", "directory to write emitted .h/.c pairs into")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print debug-level operational logging")

	return cmd
}

// configureLogging wires the driver's own operational log (file discovery,
// include resolution, timing) through a level filter, separate from
// internal/logger's per-file diagnostics which are always printed in full
// regardless of this setting (SPEC_FULL.md §2).
func configureLogging(verbose bool) {
	minLevel := logutils.LogLevel("INFO")
	if verbose {
		minLevel = logutils.LogLevel("DEBUG")
	}
	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: minLevel,
		Writer:   os.Stderr,
	}
	log.SetOutput(filter)
	log.SetFlags(0)
}

func run(paths []string, includeDirs []string, stdlibDir, outputDir string) error {
	sess := session.OpenSession()

	for _, dir := range includeDirs {
		log.Printf("[DEBUG] registering include dir %s", dir)
		if err := sess.AddIncludeDir(dir); err != nil {
			return fmt.Errorf("include dir %q: %w", dir, err)
		}
	}
	if stdlibDir != "" {
		sess.SetStdlibLocation(stdlibDir)
	}

	for _, path := range paths {
		log.Printf("[DEBUG] parsing %s", path)
		contents, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		// The include name decides where Compile writes the .h/.c pair:
		// a relative path keeps its directories under the output dir, any
		// other path (absolute, or leaving the working directory) is
		// reduced to its base name.
		includeName := filepath.ToSlash(path)
		if !filepath.IsLocal(path) {
			includeName = filepath.Base(path)
		}
		sess.ParseFile(path, includeName, string(contents))
	}

	hadErrors := false
	for _, file := range sess.Files {
		if file.Log.HasErrors() {
			hadErrors = true
		}
		for _, msg := range file.Log.Done() {
			location := "?"
			if msg.Data.Location != nil {
				location = fmt.Sprintf("%s:%d:%d", msg.Data.Location.File, msg.Data.Location.Line, msg.Data.Location.Column)
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", location, msg.Data.Text)
		}
	}
	if hadErrors {
		return fmt.Errorf("compilation failed with errors")
	}

	log.Printf("[INFO] compiling %d file(s) to %s", len(sess.Files), outputDir)
	results, ok := sess.Compile(outputDir)
	if !ok {
		return fmt.Errorf("emission failed for one or more files")
	}
	log.Printf("[INFO] emitted %d unit(s)", len(results))
	return nil
}
