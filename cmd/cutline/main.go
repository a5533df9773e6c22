// Package main is the entry point for the cutline edit runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/cutline/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, scriptPath := parseFlags()

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	var in io.Reader = os.Stdin
	if scriptPath != "" && scriptPath != "-" {
		f, err := os.Open(scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.NewScript(os.Stdout).Run(ctx, in); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted")
			return 130
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.OutputPath != "" || opts.ProjectPath != "" {
		if err := application.Save(""); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

func parseFlags() (app.Options, string) {
	var opts app.Options
	var scriptPath string
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.ProjectPath, "project", "", "Project document to open")
	flag.StringVar(&opts.ProjectPath, "p", "", "Project document to open (shorthand)")
	flag.StringVar(&opts.OutputPath, "out", "", "Where to write the document (defaults to -project)")
	flag.StringVar(&opts.OutputPath, "o", "", "Where to write the document (shorthand)")
	flag.StringVar(&scriptPath, "script", "", "Edit script to run (defaults to stdin)")
	flag.StringVar(&scriptPath, "s", "", "Edit script to run (shorthand)")
	flag.StringVar(&opts.ProjectName, "name", "", "Autosave project name")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.NoAutosave, "no-autosave", false, "Disable autosave revisions")
	flag.BoolVar(&opts.WatchConfig, "watch", false, "Reload settings when the config file changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cutline - headless timeline editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cutline [options] [script]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nScript commands:\n")
		for _, u := range app.Usage() {
			fmt.Fprintf(os.Stderr, "  %s\n", u)
		}
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cutline -p cut.json edits.txt     Apply edits and save\n")
		fmt.Fprintf(os.Stderr, "  cutline -p cut.json -o v2.json    Read edits from stdin\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("cutline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if scriptPath == "" && flag.NArg() > 0 {
		scriptPath = flag.Arg(0)
	}
	return opts, scriptPath
}
