// Package main is the entry point for the p4kit command.
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
	"time"

	"golang.org/x/term"

	"github.com/dshills/p4kit/internal/app"
	"github.com/dshills/p4kit/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configPath string
	port       string
	user       string
	client     string
	logLevel   string
	format     string
	timeout    time.Duration
	version    bool
	help       bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("p4kit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts globalOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.port, "port", "", "Perforce server address")
	fs.StringVar(&opts.port, "p", "", "Perforce server address (shorthand)")
	fs.StringVar(&opts.user, "user", "", "Perforce user")
	fs.StringVar(&opts.user, "u", "", "Perforce user (shorthand)")
	fs.StringVar(&opts.client, "client", "", "Client workspace")
	fs.StringVar(&opts.client, "c", "", "Client workspace (shorthand)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&opts.format, "format", "auto", "Output format (text, json, auto)")
	fs.StringVar(&opts.format, "o", "auto", "Output format (shorthand)")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Timeout for each p4 invocation")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	fs.BoolVar(&opts.version, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&opts.help, "help", false, "Show help message")
	fs.BoolVar(&opts.help, "h", false, "Show help message (shorthand)")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.help {
		fs.Usage()
		return exitOK
	}
	if opts.version {
		fmt.Fprintf(stdout, "p4kit %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitOK
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}
	cmd, ok := lookupCommand(rest[0])
	if !ok {
		fmt.Fprintf(stderr, "Error: %s: %v\n", rest[0], app.ErrUnknownCommand)
		return exitUsage
	}

	format, err := outputFormat(opts.format, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	application, err := app.New(app.Options{
		ConfigPath: opts.configPath,
		LogLevel:   opts.logLevel,
		LogOutput:  stderr,
		Override:   opts.apply,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer application.Shutdown()

	// Interrupts cancel the running p4 invocation.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := &commandEnv{
		session: application.Session(),
		out:     app.NewRenderer(stdout, format),
		stderr:  stderr,
	}
	if err := cmd.run(ctx, env, rest[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Usage: p4kit %s %s\n", cmd.name, cmd.args)
			return exitUsage
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// apply copies the connection flags over the loaded configuration.
func (o globalOptions) apply(cfg *config.Config) {
	if o.port != "" {
		cfg.P4.Port = o.port
	}
	if o.user != "" {
		cfg.P4.User = o.user
	}
	if o.client != "" {
		cfg.P4.Client = o.client
	}
	if o.timeout > 0 {
		cfg.P4.Timeout = config.Duration(o.timeout)
	}
}

// outputFormat resolves "auto" to text on a terminal and JSON otherwise.
func outputFormat(s string, stdout io.Writer) (app.Format, error) {
	if s != "auto" {
		return app.ParseFormat(s)
	}
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return app.FormatText, nil
	}
	return app.FormatJSON, nil
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "p4kit - typed access to the Perforce command line client\n\n")
	fmt.Fprintf(w, "Usage: p4kit [options] <command> [arguments]\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  p4kit info                          Show server and client details\n")
	fmt.Fprintf(w, "  p4kit -o json changes -m 5 //...    Five newest changes as JSON\n")
	fmt.Fprintf(w, "  p4kit integrate -n //a/... //b/...  Preview an integration\n")
}
