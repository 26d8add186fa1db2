// Command attendctl drives the attendance session manager from a terminal.
//
// Usage:
//
//	attendctl [flags] <command>
//
// Commands:
//
//	status     restore the persisted session and print where the app would route
//	login      log in with email and password
//	logout     log out (--forget also removes saved biometric credentials)
//	validate   check the current token against the backend
//	refresh    re-validate and log out if the server no longer accepts the token
//	biometric  log in with saved credentials after a biometric prompt
//	reset      wipe all session state
//	serve      expose /status (authenticated only) and /metrics on --listen
//	lint       print configuration warnings
//
// Configuration is read from --config (TOML), then ATTEND_* environment
// variables, which may come from --env-file.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	goAttend "github.com/MrEthical07/goAttend"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type options struct {
	configPath     string
	envFile        string
	email          string
	listen         string
	verbose        bool
	saveBiometrics bool
	forget         bool
	metrics        bool
	audit          bool
}

// app carries the options and terminal streams shared by every command.
type app struct {
	opts   options
	logger *slog.Logger

	// tty is set when input is a terminal, for no-echo password entry.
	tty    *os.File
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	var opts options
	flags := pflag.NewFlagSet("attendctl", pflag.ContinueOnError)
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file with ATTEND_* variables (ignored if missing)")
	flags.StringVarP(&opts.email, "email", "e", "", "login email (prompted when empty)")
	flags.StringVar(&opts.listen, "listen", "127.0.0.1:8787", "address for the serve command")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging to stderr")
	flags.BoolVar(&opts.saveBiometrics, "save-biometrics", false, "save credentials for biometric login")
	flags.BoolVar(&opts.forget, "forget", false, "on logout, also delete saved biometric credentials")
	flags.BoolVar(&opts.metrics, "metrics", false, "print Prometheus metrics after the command")
	flags.BoolVar(&opts.audit, "audit", false, "write audit events to stderr as JSON lines")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: attendctl [flags] status|login|logout|validate|refresh|biometric|reset|serve|lint")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}

	a := &app{
		opts:   opts,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		tty:    os.Stdin,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := a.run(ctx, flags.Arg(0), flags.Changed("env-file"))
	stop()
	os.Exit(code)
}

func (a *app) run(ctx context.Context, command string, envFileExplicit bool) int {
	if err := godotenv.Load(a.opts.envFile); err != nil {
		if envFileExplicit || !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(a.errOut, "attendctl: env file: %v\n", err)
			return 2
		}
	}

	cfg, err := goAttend.LoadConfig(a.opts.configPath)
	if err != nil {
		fmt.Fprintf(a.errOut, "attendctl: %v\n", err)
		return 2
	}
	if command == "lint" {
		return a.printLint(cfg)
	}

	cmd, ok := commands[command]
	if !ok {
		fmt.Fprintf(a.errOut, "attendctl: unknown command %q\n", command)
		return 2
	}

	// A memory store forgets everything between invocations.
	if cfg.Storage.Driver == goAttend.StorageMemory {
		cfg.Storage.Driver = goAttend.StorageFile
		cfg.Storage.Path = defaultStatePath()
		a.logger.Debug("attendctl: using file store", "path", cfg.Storage.Path)
	}

	b := goAttend.New().WithLogger(a.logger)
	if a.opts.audit {
		cfg.Audit.Enabled = true
		cfg.Audit.DropIfFull = false
		b.WithAuditSink(goAttend.NewJSONWriterSink(a.errOut))
	}
	m, err := b.WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(a.errOut, "attendctl: %v\n", err)
		return 2
	}
	defer m.Close()

	code := cmd(ctx, a, m)
	if a.opts.metrics {
		a.printMetrics(m)
	}
	return code
}

func (a *app) printLint(cfg goAttend.Config) int {
	warnings := cfg.Lint()
	if len(warnings) == 0 {
		fmt.Fprintln(a.out, "no warnings")
		return 0
	}
	for _, w := range warnings {
		fmt.Fprintf(a.out, "%-4s %-24s %s\n", w.Severity, w.Code, w.Message)
	}
	if len(warnings.BySeverity(goAttend.LintHigh)) > 0 {
		return 1
	}
	return 0
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "attend", "session.json")
}
