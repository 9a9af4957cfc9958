// Command migrate manages the schema of the postgres settings backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coachpo/eobrowser/internal/infra/persistence/migrations"
	"github.com/coachpo/eobrowser/internal/observability"
)

const defaultTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	dsn     string
	dir     string
	action  string
	steps   int
	timeout time.Duration
	quiet   bool
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.dsn, "dsn", os.Getenv("EOB_DATABASE_DSN"), "PostgreSQL DSN (default: $EOB_DATABASE_DSN)")
	fs.StringVar(&opts.dir, "path", "", "Directory containing SQL migrations (default: embedded set)")
	fs.StringVar(&opts.action, "action", "up", "Migration action: up, down or version")
	fs.IntVar(&opts.steps, "steps", 1, "Number of migrations to roll back with -action down")
	fs.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Maximum time to wait for database connectivity")
	fs.BoolVar(&opts.quiet, "quiet", false, "Suppress informational logs")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts.dsn = strings.TrimSpace(opts.dsn)
	opts.action = strings.ToLower(strings.TrimSpace(opts.action))
	if opts.dsn == "" {
		return options{}, errors.New("-dsn flag is required")
	}
	switch opts.action {
	case "up", "version":
	case "down":
		if opts.steps <= 0 {
			return options{}, fmt.Errorf("-steps must be positive, got %d", opts.steps)
		}
	default:
		return options{}, fmt.Errorf("unknown action %q (expected up, down or version)", opts.action)
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	logger := observability.Nop()
	if !opts.quiet {
		zapLogger, err := observability.NewZapLogger(observability.LogConfig{Level: "info", Development: true})
		if err != nil {
			return fmt.Errorf("initialise logger: %w", err)
		}
		defer func() {
			_ = zapLogger.Sync()
		}()
		logger = zapLogger
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	switch opts.action {
	case "up":
		return migrations.Apply(ctx, opts.dsn, opts.dir, logger)
	case "down":
		return migrations.Rollback(ctx, opts.dsn, opts.dir, opts.steps, logger)
	default:
		version, dirty, ok, err := migrations.Version(ctx, opts.dsn, opts.dir)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no migrations applied")
			return nil
		}
		fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		return nil
	}
}
