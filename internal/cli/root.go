package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlq"
	"github.com/roach88/sqlq/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose       bool
	Format        string // "json" | "text"
	Database      string
	ConfigPath    string
	SchemaVersion int64
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sqlq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlq",
		Short: "sqlq - queued SQLite access",
		Long:  "Run statements against a SQLite file through the sqlq access layer.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().Int64Var(&opts.SchemaVersion, "schema-version", 0, "target schema version")

	// Add subcommands
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewScalarCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// resolveConfig merges the config file, environment and the flags that were
// set explicitly on cmd, then validates the result.
func (o *RootOptions) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") || cfg.Path == "" {
		cfg.Path = o.Database
	}
	if flags.Changed("schema-version") {
		cfg.SchemaVersion = o.SchemaVersion
	}
	if flags.Changed("format") || o.ConfigPath == "" {
		cfg.Format = o.Format
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// session is everything a subcommand needs to run one statement.
type session struct {
	db  *sqlq.DB
	cfg *config.Config
	out *OutputFormatter
	ctx context.Context
}

// openSession resolves configuration, sets up logging, opens the database
// and runs its schema lifecycle ahead of any statement.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := o.resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	// Diagnostics go to stderr so JSON output stays parseable.
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Level(),
	})
	logger := slog.New(handler)

	out := &OutputFormatter{
		Format:    cfg.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db := sqlq.Open(cfg.Path, append(cfg.Options(), sqlq.WithLogger(logger))...)
	sess := &session{db: db, cfg: cfg, out: out, ctx: ctx}

	attach := db.Attach(sqlq.ObserverFuncs{
		Create: func(h *sqlq.Handle) {
			out.VerboseLog("creating database %s", cfg.Path)
		},
		Upgrade: func(h *sqlq.Handle, oldVersion, newVersion int64) {
			out.VerboseLog("schema version %d -> %d", oldVersion, newVersion)
		},
		Error: func(h *sqlq.Handle, err error) {
			out.VerboseLog("schema lifecycle failed: %v", err)
		},
	})
	if _, err := attach.Wait(ctx); err != nil {
		sess.Close()
		return nil, sess.fail("attach failed", err)
	}

	return sess, nil
}

// Close stops the database's executor.
func (s *session) Close() {
	_ = s.db.Close()
}

// fail reports err through the formatter and converts it to an ExitError.
// Open failures are command errors; everything else is a failure.
func (s *session) fail(message string, err error) error {
	code, msg := string(sqlq.Unexpected), err.Error()
	var se *sqlq.Error
	if errors.As(err, &se) {
		code, msg = string(se.Kind), se.Message
	}
	_ = s.out.Error(code, msg, nil)

	if sqlq.IsOpenError(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}
