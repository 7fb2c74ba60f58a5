package cli

import (
	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <sql> [args...]",
		Short: "Execute a statement for its side effects",
		Long: `Execute a single SQL statement and discard any rows it returns.

Positional arguments after the statement are bound in order to its
parameters. See 'sqlq query --help' for the literal syntax.

Example:
  sqlq exec --db app.db "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execStatement(rootOpts, cmd, args[0], args[1:])
		},
	}
	return cmd
}

func execStatement(opts *RootOptions, cmd *cobra.Command, query string, rawArgs []string) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	task := s.db.Exec(query, args...)
	if _, err := task.Wait(s.ctx); err != nil {
		return s.fail("exec failed", err)
	}
	return s.out.SuccessOp(task.ID(), "ok")
}
