package cli

import (
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <sql> [args...]",
		Short: "Run a statement and report how many rows changed",
		Long: `Run a single SQL statement and print the number of rows it changed,
including rows changed by triggers.

Example:
  sqlq run --db app.db "UPDATE users SET name = ? WHERE id = ?" ann 1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatement(rootOpts, cmd, args[0], args[1:])
		},
	}
	return cmd
}

func runStatement(opts *RootOptions, cmd *cobra.Command, query string, rawArgs []string) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	task := s.db.Run(query, args...)
	changes, err := task.Wait(s.ctx)
	if err != nil {
		return s.fail("run failed", err)
	}
	return s.out.SuccessOp(task.ID(), changes)
}
