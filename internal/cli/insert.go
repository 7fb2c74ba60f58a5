package cli

import (
	"github.com/spf13/cobra"
)

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert <sql> [args...]",
		Short: "Insert a row and print its rowid",
		Long: `Run an INSERT statement and print the rowid of the inserted row.

Example:
  sqlq insert --db app.db "INSERT INTO users(name) VALUES (?)" ann`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return insertRow(rootOpts, cmd, args[0], args[1:])
		},
	}
	return cmd
}

func insertRow(opts *RootOptions, cmd *cobra.Command, query string, rawArgs []string) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	task := s.db.Insert(query, args...)
	id, err := task.Wait(s.ctx)
	if err != nil {
		return s.fail("insert failed", err)
	}
	return s.out.SuccessOp(task.ID(), id)
}
