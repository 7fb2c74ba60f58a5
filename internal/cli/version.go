package cli

import (
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the persisted schema version",
		Long: `Print the schema version stored in the database (PRAGMA user_version).

With --schema-version N the schema lifecycle runs first: a missing file is
created at version N and an older file is raised to N.

Example:
  sqlq version --db app.db
  sqlq version --db app.db --schema-version 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return schemaVersion(rootOpts, cmd)
		},
	}
	return cmd
}

func schemaVersion(opts *RootOptions, cmd *cobra.Command) error {
	s, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	task := s.db.SchemaVersion()
	v, err := task.Wait(s.ctx)
	if err != nil {
		return s.fail("reading schema version failed", err)
	}
	return s.out.SuccessOp(task.ID(), v)
}
