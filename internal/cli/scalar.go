package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// ScalarOptions holds flags for the scalar command.
type ScalarOptions struct {
	*RootOptions
	Type    string // "int" | "string"
	Default string
}

// NewScalarCommand creates the scalar command.
func NewScalarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScalarOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scalar <sql> [args...]",
		Short: "Print the first column of the first row",
		Long: `Run a query and print column 0 of its first row.

When the query returns no rows, or the value is NULL, the --default value
is printed instead.

Example:
  sqlq scalar --db app.db "SELECT count(*) FROM users"
  sqlq scalar --db app.db --type string --default none "SELECT name FROM users WHERE id = ?" 7`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryScalar(opts, cmd, args[0], args[1:])
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "int", "result type (int|string)")
	cmd.Flags().StringVar(&opts.Default, "default", "", "value printed when there is no result (int default: -1)")

	return cmd
}

func queryScalar(opts *ScalarOptions, cmd *cobra.Command, query string, rawArgs []string) error {
	if opts.Type != "int" && opts.Type != "string" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid type %q: must be int or string", opts.Type))
	}
	def := int64(-1)
	if opts.Type == "int" && opts.Default != "" {
		n, err := strconv.ParseInt(opts.Default, 10, 64)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --default for int", err)
		}
		def = n
	}

	args, err := parseArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.Type == "int" {
		task := s.db.ScalarInt(query, def, args...)
		n, err := task.Wait(s.ctx)
		if err != nil {
			return s.fail("scalar failed", err)
		}
		return s.out.SuccessOp(task.ID(), n)
	}

	task := s.db.ScalarString(query, opts.Default, args...)
	str, err := task.Wait(s.ctx)
	if err != nil {
		return s.fail("scalar failed", err)
	}
	return s.out.SuccessOp(task.ID(), str)
}
