package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sqlq"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "Run a query and print every row",
		Long: `Run a query and print its rows.

Arguments after the statement are bound in order:
  null      NULL
  x'cafe'   blob (hex)
  'text'    text, even if it looks numeric
  42        integer
  2.5       real
  anything else is bound as text

Text output is a column-aligned table; JSON output is a list of objects
keyed by column name in result order.

Example:
  sqlq query --db app.db "SELECT id, name FROM users WHERE id > ?" 10
  sqlq query --db app.db --format json "SELECT * FROM users"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return queryRows(rootOpts, cmd, args[0], args[1:])
		},
	}
	return cmd
}

func queryRows(opts *RootOptions, cmd *cobra.Command, query string, rawArgs []string) error {
	args, err := parseArgs(rawArgs)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	}

	s, err := opts.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	task := s.db.Query(query, args...)
	rows, err := task.Wait(s.ctx)
	if err != nil {
		return s.fail("query failed", err)
	}

	if s.out.Format == "json" {
		if rows == nil {
			rows = []sqlq.Row{}
		}
		return s.out.SuccessOp(task.ID(), rows)
	}

	var columns []string
	if len(rows) > 0 {
		columns = rows[0].Columns()
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = make([]string, r.Len())
		for j := range r.Len() {
			_, v := r.At(j)
			cells[i][j] = sqlq.Format(v)
		}
	}
	return s.out.Table(columns, cells)
}
