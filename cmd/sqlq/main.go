// Command sqlq runs statements against a SQLite file through the sqlq
// access layer.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sqlq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sqlq:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
