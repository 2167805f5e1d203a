// Command pushrx runs marble scenarios against the pushrx runtime.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/pushrx/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
