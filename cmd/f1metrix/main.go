// Command f1metrix explores the outputs of the F1 driver skill model.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/f1metrix/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
