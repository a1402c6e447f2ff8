// Command memorybank serves a persistent project memory bank to AI agents
// over the Model Context Protocol and manages it from the command line.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/roach88/memorybank/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
