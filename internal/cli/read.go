package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/memorybank"
)

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <file>",
		Short: "Print the rendered content of a document",
		Long: `Print the rendered content of a document.

Example:
  memorybank read progress.md
  memorybank read decisionLog.md --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd, rootOpts, memorybank.ToolRead, map[string]any{"file_name": args[0]})
		},
	}
}
