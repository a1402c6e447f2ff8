package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/memorybank"
)

// AppendOptions holds flags for the append command.
type AppendOptions struct {
	*RootOptions
	Section string
}

// NewAppendCommand creates the append command.
func NewAppendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AppendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "append <file> <entry>",
		Short: "Append an entry to a document",
		Long: `Append an entry to a document, creating the document and section as needed.
Without --section the entry goes under "## General".

Example:
  memorybank append decisionLog.md "Use SQLite for storage." --section "## Decision"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := map[string]any{"file_name": args[0], "entry": args[1]}
			if opts.Section != "" {
				callArgs["section_header"] = opts.Section
			}
			return runTool(cmd, opts.RootOptions, memorybank.ToolAppend, callArgs)
		},
	}

	cmd.Flags().StringVarP(&opts.Section, "section", "s", "", "section header to append under")

	return cmd
}
