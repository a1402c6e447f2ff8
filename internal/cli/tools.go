package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/memorybank"
)

// NewToolsCommand creates the tools command.
func NewToolsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools served to protocol clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tools, err := memorybank.Catalog()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load tool catalog", err)
			}

			f := rootOpts.formatter(cmd)
			if f.Format == "json" {
				return f.Success(map[string]any{"tools": tools})
			}
			return f.Success(formatTools(tools))
		},
	}
}

// formatTools renders one block per tool: name, description, and its
// parameters with required ones marked.
func formatTools(tools []memorybank.Tool) string {
	var b strings.Builder
	for i, tool := range tools {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\n  %s\n", tool.Name, tool.Description)

		required := make(map[string]bool, len(tool.InputSchema.Required))
		for _, name := range tool.InputSchema.Required {
			required[name] = true
		}

		names := make([]string, 0, len(tool.InputSchema.Properties))
		for name := range tool.InputSchema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			marker := ""
			if required[name] {
				marker = " (required)"
			}
			fmt.Fprintf(&b, "    %s: %s%s\n", name, tool.InputSchema.Properties[name].Type, marker)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
