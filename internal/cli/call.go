package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/memorybank"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Args string
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool with raw JSON arguments",
		Long: `Call a tool by name with a JSON argument object, exactly as a protocol
client would, and print the result envelope.

Example:
  memorybank call append_memory_bank_entry --args '{"file_name":"progress.md","entry":"Shipped."}'
  memorybank call check_memory_bank_status`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return callTool(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "{}", "tool arguments as a JSON object")

	return cmd
}

func callTool(opts *CallOptions, tool string, cmd *cobra.Command) error {
	var argsMap map[string]any
	if err := json.Unmarshal([]byte(opts.Args), &argsMap); err != nil {
		return WrapExitError(ExitCommandError, "invalid --args JSON", err)
	}
	if argsMap == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --args JSON: %s is not an object", opts.Args))
	}

	// Status must not create the database it reports on.
	if tool == memorybank.ToolStatus {
		return runStatus(opts.RootOptions, cmd)
	}
	return runTool(cmd, opts.RootOptions, tool, argsMap)
}
