package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/memorybank"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Brief     string
	BriefFile string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the well-known memory bank documents",
		Long: `Create the memory bank database and its well-known documents
(productContext.md, activeContext.md, progress.md, decisionLog.md,
systemPatterns.md). Documents that already exist are left unchanged.

A project brief, given inline or read from a file, is appended to
productContext.md under "# Product Context".

Example:
  memorybank init
  memorybank init --brief-file ./projectBrief.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Brief, "brief", "", "project brief to add to productContext.md")
	cmd.Flags().StringVar(&opts.BriefFile, "brief-file", "", "file containing the project brief")
	cmd.MarkFlagsMutuallyExclusive("brief", "brief-file")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	brief := opts.Brief
	if opts.BriefFile != "" {
		data, err := os.ReadFile(opts.BriefFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read brief file", err)
		}
		brief = string(data)
	}

	args := map[string]any{}
	if brief != "" {
		args["project_brief_content"] = brief
	}
	return runTool(cmd, opts.RootOptions, memorybank.ToolInitialize, args)
}
