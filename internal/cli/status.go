package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/memorybank"
	"github.com/roach88/memorybank/internal/store"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the memory bank exists and list its documents",
		Long: `Report whether the memory bank database exists and list its documents.

The database file is never created by this command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.newLogger(cmd.ErrOrStderr(), cfg)
	exists := storeExists(cfg.DBPath)

	// Only an existing file is opened; the router reports the absent case.
	var backend memorybank.Store
	if ok, err := exists(); err == nil && ok {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open memory bank", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		backend = st
	}

	router := memorybank.New(backend,
		memorybank.WithExistenceCheck(exists),
		memorybank.WithLogger(logger),
	)
	res := router.Call(commandContext(cmd), memorybank.ToolStatus, nil)
	return opts.formatter(cmd).Envelope(res)
}
