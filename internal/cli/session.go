package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/config"
	"github.com/roach88/memorybank/internal/memorybank"
	"github.com/roach88/memorybank/internal/store"
)

// loadConfig resolves configuration from the global flags.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		ConfigFile: o.ConfigFile,
		DBPath:     o.Database,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, nil
}

// newLogger returns a text logger on w. --verbose forces debug level.
func (o *RootOptions) newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// formatter returns an OutputFormatter bound to the command's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// openStore opens the store at path, creating its directory if needed.
func openStore(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open memory bank %s", path), err)
	}
	return st, nil
}

// storeExists reports whether the database file at path is present. It is
// checked on every status call, so a bank removed underneath a running
// server reports as absent.
func storeExists(path string) memorybank.ExistsFunc {
	return func() (bool, error) { return store.Exists(path) }
}

// commandContext returns the command's context, or Background if unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// runTool opens the configured store, makes one tool call and writes the
// resulting envelope.
func runTool(cmd *cobra.Command, opts *RootOptions, tool string, args map[string]any) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.newLogger(cmd.ErrOrStderr(), cfg)

	logger.Debug("opening database", "path", cfg.DBPath)
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	router := memorybank.New(st,
		memorybank.WithExistenceCheck(storeExists(cfg.DBPath)),
		memorybank.WithLogger(logger),
	)
	res := router.Call(commandContext(cmd), tool, args)
	return opts.formatter(cmd).Envelope(res)
}
