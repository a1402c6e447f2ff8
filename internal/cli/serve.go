package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/roach88/memorybank/internal/mcp"
	"github.com/roach88/memorybank/internal/memorybank"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions

	// CallIDs allows overriding the call id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	CallIDs memorybank.CallIDGenerator
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the memory bank tools over stdio",
		Long: `Serve the memory bank tools to an MCP client over stdin/stdout.

The database is created if it does not exist. Logs go to stderr; stdout
carries only protocol messages. The server stops when stdin closes or on
SIGINT/SIGTERM.

Example:
  memorybank serve
  memorybank serve --db ~/.memory-bank/project.db --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	return cmd
}

// stdio joins the command's input and output into one connection.
type stdio struct {
	in  io.Reader
	out io.Writer
}

func (s stdio) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdio) Write(p []byte) (int, error) { return s.out.Write(p) }

// Close closes the input so a blocked read returns.
func (s stdio) Close() error {
	if c, ok := s.in.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	logger := opts.newLogger(errOut, cfg)
	slog.SetDefault(logger)

	logger.Info("opening database", "path", cfg.DBPath)
	st, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	if err := st.Ping(commandContext(cmd)); err != nil {
		return WrapExitError(ExitCommandError, "database not ready", err)
	}
	logger.Info("database ready")

	routerOpts := []memorybank.Option{
		memorybank.WithExistenceCheck(storeExists(cfg.DBPath)),
		memorybank.WithLogger(logger),
	}
	if opts.CallIDs != nil {
		routerOpts = append(routerOpts, memorybank.WithCallIDGenerator(opts.CallIDs))
	}
	server := mcp.NewServer(memorybank.New(st, routerOpts...),
		mcp.WithServerInfo(cfg.ServerName, Version),
		mcp.WithLogger(logger),
	)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	in := cmd.InOrStdin()
	color.New(color.FgGreen).Fprintf(errOut, "Memory bank MCP server running on stdio (db: %s)\n", cfg.DBPath)
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		color.New(color.FgYellow).Fprintln(errOut, "stdin is a terminal; connect an MCP client or press Ctrl-C to stop.")
	}

	err = server.Serve(ctx, stdio{in: in, out: cmd.OutOrStdout()})
	if err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped")
	return nil
}
