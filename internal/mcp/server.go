package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.lsp.dev/jsonrpc2"

	"github.com/roach88/memorybank/internal/memorybank"
)

// DefaultProtocolVersion is answered when the client does not name one.
const DefaultProtocolVersion = "2024-11-05"

// Method names handled by Server.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// Router is the tool dispatcher behind the server.
// *memorybank.Router satisfies it.
type Router interface {
	Tools() ([]memorybank.Tool, error)
	Call(ctx context.Context, tool string, args map[string]any) memorybank.Result
}

// Server answers MCP tool requests on a single connection.
type Server struct {
	router  Router
	name    string
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithServerInfo sets the name and version reported by initialize.
func WithServerInfo(name, version string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
		if version != "" {
			s.version = version
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server that dispatches tool calls to router.
func NewServer(router Router, opts ...Option) *Server {
	s := &Server{
		router:  router,
		name:    "memorybank",
		version: "dev",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      serverInfo   `json:"serverInfo"`
}

type capabilities struct {
	Tools struct{} `json:"tools"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type listToolsResult struct {
	Tools []memorybank.Tool `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Serve reads requests from rwc until it is closed or ctx is cancelled.
// A clean end of input returns nil.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := NewLineStream(rwc, func(line []byte, err error) {
		s.logger.Warn("rejecting malformed message", "error", err, "bytes", len(line))
	})
	conn := jsonrpc2.NewConn(stream)
	conn.Go(ctx, s.Handle)

	select {
	case <-ctx.Done():
		conn.Close()
		<-conn.Done()
		return ctx.Err()
	case <-conn.Done():
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := conn.Err(); err != nil && !isClosed(err) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// Handle is the jsonrpc2.Handler for MCP methods.
func (s *Server) Handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	log := s.logger.With("method", req.Method())
	log.Debug("request received")

	switch req.Method() {
	case MethodInitialize:
		var params initializeParams
		if len(req.Params()) > 0 {
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return reply(ctx, nil, fmt.Errorf("%w: %s", jsonrpc2.ErrInvalidParams, err))
			}
		}
		version := params.ProtocolVersion
		if version == "" {
			version = DefaultProtocolVersion
		}
		log.Info("client connected",
			"client", params.ClientInfo.Name,
			"client_version", params.ClientInfo.Version,
			"protocol_version", version)
		return reply(ctx, initializeResult{
			ProtocolVersion: version,
			ServerInfo:      serverInfo{Name: s.name, Version: s.version},
		}, nil)

	case MethodInitialized:
		return reply(ctx, nil, nil)

	case MethodPing:
		return reply(ctx, struct{}{}, nil)

	case MethodToolsList:
		tools, err := s.router.Tools()
		if err != nil {
			log.Error("tool catalog unavailable", "error", err)
			return reply(ctx, nil, fmt.Errorf("%w: %s", jsonrpc2.ErrInternal, err))
		}
		return reply(ctx, listToolsResult{Tools: tools}, nil)

	case MethodToolsCall:
		var params callToolParams
		if err := json.Unmarshal(req.Params(), &params); err != nil {
			return reply(ctx, nil, fmt.Errorf("%w: %s", jsonrpc2.ErrInvalidParams, err))
		}
		if params.Name == "" {
			return reply(ctx, nil, fmt.Errorf("%w: tool name is required", jsonrpc2.ErrInvalidParams))
		}
		return reply(ctx, s.router.Call(ctx, params.Name, decodeArguments(params.Arguments)), nil)

	default:
		log.Debug("method not found")
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

// decodeArguments returns the argument object, or an empty map when the
// arguments are absent or not a JSON object. The router reports the
// resulting missing parameters.
func decodeArguments(raw json.RawMessage) map[string]any {
	args := map[string]any{}
	if len(raw) == 0 {
		return args
	}
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
