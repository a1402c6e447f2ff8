package memorybank

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/memorybank/internal/store"
)

// ProductContextDocument receives the project brief on initialize.
const ProductContextDocument = "productContext.md"

// ProductContextSection is the section the project brief is appended under.
const ProductContextSection = "# Product Context"

// WellKnownDocuments are created by initialize_memory_bank, in this order.
var WellKnownDocuments = []string{
	ProductContextDocument,
	"activeContext.md",
	"progress.md",
	"decisionLog.md",
	"systemPatterns.md",
}

var errStoreNotOpen = errors.New("memory bank store is not open")

// Store is the persistence the router dispatches to.
// *store.Store satisfies it.
type Store interface {
	EnsureDocument(ctx context.Context, name string) (store.Document, store.Outcome, error)
	ListDocuments(ctx context.Context) ([]string, error)
	AppendEntry(ctx context.Context, documentName, sectionTitle, content string) (store.Entry, error)
	DocumentContent(ctx context.Context, name string) (string, bool, error)
}

// ExistsFunc reports whether the store is present at its storage location.
type ExistsFunc func() (bool, error)

// Router validates tool calls, dispatches them to a Store and wraps every
// outcome in a Result. It holds no state between calls.
type Router struct {
	store  Store
	exists ExistsFunc
	ids    CallIDGenerator
	logger *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithExistenceCheck sets how check_memory_bank_status detects the store.
// The default reports true, for routers whose store is already open.
func WithExistenceCheck(fn ExistsFunc) Option {
	return func(r *Router) {
		if fn != nil {
			r.exists = fn
		}
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCallIDGenerator overrides the call id source (for testing).
// If unset, defaults to UUIDv7Generator.
func WithCallIDGenerator(gen CallIDGenerator) Option {
	return func(r *Router) {
		if gen != nil {
			r.ids = gen
		}
	}
}

// New creates a Router over st.
//
// st may be nil only when the existence check reports false for the life of
// the router; every other operation needs a store.
func New(st Store, opts ...Option) *Router {
	r := &Router{
		store:  st,
		exists: func() (bool, error) { return true, nil },
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tools returns the tool catalog.
func (r *Router) Tools() ([]Tool, error) {
	return Catalog()
}

// Call runs one tool call. It never returns an error: validation failures,
// unknown tools and store failures all come back as error Results.
func (r *Router) Call(ctx context.Context, tool string, args map[string]any) Result {
	log := r.logger.With("call_id", r.ids.Generate(), "tool", tool)
	log.Debug("tool call received")

	req, err := ParseRequest(tool, args)
	if err != nil {
		log.Warn("tool call rejected", "error", err)
		return errorResult(MessagePayload{Status: StatusError, Message: err.Error()})
	}

	if _, isStatus := req.(StatusRequest); !isStatus && r.store == nil {
		log.Error("tool call without store", "error", errStoreNotOpen)
		return errorMessage("%s", errStoreNotOpen.Error())
	}

	var res Result
	switch req := req.(type) {
	case InitializeRequest:
		res = r.initialize(ctx, log, req)
	case StatusRequest:
		res = r.status(ctx, log)
	case ReadRequest:
		res = r.read(ctx, log, req)
	case AppendRequest:
		res = r.append(ctx, log, req)
	}

	log.Debug("tool call finished", "is_error", res.IsError)
	return res
}

func (r *Router) initialize(ctx context.Context, log *slog.Logger, req InitializeRequest) Result {
	messages := make([]string, 0, len(WellKnownDocuments)+1)
	for _, name := range WellKnownDocuments {
		_, outcome, err := r.store.EnsureDocument(ctx, name)
		if err != nil {
			log.Error("error initializing memory bank", "document", name, "error", err)
			return errorMessage("%s", err.Error())
		}
		switch outcome {
		case store.Created:
			messages = append(messages, "Created document: "+name)
		case store.AlreadyExists:
			messages = append(messages, "Document "+name+" already exists.")
		}
	}

	if req.ProjectBrief != "" {
		content := "Based on project brief:\n\n" + req.ProjectBrief
		if _, err := r.store.AppendEntry(ctx, ProductContextDocument, ProductContextSection, content); err != nil {
			log.Error("error initializing memory bank", "document", ProductContextDocument, "error", err)
			return errorMessage("%s", err.Error())
		}
		messages = append(messages, "Added project brief to "+ProductContextDocument)
	}

	return successResult(InitializePayload{Status: StatusSuccess, Messages: messages})
}

func (r *Router) status(ctx context.Context, log *slog.Logger) Result {
	exists, err := r.exists()
	if err != nil {
		log.Error("error checking memory bank status", "error", err)
		return errorResult(StatusPayload{Exists: false, Files: []string{}, Error: err.Error()})
	}
	if !exists {
		return successResult(StatusPayload{Exists: false, Files: []string{}})
	}
	if r.store == nil {
		log.Error("error checking memory bank status", "error", errStoreNotOpen)
		return errorResult(StatusPayload{Exists: false, Files: []string{}, Error: errStoreNotOpen.Error()})
	}

	files, err := r.store.ListDocuments(ctx)
	if err != nil {
		log.Error("error checking memory bank status", "error", err)
		return errorResult(StatusPayload{Exists: false, Files: []string{}, Error: err.Error()})
	}
	return successResult(StatusPayload{Exists: true, Files: files})
}

func (r *Router) read(ctx context.Context, log *slog.Logger, req ReadRequest) Result {
	content, found, err := r.store.DocumentContent(ctx, req.FileName)
	if err != nil {
		log.Error("error reading document", "document", req.FileName, "error", err)
		return errorMessage("Failed to read document %s: %s", req.FileName, err.Error())
	}
	if !found {
		return errorMessage("Document not found: %s", req.FileName)
	}
	return successResult(ReadPayload{Content: content})
}

func (r *Router) append(ctx context.Context, log *slog.Logger, req AppendRequest) Result {
	if _, err := r.store.AppendEntry(ctx, req.FileName, req.SectionHeader, req.Entry); err != nil {
		log.Error("error appending to document", "document", req.FileName, "error", err)
		return errorMessage("Failed to append to document %s: %s", req.FileName, err.Error())
	}
	return successResult(MessagePayload{
		Status:  StatusSuccess,
		Message: "Appended entry to " + req.FileName,
	})
}
