package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Editor defines what the MCP server needs from the editing core.
// *arbor.Editor satisfies it.
type Editor interface {
	Document() domain.Document
	DocumentID() string
	Update(fn func(*store.Store) error) error
	Resolve(layerID string, overrides map[string]any) (variables.Layer, error)
	Save(ctx context.Context) error
}

var _ Editor = (*arbor.Editor)(nil)

// Server wraps an Editor and exposes it as an MCP Server.
type Server struct {
	editor    Editor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. MCP over stdio owns stdout, so it must not
// write there.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(editor Editor, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("arbor-mcp", strings.TrimSpace(arbor.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// mutate runs fn against the store and turns its outcome into a tool result.
// Engine errors are reported to the model, not to the transport.
func (s *Server) mutate(op string, fn func(*store.Store) (string, error)) *mcp.CallToolResult {
	var msg string
	err := s.editor.Update(func(st *store.Store) error {
		var err error
		msg, err = fn(st)
		return err
	})
	if err != nil {
		s.logger.Warn("tool rejected", "op", op, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", op, err))
	}
	return mcp.NewToolResultText(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jsonArg parses an optional argument holding JSON text. Plain text that is
// not valid JSON is taken as a string.
func jsonArg(req mcp.CallToolRequest, key string) (any, bool) {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return nil, false
	}
	str, isString := raw.(string)
	if !isString {
		return raw, true
	}
	var v any
	if err := json.Unmarshal([]byte(str), &v); err != nil {
		return str, true
	}
	return v, true
}

var errMissingArgument = errors.New("missing required argument")

func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v := req.GetString(key, "")
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingArgument, key)
	}
	return v, nil
}
