package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/variables"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds request bodies.
const maxBodySize = 4 << 20

// Editor defines what the HTTP adapter needs from the editing core.
// *arbor.Editor satisfies it.
type Editor interface {
	Document() domain.Document
	DocumentID() string
	Update(fn func(*store.Store) error) error
	Resolve(layerID string, overrides map[string]any) (variables.Layer, error)
	Subscribe(fn func(context.Context, *domain.ChangeEvent)) func()
	Save(ctx context.Context) error
}

var _ Editor = (*arbor.Editor)(nil)

// Server serves the REST API of one editor.
type Server struct {
	Editor  Editor
	Streams *StreamManager

	watcher  ports.Watchable
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithWatcher streams backend changes on /events?source=storage.
func WithWatcher(w ports.Watchable) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// NewServer creates a Server and subscribes it to editor changes.
// Call the returned cancel func to unsubscribe.
func NewServer(editor Editor, opts ...Option) (*Server, func()) {
	s := &Server{
		Editor:  editor,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	cancel := editor.Subscribe(func(_ context.Context, e *domain.ChangeEvent) {
		diff := domain.Diff(&e.Previous, &e.Document)
		if diff == nil {
			s.logger.Debug("no diff calculated", "op", e.Operation)
			return
		}
		data, err := json.Marshal(diff)
		if err != nil {
			s.logger.Error("failed to encode diff", "op", e.Operation, "err", err)
			return
		}
		s.Streams.Broadcast(string(data))
	})
	return s, cancel
}

// NewHandler creates the HTTP handler of an editor.
func NewHandler(editor Editor, opts ...Option) http.Handler {
	s, _ := NewServer(editor, opts...)
	return s.Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/document", func(r chi.Router) {
		r.Get("/", s.GetDocument)
		r.Put("/", s.ReplaceDocument)
		r.Post("/save", s.SaveDocument)
		r.Post("/undo", s.Undo)
		r.Post("/redo", s.Redo)
		r.Put("/selection", s.Select)
	})
	r.Post("/pages", s.AddPage)
	r.Route("/layers", func(r chi.Router) {
		r.Post("/", s.AddLayer)
		r.Route("/{layerID}", func(r chi.Router) {
			r.Get("/", s.GetLayer)
			r.Patch("/", s.UpdateLayer)
			r.Delete("/", s.RemoveLayer)
			r.Get("/resolved", s.ResolveLayer)
			r.Post("/duplicate", s.DuplicateLayer)
			r.Post("/move", s.MoveLayer)
			r.Put("/bindings/{prop}", s.BindProp)
			r.Delete("/bindings/{prop}", s.UnbindProp)
		})
	})
	r.Route("/variables", func(r chi.Router) {
		r.Get("/", s.ListVariables)
		r.Post("/", s.AddVariable)
		r.Patch("/{variableID}", s.UpdateVariable)
		r.Delete("/{variableID}", s.RemoveVariable)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":      "arbor-http",
		"version":  strings.TrimSpace(arbor.Version),
		"document": s.Editor.DocumentID(),
	})
}

// decodeBody parses a JSON body the way persisted documents are parsed and
// decodes it into dst with mapstructure.
func decodeBody(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return err
	}
	raw, err := codec.UnmarshalRaw(data, codec.JSON)
	if err != nil {
		return err
	}
	return mapstructure.Decode(raw, dst)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps engine errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrLayerNotFound),
		errors.Is(err, domain.ErrPageNotFound),
		errors.Is(err, domain.ErrVariableNotFound),
		errors.Is(err, domain.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrLastPage),
		errors.Is(err, domain.ErrInvalidMove):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidVariableType),
		errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "op", op, "err", err)
	} else {
		s.logger.Warn("request rejected", "op", op, "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
