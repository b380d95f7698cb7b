package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/history"
	"github.com/aretw0/arbor/pkg/ids"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/google/uuid"
)

// DefaultPageType is the layer type of pages created by AddPageLayer.
const DefaultPageType = "div"

// Operation labels carried by change events.
const (
	OpInitialize             = "initialize"
	OpAddComponentLayer      = "add_component_layer"
	OpAddPageLayer           = "add_page_layer"
	OpDuplicateLayer         = "duplicate_layer"
	OpRemoveLayer            = "remove_layer"
	OpMoveLayer              = "move_layer"
	OpUpdateLayer            = "update_layer"
	OpSelectLayer            = "select_layer"
	OpSelectPage             = "select_page"
	OpAddVariable            = "add_variable"
	OpUpdateVariable         = "update_variable"
	OpRemoveVariable         = "remove_variable"
	OpBindPropToVariable     = "bind_prop_to_variable"
	OpUnbindPropFromVariable = "unbind_prop_from_variable"
	OpUndo                   = "undo"
	OpRedo                   = "redo"
)

// Store holds the editable document and exposes its mutation API.
// Every mutation derives a new immutable snapshot and commits it through the
// history manager. A Store is not safe for concurrent use.
type Store struct {
	doc        domain.Document
	components registry.ComponentLookup
	history    *history.Manager[domain.Document]
	hooks      domain.Hooks
	logger     *slog.Logger
	newID      ids.Generator
	pageType   string
}

// Option configures a Store.
type Option func(*Store)

// WithComponents sets the component catalog used for defaults.
func WithComponents(c registry.ComponentLookup) Option {
	return func(s *Store) {
		s.components = c
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.Hooks) Option {
	return func(s *Store) {
		s.hooks = hooks
	}
}

// WithHistory replaces the history manager.
func WithHistory(h *history.Manager[domain.Document]) Option {
	return func(s *Store) {
		if h != nil {
			s.history = h
		}
	}
}

// WithHistoryLimit bounds the undo stack. Zero means unbounded.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		s.history = newHistory(n)
	}
}

// WithIDGenerator replaces the identifier generator.
func WithIDGenerator(gen ids.Generator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithPageType sets the layer type of new pages.
func WithPageType(typ string) Option {
	return func(s *Store) {
		if typ != "" {
			s.pageType = typ
		}
	}
}

func newHistory(limit int) *history.Manager[domain.Document] {
	return history.New(
		history.WithLimit[domain.Document](limit),
		history.WithEqual(domain.Equal),
	)
}

// New creates a Store holding a single empty page.
func New(opts ...Option) *Store {
	s := &Store{
		history:  newHistory(history.DefaultLimit),
		logger:   logging.NewNop(),
		newID:    ids.New,
		pageType: DefaultPageType,
	}
	for _, opt := range opts {
		opt(s)
	}

	page := s.newPage("Page 1")
	s.doc = domain.Document{
		Pages:          []*domain.Layer{page},
		SelectedPageID: page.ID,
		Variables:      []domain.Variable{},
	}
	return s
}

// Initialize replaces the document and clears history. A selection that does
// not point into the document is repaired.
func (s *Store) Initialize(doc domain.Document) error {
	if len(doc.Pages) == 0 {
		return domain.ErrEmptyDocument
	}
	if _, ok := doc.Page(doc.SelectedPageID); !ok {
		doc.SelectedPageID = doc.Pages[0].ID
	}
	if doc.SelectedLayerID != "" && !pageContains(doc.SelectedPage(), doc.SelectedLayerID) {
		doc.SelectedLayerID = ""
	}
	if doc.Variables == nil {
		doc.Variables = []domain.Variable{}
	}

	prev := s.doc
	s.doc = doc
	s.history.Clear()
	s.emit(domain.EventDocumentLoaded, OpInitialize, prev)
	return nil
}

// Document returns the current snapshot. The returned value shares immutable
// layers with the store and must not be mutated.
func (s *Store) Document() domain.Document {
	return s.doc
}

// Undo restores the previous snapshot.
func (s *Store) Undo() bool {
	prev, ok := s.history.Undo(s.doc)
	if !ok {
		return false
	}
	old := s.doc
	s.doc = prev
	s.emit(domain.EventDocumentChanged, OpUndo, old)
	return true
}

// Redo re-applies the last undone snapshot.
func (s *Store) Redo() bool {
	next, ok := s.history.Redo(s.doc)
	if !ok {
		return false
	}
	old := s.doc
	s.doc = next
	s.emit(domain.EventDocumentChanged, OpRedo, old)
	return true
}

func (s *Store) CanUndo() bool { return s.history.CanUndo() }
func (s *Store) CanRedo() bool { return s.history.CanRedo() }

// commit installs next when it differs from the current snapshot.
// It reports whether anything changed.
func (s *Store) commit(op string, next domain.Document) bool {
	prev := s.doc
	if !s.history.Record(prev, next) {
		return false
	}
	s.doc = next
	s.emit(domain.EventDocumentChanged, op, prev)
	return true
}

func (s *Store) emit(typ domain.EventType, op string, prev domain.Document) {
	if s.hooks.OnChange == nil {
		return
	}
	s.hooks.OnChange(context.Background(), &domain.ChangeEvent{
		EventBase: domain.EventBase{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Type:      typ,
		},
		Operation: op,
		Previous:  prev,
		Document:  s.doc,
	})
}

// notFound logs a warning and wraps sentinel with the offending id.
func (s *Store) notFound(op string, sentinel error, key, id string) error {
	s.logger.Warn("target not found", "op", op, key, id)
	return fmt.Errorf("%s %q: %w", op, id, sentinel)
}

func (s *Store) defaultValue(typ, field string) (any, bool) {
	if s.components == nil {
		return nil, false
	}
	return s.components.DefaultValue(typ, field)
}

func (s *Store) lookup(typ string) (registry.Component, bool) {
	if s.components == nil {
		return registry.Component{}, false
	}
	return s.components.Lookup(typ)
}
