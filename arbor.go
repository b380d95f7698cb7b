package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/variables"
)

// ErrNoDocument is returned by operations that need an opened document.
var ErrNoDocument = errors.New("no document opened")

// Editor is the high-level entry point of the library. It composes the
// document store with the registries and a persistence session, and
// serializes access so it can be shared by concurrent adapters.
type Editor struct {
	mu         sync.Mutex
	store      *store.Store
	components *registry.Components
	functions  *registry.Functions
	manager    *session.Manager
	autosaver  *session.Autosaver
	documentID string

	backend      ports.DocumentStore
	locker       ports.DistributedLocker
	hooks        domain.Hooks
	logger       *slog.Logger
	historyLimit int
	pageType     string
	autosave     bool
	delay        time.Duration

	listenersMu sync.RWMutex
	listeners   map[int]func(context.Context, *domain.ChangeEvent)
	nextID      int
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithComponents sets the component catalog.
func WithComponents(c *registry.Components) Option {
	return func(e *Editor) {
		e.components = c
	}
}

// WithFunctions sets the function registry used for resolution.
func WithFunctions(f *registry.Functions) Option {
	return func(e *Editor) {
		e.functions = f
	}
}

// WithDocumentStore sets the persistence backend. Defaults to memory.
func WithDocumentStore(s ports.DocumentStore) Option {
	return func(e *Editor) {
		e.backend = s
	}
}

// WithLocker enables distributed locking of saves.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Editor) {
		e.locker = l
	}
}

// WithHooks registers lifecycle callbacks. They run while the editor is locked
// and must not call back into it.
func WithHooks(hooks domain.Hooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHistoryLimit bounds the undo stack.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.historyLimit = n
	}
}

// WithPageType sets the component type of new pages.
func WithPageType(typ string) Option {
	return func(e *Editor) {
		e.pageType = typ
	}
}

// WithAutosave saves every committed change in the background, waiting delay
// after the last change.
func WithAutosave(delay time.Duration) Option {
	return func(e *Editor) {
		e.autosave = true
		e.delay = delay
	}
}

// New initializes an Editor holding a fresh single-page document.
// Call Open to bind it to a persisted document.
func New(opts ...Option) *Editor {
	e := &Editor{
		historyLimit: -1,
		listeners:    make(map[int]func(context.Context, *domain.ChangeEvent)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.components == nil {
		e.components = registry.NewComponents()
	}
	if e.functions == nil {
		e.functions = registry.NewFunctions()
	}
	if e.backend == nil {
		e.backend = memory.NewStore()
	}

	e.manager = session.NewManager(e.backend,
		session.WithLocker(e.locker),
		session.WithLogger(e.logger),
	)

	storeOpts := []store.Option{
		store.WithComponents(e.components),
		store.WithLogger(e.logger),
		store.WithHooks(domain.Hooks{OnChange: e.dispatch}),
		store.WithPageType(e.pageType),
	}
	if e.historyLimit >= 0 {
		storeOpts = append(storeOpts, store.WithHistoryLimit(e.historyLimit))
	}
	e.store = store.New(storeOpts...)
	return e
}

// Open loads the document id, creating it from the current document when it
// does not exist yet. It reports whether the document was created.
func (e *Editor) Open(ctx context.Context, id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.detach(ctx); err != nil {
		return false, err
	}

	doc, created, err := e.manager.LoadOrCreate(ctx, id, e.store.Document())
	if err != nil {
		return false, fmt.Errorf("failed to open document %s: %w", id, err)
	}
	if err := e.store.Initialize(doc); err != nil {
		return false, fmt.Errorf("failed to open document %s: %w", id, err)
	}

	e.documentID = id
	if e.autosave {
		e.autosaver = session.NewAutosaver(e.manager, id,
			session.WithDelay(e.delay),
			session.WithAutosaveLogger(e.logger),
		)
	}
	e.logger.Info("document opened", "document_id", id, "created", created)
	return created, nil
}

// detach flushes and drops the autosaver of the current document.
func (e *Editor) detach(ctx context.Context) error {
	if e.autosaver == nil {
		return nil
	}
	err := e.autosaver.Close(ctx)
	e.autosaver = nil
	if err != nil {
		return fmt.Errorf("failed to flush document %s: %w", e.documentID, err)
	}
	return nil
}

// DocumentID returns the id of the opened document, or "".
func (e *Editor) DocumentID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.documentID
}

// Save persists the current document. Changes wait until the write is done,
// so a newer snapshot is never overwritten by this one.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.documentID == "" {
		return ErrNoDocument
	}
	return e.manager.Save(ctx, e.documentID, e.store.Document())
}

// Close flushes pending autosaves.
func (e *Editor) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detach(ctx)
}

// Document returns the current snapshot.
func (e *Editor) Document() domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Document()
}

// Update runs fn with exclusive access to the document store.
// Change hooks fire before Update returns.
func (e *Editor) Update(fn func(*store.Store) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.store)
}

// Resolve returns the resolved props and children of a layer. overrides map
// variable ids to values that replace their defaults.
func (e *Editor) Resolve(layerID string, overrides map[string]any) (variables.Layer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	layer := e.store.FindLayerByID(layerID)
	if layer == nil {
		return variables.Layer{}, fmt.Errorf("layer %q: %w", layerID, domain.ErrLayerNotFound)
	}
	r := variables.Resolver{
		Variables: e.store.Document().Variables,
		Functions: e.functions,
		Logger:    e.logger,
	}
	return r.ResolveLayer(layer, overrides), nil
}

// Components returns the component catalog.
func (e *Editor) Components() *registry.Components {
	return e.components
}

// Functions returns the function registry.
func (e *Editor) Functions() *registry.Functions {
	return e.functions
}

// Sessions returns the persistence session manager.
func (e *Editor) Sessions() *session.Manager {
	return e.manager
}

// Subscribe registers fn for committed changes and returns its cancel func.
// fn runs while the editor is locked and must not block.
func (e *Editor) Subscribe(fn func(context.Context, *domain.ChangeEvent)) func() {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()

	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() {
		e.listenersMu.Lock()
		defer e.listenersMu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *Editor) dispatch(ctx context.Context, ev *domain.ChangeEvent) {
	if e.autosaver != nil {
		e.autosaver.OnChange(ctx, ev)
	}
	if e.hooks.OnChange != nil {
		e.hooks.OnChange(ctx, ev)
	}

	e.listenersMu.RLock()
	defer e.listenersMu.RUnlock()
	for _, fn := range e.listeners {
		fn(ctx, ev)
	}
}
