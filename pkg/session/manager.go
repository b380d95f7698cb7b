package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/migrate"
	"github.com/aretw0/arbor/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held if its owner dies.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates document access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given document store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Load reads and decodes a document, migrating it in memory when stale.
func (m *Manager) Load(ctx context.Context, id string) (domain.Document, error) {
	var doc domain.Document
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.load(ctx, id)
		return err
	})
	return doc, err
}

func (m *Manager) load(ctx context.Context, id string) (domain.Document, error) {
	raw, err := m.store.Load(ctx, id)
	if err != nil {
		return domain.Document{}, err
	}
	if migrate.NeedsMigration(raw) {
		m.logger.Info("migrating document", "document_id", id,
			"from", migrate.Version(raw), "to", migrate.CurrentVersion)
	}
	doc, err := codec.Decode(raw)
	if err != nil {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	if len(doc.Pages) == 0 {
		return domain.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrEmptyDocument)
	}
	return doc, nil
}

// LoadOrCreate loads a document or, when it does not exist, persists fallback
// under id. It reports whether the document was created.
func (m *Manager) LoadOrCreate(ctx context.Context, id string, fallback domain.Document) (domain.Document, bool, error) {
	var (
		doc     domain.Document
		created bool
	)
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		doc, err = m.load(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("failed to check document existence: %w", err)
		}

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, id, codec.Encode(fallback)); err != nil {
			return fmt.Errorf("failed to initialize document: %w", err)
		}
		doc, created = fallback, true
		return nil
	})
	return doc, created, err
}

// Save encodes and persists the document.
func (m *Manager) Save(ctx context.Context, id string, doc domain.Document) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Save(ctx, id, codec.Encode(doc))
	})
}

// Migrate rewrites a stored document at the current version. It reports
// whether the stored form changed.
func (m *Manager) Migrate(ctx context.Context, id string) (bool, error) {
	migrated := false
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		raw, err := m.store.Load(ctx, id)
		if err != nil {
			return err
		}
		if !migrate.NeedsMigration(raw) {
			return nil
		}
		if err := m.store.Save(ctx, id, migrate.Migrate(raw)); err != nil {
			return fmt.Errorf("failed to save migrated document: %w", err)
		}
		m.logger.Info("document migrated", "document_id", id, "from", migrate.Version(raw))
		migrated = true
		return nil
	})
	return migrated, err
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Delete(ctx, id)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes a function while holding the lock for the document.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
