package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
)

// Autosaver persists the latest committed snapshot of one document in the
// background. Snapshots that arrive while a save is running replace each
// other; only the newest is written.
type Autosaver struct {
	manager *Manager
	id      string
	delay   time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	pending *domain.Document
	lastErr error

	saveMu sync.Mutex // orders saves from the loop and Flush
	notify chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// AutosaveOption configures an Autosaver.
type AutosaveOption func(*Autosaver)

// WithDelay waits before saving so bursts of edits are written once.
func WithDelay(d time.Duration) AutosaveOption {
	return func(a *Autosaver) {
		a.delay = d
	}
}

// WithAutosaveLogger sets the logger used to report failed saves.
func WithAutosaveLogger(logger *slog.Logger) AutosaveOption {
	return func(a *Autosaver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAutosaver starts the background saver for document id.
func NewAutosaver(manager *Manager, id string, opts ...AutosaveOption) *Autosaver {
	a := &Autosaver{
		manager: manager,
		id:      id,
		logger:  manager.logger,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.loop()
	return a
}

// OnChange matches domain.Hooks.OnChange. It never blocks.
// Freshly loaded documents are skipped.
func (a *Autosaver) OnChange(_ context.Context, e *domain.ChangeEvent) {
	if e.Type == domain.EventDocumentLoaded {
		return
	}
	doc := e.Document
	a.mu.Lock()
	a.pending = &doc
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// Hooks returns store hooks wired to the saver.
func (a *Autosaver) Hooks() domain.Hooks {
	return domain.Hooks{OnChange: a.OnChange}
}

// Err returns the error of the last save attempt.
func (a *Autosaver) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *Autosaver) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		case <-a.notify:
		}

		if a.delay > 0 {
			t := time.NewTimer(a.delay)
			select {
			case <-a.stop:
				t.Stop()
				return
			case <-t.C:
			}
		}
		_ = a.Flush(context.Background())
	}
}

// Flush saves the pending snapshot, if any, and waits for the write.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	doc := a.pending
	a.pending = nil
	a.mu.Unlock()
	if doc == nil {
		return nil
	}

	err := a.manager.Save(ctx, a.id, *doc)

	a.mu.Lock()
	a.lastErr = err
	if err != nil && a.pending == nil {
		// Keep the snapshot for the next attempt unless a newer one arrived.
		a.pending = doc
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Error("autosave failed", "document_id", a.id, "err", err)
	}
	return err
}

// Close stops the background loop and writes the pending snapshot.
func (a *Autosaver) Close(ctx context.Context) error {
	a.once.Do(func() { close(a.stop) })
	<-a.done
	return a.Flush(ctx)
}
