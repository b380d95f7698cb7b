package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/migrate"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency and records overlapping writes.
type SlowStore struct {
	*memory.Store
	active  atomic.Int32
	overlap atomic.Bool
}

func NewSlowStore() *SlowStore {
	return &SlowStore{Store: memory.NewStore()}
}

func (s *SlowStore) Save(ctx context.Context, id string, doc map[string]any) error {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Save(ctx, id, doc)
}

func (s *SlowStore) Load(ctx context.Context, id string) (map[string]any, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	return s.Store.Load(ctx, id)
}

func sampleDoc(t *testing.T, name string) domain.Document {
	t.Helper()
	b := dsl.New()
	b.Page("home", name).Add(dsl.Layer("btn", "Button").Text("Go"))
	doc, err := b.Build()
	require.NoError(t, err)
	return doc
}

func TestManager_SaveLoad(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	doc := sampleDoc(t, "Home")

	require.NoError(t, manager.Save(ctx, "site", doc))
	loaded, err := manager.Load(ctx, "site")
	require.NoError(t, err)
	assert.True(t, domain.Equal(doc, loaded))

	_, err = manager.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"site"}, ids)
}

func TestManager_Locking(t *testing.T) {
	store := NewSlowStore()
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"
	doc := sampleDoc(t, "Home")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Save(ctx, id, doc))
		}()
	}
	wg.Wait()

	assert.False(t, store.overlap.Load(), "saves of the same document must be serialized")
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := NewSlowStore()
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"
	fallback := sampleDoc(t, "Home")

	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, isNew, err := manager.LoadOrCreate(ctx, id, fallback)
			assert.NoError(t, err)
			assert.Len(t, doc.Pages, 1)
			if isNew {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "exactly one caller creates the document")
	doc, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "home", doc.SelectedPageID)
}

func legacyDocument() map[string]any {
	return map[string]any{
		"pages": []any{
			map[string]any{
				"id":    "p1",
				"type":  "div",
				"props": map[string]any{"mode": "dark"},
				"children": []any{
					map[string]any{"id": "t1", "type": "_text_", "props": map[string]any{}, "text": "Hello"},
				},
			},
		},
		"selectedPageId":  "p1",
		"selectedLayerId": nil,
	}
}

func TestManager_LoadMigrates(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "old", legacyDocument()))

	manager := session.NewManager(store)
	doc, err := manager.Load(ctx, "old")
	require.NoError(t, err)

	text := doc.Pages[0].Children.Layers[0]
	assert.Equal(t, "span", text.Type)
	assert.Equal(t, domain.TextChildren("Hello"), text.Children)
	assert.NotNil(t, doc.Variables)

	// Loading does not rewrite storage.
	raw, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.True(t, migrate.NeedsMigration(raw))
}

func TestManager_Migrate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "old", legacyDocument()))
	manager := session.NewManager(store)

	changed, err := manager.Migrate(ctx, "old")
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, migrate.CurrentVersion, migrate.Version(raw))

	changed, err = manager.Migrate(ctx, "old")
	require.NoError(t, err)
	assert.False(t, changed, "current documents are left alone")

	_, err = manager.Migrate(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	fail    bool
}

func (l *countingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.fail {
		return nil, errors.New("lock busy")
	}
	l.locks.Add(1)
	return func(context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "doc", sampleDoc(t, "Home")))
	_, err := manager.Load(ctx, "doc")
	require.NoError(t, err)

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())

	locker.fail = true
	err = manager.Save(ctx, "doc", sampleDoc(t, "Home"))
	assert.ErrorContains(t, err, "distributed lock")
}
