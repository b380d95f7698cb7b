package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutosaver_SavesCommittedSnapshots(t *testing.T) {
	backend := memory.NewStore()
	manager := session.NewManager(backend)
	saver := session.NewAutosaver(manager, "site")

	s := store.New(store.WithHooks(saver.Hooks()))
	_, err := s.AddComponentLayer("Button", "", tree.AtEnd)
	require.NoError(t, err)
	s.AddPageLayer("About")

	require.Eventually(t, func() bool {
		doc, err := manager.Load(context.Background(), "site")
		return err == nil && len(doc.Pages) == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, saver.Close(context.Background()))
	assert.NoError(t, saver.Err())
}

func TestAutosaver_CloseFlushesLatest(t *testing.T) {
	backend := memory.NewStore()
	manager := session.NewManager(backend)
	saver := session.NewAutosaver(manager, "site", session.WithDelay(time.Hour))

	s := store.New(store.WithHooks(saver.Hooks()))
	for i := 0; i < 5; i++ {
		s.AddPageLayer("p")
	}

	_, err := backend.Load(context.Background(), "site")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "nothing is written before the delay")

	require.NoError(t, saver.Close(context.Background()))
	doc, err := manager.Load(context.Background(), "site")
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 6)
	assert.True(t, domain.Equal(s.Document(), doc))
}

type failingStore struct {
	*memory.Store
}

func (f failingStore) Save(context.Context, string, map[string]any) error {
	return errors.New("disk full")
}

func TestAutosaver_KeepsSnapshotOnFailure(t *testing.T) {
	manager := session.NewManager(failingStore{memory.NewStore()})
	saver := session.NewAutosaver(manager, "site", session.WithDelay(time.Hour))

	s := store.New(store.WithHooks(saver.Hooks()))
	s.AddPageLayer("p")

	err := saver.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, saver.Err())

	// The snapshot is retried on the next flush.
	assert.Error(t, saver.Close(context.Background()))
}
