package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/testutils"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDiskFull = errors.New("disk full")

// readOnlyStore loads documents but refuses every save.
type readOnlyStore struct {
	ports.DocumentStore
}

func (readOnlyStore) Save(context.Context, string, map[string]any) error {
	return errDiskFull
}

func TestCloseEditor_ReportsFinalSave(t *testing.T) {
	ctx := context.Background()
	backend := memory.NewStore()
	require.NoError(t, backend.Save(ctx, "site", codec.Encode(testutils.SampleDocument(t))))

	var logs bytes.Buffer
	p := &project{logger: logging.NewWithWriter(&logs, slog.LevelDebug, logging.FormatText)}

	open := func() *arbor.Editor {
		editor := arbor.New(arbor.WithDocumentStore(readOnlyStore{backend}), arbor.WithAutosave(time.Hour))
		_, err := editor.Open(ctx, "site")
		require.NoError(t, err)
		require.NoError(t, editor.Update(func(s *store.Store) error {
			s.AddPageLayer("Pricing")
			return nil
		}))
		return editor
	}

	var err error
	p.closeEditor(open(), &err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, logs.String(), "final save failed")

	// An earlier error is kept.
	serveErr := errors.New("listen failed")
	err = serveErr
	p.closeEditor(open(), &err)
	assert.Equal(t, serveErr, err)

	// Nothing pending, nothing reported.
	err = nil
	editor := arbor.New(arbor.WithDocumentStore(backend), arbor.WithAutosave(time.Hour))
	_, openErr := editor.Open(ctx, "site")
	require.NoError(t, openErr)
	p.closeEditor(editor, &err)
	assert.NoError(t, err)
}
