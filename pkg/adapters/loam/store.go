// Package loam stores documents as JSON files in a Loam repository.
package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/arbor/pkg/codec"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
)

const ext = ".json"

// Store adapts a Loam repository to ports.DocumentStore.
// Loam owns reads and writes; existence checks, deletes and listings go
// through the repository directory.
type Store struct {
	Repo core.Repository
	Dir  string
}

// New wraps an initialized repository rooted at dir.
func New(repo core.Repository, dir string) *Store {
	return &Store{Repo: repo, Dir: dir}
}

// Open initializes a Loam repository at dir without versioning.
func Open(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve loam path: %w", err)
	}
	repo, err := loam.Init(abs, loam.WithVersioning(false))
	if err != nil {
		return nil, fmt.Errorf("loam init failed: %w", err)
	}
	return New(repo, abs), nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+ext)
}

// Save writes the document body as Loam metadata.
func (s *Store) Save(ctx context.Context, id string, doc map[string]any) error {
	if err := validateID(id); err != nil {
		return err
	}
	err := s.Repo.Save(ctx, core.Document{
		ID:       id + ext,
		Metadata: core.Metadata(doc),
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}
	return nil
}

// Load reads the document back. Values are normalized the same way the
// other stores normalize JSON bodies.
func (s *Store) Load(ctx context.Context, id string) (map[string]any, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.path(id)); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDocumentNotFound
	}

	doc, err := s.Repo.Get(ctx, id+ext)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	return codec.UnmarshalRaw(data, codec.JSON)
}

// Delete removes the document file. Missing documents are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// List returns the IDs of all JSON documents in the repository root.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid document id %q", id)
	}
	return nil
}
