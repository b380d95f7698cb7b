package loam

import (
	"context"
	"fmt"

	"github.com/aretw0/loam"
)

// Header is the typed view of the top-level document fields.
// Pages and variables are left undecoded.
type Header struct {
	Version         int    `json:"version" mapstructure:"version"`
	SelectedPageID  string `json:"selectedPageId" mapstructure:"selectedPageId"`
	SelectedLayerID string `json:"selectedLayerId" mapstructure:"selectedLayerId"`
}

// ReadHeader loads only the header of the document through a typed repository.
func (s *Store) ReadHeader(ctx context.Context, id string) (Header, error) {
	if err := validateID(id); err != nil {
		return Header{}, err
	}
	typed := loam.NewTypedRepository[Header](s.Repo)
	doc, err := typed.Get(ctx, id+ext)
	if err != nil {
		return Header{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return doc.Data, nil
}
