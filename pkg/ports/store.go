package ports

import "context"

// DocumentStore defines the interface for persisting documents.
type DocumentStore interface {
	// Save persists the document for a given ID, replacing any previous version.
	Save(ctx context.Context, id string, doc map[string]any) error

	// Load retrieves the document for a given ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (map[string]any, error)

	// Delete removes the document for a given ID. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored documents.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for stores that can notify about backend changes.
// This is typically used for hot-reload of documents edited by other tools.
type Watchable interface {
	// Watch returns a channel that receives the ID of every document changed
	// on the backend. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
