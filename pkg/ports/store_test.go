package ports_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// MockStore is an in-memory DocumentStore that serializes through JSON,
// mimicking what real backends do to value types.
type MockStore struct {
	data map[string][]byte
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string][]byte)}
}

func (m *MockStore) Save(_ context.Context, id string, doc map[string]any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.data[id] = b
	return nil
}

func (m *MockStore) Load(_ context.Context, id string) (map[string]any, error) {
	b, ok := m.data[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	var doc map[string]any
	err := json.Unmarshal(b, &doc)
	return doc, err
}

func (m *MockStore) Delete(_ context.Context, id string) error {
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestDocumentStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, NewMockStore())
}
