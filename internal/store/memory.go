package store

import (
	"context"
	"sync"

	"github.com/brizzai/volunteer-auth/internal/auth/models"
)

type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]models.Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]models.Profile)}
}

func (m *MemoryStore) Get(_ context.Context, collection, key string) (models.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[collection][key]
	if !ok {
		return nil, false, nil
	}
	return clone(doc), true, nil
}

func (m *MemoryStore) Set(_ context.Context, collection, key string, doc models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]models.Profile)
	}
	m.docs[collection][key] = clone(doc)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// clone copies the top level so callers can't mutate stored documents
func clone(doc models.Profile) models.Profile {
	out := make(models.Profile, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
