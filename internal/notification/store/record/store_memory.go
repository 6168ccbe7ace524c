package record

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory. Content is copied on the
// way in and out so callers cannot mutate stored state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.Record)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %q: %w", id, sentinel.ErrNotFound)
	}
	record.Content = slices.Clone(record.Content)
	return &record, nil
}

func (s *InMemoryStore) Save(_ context.Context, record *models.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("record id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *record
	stored.Content = slices.Clone(record.Content)
	s.records[record.ID] = stored
	return nil
}

func (s *InMemoryStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}
