package store

import (
	"context"
	"sort"
	"sync"

	"github.com/a2aregistry/backend/internal/models"
)

// Memory is a mutex-guarded in-memory Store. It is the default when no
// database is configured and the test double for the registry service.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*models.AgentRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]*models.AgentRecord)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) Put(_ context.Context, rec *models.AgentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return ErrDuplicateID
	}
	m.records[rec.ID] = rec.Clone()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.AgentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

func (m *Memory) Scan(_ context.Context) ([]*models.AgentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.AgentRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Update(_ context.Context, id string, fn Mutator) (*models.AgentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	draft := rec.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	m.records[id] = draft
	return draft.Clone(), nil
}
