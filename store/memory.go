package store

import (
	"biometria/models"
	"context"
	"sort"
	"sync"
)

// Memory is a process-local Store. Records are copied on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*models.Enrollment
}

func NewMemory() *Memory {
	return &Memory{records: map[string]*models.Enrollment{}}
}

func (m *Memory) Upsert(ctx context.Context, rec *models.Enrollment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.records[rec.IdentityID] = rec.Clone()
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, identityID string) (*models.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[identityID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) Delete(ctx context.Context, identityID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[identityID]; !ok {
		return 0, nil
	}
	delete(m.records, identityID)
	return 1, nil
}

func (m *Memory) Snapshot(ctx context.Context) ([]models.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	result := make([]models.Enrollment, 0, len(m.records))
	for _, rec := range m.records {
		result = append(result, *rec.Clone())
	}
	m.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].IdentityID < result[j].IdentityID })
	return result, nil
}

func (m *Memory) Close() error { return nil }
