// mock_catalog.go - In-memory catalog implementation for testing
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/filedrop/backend/internal/models"
)

// MockCatalog implements api.Catalog for testing
type MockCatalog struct {
	mu      sync.RWMutex
	records map[string]*models.UploadedFile
	order   []string

	// RecordErr, when set, makes every Record call fail.
	RecordErr error
}

// NewMockCatalog creates an empty mock catalog
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		records: make(map[string]*models.UploadedFile),
	}
}

func (m *MockCatalog) Record(ctx context.Context, f *models.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.records[f.ID] = f
	m.order = append(m.order, f.ID)
	return nil
}

func (m *MockCatalog) Recent(ctx context.Context, limit int) ([]*models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*models.UploadedFile
	for _, f := range m.records {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockCatalog) Get(ctx context.Context, id string) (*models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("upload not found: %s", id)
	}
	return f, nil
}

func (m *MockCatalog) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("upload not found: %s", id)
	}
	delete(m.records, id)
	return nil
}

func (m *MockCatalog) Rename(ctx context.Context, id, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.records[id]
	if !ok {
		return fmt.Errorf("upload not found: %s", id)
	}
	f.Name = newName
	return nil
}

// Count returns the number of cataloged records.
func (m *MockCatalog) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
