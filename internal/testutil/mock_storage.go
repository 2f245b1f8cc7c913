// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/filedrop/backend/internal/models"
)

// MockStorage implements storage.Store for testing
type MockStorage struct {
	mu       sync.RWMutex
	files    map[string]*models.UploadedFile
	fileData map[string][]byte
	nextID   int

	// SaveErr, when set, makes the next Save fail. Cleared after use so a
	// batch can fail partway through.
	SaveErr error
	// FailOnSave makes save number N (1-based) fail.
	FailOnSave int
	saveCalls  int
}

// NewMockStorage creates a new mock storage with default implementations
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.UploadedFile),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name, contentType string, meta models.UploadMeta, r io.Reader) (*models.UploadedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.SaveBytes(name, contentType, meta, data)
}

func (m *MockStorage) SaveBytes(name, contentType string, meta models.UploadMeta, data []byte) (*models.UploadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCalls++
	if m.SaveErr != nil {
		err := m.SaveErr
		m.SaveErr = nil
		return nil, err
	}
	if m.FailOnSave != 0 && m.saveCalls == m.FailOnSave {
		return nil, fmt.Errorf("mock save failure at call %d", m.saveCalls)
	}

	m.nextID++
	file := &models.UploadedFile{
		ID:          fmt.Sprintf("mock-%d", m.nextID),
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		ProjectID:   meta.ProjectID,
		Category:    meta.Category,
		Description: meta.Description,
		Tags:        meta.Tags,
		UploadedAt:  time.Now(),
	}

	m.files[file.ID] = file
	m.fileData[file.ID] = data
	return file, nil
}

func (m *MockStorage) Get(id string) (*models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}
	return file, nil
}

func (m *MockStorage) List(limit int) ([]*models.UploadedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []*models.UploadedFile
	for _, f := range m.files {
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

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[id]; !ok {
		return fmt.Errorf("file not found: %s", id)
	}
	delete(m.files, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) Rename(id string, newName string) (*models.UploadedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}
	file.Name = newName
	return file, nil
}

func (m *MockStorage) GetFilePath(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.files[id]; !ok {
		return "", fmt.Errorf("file not found: %s", id)
	}
	return "/mock/" + id, nil
}

// FileData returns the stored content for assertions.
func (m *MockStorage) FileData(id string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.fileData[id]
	return data, ok
}

// Count returns the number of stored files.
func (m *MockStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
