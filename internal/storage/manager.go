package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/filedrop/backend/internal/models"
)

// Store defines the interface for server-side file storage.
type Store interface {
	Save(name, contentType string, meta models.UploadMeta, r io.Reader) (*models.UploadedFile, error)
	SaveBytes(name, contentType string, meta models.UploadMeta, data []byte) (*models.UploadedFile, error)
	Get(id string) (*models.UploadedFile, error)
	List(limit int) ([]*models.UploadedFile, error)
	Delete(id string) error
	Rename(id string, newName string) (*models.UploadedFile, error)
	GetFilePath(id string) (string, error)
}

// LocalStore implements Store using the local filesystem. File content is
// written under uuid names; metadata lives in an in-memory index.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.UploadedFile
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.UploadedFile),
	}, nil
}

// Save writes a file to the local filesystem and indexes its metadata.
func (s *LocalStore) Save(name, contentType string, meta models.UploadMeta, r io.Reader) (*models.UploadedFile, error) {
	id := uuid.New().String()
	path := filepath.Join(s.uploadDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.UploadedFile{
		ID:          id,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		ProjectID:   meta.ProjectID,
		Category:    meta.Category,
		Description: meta.Description,
		Tags:        meta.Tags,
		UploadedAt:  time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info

	return info, nil
}

// SaveBytes is Save over an in-memory payload.
func (s *LocalStore) SaveBytes(name, contentType string, meta models.UploadMeta, data []byte) (*models.UploadedFile, error) {
	return s.Save(name, contentType, meta, bytes.NewReader(data))
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}

	return info, nil
}

// List returns the most recent files.
func (s *LocalStore) List(limit int) ([]*models.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*models.UploadedFile
	for _, info := range s.files {
		list = append(list, info)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file not found: %s", id)
	}

	path := filepath.Join(s.uploadDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, id)

	return nil
}

// Rename updates the display name of a file.
func (s *LocalStore) Rename(id string, newName string) (*models.UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}

	info.Name = newName
	return info, nil
}

// GetFilePath returns the absolute path to a file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", fmt.Errorf("file not found: %s", id)
	}

	return filepath.Join(s.uploadDir, id), nil
}
