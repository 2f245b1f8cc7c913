// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/filedrop/backend/internal/models"
)

// UploadHandler handles file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBatch(c echo.Context) error
	HandleRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// Catalog is the persistent upload record store behind the handlers.
// This allows mocking in tests.
type Catalog interface {
	Record(ctx context.Context, f *models.UploadedFile) error
	Recent(ctx context.Context, limit int) ([]*models.UploadedFile, error)
	Get(ctx context.Context, id string) (*models.UploadedFile, error)
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id, newName string) error
}
