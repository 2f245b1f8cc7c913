package uploader

import (
	"context"

	"github.com/filedrop/backend/internal/models"
)

// Transport is the remote upload endpoint pair the dispatcher drives.
// UploadFile handles a single candidate; UploadFiles handles two or more.
// The two calls exist because the server exposes an endpoint optimized for
// each shape.
type Transport interface {
	UploadFile(ctx context.Context, c Candidate, meta models.UploadMeta) (*models.UploadedFile, error)
	UploadFiles(ctx context.Context, cs []Candidate, meta models.UploadMeta) ([]*models.UploadedFile, error)
}
