package uploader

import "github.com/filedrop/backend/internal/models"

// Candidate is a user-selected file awaiting validation and upload.
// The content is held in memory; candidates are never persisted.
type Candidate struct {
	Name        string
	ContentType string
	Data        []byte
}

// Options is the immutable configuration bundle for a single uploader.
// Hooks are optional; nil hooks are skipped.
type Options struct {
	ProjectID   string
	Category    string
	Description string
	Tags        []string

	// MaxFiles caps the number of accepted files per run. Zero means
	// "use the rules file ceiling".
	MaxFiles int

	OnSuccess  func(files []*models.UploadedFile)
	OnError    func(message string)
	OnProgress func(percent int)
}

// meta builds the transport metadata from the options.
func (o Options) meta() models.UploadMeta {
	return models.UploadMeta{
		ProjectID:   o.ProjectID,
		Category:    o.Category,
		Description: o.Description,
		Tags:        o.Tags,
	}
}
