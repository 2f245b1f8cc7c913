package uploader

import "github.com/filedrop/backend/internal/models"

// State is the single mutable value the uploader exposes to callers. It is
// written only by the uploader itself; observers receive copies.
type State struct {
	Busy          bool                   `json:"busy"`
	Progress      int                    `json:"progress"` // 0-100, batch granularity
	UploadedFiles []*models.UploadedFile `json:"uploadedFiles"`
	Errors        []string               `json:"errors"`
	DragOver      bool                   `json:"dragOver"`
}

// clone returns a defensive copy safe to hand to observers.
func (s State) clone() State {
	out := s
	out.UploadedFiles = append([]*models.UploadedFile(nil), s.UploadedFiles...)
	out.Errors = append([]string(nil), s.Errors...)
	return out
}
