package models

import "time"

// UploadedFile represents metadata about a file accepted by the server.
type UploadedFile struct {
	ID          string    `json:"id" msgpack:"id"`
	Name        string    `json:"name" msgpack:"name"`
	Size        int64     `json:"size" msgpack:"size"`
	ContentType string    `json:"contentType" msgpack:"contentType"`
	ProjectID   string    `json:"projectId,omitempty" msgpack:"projectId"`
	Category    string    `json:"category" msgpack:"category"`
	Description string    `json:"description,omitempty" msgpack:"description"`
	Tags        []string  `json:"tags,omitempty" msgpack:"tags"`
	UploadedAt  time.Time `json:"uploadedAt" msgpack:"uploadedAt"`
}

// UploadMeta carries the caller-supplied metadata attached to every upload
// request, single or batch.
type UploadMeta struct {
	ProjectID   string   `json:"projectId,omitempty"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
