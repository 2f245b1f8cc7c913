// handlers_upload.go - File upload operation handlers
package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/rules"
	"github.com/filedrop/backend/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store   storage.Store
	catalog Catalog
	rules   *rules.Rules
	events  *EventHub
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store storage.Store, catalog Catalog, r *rules.Rules, events *EventHub) UploadHandler {
	if r == nil {
		r = rules.Default()
	}
	return &UploadHandlerImpl{
		store:   store,
		catalog: catalog,
		rules:   r,
		events:  events,
	}
}

// HandleUploadFile accepts one multipart file plus metadata and returns its
// descriptor. Clients with a single-file batch use this endpoint.
func (h *UploadHandlerImpl) HandleUploadFile(c echo.Context) error {
	meta, err := parseMeta(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	if err := h.checkFile(fh); err != nil {
		return err
	}

	info, err := h.saveOne(c, fh, meta)
	if err != nil {
		return err
	}

	h.publish(EventFileUploaded, info)
	return c.JSON(http.StatusCreated, info)
}

// HandleUploadBatch accepts two or more multipart files under the "files"
// field. The whole batch is accepted or rejected as a unit, and the response
// preserves part order.
func (h *UploadHandlerImpl) HandleUploadBatch(c echo.Context) error {
	meta, err := parseMeta(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}

	fhs := form.File["files"]
	if len(fhs) < 2 {
		return NewValidationError("batch upload requires at least two files")
	}

	// Validate everything up front so nothing is stored for a doomed batch.
	for _, fh := range fhs {
		if err := h.checkFile(fh); err != nil {
			return err
		}
	}

	infos := make([]*models.UploadedFile, 0, len(fhs))
	for _, fh := range fhs {
		info, err := h.saveOne(c, fh, meta)
		if err != nil {
			// Atomic batch: roll back files stored earlier in this request.
			for _, stored := range infos {
				h.store.Delete(stored.ID)
				h.catalog.Delete(c.Request().Context(), stored.ID)
			}
			return err
		}
		infos = append(infos, info)
	}

	for _, info := range infos {
		h.publish(EventFileUploaded, info)
	}
	return c.JSON(http.StatusCreated, infos)
}

// HandleRecentFiles returns a list of recently uploaded files. With
// ?format=msgpack the list is msgpack-encoded for cheaper transfers.
func (h *UploadHandlerImpl) HandleRecentFiles(c echo.Context) error {
	files, err := h.catalog.Recent(c.Request().Context(), 50)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.UploadedFile{}
	}

	if c.QueryParam("format") == "msgpack" {
		data, err := msgpack.Marshal(files)
		if err != nil {
			return NewInternalError("failed to encode files", err)
		}
		return c.Blob(http.StatusOK, "application/x-msgpack", data)
	}

	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *UploadHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("missing file id")
	}

	info, err := h.catalog.Get(c.Request().Context(), id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile deletes a file from storage and the catalog
func (h *UploadHandlerImpl) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("missing file id")
	}

	info, err := h.catalog.Get(c.Request().Context(), id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	if err := h.store.Delete(id); err != nil {
		return NewNotFoundError("file", id)
	}
	if err := h.catalog.Delete(c.Request().Context(), id); err != nil {
		return NewInternalError("failed to delete record", err)
	}

	h.publish(EventFileDeleted, info)
	return c.NoContent(http.StatusNoContent)
}

// HandleRenameFile updates the display name of a file
func (h *UploadHandlerImpl) HandleRenameFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("missing file id")
	}

	var req renameFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("missing name")
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	if err := h.catalog.Rename(c.Request().Context(), id, req.Name); err != nil {
		return NewInternalError("failed to rename record", err)
	}

	return c.JSON(http.StatusOK, info)
}

// checkFile re-applies the validation rules server-side. Clients that go
// through the uploader never hit these, but the API is open to anything.
func (h *UploadHandlerImpl) checkFile(fh *multipart.FileHeader) error {
	if fh.Size == 0 {
		return NewValidationError(fmt.Sprintf("%s: file is empty", fh.Filename))
	}
	if fh.Size > h.rules.MaxFileSize {
		return NewValidationError(fmt.Sprintf("%s: file exceeds %d bytes", fh.Filename, h.rules.MaxFileSize))
	}
	if !h.rules.AllowsExtension(fh.Filename) {
		return NewValidationError(fmt.Sprintf("%s: file type not allowed", fh.Filename))
	}
	return nil
}

// saveOne stores the file content and its catalog record.
func (h *UploadHandlerImpl) saveOne(c echo.Context, fh *multipart.FileHeader, meta models.UploadMeta) (*models.UploadedFile, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	info, err := h.store.Save(fh.Filename, contentType, meta, src)
	if err != nil {
		return nil, NewInternalError("failed to save file", err)
	}

	if err := h.catalog.Record(c.Request().Context(), info); err != nil {
		// Keep storage and catalog consistent.
		h.store.Delete(info.ID)
		return nil, NewInternalError("failed to record upload", err)
	}

	return info, nil
}

func (h *UploadHandlerImpl) publish(eventType string, info *models.UploadedFile) {
	if h.events != nil {
		h.events.Publish(UploadEvent{Type: eventType, File: info})
	}
}

// parseMeta extracts the upload metadata form fields; category is required.
func parseMeta(c echo.Context) (models.UploadMeta, error) {
	meta := models.UploadMeta{
		ProjectID:   c.FormValue("projectId"),
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
	}
	if meta.Category == "" {
		return meta, NewValidationError("missing category")
	}

	if raw := c.FormValue("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				meta.Tags = append(meta.Tags, tag)
			}
		}
	}
	return meta, nil
}

// Request/Response types

type renameFileRequest struct {
	Name string `json:"name"`
}
