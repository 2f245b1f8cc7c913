// Package transport implements the uploader.Transport interface over the
// FileDrop HTTP API.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/filedrop/backend/internal/models"
	"github.com/filedrop/backend/internal/uploader"
)

const defaultTimeout = 60 * time.Second

// Client talks to a FileDrop server. It satisfies uploader.Transport.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given server base URL
// (e.g. "http://localhost:8090").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

// UploadFile sends one candidate to the single-file endpoint.
func (c *Client) UploadFile(ctx context.Context, cand uploader.Candidate, meta models.UploadMeta) (*models.UploadedFile, error) {
	body, contentType, err := encodeForm(meta, "file", []uploader.Candidate{cand})
	if err != nil {
		return nil, err
	}

	var file models.UploadedFile
	if err := c.post(ctx, "/api/files/upload", body, contentType, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// UploadFiles sends two or more candidates to the batch endpoint. The
// response preserves the order of the request parts.
func (c *Client) UploadFiles(ctx context.Context, cands []uploader.Candidate, meta models.UploadMeta) ([]*models.UploadedFile, error) {
	body, contentType, err := encodeForm(meta, "files", cands)
	if err != nil {
		return nil, err
	}

	var files []*models.UploadedFile
	if err := c.post(ctx, "/api/files/upload/batch", body, contentType, &files); err != nil {
		return nil, err
	}
	if len(files) != len(cands) {
		return nil, fmt.Errorf("server returned %d descriptors for %d files", len(files), len(cands))
	}
	return files, nil
}

func (c *Client) post(ctx context.Context, path string, body io.Reader, contentType string, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// encodeForm builds the multipart request body: metadata as form fields,
// candidates as file parts under the given field name.
func encodeForm(meta models.UploadMeta, field string, cands []uploader.Candidate) (io.Reader, string, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	fields := map[string]string{
		"projectId":   meta.ProjectID,
		"category":    meta.Category,
		"description": meta.Description,
		"tags":        strings.Join(meta.Tags, ","),
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	for _, cand := range cands {
		part, err := createFilePart(w, field, cand.Name, cand.ContentType)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(cand.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// createFilePart is multipart.Writer.CreateFormFile with a caller-declared
// content type instead of the hardcoded application/octet-stream.
func createFilePart(w *multipart.Writer, field, name, contentType string) (io.Writer, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

// mapError turns a non-2xx response into an error carrying the server's
// structured message when one is present.
func mapError(resp *http.Response) error {
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("server rejected upload: %s", apiErr.Message)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
