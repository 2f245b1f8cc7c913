// Package catalog persists upload records in a DuckDB file so the upload
// history survives server restarts and stays queryable.
package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/filedrop/backend/internal/models"
)

// DuckStore is a DuckDB-backed catalog of uploaded files.
type DuckStore struct {
	db     *sql.DB
	dbPath string
}

// NewDuckStore opens (or creates) the catalog database at dbPath.
func NewDuckStore(dbPath string) (*DuckStore, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS uploads (
			id           VARCHAR PRIMARY KEY,
			name         VARCHAR NOT NULL,
			size         BIGINT NOT NULL,
			content_type VARCHAR,
			project_id   VARCHAR,
			category     VARCHAR NOT NULL,
			description  VARCHAR,
			tags         VARCHAR,
			uploaded_at  TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create uploads table: %w", err)
	}

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

// Record inserts one upload record.
func (ds *DuckStore) Record(ctx context.Context, f *models.UploadedFile) error {
	_, err := ds.db.ExecContext(ctx, `
		INSERT INTO uploads (id, name, size, content_type, project_id, category, description, tags, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Size, f.ContentType, f.ProjectID, f.Category,
		f.Description, strings.Join(f.Tags, ","), f.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("recording upload %s: %w", f.ID, err)
	}
	return nil
}

// Recent returns the most recent upload records, newest first.
func (ds *DuckStore) Recent(ctx context.Context, limit int) ([]*models.UploadedFile, error) {
	rows, err := ds.db.QueryContext(ctx, `
		SELECT id, name, size, content_type, project_id, category, description, tags, uploaded_at
		FROM uploads ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent uploads: %w", err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// ByProject returns all records for a project, newest first.
func (ds *DuckStore) ByProject(ctx context.Context, projectID string) ([]*models.UploadedFile, error) {
	rows, err := ds.db.QueryContext(ctx, `
		SELECT id, name, size, content_type, project_id, category, description, tags, uploaded_at
		FROM uploads WHERE project_id = ? ORDER BY uploaded_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying uploads for project %s: %w", projectID, err)
	}
	defer rows.Close()

	return scanUploads(rows)
}

// Get returns a single record by id.
func (ds *DuckStore) Get(ctx context.Context, id string) (*models.UploadedFile, error) {
	rows, err := ds.db.QueryContext(ctx, `
		SELECT id, name, size, content_type, project_id, category, description, tags, uploaded_at
		FROM uploads WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying upload %s: %w", id, err)
	}
	defer rows.Close()

	files, err := scanUploads(rows)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("upload not found: %s", id)
	}
	return files[0], nil
}

// Delete removes a record.
func (ds *DuckStore) Delete(ctx context.Context, id string) error {
	res, err := ds.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting upload %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("upload not found: %s", id)
	}
	return nil
}

// Rename updates a record's display name.
func (ds *DuckStore) Rename(ctx context.Context, id, newName string) error {
	res, err := ds.db.ExecContext(ctx, `UPDATE uploads SET name = ? WHERE id = ?`, newName, id)
	if err != nil {
		return fmt.Errorf("renaming upload %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("upload not found: %s", id)
	}
	return nil
}

// Count returns the number of cataloged uploads.
func (ds *DuckStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := ds.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting uploads: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (ds *DuckStore) Close() error {
	return ds.db.Close()
}

func scanUploads(rows *sql.Rows) ([]*models.UploadedFile, error) {
	var out []*models.UploadedFile
	for rows.Next() {
		var (
			f          models.UploadedFile
			tags       string
			uploadedAt time.Time
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Size, &f.ContentType,
			&f.ProjectID, &f.Category, &f.Description, &tags, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scanning upload row: %w", err)
		}
		if tags != "" {
			f.Tags = strings.Split(tags, ",")
		}
		f.UploadedAt = uploadedAt
		out = append(out, &f)
	}
	return out, rows.Err()
}
