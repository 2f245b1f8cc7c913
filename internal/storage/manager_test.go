package storage

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filedrop/backend/internal/models"
)

func TestLocalStore_SaveAndGet(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	meta := models.UploadMeta{ProjectID: "p1", Category: "docs", Tags: []string{"q3"}}
	info, err := store.Save("report.pdf", "application/pdf", meta, strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, int64(8), info.Size)
	assert.Equal(t, "application/pdf", info.ContentType)
	assert.Equal(t, "p1", info.ProjectID)
	assert.Equal(t, "docs", info.Category)

	got, err := store.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	// Content landed on disk under the id.
	path, err := store.GetFilePath(info.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalStore_GetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("nope")
	assert.Error(t, err)
}

func TestLocalStore_ListMostRecentFirst(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	meta := models.UploadMeta{Category: "docs"}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := store.SaveBytes(name, "text/plain", meta, []byte(name))
		require.NoError(t, err)
	}

	list, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLocalStore_Delete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	info, err := store.SaveBytes("a.txt", "text/plain", models.UploadMeta{Category: "docs"}, []byte("x"))
	require.NoError(t, err)
	path, err := store.GetFilePath(info.ID)
	require.NoError(t, err)

	require.NoError(t, store.Delete(info.ID))

	_, err = store.Get(info.ID)
	assert.Error(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, store.Delete(info.ID))
}

func TestLocalStore_Rename(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	info, err := store.SaveBytes("old.txt", "text/plain", models.UploadMeta{Category: "docs"}, []byte("x"))
	require.NoError(t, err)

	renamed, err := store.Rename(info.ID, "new.txt")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", renamed.Name)

	got, err := store.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.txt", got.Name)
}
