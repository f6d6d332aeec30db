package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSBlobStorePutAndDelete(t *testing.T) {
	store, err := NewFSBlobStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	locator, err := store.Put(context.Background(), "resumes", "resume.pdf", "application/pdf", []byte("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(locator, "http://localhost:8080/files/resumes/"))
	assert.True(t, strings.HasSuffix(locator, "-resume.pdf"))

	key := strings.TrimPrefix(locator, "http://localhost:8080/files/")
	data, err := os.ReadFile(filepath.Join(store.Dir(), filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)

	require.NoError(t, store.Delete(context.Background(), locator))
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}

func TestFSBlobStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewFSBlobStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	locator, err := store.Put(context.Background(), "resumes", "r.pdf", "application/pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), locator))
	require.NoError(t, store.Delete(context.Background(), locator), "deleting an already-deleted blob is not an error")
}

func TestFSBlobStoreRejectsForeignLocators(t *testing.T) {
	store, err := NewFSBlobStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "http://elsewhere.example/files/resumes/x.pdf"))
	assert.Error(t, store.Delete(context.Background(), "http://localhost:8080/files/../etc/passwd"))
}

func TestFSBlobStoreSanitizesFilenames(t *testing.T) {
	store, err := NewFSBlobStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	locator, err := store.Put(context.Background(), "resumes", "../../evil.sh", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.NotContains(t, locator, "..")
	assert.True(t, strings.HasPrefix(locator, "http://localhost:8080/files/resumes/"))
}
