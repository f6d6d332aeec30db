package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FSBlobStore keeps uploaded files on the local filesystem under root and
// addresses them with locators of the form <baseURL>/files/<folder>/<key>.
// The locator is opaque to callers; main serves the root dir at /files so
// locators double as download URLs.
type FSBlobStore struct {
	root    string
	baseURL string
}

// NewFSBlobStore creates the store and its root directory.
func NewFSBlobStore(root, baseURL string) (*FSBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSBlobStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory, for static file serving.
func (s *FSBlobStore) Dir() string { return s.root }

func (s *FSBlobStore) Put(_ context.Context, folder, filename, _ string, data []byte) (string, error) {
	key := path.Join(sanitize(folder), uuid.NewString()+"-"+sanitize(filename))
	abs := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/files/" + key, nil
}

// Delete removes the blob behind a locator. An already-deleted blob is not
// an error, keeping compensating cleanup idempotent.
func (s *FSBlobStore) Delete(_ context.Context, locator string) error {
	key, err := s.key(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key))); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FSBlobStore) key(locator string) (string, error) {
	prefix := s.baseURL + "/files/"
	if !strings.HasPrefix(locator, prefix) {
		return "", fmt.Errorf("locator %q does not belong to this store", locator)
	}
	key := path.Clean(strings.TrimPrefix(locator, prefix))
	if key == "." || key == "/" || strings.HasPrefix(key, "..") {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return key, nil
}

// sanitize strips any path components from a user-supplied name.
func sanitize(name string) string {
	name = filepath.Base(filepath.Clean(name))
	name = strings.ReplaceAll(name, string(filepath.Separator), "-")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
