// Package storage keeps media attachments on the local disk, addressed by
// the URL path handed back to clients.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"pingme/domain/media"
)

// URLPrefix is the public route media files are served under.
const URLPrefix = "/media"

// DiskStore writes attachment blobs under a single directory. File names are
// generated server side so clients cannot pick paths.
type DiskStore struct {
	dir string
	log *slog.Logger
}

func NewDiskStore(dir string, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("unable to create media directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, log: log}, nil
}

// Dir returns the directory blobs are written to, for static file serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save persists the blob and returns the URL path clients fetch it from.
func (s *DiskStore) Save(data []byte, mime media.MIME) (string, error) {
	name := fmt.Sprintf("%s.%s", uuid.NewString(), mime.Extension())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("unable to write media file %s: %w", path, err)
	}
	s.log.Debug("Stored media file", "path", path, "size", len(data))
	return fmt.Sprintf("%s/%s", URLPrefix, name), nil
}

// Remove deletes the blob behind a media URL. Unknown files are not an error,
// deletion may race with status expiry.
func (s *DiskStore) Remove(url string) error {
	name := filepath.Base(url)
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
