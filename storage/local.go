package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/sevensmile/backoffice/models"
)

// Local stores attachments on disk under a base directory. Stored paths are
// relative to the base dir and double as URL suffixes under the base URL.
type Local struct {
	baseDir string
	baseURL string
}

// NewLocal creates the base directory if needed.
func NewLocal(baseDir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Local{baseDir: baseDir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the base directory, for wiring the file server route.
func (l *Local) Dir() string { return l.baseDir }

func (l *Local) Upload(ctx context.Context, prefix, filename, contentType string, size int64, r io.Reader) (models.Attachment, error) {
	key := objectKey(prefix, filename)

	full := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return models.Attachment{}, fmt.Errorf("creating attachment directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("creating attachment file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		os.Remove(full)
		return models.Attachment{}, fmt.Errorf("writing attachment: %w", err)
	}

	return models.Attachment{
		Name: filename,
		Size: written,
		Type: contentType,
		URL:  l.baseURL + "/" + key,
		Path: key,
	}, nil
}

func (l *Local) Delete(ctx context.Context, storedPath string) error {
	clean := filepath.Clean(filepath.FromSlash(storedPath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid attachment path %q", storedPath)
	}
	if err := os.Remove(filepath.Join(l.baseDir, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing attachment: %w", err)
	}
	return nil
}

// objectKey prefixes the original filename with a random id so repeated
// uploads of the same name never collide.
func objectKey(prefix, filename string) string {
	base := strings.ReplaceAll(path.Base(filename), " ", "_")
	return path.Join(prefix, uuid.NewString()[:8]+"_"+base)
}
