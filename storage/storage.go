// Package storage holds invoice attachments. The default backend writes to
// local disk and serves files over the app's own /files route; setting the
// OSS_* environment variables switches to an Alibaba Cloud OSS bucket.
package storage

import (
	"context"
	"io"
	"os"

	"github.com/sevensmile/backoffice/models"
)

// Store is the attachment content store.
type Store interface {
	// Upload writes one file under the given key prefix (e.g. "invoices/12")
	// and returns its descriptor.
	Upload(ctx context.Context, prefix, filename, contentType string, size int64, r io.Reader) (models.Attachment, error)
	// Delete removes a previously uploaded file by its stored path.
	Delete(ctx context.Context, path string) error
}

// FromEnv picks the configured backend: OSS when OSS_BUCKET is set,
// otherwise the local-disk store.
func FromEnv() (Store, error) {
	if os.Getenv("OSS_BUCKET") != "" {
		return NewOSSFromEnv()
	}

	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "./data/uploads"
	}
	return NewLocal(dir, "/files")
}
