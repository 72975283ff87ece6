package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/sevensmile/backoffice/models"
)

// OSS stores attachments in an Alibaba Cloud OSS bucket. Objects are public
// reads addressed under the configured base URL.
type OSS struct {
	bucket  *oss.Bucket
	baseURL string
}

// NewOSSFromEnv connects using OSS_ENDPOINT, OSS_BUCKET, OSS_ACCESS_KEY_ID,
// OSS_ACCESS_KEY_SECRET and optionally OSS_PUBLIC_BASE_URL.
func NewOSSFromEnv() (*OSS, error) {
	endpoint := os.Getenv("OSS_ENDPOINT")
	bucketName := os.Getenv("OSS_BUCKET")
	keyID := os.Getenv("OSS_ACCESS_KEY_ID")
	keySecret := os.Getenv("OSS_ACCESS_KEY_SECRET")
	if endpoint == "" || bucketName == "" || keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("OSS storage requires OSS_ENDPOINT, OSS_BUCKET, OSS_ACCESS_KEY_ID and OSS_ACCESS_KEY_SECRET")
	}

	client, err := oss.New(endpoint, keyID, keySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %q: %w", bucketName, err)
	}

	baseURL := os.Getenv("OSS_PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.%s", bucketName, strings.TrimPrefix(endpoint, "https://"))
	}
	return &OSS{bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *OSS) Upload(ctx context.Context, prefix, filename, contentType string, size int64, r io.Reader) (models.Attachment, error) {
	key := objectKey(prefix, filename)

	opts := []oss.Option{oss.ContentType(contentType)}
	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return models.Attachment{}, fmt.Errorf("oss put %q: %w", key, err)
	}

	return models.Attachment{
		Name: filename,
		Size: size,
		Type: contentType,
		URL:  s.baseURL + "/" + key,
		Path: key,
	}, nil
}

func (s *OSS) Delete(ctx context.Context, path string) error {
	if err := s.bucket.DeleteObject(path); err != nil {
		return fmt.Errorf("oss delete %q: %w", path, err)
	}
	return nil
}
