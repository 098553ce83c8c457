package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/andresuchdata/tmdb-mirror/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ExportArchive writes the daily export files to an S3-compatible bucket so
// older id sets remain inspectable after the upstream rotates them out.
type ExportArchive struct {
	client *minio.Client
	bucket string
}

// NewExportArchive builds the archive client from configuration.
func NewExportArchive(cfg config.ArchiveConfig) (*ExportArchive, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("archive endpoint must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("archive client: %w", err)
	}

	return &ExportArchive{client: client, bucket: cfg.Bucket}, nil
}

// StoreExport uploads one gzipped export file under exports/<name>.
func (a *ExportArchive) StoreExport(ctx context.Context, name string, data []byte) error {
	key := "exports/" + name
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
