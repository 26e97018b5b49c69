package blob

import (
	"context"
	"fmt"

	"github.com/stacklok/toolhive-content-sync/internal/config"
)

// NewFromConfig builds the blob store selected by cfg
func NewFromConfig(ctx context.Context, cfg *config.BlobStoreConfig) (Store, error) {
	switch cfg.Type {
	case config.BlobStoreTypeFilesystem:
		return NewFilesystemStore(cfg.Filesystem.Path)
	case config.BlobStoreTypeMinio:
		secret, err := config.ReadSecretFile(cfg.Minio.SecretKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read minio secret key: %w", err)
		}
		return NewMinioStore(ctx, MinioOptions{
			Endpoint:        cfg.Minio.Endpoint,
			Bucket:          cfg.Minio.Bucket,
			Region:          cfg.Minio.Region,
			AccessKeyID:     cfg.Minio.AccessKeyID,
			SecretAccessKey: secret,
			UseSSL:          cfg.Minio.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unsupported blob store type %q", cfg.Type)
	}
}
