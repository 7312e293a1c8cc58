package documents

import (
	"context"
	"fmt"

	"procurement-portal/internal/config"
)

// Stores bundles the two buckets the portal writes to.
type Stores struct {
	RFP Store
	Bid Store
}

// NewStores builds the RFP and bid stores for the configured driver.
func NewStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	rfp, err := NewStore(ctx, cfg, cfg.RFPBucket)
	if err != nil {
		return nil, err
	}
	bid, err := NewStore(ctx, cfg, cfg.BidBucket)
	if err != nil {
		return nil, err
	}
	return &Stores{RFP: rfp, Bid: bid}, nil
}

// NewStore returns a Store for one bucket.
func NewStore(ctx context.Context, cfg *config.Config, bucket string) (Store, error) {
	switch cfg.StorageDriver {
	case "", "supabase":
		return &SupabaseStore{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey, Bucket: bucket}, nil
	case "minio":
		return NewMinIOStore(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, bucket, cfg.MinIOUseSSL)
	case "s3":
		return NewS3Store(cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretAccessKey, bucket)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
