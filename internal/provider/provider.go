// Package provider builds the storage backend selected by s3.driver.
package provider

import (
	"context"
	"fmt"

	"BucketPurger/internal/config"
	"BucketPurger/internal/s3"
	"BucketPurger/internal/s3compat"
	"BucketPurger/internal/storage"
)

func New(ctx context.Context, cfg *config.S3Config) (storage.Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w (s3 section is missing)", config.ErrInvalidDriver)
	}
	insecure := cfg.TLS != nil && cfg.TLS.InsecureSkipVerify
	switch cfg.Driver {
	case config.DriverAWS, "":
		return s3.New(ctx, s3.Options{
			Endpoint:           cfg.Endpoint,
			Region:             cfg.Region,
			AccessKey:          cfg.AccessKey,
			SecretKey:          cfg.SecretKey,
			PathStyle:          cfg.PathStyle,
			InsecureSkipVerify: insecure,
			MaxRetries:         cfg.MaxRetries,
		})
	case config.DriverMinio:
		return s3compat.New(s3compat.Options{
			Endpoint:           cfg.Endpoint,
			Region:             cfg.Region,
			AccessKey:          cfg.AccessKey,
			SecretKey:          cfg.SecretKey,
			UseSSL:             true,
			PathStyle:          cfg.PathStyle,
			InsecureSkipVerify: insecure,
			MaxRetries:         cfg.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrInvalidDriver, cfg.Driver)
	}
}
