package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingBucket = errors.New("bucket is required (argument, --bucket, BUCKETPURGER_S3_BUCKET or s3.bucket)")
	ErrInvalidDriver = errors.New("invalid s3 driver: must be 'aws' or 'minio'")
	ErrInvalidPurge  = errors.New("invalid purge settings")
)

// Validate checks the settings every command depends on. The bucket is
// checked separately by ResolveBucket since it may come from an argument.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.S3 == nil {
		return fmt.Errorf("%w (s3 section is missing)", ErrInvalidDriver)
	}
	switch cfg.S3.Driver {
	case DriverAWS:
	case DriverMinio:
		if strings.TrimSpace(cfg.S3.Endpoint) == "" {
			return fmt.Errorf("%w: the minio driver requires s3.endpoint", ErrInvalidDriver)
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidDriver, cfg.S3.Driver)
	}
	if cfg.S3.MaxRetries < 0 {
		return fmt.Errorf("s3.max_retries must be >= 0, got %d", cfg.S3.MaxRetries)
	}
	return validatePurge(cfg.Purge)
}

func validatePurge(p *PurgeConfig) error {
	if p == nil {
		return nil
	}
	if p.SettleSeconds < 0 {
		return fmt.Errorf("%w: settle_seconds must be >= 0", ErrInvalidPurge)
	}
	if p.WaitEmpty {
		if p.WaitTimeoutSeconds <= 0 {
			return fmt.Errorf("%w: wait_timeout_seconds must be > 0 when wait_empty is set", ErrInvalidPurge)
		}
		if p.PollIntervalSeconds <= 0 {
			return fmt.Errorf("%w: poll_interval_seconds must be > 0 when wait_empty is set", ErrInvalidPurge)
		}
	}
	return nil
}

// ResolveBucket picks the bucket from a positional argument, falling back to
// s3.bucket, which already layers --bucket over the environment and file.
func ResolveBucket(arg string, cfg *Config) (string, error) {
	if b := strings.TrimSpace(arg); b != "" {
		return b, nil
	}
	if cfg != nil && cfg.S3 != nil {
		if b := strings.TrimSpace(cfg.S3.Bucket); b != "" {
			return b, nil
		}
	}
	return "", ErrMissingBucket
}
