// Package doctor runs the preflight checks a purge depends on.
package doctor

import (
	"context"
	"fmt"
	"time"

	"BucketPurger/internal/config"
	"BucketPurger/internal/lock"
	"BucketPurger/internal/provider"
	"BucketPurger/internal/storage"
)

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name   string
	OK     bool
	Detail string
}

// Options overrides what Run checks against.
type Options struct {
	// Bucket overrides s3.bucket.
	Bucket     string
	LockDir    string
	Timeout    time.Duration
	NewBackend func(ctx context.Context, cfg *config.S3Config) (storage.Backend, error)
}

// Run checks everything a purge depends on. Checks that need an earlier one
// to pass are reported as skipped rather than omitted.
func Run(ctx context.Context, cfg *config.Config, opts Options) []CheckResult {
	if opts.NewBackend == nil {
		opts.NewBackend = provider.New
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	var results []CheckResult

	cfgErr := config.Validate(cfg)
	if cfgErr != nil {
		results = append(results, CheckResult{Name: "config", OK: false, Detail: cfgErr.Error()})
	} else {
		results = append(results, CheckResult{Name: "config", OK: true,
			Detail: fmt.Sprintf("configuration valid (driver=%s, region=%s)", cfg.S3.Driver, cfg.S3.Region)})
	}

	bucket, bucketErr := config.ResolveBucket(opts.Bucket, cfg)
	if bucketErr != nil {
		results = append(results, CheckResult{Name: "bucket", OK: false, Detail: bucketErr.Error()})
	} else {
		results = append(results, CheckResult{Name: "bucket", OK: true, Detail: bucket})
	}

	if cfgErr != nil || bucketErr != nil {
		results = append(results,
			CheckResult{Name: "backend", OK: false, Detail: "skipped (config or bucket invalid)"},
			CheckResult{Name: "versioning", OK: false, Detail: "skipped"},
		)
	} else {
		results = append(results, checkBackend(ctx, cfg, bucket, opts)...)
	}

	ok, detail := checkLockDir(opts.LockDir)
	results = append(results, CheckResult{Name: "lock dir", OK: ok, Detail: detail})

	return results
}

func checkBackend(ctx context.Context, cfg *config.Config, bucket string, opts Options) []CheckResult {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	backend, err := opts.NewBackend(ctx, cfg.S3)
	if err != nil {
		return []CheckResult{
			{Name: "backend", OK: false, Detail: fmt.Sprintf("client init failed: %v", err)},
			{Name: "versioning", OK: false, Detail: "skipped"},
		}
	}
	exists, err := backend.BucketExists(ctx, bucket)
	switch {
	case err != nil:
		return []CheckResult{
			{Name: "backend", OK: false, Detail: fmt.Sprintf("head bucket failed: %v", err)},
			{Name: "versioning", OK: false, Detail: "skipped"},
		}
	case !exists:
		return []CheckResult{
			{Name: "backend", OK: false, Detail: fmt.Sprintf("bucket %s does not exist", bucket)},
			{Name: "versioning", OK: false, Detail: "skipped"},
		}
	}
	results := []CheckResult{{Name: "backend", OK: true, Detail: fmt.Sprintf("bucket %s reachable", bucket)}}

	status, err := backend.VersioningStatus(ctx, bucket)
	switch {
	case err != nil:
		results = append(results, CheckResult{Name: "versioning", OK: false, Detail: fmt.Sprintf("get versioning failed: %v", err)})
	case status == "":
		results = append(results, CheckResult{Name: "versioning", OK: true, Detail: "never enabled (only null versions)"})
	default:
		results = append(results, CheckResult{Name: "versioning", OK: true, Detail: status})
	}
	return results
}

func checkLockDir(dir string) (bool, string) {
	if dir == "" {
		dir = lock.DefaultDir()
	}
	if err := lock.CheckDir(dir); err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("lock dir writable (%s)", dir)
}

// AllOK reports whether every check passed.
func AllOK(results []CheckResult) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}
