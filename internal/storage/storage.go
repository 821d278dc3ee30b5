// Package storage defines what the purger needs from an object store and the
// error taxonomy shared by every backend.
package storage

import (
	"context"
	"time"
)

// MaxDeleteBatch is the most entries a single multi-object delete may carry.
const MaxDeleteBatch = 1000

// Versioning states reported by VersioningStatus. An empty string means
// versioning was never enabled on the bucket.
const (
	VersioningEnabled   = "Enabled"
	VersioningSuspended = "Suspended"
)

type ObjectVersion struct {
	Key          string
	VersionID    string
	DeleteMarker bool
	IsLatest     bool
	Size         int64
	LastModified time.Time
}

// DeleteError is a per-entry failure reported inside an otherwise successful
// multi-object delete.
type DeleteError struct {
	Key       string
	VersionID string
	Code      string
	Message   string
}

type DeleteResult struct {
	Deleted int
	Errors  []DeleteError
}

// Merge folds other into r.
func (r *DeleteResult) Merge(other *DeleteResult) {
	if other == nil {
		return
	}
	r.Deleted += other.Deleted
	r.Errors = append(r.Errors, other.Errors...)
}

// Backend is an object store able to empty and remove a bucket.
type Backend interface {
	// BucketExists reports whether bucket exists. A missing bucket is not an error.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// ListVersions returns up to limit version entries (object versions and
	// delete markers). limit <= 0 lists everything.
	ListVersions(ctx context.Context, bucket string, limit int) ([]ObjectVersion, error)

	// DeleteAllVersions deletes every object version and delete marker in bucket.
	DeleteAllVersions(ctx context.Context, bucket string) (*DeleteResult, error)

	DeleteBucket(ctx context.Context, bucket string) error

	VersioningStatus(ctx context.Context, bucket string) (string, error)
}
