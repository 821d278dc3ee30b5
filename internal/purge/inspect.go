package purge

import (
	"context"

	"BucketPurger/internal/storage"
)

// Plan is a read-only inventory of what a purge would delete.
type Plan struct {
	Bucket        string
	Versions      int
	DeleteMarkers int
	Keys          int
	Bytes         int64
	Entries       []storage.ObjectVersion
}

// Total is the number of entries a purge would delete.
func (p *Plan) Total() int { return p.Versions + p.DeleteMarkers }

// Inspect lists the bucket without modifying it. It fails like Purge when the
// bucket does not exist.
func (p *Purger) Inspect(ctx context.Context, bucket string) (*Plan, error) {
	bucket, err := p.checkBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	entries, err := p.backend.ListVersions(ctx, bucket, 0)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Bucket: bucket, Entries: entries}
	keys := make(map[string]struct{})
	for _, e := range entries {
		keys[e.Key] = struct{}{}
		if e.DeleteMarker {
			plan.DeleteMarkers++
			continue
		}
		plan.Versions++
		plan.Bytes += e.Size
	}
	plan.Keys = len(keys)
	return plan, nil
}
