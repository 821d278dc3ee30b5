// Package storagetest provides an in-memory versioned object store for tests.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"BucketPurger/internal/storage"
)

var _ storage.Backend = (*Fake)(nil)

type bucket struct {
	versioning string
	entries    []storage.ObjectVersion
	// stale holds the listing seen by ListVersions while lag is positive.
	stale []storage.ObjectVersion
	lag   int
}

// Fake is a storage.Backend backed by maps. It records every call so tests
// can assert ordering.
type Fake struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	seq     int
	calls   []string

	// FailKeys makes DeleteAllVersions leave every entry of the listed keys
	// in place and report it with the mapped error code.
	FailKeys map[string]string
	// Lag is how many ListVersions calls after DeleteAllVersions still see
	// the old listing, and how long DeleteBucket keeps refusing.
	Lag int
	// Per-call error overrides, returned before any state change.
	ExistsErr       error
	ListErr         error
	DeleteAllErr    error
	DeleteBucketErr error
}

func New() *Fake {
	return &Fake{buckets: make(map[string]*bucket)}
}

func (f *Fake) CreateBucket(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[name] = &bucket{versioning: storage.VersioningEnabled}
}

func (f *Fake) SetVersioning(name, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.buckets[name]; ok {
		b.versioning = status
	}
}

// Put adds n versions of key; the last one is the latest.
func (f *Fake) Put(name, key string, n int, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.buckets[name]
	if b == nil {
		return
	}
	for i := 0; i < n; i++ {
		f.seq++
		b.entries = markLatest(b.entries, key)
		b.entries = append(b.entries, storage.ObjectVersion{
			Key:          key,
			VersionID:    fmt.Sprintf("v%04d", f.seq),
			IsLatest:     true,
			Size:         size,
			LastModified: time.Unix(int64(f.seq), 0).UTC(),
		})
	}
}

func (f *Fake) PutDeleteMarker(name, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.buckets[name]
	if b == nil {
		return
	}
	f.seq++
	b.entries = markLatest(b.entries, key)
	b.entries = append(b.entries, storage.ObjectVersion{
		Key:          key,
		VersionID:    fmt.Sprintf("m%04d", f.seq),
		DeleteMarker: true,
		IsLatest:     true,
		LastModified: time.Unix(int64(f.seq), 0).UTC(),
	})
}

func markLatest(entries []storage.ObjectVersion, key string) []storage.ObjectVersion {
	for i := range entries {
		if entries[i].Key == key {
			entries[i].IsLatest = false
		}
	}
	return entries
}

func (f *Fake) HasBucket(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[name]
	return ok
}

// Entries returns the versions currently stored, ignoring lag.
func (f *Fake) Entries(name string) []storage.ObjectVersion {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.buckets[name]
	if b == nil {
		return nil
	}
	return append([]storage.ObjectVersion(nil), b.entries...)
}

// Calls returns the backend methods invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(op string) {
	f.calls = append(f.calls, op)
}

func notFound(op, name string) error {
	return storage.NewError(op, name, storage.ErrBucketNotFound, errors.New("NoSuchBucket: the specified bucket does not exist"))
}

func (f *Fake) BucketExists(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BucketExists")
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	_, ok := f.buckets[name]
	return ok, nil
}

func (f *Fake) ListVersions(ctx context.Context, name string, limit int) ([]storage.ObjectVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListVersions")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	b := f.buckets[name]
	if b == nil {
		return nil, notFound("listObjectVersions", name)
	}
	src := b.entries
	if b.lag > 0 {
		b.lag--
		src = b.stale
	}
	out := append([]storage.ObjectVersion(nil), src...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) DeleteAllVersions(ctx context.Context, name string) (*storage.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteAllVersions")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.DeleteAllErr != nil {
		return &storage.DeleteResult{}, f.DeleteAllErr
	}
	b := f.buckets[name]
	if b == nil {
		return &storage.DeleteResult{}, notFound("listObjectVersions", name)
	}
	before := append([]storage.ObjectVersion(nil), b.entries...)
	res := &storage.DeleteResult{}
	var kept []storage.ObjectVersion
	for _, e := range b.entries {
		if code, fail := f.FailKeys[e.Key]; fail {
			kept = append(kept, e)
			res.Errors = append(res.Errors, storage.DeleteError{
				Key:       e.Key,
				VersionID: e.VersionID,
				Code:      code,
				Message:   code + ": delete refused",
			})
			continue
		}
		res.Deleted++
	}
	b.entries = kept
	if f.Lag > 0 {
		b.stale = before
		b.lag = f.Lag
	}
	return res, nil
}

func (f *Fake) DeleteBucket(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteBucket")
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.DeleteBucketErr != nil {
		return f.DeleteBucketErr
	}
	b := f.buckets[name]
	if b == nil {
		return notFound("deleteBucket", name)
	}
	if len(b.entries) > 0 || b.lag > 0 {
		return storage.NewError("deleteBucket", name, storage.ErrBucketNotEmpty,
			errors.New("BucketNotEmpty: the bucket you tried to delete is not empty"))
	}
	delete(f.buckets, name)
	return nil
}

func (f *Fake) VersioningStatus(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VersioningStatus")
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b := f.buckets[name]
	if b == nil {
		return "", notFound("getBucketVersioning", name)
	}
	return b.versioning, nil
}
