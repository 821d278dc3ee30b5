package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BucketPurger/internal/config"
	"BucketPurger/internal/storage"
	"BucketPurger/internal/storage/storagetest"
)

func backendFor(f storage.Backend) func(context.Context, *config.S3Config) (storage.Backend, error) {
	return func(context.Context, *config.S3Config) (storage.Backend, error) { return f, nil }
}

func byName(results []CheckResult) map[string]CheckResult {
	m := make(map[string]CheckResult, len(results))
	for _, r := range results {
		m[r.Name] = r
	}
	return m
}

func validConfig(bucket string) *config.Config {
	return &config.Config{S3: &config.S3Config{Driver: config.DriverAWS, Region: "us-east-1", Bucket: bucket}}
}

func TestRun_AllPass(t *testing.T) {
	f := storagetest.New()
	f.CreateBucket("doomed")

	results := Run(context.Background(), validConfig("doomed"), Options{
		LockDir:    t.TempDir(),
		NewBackend: backendFor(f),
	})
	require.Len(t, results, 5)
	assert.True(t, AllOK(results), "%+v", results)
	assert.Equal(t, storage.VersioningEnabled, byName(results)["versioning"].Detail)
	assert.Equal(t, []string{"BucketExists", "VersioningStatus"}, f.Calls())
}

func TestRun_BucketOverrideAndMissing(t *testing.T) {
	f := storagetest.New()
	results := Run(context.Background(), validConfig("doomed"), Options{
		Bucket:     "other",
		LockDir:    t.TempDir(),
		NewBackend: backendFor(f),
	})
	m := byName(results)
	assert.Equal(t, "other", m["bucket"].Detail)
	assert.False(t, m["backend"].OK)
	assert.Contains(t, m["backend"].Detail, "does not exist")
	assert.False(t, AllOK(results))
}

func TestRun_NoBucketSkipsBackend(t *testing.T) {
	called := false
	results := Run(context.Background(), validConfig(""), Options{
		LockDir: t.TempDir(),
		NewBackend: func(context.Context, *config.S3Config) (storage.Backend, error) {
			called = true
			return nil, errors.New("unreachable")
		},
	})
	m := byName(results)
	assert.False(t, called)
	assert.False(t, m["bucket"].OK)
	assert.Contains(t, m["backend"].Detail, "skipped")
	assert.True(t, m["lock dir"].OK)
}

func TestRun_InvalidConfig(t *testing.T) {
	results := Run(context.Background(), &config.Config{S3: &config.S3Config{Driver: "gcs", Bucket: "b"}}, Options{
		LockDir: t.TempDir(),
	})
	m := byName(results)
	assert.False(t, m["config"].OK)
	assert.Contains(t, m["backend"].Detail, "skipped")
}

func TestRun_BackendErrors(t *testing.T) {
	f := storagetest.New()
	f.ExistsErr = storage.NewError("headBucket", "doomed", storage.ErrAccessDenied, errors.New("Forbidden"))
	results := Run(context.Background(), validConfig("doomed"), Options{
		LockDir:    t.TempDir(),
		NewBackend: backendFor(f),
	})
	m := byName(results)
	assert.False(t, m["backend"].OK)
	assert.Contains(t, m["backend"].Detail, "Forbidden")

	results = Run(context.Background(), validConfig("doomed"), Options{
		LockDir: t.TempDir(),
		NewBackend: func(context.Context, *config.S3Config) (storage.Backend, error) {
			return nil, errors.New("no credentials")
		},
	})
	assert.Contains(t, byName(results)["backend"].Detail, "client init failed")
}

func TestRun_UnversionedBucket(t *testing.T) {
	f := storagetest.New()
	f.CreateBucket("doomed")
	f.SetVersioning("doomed", "")
	results := Run(context.Background(), validConfig("doomed"), Options{
		LockDir:    t.TempDir(),
		NewBackend: backendFor(f),
	})
	v := byName(results)["versioning"]
	assert.True(t, v.OK)
	assert.Contains(t, v.Detail, "never enabled")
}
