//go:build integration

package integration

import (
	"os"
	"strings"
	"testing"
)

// getMinIOEnv reads the MinIO endpoint used by the minio driver test. The test
// is skipped when BUCKETPURGER_MINIO_ENDPOINT is unset.
func getMinIOEnv(t *testing.T) (endpoint, accessKey, secretKey string) {
	t.Helper()
	endpoint = os.Getenv("BUCKETPURGER_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("BUCKETPURGER_MINIO_ENDPOINT not set")
	}
	accessKey = os.Getenv("BUCKETPURGER_MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minioadmin"
	}
	secretKey = os.Getenv("BUCKETPURGER_MINIO_SECRET_KEY")
	if secretKey == "" {
		secretKey = "minioadmin"
	}
	return strings.TrimSuffix(endpoint, "/"), accessKey, secretKey
}
