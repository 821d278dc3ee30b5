//go:build integration

package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BucketPurger/internal/config"
	"BucketPurger/internal/provider"
	"BucketPurger/internal/purge"
	"BucketPurger/internal/storage"
)

func TestMinIO_PurgeVersionedBucket(t *testing.T) {
	endpoint, accessKey, secretKey := getMinIOEnv(t)
	bucket := "bucketpurger-" + time.Now().Format("20060102150405")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	host := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	mc, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: strings.HasPrefix(endpoint, "https://"),
	})
	require.NoError(t, err)
	require.NoError(t, mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	require.NoError(t, mc.EnableVersioning(ctx, bucket))
	for _, key := range []string{"a", "b", "c"} {
		for i := 0; i < 2; i++ {
			body := fmt.Sprintf("%s-%d", key, i)
			_, err := mc.PutObject(ctx, bucket, key, strings.NewReader(body), int64(len(body)), minio.PutObjectOptions{})
			require.NoError(t, err)
		}
	}
	require.NoError(t, mc.RemoveObject(ctx, bucket, "c", minio.RemoveObjectOptions{}))

	backend, err := provider.New(ctx, &config.S3Config{
		Driver:    config.DriverMinio,
		Endpoint:  endpoint,
		Region:    "us-east-1",
		AccessKey: accessKey,
		SecretKey: secretKey,
		PathStyle: true,
	})
	require.NoError(t, err)

	res, err := purge.New(backend, purge.Options{SettleDelay: time.Second}).Purge(ctx, bucket)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Deleted)

	ok, err := mc.BucketExists(ctx, bucket)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = purge.New(backend, purge.Options{}).Purge(ctx, bucket)
	assert.ErrorIs(t, err, storage.ErrBucketNotFound)
}
