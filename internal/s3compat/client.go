// Package s3compat implements the purge backend on minio-go for MinIO, Ceph
// and other S3-compatible endpoints.
package s3compat

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"BucketPurger/internal/storage"
)

type Options struct {
	Endpoint           string
	Region             string
	AccessKey          string
	SecretKey          string
	UseSSL             bool
	PathStyle          bool
	InsecureSkipVerify bool
	MaxRetries         int
}

var _ storage.Backend = (*Client)(nil)

type Client struct{ mc *minio.Client }

func New(opts Options) (*Client, error) {
	endpoint, secure := normalizeEndpoint(opts.Endpoint, opts.UseSSL)
	if endpoint == "" {
		return nil, storage.NewError("endpoint", "", storage.ErrInvalidInput, errors.New("endpoint is required for the minio driver"))
	}
	mopts := &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure,
		Region: opts.Region,
	}
	if opts.PathStyle {
		mopts.BucketLookup = minio.BucketLookupPath
	}
	if opts.MaxRetries > 0 {
		mopts.MaxRetries = opts.MaxRetries
	}
	if opts.InsecureSkipVerify && secure {
		mopts.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	mc, err := minio.New(endpoint, mopts)
	if err != nil {
		return nil, storage.NewError("newClient", "", nil, err)
	}
	return &Client{mc: mc}, nil
}

// normalizeEndpoint strips a URL scheme from endpoint, letting the scheme
// override useSSL, since minio.New expects a bare host:port.
func normalizeEndpoint(endpoint string, useSSL bool) (host string, secure bool) {
	secure = useSSL
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", secure
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		if u, err := url.Parse(endpoint); err == nil {
			return u.Host, u.Scheme == "https"
		}
	}
	return strings.TrimSuffix(endpoint, "/"), secure
}

func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ok, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		err = classify("bucketExists", bucket, err)
		if storage.IsBucketNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (c *Client) ListVersions(ctx context.Context, bucket string, limit int) ([]storage.ObjectVersion, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []storage.ObjectVersion
	for obj := range c.mc.ListObjects(ctx, bucket, listOptions()) {
		if obj.Err != nil {
			return nil, classify("listObjectVersions", bucket, obj.Err)
		}
		out = append(out, storage.ObjectVersion{
			Key:          obj.Key,
			VersionID:    obj.VersionID,
			DeleteMarker: obj.IsDeleteMarker,
			IsLatest:     obj.IsLatest,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// DeleteAllVersions streams the versioned listing into RemoveObjects, which
// batches the multi-object delete requests itself. Per-key failures reported
// in a delete response are collected; a failed request cancels the listing
// and is returned as the error.
func (c *Client) DeleteAllVersions(ctx context.Context, bucket string) (*storage.DeleteResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectsCh := make(chan minio.ObjectInfo)
	listDone := make(chan struct{})
	var listed int
	var listErr error
	go func() {
		defer close(listDone)
		defer close(objectsCh)
		for obj := range c.mc.ListObjects(ctx, bucket, listOptions()) {
			if obj.Err != nil {
				if ctx.Err() == nil {
					listErr = obj.Err
				}
				return
			}
			select {
			case objectsCh <- obj:
				listed++
			case <-ctx.Done():
				return
			}
		}
	}()

	result := &storage.DeleteResult{}
	var failed int
	var requestErr error
	// RemoveObjects must be drained even after a request failure, or its
	// goroutines block on the result channel.
	for rerr := range c.mc.RemoveObjects(ctx, bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.ObjectName != "" {
			failed++
		}
		if requestErr != nil {
			continue
		}
		if isRequestFailure(rerr) {
			requestErr = rerr.Err
			cancel()
			continue
		}
		resp := minio.ToErrorResponse(rerr.Err)
		result.Errors = append(result.Errors, storage.DeleteError{
			Key:       rerr.ObjectName,
			VersionID: rerr.VersionID,
			Code:      resp.Code,
			Message:   rerr.Err.Error(),
		})
	}
	// RemoveObjects may stop before the listing ends; unblock the lister
	// before reading its counters.
	cancel()
	<-listDone
	// Every object handed to RemoveObjects is reported back once on failure,
	// so whatever was listed and not reported was deleted.
	result.Deleted = listed - failed
	if result.Deleted < 0 {
		result.Deleted = 0
	}
	if requestErr != nil {
		return result, classify("deleteObjects", bucket, requestErr)
	}
	if listErr != nil {
		return result, classify("listObjectVersions", bucket, listErr)
	}
	return result, nil
}

// isRequestFailure reports whether a RemoveObjects error came from the
// request itself rather than from one key in a successful response. Per-key
// errors are decoded from the response body and carry no HTTP status.
func isRequestFailure(rerr minio.RemoveObjectError) bool {
	if rerr.ObjectName == "" {
		return true
	}
	var resp minio.ErrorResponse
	if !errors.As(rerr.Err, &resp) {
		return true
	}
	return resp.StatusCode != 0
}

func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	return classify("deleteBucket", bucket, c.mc.RemoveBucket(ctx, bucket))
}

func (c *Client) VersioningStatus(ctx context.Context, bucket string) (string, error) {
	cfg, err := c.mc.GetBucketVersioning(ctx, bucket)
	if err != nil {
		return "", classify("getBucketVersioning", bucket, err)
	}
	return cfg.Status, nil
}

func listOptions() minio.ListObjectsOptions {
	return minio.ListObjectsOptions{WithVersions: true, Recursive: true}
}

func classify(op, bucket string, err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	return storage.NewError(op, bucket, storage.KindForCode(resp.Code, resp.StatusCode), err)
}
