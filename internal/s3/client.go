// Package s3 implements the purge backend on the AWS SDK for Go v2.
package s3

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"BucketPurger/internal/storage"
)

const DefaultRegion = "us-east-1"

// Options configures the SDK client. Empty fields fall back to the SDK defaults.
type Options struct {
	Endpoint           string
	Region             string
	AccessKey          string
	SecretKey          string
	PathStyle          bool
	InsecureSkipVerify bool
	MaxRetries         int
}

// API is the subset of the SDK client the purger drives.
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	GetBucketVersioning(ctx context.Context, params *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error)
}

var _ API = (*s3.Client)(nil)

var _ storage.Backend = (*Client)(nil)

// Client is a storage.Backend backed by an S3 API client.
type Client struct {
	api API
}

// New builds a client from the SDK's default configuration chain. Static keys,
// when given, replace the ambient credentials; everything else (profile, SSO,
// instance role) is resolved by the SDK.
func New(ctx context.Context, opts Options) (*Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	if opts.MaxRetries > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(opts.MaxRetries))
	}
	if opts.InsecureSkipVerify {
		loadOpts = append(loadOpts, config.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, storage.NewError("loadConfig", "", nil, err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	endpoint, err := normalizeEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})
	return &Client{api: client}, nil
}

// NewWithAPI wraps an existing API implementation, typically a mock.
func NewWithAPI(api API) *Client {
	return &Client{api: api}
}

func normalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", nil
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", storage.NewError("endpoint", "", storage.ErrInvalidInput, err)
	}
	if u.Host == "" {
		return "", storage.NewError("endpoint", "", storage.ErrInvalidInput, &url.Error{Op: "parse", URL: endpoint, Err: errMissingHost})
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return true, nil
	}
	err = classify("headBucket", bucket, err)
	if storage.IsBucketNotFound(err) {
		return false, nil
	}
	return false, err
}

func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := c.api.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	return classify("deleteBucket", bucket, err)
}

func (c *Client) VersioningStatus(ctx context.Context, bucket string) (string, error) {
	out, err := c.api.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: aws.String(bucket)})
	if err != nil {
		return "", classify("getBucketVersioning", bucket, err)
	}
	return string(out.Status), nil
}
