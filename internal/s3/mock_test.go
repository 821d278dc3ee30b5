package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// mockAPI lets each test override only the calls it cares about.
type mockAPI struct {
	HeadBucketFunc          func(context.Context, *s3.HeadBucketInput) (*s3.HeadBucketOutput, error)
	ListObjectVersionsFunc  func(context.Context, *s3.ListObjectVersionsInput) (*s3.ListObjectVersionsOutput, error)
	DeleteObjectsFunc       func(context.Context, *s3.DeleteObjectsInput) (*s3.DeleteObjectsOutput, error)
	DeleteBucketFunc        func(context.Context, *s3.DeleteBucketInput) (*s3.DeleteBucketOutput, error)
	GetBucketVersioningFunc func(context.Context, *s3.GetBucketVersioningInput) (*s3.GetBucketVersioningOutput, error)
}

func (m *mockAPI) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if m.HeadBucketFunc != nil {
		return m.HeadBucketFunc(ctx, in)
	}
	return &s3.HeadBucketOutput{}, nil
}

func (m *mockAPI) ListObjectVersions(ctx context.Context, in *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	if m.ListObjectVersionsFunc != nil {
		return m.ListObjectVersionsFunc(ctx, in)
	}
	return &s3.ListObjectVersionsOutput{}, nil
}

func (m *mockAPI) DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	if m.DeleteObjectsFunc != nil {
		return m.DeleteObjectsFunc(ctx, in)
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func (m *mockAPI) DeleteBucket(ctx context.Context, in *s3.DeleteBucketInput, _ ...func(*s3.Options)) (*s3.DeleteBucketOutput, error) {
	if m.DeleteBucketFunc != nil {
		return m.DeleteBucketFunc(ctx, in)
	}
	return &s3.DeleteBucketOutput{}, nil
}

func (m *mockAPI) GetBucketVersioning(ctx context.Context, in *s3.GetBucketVersioningInput, _ ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error) {
	if m.GetBucketVersioningFunc != nil {
		return m.GetBucketVersioningFunc(ctx, in)
	}
	return &s3.GetBucketVersioningOutput{}, nil
}
