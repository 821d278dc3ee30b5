package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"BucketPurger/internal/storage"
)

// walkVersions pages through the full version history of bucket, calling fn
// once per page. Iteration stops when fn returns false or the listing ends.
func (c *Client) walkVersions(ctx context.Context, bucket string, pageSize int32, fn func(*s3.ListObjectVersionsOutput) (bool, error)) error {
	input := &s3.ListObjectVersionsInput{Bucket: aws.String(bucket)}
	if pageSize > 0 {
		input.MaxKeys = aws.Int32(pageSize)
	}
	p := s3.NewListObjectVersionsPaginator(c.api, input, func(o *s3.ListObjectVersionsPaginatorOptions) {
		o.StopOnDuplicateToken = true
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return classify("listObjectVersions", bucket, err)
		}
		more, err := fn(page)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func (c *Client) ListVersions(ctx context.Context, bucket string, limit int) ([]storage.ObjectVersion, error) {
	var pageSize int32
	if limit > 0 && limit < storage.MaxDeleteBatch {
		pageSize = int32(limit)
	}
	var out []storage.ObjectVersion
	err := c.walkVersions(ctx, bucket, pageSize, func(page *s3.ListObjectVersionsOutput) (bool, error) {
		for _, v := range page.Versions {
			out = append(out, storage.ObjectVersion{
				Key:          aws.ToString(v.Key),
				VersionID:    aws.ToString(v.VersionId),
				IsLatest:     aws.ToBool(v.IsLatest),
				Size:         aws.ToInt64(v.Size),
				LastModified: aws.ToTime(v.LastModified),
			})
		}
		for _, m := range page.DeleteMarkers {
			out = append(out, storage.ObjectVersion{
				Key:          aws.ToString(m.Key),
				VersionID:    aws.ToString(m.VersionId),
				DeleteMarker: true,
				IsLatest:     aws.ToBool(m.IsLatest),
				LastModified: aws.ToTime(m.LastModified),
			})
		}
		return limit <= 0 || len(out) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteAllVersions removes every object version and delete marker, one
// multi-object delete per listed page. Per-entry failures are collected in the
// result; a failed request aborts the walk.
func (c *Client) DeleteAllVersions(ctx context.Context, bucket string) (*storage.DeleteResult, error) {
	result := &storage.DeleteResult{}
	err := c.walkVersions(ctx, bucket, 0, func(page *s3.ListObjectVersionsOutput) (bool, error) {
		for _, batch := range chunkIdentifiers(pageIdentifiers(page), storage.MaxDeleteBatch) {
			r, err := c.deleteBatch(ctx, bucket, batch)
			if err != nil {
				return false, err
			}
			result.Merge(r)
		}
		return true, nil
	})
	return result, err
}

func (c *Client) deleteBatch(ctx context.Context, bucket string, ids []types.ObjectIdentifier) (*storage.DeleteResult, error) {
	out, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: ids,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return nil, classify("deleteObjects", bucket, fmt.Errorf("batch of %d: %w", len(ids), err))
	}
	r := &storage.DeleteResult{Deleted: len(ids) - len(out.Errors)}
	for _, e := range out.Errors {
		r.Errors = append(r.Errors, storage.DeleteError{
			Key:       aws.ToString(e.Key),
			VersionID: aws.ToString(e.VersionId),
			Code:      aws.ToString(e.Code),
			Message:   aws.ToString(e.Message),
		})
	}
	return r, nil
}

func pageIdentifiers(page *s3.ListObjectVersionsOutput) []types.ObjectIdentifier {
	ids := make([]types.ObjectIdentifier, 0, len(page.Versions)+len(page.DeleteMarkers))
	for _, v := range page.Versions {
		ids = append(ids, types.ObjectIdentifier{Key: v.Key, VersionId: v.VersionId})
	}
	for _, m := range page.DeleteMarkers {
		ids = append(ids, types.ObjectIdentifier{Key: m.Key, VersionId: m.VersionId})
	}
	return ids
}

func chunkIdentifiers(ids []types.ObjectIdentifier, size int) [][]types.ObjectIdentifier {
	var batches [][]types.ObjectIdentifier
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[i:end])
	}
	return batches
}
