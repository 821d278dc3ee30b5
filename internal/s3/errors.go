package s3

import (
	"errors"

	"github.com/aws/smithy-go"

	"BucketPurger/internal/storage"
)

var errMissingHost = errors.New("missing host")

type httpStatusError interface {
	HTTPStatusCode() int
}

// classify wraps an SDK error in storage.Error, tagging it with the taxonomy
// sentinel derived from the API error code or, failing that, the HTTP status.
func classify(op, bucket string, err error) error {
	if err == nil {
		return nil
	}
	var code string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
	}
	var status int
	var respErr httpStatusError
	if errors.As(err, &respErr) {
		status = respErr.HTTPStatusCode()
	}
	return storage.NewError(op, bucket, storage.KindForCode(code, status), err)
}
