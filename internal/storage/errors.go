package storage

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("storage: invalid input")
	ErrAccessDenied    = errors.New("storage: access denied")
	ErrBucketNotFound  = errors.New("storage: bucket not found")
	ErrBucketNotEmpty  = errors.New("storage: bucket not empty")
	ErrTooManyRequests = errors.New("storage: too many requests")
)

// Error carries the failed operation and bucket alongside the provider error.
// Kind is one of the sentinels above, or nil when the provider error did not
// map to any of them.
type Error struct {
	Op     string
	Bucket string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the provider error, so
// errors.Is and errors.As work for either.
func (e *Error) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

func NewError(op, bucket string, kind, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Kind: kind, Err: err}
}

// KindForCode maps an S3 error code or HTTP status to a taxonomy sentinel.
// It returns nil when neither identifies a known failure.
func KindForCode(code string, status int) error {
	switch code {
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "AllAccessDisabled":
		return ErrAccessDenied
	case "NoSuchBucket", "NotFound":
		return ErrBucketNotFound
	case "BucketNotEmpty":
		return ErrBucketNotEmpty
	case "SlowDown", "TooManyRequests", "Throttling", "ThrottlingException", "RequestLimitExceeded", "ServiceUnavailable":
		return ErrTooManyRequests
	}
	switch status {
	case 403:
		return ErrAccessDenied
	case 404:
		return ErrBucketNotFound
	case 409:
		if code == "" {
			return ErrBucketNotEmpty
		}
	case 429, 503:
		return ErrTooManyRequests
	}
	return nil
}

func IsBucketNotFound(err error) bool { return errors.Is(err, ErrBucketNotFound) }

func IsBucketNotEmpty(err error) bool { return errors.Is(err, ErrBucketNotEmpty) }

func IsAccessDenied(err error) bool { return errors.Is(err, ErrAccessDenied) }

func IsTooManyRequests(err error) bool { return errors.Is(err, ErrTooManyRequests) }
