package storage

import (
	"errors"
	"strings"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// mapS3Error folds every SDK failure shape into the package's typed errors.
// A key the credentials cannot see reads the same as a missing key, so 403 on a
// single-key operation is treated as absence rather than surfaced to clients.
func mapS3Error(op, bucket, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return ErrNotFound
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return ErrNotFound
	}
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return ErrNotFound
		case "AccessDenied", "Forbidden":
			return ErrNotFound
		case "PreconditionFailed":
			return ErrPreconditionFailed
		case "NotModified":
			return ErrNotModified
		case "SlowDown", "ServiceUnavailable", "RequestLimitExceeded":
			return &ThrottledError{RetryAfter: retryAfterHint(err), Err: err}
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 304:
			return ErrNotModified
		case 403, 404:
			return ErrNotFound
		case 412:
			return ErrPreconditionFailed
		case 503:
			return &ThrottledError{RetryAfter: retryAfterHint(err), Err: err}
		}
	}

	return &BackendError{Op: op, Bucket: bucket, Key: key, Err: err}
}

// retryAfterHint extracts the backend's suggested pause, if any.
func retryAfterHint(err error) time.Duration {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.Response != nil {
		if v := respErr.Response.Header.Get("Retry-After"); v != "" {
			if d, parseErr := time.ParseDuration(v + "s"); parseErr == nil {
				return d
			}
		}
	}
	return 0
}

// normalizeETag strips the quotes S3 wraps around ETags.
func normalizeETag(etag string) string {
	return strings.ReplaceAll(etag, "\"", "")
}

// wireETag re-quotes an ETag for a conditional header. The wildcard passes as is.
func wireETag(etag string) string {
	if etag == "*" || strings.HasPrefix(etag, "\"") {
		return etag
	}
	return "\"" + etag + "\""
}
