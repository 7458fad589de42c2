package minio

import (
	"context"
	"errors"
	"net/http"

	minioErr "github.com/minio/minio-go/v7"

	"github.com/koustreak/s3nav/internal/errs"
)

// mapError translates a MinIO SDK error into a *errs.Error.
// It mirrors the mapError of the s3 driver.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindAborted, msg, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// MinIO SDK exposes a typed ErrorResponse for S3-protocol errors
	var resp minioErr.ErrorResponse
	if errors.As(err, &resp) {
		if kind, ok := responseKind(resp); ok {
			return errs.Wrap(kind, msg, err).WithCode(resp.Code)
		}
	}

	// Anything else is a generic connection or I/O failure
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func responseKind(resp minioErr.ErrorResponse) (errs.ErrKind, bool) {
	switch resp.Code {
	case "NoSuchBucket", "NoSuchKey", "NoSuchUpload", "NoSuchTagSet":
		return errs.ErrKindNotFound, true
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return errs.ErrKindPermissionDenied, true
	case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError", "EntityTooLarge":
		return errs.ErrKindInvalidInput, true
	case "SlowDown", "TooManyRequests":
		return errs.ErrKindThrottled, true
	case "RequestTimeout":
		return errs.ErrKindTimeout, true
	}

	switch resp.StatusCode {
	case 0:
		return errs.ErrKindUnknown, false
	case http.StatusNotFound:
		return errs.ErrKindNotFound, true
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied, true
	case http.StatusBadRequest:
		return errs.ErrKindInvalidInput, true
	case http.StatusTooManyRequests:
		return errs.ErrKindThrottled, true
	case http.StatusServiceUnavailable:
		return errs.ErrKindUnavailable, true
	}
	return errs.ErrKindQueryFailed, true
}
