package s3

import (
	"context"
	"errors"
	"net/http"
	"strings"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	"github.com/koustreak/s3nav/internal/errs"
)

// mapError translates an aws-sdk-go-v2 error into a *errs.Error.
// It mirrors the mapError of the minio driver.
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

	// Service errors carry an S3 error code.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if kind, ok := codeKind(code); ok {
			return errs.Wrap(kind, msg, err).WithCode(code)
		}
	}

	// Bodyless responses (HEAD) only carry a status code.
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		e := errs.Wrap(statusKind(respErr.HTTPStatusCode()), msg, err)
		if apiErr != nil {
			e.WithCode(apiErr.ErrorCode())
		}
		return e
	}
	if apiErr != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err).WithCode(apiErr.ErrorCode())
	}

	if code, ok := credentialCode(err); ok {
		return errs.Wrap(errs.ErrKindPermissionDenied, msg, err).WithCode(code)
	}

	// Transport failures land here.
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

func codeKind(code string) (errs.ErrKind, bool) {
	switch code {
	case "NoSuchBucket", "NoSuchKey", "NotFound", "NoSuchUpload", "NoSuchTagSet":
		return errs.ErrKindNotFound, true
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch",
		"ExpiredToken", "InvalidToken", "AllAccessDisabled", "AccountProblem":
		return errs.ErrKindPermissionDenied, true
	case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError", "InvalidArgument",
		"EntityTooLarge", "InvalidRequest":
		return errs.ErrKindInvalidInput, true
	case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded", "TooManyRequests":
		return errs.ErrKindThrottled, true
	case "ServiceUnavailable", "InternalError":
		return errs.ErrKindUnavailable, true
	case "RequestTimeout":
		return errs.ErrKindTimeout, true
	}
	return errs.ErrKindUnknown, false
}

func statusKind(status int) errs.ErrKind {
	switch status {
	case http.StatusNotFound:
		return errs.ErrKindNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errs.ErrKindPermissionDenied
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return errs.ErrKindInvalidInput
	case http.StatusTooManyRequests:
		return errs.ErrKindThrottled
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return errs.ErrKindUnavailable
	}
	return errs.ErrKindQueryFailed
}

// credentialCode recognises identity resolution failures. The SDK reports
// them as plain wrapped errors, so the native text is the only signal; it
// never contains the caller's bucket or key.
func credentialCode(err error) (string, bool) {
	text := strings.ToLower(err.Error())
	if !strings.Contains(text, "get identity") &&
		!strings.Contains(text, "failed to retrieve credentials") &&
		!strings.Contains(text, "failed to refresh cached credentials") {
		return "", false
	}
	if strings.Contains(text, "expired") {
		return "ExpiredToken", true
	}
	return "InvalidCredentials", true
}
