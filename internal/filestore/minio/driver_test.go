package minio

import (
	"context"
	"errors"
	"net/http"
	"testing"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
)

func TestSplitEndpoint(t *testing.T) {
	host, secure, err := splitEndpoint("https://s3.example.com:9443")
	require.NoError(t, err)
	assert.Equal(t, "s3.example.com:9443", host)
	assert.True(t, secure)

	host, secure, err = splitEndpoint("http://localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	host, secure, err = splitEndpoint("localhost:9000")
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	_, _, err = splitEndpoint("ftp://host")
	assert.True(t, errs.IsConfig(err))

	_, _, err = splitEndpoint("")
	assert.True(t, errs.IsConfig(err))
}

func TestNewDoesNotDial(t *testing.T) {
	d, err := New(filestore.Endpoint{
		URL:             "http://127.0.0.1:1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.NoError(t, d.Close())
}

func TestQuoteETag(t *testing.T) {
	assert.Equal(t, `"abc"`, quoteETag("abc"))
	assert.Equal(t, `"abc"`, quoteETag(`"abc"`))
	assert.Equal(t, "", quoteETag(""))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"cancelled", context.Canceled, errs.ErrKindAborted},
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no such key", miniogo.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"bare 404", miniogo.ErrorResponse{StatusCode: http.StatusNotFound}, errs.ErrKindNotFound},
		{"access denied", miniogo.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, errs.ErrKindPermissionDenied},
		{"slow down", miniogo.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, errs.ErrKindThrottled},
		{"unavailable", miniogo.ErrorResponse{StatusCode: http.StatusServiceUnavailable}, errs.ErrKindUnavailable},
		{"conflict", miniogo.ErrorResponse{StatusCode: http.StatusConflict}, errs.ErrKindQueryFailed},
		{"transport", errors.New("connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "failed")
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
		})
	}
}

func TestMapErrorCarriesBackendCode(t *testing.T) {
	got := mapError(miniogo.ErrorResponse{Code: "ExpiredToken", StatusCode: http.StatusForbidden, Key: "cancelled.csv"}, "failed to get")
	assert.Equal(t, "ExpiredToken", got.Code)
	assert.Equal(t, "expired_credentials", errs.Classify(got).Code)
}
