package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewError(ErrCodeUpstreamRequest, "failed to fetch", cause)
	wrapped := fmt.Errorf("step load_api_gcs: %w", err)

	assert.Equal(t, int64(ErrCodeUpstreamRequest), CodeOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "failed to fetch: connection refused", err.Error())
	assert.Equal(t, int64(0), CodeOf(cause))
}

func TestClassification(t *testing.T) {
	tcs := []struct {
		name      string
		err       error
		fetch     bool
		transform bool
		storage   bool
		load      bool
	}{
		{name: "status", err: NewError(ErrCodeUpstreamStatus, "bad status", nil), fetch: true},
		{name: "missing field", err: NewErrorf(ErrCodeMissingField, nil, "missing %s", "bpi_usd_rate_float"), transform: true},
		{name: "bucket", err: NewError(ErrCodeBucketNotFound, "no bucket", nil), storage: true},
		{name: "load", err: NewError(ErrCodeLoadJob, "job failed", nil), load: true},
		{name: "plain", err: stderrors.New("plain")},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.fetch, IsFetchError(tc.err))
			assert.Equal(t, tc.transform, IsTransformError(tc.err))
			assert.Equal(t, tc.storage, IsStorageError(tc.err))
			assert.Equal(t, tc.load, IsLoadError(tc.err))
		})
	}
}

func TestDetailsOf(t *testing.T) {
	err := NewError(ErrCodeUpstreamStatus, "bad status", nil).WithDetails(`{"error":"unavailable"}`)
	wrapped := fmt.Errorf("step load_api_gcs: %w", err)

	assert.Equal(t, `{"error":"unavailable"}`, DetailsOf(wrapped))
	assert.Nil(t, DetailsOf(NewError(ErrCodeUpstreamStatus, "bad status", nil)))
	assert.Nil(t, DetailsOf(stderrors.New("plain")))
}
