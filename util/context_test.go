package util

import (
	"context"
	"testing"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationIdFromCtx(t *testing.T) {
	tests := []struct {
		name        string
		setupCtx    func() context.Context
		wantValue   string
		wantErrCode int64
	}{
		{
			name: "present",
			setupCtx: func() context.Context {
				return CorrelationIdToCtx(context.Background(), "abc")
			},
			wantValue: "abc",
		},
		{
			name:        "missing",
			setupCtx:    context.Background,
			wantErrCode: ErrCodeValueNotFoundInContext,
		},
		{
			name: "wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), CorrelationIdKey, 42)
			},
			wantErrCode: ErrCodeInvalidValueInContext,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CorrelationIdFromCtx(tt.setupCtx())
			if tt.wantErrCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantErrCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, got)
		})
	}
}

func TestRunIdToCtx(t *testing.T) {
	runId := NewRunId()
	ctx := RunIdToCtx(context.Background(), runId)

	got, err := RunIdFromCtx(ctx)
	require.NoError(t, err)
	assert.Equal(t, runId, got)

	correlationId, err := CorrelationIdFromCtx(ctx)
	require.NoError(t, err)
	assert.Equal(t, runId, correlationId)
}

func TestNewRunId(t *testing.T) {
	a, b := NewRunId(), NewRunId()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
