package util

import (
	"context"
	"fmt"

	"github.com/infigaming-com/bpi-log-job/errors"
)

type ContextKey string

const (
	CorrelationIdKey ContextKey = "CorrelationId"
	RunIdKey         ContextKey = "RunId"
)

const (
	ErrCodeValueNotFoundInContext = 90000 + iota
	ErrCodeInvalidValueInContext
)

func valueToCtx[T any](ctx context.Context, key ContextKey, value T) context.Context {
	return context.WithValue(ctx, key, value)
}

func valueFromCtx[T any](ctx context.Context, key ContextKey) (T, error) {
	valueFromCtx := ctx.Value(key)
	if valueFromCtx == nil {
		return *new(T), errors.NewError(ErrCodeValueNotFoundInContext, fmt.Sprintf("%v not found in context", key), nil)
	}
	value, ok := valueFromCtx.(T)
	if !ok {
		return *new(T), errors.NewError(ErrCodeInvalidValueInContext, fmt.Sprintf("%v is not of type %T on context", key, *new(T)), nil)
	}
	return value, nil
}

func CorrelationIdToCtx(ctx context.Context, correlationId string) context.Context {
	return valueToCtx(ctx, CorrelationIdKey, correlationId)
}

func CorrelationIdFromCtx(ctx context.Context) (string, error) {
	return valueFromCtx[string](ctx, CorrelationIdKey)
}

// RunIdToCtx tags ctx with the id of the current job run. The run id doubles
// as the correlation id sent on outbound requests.
func RunIdToCtx(ctx context.Context, runId string) context.Context {
	ctx = valueToCtx(ctx, RunIdKey, runId)
	return CorrelationIdToCtx(ctx, runId)
}

func RunIdFromCtx(ctx context.Context) (string, error) {
	return valueFromCtx[string](ctx, RunIdKey)
}
