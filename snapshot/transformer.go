package snapshot

import (
	"context"
	"time"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/rate"
	"go.uber.org/zap"
)

const (
	conversionBase   = "USD"
	conversionQuote  = "IDR"
	conversionPlaces = 2
)

type Transformer struct {
	lg       *zap.Logger
	provider rate.RateProvider
	loc      *time.Location
	now      func() time.Time
}

type TransformerOption func(*Transformer)

// WithClock replaces the wall clock used for last_updated.
func WithClock(now func() time.Time) TransformerOption {
	return func(t *Transformer) {
		t.now = now
	}
}

func NewTransformer(lg *zap.Logger, provider rate.RateProvider, loc *time.Location, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		lg:       lg,
		provider: provider,
		loc:      loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform maps one current-price payload to a RateSnapshot. Any missing or
// malformed field, or a failed conversion, aborts without a record.
func (t *Transformer) Transform(ctx context.Context, payload map[string]any) (*RateSnapshot, error) {
	t.lg.Info("data transform start")

	flat := Drop(Rename(Flatten(payload), RenameTable), DroppedColumns)

	fields, err := Reorder(flat)
	if err != nil {
		return nil, err
	}

	s, err := fromFields(fields)
	if err != nil {
		return nil, err
	}

	s.IDRRate, err = rate.Convert(ctx, t.provider, s.USDRate, conversionBase, conversionQuote, conversionPlaces)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeConversion, "failed to convert USD rate to IDR", err)
	}

	s.LastUpdated = t.now().In(t.loc).Format(TimeLayout)

	t.lg.Info("data transform done",
		zap.String("timeUpdated", s.TimeUpdated),
		zap.String("usdRate", s.USDRate.String()),
		zap.String("idrRate", s.IDRRate.String()),
		zap.String("lastUpdated", s.LastUpdated),
	)
	return s, nil
}
