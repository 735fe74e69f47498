package snapshot

import (
	"fmt"
	"time"

	"github.com/infigaming-com/bpi-log-job/errors"
	"github.com/infigaming-com/bpi-log-job/util"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RenameTable maps flattened upstream keys to output column names.
var RenameTable = map[string]string{
	"chartName":           ColChartName,
	"time.updated":        ColTimeUpdated,
	"time.updatedISO":     ColTimeUpdatedISO,
	"bpi.USD.code":        ColUSDCode,
	"bpi.USD.rate_float":  ColUSDRate,
	"bpi.USD.description": ColUSDDescription,
	"bpi.GBP.code":        ColGBPCode,
	"bpi.GBP.rate_float":  ColGBPRate,
	"bpi.GBP.description": ColGBPDescription,
	"bpi.EUR.code":        ColEURCode,
	"bpi.EUR.rate_float":  ColEURRate,
	"bpi.EUR.description": ColEURDescription,
}

// DroppedColumns are redundant with the code and rate_float columns.
var DroppedColumns = []string{
	"time.updateduk",
	"bpi.USD.symbol",
	"bpi.USD.rate",
	"bpi.GBP.symbol",
	"bpi.GBP.rate",
	"bpi.EUR.symbol",
	"bpi.EUR.rate",
}

// SourceColumns are the columns taken from the payload, in output order.
// The derived IDR rate and the run stamp are appended later.
var SourceColumns = []string{
	ColDisclaimer,
	ColChartName,
	ColTimeUpdated,
	ColTimeUpdatedISO,
	ColUSDCode,
	ColUSDRate,
	ColUSDDescription,
	ColGBPCode,
	ColGBPRate,
	ColGBPDescription,
	ColEURCode,
	ColEURRate,
	ColEURDescription,
}

var timestampLayouts = []string{
	"Jan 2, 2006 15:04:05 MST",
	"Jan 2, 2006 at 15:04 MST",
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

type Field struct {
	Name  string
	Value any
}

// Flatten turns nested objects into dotted keys: {"bpi":{"USD":{"code":..}}}
// becomes {"bpi.USD.code":..}. Non-object values are leaves.
func Flatten(in map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", in)
	return out
}

func flattenInto(out map[string]any, prefix string, in map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

// Rename applies table to the keys of flat. Keys not in table pass through.
func Rename(flat map[string]any, table map[string]string) map[string]any {
	return lo.MapKeys(flat, func(_ any, key string) string {
		if renamed, ok := table[key]; ok {
			return renamed
		}
		return key
	})
}

// Drop removes keys from flat. Absent keys are ignored.
func Drop(flat map[string]any, keys []string) map[string]any {
	return lo.OmitByKeys(flat, keys)
}

// Reorder projects flat onto SourceColumns. Keys outside the projection are
// discarded; a missing or null column is an error.
func Reorder(flat map[string]any) ([]Field, error) {
	fields := make([]Field, 0, len(SourceColumns))
	for _, col := range SourceColumns {
		v, ok := flat[col]
		if !ok || v == nil {
			return nil, errors.NewErrorf(errors.ErrCodeMissingField, nil, "missing field %s", col)
		}
		fields = append(fields, Field{Name: col, Value: v})
	}
	return fields, nil
}

// NormalizeTimestamp parses value in any of the accepted layouts and renders
// its wall clock as TimeLayout. The zone or offset is discarded, not applied.
func NormalizeTimestamp(value string) (string, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(TimeLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognised timestamp %q", value)
}

func stringField(f Field) (string, error) {
	s, ok := f.Value.(string)
	if !ok {
		return "", errors.NewErrorf(errors.ErrCodeMalformedField, nil, "field %s: expected string, got %T", f.Name, f.Value)
	}
	return s, nil
}

func decimalField(f Field) (decimal.Decimal, error) {
	d, err := util.NewDecimal(f.Value)
	if err != nil {
		return decimal.Zero, errors.NewErrorf(errors.ErrCodeMalformedField, err, "field %s: expected number", f.Name)
	}
	return d, nil
}

func timestampField(f Field) (string, error) {
	s, err := stringField(f)
	if err != nil {
		return "", err
	}
	normalized, err := NormalizeTimestamp(s)
	if err != nil {
		return "", errors.NewErrorf(errors.ErrCodeMalformedField, err, "field %s", f.Name)
	}
	return normalized, nil
}

// fromFields builds a snapshot from the projected source columns, coercing
// each value to its column type. Derived columns are left zero.
func fromFields(fields []Field) (*RateSnapshot, error) {
	s := &RateSnapshot{}
	targets := map[string]any{
		ColDisclaimer:     &s.Disclaimer,
		ColChartName:      &s.ChartName,
		ColTimeUpdated:    &s.TimeUpdated,
		ColTimeUpdatedISO: &s.TimeUpdatedISO,
		ColUSDCode:        &s.USDCode,
		ColUSDRate:        &s.USDRate,
		ColUSDDescription: &s.USDDescription,
		ColGBPCode:        &s.GBPCode,
		ColGBPRate:        &s.GBPRate,
		ColGBPDescription: &s.GBPDescription,
		ColEURCode:        &s.EURCode,
		ColEURRate:        &s.EURRate,
		ColEURDescription: &s.EURDescription,
	}
	types := lo.SliceToMap(columns, func(c Column) (string, ColumnType) {
		return c.Name, c.Type
	})

	for _, f := range fields {
		switch target := targets[f.Name].(type) {
		case *decimal.Decimal:
			d, err := decimalField(f)
			if err != nil {
				return nil, err
			}
			*target = d
		case *string:
			var (
				v   string
				err error
			)
			if types[f.Name] == ColumnTimestamp {
				v, err = timestampField(f)
			} else {
				v, err = stringField(f)
			}
			if err != nil {
				return nil, err
			}
			*target = v
		default:
			return nil, fmt.Errorf("no target for field %s", f.Name)
		}
	}
	return s, nil
}
