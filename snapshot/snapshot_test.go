package snapshot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestColumns(t *testing.T) {
	assert.Equal(t, []string{
		"disclaimer",
		"chart_name",
		"time_updated",
		"time_updated_iso",
		"bpi_usd_code",
		"bpi_usd_rate_float",
		"bpi_usd_description",
		"bpi_gdp_code",
		"bpi_gdp_rate_float",
		"bpi_gdp_description",
		"bpi_eur_code",
		"bpi_eur_rate_float",
		"bpi_eur_description",
		"bpi_idr_rate_float",
		"last_updated",
	}, Columns())

	schema := Schema()
	assert.Len(t, schema, 15)
	assert.Equal(t, ColumnTimestamp, schema[2].Type)
	assert.Equal(t, ColumnFloat, schema[13].Type)

	// callers cannot mutate the package schema
	schema[0].Name = "changed"
	assert.Equal(t, ColDisclaimer, Columns()[0])
}

func TestRow(t *testing.T) {
	s := RateSnapshot{
		Disclaimer:     "disclaimer, with comma",
		ChartName:      "Bitcoin",
		TimeUpdated:    "2022-12-01 00:00:00",
		TimeUpdatedISO: "2022-12-01 00:00:00",
		USDCode:        "USD",
		USDRate:        decimal.RequireFromString("17000.0"),
		USDDescription: "United States Dollar",
		GBPCode:        "GBP",
		GBPRate:        decimal.RequireFromString("13500.1234"),
		GBPDescription: "British Pound Sterling",
		EURCode:        "EUR",
		EURRate:        decimal.NewFromInt(15800),
		EURDescription: "Euro",
		IDRRate:        decimal.RequireFromString("265200000"),
		LastUpdated:    "2022-12-01 07:05:00",
	}

	row := s.Row()
	assert.Len(t, row, len(Columns()))
	assert.Equal(t, "disclaimer, with comma", row[0])
	assert.Equal(t, "17000.0", row[5])
	assert.Equal(t, "13500.1234", row[8])
	assert.Equal(t, "15800.0", row[11])
	assert.Equal(t, "265200000.0", row[13])
	assert.Equal(t, "2022-12-01 07:05:00", row[14])
}

func TestFloatCell(t *testing.T) {
	tcs := []struct {
		in   decimal.Decimal
		want string
	}{
		{in: decimal.NewFromInt(17000), want: "17000.0"},
		{in: decimal.RequireFromString("17000.00"), want: "17000.0"},
		{in: decimal.RequireFromString("265200000.10"), want: "265200000.1"},
		{in: decimal.RequireFromString("265200000.12"), want: "265200000.12"},
		{in: decimal.RequireFromString("0.5"), want: "0.5"},
		{in: decimal.Zero, want: "0.0"},
	}
	for _, tc := range tcs {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, floatCell(tc.in))
		})
	}
}
