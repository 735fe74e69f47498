// Package snapshot holds the RateSnapshot record written once per run and the
// steps that derive it from the upstream current-price payload.
package snapshot

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TimeLayout is the rendering used for every timestamp column.
const TimeLayout = "2006-01-02 15:04:05"

const (
	ColDisclaimer     = "disclaimer"
	ColChartName      = "chart_name"
	ColTimeUpdated    = "time_updated"
	ColTimeUpdatedISO = "time_updated_iso"
	ColUSDCode        = "bpi_usd_code"
	ColUSDRate        = "bpi_usd_rate_float"
	ColUSDDescription = "bpi_usd_description"
	ColGBPCode        = "bpi_gdp_code" // legacy label, kept for the warehouse table
	ColGBPRate        = "bpi_gdp_rate_float"
	ColGBPDescription = "bpi_gdp_description"
	ColEURCode        = "bpi_eur_code"
	ColEURRate        = "bpi_eur_rate_float"
	ColEURDescription = "bpi_eur_description"
	ColIDRRate        = "bpi_idr_rate_float"
	ColLastUpdated    = "last_updated"
)

type ColumnType string

const (
	ColumnString    ColumnType = "STRING"
	ColumnTimestamp ColumnType = "TIMESTAMP"
	ColumnFloat     ColumnType = "FLOAT"
)

type Column struct {
	Name string
	Type ColumnType
}

var columns = []Column{
	{ColDisclaimer, ColumnString},
	{ColChartName, ColumnString},
	{ColTimeUpdated, ColumnTimestamp},
	{ColTimeUpdatedISO, ColumnTimestamp},
	{ColUSDCode, ColumnString},
	{ColUSDRate, ColumnFloat},
	{ColUSDDescription, ColumnString},
	{ColGBPCode, ColumnString},
	{ColGBPRate, ColumnFloat},
	{ColGBPDescription, ColumnString},
	{ColEURCode, ColumnString},
	{ColEURRate, ColumnFloat},
	{ColEURDescription, ColumnString},
	{ColIDRRate, ColumnFloat},
	{ColLastUpdated, ColumnTimestamp},
}

// Schema returns the output columns in table order.
func Schema() []Column {
	out := make([]Column, len(columns))
	copy(out, columns)
	return out
}

// Columns returns the output column names in table order.
func Columns() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Name
	}
	return out
}

// RateSnapshot is one point-in-time quote bundle.
type RateSnapshot struct {
	Disclaimer     string
	ChartName      string
	TimeUpdated    string
	TimeUpdatedISO string
	USDCode        string
	USDRate        decimal.Decimal
	USDDescription string
	GBPCode        string
	GBPRate        decimal.Decimal
	GBPDescription string
	EURCode        string
	EURRate        decimal.Decimal
	EURDescription string
	IDRRate        decimal.Decimal
	LastUpdated    string
}

// floatCell renders d the way a float column is written to CSV: shortest
// form, with at least one fractional digit (17000 -> "17000.0").
func floatCell(d decimal.Decimal) string {
	cell := d.String()
	if !strings.Contains(cell, ".") {
		cell += ".0"
	}
	return cell
}

// Row renders the snapshot as CSV cells in Columns() order.
func (s RateSnapshot) Row() []string {
	return []string{
		s.Disclaimer,
		s.ChartName,
		s.TimeUpdated,
		s.TimeUpdatedISO,
		s.USDCode,
		floatCell(s.USDRate),
		s.USDDescription,
		s.GBPCode,
		floatCell(s.GBPRate),
		s.GBPDescription,
		s.EURCode,
		floatCell(s.EURRate),
		s.EURDescription,
		floatCell(s.IDRRate),
		s.LastUpdated,
	}
}
