// Package logging writes analysis reports and the structured debug log.
// This file holds the column formatter shared by the report file and the
// console display.

package logging

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// MissingValue is the placeholder for unavailable measurements
const MissingValue = "-"

// DigitalSilenceThreshold is the dBFS level at or below which a level is shown
// as digital silence. Measure reports -Inf for true digital zero.
const DigitalSilenceThreshold = -120.0

// MetricRow is one table row. Values are pre-formatted so a row can mix
// decimals, scientific notation and placeholders.
type MetricRow struct {
	Label          string
	Values         []string // one per header; short rows are padded with MissingValue
	Unit           string
	Interpretation string
}

// MetricTable renders rows under value headers such as Mean/Std/Skew.
// Labels are left-aligned, values right-aligned, units follow the values and
// an Interpretation column appears only when some row has one.
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// NewMetricTable creates an empty table with the given value headers
func NewMetricTable(headers ...string) *MetricTable {
	return &MetricTable{Headers: headers}
}

// NewStatsTable creates a table for per-family feature statistics
func NewStatsTable() *MetricTable {
	return NewMetricTable("Mean", "Std", "Skew")
}

// AddRow appends a row of pre-formatted values
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{Label: label, Values: values, Unit: unit, Interpretation: interpretation})
}

// AddMetricRow appends numeric values formatted to one precision.
// NaN shows as MissingValue.
func (t *MetricTable) AddMetricRow(label string, values []float64, decimals int, unit string, interpretation string) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = formatMetric(v, decimals)
	}
	t.AddRow(label, cells, unit, interpretation)
}

// layout holds the column widths of a table
type layout struct {
	label     int
	values    []int
	unit      int
	interpret bool
}

func (t *MetricTable) layout() layout {
	l := layout{values: make([]int, len(t.Headers))}
	for i, h := range t.Headers {
		l.values[i] = len(h)
	}
	for _, row := range t.Rows {
		l.label = max(l.label, len(row.Label))
		l.unit = max(l.unit, len(row.Unit))
		l.interpret = l.interpret || row.Interpretation != ""
		for i := range l.values {
			l.values[i] = max(l.values[i], len(row.cell(i)))
		}
	}
	return l
}

func (r MetricRow) cell(i int) string {
	if i < len(r.Values) && r.Values[i] != "" {
		return r.Values[i]
	}
	return MissingValue
}

// WriteTo writes the aligned table to w. An empty table writes nothing.
func (t *MetricTable) WriteTo(w io.Writer) (int64, error) {
	if len(t.Rows) == 0 {
		return 0, nil
	}
	l := t.layout()

	var sb strings.Builder
	line := func(label string, cells func(int) string, unit, interpretation string) {
		fmt.Fprintf(&sb, "%-*s  ", l.label, label)
		for i, width := range l.values {
			fmt.Fprintf(&sb, "%*s  ", width, cells(i))
		}
		if l.unit > 0 {
			fmt.Fprintf(&sb, "%-*s ", l.unit, unit)
		}
		if l.interpret {
			sb.WriteString(interpretation)
		}
		sb.WriteByte('\n')
	}

	line("", func(i int) string { return t.Headers[i] }, "", "Interpretation")
	for _, row := range t.Rows {
		line(row.Label, row.cell, row.Unit, row.Interpretation)
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String renders the table
func (t *MetricTable) String() string {
	var sb strings.Builder
	t.WriteTo(&sb)
	return sb.String()
}

func isDigitalSilence(value float64) bool {
	return math.IsInf(value, -1) || value <= DigitalSilenceThreshold
}

func finiteValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// formatMetric formats a value to the given decimals. Tiny non-zero values
// use scientific notation so they do not print as zero.
func formatMetric(value float64, decimals int) string {
	switch {
	case !finiteValue(value):
		return MissingValue
	case value != 0 && math.Abs(value) < 1e-4:
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMetricDB formats a level in dB, showing digital silence as "< -120"
func formatMetricDB(value float64, decimals int) string {
	switch {
	case math.IsNaN(value) || math.IsInf(value, 1):
		return MissingValue
	case isDigitalSilence(value):
		return fmt.Sprintf("< %.0f", DigitalSilenceThreshold)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatPercent formats a 0-1 ratio as a percentage
func formatPercent(ratio float64, decimals int) string {
	if !finiteValue(ratio) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f%%", decimals, ratio*100)
}

func formatMetricWithUnit(value float64, decimals int, unit string) string {
	s := formatMetric(value, decimals)
	if s == MissingValue || unit == "" {
		return s
	}
	return s + " " + unit
}
