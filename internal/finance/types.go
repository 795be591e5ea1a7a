package finance

import (
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Default series types published by the backend.
const (
	SeriesHistorical        = "historical"
	SeriesInflationAdjusted = "inflation_adjusted"
	SeriesAnnualChange      = "annual_change"
	SeriesAnnualAverage     = "annual_average"
)

// Date is a calendar date with day precision, stored at UTC midnight.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts "2006-01-02" and anything that starts with it (RFC 3339 timestamps).
func ParseDate(s string) (Date, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

// YearOnly reports whether d is a Jan-1 placeholder for an annual observation.
func (d Date) YearOnly() bool {
	return d.Month() == time.January && d.Day() == 1
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DataPoint is one observation of an indicator.
type DataPoint struct {
	Date  Date    `json:"date"`
	Value float64 `json:"value"`
}

// DataSeries is one labelled variant of an indicator's data, ordered by date.
type DataSeries struct {
	SeriesType string      `json:"series_type"`
	Label      string      `json:"label"`
	DataPoints []DataPoint `json:"data_points"`
}

// Indicator is the read-only snapshot the selector works on. Data is the flat
// series used when no named series matches.
type Indicator struct {
	Name   string
	Unit   string
	Data   []DataPoint
	Series []DataSeries
}
