package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func monthly(from Date, n int) []DataPoint {
	out := make([]DataPoint, n)
	for i := range out {
		out[i] = DataPoint{Date: Date{from.AddDate(0, i, 0)}, Value: float64(i)}
	}
	return out
}

func TestParseRange(t *testing.T) {
	assert.Equal(t, Range5Y, ParseRange("5y"))
	assert.Equal(t, Range50Y, ParseRange(" 50Y "))
	assert.Equal(t, RangeAll, ParseRange(""))
	assert.Equal(t, RangeAll, ParseRange("7Y"))
	assert.Equal(t, RangeAll, ParseRange("all"))
}

func TestFilterRangeProperties(t *testing.T) {
	today := NewDate(2026, time.October, 17)
	points := monthly(NewDate(1960, time.January, 1), 800)

	for _, r := range Ranges {
		t.Run(string(r), func(t *testing.T) {
			got := FilterRange(points, r, today)
			if r == RangeAll {
				assert.Equal(t, points, got)
				return
			}
			n, _ := r.Years()
			cutoff := Date{today.AddDate(-n, 0, 0)}
			assert.NotEmpty(t, got)
			for _, p := range got {
				assert.False(t, p.Date.Before(cutoff), "%s before cutoff %s", p.Date, cutoff)
			}
			// contiguous suffix of the input
			assert.Equal(t, points[len(points)-len(got):], got)
		})
	}
}

func TestFilterRangeComposesWithAll(t *testing.T) {
	today := NewDate(2026, time.October, 17)
	points := monthly(NewDate(2000, time.March, 1), 320)
	direct := FilterRange(points, Range5Y, today)
	viaAll := FilterRange(FilterRange(points, RangeAll, today), Range5Y, today)
	assert.Equal(t, direct, viaAll)
}

func TestFilterRangeKeepsCutoffDay(t *testing.T) {
	today := NewDate(2026, time.October, 17)
	points := []DataPoint{
		{Date: NewDate(2021, time.October, 16), Value: 1},
		{Date: NewDate(2021, time.October, 17), Value: 2},
		{Date: NewDate(2026, time.October, 1), Value: 3},
	}
	got := FilterRange(points, Range5Y, today)
	assert.Equal(t, points[1:], got)
}

func TestFilterRangeEmpty(t *testing.T) {
	today := NewDate(2026, time.October, 17)
	assert.Empty(t, FilterRange(nil, Range10Y, today))
	old := []DataPoint{{Date: NewDate(1950, time.January, 1), Value: 1}}
	assert.Empty(t, FilterRange(old, Range10Y, today))
}
