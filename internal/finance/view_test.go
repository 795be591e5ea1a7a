package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildViewExample(t *testing.T) {
	ind := Indicator{
		Name: "S&P 500",
		Unit: "Index",
		Series: []DataSeries{{
			SeriesType: SeriesHistorical,
			Label:      "Historical",
			DataPoints: pts("2020-01-01", 100, "2021-01-01", 110, "2022-01-01", 90),
		}},
	}
	v := BuildView(ind, Selection{}, NewDate(2026, time.October, 17))

	assert.Equal(t, SeriesHistorical, v.SeriesType)
	assert.Equal(t, RangeAll, v.Range)
	assert.Equal(t, Resolved, v.Source)
	assert.Equal(t, "Index", v.Unit)
	require.NotNil(t, v.Domain)
	assert.InDelta(t, 88, v.Domain.Min, 1e-9)
	assert.InDelta(t, 112, v.Domain.Max, 1e-9)
	assert.Equal(t, []string{"2020", "2021", "2022"}, v.Labels())
	assert.Equal(t, []float64{100, 110, 90}, v.Values())
	require.NotNil(t, v.Stats)
	assert.Equal(t, 3, v.Stats.Count)
}

func TestBuildViewAnnualChangeUnit(t *testing.T) {
	v := BuildView(gold(), Selection{SeriesType: SeriesAnnualChange}, NewDate(2026, time.October, 17))
	assert.Equal(t, "%", v.Unit)
	assert.Equal(t, "Annual % Change", v.Label)
}

func TestBuildViewEmptyState(t *testing.T) {
	v := BuildView(gold(), Selection{Range: Range5Y}, NewDate(2040, time.January, 1))
	assert.True(t, v.Empty())
	assert.Nil(t, v.Domain)
	assert.Nil(t, v.Stats)

	_, err := RenderChart(v)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestBuildViewFallback(t *testing.T) {
	v := BuildView(gold(), Selection{SeriesType: "nonexistent"}, NewDate(2026, time.October, 17))
	assert.Equal(t, Fallback, v.Source)
	assert.Equal(t, "Gold Price", v.Label)
	assert.Equal(t, "USD/oz", v.Unit)
	assert.Len(t, v.Points, 2)
}

func TestSelectorMemoizes(t *testing.T) {
	s := NewSelector(gold(), time.UTC)
	now := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	first := s.View(Selection{SeriesType: SeriesHistorical, Range: Range10Y})
	assert.Len(t, s.memo, 1)
	again := s.View(Selection{SeriesType: SeriesHistorical, Range: "10y"})
	assert.Equal(t, first, again)
	assert.Len(t, s.memo, 1)

	s.View(Selection{})
	assert.Len(t, s.memo, 2)

	now = now.Add(24 * time.Hour)
	s.View(Selection{})
	assert.Len(t, s.memo, 1)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache[[]byte](time.Minute)
	now := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("gold|historical|ALL", []byte("png"))
	got, ok := c.Get("gold|historical|ALL")
	require.True(t, ok)
	assert.Equal(t, []byte("png"), got)

	c.Purge("gold|")
	_, ok = c.Get("gold|historical|ALL")
	assert.False(t, ok)

	c.Set("sp500|historical|ALL", []byte("png"))
	now = now.Add(2 * time.Minute)
	_, ok = c.Get("sp500|historical|ALL")
	assert.False(t, ok)
}

func TestChartKey(t *testing.T) {
	assert.Equal(t, "gold|historical|ALL", ChartKey("Gold", Selection{}))
	assert.Equal(t, "gold|annual_change|5Y", ChartKey("gold", Selection{SeriesType: SeriesAnnualChange, Range: "5y"}))
}
