package finance

import (
	"sync"
	"time"
)

// Selection is the user's two choices on the indicator page.
type Selection struct {
	SeriesType string
	Range      Range
}

// Normalize fills in the defaults: historical series, ALL range.
func (s Selection) Normalize() Selection {
	if s.SeriesType == "" {
		s.SeriesType = SeriesHistorical
	}
	s.Range = ParseRange(string(s.Range))
	return s
}

// View is everything a renderer needs for one selection.
// Domain and Stats are nil when no points survive the range filter.
type View struct {
	SeriesType string         `json:"selected_series_type"`
	Range      Range          `json:"selected_range"`
	Label      string         `json:"label"`
	Source     ResolutionKind `json:"source"`
	Unit       string         `json:"display_unit"`
	Points     []DataPoint    `json:"filtered_points"`
	Domain     *Domain        `json:"y_domain,omitempty"`
	Stats      *Stats         `json:"stats,omitempty"`
}

// Empty reports the no-data state; callers render a placeholder instead of a chart.
func (v View) Empty() bool { return len(v.Points) == 0 }

// Labels returns the chart label of every point.
func (v View) Labels() []string {
	out := make([]string, len(v.Points))
	for i, p := range v.Points {
		out[i] = ChartLabel(p.Date)
	}
	return out
}

// Values returns the point values in order.
func (v View) Values() []float64 {
	out := make([]float64, len(v.Points))
	for i, p := range v.Points {
		out[i] = p.Value
	}
	return out
}

// BuildView resolves the series, applies the range window and scales the axis.
func BuildView(ind Indicator, sel Selection, today Date) View {
	sel = sel.Normalize()
	res := ResolveSeries(ind, sel.SeriesType)
	v := View{
		SeriesType: sel.SeriesType,
		Range:      sel.Range,
		Label:      res.Label,
		Source:     res.Kind,
		Unit:       DisplayUnit(ind.Unit, sel.SeriesType),
		Points:     FilterRange(res.Points, sel.Range, today),
	}
	if st, ok := Summarize(v.Points); ok {
		d := paddedDomain(st.Min, st.Max)
		v.Domain = &d
		v.Stats = &st
	}
	return v
}

// Selector memoizes views of one indicator snapshot. The memo is dropped when
// the calendar day changes since range cutoffs depend on it.
type Selector struct {
	ind Indicator
	loc *time.Location
	now func() time.Time

	mu      sync.Mutex
	memoDay Date
	memo    map[Selection]View
}

func NewSelector(ind Indicator, loc *time.Location) *Selector {
	if loc == nil {
		loc = time.UTC
	}
	return &Selector{ind: ind, loc: loc, now: time.Now, memo: map[Selection]View{}}
}

// Indicator returns the snapshot the selector was built from.
func (s *Selector) Indicator() Indicator { return s.ind }

// SeriesTypes lists the named series in backend order.
func (s *Selector) SeriesTypes() []DataSeries {
	return s.ind.Series
}

// View returns the memoized view for sel.
func (s *Selector) View(sel Selection) View {
	sel = sel.Normalize()
	today := Today(s.now(), s.loc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if today != s.memoDay {
		s.memo = map[Selection]View{}
		s.memoDay = today
	}
	if v, ok := s.memo[sel]; ok {
		return v
	}
	v := BuildView(s.ind, sel, today)
	s.memo[sel] = v
	return v
}
