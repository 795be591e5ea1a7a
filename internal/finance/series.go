package finance

// ResolutionKind tags how the working series was chosen.
type ResolutionKind string

const (
	Resolved ResolutionKind = "resolved"
	Fallback ResolutionKind = "fallback"
)

// Resolution is the working series for a selection.
type Resolution struct {
	Kind   ResolutionKind
	Label  string
	Points []DataPoint
}

// ResolveSeries picks the series whose type equals seriesType. When the indicator
// has no such series it falls back to the flat data labelled with the indicator name.
func ResolveSeries(ind Indicator, seriesType string) Resolution {
	if seriesType == "" {
		seriesType = SeriesHistorical
	}
	for _, s := range ind.Series {
		if s.SeriesType != seriesType {
			continue
		}
		label := s.Label
		if label == "" {
			label = ind.Name
		}
		return Resolution{Kind: Resolved, Label: label, Points: s.DataPoints}
	}
	return Resolution{Kind: Fallback, Label: ind.Name, Points: ind.Data}
}

// DisplayUnit is "%" for annual change series and the indicator unit otherwise.
func DisplayUnit(unit, seriesType string) string {
	if seriesType == SeriesAnnualChange {
		return "%"
	}
	return unit
}
