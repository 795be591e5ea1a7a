package finance

import "math"

const domainPadding = 0.10

// Domain is a Y-axis range.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Stats summarises a non-empty run of points.
type Stats struct {
	Count int     `json:"count"`
	First Date    `json:"first"`
	Last  Date    `json:"last"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Summarize returns count, date span and value bounds; ok is false for no points.
func Summarize(points []DataPoint) (Stats, bool) {
	if len(points) == 0 {
		return Stats{}, false
	}
	st := Stats{
		Count: len(points),
		First: points[0].Date,
		Last:  points[len(points)-1].Date,
		Min:   points[0].Value,
		Max:   points[0].Value,
	}
	for _, p := range points[1:] {
		if p.Value < st.Min {
			st.Min = p.Value
		}
		if p.Value > st.Max {
			st.Max = p.Value
		}
	}
	return st, true
}

// YDomain pads the value range of points by 10% on each side.
// ok is false when there are no points.
func YDomain(points []DataPoint) (Domain, bool) {
	st, ok := Summarize(points)
	if !ok {
		return Domain{}, false
	}
	return paddedDomain(st.Min, st.Max), true
}

func valuesDomain(values []float64) (Domain, bool) {
	if len(values) == 0 {
		return Domain{}, false
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return paddedDomain(lo, hi), true
}

// paddedDomain widens a flat range to 10% of the value (or 1 around zero)
// so a constant series still draws inside a visible band.
func paddedDomain(lo, hi float64) Domain {
	pad := (hi - lo) * domainPadding
	if pad == 0 {
		pad = math.Abs(hi) * domainPadding
		if pad == 0 {
			pad = 1
		}
	}
	return Domain{Min: lo - pad, Max: hi + pad}
}

// ChangePercent is the move from previous to latest relative to |previous|,
// rounded to two decimals. It is nil when either side is missing or previous is zero.
func ChangePercent(latest, previous *float64) *float64 {
	if latest == nil || previous == nil || *previous == 0 {
		return nil
	}
	pct := (*latest - *previous) / math.Abs(*previous) * 100
	pct = math.Round(pct*100) / 100
	return &pct
}
