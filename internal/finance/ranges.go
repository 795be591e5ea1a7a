package finance

import "strings"

// Range is a trailing display window.
type Range string

const (
	Range5Y  Range = "5Y"
	Range10Y Range = "10Y"
	Range20Y Range = "20Y"
	Range30Y Range = "30Y"
	Range50Y Range = "50Y"
	RangeAll Range = "ALL"
)

// Ranges lists the windows in display order.
var Ranges = []Range{Range5Y, Range10Y, Range20Y, Range30Y, Range50Y, RangeAll}

var rangeYears = map[Range]int{
	Range5Y:  5,
	Range10Y: 10,
	Range20Y: 20,
	Range30Y: 30,
	Range50Y: 50,
}

// ParseRange maps user input to a Range. Unknown or empty input means ALL.
func ParseRange(s string) Range {
	r := Range(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := rangeYears[r]; ok {
		return r
	}
	return RangeAll
}

// Years returns the window length; ok is false for ALL.
func (r Range) Years() (int, bool) {
	n, ok := rangeYears[r]
	return n, ok
}

// Cutoff is the first calendar date kept by r when viewed on today.
func (r Range) Cutoff(today Date) (Date, bool) {
	n, ok := r.Years()
	if !ok {
		return Date{}, false
	}
	return Date{today.AddDate(-n, 0, 0)}, true
}

// FilterRange keeps the points dated on or after the cutoff of r, in input order.
// ALL and empty input are returned unchanged. Input is expected to be date-ordered.
func FilterRange(points []DataPoint, r Range, today Date) []DataPoint {
	if len(points) == 0 {
		return points
	}
	cutoff, ok := r.Cutoff(today)
	if !ok {
		return points
	}
	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		if p.Date.Before(cutoff) {
			continue
		}
		out = append(out, p)
	}
	return out
}
