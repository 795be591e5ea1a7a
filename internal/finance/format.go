package finance

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	notAvailable = "N/A"
	groupedTwo   = "#,###.##"
)

// FormatValue renders a value in the conventions of unit. A nil value is "N/A".
func FormatValue(v *float64, unit string) string {
	if v == nil {
		return notAvailable
	}
	return FormatNumber(*v, unit)
}

// FormatNumber renders v with two decimals: "3.40%" for percentages,
// "$1,950.50" for any USD unit, "1,950.50" otherwise.
func FormatNumber(v float64, unit string) string {
	switch {
	case unit == "%":
		return fmt.Sprintf("%.2f%%", v)
	case strings.Contains(unit, "USD"):
		return "$" + humanize.FormatFloat(groupedTwo, v)
	default:
		return humanize.FormatFloat(groupedTwo, v)
	}
}

// ChartLabel is the axis/tooltip label: the year for Jan-1 dates, "Jan 2006" otherwise.
func ChartLabel(d Date) string {
	if d.YearOnly() {
		return d.Format("2006")
	}
	return d.Format("Jan 2006")
}

// TableLabel is the detail label: the year for Jan-1 dates, "Jan 2, 2006" otherwise.
func TableLabel(d Date) string {
	if d.YearOnly() {
		return d.Format("2006")
	}
	return d.Format("Jan 2, 2006")
}

// FormatDate is TableLabel for optional dates.
func FormatDate(d *Date) string {
	if d == nil || d.IsZero() {
		return notAvailable
	}
	return TableLabel(*d)
}

// FormatChange renders a signed percentage change such as "+1.25%".
func FormatChange(pct *float64) string {
	if pct == nil {
		return notAvailable
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}
