package finance

import "time"

// LoadLocation returns the named location, falling back to UTC if tzdata is missing.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today is the current calendar date in loc.
func Today(now time.Time, loc *time.Location) Date {
	return DateOf(now.In(loc))
}
