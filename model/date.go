package model

import (
	"fmt"
	"time"
)

// DateGranularity describes how specific a resolved date is
type DateGranularity int

const (
	GranularityYear DateGranularity = iota
	GranularityMonth
	GranularityDay
)

// PartialDate represents a calendar date that may be partial
// (year-only or year-month). Month and Day are 0 when unknown.
type PartialDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`
	Day   int        `json:"day,omitempty"`
}

// NewPartialDate creates a partial date, validating the calendar where known.
// Month and day may be 0 for partial dates; a day requires a month.
func NewPartialDate(year int, month time.Month, day int) (*PartialDate, error) {
	if year <= 0 {
		return nil, fmt.Errorf("invalid year %d", year)
	}
	if month == 0 && day != 0 {
		return nil, fmt.Errorf("day %d given without month", day)
	}
	if month != 0 && (month < time.January || month > time.December) {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	if day != 0 {
		// Normalizing an out-of-range day moves it into the next month.
		probe := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if probe.Year() != year || probe.Month() != month || probe.Day() != day {
			return nil, fmt.Errorf("invalid calendar day %04d-%02d-%02d", year, month, day)
		}
	}
	return &PartialDate{Year: year, Month: month, Day: day}, nil
}

// Granularity returns how specific the date is
func (d *PartialDate) Granularity() DateGranularity {
	switch {
	case d.Day != 0:
		return GranularityDay
	case d.Month != 0:
		return GranularityMonth
	default:
		return GranularityYear
	}
}

// Equal reports whether two dates are calendar-equal, including granularity
func (d *PartialDate) Equal(other *PartialDate) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// Covers reports whether d is a consistent superset of other, i.e. other is
// at least as specific as d and agrees on every component d knows about.
// A year-only date covers any month or day date in that year.
func (d *PartialDate) Covers(other *PartialDate) bool {
	if d == nil || other == nil {
		return false
	}
	if d.Year != other.Year {
		return false
	}
	if d.Month != 0 && d.Month != other.Month {
		return false
	}
	if d.Day != 0 && d.Day != other.Day {
		return false
	}
	return other.Granularity() >= d.Granularity()
}

// MergeMostSpecific returns the more specific of two consistent dates, or nil
// if neither covers the other
func (d *PartialDate) MergeMostSpecific(other *PartialDate) *PartialDate {
	if d.Covers(other) {
		return other
	}
	if other.Covers(d) {
		return d
	}
	return nil
}

// earliest returns the earliest instant the partial date can refer to
func (d *PartialDate) earliest() time.Time {
	month := d.Month
	if month == 0 {
		month = time.January
	}
	day := d.Day
	if day == 0 {
		day = 1
	}
	return time.Date(d.Year, month, day, 0, 0, 0, 0, time.UTC)
}

// Before orders partial dates by their earliest possible instant, with more
// specific dates first on equal instants so ordering stays deterministic
func (d *PartialDate) Before(other *PartialDate) bool {
	de, oe := d.earliest(), other.earliest()
	if !de.Equal(oe) {
		return de.Before(oe)
	}
	return d.Granularity() > other.Granularity()
}

// ParsePartialDate parses the ISO 8601 form produced by String, truncated to
// any granularity ("2023", "2023-01", "2023-01-12")
func ParsePartialDate(s string) (*PartialDate, error) {
	var year, day int
	var month time.Month
	var err error
	switch len(s) {
	case 4:
		_, err = fmt.Sscanf(s, "%04d", &year)
	case 7:
		_, err = fmt.Sscanf(s, "%04d-%02d", &year, &month)
	case 10:
		_, err = fmt.Sscanf(s, "%04d-%02d-%02d", &year, &month, &day)
	default:
		return nil, fmt.Errorf("invalid partial date %q", s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid partial date %q: %w", s, err)
	}
	return NewPartialDate(year, month, day)
}

// String formats the date as ISO 8601 truncated to its granularity
func (d *PartialDate) String() string {
	switch d.Granularity() {
	case GranularityDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case GranularityMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}
