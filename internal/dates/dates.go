// Package dates normalizes the date formats the upstream sites publish into
// one canonical, sortable calendar date. All parsing happens in the school's
// timezone so results do not depend on the server locale.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Canonical is the layout every source format is normalized into.
const Canonical = "01/02/2006"

// SchoolZone is the IANA timezone all dates are anchored to.
const SchoolZone = "America/Chicago"

// ErrUnrecognizedDate is returned when a raw value matches none of the known
// source formats. Callers must treat it as a per-record failure; defaulting
// to "now" silently misdates the record.
var ErrUnrecognizedDate = errors.New("unrecognized date format")

var location = mustLoadLocation()

func mustLoadLocation() *time.Location {
	loc, err := time.LoadLocation(SchoolZone)
	if err != nil {
		// cmd/bulletind imports time/tzdata, so this only trips on a
		// corrupted embedded database.
		panic(fmt.Sprintf("dates: load %s: %v", SchoolZone, err))
	}
	return loc
}

// Location returns the school timezone.
func Location() *time.Location {
	return location
}

// dateLayouts are tried in order by Normalize. The day and month verbs accept
// both padded and unpadded digits, so "1/2/2026" and "01/02/2026" both match
// the first layout.
var dateLayouts = []string{
	"1/2/2006",   // canonical and the calendar grid form
	"Jan 2 2006", // athletics schedule headings ("Aug 22 2025")
}

// Normalize parses a raw date carrying an explicit year and returns it as
// midnight in the school timezone.
func Normalize(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date: %w", ErrUnrecognizedDate)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, location); err == nil {
			return midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q: %w", raw, ErrUnrecognizedDate)
}

// NormalizeWithYear parses raw dates that may omit the year, supplying it
// from ref (the record's creation timestamp). The yearless form is the
// athletics weekday heading, "Sat, Sep 6"; a trailing "- ..." segment marks a
// multi-day range and only the start matters.
func NormalizeWithYear(raw string, ref time.Time) (time.Time, error) {
	if t, err := Normalize(raw); err == nil {
		return t, nil
	}

	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "-"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	// Drop the weekday prefix instead of parsing it: the printed weekday
	// belongs to the real year, which the layout does not know yet.
	if i := strings.Index(s, ","); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	t, err := time.ParseInLocation("Jan 2", s, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q: %w", raw, ErrUnrecognizedDate)
	}
	return time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location), nil
}

var ordinalRe = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)\b`)

// stamp layouts are tried after ordinal suffixes and the zone token are
// stripped. Month and weekday names match case-insensitively.
var stampLayouts = []string{
	"January 2 2006 3:04 PM",
	"January 2 3:04 PM",
	"Jan 2 2006 3:04 PM",
	"Jan 2 3:04 PM",
}

// NormalizeStamp parses full date-time strings such as
// "FRIDAY, AUGUST 22ND 6:00 PM CDT": ordinal day suffixes are stripped, the
// trailing zone abbreviation is dropped, and the result is anchored in the
// school timezone. ref supplies the year when the stamp omits one.
func NormalizeStamp(raw string, ref time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty stamp: %w", ErrUnrecognizedDate)
	}
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",", " ")

	fields := strings.Fields(s)
	// Trailing zone abbreviation (CDT, CST, ...) is informational only; the
	// school zone is authoritative.
	if n := len(fields); n > 0 && isZoneToken(fields[n-1]) {
		fields = fields[:n-1]
	}
	// A leading weekday token is likewise dropped before matching.
	if len(fields) > 0 && isWeekdayToken(fields[0]) {
		fields = fields[1:]
	}
	s = strings.Join(fields, " ")

	for _, layout := range stampLayouts {
		t, err := time.ParseInLocation(layout, s, location)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			t = time.Date(ref.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, location)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q: %w", raw, ErrUnrecognizedDate)
}

// Format renders a normalized time back into the canonical MM/DD/YYYY form.
func Format(t time.Time) string {
	return t.In(location).Format(Canonical)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}

func isZoneToken(s string) bool {
	u := strings.ToUpper(s)
	if u == "AM" || u == "PM" {
		return false
	}
	if len(u) < 2 || len(u) > 4 {
		return false
	}
	for _, r := range u {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isWeekdayToken(s string) bool {
	switch strings.ToUpper(strings.TrimSuffix(s, ",")) {
	case "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY",
		"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN":
		return true
	}
	return false
}
