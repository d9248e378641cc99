package syntax

import (
	"regexp"
	"strconv"
	"time"

	"github.com/teranos/sqb/errors"
)

// timeNow is a variable that can be mocked for testing
var timeNow = time.Now

// dateLayouts defines the accepted ISO-8601 forms
// Ordered from most specific to least specific
var dateLayouts = []string{
	time.RFC3339Nano,      // "2006-01-02T15:04:05.999999999Z07:00"
	time.RFC3339,          // "2006-01-02T15:04:05Z07:00"
	"2006-01-02T15:04:05", // "2025-01-15T14:30:00"
	"2006-01-02T15:04",    // "2025-01-15T14:30"
	"2006-01-02",          // "2025-01-15"
}

// relativeDatePattern matches shorthand such as -7d or +1h
var relativeDatePattern = regexp.MustCompile(`^([-+])(\d+)([smhdw])$`)

var relativeUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

var durationUnits = map[string]time.Duration{
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
}

// IsDate reports whether s is an ISO-8601 date/time or relative shorthand
func IsDate(s string) bool {
	if relativeDatePattern.MatchString(s) {
		return true
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// ResolveDate turns a date value into an absolute time. Relative shorthand is
// resolved against the current time: -7d is seven days ago.
func ResolveDate(s string) (time.Time, error) {
	if m := relativeDatePattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid relative date %q", s)
		}
		offset := time.Duration(n) * relativeUnits[m[3]]
		if m[1] == "-" {
			offset = -offset
		}
		return timeNow().Add(offset), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.WithHint(
		errors.Newf("unable to parse date %q", s),
		"use an ISO-8601 date such as 2025-01-15 or a relative offset such as -7d",
	)
}

// ResolveDuration converts a duration value (250ms, 1.5h, 2w) into a time.Duration
func ResolveDuration(s string) (time.Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, errors.WithHint(
			errors.Newf("unable to parse duration %q", s),
			"use a number followed by ms, s, m, h, d or w",
		)
	}
	num := s[:len(s)-len(m[2])]
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", s)
	}
	return time.Duration(f * float64(durationUnits[m[2]])), nil
}
