package syntax

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	numberPattern     = regexp.MustCompile(`^[-+]?\d+(\.\d+)?(?i:k|m|b|kb|kib|mb|mib|gb|gib|tb|tib|bits?|bytes?)?$`)
	percentagePattern = regexp.MustCompile(`^[-+]?\d+(\.\d+)?%?$`)
	durationPattern   = regexp.MustCompile(`^[-+]?\d+(\.\d+)?(ms|s|m|h|d|w)$`)
)

// IsNumber reports whether s is a number with an optional size or magnitude unit (10, 1.5k, 2mb)
func IsNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// IsPercentage reports whether s is a number with an optional trailing %
func IsPercentage(s string) bool {
	return percentagePattern.MatchString(s)
}

// IsDuration reports whether s is a number followed by one of ms, s, m, h, d, w
func IsDuration(s string) bool {
	return durationPattern.MatchString(s)
}

// IsBoolean reports whether s is true, false, 1 or 0 in any case
func IsBoolean(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "1", "0":
		return true
	}
	return false
}

// IsVersion reports whether s is a strict semantic version or "latest"
func IsVersion(s string) bool {
	if s == "latest" {
		return true
	}
	_, err := semver.StrictNewVersion(s)
	return err == nil
}

// splitList splits the inside of a [a,b,c] value on commas outside quotes.
// Elements are unquoted; empty elements are kept so callers can reject them.
func splitList(inner string) []string {
	var parts []string
	start := 0
	inQuote := false
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '\\':
			if inQuote {
				i++
			}
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				parts = append(parts, Unquote(inner[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, Unquote(inner[start:]))
}

// isListValue reports whether an unquoted value is written as [ ... ]
func isListValue(raw string) bool {
	return len(raw) >= 2 && raw[0] == '[' && raw[len(raw)-1] == ']'
}
