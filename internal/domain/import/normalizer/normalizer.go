// Package normalizer handles regional money and date parsing.
// Converts the values found in platform exports into the canonical reservation representation.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	ErrInvalidAmount = errors.New("invalid amount format")
	ErrInvalidDate   = errors.New("invalid date format")
)

// ParseAmount converts a money string to a float.
// Currency symbols and codes are stripped. When both separators appear the last one is the
// decimal separator; a lone comma is a decimal comma; repeated separators are thousands grouping.
func ParseAmount(raw string) (float64, error) {
	// Clean the string: keep digits, comma, period, and minus
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)

	if cleaned == "" || strings.Trim(cleaned, ",.-") == "" {
		return 0, ErrInvalidAmount
	}

	// only a leading sign is accepted; "12-34" is not an amount
	isNegative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	if strings.Contains(cleaned, "-") {
		return 0, ErrInvalidAmount
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// European: 1.234,56 -> 1234.56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// American: 1,234.56 -> 1234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(cleaned, ".") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	if isNegative {
		val = -val
	}
	return val, nil
}

// ParseCurrency is ParseAmount with failures degraded to zero
func ParseCurrency(raw string) float64 {
	val, err := ParseAmount(raw)
	if err != nil {
		return 0
	}
	return val
}

// ParseCount reads an integer occupancy or night count, zero when absent or malformed
func ParseCount(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// DateOrder is the day/month ordering of a slash-separated source date
type DateOrder int

const (
	DayMonthYear DateOrder = iota // DD/MM/YYYY
	MonthDayYear                  // MM/DD/YYYY
)

// ReformatDate rewrites a slash date as YYYY-MM-DD with zero-padded month and day.
// Anything that does not split into exactly three parts is returned unchanged.
func ReformatDate(raw string, order DateOrder) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return raw
	}

	day, month := parts[0], parts[1]
	if order == MonthDayYear {
		day, month = parts[1], parts[0]
	}

	return fmt.Sprintf("%s-%s-%s", strings.TrimSpace(parts[2]), padTwo(month), padTwo(day))
}

// ReformatDateTime keeps only the date portion before the first space, then reformats it
func ReformatDateTime(raw string, order DateOrder) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	return ReformatDate(raw, order)
}

func padTwo(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// Common date formats found in exports and extraction output
var dateFormats = []string{
	// ISO (YYYY-MM-DD)
	"2006-01-02",
	"2006/01/02",

	// European (DD-MM-YYYY variants)
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",

	// With time
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006 15:04",
}

// ParseFlexibleDate attempts to parse a date using multiple formats
func ParseFlexibleDate(raw string, preferredFormat string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}

	if loc == nil {
		loc = time.UTC
	}

	// Try preferred format first
	if preferredFormat != "" {
		goFormat := convertDateFormat(preferredFormat)
		if t, err := time.ParseInLocation(goFormat, raw, loc); err == nil {
			return t, nil
		}
	}

	// Try all known formats
	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, raw, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, ErrInvalidDate
}

// convertDateFormat converts user-friendly format strings to Go format
// e.g., "DD-MM-YYYY" -> "02-01-2006"
func convertDateFormat(format string) string {
	return strings.NewReplacer(
		"YYYY", "2006",
		"YY", "06",
		"MM", "01",
		"DD", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	).Replace(format)
}

var spacePattern = regexp.MustCompile(`\s+`)

// CleanText trims and collapses internal whitespace in free-text values such as guest names
func CleanText(raw string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(raw), " ")
}
