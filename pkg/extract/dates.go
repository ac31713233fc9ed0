package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// dateKey orders extracted date strings chronologically without requiring a
// full parse. Unknown dates sort first.
type dateKey struct {
	year  int
	month int
	day   int
}

func (d dateKey) before(other dateKey) bool {
	if d.year != other.year {
		return d.year < other.year
	}
	if d.month != other.month {
		return d.month < other.month
	}
	return d.day < other.day
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	monthDayYearRe = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{1,2}),?\s+(\d{4})`)
	dayMonthYearRe = regexp.MustCompile(`(?i)(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})`)
	monthYearRe    = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})`)
	numericDateRe  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	isoDateRe      = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	yearOnlyRe     = regexp.MustCompile(`(\d{4})`)
	monthSlashRe   = regexp.MustCompile(`(\d{1,2})/(\d{4})`)
	yearMonthRe    = regexp.MustCompile(`(\d{4})-(\d{2})`)
)

const unknownYear = 1900

// parseDateKey interprets the date strings the extractors emit. Numeric
// day/month order is ambiguous; when neither component exceeds 12 the string
// is read as DD/MM, the more common order in the reports this handles.
func parseDateKey(dateStr string) dateKey {
	unknown := dateKey{unknownYear, 1, 1}
	if dateStr == UnknownDate || strings.TrimSpace(dateStr) == "" {
		return unknown
	}

	if m := monthDayYearRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[3]), monthNames[strings.ToLower(m[1][:3])], atoi(m[2])}
	}
	if m := dayMonthYearRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[3]), monthNames[strings.ToLower(m[2][:3])], atoi(m[1])}
	}
	if m := monthYearRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[2]), monthNames[strings.ToLower(m[1][:3])], 1}
	}
	if m := numericDateRe.FindStringSubmatch(dateStr); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		switch {
		case first > 12:
			return dateKey{year, second, first}
		case second > 12:
			return dateKey{year, first, second}
		default:
			return dateKey{year, second, first}
		}
	}
	if m := isoDateRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[1]), atoi(m[2]), atoi(m[3])}
	}
	if m := monthSlashRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[2]), atoi(m[1]), 1}
	}
	if m := yearMonthRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[1]), atoi(m[2]), 1}
	}
	if m := yearOnlyRe.FindStringSubmatch(dateStr); m != nil {
		return dateKey{atoi(m[1]), 1, 1}
	}
	return unknown
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
