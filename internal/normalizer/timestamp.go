package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// localized matches the "DD-MM-YYYY HH:MM AM/PM" form some producers emit.
var localized = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})\s+(\d{1,2}):(\d{2})\s*([AaPp][Mm])$`)

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseLocalized reads the day-month-year 12-hour form in loc.
func parseLocalized(s string, loc *time.Location) (time.Time, bool) {
	m := localized.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	if day < 1 || day > 31 || month < 1 || month > 12 || hour < 1 || hour > 12 || minute > 59 {
		return time.Time{}, false
	}

	pm := strings.EqualFold(m[6], "pm")
	switch {
	case pm && hour != 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if t.Day() != day {
		// time.Date normalized an impossible date such as 31-02.
		return time.Time{}, false
	}
	return t, true
}

// parseAbsolute accepts ISO-8601 variants. Date-only values are UTC and
// date-times without a zone are read in loc.
func parseAbsolute(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func (n *Normalizer) parseTimestamp(v any, ok bool) time.Time {
	if !ok {
		return n.now()
	}
	switch x := v.(type) {
	case float64:
		return time.UnixMilli(int64(x)).In(n.loc)
	case int64:
		return time.UnixMilli(x).In(n.loc)
	case int:
		return time.UnixMilli(int64(x)).In(n.loc)
	}

	s := stringify(v)
	if t, ok := parseLocalized(s, n.loc); ok {
		return t
	}
	if t, ok := parseAbsolute(s, n.loc); ok {
		return t
	}
	return n.now()
}
