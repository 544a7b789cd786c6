package period

import (
	"fmt"
	"time"
)

// Date key formats. All four sort lexicographically in chronological order,
// which the engine relies on when locating recompute boundaries with a
// plain string binary search.
//
//	day   2024-01-02
//	week  2024-W01   (ISO 8601 week; the week year may differ from the calendar year)
//	month 2024-01
//	year  2024
const dayKeyLayout = "2006-01-02"

// ParseDayKey parses a day key strictly. Out-of-range dates ("2024-02-30")
// and non-padded forms are rejected.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.Parse(dayKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// DayKey formats t as a day key in its own location.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// ConvertKey maps a day key to its containing key at the target granularity.
// Day maps to itself. Converting to Anytime is not meaningful (the all-time
// span has no key) and returns an error, as does a malformed day key.
func ConvertKey(dayKey string, target Granularity) (string, error) {
	t, err := ParseDayKey(dayKey)
	if err != nil {
		return "", err
	}
	switch target {
	case Day:
		return dayKey, nil
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case Month:
		return dayKey[:7], nil
	case Year:
		return dayKey[:4], nil
	}
	return "", fmt.Errorf("cannot convert day key to granularity %q", target)
}

// YearKeyOfMonth maps a month key ("2024-01") to its year key ("2024").
func YearKeyOfMonth(monthKey string) (string, error) {
	if len(monthKey) != 7 || monthKey[4] != '-' {
		return "", fmt.Errorf("invalid month key %q", monthKey)
	}
	return monthKey[:4], nil
}
