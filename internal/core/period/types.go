// Package period models one aggregation period at any granularity — a day,
// an ISO week, a month, a year, or the single unbounded all-time span — and
// the derivation chain (stats, deltas, percents, cumulatives) that threads
// sibling periods together in chronological order.
package period

import (
	"math"

	"github.com/numcal-lab/numcal/internal/core/stats"
	"github.com/shopspring/decimal"
)

// Granularity is one of the five nested aggregation levels.
type Granularity string

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Year    Granularity = "year"
	Anytime Granularity = "anytime"
)

// Granularities lists the keyed levels, finest first. Anytime is excluded:
// it is a singleton with no key and no siblings.
var Granularities = []Granularity{Day, Week, Month, Year}

// ValidGranularity reports whether g names a known granularity, including Anytime.
func ValidGranularity(g Granularity) bool {
	switch g {
	case Day, Week, Month, Year, Anytime:
		return true
	}
	return false
}

// DayRecord is one day of the caller's log: a date key plus that day's
// numbers in entry order. The engine only reads records; it never mutates
// the numbers slice.
type DayRecord struct {
	DateKey string            `json:"date_key"`
	Numbers []decimal.Decimal `json:"numbers"`
}

// Aggregate is the full derived result for one period.
//
// Numbers is the chronological flattening of the period's children
// (the record's own numbers for a day; the concatenated child numbers
// for a container). Deltas/Percents compare against the immediately
// preceding sibling; Cumulatives summarize the entire history prefix
// ending at this period, with CumulativeDeltas/CumulativePercents
// comparing cumulative snapshots the same way.
//
// Extremes is present only on container periods (week, month, year,
// anytime) that have at least one child.
type Aggregate struct {
	DateKey            string                             `json:"date_key,omitempty"` // empty for the all-time aggregate
	Period             Granularity                        `json:"period"`
	Numbers            []decimal.Decimal                  `json:"numbers"`
	Stats              stats.NumberStats                  `json:"stats"`
	Deltas             stats.NumberStats                  `json:"deltas"`
	Percents           map[stats.Field]decimal.Decimal    `json:"percents,omitempty"`
	Cumulatives        stats.NumberStats                  `json:"cumulatives"`
	CumulativeDeltas   stats.NumberStats                  `json:"cumulative_deltas"`
	CumulativePercents map[stats.Field]decimal.Decimal    `json:"cumulative_percents,omitempty"`
	Extremes           *Extremes                          `json:"extremes,omitempty"`
}

// NumbersFromFloats converts a float slice to decimals, silently dropping
// non-finite values (NaN, ±Inf). This is the single sanitization point for
// float inputs: decimals cannot represent non-finite values, so everything
// past this boundary is finite by construction.
func NumbersFromFloats(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, decimal.NewFromFloat(v))
	}
	return out
}
