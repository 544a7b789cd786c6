package engine

import (
	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/stats"
	"github.com/shopspring/decimal"
)

// buildDays turns the sorted log into one day aggregate per record.
// Aggregates before the changed index are reused from the cache by
// reference; from the changed index onward each day is re-derived,
// chained against its predecessor so delta and cumulative fields
// thread correctly through the rebuilt suffix.
func buildDays(snapshot []period.DayRecord, cachedDays []*period.Aggregate, changed int) []*period.Aggregate {
	if changed > len(snapshot) {
		changed = len(snapshot)
	}

	days := make([]*period.Aggregate, 0, len(snapshot))
	days = append(days, cachedDays[:changed]...)

	prefix := period.SeedPrefix(numbersOf(days)...)
	for i := changed; i < len(snapshot); i++ {
		rec := snapshot[i]
		var priorStats, priorCum *stats.NumberStats
		if i > 0 {
			p := days[i-1]
			priorStats, priorCum = &p.Stats, &p.Cumulatives
		}
		d := period.Derive(rec.Numbers, priorStats, priorCum, prefix)
		days = append(days, &period.Aggregate{
			DateKey:            rec.DateKey,
			Period:             period.Day,
			Numbers:            rec.Numbers,
			Stats:              d.Stats,
			Deltas:             d.Deltas,
			Percents:           d.Percents,
			Cumulatives:        d.Cumulatives,
			CumulativeDeltas:   d.CumulativeDeltas,
			CumulativePercents: d.CumulativePercents,
		})
	}
	return days
}

func numbersOf(aggs []*period.Aggregate) [][]decimal.Decimal {
	chunks := make([][]decimal.Decimal, len(aggs))
	for i, a := range aggs {
		chunks[i] = a.Numbers
	}
	return chunks
}

func flatten(aggs []*period.Aggregate) []decimal.Decimal {
	total := 0
	for _, a := range aggs {
		total += len(a.Numbers)
	}
	out := make([]decimal.Decimal, 0, total)
	for _, a := range aggs {
		out = append(out, a.Numbers...)
	}
	return out
}

func statsOf(aggs []*period.Aggregate) []stats.NumberStats {
	out := make([]stats.NumberStats, len(aggs))
	for i, a := range aggs {
		out[i] = a.Stats
	}
	return out
}

func keysOf(aggs []*period.Aggregate) []string {
	out := make([]string, len(aggs))
	for i, a := range aggs {
		out[i] = a.DateKey
	}
	return out
}
