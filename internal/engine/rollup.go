package engine

import (
	"sort"

	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/stats"
)

// boundary describes how much of a level must be recomputed this cycle.
type boundary struct {
	none bool   // nothing changed; every cached aggregate is reusable
	all  bool   // change could not be localized; rebuild the whole level
	key  string // otherwise: the earliest affected key at this level
}

// boundaryFor converts the earliest changed day key to a level boundary.
// A malformed changed key cannot be localized to a container, so the whole
// level is rebuilt rather than risking a stale aggregate.
func boundaryFor(earliestDayKey string, hasChange bool, target period.Granularity) boundary {
	if !hasChange {
		return boundary{none: true}
	}
	key, err := period.ConvertKey(earliestDayKey, target)
	if err != nil {
		return boundary{all: true}
	}
	return boundary{key: key}
}

// groupChildren buckets sorted child aggregates by their coarser key.
// Keys come out in first-seen order, which is chronological because the
// children are sorted and every container covers a contiguous day range.
// Children whose key cannot be converted are excluded from this level —
// a best-effort partial view beats a total failure.
func groupChildren(
	children []*period.Aggregate,
	keyOf func(string) (string, error),
) ([]string, map[string][]*period.Aggregate) {
	var keys []string
	buckets := make(map[string][]*period.Aggregate)
	for _, c := range children {
		k, err := keyOf(c.DateKey)
		if err != nil {
			continue
		}
		if _, seen := buckets[k]; !seen {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], c)
	}
	return keys, buckets
}

// rollupLevel builds one granularity level from its child aggregates.
//
// Aggregates strictly before the recompute boundary are reused from the
// cache by key, preserving object identity. From the boundary onward each
// bucket's child numbers are flattened and re-derived, chained against the
// preceding aggregate at this same level (from the array being built, not
// the cache). Extremes for recomputed buckets are checked against the
// cached object for the same key so unchanged extremes keep their identity.
func rollupLevel(
	children []*period.Aggregate,
	gran period.Granularity,
	keyOf func(string) (string, error),
	b boundary,
	cachedKeys []string,
	cached []*period.Aggregate,
) ([]string, []*period.Aggregate) {
	keys, buckets := groupChildren(children, keyOf)

	cutoff := len(keys)
	switch {
	case b.all:
		cutoff = 0
	case !b.none:
		cutoff = sort.SearchStrings(keys, b.key)
	}

	cachedByKey := make(map[string]*period.Aggregate, len(cachedKeys))
	for i, k := range cachedKeys {
		cachedByKey[k] = cached[i]
	}

	out := make([]*period.Aggregate, 0, len(keys))
	for len(out) < cutoff {
		agg, ok := cachedByKey[keys[len(out)]]
		if !ok {
			// Missing cache entry before the boundary should be impossible
			// by construction; recompute from here as a fallback.
			break
		}
		out = append(out, agg)
	}

	prefix := period.SeedPrefix(numbersOf(out)...)
	for i := len(out); i < len(keys); i++ {
		bucket := buckets[keys[i]]
		numbers := flatten(bucket)

		var priorStats, priorCum *stats.NumberStats
		if i > 0 {
			p := out[i-1]
			priorStats, priorCum = &p.Stats, &p.Cumulatives
		}
		d := period.Derive(numbers, priorStats, priorCum, prefix)

		var prevExtremes *period.Extremes
		if prev, ok := cachedByKey[keys[i]]; ok {
			prevExtremes = prev.Extremes
		}

		out = append(out, &period.Aggregate{
			DateKey:            keys[i],
			Period:             gran,
			Numbers:            numbers,
			Stats:              d.Stats,
			Deltas:             d.Deltas,
			Percents:           d.Percents,
			Cumulatives:        d.Cumulatives,
			CumulativeDeltas:   d.CumulativeDeltas,
			CumulativePercents: d.CumulativePercents,
			Extremes:           period.ComputeExtremes(statsOf(bucket), prevExtremes),
		})
	}
	return keys, out
}

// buildAllTime computes the single unbounded aggregate over every year.
// It has no siblings: deltas equal stats and cumulatives equal stats by the
// zero-baseline convention. Its extremes cover the year aggregates.
func buildAllTime(years []*period.Aggregate, prev *period.Aggregate) *period.Aggregate {
	numbers := flatten(years)
	d := period.Derive(numbers, nil, nil, period.SeedPrefix())

	var prevExtremes *period.Extremes
	if prev != nil {
		prevExtremes = prev.Extremes
	}

	return &period.Aggregate{
		Period:             period.Anytime,
		Numbers:            numbers,
		Stats:              d.Stats,
		Deltas:             d.Deltas,
		Percents:           d.Percents,
		Cumulatives:        d.Cumulatives,
		CumulativeDeltas:   d.CumulativeDeltas,
		CumulativePercents: d.CumulativePercents,
		Extremes:           period.ComputeExtremes(statsOf(years), prevExtremes),
	}
}
