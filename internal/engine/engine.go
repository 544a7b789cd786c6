// Package engine is the incremental rollup engine: it turns a full snapshot
// of per-day records into aggregates at five nested granularities (day, ISO
// week, month, year, all-time), recomputing only the suffix affected by
// whatever changed since the previous call.
//
// Recompute is a pure fold: the caller threads the returned cache into the
// next call. The engine holds no global state and is safe to call from one
// goroutine at a time per cache; concurrent callers must serialize
// externally.
package engine

import (
	"github.com/numcal-lab/numcal/internal/core/period"
)

// Cache is the engine's memory of the previous run: the sorted record
// snapshot, its content digests, and every level's aggregate arrays.
// It holds exactly one prior snapshot. Treat it as opaque; only Recompute
// reads or builds one.
type Cache struct {
	records []period.DayRecord
	digests []uint64

	dayKeys   []string
	days      []*period.Aggregate
	weekKeys  []string
	weeks     []*period.Aggregate
	monthKeys []string
	months    []*period.Aggregate
	yearKeys  []string
	years     []*period.Aggregate
	alltime   *period.Aggregate
}

// NewCache returns an empty initial cache. Recomputing against it builds
// everything from scratch.
func NewCache() *Cache {
	return &Cache{}
}

// Result is the full aggregate set for one log snapshot. Each keys slice is
// index-aligned with its aggregate slice. AllTime is always present, with
// empty-convention stats for an empty log.
type Result struct {
	DayKeys   []string            `json:"day_keys"`
	WeekKeys  []string            `json:"week_keys"`
	MonthKeys []string            `json:"month_keys"`
	YearKeys  []string            `json:"year_keys"`
	Days      []*period.Aggregate `json:"days"`
	Weeks     []*period.Aggregate `json:"weeks"`
	Months    []*period.Aggregate `json:"months"`
	Years     []*period.Aggregate `json:"years"`
	AllTime   *period.Aggregate   `json:"alltime"`
}

// Level returns the keys and aggregates for one granularity, or (nil, nil,
// false) for an unknown granularity. Anytime yields the all-time singleton.
func (r *Result) Level(g period.Granularity) ([]string, []*period.Aggregate, bool) {
	switch g {
	case period.Day:
		return r.DayKeys, r.Days, true
	case period.Week:
		return r.WeekKeys, r.Weeks, true
	case period.Month:
		return r.MonthKeys, r.Months, true
	case period.Year:
		return r.YearKeys, r.Years, true
	case period.Anytime:
		return nil, []*period.Aggregate{r.AllTime}, true
	}
	return nil, nil, false
}

// Recompute produces the aggregate set for records, reusing as much of
// cache as the change allows, and returns the cache for the next call.
//
// Records may arrive in any order; the engine sorts by date key. When
// nothing changed since the cached run, the returned cache is the same
// object that was passed in and every aggregate keeps its identity.
func Recompute(records []period.DayRecord, cache *Cache) (*Result, *Cache) {
	if cache == nil {
		cache = NewCache()
	}

	snapshot := sortRecords(records)
	digests := digestRecords(snapshot)

	changed, hasChange := firstChangedIndex(cache.digests, digests)
	if !hasChange && cache.alltime != nil {
		return resultFrom(cache), cache
	}

	earliestDay, _ := earliestChangedDayKey(cache.records, snapshot, changed)

	days := buildDays(snapshot, cache.days, changed)

	weekKeys, weeks := rollupLevel(
		days, period.Week,
		func(k string) (string, error) { return period.ConvertKey(k, period.Week) },
		boundaryFor(earliestDay, hasChange, period.Week),
		cache.weekKeys, cache.weeks,
	)
	monthKeys, months := rollupLevel(
		days, period.Month,
		func(k string) (string, error) { return period.ConvertKey(k, period.Month) },
		boundaryFor(earliestDay, hasChange, period.Month),
		cache.monthKeys, cache.months,
	)
	yearKeys, years := rollupLevel(
		months, period.Year,
		period.YearKeyOfMonth,
		boundaryFor(earliestDay, hasChange, period.Year),
		cache.yearKeys, cache.years,
	)

	alltime := buildAllTime(years, cache.alltime)

	next := &Cache{
		records:   snapshot,
		digests:   digests,
		dayKeys:   keysOf(days),
		days:      days,
		weekKeys:  weekKeys,
		weeks:     weeks,
		monthKeys: monthKeys,
		months:    months,
		yearKeys:  yearKeys,
		years:     years,
		alltime:   alltime,
	}
	return resultFrom(next), next
}

func resultFrom(c *Cache) *Result {
	return &Result{
		DayKeys:   c.dayKeys,
		WeekKeys:  c.weekKeys,
		MonthKeys: c.monthKeys,
		YearKeys:  c.yearKeys,
		Days:      c.days,
		Weeks:     c.weeks,
		Months:    c.months,
		Years:     c.years,
		AllTime:   c.alltime,
	}
}
