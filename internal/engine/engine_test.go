package engine

import (
	"testing"

	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/stats"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rec(dateKey string, numbers ...string) period.DayRecord {
	out := make([]decimal.Decimal, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, dec(n))
	}
	return period.DayRecord{DateKey: dateKey, Numbers: out}
}

func requireDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func requireNullDec(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "want %s, got null", want)
	requireDec(t, want, got.Decimal)
}

func requireNumbers(t *testing.T, got []decimal.Decimal, want ...string) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		requireDec(t, w, got[i])
	}
}

// requireAggEqual compares two aggregates field by field by value.
func requireAggEqual(t *testing.T, want, got *period.Aggregate) {
	t.Helper()
	require.Equal(t, want.DateKey, got.DateKey)
	require.Equal(t, want.Period, got.Period)
	require.Len(t, got.Numbers, len(want.Numbers))
	for i := range want.Numbers {
		require.True(t, want.Numbers[i].Equal(got.Numbers[i]))
	}
	require.True(t, want.Stats.Equal(got.Stats), "stats differ for %s", want.DateKey)
	require.True(t, want.Deltas.Equal(got.Deltas), "deltas differ for %s", want.DateKey)
	require.True(t, want.Cumulatives.Equal(got.Cumulatives), "cumulatives differ for %s", want.DateKey)
	require.True(t, want.CumulativeDeltas.Equal(got.CumulativeDeltas))
	requirePercentsEqual(t, want.Percents, got.Percents)
	requirePercentsEqual(t, want.CumulativePercents, got.CumulativePercents)
	require.True(t, want.Extremes.Equal(got.Extremes), "extremes differ for %s", want.DateKey)
}

func requirePercentsEqual(t *testing.T, want, got map[stats.Field]decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(want))
	for f, w := range want {
		g, ok := got[f]
		require.True(t, ok, "missing percent field %s", f)
		require.True(t, w.Equal(g), "percent %s: want %s, got %s", f, w, g)
	}
}

func requireResultEqual(t *testing.T, want, got *Result) {
	t.Helper()
	require.Equal(t, want.DayKeys, got.DayKeys)
	require.Equal(t, want.WeekKeys, got.WeekKeys)
	require.Equal(t, want.MonthKeys, got.MonthKeys)
	require.Equal(t, want.YearKeys, got.YearKeys)
	for _, pair := range []struct{ a, b []*period.Aggregate }{
		{want.Days, got.Days}, {want.Weeks, got.Weeks}, {want.Months, got.Months}, {want.Years, got.Years},
	} {
		require.Len(t, pair.b, len(pair.a))
		for i := range pair.a {
			requireAggEqual(t, pair.a[i], pair.b[i])
		}
	}
	requireAggEqual(t, want.AllTime, got.AllTime)
}

func TestRecompute_SingleDay(t *testing.T) {
	res, cache := Recompute([]period.DayRecord{rec("2024-01-01", "5")}, NewCache())
	require.NotNil(t, cache)

	require.Equal(t, []string{"2024-01-01"}, res.DayKeys)
	require.Equal(t, []string{"2024-W01"}, res.WeekKeys)
	require.Equal(t, []string{"2024-01"}, res.MonthKeys)
	require.Equal(t, []string{"2024"}, res.YearKeys)

	day := res.Days[0]
	require.Equal(t, int64(1), day.Stats.Count)
	requireDec(t, "5", day.Stats.Total)
	requireNullDec(t, "5", day.Stats.Mean)
	requireNullDec(t, "5", day.Stats.Median)
	requireNullDec(t, "5", day.Stats.Min)
	requireNullDec(t, "5", day.Stats.Max)
	require.True(t, day.Cumulatives.Equal(day.Stats), "first period cumulatives equal stats")
	require.Nil(t, day.Extremes, "day aggregates carry no extremes")

	require.NotNil(t, res.Weeks[0].Extremes)
	require.NotNil(t, res.AllTime)
	require.Equal(t, period.Anytime, res.AllTime.Period)
	requireDec(t, "5", res.AllTime.Stats.Total)
}

func TestRecompute_AppendReusesPrefix(t *testing.T) {
	day1 := rec("2024-01-01", "5")
	res1, cache := Recompute([]period.DayRecord{day1}, NewCache())

	res2, cache2 := Recompute([]period.DayRecord{day1, rec("2024-01-02", "3", "-2")}, cache)
	require.NotSame(t, cache, cache2)

	// Day 1 is untouched: same object, not merely equal.
	require.Same(t, res1.Days[0], res2.Days[0])

	day2 := res2.Days[1]
	require.Equal(t, int64(2), day2.Stats.Count)
	requireDec(t, "1", day2.Stats.Total)
	requireNullDec(t, "0.5", day2.Stats.Mean)
	requireNullDec(t, "0.5", day2.Stats.Median)
	require.Equal(t, int64(3), day2.Cumulatives.Count)
	requireDec(t, "6", day2.Cumulatives.Total)

	// Both days fall in 2024-W01: one week whose numbers are the
	// chronological flattening of its children.
	require.Equal(t, []string{"2024-W01"}, res2.WeekKeys)
	week := res2.Weeks[0]
	requireNumbers(t, week.Numbers, "5", "3", "-2")
	requireDec(t, "6", week.Stats.Total)
}

func TestRecompute_EditRipplesForward(t *testing.T) {
	log := []period.DayRecord{rec("2024-01-01", "5"), rec("2024-01-02", "3", "-2")}
	res1, cache := Recompute(log, NewCache())

	edited := []period.DayRecord{rec("2024-01-01", "10"), rec("2024-01-02", "3", "-2")}
	res2, _ := Recompute(edited, cache)

	day1 := res2.Days[0]
	require.NotSame(t, res1.Days[0], day1)
	requireDec(t, "10", day1.Stats.Total)

	// Day 2's own numbers did not change, but its deltas and cumulatives
	// depend on day 1, so it must be a recomputed object.
	day2 := res2.Days[1]
	require.NotSame(t, res1.Days[1], day2)
	require.True(t, day2.Stats.Equal(res1.Days[1].Stats), "own stats unchanged")
	requireDec(t, "-9", day2.Deltas.Total)
	requireDec(t, "11", day2.Cumulatives.Total)
}

func TestRecompute_RemoveLastDay(t *testing.T) {
	// Ten days across two ISO weeks of January 2024 (Jan 1 is a Monday:
	// W01 covers 01-07, W02 covers 08-14).
	var log []period.DayRecord
	for _, d := range []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10"} {
		log = append(log, rec("2024-01-"+d, d))
	}
	res1, cache := Recompute(log, NewCache())
	require.Len(t, res1.Days, 10)
	require.Equal(t, []string{"2024-W01", "2024-W02"}, res1.WeekKeys)

	res2, _ := Recompute(log[:9], cache)
	require.Len(t, res2.Days, 9)
	for i := 0; i < 9; i++ {
		require.Same(t, res1.Days[i], res2.Days[i], "day %d must be reused", i)
	}

	// W01 is untouched; W02 re-flattens without the removed day.
	require.Same(t, res1.Weeks[0], res2.Weeks[0])
	require.NotSame(t, res1.Weeks[1], res2.Weeks[1])
	requireNumbers(t, res2.Weeks[1].Numbers, "08", "09")
	require.Equal(t, int64(2), res2.Weeks[1].Stats.Count)

	month := res2.Months[0]
	require.Equal(t, int64(9), month.Stats.Count)
	requireDec(t, "45", month.Stats.Total)
}

func TestRecompute_EmptyLog(t *testing.T) {
	res, cache := Recompute(nil, NewCache())
	require.NotNil(t, cache)
	require.Empty(t, res.Days)
	require.Empty(t, res.Weeks)
	require.Empty(t, res.Months)
	require.Empty(t, res.Years)

	require.NotNil(t, res.AllTime)
	require.Equal(t, int64(0), res.AllTime.Stats.Count)
	require.True(t, res.AllTime.Stats.Total.IsZero())
	require.False(t, res.AllTime.Stats.Mean.Valid)
	require.Nil(t, res.AllTime.Extremes)
}

func TestRecompute_ReferentialStability(t *testing.T) {
	log := []period.DayRecord{
		rec("2024-01-01", "5"),
		rec("2024-01-08", "3"),
		rec("2024-02-01", "7", "1"),
	}
	res1, cache := Recompute(log, NewCache())
	res2, cache2 := Recompute(log, cache)

	require.Same(t, cache, cache2, "unchanged log returns the same cache")
	for i := range res1.Days {
		require.Same(t, res1.Days[i], res2.Days[i])
	}
	for i := range res1.Weeks {
		require.Same(t, res1.Weeks[i], res2.Weeks[i])
	}
	for i := range res1.Months {
		require.Same(t, res1.Months[i], res2.Months[i])
	}
	for i := range res1.Years {
		require.Same(t, res1.Years[i], res2.Years[i])
	}
	require.Same(t, res1.AllTime, res2.AllTime)
}

func TestRecompute_IncrementalEquivalence(t *testing.T) {
	base := []period.DayRecord{
		rec("2023-12-30", "1"),
		rec("2023-12-31", "2", "4"),
		rec("2024-01-01", "5"),
		rec("2024-01-02", "3", "-2"),
		rec("2024-01-15", "8"),
		rec("2024-02-01", "-1", "6"),
		rec("2024-03-10", "9"),
	}

	mutations := []struct {
		name   string
		mutate func([]period.DayRecord) []period.DayRecord
	}{
		{name: "append at tail", mutate: func(l []period.DayRecord) []period.DayRecord {
			return append(append([]period.DayRecord{}, l...), rec("2024-03-11", "4"))
		}},
		{name: "edit middle day", mutate: func(l []period.DayRecord) []period.DayRecord {
			out := append([]period.DayRecord{}, l...)
			out[3] = rec("2024-01-02", "100")
			return out
		}},
		{name: "remove first day", mutate: func(l []period.DayRecord) []period.DayRecord {
			return append([]period.DayRecord{}, l[1:]...)
		}},
		{name: "remove last day", mutate: func(l []period.DayRecord) []period.DayRecord {
			return append([]period.DayRecord{}, l[:len(l)-1]...)
		}},
		{name: "insert between existing days", mutate: func(l []period.DayRecord) []period.DayRecord {
			out := append([]period.DayRecord{}, l...)
			return append(out, rec("2024-01-10", "2.5"))
		}},
		{name: "clear a day's numbers", mutate: func(l []period.DayRecord) []period.DayRecord {
			out := append([]period.DayRecord{}, l...)
			out[2] = rec("2024-01-01")
			return out
		}},
	}

	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			_, warmed := Recompute(base, NewCache())
			mutated := tc.mutate(base)

			incremental, _ := Recompute(mutated, warmed)
			scratch, _ := Recompute(mutated, NewCache())
			requireResultEqual(t, scratch, incremental)
		})
	}
}

func TestRecompute_Determinism(t *testing.T) {
	log := []period.DayRecord{rec("2024-01-01", "5"), rec("2024-01-02", "3")}

	// Warm two different caches with different histories, then feed both
	// the same log: results must be value-equal.
	_, cacheA := Recompute(log[:1], NewCache())
	_, cacheB := Recompute([]period.DayRecord{rec("2023-06-01", "9")}, NewCache())

	resA, _ := Recompute(log, cacheA)
	resB, _ := Recompute(log, cacheB)
	requireResultEqual(t, resA, resB)
}

func TestRecompute_SortsInput(t *testing.T) {
	shuffled := []period.DayRecord{
		rec("2024-01-03", "3"),
		rec("2024-01-01", "1"),
		rec("2024-01-02", "2"),
	}
	res, _ := Recompute(shuffled, NewCache())
	require.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, res.DayKeys)
	requireNumbers(t, res.Weeks[0].Numbers, "1", "2", "3")
}

func TestRecompute_HierarchicalConsistency(t *testing.T) {
	log := []period.DayRecord{
		rec("2024-01-30", "1", "2"),
		rec("2024-01-31", "3"),
		rec("2024-02-01", "4"),
		rec("2024-12-31", "5"),
		rec("2025-01-01", "6"),
	}
	res, _ := Recompute(log, NewCache())

	// Each month's numbers are exactly the concatenation of its days'.
	checkFlattening(t, res.MonthKeys, res.Months, res.Days, func(k string) string {
		out, err := period.ConvertKey(k, period.Month)
		require.NoError(t, err)
		return out
	})
	checkFlattening(t, res.WeekKeys, res.Weeks, res.Days, func(k string) string {
		out, err := period.ConvertKey(k, period.Week)
		require.NoError(t, err)
		return out
	})
	// Years flatten months.
	checkFlattening(t, res.YearKeys, res.Years, res.Months, func(k string) string {
		out, err := period.YearKeyOfMonth(k)
		require.NoError(t, err)
		return out
	})
}

func checkFlattening(
	t *testing.T,
	keys []string,
	containers []*period.Aggregate,
	children []*period.Aggregate,
	keyOf func(string) string,
) {
	t.Helper()
	for i, key := range keys {
		var want []decimal.Decimal
		for _, c := range children {
			if keyOf(c.DateKey) == key {
				want = append(want, c.Numbers...)
			}
		}
		got := containers[i].Numbers
		require.Len(t, got, len(want), "container %s", key)
		for j := range want {
			require.True(t, want[j].Equal(got[j]), "container %s index %d", key, j)
		}
	}
}

func TestRecompute_CumulativeCountRecurrence(t *testing.T) {
	log := []period.DayRecord{
		rec("2024-01-01", "1"),
		rec("2024-01-02"),
		rec("2024-01-09", "2", "3"),
		rec("2024-02-01", "4"),
		rec("2025-03-01", "5", "6", "7"),
	}
	res, _ := Recompute(log, NewCache())

	for _, aggs := range [][]*period.Aggregate{res.Days, res.Weeks, res.Months, res.Years} {
		var prev int64
		for i, a := range aggs {
			require.Equal(t, prev+a.Stats.Count, a.Cumulatives.Count, "index %d", i)
			prev = a.Cumulatives.Count
		}
	}
}

func TestRecompute_ExtremesIdentityAcrossRuns(t *testing.T) {
	log := []period.DayRecord{
		rec("2024-01-01", "5"),
		rec("2024-01-02", "3"),
		rec("2024-02-10", "7"),
	}
	res1, cache := Recompute(log, NewCache())

	// Editing a February day forces the year to recompute, but January's
	// contribution to nothing-changed buckets keeps extremes identity where
	// field values match.
	edited := append([]period.DayRecord{}, log...)
	edited[2] = rec("2024-02-10", "7", "7")
	res2, _ := Recompute(edited, cache)

	require.Same(t, res1.Months[0], res2.Months[0], "January month untouched")
	require.NotSame(t, res1.Months[1], res2.Months[1])
	require.NotSame(t, res1.Years[0], res2.Years[0])
}

func TestRecompute_MalformedKeyExcludedFromRollups(t *testing.T) {
	log := []period.DayRecord{
		rec("2024-01-01", "5"),
		rec("not-a-date", "99"),
	}
	res, _ := Recompute(log, NewCache())

	// The malformed record still yields a day aggregate, but no container
	// includes it.
	require.Len(t, res.Days, 2)
	require.Equal(t, []string{"2024-W01"}, res.WeekKeys)
	require.Equal(t, []string{"2024-01"}, res.MonthKeys)
	requireDec(t, "5", res.Months[0].Stats.Total)
}

func TestRecompute_AlltimeSpansYears(t *testing.T) {
	log := []period.DayRecord{
		rec("2023-06-01", "1"),
		rec("2024-06-01", "2"),
		rec("2025-06-01", "3"),
	}
	res, _ := Recompute(log, NewCache())

	require.Equal(t, []string{"2023", "2024", "2025"}, res.YearKeys)
	requireNumbers(t, res.AllTime.Numbers, "1", "2", "3")
	require.Equal(t, int64(3), res.AllTime.Stats.Count)
	requireDec(t, "6", res.AllTime.Stats.Total)
	require.True(t, res.AllTime.Cumulatives.Equal(res.AllTime.Stats))
	require.NotNil(t, res.AllTime.Extremes)
	requireDec(t, "3", res.AllTime.Extremes.Highest[stats.FieldTotal])
	requireDec(t, "1", res.AllTime.Extremes.Lowest[stats.FieldTotal])
}
