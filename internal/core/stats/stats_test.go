package stats

import (
	"testing"

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

func decs(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, dec(v))
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		numbers []decimal.Decimal
		count   int64
		total   string
		mean    string
		median  string
		min     string
		max     string
	}{
		{
			name:    "single value",
			numbers: decs("5"),
			count:   1, total: "5", mean: "5", median: "5", min: "5", max: "5",
		},
		{
			name:    "even count averages middle pair",
			numbers: decs("3", "-2"),
			count:   2, total: "1", mean: "0.5", median: "0.5", min: "-2", max: "3",
		},
		{
			name:    "odd count takes middle",
			numbers: decs("10", "1", "4"),
			count:   3, total: "15", mean: "5", median: "4", min: "1", max: "10",
		},
		{
			name:    "duplicates",
			numbers: decs("2", "2", "2", "2"),
			count:   4, total: "8", mean: "2", median: "2", min: "2", max: "2",
		},
		{
			name:    "all negative",
			numbers: decs("-1", "-5", "-3"),
			count:   3, total: "-9", mean: "-3", median: "-3", min: "-5", max: "-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := Summarize(tc.numbers)
			require.Equal(t, tc.count, st.Count)
			require.True(t, dec(tc.total).Equal(st.Total), "total: got %s", st.Total)
			require.True(t, st.Mean.Valid)
			require.True(t, dec(tc.mean).Equal(st.Mean.Decimal), "mean: got %s", st.Mean.Decimal)
			require.True(t, st.Median.Valid)
			require.True(t, dec(tc.median).Equal(st.Median.Decimal), "median: got %s", st.Median.Decimal)
			require.True(t, dec(tc.min).Equal(st.Min.Decimal))
			require.True(t, dec(tc.max).Equal(st.Max.Decimal))
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(nil)
	require.Equal(t, int64(0), st.Count)
	require.True(t, st.Total.IsZero())
	require.False(t, st.Mean.Valid)
	require.False(t, st.Median.Valid)
	require.False(t, st.Min.Valid)
	require.False(t, st.Max.Valid)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	numbers := decs("3", "1", "2")
	Summarize(numbers)
	require.True(t, dec("3").Equal(numbers[0]))
	require.True(t, dec("1").Equal(numbers[1]))
	require.True(t, dec("2").Equal(numbers[2]))
}

func TestDelta(t *testing.T) {
	cur := Summarize(decs("4", "6"))
	prior := Summarize(decs("1", "3"))

	d := cur.Delta(&prior)
	require.Equal(t, int64(0), d.Count)
	require.True(t, dec("6").Equal(d.Total))
	require.True(t, dec("3").Equal(d.Mean.Decimal))
	require.True(t, dec("3").Equal(d.Median.Decimal))
	require.True(t, dec("3").Equal(d.Min.Decimal))
	require.True(t, dec("3").Equal(d.Max.Decimal))
}

func TestDelta_NilPriorIsZeroBaseline(t *testing.T) {
	cur := Summarize(decs("4", "6"))
	d := cur.Delta(nil)
	require.True(t, cur.Equal(d))
}

func TestDelta_EmptyCurrentStaysNull(t *testing.T) {
	cur := Summarize(nil)
	prior := Summarize(decs("5"))
	d := cur.Delta(&prior)
	require.Equal(t, int64(-1), d.Count)
	require.True(t, dec("-5").Equal(d.Total))
	require.False(t, d.Mean.Valid)
	require.False(t, d.Median.Valid)
}

func TestPercents(t *testing.T) {
	cur := Summarize(decs("4"))
	prior := Summarize(decs("2"))

	p := cur.Percents(&prior)
	// delta total = 2, prior total = 2 -> 100% as ratio 1
	require.True(t, dec("1").Equal(p[FieldTotal]), "total percent: got %s", p[FieldTotal])
	require.True(t, dec("0").Equal(p[FieldCount]))
	require.True(t, dec("1").Equal(p[FieldMean]))
}

func TestPercents_NegativePriorUsesAbs(t *testing.T) {
	cur := Summarize(decs("-1"))
	prior := Summarize(decs("-2"))

	p := cur.Percents(&prior)
	// delta total = 1, abs(prior total) = 2
	require.True(t, dec("0.5").Equal(p[FieldTotal]))
}

func TestPercents_ZeroPriorOmitted(t *testing.T) {
	cur := Summarize(decs("5"))
	prior := Summarize(decs("0"))

	p := cur.Percents(&prior)
	_, hasTotal := p[FieldTotal]
	require.False(t, hasTotal, "zero prior must not produce a percent entry")
	_, hasMean := p[FieldMean]
	require.False(t, hasMean)
	// count went 1 -> 1, prior count is non-zero
	require.True(t, dec("0").Equal(p[FieldCount]))
}

func TestPercents_NilPrior(t *testing.T) {
	cur := Summarize(decs("5"))
	require.Nil(t, cur.Percents(nil))
}

func TestMedianOfSorted(t *testing.T) {
	require.True(t, dec("2").Equal(MedianOfSorted(decs("1", "2", "3"))))
	require.True(t, dec("2.5").Equal(MedianOfSorted(decs("1", "2", "3", "4"))))
	require.True(t, dec("7").Equal(MedianOfSorted(decs("7"))))
}

func TestEqual(t *testing.T) {
	a := Summarize(decs("1", "2"))
	b := Summarize(decs("2", "1"))
	require.True(t, a.Equal(b))

	c := Summarize(decs("1", "3"))
	require.False(t, a.Equal(c))

	empty := Summarize(nil)
	require.False(t, a.Equal(empty))
	require.True(t, empty.Equal(Summarize(nil)))
}

func TestValidField(t *testing.T) {
	for _, f := range Fields {
		require.True(t, ValidField(f))
	}
	require.False(t, ValidField("stddev"))
	require.False(t, ValidField(""))
}
