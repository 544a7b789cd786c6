package period

import (
	"sort"

	"github.com/numcal-lab/numcal/internal/core/stats"
	"github.com/shopspring/decimal"
)

// Prefix is the sorted multiset of every number seen earlier in a derivation
// chain. Cumulative mean is exact from the cumulative total and count, but
// the cumulative median is not mergeable from per-period stats — it must be
// taken over the full history prefix, which this structure maintains.
type Prefix struct {
	sorted []decimal.Decimal
}

// SeedPrefix builds a Prefix from the given chunks with a single sort.
// Used when a recompute resumes mid-chain: the chunks are the numbers of
// every period before the recompute boundary.
func SeedPrefix(chunks ...[]decimal.Decimal) *Prefix {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	p := &Prefix{sorted: make([]decimal.Decimal, 0, total)}
	for _, c := range chunks {
		p.sorted = append(p.sorted, c...)
	}
	sort.Slice(p.sorted, func(i, j int) bool { return p.sorted[i].LessThan(p.sorted[j]) })
	return p
}

// Extend inserts each number at its sorted position. Periods typically carry
// a handful of numbers, so per-value insertion beats a full re-sort here.
func (p *Prefix) Extend(numbers []decimal.Decimal) {
	for _, v := range numbers {
		i := sort.Search(len(p.sorted), func(i int) bool { return !p.sorted[i].LessThan(v) })
		p.sorted = append(p.sorted, decimal.Decimal{})
		copy(p.sorted[i+1:], p.sorted[i:])
		p.sorted[i] = v
	}
}

// Len returns the number of values accumulated so far.
func (p *Prefix) Len() int {
	return len(p.sorted)
}

// Median returns the median of the accumulated multiset, or an invalid
// NullDecimal when it is empty.
func (p *Prefix) Median() decimal.NullDecimal {
	if len(p.sorted) == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: stats.MedianOfSorted(p.sorted), Valid: true}
}

// Derived is the output of one step of the derivation chain.
type Derived struct {
	Stats              stats.NumberStats
	Deltas             stats.NumberStats
	Percents           map[stats.Field]decimal.Decimal
	Cumulatives        stats.NumberStats
	CumulativeDeltas   stats.NumberStats
	CumulativePercents map[stats.Field]decimal.Decimal
}

// Derive computes one period's derived statistics chained against the
// immediately preceding sibling at the same granularity.
//
// priorStats/priorCumulatives come from that sibling and are nil for the
// first period in a chain, in which case deltas equal stats (zero baseline)
// and no percents are produced.
//
// prefix must hold exactly the numbers of every earlier period in the chain;
// Derive extends it in place with this period's numbers, so a caller walking
// a chain threads one Prefix through every step.
func Derive(
	numbers []decimal.Decimal,
	priorStats *stats.NumberStats,
	priorCumulatives *stats.NumberStats,
	prefix *Prefix,
) Derived {
	st := stats.Summarize(numbers)
	prefix.Extend(numbers)

	cum := accumulate(st, priorCumulatives, prefix)

	return Derived{
		Stats:              st,
		Deltas:             st.Delta(priorStats),
		Percents:           st.Percents(priorStats),
		Cumulatives:        cum,
		CumulativeDeltas:   cum.Delta(priorCumulatives),
		CumulativePercents: cum.Percents(priorCumulatives),
	}
}

// accumulate folds this period's stats into the prior cumulative snapshot.
// Count and total add; min and max take the running extreme; mean is exact
// from the cumulative total and count; the median comes from the full prefix.
func accumulate(st stats.NumberStats, prior *stats.NumberStats, prefix *Prefix) stats.NumberStats {
	cum := stats.NumberStats{Count: st.Count, Total: st.Total, Min: st.Min, Max: st.Max}
	if prior != nil {
		cum.Count += prior.Count
		cum.Total = cum.Total.Add(prior.Total)
		cum.Min = runningExtreme(prior.Min, st.Min, true)
		cum.Max = runningExtreme(prior.Max, st.Max, false)
	}
	if cum.Count > 0 {
		cum.Mean = decimal.NullDecimal{
			Decimal: cum.Total.Div(decimal.NewFromInt(cum.Count)),
			Valid:   true,
		}
	}
	cum.Median = prefix.Median()
	return cum
}

// runningExtreme combines two nullable values, keeping the lower (takeMin)
// or higher of the two. A null side yields the other side unchanged.
func runningExtreme(a, b decimal.NullDecimal, takeMin bool) decimal.NullDecimal {
	if !a.Valid {
		return b
	}
	if !b.Valid {
		return a
	}
	if takeMin == b.Decimal.LessThan(a.Decimal) {
		return b
	}
	return a
}
