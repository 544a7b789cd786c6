// Package stats implements the numeric summary primitive shared by every
// aggregation level: count/total/mean/median/min/max over a finite sequence,
// plus field-wise delta and percent-change helpers.
//
// All arithmetic uses shopspring/decimal for exactness. The empty-sequence
// convention is uniform across the codebase: Count=0, Total=0, and
// Mean/Median/Min/Max are invalid NullDecimals (JSON null).
package stats

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Field names a single statistic within a NumberStats.
type Field string

const (
	FieldCount  Field = "count"
	FieldTotal  Field = "total"
	FieldMean   Field = "mean"
	FieldMedian Field = "median"
	FieldMin    Field = "min"
	FieldMax    Field = "max"
)

// Fields lists every statistic field in a stable order.
// Delta, percent, and extremes computations iterate this list.
var Fields = []Field{FieldCount, FieldTotal, FieldMean, FieldMedian, FieldMin, FieldMax}

// ValidField reports whether f names a known statistic.
func ValidField(f Field) bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// NumberStats is the summary of a finite numeric sequence.
// Count and Total are always present; the remaining fields are null
// for the empty sequence.
type NumberStats struct {
	Count  int64               `json:"count"`
	Total  decimal.Decimal     `json:"total"`
	Mean   decimal.NullDecimal `json:"mean"`
	Median decimal.NullDecimal `json:"median"`
	Min    decimal.NullDecimal `json:"min"`
	Max    decimal.NullDecimal `json:"max"`
}

var two = decimal.NewFromInt(2)

// Summarize computes NumberStats over numbers. The input is not mutated;
// the median is taken from a sorted copy. An empty input yields the empty
// convention, never an error.
func Summarize(numbers []decimal.Decimal) NumberStats {
	st := NumberStats{Count: int64(len(numbers)), Total: decimal.Zero}
	if len(numbers) == 0 {
		return st
	}

	sorted := make([]decimal.Decimal, len(numbers))
	copy(sorted, numbers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	total := decimal.Zero
	for _, n := range numbers {
		total = total.Add(n)
	}

	st.Total = total
	st.Mean = valid(total.Div(decimal.NewFromInt(st.Count)))
	st.Median = valid(MedianOfSorted(sorted))
	st.Min = valid(sorted[0])
	st.Max = valid(sorted[len(sorted)-1])
	return st
}

// MedianOfSorted returns the median of a non-empty ascending slice:
// the middle element for odd lengths, the average of the two middle
// elements for even lengths.
func MedianOfSorted(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(two)
}

// Get returns the named field as a NullDecimal. Count and Total are
// always valid; unknown fields return an invalid NullDecimal.
func (s NumberStats) Get(f Field) decimal.NullDecimal {
	switch f {
	case FieldCount:
		return valid(decimal.NewFromInt(s.Count))
	case FieldTotal:
		return valid(s.Total)
	case FieldMean:
		return s.Mean
	case FieldMedian:
		return s.Median
	case FieldMin:
		return s.Min
	case FieldMax:
		return s.Max
	}
	return decimal.NullDecimal{}
}

// Delta returns s minus prior, field-wise. A nil prior is a zero baseline,
// so the first period in a chain has deltas equal to its own stats. Fields
// that are null on s stay null; fields that are null on prior subtract zero.
func (s NumberStats) Delta(prior *NumberStats) NumberStats {
	if prior == nil {
		return s
	}
	return NumberStats{
		Count:  s.Count - prior.Count,
		Total:  s.Total.Sub(prior.Total),
		Mean:   subNull(s.Mean, prior.Mean),
		Median: subNull(s.Median, prior.Median),
		Min:    subNull(s.Min, prior.Min),
		Max:    subNull(s.Max, prior.Max),
	}
}

// Percents returns delta/abs(prior) per field, keyed by field name.
// Fields where the prior value is null or zero are omitted entirely
// rather than reported as zero, so a missing entry means "no signal".
func (s NumberStats) Percents(prior *NumberStats) map[Field]decimal.Decimal {
	if prior == nil {
		return nil
	}
	deltas := s.Delta(prior)
	out := make(map[Field]decimal.Decimal)
	for _, f := range Fields {
		base := prior.Get(f)
		if !base.Valid || base.Decimal.IsZero() {
			continue
		}
		d := deltas.Get(f)
		if !d.Valid {
			continue
		}
		out[f] = d.Decimal.Div(base.Decimal.Abs())
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Equal reports field-wise value equality between two NumberStats.
func (s NumberStats) Equal(other NumberStats) bool {
	return s.Count == other.Count &&
		s.Total.Equal(other.Total) &&
		equalNull(s.Mean, other.Mean) &&
		equalNull(s.Median, other.Median) &&
		equalNull(s.Min, other.Min) &&
		equalNull(s.Max, other.Max)
}

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// subNull subtracts b from a treating a null b as zero. A null a stays null.
func subNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid {
		return decimal.NullDecimal{}
	}
	if !b.Valid {
		return a
	}
	return valid(a.Decimal.Sub(b.Decimal))
}

func equalNull(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return a.Decimal.Equal(b.Decimal)
}
