package period

import (
	"github.com/numcal-lab/numcal/internal/core/stats"
	"github.com/shopspring/decimal"
)

// Extremes records, for each statistic field, the highest and lowest value
// of that field observed among a container's direct children. Fields that
// are null on every child (mean of an all-empty week, say) are omitted.
type Extremes struct {
	Highest map[stats.Field]decimal.Decimal `json:"highest"`
	Lowest  map[stats.Field]decimal.Decimal `json:"lowest"`
}

// ComputeExtremes scans the direct children's stats and returns their
// per-field extremes. An empty child list yields nil — a container with no
// children carries no extremes at all rather than nonsense values.
//
// When the result is value-equal to prev, prev itself is returned instead
// of the fresh allocation. Downstream consumers memoize on object identity,
// and an unchanged extremes object must not invalidate them.
func ComputeExtremes(children []stats.NumberStats, prev *Extremes) *Extremes {
	if len(children) == 0 {
		return nil
	}

	next := &Extremes{
		Highest: make(map[stats.Field]decimal.Decimal),
		Lowest:  make(map[stats.Field]decimal.Decimal),
	}
	for _, f := range stats.Fields {
		var high, low decimal.Decimal
		seen := false
		for _, child := range children {
			v := child.Get(f)
			if !v.Valid {
				continue
			}
			if !seen {
				high, low = v.Decimal, v.Decimal
				seen = true
				continue
			}
			if v.Decimal.GreaterThan(high) {
				high = v.Decimal
			}
			if v.Decimal.LessThan(low) {
				low = v.Decimal
			}
		}
		if seen {
			next.Highest[f] = high
			next.Lowest[f] = low
		}
	}

	if next.Equal(prev) {
		return prev
	}
	return next
}

// Equal reports field-wise value equality between two extremes objects.
func (e *Extremes) Equal(other *Extremes) bool {
	if e == nil || other == nil {
		return e == other
	}
	return equalFieldMap(e.Highest, other.Highest) && equalFieldMap(e.Lowest, other.Lowest)
}

func equalFieldMap(a, b map[stats.Field]decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for f, av := range a {
		bv, ok := b[f]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}
