// Package goal evaluates user-defined targets against period aggregates.
// Goals are loaded at startup from YAML files and fingerprinted; evaluation
// itself is a pure comparison over one aggregate's stats or deltas.
package goal

import (
	"fmt"
	"math"

	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/stats"
	"github.com/shopspring/decimal"
)

// Source selects which statistics block of an aggregate a goal reads.
type Source string

const (
	SourceStats  Source = "stats"
	SourceDeltas Source = "deltas"
)

// Condition is the comparison direction of a goal.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// Target describes one measurable objective: compare a statistic field of
// an aggregate's stats or deltas against a threshold.
type Target struct {
	Metric    stats.Field     `yaml:"metric"`
	Source    Source          `yaml:"source"`
	Condition Condition       `yaml:"condition"`
	Value     decimal.Decimal `yaml:"-"`
}

// Goal is a named target scoped to one granularity. Evaluation runs against
// the most recent aggregate at that granularity.
type Goal struct {
	Name        string
	Granularity period.Granularity
	Target      Target
	Fingerprint string // SHA-256 of the raw YAML file; computed at load time
}

// Validate checks the target's enumerations.
func (t Target) Validate() error {
	if !stats.ValidField(t.Metric) {
		return fmt.Errorf("unknown metric %q", t.Metric)
	}
	if t.Source != SourceStats && t.Source != SourceDeltas {
		return fmt.Errorf("source must be %q or %q, got %q", SourceStats, SourceDeltas, t.Source)
	}
	if t.Condition != ConditionAbove && t.Condition != ConditionBelow {
		return fmt.Errorf("condition must be %q or %q, got %q", ConditionAbove, ConditionBelow, t.Condition)
	}
	return nil
}

// Evaluate compares the target against agg. The actual value read from the
// aggregate is returned alongside the verdict; a null actual (empty period)
// never satisfies a goal.
func Evaluate(agg *period.Aggregate, t Target) (bool, decimal.NullDecimal, error) {
	if err := t.Validate(); err != nil {
		return false, decimal.NullDecimal{}, err
	}
	if agg == nil {
		return false, decimal.NullDecimal{}, nil
	}

	var src stats.NumberStats
	switch t.Source {
	case SourceStats:
		src = agg.Stats
	case SourceDeltas:
		src = agg.Deltas
	}

	actual := src.Get(t.Metric)
	if !actual.Valid {
		return false, actual, nil
	}

	switch t.Condition {
	case ConditionAbove:
		return actual.Decimal.GreaterThan(t.Value), actual, nil
	default:
		return actual.Decimal.LessThan(t.Value), actual, nil
	}
}

// sanitizeValue rejects the non-finite floats YAML can express (.inf, .nan)
// before they reach decimal conversion.
func sanitizeValue(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, fmt.Errorf("value must be finite, got %v", v)
	}
	return decimal.NewFromFloat(v), nil
}
