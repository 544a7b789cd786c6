package projection

import (
	"time"

	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/engine"
	"github.com/shopspring/decimal"
)

// SummaryResponse is the full aggregate set for the current log snapshot.
// SnapshotID is stable across reads as long as the underlying log has not
// changed; clients can use it for cheap cache validation.
type SummaryResponse struct {
	SnapshotID  string    `json:"snapshot_id"`
	RefreshedAt time.Time `json:"refreshed_at"`
	*engine.Result
}

// LevelResponse is one granularity's slice of the snapshot.
type LevelResponse struct {
	SnapshotID  string              `json:"snapshot_id"`
	RefreshedAt time.Time           `json:"refreshed_at"`
	Granularity period.Granularity  `json:"granularity"`
	Keys        []string            `json:"keys"`
	Aggregates  []*period.Aggregate `json:"aggregates"`
}

// GoalStatus is one goal evaluated against the most recent aggregate at its
// granularity. Actual is null when that period has no data.
type GoalStatus struct {
	Name        string              `json:"name"`
	Granularity period.Granularity  `json:"granularity"`
	PeriodKey   string              `json:"period_key,omitempty"`
	Metric      string              `json:"metric"`
	Source      string              `json:"source"`
	Condition   string              `json:"condition"`
	Target      decimal.Decimal     `json:"target"`
	Actual      decimal.NullDecimal `json:"actual"`
	Achieved    bool                `json:"achieved"`
}

// GoalsResponse reports every configured goal against the current snapshot.
type GoalsResponse struct {
	SnapshotID  string       `json:"snapshot_id"`
	RefreshedAt time.Time    `json:"refreshed_at"`
	Goals       []GoalStatus `json:"goals"`
}
