// Package projection serves read queries over the aggregated log. Every read
// refreshes a process-local snapshot from the entry store through the rollup
// engine; the engine's incremental cache makes the refresh cheap when little
// or nothing changed.
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/storage"
	"github.com/numcal-lab/numcal/internal/engine"
	"github.com/numcal-lab/numcal/internal/goal"
	"golang.org/x/sync/singleflight"
)

// GoalSource provides the configured goals. Satisfied by
// goal.FileSystemGoalRepository.
type GoalSource interface {
	Goals() []goal.Goal
}

// Service implements the projection/query layer.
type Service struct {
	store storage.EntryStore
	goals GoalSource
	nowFn func() time.Time

	// group collapses concurrent refreshes into one store read + recompute.
	group singleflight.Group

	mu          sync.Mutex
	cache       *engine.Cache
	snapshotID  string
	refreshedAt time.Time
}

// snapshot is one consistent view handed to the handlers.
type snapshot struct {
	result      *engine.Result
	snapshotID  string
	refreshedAt time.Time
}

// NewService creates a new projection service. goals may be nil when no goal
// directory is configured.
func NewService(store storage.EntryStore, goals GoalSource) *Service {
	if store == nil {
		panic("projection: store must not be nil")
	}
	return &Service{
		store: store,
		goals: goals,
		cache: engine.NewCache(),
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// refresh loads the full entry log and folds it through the engine.
// The snapshot ID only rotates when the engine reports an actual change,
// so unchanged data keeps serving the same ID.
func (s *Service) refresh(ctx context.Context) (snapshot, error) {
	v, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		entries, err := s.store.ListEntries(ctx)
		if err != nil {
			return snapshot{}, fmt.Errorf("list entries: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		result, next := engine.Recompute(entries, s.cache)
		if next != s.cache || s.snapshotID == "" {
			s.cache = next
			s.snapshotID = uuid.NewString()
			s.refreshedAt = s.nowFn()
			slog.Info("Projection snapshot refreshed",
				"snapshot_id", s.snapshotID,
				"days", len(result.DayKeys),
				"weeks", len(result.WeekKeys),
				"months", len(result.MonthKeys),
				"years", len(result.YearKeys))
		}

		return snapshot{result: result, snapshotID: s.snapshotID, refreshedAt: s.refreshedAt}, nil
	})
	if err != nil {
		return snapshot{}, err
	}
	return v.(snapshot), nil
}

// EvaluateGoals checks every configured goal against the most recent
// aggregate at the goal's granularity.
func (s *Service) EvaluateGoals(ctx context.Context) (*GoalsResponse, error) {
	snap, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}

	var goals []goal.Goal
	if s.goals != nil {
		goals = s.goals.Goals()
	}

	statuses := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		agg, periodKey := latestAggregate(snap.result, g.Granularity)

		achieved, actual, err := goal.Evaluate(agg, g.Target)
		if err != nil {
			return nil, fmt.Errorf("evaluating goal %q: %w", g.Name, err)
		}

		statuses = append(statuses, GoalStatus{
			Name:        g.Name,
			Granularity: g.Granularity,
			PeriodKey:   periodKey,
			Metric:      string(g.Target.Metric),
			Source:      string(g.Target.Source),
			Condition:   string(g.Target.Condition),
			Target:      g.Target.Value,
			Actual:      actual,
			Achieved:    achieved,
		})
	}

	return &GoalsResponse{
		SnapshotID:  snap.snapshotID,
		RefreshedAt: snap.refreshedAt,
		Goals:       statuses,
	}, nil
}

// latestAggregate picks the chronologically last aggregate at a granularity,
// or the all-time singleton for Anytime. Returns nil for an empty level.
func latestAggregate(r *engine.Result, g period.Granularity) (*period.Aggregate, string) {
	if g == period.Anytime {
		return r.AllTime, ""
	}
	keys, aggs, ok := r.Level(g)
	if !ok || len(aggs) == 0 {
		return nil, ""
	}
	return aggs[len(aggs)-1], keys[len(keys)-1]
}
