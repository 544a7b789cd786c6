package projection

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	httperr "github.com/numcal-lab/numcal/internal/core/errors"
	"github.com/numcal-lab/numcal/internal/core/period"
)

// RegisterRoutes registers all projection API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/summary", s.SummaryHandler)
	r.GET("/v1/aggregates/:granularity", s.LevelHandler)
	r.GET("/v1/goals", s.GoalsHandler)
}

// SummaryHandler handles GET /v1/summary: the full aggregate set for the
// current snapshot.
func (s *Service) SummaryHandler(c *gin.Context) {
	snap, err := s.refresh(c.Request.Context())
	if err != nil {
		writeRefreshError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		SnapshotID:  snap.snapshotID,
		RefreshedAt: snap.refreshedAt,
		Result:      snap.result,
	})
}

// LevelHandler handles GET /v1/aggregates/:granularity for day, week, month,
// year, or anytime.
func (s *Service) LevelHandler(c *gin.Context) {
	gran := period.Granularity(c.Param("granularity"))
	if !period.ValidGranularity(gran) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidPeriodError,
			Message:   "Unknown granularity",
			Details:   gin.H{"granularity": c.Param("granularity")},
		})
		return
	}

	snap, err := s.refresh(c.Request.Context())
	if err != nil {
		writeRefreshError(c, err)
		return
	}

	keys, aggs, _ := snap.result.Level(gran)
	if keys == nil {
		keys = []string{}
	}
	if aggs == nil {
		aggs = []*period.Aggregate{}
	}

	c.JSON(http.StatusOK, LevelResponse{
		SnapshotID:  snap.snapshotID,
		RefreshedAt: snap.refreshedAt,
		Granularity: gran,
		Keys:        keys,
		Aggregates:  aggs,
	})
}

// GoalsHandler handles GET /v1/goals: every configured goal evaluated against
// the current snapshot.
func (s *Service) GoalsHandler(c *gin.Context) {
	resp, err := s.EvaluateGoals(c.Request.Context())
	if err != nil {
		writeRefreshError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeRefreshError(c *gin.Context, err error) {
	slog.Error("Failed to refresh projection snapshot", "error", err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   "Failed to compute aggregates",
		Details:   err.Error(),
	})
}
