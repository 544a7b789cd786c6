package ingestion

import (
	"github.com/gin-gonic/gin"
	"github.com/numcal-lab/numcal/internal/core/storage"
)

type Service struct {
	store            storage.EntryStore
	maxBodySizeBytes int
}

func NewService(store storage.EntryStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the entry log routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.PUT("/v1/entries/:date", s.PutEntryHandler)
	r.DELETE("/v1/entries/:date", s.DeleteEntryHandler)
	r.GET("/v1/entries/:date", s.GetEntryHandler)
	r.GET("/v1/entries", s.ListEntriesHandler)
}
