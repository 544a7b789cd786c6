package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	httperr "github.com/numcal-lab/numcal/internal/core/errors"
	"github.com/numcal-lab/numcal/internal/core/period"
	"github.com/numcal-lab/numcal/internal/core/storage"
	"github.com/shopspring/decimal"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist entry"
	msgEntryNotFound  = "Entry not found"
)

// entryPayload is the wire shape of a day's numbers. Values arrive as JSON
// numbers or quoted decimal strings; both are accepted.
type entryPayload struct {
	Numbers []decimal.Decimal `json:"numbers"`
}

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// PutEntryHandler handles HTTP PUT requests that replace one day's number log.
func (s *Service) PutEntryHandler(c *gin.Context) {
	dateKey, ierr := parseDateParam(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	payload, payloadSize, ierr := s.parsePayload(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	rec := period.DayRecord{DateKey: dateKey, Numbers: payload.Numbers}

	slog.Info("Received entry",
		"date_key", dateKey,
		"value_count", len(rec.Numbers),
		"payload_size", payloadSize)

	if ierr := s.persistEntry(c.Request.Context(), rec); ierr != nil {
		writeError(c, ierr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "stored", "date_key": dateKey, "value_count": len(rec.Numbers)})
}

// DeleteEntryHandler removes one day's record entirely.
func (s *Service) DeleteEntryHandler(c *gin.Context) {
	dateKey, ierr := parseDateParam(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	if err := s.store.DeleteEntry(c.Request.Context(), dateKey); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, &ingestionError{
				statusCode: http.StatusNotFound,
				errorType:  httperr.HttpNotFoundError,
				message:    msgEntryNotFound,
			})
			return
		}
		slog.Error("Failed to delete entry", "error", err, "date_key", dateKey)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "date_key": dateKey})
}

// GetEntryHandler returns one day's raw record.
func (s *Service) GetEntryHandler(c *gin.Context) {
	dateKey, ierr := parseDateParam(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	rec, err := s.store.GetEntry(c.Request.Context(), dateKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, &ingestionError{
				statusCode: http.StatusNotFound,
				errorType:  httperr.HttpNotFoundError,
				message:    msgEntryNotFound,
			})
			return
		}
		slog.Error("Failed to load entry", "error", err, "date_key", dateKey)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to load entry",
		})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListEntriesHandler returns the full entry log in chronological order.
func (s *Service) ListEntriesHandler(c *gin.Context) {
	entries, err := s.store.ListEntries(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list entries", "error", err)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to list entries",
		})
		return
	}
	if entries == nil {
		entries = []period.DayRecord{}
	}
	c.JSON(http.StatusOK, entries)
}

// parseDateParam validates the :date path segment as a calendar day key.
func parseDateParam(c *gin.Context) (string, *ingestionError) {
	dateKey := c.Param("date")
	if _, err := period.ParseDayKey(dateKey); err != nil {
		slog.Warn("Invalid date key in request path", "date_key", dateKey, "error", err)
		return "", &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidDateKeyError,
			message:    err.Error(),
		}
	}
	return dateKey, nil
}

// parsePayload reads the raw request body and binds it into an entryPayload.
// Returns the payload and the raw body size (used for structured logging upstream).
func (s *Service) parsePayload(c *gin.Context) (*entryPayload, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var payload entryPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		slog.Warn("Invalid entry payload received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidNumberError,
			message:    msgInvalidJSON,
		}
	}
	if payload.Numbers == nil {
		payload.Numbers = []decimal.Decimal{}
	}
	return &payload, len(bodyBytes), nil
}

// persistEntry saves the record to the backing store.
func (s *Service) persistEntry(ctx context.Context, rec period.DayRecord) *ingestionError {
	if err := s.store.UpsertEntry(ctx, rec); err != nil {
		slog.Error("Failed to persist entry", "error", err, "date_key", rec.DateKey)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
	return nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
