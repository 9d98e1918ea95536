package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"visitrack/api/models"
	"visitrack/api/store"

	"github.com/gin-gonic/gin"
)

// VisitRecorder is the ledger-side write surface the ingest handlers need.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, visitorID string, meta models.VisitorMetadata) (models.VisitorStatus, error)
}

// FactWriter is the append-only fact surface.
type FactWriter interface {
	InsertEvent(ctx context.Context, req models.EventRequest) (int64, error)
	InsertPageView(ctx context.Context, req models.PageViewRequest) (int64, error)
	InsertRegistration(ctx context.Context, req models.RegistrationRequest) (int64, error)
}

// IngestHandlers accepts anonymous visit and fact submissions from the
// landing page. None of these endpoints require authentication; the client
// treats them as fire-and-forget.
type IngestHandlers struct {
	Visitors VisitRecorder
	Facts    FactWriter
}

func NewIngestHandlers(visitors VisitRecorder, facts FactWriter) *IngestHandlers {
	return &IngestHandlers{Visitors: visitors, Facts: facts}
}

const ingestTimeout = 15 * time.Second

// RecordVisit upserts the visitor ledger row for this submission.
func (h *IngestHandlers) RecordVisit(c *gin.Context) {
	var req models.VisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	status, err := h.Visitors.RecordVisit(ctx, req.VisitorID, req.UserData)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visitor id"})
			return
		}
		log.Printf("ERROR: Failed to record visit for %s: %v", req.VisitorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record visit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "isNew": status.IsNew})
}

// TrackEvent appends one behavioral event fact.
func (h *IngestHandlers) TrackEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	if _, err := h.Facts.InsertEvent(ctx, req); err != nil {
		h.factError(c, "event", req.VisitorID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrackPageView appends one page view fact.
func (h *IngestHandlers) TrackPageView(c *gin.Context) {
	var req models.PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	if _, err := h.Facts.InsertPageView(ctx, req); err != nil {
		h.factError(c, "page view", req.VisitorID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrackRegistration appends one registration fact.
func (h *IngestHandlers) TrackRegistration(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ingestTimeout)
	defer cancel()

	if _, err := h.Facts.InsertRegistration(ctx, req); err != nil {
		h.factError(c, "registration", req.VisitorID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// factError maps a fact-insert failure to its response. A fact referencing a
// visitor with no ledger row is the client's sequencing problem, not a server
// failure.
func (h *IngestHandlers) factError(c *gin.Context, kind, visitorID string, err error) {
	if errors.Is(err, store.ErrUnknownVisitor) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown visitor"})
		return
	}
	log.Printf("ERROR: Failed to record %s for visitor %s: %v", kind, visitorID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record " + kind})
}
