package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"visitrack/api/models"
	"visitrack/api/store"
	"visitrack/api/utils"

	"github.com/gin-gonic/gin"
)

// VisitorReader is the ledger-side read surface for the dashboard.
type VisitorReader interface {
	GetByID(ctx context.Context, visitorID string) (*models.Visitor, error)
	List(ctx context.Context, limit, offset int) ([]models.Visitor, error)
	Count(ctx context.Context) (int, error)
	CountActiveLast24h(ctx context.Context) (int, error)
}

// FactReader is the fact-store read surface for the dashboard.
type FactReader interface {
	EventsByVisitor(ctx context.Context, visitorID string) ([]models.Event, error)
	PageViewsByVisitor(ctx context.Context, visitorID string) ([]models.PageView, error)
	LatestRegistration(ctx context.Context, visitorID string) (*models.Registration, error)
	ListRegistrations(ctx context.Context, limit, offset int) ([]models.EnrichedRegistration, error)
	RecentEvents(ctx context.Context, limit int) ([]models.EnrichedEvent, error)
	CountEvents(ctx context.Context) (int, error)
	CountPageViews(ctx context.Context) (int, error)
	CountRegistrations(ctx context.Context) (int, error)
}

// DashboardHandlers serves the authenticated read endpoints: summary
// counters, paginated listings, and single-visitor timelines. On any storage
// failure the whole response is an error; no partial counts are rendered.
type DashboardHandlers struct {
	Visitors VisitorReader
	Facts    FactReader
}

func NewDashboardHandlers(visitors VisitorReader, facts FactReader) *DashboardHandlers {
	return &DashboardHandlers{Visitors: visitors, Facts: facts}
}

const dashboardTimeout = 10 * time.Second

const defaultRecentEventsLimit = 100

// GetStats returns the scalar dashboard counters.
func (h *DashboardHandlers) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), dashboardTimeout)
	defer cancel()

	var stats models.Stats
	var err error

	if stats.TotalVisitors, err = h.Visitors.Count(ctx); err != nil {
		h.statsError(c, err)
		return
	}
	if stats.TotalEvents, err = h.Facts.CountEvents(ctx); err != nil {
		h.statsError(c, err)
		return
	}
	if stats.TotalRegistrations, err = h.Facts.CountRegistrations(ctx); err != nil {
		h.statsError(c, err)
		return
	}
	if stats.TotalPageViews, err = h.Facts.CountPageViews(ctx); err != nil {
		h.statsError(c, err)
		return
	}
	if stats.VisitorsLast24h, err = h.Visitors.CountActiveLast24h(ctx); err != nil {
		h.statsError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandlers) statsError(c *gin.Context, err error) {
	log.Printf("ERROR: Failed to compute dashboard stats: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
}

// ListVisitors returns one page of visitors, most recently active first.
func (h *DashboardHandlers) ListVisitors(c *gin.Context) {
	page, limit := paginationParams(c)
	offset := (page - 1) * limit

	ctx, cancel := context.WithTimeout(c.Request.Context(), dashboardTimeout)
	defer cancel()

	visitors, err := h.Visitors.List(ctx, limit, offset)
	if err != nil {
		log.Printf("ERROR: Failed to list visitors: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitors"})
		return
	}

	total, err := h.Visitors.Count(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to count visitors: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitors"})
		return
	}

	c.JSON(http.StatusOK, models.VisitorPage{
		Visitors:   visitors,
		Total:      total,
		Page:       page,
		TotalPages: utils.TotalPages(total, limit),
	})
}

// ListRegistrations returns one page of registrations, newest first, each
// enriched with the owning visitor's location and device fields.
func (h *DashboardHandlers) ListRegistrations(c *gin.Context) {
	page, limit := paginationParams(c)
	offset := (page - 1) * limit

	ctx, cancel := context.WithTimeout(c.Request.Context(), dashboardTimeout)
	defer cancel()

	registrations, err := h.Facts.ListRegistrations(ctx, limit, offset)
	if err != nil {
		log.Printf("ERROR: Failed to list registrations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve registrations"})
		return
	}

	total, err := h.Facts.CountRegistrations(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to count registrations: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve registrations"})
		return
	}

	c.JSON(http.StatusOK, models.RegistrationPage{
		Registrations: registrations,
		Total:         total,
		Page:          page,
		TotalPages:    utils.TotalPages(total, limit),
	})
}

// GetVisitorDetail assembles one visitor's full timeline: the ledger row,
// events and page views newest-first, and the most recent registration. The
// fan-out is four independent queries; facts are immutable, so no cross-query
// isolation is needed and the ledger row is a point-in-time snapshot.
func (h *DashboardHandlers) GetVisitorDetail(c *gin.Context) {
	visitorID := c.Param("visitorId")

	ctx, cancel := context.WithTimeout(c.Request.Context(), dashboardTimeout)
	defer cancel()

	visitor, err := h.Visitors.GetByID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Visitor not found"})
			return
		}
		log.Printf("ERROR: Failed to get visitor %s: %v", visitorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitor"})
		return
	}

	events, err := h.Facts.EventsByVisitor(ctx, visitorID)
	if err != nil {
		log.Printf("ERROR: Failed to get events for visitor %s: %v", visitorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitor detail"})
		return
	}

	pageViews, err := h.Facts.PageViewsByVisitor(ctx, visitorID)
	if err != nil {
		log.Printf("ERROR: Failed to get page views for visitor %s: %v", visitorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitor detail"})
		return
	}

	registration, err := h.Facts.LatestRegistration(ctx, visitorID)
	if err != nil {
		log.Printf("ERROR: Failed to get registration for visitor %s: %v", visitorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve visitor detail"})
		return
	}

	c.JSON(http.StatusOK, models.VisitorDetail{
		Visitor:      *visitor,
		Events:       events,
		PageViews:    pageViews,
		Registration: registration,
	})
}

// ListRecentEvents returns the newest events across all visitors with the
// owning visitor's location attached.
func (h *DashboardHandlers) ListRecentEvents(c *gin.Context) {
	limit := defaultRecentEventsLimit
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = utils.NormalizeLimit(parsed)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dashboardTimeout)
	defer cancel()

	events, err := h.Facts.RecentEvents(ctx, limit)
	if err != nil {
		log.Printf("ERROR: Failed to list recent events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// paginationParams parses page/limit query params with defaults and clamping.
// Non-numeric values fall back to the defaults rather than erroring, the same
// forgiving behavior the dashboard has always relied on.
func paginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	return utils.NormalizePage(page), utils.NormalizeLimit(limit)
}
