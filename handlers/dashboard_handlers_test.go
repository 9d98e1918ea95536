package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"visitrack/api/handlers"
	"visitrack/api/models"
	"visitrack/api/store"
)

type stubVisitorReader struct {
	visitor    *models.Visitor
	visitorErr error
	visitors   []models.Visitor
	total      int
	last24h    int
	gotLimit   int
	gotOffset  int
}

func (s *stubVisitorReader) GetByID(_ context.Context, _ string) (*models.Visitor, error) {
	return s.visitor, s.visitorErr
}

func (s *stubVisitorReader) List(_ context.Context, limit, offset int) ([]models.Visitor, error) {
	s.gotLimit, s.gotOffset = limit, offset
	return s.visitors, nil
}

func (s *stubVisitorReader) Count(_ context.Context) (int, error) {
	return s.total, nil
}

func (s *stubVisitorReader) CountActiveLast24h(_ context.Context) (int, error) {
	return s.last24h, nil
}

type stubFactReader struct {
	events        []models.Event
	pageViews     []models.PageView
	registration  *models.Registration
	registrations []models.EnrichedRegistration
	recent        []models.EnrichedEvent
	eventCount    int
	pageViewCount int
	regCount      int
}

func (s *stubFactReader) EventsByVisitor(_ context.Context, _ string) ([]models.Event, error) {
	return s.events, nil
}

func (s *stubFactReader) PageViewsByVisitor(_ context.Context, _ string) ([]models.PageView, error) {
	return s.pageViews, nil
}

func (s *stubFactReader) LatestRegistration(_ context.Context, _ string) (*models.Registration, error) {
	return s.registration, nil
}

func (s *stubFactReader) ListRegistrations(_ context.Context, _, _ int) ([]models.EnrichedRegistration, error) {
	return s.registrations, nil
}

func (s *stubFactReader) RecentEvents(_ context.Context, _ int) ([]models.EnrichedEvent, error) {
	return s.recent, nil
}

func (s *stubFactReader) CountEvents(_ context.Context) (int, error) { return s.eventCount, nil }

func (s *stubFactReader) CountPageViews(_ context.Context) (int, error) { return s.pageViewCount, nil }

func (s *stubFactReader) CountRegistrations(_ context.Context) (int, error) { return s.regCount, nil }

func setupDashboardRouter(t *testing.T, visitors *stubVisitorReader, facts *stubFactReader) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := handlers.NewDashboardHandlers(visitors, facts)
	r.GET("/api/admin/stats", h.GetStats)
	r.GET("/api/admin/visitors", h.ListVisitors)
	r.GET("/api/admin/visitor/:visitorId", h.GetVisitorDetail)
	r.GET("/api/admin/registrations", h.ListRegistrations)
	r.GET("/api/admin/events", h.ListRecentEvents)

	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	r.ServeHTTP(w, req)

	return w
}

func TestGetStats(t *testing.T) {
	visitors := &stubVisitorReader{total: 2, last24h: 1}
	facts := &stubFactReader{eventCount: 5, pageViewCount: 8, regCount: 1}
	r := setupDashboardRouter(t, visitors, facts)

	w := getJSON(t, r, "/api/admin/stats")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var stats models.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalVisitors != 2 || stats.TotalEvents != 5 || stats.TotalPageViews != 8 ||
		stats.TotalRegistrations != 1 || stats.VisitorsLast24h != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestListVisitors_PaginationMath(t *testing.T) {
	testCases := []struct {
		name           string
		query          string
		total          int
		wantPage       int
		wantTotalPages int
		wantLimit      int
		wantOffset     int
	}{
		{"defaults", "", 101, 1, 3, 50, 0},
		{"explicit page", "?page=3&limit=10", 101, 3, 11, 10, 20},
		{"limit clamped", "?limit=9999", 10, 1, 1, 200, 0},
		{"zero page falls back", "?page=0", 0, 1, 0, 50, 0},
		{"garbage params fall back", "?page=abc&limit=xyz", 50, 1, 1, 50, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			visitors := &stubVisitorReader{total: tc.total}
			r := setupDashboardRouter(t, visitors, &stubFactReader{})

			w := getJSON(t, r, "/api/admin/visitors"+tc.query)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}

			var page models.VisitorPage
			if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
				t.Fatalf("failed to decode page: %v", err)
			}
			if page.Page != tc.wantPage {
				t.Errorf("page = %d, want %d", page.Page, tc.wantPage)
			}
			if page.TotalPages != tc.wantTotalPages {
				t.Errorf("totalPages = %d, want %d", page.TotalPages, tc.wantTotalPages)
			}
			if page.Total != tc.total {
				t.Errorf("total = %d, want %d", page.Total, tc.total)
			}
			if visitors.gotLimit != tc.wantLimit || visitors.gotOffset != tc.wantOffset {
				t.Errorf("store called with limit=%d offset=%d, want limit=%d offset=%d",
					visitors.gotLimit, visitors.gotOffset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestGetVisitorDetail(t *testing.T) {
	now := time.Now()
	country := "BR"
	visitors := &stubVisitorReader{
		visitor: &models.Visitor{
			VisitorID:   "v-1",
			FirstVisit:  now.Add(-time.Hour),
			LastVisit:   now,
			TotalVisits: 4,
			Country:     &country,
		},
	}
	facts := &stubFactReader{
		events: []models.Event{
			{ID: 2, VisitorID: "v-1", EventType: "click", Timestamp: now},
			{ID: 1, VisitorID: "v-1", EventType: "scroll", Timestamp: now.Add(-time.Minute)},
		},
		pageViews: []models.PageView{
			{ID: 1, VisitorID: "v-1", PageURL: "/home", ViewedAt: now},
		},
	}
	r := setupDashboardRouter(t, visitors, facts)

	w := getJSON(t, r, "/api/admin/visitor/v-1")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var detail models.VisitorDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to decode detail: %v", err)
	}
	if detail.Visitor.VisitorID != "v-1" || detail.Visitor.TotalVisits != 4 {
		t.Fatalf("unexpected visitor: %+v", detail.Visitor)
	}
	if len(detail.Events) != 2 || len(detail.PageViews) != 1 {
		t.Fatalf("unexpected fact counts: %d events, %d page views",
			len(detail.Events), len(detail.PageViews))
	}
	if detail.Registration != nil {
		t.Fatal("expected nil registration for a visitor who never registered")
	}
}

func TestGetVisitorDetail_NotFound(t *testing.T) {
	visitors := &stubVisitorReader{visitorErr: store.ErrNotFound}
	r := setupDashboardRouter(t, visitors, &stubFactReader{})

	w := getJSON(t, r, "/api/admin/visitor/missing-id")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListRecentEvents_InvalidLimit(t *testing.T) {
	r := setupDashboardRouter(t, &stubVisitorReader{}, &stubFactReader{})

	w := getJSON(t, r, "/api/admin/events?limit=-3")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
