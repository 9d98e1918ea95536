// Immutable behavioral facts recorded against a visitor: events, page views
// and registrations. Rows are insert-only; timestamps are assigned by the
// store at insert time.
package models

import (
	"encoding/json"
	"time"
)

// Event is a single behavioral event (click, scroll, visibility change...).
// EventData is stored and returned verbatim, never interpreted.
type Event struct {
	ID        int64           `json:"id"`
	VisitorID string          `json:"visitor_id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data,omitempty"`
	PageURL   *string         `json:"page_url"`
	SessionID *string         `json:"session_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// EnrichedEvent is an Event joined with its owning visitor's location fields
// for the recent-events dashboard listing.
type EnrichedEvent struct {
	Event
	IPAddress *string `json:"ip_address"`
	City      *string `json:"city"`
	Country   *string `json:"country"`
}

type PageView struct {
	ID          int64     `json:"id"`
	VisitorID   string    `json:"visitor_id"`
	PageURL     string    `json:"page_url"`
	PageTitle   *string   `json:"page_title"`
	SessionID   *string   `json:"session_id"`
	TimeSpent   int       `json:"time_spent"`
	ScrollDepth int       `json:"scroll_depth"`
	ViewedAt    time.Time `json:"viewed_at"`
}

type Registration struct {
	ID               int64           `json:"id"`
	VisitorID        string          `json:"visitor_id"`
	Email            string          `json:"email"`
	Name             *string         `json:"name"`
	Phone            *string         `json:"phone"`
	RegistrationData json.RawMessage `json:"registration_data,omitempty"`
	RegisteredAt     time.Time       `json:"registered_at"`
}

// EnrichedRegistration is a Registration joined with its owning visitor's
// location and device fields. The join is a left join: registrations whose
// visitor carries no enrichment keep null fields rather than being dropped.
type EnrichedRegistration struct {
	Registration
	IPAddress  *string `json:"ip_address"`
	City       *string `json:"city"`
	Country    *string `json:"country"`
	DeviceType *string `json:"device_type"`
}

type EventRequest struct {
	VisitorID string          `json:"visitorId" binding:"required"`
	EventType string          `json:"eventType" binding:"required"`
	EventData json.RawMessage `json:"eventData"`
	PageURL   string          `json:"pageUrl"`
	SessionID string          `json:"sessionId"`
}

type PageViewRequest struct {
	VisitorID   string `json:"visitorId" binding:"required"`
	PageURL     string `json:"pageUrl" binding:"required"`
	PageTitle   string `json:"pageTitle"`
	SessionID   string `json:"sessionId"`
	TimeSpent   int    `json:"timeSpent"`
	ScrollDepth int    `json:"scrollDepth"`
}

type RegistrationRequest struct {
	VisitorID        string          `json:"visitorId" binding:"required"`
	Email            string          `json:"email" binding:"required,email"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	RegistrationData json.RawMessage `json:"registrationData"`
}

// RegistrationPage is one page of the registrations listing.
type RegistrationPage struct {
	Registrations []EnrichedRegistration `json:"registrations"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	TotalPages    int                    `json:"totalPages"`
}

// VisitorDetail is the full timeline bundle for one visitor: the ledger row,
// all facts newest-first, and the most recent registration (nil if none).
type VisitorDetail struct {
	Visitor      Visitor       `json:"visitor"`
	Events       []Event       `json:"events"`
	PageViews    []PageView    `json:"pageViews"`
	Registration *Registration `json:"registration"`
}
