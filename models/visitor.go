package models

import "time"

// Visitor is the mutable ledger row for one anonymous visitor, keyed by the
// client-generated visitor_id. Metadata fields hold the first observed value
// and are never overwritten once set.
type Visitor struct {
	VisitorID   string    `json:"visitor_id"`
	FirstVisit  time.Time `json:"first_visit"`
	LastVisit   time.Time `json:"last_visit"`
	TotalVisits int       `json:"total_visits"`
	IPAddress   *string   `json:"ip_address"`
	Country     *string   `json:"country"`
	City        *string   `json:"city"`
	Region      *string   `json:"region"`
	UserAgent   *string   `json:"user_agent"`
	DeviceType  *string   `json:"device_type"`
	Browser     *string   `json:"browser"`
	OS          *string   `json:"os"`
	Referrer    *string   `json:"referrer"`
	LandingPage *string   `json:"landing_page"`
}

// VisitorMetadata is the enrichment block the client sends with a visit.
// Every field is optional; absent fields never clear stored values.
type VisitorMetadata struct {
	IP          string `json:"ip"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Region      string `json:"region"`
	UserAgent   string `json:"userAgent"`
	DeviceType  string `json:"deviceType"`
	Browser     string `json:"browser"`
	OS          string `json:"os"`
	Referrer    string `json:"referrer"`
	LandingPage string `json:"landingPage"`
}

type VisitRequest struct {
	VisitorID string          `json:"visitorId" binding:"required"`
	UserData  VisitorMetadata `json:"userData"`
}

// VisitorStatus reports the outcome of a visit upsert.
type VisitorStatus struct {
	IsNew bool `json:"isNew"`
}

// VisitorPage is one page of the visitors listing.
type VisitorPage struct {
	Visitors   []Visitor `json:"visitors"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

// Stats holds the dashboard summary counters. VisitorsLast24h is a trailing
// window on last_visit, not a calendar day.
type Stats struct {
	TotalVisitors      int `json:"totalVisitors"`
	TotalEvents        int `json:"totalEvents"`
	TotalRegistrations int `json:"totalRegistrations"`
	TotalPageViews     int `json:"totalPageViews"`
	VisitorsLast24h    int `json:"visitorsLast24h"`
}
