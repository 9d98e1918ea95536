package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"visitrack/api/models"
)

// VisitorStore owns the mutable visitor ledger: one row per visitor_id,
// reconciled with an atomic upsert on every visit.
type VisitorStore struct {
	db *sql.DB
}

func NewVisitorStore(db *sql.DB) *VisitorStore {
	return &VisitorStore{db: db}
}

const visitorColumns = `visitor_id, first_visit, last_visit, total_visits,
	ip_address, country, city, region, user_agent, device_type, browser, os,
	referrer, landing_page`

// RecordVisit reconciles one visit submission into the ledger as a single
// atomic statement. A new visitor_id inserts a fresh row; an existing one
// bumps last_visit, increments total_visits, and gap-fills metadata with
// COALESCE so a value observed once is never overwritten. Doing the whole
// check-then-act in one ON CONFLICT upsert is what keeps two concurrent
// first-visits for the same id from producing two rows or a lost increment.
//
// A client retry after a confirmed failure counts as another visit and
// increments total_visits again; the counter tracks submissions observed,
// not deduplicated visits. Known limitation.
func (s *VisitorStore) RecordVisit(ctx context.Context, visitorID string, meta models.VisitorMetadata) (models.VisitorStatus, error) {
	if strings.TrimSpace(visitorID) == "" {
		return models.VisitorStatus{}, fmt.Errorf("%w: visitor id is empty", ErrInvalidInput)
	}

	query := `
		INSERT INTO visitors
			(visitor_id, ip_address, country, city, region, user_agent,
			 device_type, browser, os, referrer, landing_page)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (visitor_id) DO UPDATE SET
			last_visit   = CURRENT_TIMESTAMP,
			total_visits = visitors.total_visits + 1,
			ip_address   = COALESCE(visitors.ip_address, EXCLUDED.ip_address),
			country      = COALESCE(visitors.country, EXCLUDED.country),
			city         = COALESCE(visitors.city, EXCLUDED.city),
			region       = COALESCE(visitors.region, EXCLUDED.region),
			user_agent   = COALESCE(visitors.user_agent, EXCLUDED.user_agent),
			device_type  = COALESCE(visitors.device_type, EXCLUDED.device_type),
			browser      = COALESCE(visitors.browser, EXCLUDED.browser),
			os           = COALESCE(visitors.os, EXCLUDED.os),
			referrer     = COALESCE(visitors.referrer, EXCLUDED.referrer),
			landing_page = COALESCE(visitors.landing_page, EXCLUDED.landing_page)
		RETURNING total_visits = 1;
	`

	var isNew bool
	err := s.db.QueryRowContext(ctx, query,
		visitorID,
		nullable(meta.IP),
		nullable(meta.Country),
		nullable(meta.City),
		nullable(meta.Region),
		nullable(meta.UserAgent),
		nullable(meta.DeviceType),
		nullable(meta.Browser),
		nullable(meta.OS),
		nullable(meta.Referrer),
		nullable(meta.LandingPage),
	).Scan(&isNew)
	if err != nil {
		return models.VisitorStatus{}, fmt.Errorf("failed to record visit: %w", err)
	}

	return models.VisitorStatus{IsNew: isNew}, nil
}

// GetByID fetches one ledger row, ErrNotFound if the visitor does not exist.
func (s *VisitorStore) GetByID(ctx context.Context, visitorID string) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE visitor_id = $1;`

	v := &models.Visitor{}
	err := s.db.QueryRowContext(ctx, query, visitorID).Scan(
		&v.VisitorID, &v.FirstVisit, &v.LastVisit, &v.TotalVisits,
		&v.IPAddress, &v.Country, &v.City, &v.Region, &v.UserAgent,
		&v.DeviceType, &v.Browser, &v.OS, &v.Referrer, &v.LandingPage,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get visitor: %w", err)
	}

	return v, nil
}

// List returns one page of visitors ordered by last_visit descending.
// Pagination is not snapshotted; concurrent writes may shift rows between
// successive page fetches.
func (s *VisitorStore) List(ctx context.Context, limit, offset int) ([]models.Visitor, error) {
	query := `
		SELECT ` + visitorColumns + `
		FROM visitors
		ORDER BY last_visit DESC
		LIMIT $1 OFFSET $2;
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	defer rows.Close()

	visitors := []models.Visitor{}
	for rows.Next() {
		var v models.Visitor
		if err := rows.Scan(
			&v.VisitorID, &v.FirstVisit, &v.LastVisit, &v.TotalVisits,
			&v.IPAddress, &v.Country, &v.City, &v.Region, &v.UserAgent,
			&v.DeviceType, &v.Browser, &v.OS, &v.Referrer, &v.LandingPage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan visitor row: %w", err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing visitors: %w", err)
	}

	return visitors, nil
}

func (s *VisitorStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors;`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visitors: %w", err)
	}
	return count, nil
}

// CountActiveLast24h counts visitors whose last_visit falls in the trailing
// 24-hour window from now, not a calendar day.
func (s *VisitorStore) CountActiveLast24h(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visitors WHERE last_visit > NOW() - INTERVAL '24 hours';`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent visitors: %w", err)
	}
	return count, nil
}

// nullable maps an absent field to SQL NULL so COALESCE gap-fill treats it as
// unknown instead of overwriting a stored value with an empty string.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
