package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"visitrack/api/models"
)

// FactStore is the append-only side of the engine: events, page views and
// registrations. Every write is a single INSERT with a server-assigned
// timestamp; no method here touches the visitor ledger or its counters.
type FactStore struct {
	db *sql.DB
}

func NewFactStore(db *sql.DB) *FactStore {
	return &FactStore{db: db}
}

// InsertEvent appends one behavioral event. The foreign key on visitor_id is
// how referential integrity is enforced: a fact for a visitor with no ledger
// row fails with ErrUnknownVisitor instead of fabricating a placeholder.
func (s *FactStore) InsertEvent(ctx context.Context, req models.EventRequest) (int64, error) {
	query := `
		INSERT INTO events (visitor_id, event_type, event_data, page_url, session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		req.VisitorID, req.EventType, rawPayload(req.EventData),
		nullable(req.PageURL), nullable(req.SessionID),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownVisitor
		}
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	return id, nil
}

// InsertPageView appends one page view. scroll_depth is clamped to 0-100 and
// time_spent to non-negative; absent values default to 0.
func (s *FactStore) InsertPageView(ctx context.Context, req models.PageViewRequest) (int64, error) {
	timeSpent := req.TimeSpent
	if timeSpent < 0 {
		timeSpent = 0
	}
	scrollDepth := req.ScrollDepth
	if scrollDepth < 0 {
		scrollDepth = 0
	}
	if scrollDepth > 100 {
		scrollDepth = 100
	}

	query := `
		INSERT INTO page_views (visitor_id, page_url, page_title, session_id, time_spent, scroll_depth)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		req.VisitorID, req.PageURL, nullable(req.PageTitle),
		nullable(req.SessionID), timeSpent, scrollDepth,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownVisitor
		}
		return 0, fmt.Errorf("failed to insert page view: %w", err)
	}

	return id, nil
}

// InsertRegistration appends one registration. A visitor may register more
// than once; the detail view surfaces only the most recent row.
func (s *FactStore) InsertRegistration(ctx context.Context, req models.RegistrationRequest) (int64, error) {
	query := `
		INSERT INTO registrations (visitor_id, email, name, phone, registration_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		req.VisitorID, req.Email, nullable(req.Name),
		nullable(req.Phone), rawPayload(req.RegistrationData),
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrUnknownVisitor
		}
		return 0, fmt.Errorf("failed to insert registration: %w", err)
	}

	return id, nil
}

// EventsByVisitor returns every event for one visitor, newest first.
func (s *FactStore) EventsByVisitor(ctx context.Context, visitorID string) ([]models.Event, error) {
	query := `
		SELECT id, visitor_id, event_type, event_data, page_url, session_id, timestamp
		FROM events
		WHERE visitor_id = $1
		ORDER BY timestamp DESC;
	`

	rows, err := s.db.QueryContext(ctx, query, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for visitor: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		var data []byte
		if err := rows.Scan(&e.ID, &e.VisitorID, &e.EventType, &data,
			&e.PageURL, &e.SessionID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.EventData = json.RawMessage(data)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing events: %w", err)
	}

	return events, nil
}

// PageViewsByVisitor returns every page view for one visitor, newest first.
func (s *FactStore) PageViewsByVisitor(ctx context.Context, visitorID string) ([]models.PageView, error) {
	query := `
		SELECT id, visitor_id, page_url, page_title, session_id, time_spent, scroll_depth, viewed_at
		FROM page_views
		WHERE visitor_id = $1
		ORDER BY viewed_at DESC;
	`

	rows, err := s.db.QueryContext(ctx, query, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views for visitor: %w", err)
	}
	defer rows.Close()

	views := []models.PageView{}
	for rows.Next() {
		var pv models.PageView
		if err := rows.Scan(&pv.ID, &pv.VisitorID, &pv.PageURL, &pv.PageTitle,
			&pv.SessionID, &pv.TimeSpent, &pv.ScrollDepth, &pv.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page view row: %w", err)
		}
		views = append(views, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing page views: %w", err)
	}

	return views, nil
}

// LatestRegistration returns the most recent registration for a visitor, or
// nil if the visitor never registered. Absence is not an error here.
func (s *FactStore) LatestRegistration(ctx context.Context, visitorID string) (*models.Registration, error) {
	query := `
		SELECT id, visitor_id, email, name, phone, registration_data, registered_at
		FROM registrations
		WHERE visitor_id = $1
		ORDER BY registered_at DESC
		LIMIT 1;
	`

	r := &models.Registration{}
	var data []byte
	err := s.db.QueryRowContext(ctx, query, visitorID).Scan(
		&r.ID, &r.VisitorID, &r.Email, &r.Name, &r.Phone, &data, &r.RegisteredAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest registration: %w", err)
	}
	r.RegistrationData = json.RawMessage(data)

	return r, nil
}

// ListRegistrations returns one page of registrations ordered by
// registered_at descending, each row enriched with the owning visitor's
// location and device fields. The join is a left join so a registration is
// never dropped just because its visitor has no enrichment.
func (s *FactStore) ListRegistrations(ctx context.Context, limit, offset int) ([]models.EnrichedRegistration, error) {
	query := `
		SELECT r.id, r.visitor_id, r.email, r.name, r.phone, r.registration_data,
		       r.registered_at, v.ip_address, v.city, v.country, v.device_type
		FROM registrations r
		LEFT JOIN visitors v ON r.visitor_id = v.visitor_id
		ORDER BY r.registered_at DESC
		LIMIT $1 OFFSET $2;
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := []models.EnrichedRegistration{}
	for rows.Next() {
		var r models.EnrichedRegistration
		var data []byte
		if err := rows.Scan(&r.ID, &r.VisitorID, &r.Email, &r.Name, &r.Phone,
			&data, &r.RegisteredAt, &r.IPAddress, &r.City, &r.Country,
			&r.DeviceType); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		r.RegistrationData = json.RawMessage(data)
		registrations = append(registrations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing registrations: %w", err)
	}

	return registrations, nil
}

// RecentEvents returns the newest events across all visitors, enriched with
// the owning visitor's location fields via a left join.
func (s *FactStore) RecentEvents(ctx context.Context, limit int) ([]models.EnrichedEvent, error) {
	query := `
		SELECT e.id, e.visitor_id, e.event_type, e.event_data, e.page_url,
		       e.session_id, e.timestamp, v.ip_address, v.city, v.country
		FROM events e
		LEFT JOIN visitors v ON e.visitor_id = v.visitor_id
		ORDER BY e.timestamp DESC
		LIMIT $1;
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	defer rows.Close()

	events := []models.EnrichedEvent{}
	for rows.Next() {
		var e models.EnrichedEvent
		var data []byte
		if err := rows.Scan(&e.ID, &e.VisitorID, &e.EventType, &data, &e.PageURL,
			&e.SessionID, &e.Timestamp, &e.IPAddress, &e.City, &e.Country); err != nil {
			return nil, fmt.Errorf("failed to scan recent event row: %w", err)
		}
		e.EventData = json.RawMessage(data)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error while listing recent events: %w", err)
	}

	return events, nil
}

func (s *FactStore) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *FactStore) CountPageViews(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM page_views;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count page views: %w", err)
	}
	return count, nil
}

func (s *FactStore) CountRegistrations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

// rawPayload passes an opaque JSON payload through to a jsonb column
// verbatim, mapping an absent payload to NULL.
func rawPayload(data json.RawMessage) interface{} {
	if len(data) == 0 {
		return nil
	}
	return []byte(data)
}
