package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitrack/api/models"
	"visitrack/api/store"
)

func newFactStore(t *testing.T) (*store.FactStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")
	t.Cleanup(func() { db.Close() })

	return store.NewFactStore(db), mock
}

func fkViolation() *pq.Error {
	return &pq.Error{Code: "23503"}
}

func TestInsertEvent(t *testing.T) {
	payload := json.RawMessage(`{"x":12,"y":40}`)

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantID    int64
		wantErr   error
	}{
		{
			name: "inserts and returns sequence id",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INSERT INTO events").
					WithArgs("v-1", "click", []byte(payload), "/pricing", "sess-1").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))
			},
			wantID: 17,
		},
		{
			name: "foreign key violation maps to unknown visitor",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INSERT INTO events").
					WillReturnError(fkViolation())
			},
			wantErr: store.ErrUnknownVisitor,
		},
		{
			name: "storage error propagates",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("INSERT INTO events").
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newFactStore(t)
			tc.setupMock(mock)

			id, err := s.InsertEvent(context.Background(), models.EventRequest{
				VisitorID: "v-1",
				EventType: "click",
				EventData: payload,
				PageURL:   "/pricing",
				SessionID: "sess-1",
			})

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsertEvent_NilPayloadStoredAsNull(t *testing.T) {
	s, mock := newFactStore(t)

	mock.ExpectQuery("INSERT INTO events").
		WithArgs("v-1", "scroll", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, err := s.InsertEvent(context.Background(), models.EventRequest{
		VisitorID: "v-1",
		EventType: "scroll",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPageView_ClampsBounds(t *testing.T) {
	testCases := []struct {
		name            string
		timeSpent       int
		scrollDepth     int
		wantTimeSpent   int
		wantScrollDepth int
	}{
		{"defaults to zero", 0, 0, 0, 0},
		{"negative time spent clamped", -5, 30, 0, 30},
		{"scroll depth capped at 100", 40, 150, 40, 100},
		{"negative scroll depth clamped", 40, -1, 40, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newFactStore(t)

			mock.ExpectQuery("INSERT INTO page_views").
				WithArgs("v-1", "/home", nil, nil, tc.wantTimeSpent, tc.wantScrollDepth).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

			_, err := s.InsertPageView(context.Background(), models.PageViewRequest{
				VisitorID:   "v-1",
				PageURL:     "/home",
				TimeSpent:   tc.timeSpent,
				ScrollDepth: tc.scrollDepth,
			})

			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestInsertRegistration_UnknownVisitor(t *testing.T) {
	s, mock := newFactStore(t)

	mock.ExpectQuery("INSERT INTO registrations").
		WillReturnError(fkViolation())

	_, err := s.InsertRegistration(context.Background(), models.RegistrationRequest{
		VisitorID: "ghost",
		Email:     "a@b.com",
	})

	assert.ErrorIs(t, err, store.ErrUnknownVisitor)
}

func TestLatestRegistration_AbsenceIsNotAnError(t *testing.T) {
	s, mock := newFactStore(t)

	mock.ExpectQuery("SELECT (.+) FROM registrations").
		WithArgs("v-1").
		WillReturnError(sql.ErrNoRows)

	reg, err := s.LatestRegistration(context.Background(), "v-1")
	require.NoError(t, err)
	assert.Nil(t, reg)
}

func TestListRegistrations_LeftJoinKeepsNullEnrichment(t *testing.T) {
	s, mock := newFactStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "visitor_id", "email", "name", "phone", "registration_data",
		"registered_at", "ip_address", "city", "country", "device_type",
	}).
		AddRow(int64(2), "v-2", "b@b.com", "Bob", nil, []byte(`{"plan":"pro"}`), now, "1.2.3.4", "Sao Paulo", "BR", "mobile").
		AddRow(int64(1), "v-1", "a@a.com", nil, nil, nil, now.Add(-time.Minute), nil, nil, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM registrations r").
		WithArgs(50, 0).
		WillReturnRows(rows)

	registrations, err := s.ListRegistrations(context.Background(), 50, 0)
	require.NoError(t, err)
	require.Len(t, registrations, 2)

	require.NotNil(t, registrations[0].Country)
	assert.Equal(t, "BR", *registrations[0].Country)

	// Registration without visitor enrichment stays, null-filled.
	assert.Equal(t, "a@a.com", registrations[1].Email)
	assert.Nil(t, registrations[1].Country)
	assert.Nil(t, registrations[1].DeviceType)
}

func TestFactCounts(t *testing.T) {
	s, mock := newFactStore(t)

	mock.ExpectQuery("SELECT COUNT(.+) FROM events").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT(.+) FROM page_views").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))
	mock.ExpectQuery("SELECT COUNT(.+) FROM registrations").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	events, err := s.CountEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, events)

	views, err := s.CountPageViews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, views)

	regs, err := s.CountRegistrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, regs)
}
