package handlers_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/vitrine/internal/handlers"
	"github.com/BradenHooton/vitrine/internal/models"
)

type securityEventsPage struct {
	Events []*handlers.AuditLogResponse `json:"events"`
	Limit  int                          `json:"limit"`
	Offset int                          `json:"offset"`
}

func TestListSecurityEvents_Defaults(t *testing.T) {
	actor := uuid.MustParse(adminID)
	identity := "a@example.com"
	var gotTypes []string
	reader := &handlers.MockAuditReader{
		ListSecurityEventsFunc: func(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
			gotTypes = eventTypes
			return []*models.AuditLog{{
				ID:        uuid.New(),
				EventType: models.AuditEventThrottleReset,
				ActorID:   &actor,
				Identity:  &identity,
				Action:    models.AuditActionReset,
				Success:   true,
				CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	handler := handlers.NewAuditHandler(reader)

	w := httptest.NewRecorder()
	handler.ListSecurityEvents(w, httptest.NewRequest("GET", "/admin/security-events", nil))

	var page securityEventsPage
	handlers.AssertJSONResponse(t, w, 200, &page)
	assert.Nil(t, gotTypes)
	assert.Equal(t, 50, page.Limit)
	assert.Equal(t, 0, page.Offset)
	require.Len(t, page.Events, 1)
	require.NotNil(t, page.Events[0].ActorID)
	assert.Equal(t, adminID, *page.Events[0].ActorID)
	assert.Equal(t, "2026-03-01T12:00:00Z", page.Events[0].CreatedAt)
}

func TestListSecurityEvents_Filters(t *testing.T) {
	var gotTypes []string
	var gotLimit, gotOffset int
	reader := &handlers.MockAuditReader{
		ListSecurityEventsFunc: func(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
			gotTypes, gotLimit, gotOffset = eventTypes, limit, offset
			return []*models.AuditLog{}, nil
		},
	}
	handler := handlers.NewAuditHandler(reader)

	w := httptest.NewRecorder()
	handler.ListSecurityEvents(w, httptest.NewRequest("GET", "/admin/security-events?limit=10&offset=20&type=login_blocked,throttle_engaged", nil))

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, []string{"login_blocked", "throttle_engaged"}, gotTypes)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 20, gotOffset)
}

func TestListSecurityEvents_OutOfRangePaginationFallsBack(t *testing.T) {
	var gotLimit, gotOffset int
	reader := &handlers.MockAuditReader{
		ListSecurityEventsFunc: func(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
			gotLimit, gotOffset = limit, offset
			return []*models.AuditLog{}, nil
		},
	}
	handler := handlers.NewAuditHandler(reader)

	w := httptest.NewRecorder()
	handler.ListSecurityEvents(w, httptest.NewRequest("GET", "/admin/security-events?limit=1000&offset=-1", nil))

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestListSecurityEvents_UnknownType(t *testing.T) {
	handler := handlers.NewAuditHandler(&handlers.MockAuditReader{})

	w := httptest.NewRecorder()
	handler.ListSecurityEvents(w, httptest.NewRequest("GET", "/admin/security-events?type=user_deleted", nil))

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestListSecurityEvents_Error(t *testing.T) {
	reader := &handlers.MockAuditReader{
		ListSecurityEventsFunc: func(ctx context.Context, eventTypes []string, limit, offset int) ([]*models.AuditLog, error) {
			return nil, errors.New("db down")
		},
	}
	handler := handlers.NewAuditHandler(reader)

	w := httptest.NewRecorder()
	handler.ListSecurityEvents(w, httptest.NewRequest("GET", "/admin/security-events", nil))

	handlers.AssertErrorResponse(t, w, 500, "internal_error")
}
