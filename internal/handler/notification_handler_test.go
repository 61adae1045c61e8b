package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/vetlink-api/internal/middleware"
	"github.com/vetlink/vetlink-api/internal/models"
	"github.com/vetlink/vetlink-api/internal/service"
	"github.com/vetlink/vetlink-api/pkg/response"
)

type notificationStoreMock struct {
	byRecipient map[string][]models.Notification
	gotLimit    int
}

func (m *notificationStoreMock) ListByRecipient(_ context.Context, recipientUserID string, limit int) ([]models.Notification, error) {
	m.gotLimit = limit
	return m.byRecipient[recipientUserID], nil
}

func newNotificationHandler(store *notificationStoreMock) *NotificationHandler {
	return NewNotificationHandler(service.NewNotificationService(store, nil))
}

func TestNotificationHandlerListReturnsCallerFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	created := time.Date(2025, 7, 9, 15, 0, 0, 0, time.UTC)
	store := &notificationStoreMock{byRecipient: map[string][]models.Notification{
		"owner-1": {
			{ID: "n-2", RecipientUserID: "owner-1", Kind: models.NotificationAppointmentRescheduled, AppointmentID: "appt-1", CreatedAt: created.Add(time.Hour)},
			{ID: "n-1", RecipientUserID: "owner-1", Kind: models.NotificationAppointmentBooked, AppointmentID: "appt-1", CreatedAt: created},
		},
		"owner-2": {
			{ID: "n-9", RecipientUserID: "owner-2", Kind: models.NotificationAppointmentCancelled, AppointmentID: "appt-9", CreatedAt: created},
		},
	}}
	handler := newNotificationHandler(store)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/notifications?limit=10", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: "pet_owner"})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, store.gotLimit)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	items := envelope.Data.([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "n-2", first["id"])
}

func TestNotificationHandlerListEmptyFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNotificationHandler(&notificationStoreMock{byRecipient: map[string][]models.Notification{}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-3", Role: "pet_owner"})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)
	items, _ := envelope.Data.([]interface{})
	assert.Empty(t, items)
}

func TestNotificationHandlerListMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNotificationHandler(&notificationStoreMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotificationHandlerListBadLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newNotificationHandler(&notificationStoreMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/notifications?limit=lots", nil)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1", Role: "pet_owner"})

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
