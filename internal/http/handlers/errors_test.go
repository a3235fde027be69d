package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookbus/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondDomainError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Reject(domain.ErrInvalidDate, "2026-11-03"), http.StatusUnprocessableEntity, "invalid_date"},
		{domain.ErrInvalidSegment, http.StatusUnprocessableEntity, "invalid_segment"},
		{domain.Reject(domain.ErrSeatUnavailable, "seat 1"), http.StatusConflict, "seat_unavailable"},
		{domain.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
		{domain.ErrNotCancellable, http.StatusConflict, "not_cancellable"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.ErrStopNotFound, http.StatusNotFound, "stop_not_found"},
		{domain.ErrConcurrencyConflict, http.StatusConflict, "concurrency_conflict"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{domain.ValidationError{Field: "name", Msg: "is required"}, http.StatusBadRequest, "validation_error"},
		{domain.NotFoundError{Resource: "bus"}, http.StatusNotFound, "not_found"},
		{domain.ConflictError{Resource: "bus", Msg: "has bookings"}, http.StatusConflict, "conflict"},
		{domain.InternalError{Msg: "bus route is misconfigured"}, http.StatusInternalServerError, "internal_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondDomainError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestRespondDomainErrorHidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondDomainError(c, errors.New("dial tcp 10.0.0.3:3306: connection refused"))
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}

func TestRespondDomainErrorLogsRequestAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hook := logtest.NewGlobal()
	defer hook.Reset()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/unrouted", nil)

	RespondDomainError(c, errors.New("boom"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "POST /api/unrouted", entry.Data["action"])
	assert.Equal(t, "POST /api/unrouted failed", entry.Message)
}
