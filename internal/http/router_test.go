package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	intconfig "bookbus/internal/config"
	h "bookbus/internal/http/handlers"

	"github.com/stretchr/testify/assert"
)

func TestRouterGuardsAndValidation(t *testing.T) {
	r := NewRouter(intconfig.Env{GinMode: "test"}, h.API{Secret: []byte("s"), Location: time.UTC})

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/search?from=abc", http.StatusBadRequest},
		{http.MethodGet, "/api/search?date=2026-13-40", http.StatusBadRequest},
		{http.MethodGet, "/api/buses/7/seats", http.StatusBadRequest},
		{http.MethodGet, "/api/buses/7/seats?date=2026-11-02&from=11", http.StatusBadRequest},
		{http.MethodGet, "/api/buses/x", http.StatusBadRequest},
		{http.MethodPost, "/api/bookings", http.StatusUnauthorized},
		{http.MethodGet, "/api/wallet", http.StatusUnauthorized},
		{http.MethodPost, "/api/admin/bookings/complete", http.StatusUnauthorized},
		{http.MethodGet, "/api/operator/buses", http.StatusUnauthorized},
		{http.MethodGet, "/api/nowhere", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}
