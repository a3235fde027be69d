package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookbus/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func testEngine(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/who", Auth(secret), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentUser(c))
	})
	return r
}

func TestAuthAndRoles(t *testing.T) {
	valid := signed(t, jwt.MapClaims{"user_id": 42, "role": domain.RoleCustomer, "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, jwt.MapClaims{"user_id": 42, "role": domain.RoleCustomer, "exp": time.Now().Add(-time.Hour).Unix()})

	cases := []struct {
		name   string
		header string
		roles  []string
		status int
	}{
		{"no header", "", []string{domain.RoleCustomer}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", []string{domain.RoleCustomer}, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, []string{domain.RoleCustomer}, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", []string{domain.RoleCustomer}, http.StatusUnauthorized},
		{"wrong role", "Bearer " + valid, []string{domain.RoleOperator}, http.StatusForbidden},
		{"ok", "Bearer " + valid, []string{domain.RoleCustomer, domain.RoleAdmin}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			testEngine(tc.roles...).ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"userId":42,"role":"customer"}`, w.Body.String())
			}
		})
	}
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
