package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	svc := AuthService{Secret: secret, Now: time.Now}

	raw, err := svc.token(models.User{ID: 42, Role: domain.RoleOperator})
	require.NoError(t, err)

	rc, err := ParseToken(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestContext{UserID: 42, Role: domain.RoleOperator}, rc)

	_, err = ParseToken([]byte("other"), raw)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	expired := AuthService{Secret: secret, Now: func() time.Time { return time.Now().Add(-48 * time.Hour) }}
	raw, err = expired.token(models.User{ID: 42, Role: domain.RoleCustomer})
	require.NoError(t, err)
	_, err = ParseToken(secret, raw)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestSixDigits(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := sixDigits()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestStartRegistrationValidatesBeforeLookup(t *testing.T) {
	svc := AuthService{}
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"short username": {Username: "ab", Email: "a@example.com", Password: "longenough"},
		"short password": {Username: "alice", Email: "a@example.com", Password: "short"},
		"bad email":      {Username: "alice", Email: "not-an-email", Password: "longenough"},
		"admin role":     {Username: "alice", Email: "a@example.com", Password: "longenough", Role: domain.RoleAdmin},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, domain.IsValidation(svc.StartRegistration(ctx, in)))
		})
	}
}
