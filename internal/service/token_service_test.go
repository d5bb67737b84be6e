package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/jury-scheduler-api/pkg/errors"
)

func signTestToken(t *testing.T, method jwt.SigningMethod, secret string, expires time.Time) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		Email:  "admin@example.edu",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService("secret")

	claims, err := svc.ValidateToken(signTestToken(t, jwt.SigningMethodHS256, "secret", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewTokenService("secret")

	cases := map[string]string{
		"wrong secret": signTestToken(t, jwt.SigningMethodHS256, "other", time.Now().Add(time.Hour)),
		"expired":      signTestToken(t, jwt.SigningMethodHS256, "secret", time.Now().Add(-time.Hour)),
		"wrong method": signTestToken(t, jwt.SigningMethodHS512, "secret", time.Now().Add(time.Hour)),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assertAppErrorCode(t, err, appErrors.ErrUnauthorized.Code)
		})
	}
}
