package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkpoint/forkpoint-backend/pkg/config"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/identity"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: 15 * time.Minute,
		Issuer:       "forkpoint",
	}
}

func signToken(t *testing.T, cfg *config.JWTConfig, claims identity.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	require.NoError(t, err)
	return signed
}

func TestVerifier_Verify(t *testing.T) {
	cfg := testJWTConfig()
	verifier := identity.NewVerifier(cfg)

	now := time.Now()
	tokenString := signToken(t, cfg, identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		StaffID: "staff-1",
		Email:   "dana@forkpoint.test",
		Name:    "Dana Kitchen",
		Role:    identity.RoleStaff,
	})

	staff, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "Dana Kitchen", staff.Name)
	assert.Equal(t, "dana@forkpoint.test", staff.Email)
	assert.False(t, staff.Privileged())
}

func TestVerifier_Verify_Expired(t *testing.T) {
	cfg := testJWTConfig()
	verifier := identity.NewVerifier(cfg)

	past := time.Now().Add(-time.Hour)
	tokenString := signToken(t, cfg, identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Minute)),
		},
		StaffID: "staff-1",
		Role:    identity.RoleStaff,
	})

	_, err := verifier.Verify(tokenString)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrIdentityRequired))
}

func TestVerifier_Verify_WrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	verifier := identity.NewVerifier(cfg)

	now := time.Now()
	tokenString := signToken(t, cfg, identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		StaffID: "staff-1",
	})

	_, err := verifier.Verify(tokenString)
	require.Error(t, err)
}

func TestCurrentStaff(t *testing.T) {
	staff := &identity.Staff{Name: "Morgan Shift", Email: "morgan@forkpoint.test", Role: identity.RoleManager}

	ctx := identity.WithStaff(context.Background(), staff)
	got, err := identity.CurrentStaff(ctx)
	require.NoError(t, err)
	assert.Equal(t, staff, got)
	assert.True(t, got.Privileged())

	_, err = identity.CurrentStaff(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrIdentityRequired))
}
