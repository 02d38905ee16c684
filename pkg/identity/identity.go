// Package identity resolves the authenticated staff member attached to a
// request. Tokens are issued by the surrounding application; this package
// only verifies them and exposes the staff context ledger mutations record.
package identity

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/forkpoint/forkpoint-backend/pkg/config"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// Staff is the identity attached to ledger mutations.
type Staff struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Roles known to the ledger. Reversal of history entries requires a
// privileged role.
const (
	RoleStaff   = "staff"
	RoleManager = "manager"
	RoleOwner   = "owner"
)

// Privileged reports whether the staff member may undo history entries.
func (s *Staff) Privileged() bool {
	return s.Role == RoleManager || s.Role == RoleOwner
}

// Claims represents the JWT claims carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	StaffID string `json:"staff_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// Verifier validates access tokens.
type Verifier struct {
	config *config.JWTConfig
}

// NewVerifier creates a new token verifier.
func NewVerifier(cfg *config.JWTConfig) *Verifier {
	return &Verifier{config: cfg}
}

// Verify parses and validates an access token, returning the staff identity.
func (v *Verifier) Verify(tokenString string) (*Staff, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrForbidden
		}
		return []byte(v.config.Secret), nil
	}, jwt.WithIssuer(v.config.Issuer))

	if err != nil || !token.Valid {
		return nil, errors.IdentityRequired()
	}

	return &Staff{
		ID:    claims.StaffID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

type contextKey string

const staffKey contextKey = "staff"

// WithStaff attaches a staff identity to the context.
func WithStaff(ctx context.Context, staff *Staff) context.Context {
	return context.WithValue(ctx, staffKey, staff)
}

// CurrentStaff returns the staff member attached to the context, or an
// IDENTITY_REQUIRED error when there is none.
func CurrentStaff(ctx context.Context) (*Staff, error) {
	staff, ok := ctx.Value(staffKey).(*Staff)
	if !ok || staff == nil {
		return nil, errors.IdentityRequired()
	}
	return staff, nil
}
