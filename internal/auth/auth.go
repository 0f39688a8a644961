// Package auth authenticates portal callers from HS256 bearer tokens and
// carries the resulting principal through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// PermissionAdmin grants every operation.
	PermissionAdmin = "admin"

	// PermissionSync allows triggering accounting syncs.
	PermissionSync = "quickbooks:sync"

	// SystemUserID identifies runs started by the scheduler rather than a person.
	SystemUserID = "system"

	// issuer is the iss claim written and required on tokens.
	issuer = "booksync"
)

// Principal is an authenticated caller.
type Principal struct {
	// Email is the caller's email address, if known.
	Email string

	// OrganizationID is the organization the caller acts for.
	OrganizationID string

	// Permissions lists the caller's granted permissions.
	Permissions []string

	// UserID is the caller's identifier.
	UserID string
}

// CanSync reports whether the principal may trigger a sync.
func (p *Principal) CanSync() bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Permissions, PermissionSync) || slices.Contains(p.Permissions, PermissionAdmin)
}

// SystemPrincipal returns the principal scheduled runs act as.
func SystemPrincipal(organizationID string) *Principal {
	return &Principal{
		OrganizationID: organizationID,
		Permissions:    []string{PermissionAdmin},
		UserID:         SystemUserID,
	}
}

// Claims is the JWT payload issued to portal users.
type Claims struct {
	Email          string   `json:"email,omitempty"`
	OrganizationID string   `json:"org"`
	Permissions    []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator signs and validates HS256 tokens.
type Authenticator struct {
	// now returns the current time.
	now func() time.Time

	// secret is the HMAC signing key.
	secret []byte
}

// NewAuthenticator creates an Authenticator for the given signing secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &Authenticator{
		now:    time.Now,
		secret: []byte(secret),
	}, nil
}

// GenerateToken issues a token for p that expires after ttl.
func (a *Authenticator) GenerateToken(p *Principal, ttl time.Duration) (string, error) {
	if p == nil || p.UserID == "" {
		return "", errors.New("principal with user ID is required")
	}

	now := a.now()
	claims := &Claims{
		Email:          p.Email,
		OrganizationID: p.OrganizationID,
		Permissions:    p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   p.UserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies tokenString and returns the principal it names.
func (a *Authenticator) ValidateToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("missing sub (user ID) in token")
	}
	if claims.OrganizationID == "" {
		return nil, errors.New("missing org (organization ID) in token")
	}

	return &Principal{
		Email:          claims.Email,
		OrganizationID: claims.OrganizationID,
		Permissions:    claims.Permissions,
		UserID:         claims.Subject,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("bearer token required")
	}
	return strings.TrimSpace(token), nil
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
