// Package session mints and verifies the application's own session tokens,
// independent of any provider-issued tokens.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xtralabs/xtra-server/internal/errors"
)

// Claims asserts a local account identity inside a session token.
type Claims struct {
	UserID            string `json:"userId"`
	Email             string `json:"email"`
	BusinessProfileID string `json:"businessProfileId,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a server-held secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// IssuerOption configures the Issuer.
type IssuerOption func(*Issuer)

// WithLogger sets the logger for the issuer.
func WithLogger(logger *slog.Logger) IssuerOption {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an Issuer signing HS256 tokens valid for ttl.
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Issue signs the claims with the standard expiry.
func (i *Issuer) Issue(claims Claims) (string, error) {
	now := i.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token. Signature mismatch, expiry
// and malformed tokens all collapse to the same unauthorized error so that
// callers protecting routes cannot be used as an oracle; the underlying
// reason is kept for logs only.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))

	if err != nil {
		i.logger.Debug("session token rejected", "error", err)
		return nil, apperrors.Unauthorized("invalid or expired session")
	}
	if !token.Valid {
		return nil, apperrors.Unauthorized("invalid or expired session")
	}

	return claims, nil
}
