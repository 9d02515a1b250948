// Package pending tracks in-flight authorization requests between the
// time an authorization URL is issued and the provider redirect returns.
package pending

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Take when no entry exists for a state token,
// either because it was never issued, already consumed, or expired.
var ErrNotFound = errors.New("pending authorization not found")

// Store maps anti-CSRF state tokens to PKCE code verifiers.
//
// Take is an atomic lookup-and-remove: of two concurrent calls for the
// same state, at most one receives the verifier. Put overwrites any prior
// entry for the same state (last write wins).
type Store interface {
	Put(ctx context.Context, state, verifier string) error
	Take(ctx context.Context, state string) (string, error)
	Close() error
}
