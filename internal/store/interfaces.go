// Package store defines repository interfaces for persistence.
package store

import (
	"context"

	"github.com/xtralabs/xtra-server/internal/domain"
)

// UserRepository defines operations for account persistence.
//
// CreateWithProfile must be atomic: either the user and its business
// profile are both persisted or neither is, and it must fail with an
// already_exists error when the email is taken.
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *domain.User, profile *domain.BusinessProfile) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
