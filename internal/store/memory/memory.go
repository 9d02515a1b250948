// Package memory provides an in-memory UserRepository implementation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xtralabs/xtra-server/internal/domain"
	apperrors "github.com/xtralabs/xtra-server/internal/errors"
)

// Store is a mutex-guarded in-memory user repository.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*domain.User   // keyed by ID
	byEmail  map[string]string         // email -> ID
	profiles map[string]*domain.BusinessProfile
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]*domain.User),
		byEmail:  make(map[string]string),
		profiles: make(map[string]*domain.BusinessProfile),
	}
}

// CreateWithProfile persists a user and its business profile atomically.
func (s *Store) CreateWithProfile(ctx context.Context, user *domain.User, profile *domain.BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return apperrors.AlreadyExists("user", user.Email)
	}

	now := time.Now()
	u := *user
	u.CreatedAt = now
	u.UpdatedAt = now
	p := *profile
	p.CreatedAt = now
	p.UpdatedAt = now

	s.users[u.ID] = &u
	s.byEmail[u.Email] = u.ID
	s.profiles[p.ID] = &p
	return nil
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	u := *user
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, apperrors.NotFound("user", email)
	}
	u := *s.users[id]
	return &u, nil
}
