package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/xtralabs/xtra-server/internal/domain"
	apperrors "github.com/xtralabs/xtra-server/internal/errors"
	"github.com/xtralabs/xtra-server/internal/session"
	"github.com/xtralabs/xtra-server/internal/store"
)

// Result bundles an authenticated user with a freshly issued session token.
type Result struct {
	User  *domain.User
	Token string
}

// Service provides signup, login and session introspection.
type Service struct {
	users   store.UserRepository
	issuer  *session.Issuer
	lockout *LockoutService
	logger  *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLockout enables failed-attempt lockout.
func WithLockout(lockout *LockoutService) ServiceOption {
	return func(s *Service) {
		s.lockout = lockout
	}
}

// NewService creates a new auth Service.
func NewService(users store.UserRepository, issuer *session.Issuer, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		issuer: issuer,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Signup registers a new account, provisions its business profile and
// issues a session token. Fails with an already_exists error when the
// email is taken; the existing account is never touched.
func (s *Service) Signup(ctx context.Context, email, password, displayName string) (*Result, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if displayName == "" {
		displayName = localPart(email)
	}

	profile := &domain.BusinessProfile{ID: uuid.New().String()}
	user := &domain.User{
		ID:                uuid.New().String(),
		Email:             email,
		PasswordHash:      hash,
		DisplayName:       displayName,
		BusinessProfileID: profile.ID,
	}
	profile.UserID = user.ID

	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID, "email", user.Email)

	return &Result{User: user, Token: token}, nil
}

// Login authenticates credentials and issues a session token. Unknown
// email and wrong password return the identical error so the endpoint
// cannot be used for username enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*Result, error) {
	if s.lockout != nil && s.lockout.IsLocked(email) {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			// Don't reveal whether the account exists
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	valid, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verification error", "error", err)
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if !valid {
		if s.lockout != nil && s.lockout.RecordFailure(email) {
			s.logger.Warn("account locked after repeated failures", "email", email)
		}
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if s.lockout != nil {
		s.lockout.RecordSuccess(email)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)

	return &Result{User: user, Token: token}, nil
}

// Me resolves a session token to the account it asserts. An invalid or
// expired token is unauthorized; a structurally valid token whose account
// no longer exists is not_found.
func (s *Service) Me(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.NotFound("user", claims.UserID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *Service) issueToken(user *domain.User) (string, error) {
	token, err := s.issuer.Issue(session.Claims{
		UserID:            user.ID,
		Email:             user.Email,
		BusinessProfileID: user.BusinessProfileID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
