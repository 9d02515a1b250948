package memory

import (
	"context"
	"testing"

	"github.com/xtralabs/xtra-server/internal/domain"
	apperrors "github.com/xtralabs/xtra-server/internal/errors"
)

func TestCreateWithProfileAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	user := &domain.User{ID: "u1", Email: "a@x.com", BusinessProfileID: "p1"}
	profile := &domain.BusinessProfile{ID: "p1", UserID: "u1"}

	if err := s.CreateWithProfile(ctx, user, profile); err != nil {
		t.Fatalf("CreateWithProfile failed: %v", err)
	}

	byID, err := s.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != "a@x.com" {
		t.Errorf("Email: got %q", byID.Email)
	}
	if byID.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set on create")
	}

	byEmail, err := s.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("ID: got %q", byEmail.ID)
	}
}

func TestCreateWithProfileConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &domain.User{ID: "u1", Email: "a@x.com", DisplayName: "Alice"}
	if err := s.CreateWithProfile(ctx, first, &domain.BusinessProfile{ID: "p1", UserID: "u1"}); err != nil {
		t.Fatalf("CreateWithProfile failed: %v", err)
	}

	dup := &domain.User{ID: "u2", Email: "a@x.com", DisplayName: "Impostor"}
	err := s.CreateWithProfile(ctx, dup, &domain.BusinessProfile{ID: "p2", UserID: "u2"})
	if !apperrors.IsCode(err, apperrors.CodeAlreadyExists) {
		t.Fatalf("Duplicate email should fail with already_exists, got %v", err)
	}

	// Neither the duplicate user nor its profile may have been persisted
	if _, err := s.GetByID(ctx, "u2"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Error("Failed create must not leave a partial user behind")
	}

	existing, err := s.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if existing.DisplayName != "Alice" {
		t.Errorf("Existing account must be unchanged, got %q", existing.DisplayName)
	}
}

func TestGetMissing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.GetByID(ctx, "missing"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("GetByID of missing user should be not_found, got %v", err)
	}
	if _, err := s.GetByEmail(ctx, "missing@x.com"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("GetByEmail of missing user should be not_found, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	user := &domain.User{ID: "u1", Email: "a@x.com", DisplayName: "Alice"}
	if err := s.CreateWithProfile(ctx, user, &domain.BusinessProfile{ID: "p1", UserID: "u1"}); err != nil {
		t.Fatalf("CreateWithProfile failed: %v", err)
	}

	got, _ := s.GetByID(ctx, "u1")
	got.DisplayName = "Mutated"

	again, _ := s.GetByID(ctx, "u1")
	if again.DisplayName != "Alice" {
		t.Error("Mutating a returned user must not affect the stored record")
	}
}
