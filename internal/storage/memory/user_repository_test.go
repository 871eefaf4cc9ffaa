package memory_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
)

func TestUserRepository_CreateGet(t *testing.T) {
	repo := memory.NewUserRepository()

	created, err := repo.Create(domain.User{ExternalID: "u-42", Email: "buyer@example.com", FullName: "Buyer"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	byID, err := repo.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if byID.ExternalID != "u-42" {
		t.Fatalf("expected external id u-42, got %s", byID.ExternalID)
	}

	byExternal, err := repo.GetByExternalID("u-42")
	if err != nil {
		t.Fatalf("get by external id failed: %v", err)
	}
	if byExternal.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, byExternal.ID)
	}
}

func TestUserRepository_CreateDuplicateExternalID(t *testing.T) {
	repo := memory.NewUserRepository()

	if _, err := repo.Create(domain.User{ExternalID: "u-42"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.Create(domain.User{ExternalID: "u-42"}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserRepository_Update(t *testing.T) {
	repo := memory.NewUserRepository()

	created, err := repo.Create(domain.User{ExternalID: "u-42", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	created.Email = "new@example.com"
	if err := repo.Update(created); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored, err := repo.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Email != "new@example.com" {
		t.Fatalf("expected updated email, got %s", stored.Email)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	repo := memory.NewUserRepository()

	if _, err := repo.GetByID(999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.GetByExternalID("ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := repo.Update(domain.User{ID: 999}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
