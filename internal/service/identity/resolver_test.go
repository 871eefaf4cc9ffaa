package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
)

func newTestResolver(verifier TokenVerifier) (*Resolver, domain.UserRepository) {
	users := memory.NewUserRepository()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewResolver(verifier, users, logger), users
}

func TestResolveEmptyToken(t *testing.T) {
	resolver, _ := newTestResolver(NewMockVerifier())

	if _, err := resolver.Resolve(context.Background(), "   "); !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("ожидали ErrIdentityUnresolved для пустого токена, получили %v", err)
	}
}

func TestResolveVerifierFailure(t *testing.T) {
	verifier := NewMockVerifier()
	verifier.Err = errors.New("signature mismatch")
	resolver, _ := newTestResolver(verifier)

	if _, err := resolver.Resolve(context.Background(), "token"); !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("ожидали ErrIdentityUnresolved при сбое верификации, получили %v", err)
	}
	if verifier.VerifyCalls != 1 {
		t.Fatalf("ожидали 1 вызов Verify, получили %d", verifier.VerifyCalls)
	}
}

func TestResolveEmptyExternalID(t *testing.T) {
	verifier := NewMockVerifier()
	verifier.Claims = Claims{}
	resolver, _ := newTestResolver(verifier)

	if _, err := resolver.Resolve(context.Background(), "token"); !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("ожидали ErrIdentityUnresolved при пустом external id, получили %v", err)
	}
}

func TestResolveRegistersFirstTimeUser(t *testing.T) {
	resolver, users := newTestResolver(NewMockVerifier())

	id, err := resolver.Resolve(context.Background(), "token")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	user, err := users.GetByID(id)
	if err != nil {
		t.Fatalf("пользователь не создан: %v", err)
	}
	if user.ExternalID != "ext-1" || user.Email != "user@example.com" {
		t.Fatalf("неожиданные данные пользователя: %+v", user)
	}
}

func TestResolveReturnsExistingUser(t *testing.T) {
	resolver, users := newTestResolver(NewMockVerifier())

	existing, err := users.Create(domain.User{ExternalID: "ext-1", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	id, err := resolver.Resolve(context.Background(), "token")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if id != existing.ID {
		t.Fatalf("ожидали ID существующего пользователя %d, получили %d", existing.ID, id)
	}
}

func TestResolveIsIdempotentAcrossCalls(t *testing.T) {
	resolver, _ := newTestResolver(NewMockVerifier())

	first, err := resolver.Resolve(context.Background(), "token")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	second, err := resolver.Resolve(context.Background(), "token")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if first != second {
		t.Fatalf("повторное разрешение должно вернуть того же пользователя: %d != %d", first, second)
	}
}
