package identity

import (
	"context"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// MockVerifier — конфигурируемая заглушка TokenVerifier для тестов.
type MockVerifier struct {
	Claims Claims
	Err    error

	VerifyCalls int
}

// NewMockVerifier возвращает верификатор с успешным сценарием по умолчанию.
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{
		Claims: Claims{
			ExternalID: "ext-1",
			Email:      "user@example.com",
			FullName:   "Test User",
		},
	}
}

// Verify возвращает заранее настроенные claims и считает вызовы.
func (m *MockVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	m.VerifyCalls++
	return m.Claims, m.Err
}

var _ TokenVerifier = (*MockVerifier)(nil)

// MockResolver — конфигурируемая заглушка IdentityResolver для тестов.
type MockResolver struct {
	UserID int64
	Err    error

	ResolveCalls int
	LastToken    string
}

// NewMockResolver возвращает резолвер с успешным сценарием по умолчанию.
func NewMockResolver() *MockResolver {
	return &MockResolver{UserID: 1}
}

// Resolve возвращает настроенный результат и считает вызовы.
func (m *MockResolver) Resolve(ctx context.Context, token string) (int64, error) {
	m.ResolveCalls++
	m.LastToken = token
	return m.UserID, m.Err
}

var _ domain.IdentityResolver = (*MockResolver)(nil)
