package catalog

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// MockLookup — конфигурируемая заглушка ProductLookup для тестов.
type MockLookup struct {
	mu       sync.Mutex
	Products map[int64]domain.Product
	Err      error

	LookupCalls int
}

// NewMockLookup возвращает каталог с пустым набором товаров.
func NewMockLookup() *MockLookup {
	return &MockLookup{Products: make(map[int64]domain.Product)}
}

// Add регистрирует товар в каталоге.
func (m *MockLookup) Add(product domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Products[product.ID] = product
}

// Lookup возвращает настроенную карточку товара и считает вызовы.
func (m *MockLookup) Lookup(ctx context.Context, productID int64) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupCalls++
	if m.Err != nil {
		return domain.Product{}, m.Err
	}
	product, ok := m.Products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

var _ domain.ProductLookup = (*MockLookup)(nil)
