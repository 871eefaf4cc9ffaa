package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
// Мьютекс репозитория играет роль той же точки сериализации, что и
// транзакции PostgreSQL в боевой реализации.
type cartRepositoryInMemory struct {
	mu         sync.RWMutex
	carts      map[int64]domain.Cart
	cartByUser map[int64]int64
	items      map[int64]domain.CartItem
	nextCartID int64
	nextItemID int64
}

// NewCartRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		carts:      make(map[int64]domain.Cart),
		cartByUser: make(map[int64]int64),
		items:      make(map[int64]domain.CartItem),
	}
}

// CreateCart создаёт корзину, атомарно проверяя "одна корзина на пользователя".
func (r *cartRepositoryInMemory) CreateCart(userID int64) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cartByUser[userID]; exists {
		return domain.Cart{}, domain.ErrCartExists
	}

	r.nextCartID++
	now := time.Now().UTC()
	cart := domain.Cart{
		ID:        r.nextCartID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.carts[cart.ID] = cart
	r.cartByUser[userID] = cart.ID
	return cart, nil
}

// GetCart возвращает корзину или ErrCartNotFound.
func (r *cartRepositoryInMemory) GetCart(id int64) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cart, nil
}

// GetCartByUser возвращает корзину пользователя или ErrCartNotFound.
func (r *cartRepositoryInMemory) GetCartByUser(userID int64) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cartID, ok := r.cartByUser[userID]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return r.carts[cartID], nil
}

// ListItems возвращает позиции корзины, отсортированные по возрастанию ID.
func (r *cartRepositoryInMemory) ListItems(cartID int64) ([]domain.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.CartItem, 0)
	for _, item := range r.items {
		if item.CartID != cartID {
			continue
		}
		result = append(result, item)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// GetItem возвращает позицию или ErrCartItemNotFound.
func (r *cartRepositoryInMemory) GetItem(id int64) (domain.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	return item, nil
}

// GetItemByProduct ищет позицию по паре (cartID, productID).
func (r *cartRepositoryInMemory) GetItemByProduct(cartID, productID int64) (domain.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items {
		if item.CartID == cartID && item.ProductID == productID {
			return item, nil
		}
	}
	return domain.CartItem{}, domain.ErrCartItemNotFound
}

// InsertItem вставляет новую позицию, проверяя уникальность (cart_id, product_id).
func (r *cartRepositoryInMemory) InsertItem(item domain.CartItem) (domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[item.CartID]; !ok {
		return domain.CartItem{}, domain.ErrCartNotFound
	}
	for _, existing := range r.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			return domain.CartItem{}, domain.ErrCartItemExists
		}
	}

	r.nextItemID++
	now := time.Now().UTC()
	item.ID = r.nextItemID
	item.Version = 0
	item.CreatedAt = now
	item.UpdatedAt = now
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[item.ID] = item
	return item, nil
}

// UpdateItem перезаписывает позицию, проверяя версию (optimistic locking).
func (r *cartRepositoryInMemory) UpdateItem(item domain.CartItem) (domain.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[item.ID]
	if !ok {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	if current.Version != item.Version {
		return domain.CartItem{}, domain.ErrItemVersionConflict
	}

	// Инкрементируем версию перед сохранением.
	item.Version++
	item.CartID = current.CartID
	item.ProductID = current.ProductID
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = item
	return item, nil
}

// DeleteItem удаляет позицию; повторное удаление — ErrCartItemNotFound.
func (r *cartRepositoryInMemory) DeleteItem(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCartItemNotFound
	}
	delete(r.items, id)
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
