package domain

import "time"

// Cart агрегирует корзину пользователя. Инвариант: не более одной корзины
// на пользователя, обеспечивается уникальным ограничением на уровне хранилища.
type Cart struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem представляет одну позицию корзины.
type CartItem struct {
	// ID позиции нужен для однозначной идентификации при обновлении и удалении.
	ID int64
	// CartID — владелец-корзина; владелец позиции выводится транзитивно через неё.
	CartID int64
	// ProductID — внешний идентификатор товара; пара (CartID, ProductID) уникальна.
	ProductID int64
	// Quantity — количество единиц товара, всегда >= 1.
	Quantity int32
	// Version — монотонный счётчик для optimistic locking.
	Version int64
	// CreatedAt фиксирует момент первого добавления товара в корзину.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты позиции и возвращает список замечаний.
func (i *CartItem) ValidateInvariants() []error {
	var errs []error

	if i.CartID <= 0 {
		errs = append(errs, ErrCartIDRequired)
	}
	if i.ProductID <= 0 {
		errs = append(errs, ErrProductIDRequired)
	}
	if i.Quantity < 1 {
		errs = append(errs, ErrQuantityInvalid)
	}

	return errs
}

// Product — read-only представление товара из каталога, используется
// для обогащения позиций корзины именем и ценой.
type Product struct {
	ID         int64
	Name       string
	PriceMinor int64
}

// CartItemView — позиция корзины, обогащённая данными каталога.
type CartItemView struct {
	CartItem
	ProductName string
	PriceMinor  int64
}

// CartView — корзина вместе с позициями для выдачи наружу.
// Плоская структура без обратных ссылок, сериализуется без циклов.
type CartView struct {
	Cart  Cart
	Items []CartItemView
}
