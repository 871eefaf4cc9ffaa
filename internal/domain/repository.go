package domain

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет нового пользователя и возвращает его с присвоенным ID.
	Create(user User) (User, error)
	// GetByID возвращает пользователя или ErrUserNotFound.
	GetByID(id int64) (User, error)
	// GetByExternalID ищет пользователя по внешнему идентификатору.
	GetByExternalID(externalID string) (User, error)
	// Update перезаписывает отображаемые поля пользователя.
	Update(user User) error
}

// CartRepository описывает требования к хранилищу корзин и их позиций.
// Хранилище — единственная точка сериализации конкурентных запросов:
// все read-then-write пути позиций идут через условную запись по версии.
type CartRepository interface {
	// CreateCart создаёт корзину; уникальность по userID обеспечивается
	// атомарно на уровне хранилища, дубль — ErrCartExists.
	CreateCart(userID int64) (Cart, error)
	// GetCart возвращает корзину по ID или ErrCartNotFound.
	GetCart(id int64) (Cart, error)
	// GetCartByUser возвращает корзину пользователя или ErrCartNotFound.
	GetCartByUser(userID int64) (Cart, error)
	// ListItems возвращает позиции корзины в стабильном порядке.
	ListItems(cartID int64) ([]CartItem, error)
	// GetItem возвращает позицию или ErrCartItemNotFound.
	GetItem(id int64) (CartItem, error)
	// GetItemByProduct ищет позицию по паре (cartID, productID).
	GetItemByProduct(cartID, productID int64) (CartItem, error)
	// InsertItem вставляет новую позицию; дубль по (cart_id, product_id)
	// — ErrCartItemExists, отсутствующая корзина — ErrCartNotFound.
	InsertItem(item CartItem) (CartItem, error)
	// UpdateItem применяет условную запись "version == item.Version";
	// при нуле затронутых строк различает ErrCartItemNotFound и
	// ErrItemVersionConflict. Возвращает позицию с инкрементированной версией.
	UpdateItem(item CartItem) (CartItem, error)
	// DeleteItem удаляет позицию; отсутствие — ErrCartItemNotFound.
	DeleteItem(id int64) error
}
