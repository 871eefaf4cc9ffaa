package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора пользователя.
	ErrUserIDRequired = errors.New("user_id is required")
	// Ошибка отсутствующего идентификатора корзины.
	ErrCartIDRequired = errors.New("cart_id is required")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка при некорректном количестве товара (< 1).
	ErrQuantityInvalid = errors.New("quantity must be at least 1")
	// Ошибка отсутствующего внешнего идентификатора пользователя.
	ErrExternalIDRequired = errors.New("external_id is required")
	// Ошибка отсутствующего email получателя уведомления.
	ErrRecipientRequired = errors.New("recipient email is required")
	// Ошибка отсутствующего идентификатора заказа в уведомлении.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка пустого списка позиций в уведомлении о заказе.
	ErrOrderLinesRequired = errors.New("order must contain at least one line")
	// ErrUserNotFound возвращается, если пользователь не найден в репозитории.
	ErrUserNotFound = errors.New("user not found")
	// ErrCartNotFound возвращается, если корзина не найдена.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound возвращается, если позиция корзины не найдена
	// (в том числе если она была конкурентно удалена).
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrProductNotFound возвращается каталогом, если товар неизвестен.
	ErrProductNotFound = errors.New("product not found")
	// ErrUserExists сигнализирует о дубле пользователя по внешнему идентификатору.
	ErrUserExists = errors.New("user already exists for external id")
	// ErrCartExists сигнализирует о попытке создать вторую корзину для пользователя.
	ErrCartExists = errors.New("cart already exists for user")
	// ErrCartItemExists сигнализирует о дубле позиции по паре (cart_id, product_id);
	// вызывающая сторона должна слить количества в существующую позицию.
	ErrCartItemExists = errors.New("cart item already exists for product")
	// ErrItemVersionConflict сигнализирует о конфликте версий при условной записи позиции.
	ErrItemVersionConflict = errors.New("cart item version conflict")
	// ErrUnauthorized возвращается, когда identity не разрешается или
	// вызывающий обращается к чужому userId. Чужие корзины и позиции
	// отдаются как NotFound, а не как ErrUnauthorized.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrIdentityUnresolved — внешний резолвер не смог сопоставить токен пользователю.
	ErrIdentityUnresolved = errors.New("identity token could not be resolved")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий позиции.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrItemVersionConflict)
}

// IsNotFound проверяет, относится ли ошибка к отсутствию сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrProductNotFound)
}
