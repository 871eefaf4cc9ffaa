package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartsvc/internal/metrics"
)

// mutateAttempts — бюджет условной записи: первая попытка плюс один
// автоматический перечит после конфликта версий.
const mutateAttempts = 2

// Service реализует операции над корзиной как единым агрегатом.
// Вся конкурентность разруливается версионной записью в хранилище,
// сервис не держит собственных блокировок.
type Service struct {
	carts     domain.CartRepository
	catalog   domain.ProductLookup
	publisher domain.EventPublisher
	metrics   *metrics.CartMetrics
	logger    *logrus.Logger
}

// NewService создаёт сервис корзины с метриками по умолчанию.
func NewService(carts domain.CartRepository, catalog domain.ProductLookup, logger *logrus.Logger) *Service {
	return newService(carts, catalog, nil, metrics.NewCartMetrics(), logger)
}

// NewServiceWithPublisher дополнительно публикует события корзины.
func NewServiceWithPublisher(carts domain.CartRepository, catalog domain.ProductLookup, publisher domain.EventPublisher, logger *logrus.Logger) *Service {
	return newService(carts, catalog, publisher, metrics.NewCartMetrics(), logger)
}

// NewServiceWithoutMetrics — вариант для тестов без глобального registry.
func NewServiceWithoutMetrics(carts domain.CartRepository, catalog domain.ProductLookup, logger *logrus.Logger) *Service {
	return newService(carts, catalog, nil, nil, logger)
}

func newService(carts domain.CartRepository, catalog domain.ProductLookup, publisher domain.EventPublisher, m *metrics.CartMetrics, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		carts:     carts,
		catalog:   catalog,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// CreateCart создаёт пустую корзину пользователя.
// Повторный вызов для того же пользователя — ErrCartExists.
func (s *Service) CreateCart(userID int64) (cart domain.Cart, err error) {
	defer func() { s.recordOp("create_cart", err) }()

	if userID <= 0 {
		return domain.Cart{}, domain.ErrUserIDRequired
	}

	cart, err = s.carts.CreateCart(userID)
	if err != nil {
		return domain.Cart{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"cart_id": cart.ID,
		"user_id": userID,
	}).Info("cart: created")
	s.publishCartEvent(kafka.NewCartEvent(kafka.EventTypeCartCreated, cart.ID, userID))
	return cart, nil
}

// AddItem добавляет товар в корзину. Если товар уже лежит в корзине,
// количества складываются в одну позицию; merged сообщает, какой из
// двух путей сработал.
func (s *Service) AddItem(cartID, productID int64, quantity int32) (item domain.CartItem, merged bool, err error) {
	defer func() { s.recordOp("add_item", err) }()

	if cartID <= 0 {
		return domain.CartItem{}, false, domain.ErrCartIDRequired
	}
	if productID <= 0 {
		return domain.CartItem{}, false, domain.ErrProductIDRequired
	}
	if quantity < 1 {
		return domain.CartItem{}, false, domain.ErrQuantityInvalid
	}

	existing, err := s.carts.GetItemByProduct(cartID, productID)
	switch {
	case err == nil:
		item, err = s.mergeQuantity(existing.ID, quantity)
		if err != nil {
			return domain.CartItem{}, false, err
		}
		merged = true
	case errors.Is(err, domain.ErrCartItemNotFound):
		item, merged, err = s.insertOrMerge(cartID, productID, quantity)
		if err != nil {
			return domain.CartItem{}, false, err
		}
	default:
		return domain.CartItem{}, false, err
	}

	event := kafka.NewCartEvent(kafka.EventTypeItemAdded, cartID, 0)
	event.ItemID = item.ID
	event.ProductID = productID
	event.Quantity = item.Quantity
	s.publishCartEvent(event)
	return item, merged, nil
}

// insertOrMerge пробует вставить новую позицию; проигрыш гонки вставки
// по (cart_id, product_id) сводится к обычному слиянию количеств.
func (s *Service) insertOrMerge(cartID, productID int64, quantity int32) (domain.CartItem, bool, error) {
	item, err := s.carts.InsertItem(domain.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err == nil {
		return item, false, nil
	}
	if !errors.Is(err, domain.ErrCartItemExists) {
		return domain.CartItem{}, false, err
	}

	existing, err := s.carts.GetItemByProduct(cartID, productID)
	if err != nil {
		return domain.CartItem{}, false, fmt.Errorf("cart: re-read item after insert race: %w", err)
	}
	item, err = s.mergeQuantity(existing.ID, quantity)
	if err != nil {
		return domain.CartItem{}, false, err
	}
	return item, true, nil
}

func (s *Service) mergeQuantity(itemID int64, delta int32) (domain.CartItem, error) {
	if s.metrics != nil {
		s.metrics.RecordItemMerge()
	}
	return s.mutateItem(itemID, func(item domain.CartItem) domain.CartItem {
		item.Quantity += delta
		return item
	})
}

// SetItemQuantity выставляет количество позиции абсолютным значением.
// Нулевое или отрицательное количество отвергается: удаление позиции —
// отдельная явная операция.
func (s *Service) SetItemQuantity(itemID int64, quantity int32) (item domain.CartItem, err error) {
	defer func() { s.recordOp("set_item_quantity", err) }()

	if itemID <= 0 {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	if quantity < 1 {
		return domain.CartItem{}, domain.ErrQuantityInvalid
	}

	item, err = s.mutateItem(itemID, func(item domain.CartItem) domain.CartItem {
		item.Quantity = quantity
		return item
	})
	if err != nil {
		return domain.CartItem{}, err
	}

	event := kafka.NewCartEvent(kafka.EventTypeItemUpdated, item.CartID, 0)
	event.ItemID = item.ID
	event.ProductID = item.ProductID
	event.Quantity = item.Quantity
	s.publishCartEvent(event)
	return item, nil
}

// RemoveItem удаляет позицию из корзины. Повторное удаление —
// ErrCartItemNotFound, вызывающая сторона решает, ошибка ли это.
func (s *Service) RemoveItem(itemID int64) (err error) {
	defer func() { s.recordOp("remove_item", err) }()

	item, err := s.carts.GetItem(itemID)
	if err != nil {
		return err
	}
	if err = s.carts.DeleteItem(itemID); err != nil {
		return err
	}

	event := kafka.NewCartEvent(kafka.EventTypeItemRemoved, item.CartID, 0)
	event.ItemID = item.ID
	event.ProductID = item.ProductID
	s.publishCartEvent(event)
	return nil
}

// GetCart собирает корзину пользователя вместе с карточками товаров.
// Товар, выпавший из каталога, отдаётся с пустым именем и нулевой
// ценой: состав корзины важнее полноты витрины.
func (s *Service) GetCart(ctx context.Context, userID int64) (view domain.CartView, err error) {
	defer func() { s.recordOp("get_cart", err) }()

	if userID <= 0 {
		return domain.CartView{}, domain.ErrUserIDRequired
	}

	cart, err := s.carts.GetCartByUser(userID)
	if err != nil {
		return domain.CartView{}, err
	}
	items, err := s.carts.ListItems(cart.ID)
	if err != nil {
		return domain.CartView{}, err
	}

	view = domain.CartView{Cart: cart, Items: make([]domain.CartItemView, 0, len(items))}
	for _, item := range items {
		itemView := domain.CartItemView{CartItem: item}
		product, lookupErr := s.catalog.Lookup(ctx, item.ProductID)
		switch {
		case lookupErr == nil:
			itemView.ProductName = product.Name
			itemView.PriceMinor = product.PriceMinor
		case errors.Is(lookupErr, domain.ErrProductNotFound):
			s.logger.WithField("product_id", item.ProductID).Warn("cart: товар отсутствует в каталоге")
		default:
			return domain.CartView{}, fmt.Errorf("cart: lookup product %d: %w", item.ProductID, lookupErr)
		}
		view.Items = append(view.Items, itemView)
	}
	return view, nil
}

// mutateItem применяет read-then-write мутацию позиции по версионному
// протоколу: перечит и одна повторная попытка после конфликта, дальше
// конфликт отдаётся вызывающей стороне.
func (s *Service) mutateItem(itemID int64, mutate func(domain.CartItem) domain.CartItem) (domain.CartItem, error) {
	var lastErr error
	for attempt := 0; attempt < mutateAttempts; attempt++ {
		item, err := s.carts.GetItem(itemID)
		if err != nil {
			return domain.CartItem{}, err
		}

		updated, err := s.carts.UpdateItem(mutate(item))
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrItemVersionConflict) {
			return domain.CartItem{}, err
		}

		lastErr = err
		if s.metrics != nil {
			s.metrics.RecordVersionConflict()
		}
		s.logger.WithFields(logrus.Fields{
			"item_id": itemID,
			"attempt": attempt + 1,
		}).Warn("cart: конфликт версии позиции, перечитываем")
	}

	if s.metrics != nil {
		s.metrics.RecordConflictSurfaced()
	}
	return domain.CartItem{}, lastErr
}

func (s *Service) recordOp(op string, err error) {
	if s.metrics != nil {
		s.metrics.RecordOp(op, err)
	}
}

func (s *Service) publishCartEvent(event *kafka.CartEvent) {
	if s.publisher == nil {
		return
	}
	key := strconv.FormatInt(event.CartID, 10)
	if err := s.publisher.PublishEvent(kafka.TopicCartEvents, key, event); err != nil {
		// Публикация событий best-effort, операция корзины уже завершена.
		s.logger.WithError(err).Warn("cart: не удалось опубликовать событие")
	}
}
