package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Cart события
	EventTypeCartCreated EventType = "cart.created"
	EventTypeItemAdded   EventType = "cart.item_added"
	EventTypeItemUpdated EventType = "cart.item_updated"
	EventTypeItemRemoved EventType = "cart.item_removed"

	// Notification события
	EventTypeOrderNotified EventType = "notify.order_dispatched"
)

// Topics для Kafka
const (
	TopicCartEvents   = "cartsvc.cart.events"
	TopicNotifyEvents = "cartsvc.notify.events"
)

// CartEvent представляет событие корзины
type CartEvent struct {
	EventType EventType `json:"event_type"`
	CartID    int64     `json:"cart_id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id,omitempty"`
	ProductID int64     `json:"product_id,omitempty"`
	Quantity  int32     `json:"quantity,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyEvent представляет итог рассылки уведомления о заказе
type NotifyEvent struct {
	EventType  EventType `json:"event_type"`
	DispatchID string    `json:"dispatch_id"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	Failed     []string  `json:"failed,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCartEvent создает новое событие корзины
func NewCartEvent(eventType EventType, cartID, userID int64) *CartEvent {
	return &CartEvent{
		EventType: eventType,
		CartID:    cartID,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// NewNotifyEvent создает событие об итоге рассылки
func NewNotifyEvent(dispatchID, orderID, status string, failed []string) *NotifyEvent {
	return &NotifyEvent{
		EventType:  EventTypeOrderNotified,
		DispatchID: dispatchID,
		OrderID:    orderID,
		Status:     status,
		Failed:     failed,
		Timestamp:  time.Now(),
	}
}
