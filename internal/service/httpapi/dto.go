package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// ErrorResponse — единый формат ошибки наружу.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// CartItemResponse — позиция корзины вместе с карточкой товара.
type CartItemResponse struct {
	ID          int64  `json:"id"`
	CartID      int64  `json:"cart_id"`
	ProductID   int64  `json:"product_id"`
	Quantity    int32  `json:"quantity"`
	Version     int64  `json:"version"`
	ProductName string `json:"product_name,omitempty"`
	PriceMinor  int64  `json:"price_minor"`
}

// CartResponse — корзина целиком.
type CartResponse struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	Items     []CartItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AddItemRequest — тело POST /api/carts/add-item.
type AddItemRequest struct {
	CartID    int64 `json:"cart_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

// UpdateItemRequest — тело PUT /api/carts/update-item.
type UpdateItemRequest struct {
	ID       int64 `json:"id"`
	Quantity int32 `json:"quantity"`
}

// UserRequest — тело POST /api/users (create-or-update по external_id).
type UserRequest struct {
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
}

// UserResponse — пользователь; корзина прикладывается, если создана.
type UserResponse struct {
	ID         int64         `json:"id"`
	ExternalID string        `json:"external_id"`
	Email      string        `json:"email"`
	FullName   string        `json:"full_name"`
	Cart       *CartResponse `json:"cart,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// OrderLineRequest — одна позиция заказа в запросе рассылки.
type OrderLineRequest struct {
	Name       string `json:"name"`
	Units      int32  `json:"units"`
	PriceMinor int64  `json:"price_minor"`
}

// OrderCostRequest — разбивка стоимости заказа.
type OrderCostRequest struct {
	ShippingMinor int64 `json:"shipping_minor"`
	TaxMinor      int64 `json:"tax_minor"`
	TotalMinor    int64 `json:"total_minor"`
}

// OrderEmailRequest — тело POST /api/order-email/send-order-confirmation.
type OrderEmailRequest struct {
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name"`
	OrderData     struct {
		OrderID string             `json:"order_id"`
		Orders  []OrderLineRequest `json:"orders"`
		Cost    OrderCostRequest   `json:"cost"`
	} `json:"order_data"`
}

// RecipientResultResponse — итог доставки одному получателю.
type RecipientResultResponse struct {
	Recipient string `json:"recipient"`
	Sent      bool   `json:"sent"`
	Reason    string `json:"reason,omitempty"`
}

// DispatchResponse — агрегированный итог рассылки.
type DispatchResponse struct {
	Status     string                    `json:"status"`
	Recipients []RecipientResultResponse `json:"recipients"`
}

func mapItem(item domain.CartItemView) CartItemResponse {
	return CartItemResponse{
		ID:          item.ID,
		CartID:      item.CartID,
		ProductID:   item.ProductID,
		Quantity:    item.Quantity,
		Version:     item.Version,
		ProductName: item.ProductName,
		PriceMinor:  item.PriceMinor,
	}
}

func mapCartView(view domain.CartView) CartResponse {
	items := make([]CartItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, mapItem(item))
	}
	return CartResponse{
		ID:        view.Cart.ID,
		UserID:    view.Cart.UserID,
		Items:     items,
		CreatedAt: view.Cart.CreatedAt,
		UpdatedAt: view.Cart.UpdatedAt,
	}
}

func mapBareItem(item domain.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:        item.ID,
		CartID:    item.CartID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Version:   item.Version,
	}
}

func mapUser(user domain.User, cart *CartResponse) UserResponse {
	return UserResponse{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		Email:      user.Email,
		FullName:   user.FullName,
		Cart:       cart,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

func (r OrderEmailRequest) toNotification() domain.OrderNotification {
	lines := make([]domain.OrderLine, 0, len(r.OrderData.Orders))
	for _, line := range r.OrderData.Orders {
		lines = append(lines, domain.OrderLine{
			Name:       line.Name,
			Units:      line.Units,
			PriceMinor: line.PriceMinor,
		})
	}
	return domain.OrderNotification{
		OrderID:       r.OrderData.OrderID,
		CustomerEmail: r.CustomerEmail,
		CustomerName:  r.CustomerName,
		Lines:         lines,
		Cost: domain.OrderCost{
			ShippingMinor: r.OrderData.Cost.ShippingMinor,
			TaxMinor:      r.OrderData.Cost.TaxMinor,
			TotalMinor:    r.OrderData.Cost.TotalMinor,
		},
	}
}

func mapOutcome(outcome domain.DispatchOutcome) DispatchResponse {
	return DispatchResponse{
		Status: string(outcome.Status()),
		Recipients: []RecipientResultResponse{
			{
				Recipient: string(outcome.Customer.Recipient),
				Sent:      outcome.Customer.Sent,
				Reason:    outcome.Customer.Reason,
			},
			{
				Recipient: string(outcome.Admin.Recipient),
				Sent:      outcome.Admin.Sent,
				Reason:    outcome.Admin.Reason,
			},
		},
	}
}
