package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/auth"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/catalog"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/identity"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/notify"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
)

// tableVerifier выдаёт claims по содержимому токена.
type tableVerifier struct{}

func (tableVerifier) Verify(ctx context.Context, token string) (identity.Claims, error) {
	return identity.Claims{
		ExternalID: token,
		Email:      token + "@example.com",
		FullName:   "User " + token,
	}, nil
}

type testEnv struct {
	server *httptest.Server
	sender *notify.MockSender
	lookup *catalog.MockLookup
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	users := memory.NewUserRepository()
	carts := memory.NewCartRepository()
	lookup := catalog.NewMockLookup()
	sender := notify.NewMockSender()

	resolver := identity.NewResolver(tableVerifier{}, users, logger)
	guard := auth.NewGuard(resolver, carts, logger)
	cartSvc := cart.NewServiceWithoutMetrics(carts, lookup, logger)
	dispatcher := notify.NewDispatcher(sender, logger)

	handler := NewHandler(guard, cartSvc, dispatcher, users, logger)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)

	return &testEnv{server: server, sender: sender, lookup: lookup}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.lookup.Add(domain.Product{ID: 7, Name: "Olive Oil", PriceMinor: 899})

	// Корзины ещё нет.
	resp := env.do(t, http.MethodGet, "/api/carts/1", "u-42", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("до создания ожидали 404, получили %d", resp.StatusCode)
	}

	// Создание корзины.
	resp = env.do(t, http.MethodPost, "/api/carts", "u-42", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d", resp.StatusCode)
	}
	created := decode[CartResponse](t, resp)
	if created.ID != 1 || created.UserID != 1 {
		t.Fatalf("неожиданная корзина: %+v", created)
	}

	// Повторное создание — конфликт.
	resp = env.do(t, http.MethodPost, "/api/carts", "u-42", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("повторное создание должно дать 409, получили %d", resp.StatusCode)
	}

	// Добавление товара.
	resp = env.do(t, http.MethodPost, "/api/carts/add-item", "u-42", AddItemRequest{CartID: 1, ProductID: 7, Quantity: 2})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ожидали 201, получили %d", resp.StatusCode)
	}
	item := decode[CartItemResponse](t, resp)
	if item.Quantity != 2 {
		t.Fatalf("ожидали количество 2, получили %d", item.Quantity)
	}

	// Повторное добавление того же товара сливается в одну позицию.
	resp = env.do(t, http.MethodPost, "/api/carts/add-item", "u-42", AddItemRequest{CartID: 1, ProductID: 7, Quantity: 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("слияние должно дать 200, получили %d", resp.StatusCode)
	}
	merged := decode[CartItemResponse](t, resp)
	if merged.ID != item.ID || merged.Quantity != 5 {
		t.Fatalf("неожиданная позиция после слияния: %+v", merged)
	}

	// Корзина содержит одну позицию с карточкой товара.
	resp = env.do(t, http.MethodGet, "/api/carts/1", "u-42", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
	}
	view := decode[CartResponse](t, resp)
	if len(view.Items) != 1 || view.Items[0].Quantity != 5 {
		t.Fatalf("неожиданная корзина: %+v", view)
	}
	if view.Items[0].ProductName != "Olive Oil" || view.Items[0].PriceMinor != 899 {
		t.Fatalf("карточка товара не подтянулась: %+v", view.Items[0])
	}

	// Обновление количества.
	resp = env.do(t, http.MethodPut, "/api/carts/update-item", "u-42", UpdateItemRequest{ID: item.ID, Quantity: 1})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
	}

	// Нулевое количество отвергается, позиция не удаляется.
	resp = env.do(t, http.MethodPut, "/api/carts/update-item", "u-42", UpdateItemRequest{ID: item.ID, Quantity: 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("нулевое количество должно дать 400, получили %d", resp.StatusCode)
	}

	// Удаление позиции.
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/carts/remove-item/%d", item.ID), "u-42", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("ожидали 204, получили %d", resp.StatusCode)
	}

	// Повторное удаление — 404.
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/api/carts/remove-item/%d", item.ID), "u-42", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("повторное удаление должно дать 404, получили %d", resp.StatusCode)
	}
}

func TestCrossUserAccessDenied(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/carts", "u-42", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("подготовка не удалась: %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/api/carts/add-item", "u-42", AddItemRequest{CartID: 1, ProductID: 7, Quantity: 1})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("подготовка не удалась: %d", resp.StatusCode)
	}

	// Чужой запрос по userId отклоняется как неавторизованный,
	// а чужие корзина и позиции выглядят отсутствующими.
	resp = env.do(t, http.MethodGet, "/api/carts/1", "u-99", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("чужой userId должен дать 401, получили %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/api/carts/add-item", "u-99", AddItemRequest{CartID: 1, ProductID: 8, Quantity: 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("чужой add-item должен дать 404, получили %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPut, "/api/carts/update-item", "u-99", UpdateItemRequest{ID: 1, Quantity: 3})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("чужой update-item должен дать 404, получили %d", resp.StatusCode)
	}

	// Существующая чужая позиция и отсутствующая дают одинаковый статус.
	foreign := env.do(t, http.MethodDelete, "/api/carts/remove-item/1", "u-99", nil)
	absent := env.do(t, http.MethodDelete, "/api/carts/remove-item/999", "u-99", nil)
	if foreign.StatusCode != http.StatusNotFound || absent.StatusCode != http.StatusNotFound {
		t.Fatalf("чужая и отсутствующая позиции должны дать 404: чужая=%d, отсутствующая=%d",
			foreign.StatusCode, absent.StatusCode)
	}
}

func TestMissingTokenUnauthorized(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/carts", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("без токена ожидали 401, получили %d", resp.StatusCode)
	}
	body := decode[ErrorResponse](t, resp)
	if body.Error != "unauthorized" {
		t.Fatalf("неожиданное тело ошибки: %+v", body)
	}
}

func TestAddItemValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/carts", "u-42", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("подготовка не удалась: %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/carts/add-item", "u-42", AddItemRequest{CartID: 1, ProductID: 7, Quantity: 0})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("нулевое количество должно дать 400, получили %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/carts/add-item", "u-42", AddItemRequest{CartID: 999, ProductID: 7, Quantity: 1})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("несуществующая корзина должна дать 404, получили %d", resp.StatusCode)
	}
}

func TestUsersEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/users/ext-1", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("неизвестный пользователь должен дать 404, получили %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/users", "", UserRequest{ExternalID: "ext-1", Email: "a@example.com", FullName: "A"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("создание должно дать 201, получили %d", resp.StatusCode)
	}
	created := decode[UserResponse](t, resp)
	if created.ExternalID != "ext-1" || created.Email != "a@example.com" {
		t.Fatalf("неожиданный пользователь: %+v", created)
	}

	// Повторный POST по тому же external_id обновляет поля.
	resp = env.do(t, http.MethodPost, "/api/users", "", UserRequest{ExternalID: "ext-1", Email: "b@example.com", FullName: "B"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("обновление должно дать 200, получили %d", resp.StatusCode)
	}
	updated := decode[UserResponse](t, resp)
	if updated.ID != created.ID || updated.Email != "b@example.com" {
		t.Fatalf("неожиданный пользователь после обновления: %+v", updated)
	}

	resp = env.do(t, http.MethodGet, "/api/users/ext-1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
	}

	resp = env.do(t, http.MethodPost, "/api/users", "", UserRequest{Email: "c@example.com"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("пустой external_id должен дать 400, получили %d", resp.StatusCode)
	}
}

func orderEmailBody() OrderEmailRequest {
	var req OrderEmailRequest
	req.CustomerEmail = "buyer@example.com"
	req.CustomerName = "Ivan"
	req.OrderData.OrderID = "ord-1"
	req.OrderData.Orders = []OrderLineRequest{{Name: "Olive Oil", Units: 2, PriceMinor: 899}}
	req.OrderData.Cost = OrderCostRequest{ShippingMinor: 500, TaxMinor: 100, TotalMinor: 2398}
	return req
}

func TestSendOrderConfirmationStatuses(t *testing.T) {
	t.Run("fully sent", func(t *testing.T) {
		env := newTestEnv(t)

		resp := env.do(t, http.MethodPost, "/api/order-email/send-order-confirmation", "", orderEmailBody())
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
		}
		body := decode[DispatchResponse](t, resp)
		if body.Status != string(domain.DispatchFullySent) {
			t.Fatalf("ожидали fully_sent, получили %s", body.Status)
		}
	})

	t.Run("partially sent", func(t *testing.T) {
		env := newTestEnv(t)
		env.sender.FailFor(notify.DefaultAdminEmail, fmt.Errorf("smtp down"))

		resp := env.do(t, http.MethodPost, "/api/order-email/send-order-confirmation", "", orderEmailBody())
		if resp.StatusCode != http.StatusMultiStatus {
			t.Fatalf("ожидали 207, получили %d", resp.StatusCode)
		}
		body := decode[DispatchResponse](t, resp)
		if body.Status != string(domain.DispatchPartiallySent) {
			t.Fatalf("ожидали partially_sent, получили %s", body.Status)
		}
	})

	t.Run("nothing sent", func(t *testing.T) {
		env := newTestEnv(t)
		env.sender.FailFor(notify.DefaultAdminEmail, fmt.Errorf("smtp down"))
		env.sender.FailFor("buyer@example.com", fmt.Errorf("smtp down"))

		resp := env.do(t, http.MethodPost, "/api/order-email/send-order-confirmation", "", orderEmailBody())
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("ожидали 500, получили %d", resp.StatusCode)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		env := newTestEnv(t)
		req := orderEmailBody()
		req.OrderData.OrderID = ""

		resp := env.do(t, http.MethodPost, "/api/order-email/send-order-confirmation", "", req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("невалидный payload должен дать 400, получили %d", resp.StatusCode)
		}
	})
}
