package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/auth"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/notify"
)

// Handler обслуживает HTTP-поверхность сервиса корзины.
type Handler struct {
	guard      *auth.Guard
	carts      *cart.Service
	dispatcher *notify.Dispatcher
	users      domain.UserRepository
	logger     *logrus.Logger
}

// NewHandler собирает обработчик из сервисов домена.
func NewHandler(guard *auth.Guard, carts *cart.Service, dispatcher *notify.Dispatcher, users domain.UserRepository, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		guard:      guard,
		carts:      carts,
		dispatcher: dispatcher,
		users:      users,
		logger:     logger,
	}
}

// bearerToken достаёт токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetCart отдаёт корзину пользователя; чужая корзина — 401.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	caller, err := h.guard.ResolveIdentity(r.Context(), bearerToken(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "userId must be an integer")
		return
	}
	if err := h.guard.AuthorizeUser(caller, userID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	view, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartView(view))
}

// CreateCart создаёт корзину для вызывающего пользователя.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	caller, err := h.guard.ResolveIdentity(r.Context(), bearerToken(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	created, err := h.carts.CreateCart(caller)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CartResponse{
		ID:        created.ID,
		UserID:    created.UserID,
		Items:     []CartItemResponse{},
		CreatedAt: created.CreatedAt,
		UpdatedAt: created.UpdatedAt,
	})
}

// AddItem кладёт товар в корзину; повторное добавление сливает количества.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	caller, err := h.guard.ResolveIdentity(r.Context(), bearerToken(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if _, err := h.guard.AuthorizeCart(caller, req.CartID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	item, merged, err := h.carts.AddItem(req.CartID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	writeJSON(w, status, mapBareItem(item))
}

// UpdateItem выставляет количество позиции абсолютным значением.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	caller, err := h.guard.ResolveIdentity(r.Context(), bearerToken(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if _, err := h.guard.AuthorizeItem(caller, req.ID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	item, err := h.carts.SetItemQuantity(req.ID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapBareItem(item))
}

// RemoveItem удаляет позицию корзины.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	caller, err := h.guard.ResolveIdentity(r.Context(), bearerToken(r))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "cartItemId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "cartItemId must be an integer")
		return
	}
	if _, err := h.guard.AuthorizeItem(caller, itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.carts.RemoveItem(itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendOrderConfirmation рассылает письма о заказе покупателю и магазину.
// Частичный провал — 207 с разбивкой по получателям, полный — 500.
func (h *Handler) SendOrderConfirmation(w http.ResponseWriter, r *http.Request) {
	var req OrderEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	outcome, err := h.dispatcher.Dispatch(r.Context(), req.toNotification())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	switch outcome.Status() {
	case domain.DispatchPartiallySent:
		status = http.StatusMultiStatus
	case domain.DispatchNothingSent:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, mapOutcome(outcome))
}

// GetUser отдаёт пользователя по внешнему идентификатору вместе с корзиной.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalId")
	if externalID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "externalId is required")
		return
	}

	user, err := h.users.GetByExternalID(externalID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var cartResp *CartResponse
	view, err := h.carts.GetCart(r.Context(), user.ID)
	switch {
	case err == nil:
		mapped := mapCartView(view)
		cartResp = &mapped
	case errors.Is(err, domain.ErrCartNotFound):
		// У пользователя может не быть корзины, это не ошибка.
	default:
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(user, cartResp))
}

// CreateOrUpdateUser регистрирует пользователя либо обновляет его поля.
func (h *Handler) CreateOrUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ExternalID == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "external_id is required")
		return
	}

	existing, err := h.users.GetByExternalID(req.ExternalID)
	if err == nil {
		existing.Email = req.Email
		existing.FullName = req.FullName
		if err := h.users.Update(existing); err != nil {
			h.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mapUser(existing, nil))
		return
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		h.writeDomainError(w, err)
		return
	}

	created, err := h.users.Create(domain.User{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		FullName:   req.FullName,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(created, nil))
}

// writeDomainError сводит доменную ошибку к HTTP-статусу в одном месте.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrCartExists), errors.Is(err, domain.ErrCartItemExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case domain.IsVersionConflict(err):
		writeError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, domain.ErrQuantityInvalid),
		errors.Is(err, domain.ErrUserIDRequired),
		errors.Is(err, domain.ErrCartIDRequired),
		errors.Is(err, domain.ErrProductIDRequired),
		errors.Is(err, domain.ErrExternalIDRequired),
		errors.Is(err, domain.ErrRecipientRequired),
		errors.Is(err, domain.ErrOrderIDRequired),
		errors.Is(err, domain.ErrOrderLinesRequired):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		h.logger.WithError(err).Error("httpapi: unhandled error")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
