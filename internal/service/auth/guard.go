package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// Guard проверяет владение корзинами и позициями.
// Чужая корзина или позиция отдаётся как отсутствующая, чтобы по
// ответу нельзя было перебирать чужие ID.
type Guard struct {
	resolver domain.IdentityResolver
	carts    domain.CartRepository
	logger   *logrus.Logger
}

// NewGuard создаёт guard поверх резолвера и репозитория корзин.
func NewGuard(resolver domain.IdentityResolver, carts domain.CartRepository, logger *logrus.Logger) *Guard {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Guard{resolver: resolver, carts: carts, logger: logger}
}

// ResolveIdentity превращает токен запроса во внутренний ID пользователя.
// Любой сбой идентификации отдаётся как ErrUnauthorized.
func (g *Guard) ResolveIdentity(ctx context.Context, token string) (int64, error) {
	userID, err := g.resolver.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityUnresolved) {
			return 0, domain.ErrUnauthorized
		}
		g.logger.WithError(err).Error("auth: identity resolution failed")
		return 0, fmt.Errorf("auth: resolve identity: %w", err)
	}
	return userID, nil
}

// AuthorizeUser проверяет, что вызывающий обращается к своим данным.
func (g *Guard) AuthorizeUser(callerID, userID int64) error {
	if callerID != userID {
		g.logger.WithFields(logrus.Fields{
			"caller_id": callerID,
			"user_id":   userID,
		}).Warn("auth: cross-user access denied")
		return domain.ErrUnauthorized
	}
	return nil
}

// AuthorizeCart проверяет, что корзина существует и принадлежит вызывающему.
func (g *Guard) AuthorizeCart(callerID, cartID int64) (domain.Cart, error) {
	cart, err := g.carts.GetCart(cartID)
	if err != nil {
		return domain.Cart{}, err
	}
	if cart.UserID != callerID {
		g.logger.WithFields(logrus.Fields{
			"caller_id": callerID,
			"cart_id":   cartID,
			"owner_id":  cart.UserID,
		}).Warn("auth: cart access denied")
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return cart, nil
}

// AuthorizeItem проверяет владение позицией транзитивно через её корзину.
// Позиция в чужой корзине отдаётся как ErrCartItemNotFound.
func (g *Guard) AuthorizeItem(callerID, itemID int64) (domain.CartItem, error) {
	item, err := g.carts.GetItem(itemID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if _, err := g.AuthorizeCart(callerID, item.CartID); err != nil {
		return domain.CartItem{}, domain.ErrCartItemNotFound
	}
	return item, nil
}
