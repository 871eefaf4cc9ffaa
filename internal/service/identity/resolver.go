package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// Claims — проверенные данные владельца токена.
type Claims struct {
	ExternalID string
	Email      string
	FullName   string
}

// TokenVerifier проверяет подпись токена и извлекает claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Resolver сопоставляет внешний identity-токен внутреннему пользователю.
// Неизвестный внешний идентификатор регистрируется при первом обращении.
type Resolver struct {
	verifier TokenVerifier
	users    domain.UserRepository
	logger   *logrus.Logger
}

// NewResolver создаёт резолвер поверх верификатора и репозитория пользователей.
func NewResolver(verifier TokenVerifier, users domain.UserRepository, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{verifier: verifier, users: users, logger: logger}
}

// Resolve проверяет токен и возвращает внутренний ID пользователя.
// Любой сбой проверки сворачивается в ErrIdentityUnresolved: вызывающая
// сторона не должна различать "нет токена" и "плохой токен".
func (r *Resolver) Resolve(ctx context.Context, token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.ErrIdentityUnresolved
	}

	claims, err := r.verifier.Verify(ctx, token)
	if err != nil {
		r.logger.WithError(err).Warn("identity: token verification failed")
		return 0, domain.ErrIdentityUnresolved
	}
	if claims.ExternalID == "" {
		return 0, domain.ErrIdentityUnresolved
	}

	user, err := r.users.GetByExternalID(claims.ExternalID)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return 0, fmt.Errorf("identity: lookup user by external id: %w", err)
	}

	created, err := r.users.Create(domain.User{
		ExternalID: claims.ExternalID,
		Email:      claims.Email,
		FullName:   claims.FullName,
	})
	if err == nil {
		r.logger.WithFields(logrus.Fields{
			"user_id":     created.ID,
			"external_id": claims.ExternalID,
		}).Info("identity: registered new user")
		return created.ID, nil
	}
	// Гонка двух первых запросов одного пользователя: второй Create
	// упирается в уникальность external_id, перечитываем победителя.
	if errors.Is(err, domain.ErrUserExists) {
		user, err = r.users.GetByExternalID(claims.ExternalID)
		if err != nil {
			return 0, fmt.Errorf("identity: re-read user after create race: %w", err)
		}
		return user.ID, nil
	}
	return 0, fmt.Errorf("identity: register user: %w", err)
}

var _ domain.IdentityResolver = (*Resolver)(nil)
