package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/catalog"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/identity"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/notify"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/postgres"
)

// Dependencies содержит собранные зависимости приложения.
type Dependencies struct {
	Users   domain.UserRepository
	Carts   domain.CartRepository
	Catalog domain.ProductLookup

	Resolver domain.IdentityResolver
	Sender   domain.EmailSender

	Store    *postgres.Store
	Producer *kafka.Producer
	Redis    *redis.Client
}

// initRuntimeDependencies собирает зависимости по конфигурации.
// Kafka, Redis и Brevo опциональны: при пустых реквизитах приложение
// работает без них.
// NOTE: identity-провайдер и каталог — заглушки; в production их место
// занимают клиенты внешнего identity-сервиса и сервиса каталога.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	deps := &Dependencies{}

	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		deps.Users = memory.NewUserRepository()
		deps.Carts = memory.NewCartRepository()
		logger.Info("используем in-memory хранилище")
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		deps.Store = store
		deps.Users = postgres.NewUserRepository(store)
		deps.Carts = postgres.NewCartRepository(store)
		logger.Info("используем postgres хранилище")
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err == nil {
		deps.Producer = producer
	}

	deps.Catalog = catalog.NewMockLookup()
	if cfg.RedisAddr != "" {
		deps.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		deps.Catalog = catalog.NewCachedLookup(deps.Catalog, deps.Redis, cfg.ProductCacheTTL, log.StandardLogger())
		logger.WithField("addr", cfg.RedisAddr).Info("кэш каталога через redis включён")
	}

	deps.Resolver = identity.NewResolver(identity.NewMockVerifier(), deps.Users, log.StandardLogger())

	if cfg.BrevoAPIKey != "" {
		sender, err := notify.NewBrevoSender(notify.BrevoConfig{
			APIKey:    cfg.BrevoAPIKey,
			FromEmail: cfg.BrevoFromEmail,
			FromName:  cfg.BrevoFromName,
		}, log.StandardLogger())
		if err != nil {
			deps.Close(logger)
			return nil, err
		}
		deps.Sender = sender
		logger.Info("почтовый транспорт brevo включён")
	} else {
		deps.Sender = notify.NewMockSender()
		logger.Warn("реквизиты brevo не заданы, письма уходят в mock-транспорт")
	}

	return deps, nil
}

// Close освобождает внешние ресурсы зависимостей.
func (d *Dependencies) Close(logger *log.Entry) {
	closeKafka(d.Producer, logger)
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
