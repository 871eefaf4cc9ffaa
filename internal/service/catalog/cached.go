package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// DefaultCacheTTL — время жизни закэшированной карточки товара.
const DefaultCacheTTL = 5 * time.Minute

// CachedLookup — read-through кэш карточек товаров поверх Redis.
// Любой сбой кэша деградирует до прямого похода в источник.
type CachedLookup struct {
	inner  domain.ProductLookup
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCachedLookup оборачивает источник карточек кэшем Redis.
func NewCachedLookup(inner domain.ProductLookup, client *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedLookup {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedLookup{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Lookup возвращает карточку товара, при промахе кэша идёт в источник.
func (c *CachedLookup) Lookup(ctx context.Context, productID int64) (domain.Product, error) {
	key := c.cacheKey(productID)

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if unmarshalErr := json.Unmarshal([]byte(raw), &product); unmarshalErr == nil {
			return product, nil
		}
		c.logger.WithField("key", key).Warn("catalog: повреждённая запись в кэше, перечитываем источник")
	} else if err != redis.Nil {
		c.logger.WithError(err).Warn("catalog: чтение из кэша не удалось")
	}

	product, err := c.inner.Lookup(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}

	payload, err := json.Marshal(product)
	if err != nil {
		return product, nil
	}
	if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
		c.logger.WithError(setErr).Warn("catalog: запись в кэш не удалась")
	}
	return product, nil
}

func (c *CachedLookup) cacheKey(productID int64) string {
	return fmt.Sprintf("cartsvc:product:%d", productID)
}

var _ domain.ProductLookup = (*CachedLookup)(nil)
