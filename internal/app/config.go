package app

import (
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/service/catalog"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/notify"
)

// StorageDriver выбирает реализацию хранилища.
type StorageDriver string

const (
	// StorageDriverMemory — in-memory хранилище для разработки и тестов.
	StorageDriverMemory StorageDriver = "memory"
	// StorageDriverPostgres — боевое хранилище на PostgreSQL.
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers — список брокеров через запятую; пусто — без Kafka.
	KafkaBrokers string
	// RedisAddr — адрес Redis для кэша каталога; пусто — без кэша.
	RedisAddr       string
	ProductCacheTTL time.Duration

	// Реквизиты Brevo; без ключа письма уходят в mock-транспорт.
	BrevoAPIKey    string
	BrevoFromEmail string
	BrevoFromName  string

	AdminEmail      string
	DispatchTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		ProductCacheTTL:     catalog.DefaultCacheTTL,
		AdminEmail:          notify.DefaultAdminEmail,
		DispatchTimeout:     notify.DefaultRecipientTimeout,
	}
}
