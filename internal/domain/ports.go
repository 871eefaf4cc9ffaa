package domain

import "context"

// IdentityResolver описывает внешний identity-провайдер: сопоставляет
// opaque-токен вызывающей стороны внутреннему пользователю.
type IdentityResolver interface {
	// Resolve возвращает внутренний userID или ErrIdentityUnresolved.
	Resolve(ctx context.Context, token string) (int64, error)
}

// ProductLookup описывает read-only доступ к каталогу товаров.
type ProductLookup interface {
	// Lookup возвращает имя и цену товара или ErrProductNotFound.
	Lookup(ctx context.Context, productID int64) (Product, error)
}

// EmailSender описывает внешний транспорт транзакционных писем.
type EmailSender interface {
	// Send доставляет одно письмо; ошибка трактуется как TransportFailure
	// для конкретного получателя и не ретраится диспетчером.
	Send(ctx context.Context, toEmail, toName, subject, htmlBody string) error
}

// EventPublisher публикует доменные события наружу (например, в Kafka).
// Реализация должна быть безопасна для конкурентных вызовов.
type EventPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}
