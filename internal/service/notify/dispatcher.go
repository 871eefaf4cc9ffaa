package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/cartsvc/internal/metrics"
)

// DefaultAdminEmail — адрес магазина по умолчанию для уведомлений о заказах.
const DefaultAdminEmail = "admin@metro.com"

// DefaultRecipientTimeout ограничивает отправку одного письма.
const DefaultRecipientTimeout = 10 * time.Second

// Dispatcher рассылает уведомление о заказе покупателю и администратору.
// Доставка best-effort: письма уходят независимо, провал одного не
// отменяет второе и ничего не ретраится.
type Dispatcher struct {
	sender     domain.EmailSender
	publisher  domain.EventPublisher
	metrics    *metrics.DispatchMetrics
	logger     *logrus.Logger
	adminEmail string
	timeout    time.Duration
}

// DispatcherOption настраивает Dispatcher при создании.
type DispatcherOption func(*Dispatcher)

// WithAdminEmail меняет административный адрес.
func WithAdminEmail(email string) DispatcherOption {
	return func(d *Dispatcher) {
		if email != "" {
			d.adminEmail = email
		}
	}
}

// WithRecipientTimeout меняет лимит времени на одно письмо.
func WithRecipientTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithEventPublisher включает публикацию итога рассылки в Kafka.
func WithEventPublisher(publisher domain.EventPublisher) DispatcherOption {
	return func(d *Dispatcher) {
		d.publisher = publisher
	}
}

// WithDispatchMetrics включает метрики рассылки.
func WithDispatchMetrics(m *metrics.DispatchMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher создаёт диспетчер поверх почтового транспорта.
func NewDispatcher(sender domain.EmailSender, logger *logrus.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Dispatcher{
		sender:     sender,
		logger:     logger,
		adminEmail: DefaultAdminEmail,
		timeout:    DefaultRecipientTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch валидирует payload и рассылает оба письма параллельно.
// Ошибка возвращается только на невалидный payload или сбой рендера;
// транспортные провалы отражаются в DispatchOutcome.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.OrderNotification) (domain.DispatchOutcome, error) {
	if errs := n.ValidateInvariants(); len(errs) > 0 {
		return domain.DispatchOutcome{}, errors.Join(errs...)
	}

	customerSubject, customerBody, err := RenderCustomerEmail(n)
	if err != nil {
		return domain.DispatchOutcome{}, err
	}
	adminSubject, adminBody, err := RenderAdminEmail(n)
	if err != nil {
		return domain.DispatchOutcome{}, err
	}

	dispatchID := uuid.NewString()
	log := d.logger.WithFields(logrus.Fields{
		"dispatch_id": dispatchID,
		"order_id":    n.OrderID,
	})
	started := time.Now()

	var outcome domain.DispatchOutcome
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		outcome.Customer = d.sendOne(ctx, domain.RecipientCustomer, n.CustomerEmail, n.CustomerName, customerSubject, customerBody, log)
	}()
	go func() {
		defer wg.Done()
		outcome.Admin = d.sendOne(ctx, domain.RecipientAdmin, d.adminEmail, "Store Admin", adminSubject, adminBody, log)
	}()
	wg.Wait()

	status := outcome.Status()
	if d.metrics != nil {
		d.metrics.RecordDispatch(string(status))
		d.metrics.RecordDispatchDuration(time.Since(started))
	}
	log.WithField("status", status).Info("notify: рассылка завершена")
	d.publishOutcome(dispatchID, n.OrderID, outcome, log)
	return outcome, nil
}

// sendOne отправляет одно письмо со своим таймаутом и сворачивает
// причину провала в короткую строку без внутренностей транспорта.
func (d *Dispatcher) sendOne(ctx context.Context, recipient domain.Recipient, email, name, subject, htmlBody string, log *logrus.Entry) domain.RecipientResult {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result := domain.RecipientResult{Recipient: recipient}
	if err := d.sender.Send(sendCtx, email, name, subject, htmlBody); err != nil {
		log.WithError(err).WithField("recipient", recipient).Warn("notify: письмо не доставлено")
		result.Reason = "transport failure"
		if errors.Is(err, context.DeadlineExceeded) {
			result.Reason = "transport timeout"
		}
	} else {
		result.Sent = true
	}

	if d.metrics != nil {
		d.metrics.RecordEmail(string(recipient), result.Sent)
	}
	return result
}

func (d *Dispatcher) publishOutcome(dispatchID, orderID string, outcome domain.DispatchOutcome, log *logrus.Entry) {
	if d.publisher == nil {
		return
	}

	failed := make([]string, 0, 2)
	for _, recipient := range outcome.FailedRecipients() {
		failed = append(failed, string(recipient))
	}
	event := kafka.NewNotifyEvent(dispatchID, orderID, string(outcome.Status()), failed)
	if err := d.publisher.PublishEvent(kafka.TopicNotifyEvents, orderID, event); err != nil {
		log.WithError(err).Warn("notify: не удалось опубликовать событие")
	}
}
