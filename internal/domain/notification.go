package domain

// OrderLine — одна позиция заказа в уведомлении: имя товара, количество, цена за единицу.
type OrderLine struct {
	Name       string
	Units      int32
	PriceMinor int64
}

// OrderCost — разбивка стоимости заказа в минимальных денежных единицах.
type OrderCost struct {
	ShippingMinor int64
	TaxMinor      int64
	TotalMinor    int64
}

// OrderNotification — эфемерный payload уведомления о завершённом заказе.
// Собирается на каждую отправку и не персистится этим сервисом.
type OrderNotification struct {
	OrderID       string
	CustomerEmail string
	CustomerName  string
	Lines         []OrderLine
	Cost          OrderCost
}

// ValidateInvariants проверяет, что payload пригоден к отправке.
func (n *OrderNotification) ValidateInvariants() []error {
	var errs []error

	if n.OrderID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if n.CustomerEmail == "" {
		errs = append(errs, ErrRecipientRequired)
	}
	if len(n.Lines) == 0 {
		errs = append(errs, ErrOrderLinesRequired)
	}

	return errs
}

// Recipient идентифицирует получателя транзакционного письма.
type Recipient string

const (
	// RecipientCustomer — покупатель из payload заказа.
	RecipientCustomer Recipient = "customer"
	// RecipientAdmin — фиксированный административный адрес магазина.
	RecipientAdmin Recipient = "admin"
)

// RecipientResult — результат доставки для одного получателя.
type RecipientResult struct {
	Recipient Recipient
	Sent      bool
	// Reason заполняется при ошибке транспорта; наружу не раскрывает внутренности.
	Reason string
}

// DispatchStatus — агрегированный итог рассылки по обоим получателям.
type DispatchStatus string

const (
	// DispatchFullySent — оба письма доставлены транспорту.
	DispatchFullySent DispatchStatus = "fully_sent"
	// DispatchPartiallySent — доставлено хотя бы одно письмо, но не все.
	DispatchPartiallySent DispatchStatus = "partially_sent"
	// DispatchNothingSent — не доставлено ни одно письмо.
	DispatchNothingSent DispatchStatus = "nothing_sent"
)

// DispatchOutcome — комбинированный результат рассылки. Доставка best-effort:
// частичный провал не откатывает состояние заказа и не блокирует второго получателя.
type DispatchOutcome struct {
	Customer RecipientResult
	Admin    RecipientResult
}

// Status вычисляет агрегированный статус по результатам обоих получателей.
func (o DispatchOutcome) Status() DispatchStatus {
	switch {
	case o.Customer.Sent && o.Admin.Sent:
		return DispatchFullySent
	case o.Customer.Sent || o.Admin.Sent:
		return DispatchPartiallySent
	default:
		return DispatchNothingSent
	}
}

// FailedRecipients перечисляет получателей, до которых письмо не дошло.
func (o DispatchOutcome) FailedRecipients() []Recipient {
	var failed []Recipient
	if !o.Customer.Sent {
		failed = append(failed, RecipientCustomer)
	}
	if !o.Admin.Sent {
		failed = append(failed, RecipientAdmin)
	}
	return failed
}
