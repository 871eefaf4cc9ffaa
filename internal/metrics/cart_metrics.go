package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики операций корзины и optimistic locking.
type CartMetrics struct {
	// Счётчик операций по имени операции и результату (ok|error).
	cartOps *prometheus.CounterVec
	// Счётчики конфликтов версий: замеченные и исчерпавшие retry.
	versionConflicts  prometheus.Counter
	conflictsSurfaced prometheus.Counter
	// Счётчик слияний позиций при повторном добавлении товара.
	itemMerges prometheus.Counter
}

// NewCartMetrics создаёт и регистрирует метрики корзины.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		cartOps: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cartsvc_cart_operations_total",
			Help: "Total number of cart operations grouped by operation and result.",
		}, []string{"op", "result"}),
		versionConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cartsvc_item_version_conflicts_total",
			Help: "Total number of optimistic locking conflicts observed on cart items.",
		}),
		conflictsSurfaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cartsvc_item_version_conflicts_surfaced_total",
			Help: "Total number of version conflicts surfaced to callers after the retry budget.",
		}),
		itemMerges: registerCounter(registerer, prometheus.CounterOpts{
			Name: "cartsvc_item_merges_total",
			Help: "Total number of add-item calls merged into an existing cart item.",
		}),
	}
}

// RecordOp фиксирует результат операции корзины.
func (m *CartMetrics) RecordOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cartOps.WithLabelValues(op, result).Inc()
}

// RecordVersionConflict увеличивает счётчик замеченных конфликтов версий.
func (m *CartMetrics) RecordVersionConflict() {
	m.versionConflicts.Inc()
}

// RecordConflictSurfaced фиксирует конфликт, отданный вызывающей стороне.
func (m *CartMetrics) RecordConflictSurfaced() {
	m.conflictsSurfaced.Inc()
}

// RecordItemMerge фиксирует слияние количеств при повторном добавлении.
func (m *CartMetrics) RecordItemMerge() {
	m.itemMerges.Inc()
}

// DispatchMetrics содержит метрики рассылки уведомлений о заказах.
type DispatchMetrics struct {
	// Счётчик писем по получателю и результату (sent|failed).
	emails *prometheus.CounterVec
	// Счётчик рассылок по агрегированному статусу.
	dispatches *prometheus.CounterVec
	// Гистограмма времени полной рассылки (оба получателя).
	dispatchDuration prometheus.Histogram
}

// NewDispatchMetrics создаёт и регистрирует метрики рассылки.
func NewDispatchMetrics() *DispatchMetrics {
	return newDispatchMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newDispatchMetricsWithRegisterer(registerer prometheus.Registerer) *DispatchMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &DispatchMetrics{
		emails: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cartsvc_notify_emails_total",
			Help: "Total number of transactional emails grouped by recipient and result.",
		}, []string{"recipient", "result"}),
		dispatches: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "cartsvc_notify_dispatches_total",
			Help: "Total number of order notification dispatches grouped by aggregate status.",
		}, []string{"status"}),
		dispatchDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "cartsvc_notify_dispatch_duration_seconds",
			Help:    "Duration of a full order notification dispatch in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordEmail фиксирует результат отправки одного письма.
func (m *DispatchMetrics) RecordEmail(recipient string, sent bool) {
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.emails.WithLabelValues(recipient, result).Inc()
}

// RecordDispatch фиксирует агрегированный статус рассылки.
func (m *DispatchMetrics) RecordDispatch(status string) {
	m.dispatches.WithLabelValues(status).Inc()
}

// RecordDispatchDuration записывает время полной рассылки.
func (m *DispatchMetrics) RecordDispatchDuration(duration time.Duration) {
	m.dispatchDuration.Observe(duration.Seconds())
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
