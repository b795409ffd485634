package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated     prometheus.Counter
	ordersCanceled    prometheus.Counter
	ordersDelivered   prometheus.Counter
	creationRejected  *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	stockRejections   prometheus.Counter

	// Гистограммы времени выполнения
	createDuration prometheus.Histogram
	updateDuration prometheus.Histogram

	// Gauge для заказов в работе (нетерминальные статусы)
	openOrders prometheus.Gauge
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCanceled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_canceled_total",
			Help: "Total number of orders canceled",
		}),
		ordersDelivered: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_orders_delivered_total",
			Help: "Total number of orders delivered",
		}),
		creationRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ecom_order_creation_rejected_total",
			Help: "Total number of order creation attempts rejected",
		}, []string{"reason"}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ecom_order_status_transitions_total",
			Help: "Total number of order status transitions applied",
		}, []string{"from", "to"}),
		stockRejections: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ecom_stock_rejections_total",
			Help: "Total number of stock debits rejected for insufficiency",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		updateDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ecom_order_update_duration_seconds",
			Help:    "Duration of order status updates in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		openOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ecom_open_orders",
			Help: "Number of orders currently in a non-terminal status",
		}),
	}
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
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

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.openOrders.Inc()
}

// RecordOrderCanceled увеличивает счётчик отменённых заказов.
func (m *OrderMetrics) RecordOrderCanceled() {
	m.ordersCanceled.Inc()
	m.openOrders.Dec()
}

// RecordOrderDelivered увеличивает счётчик доставленных заказов.
func (m *OrderMetrics) RecordOrderDelivered() {
	m.ordersDelivered.Inc()
	m.openOrders.Dec()
}

// RecordCreationRejected увеличивает счётчик отклонённых созданий заказа.
func (m *OrderMetrics) RecordCreationRejected(reason string) {
	m.creationRejected.WithLabelValues(reason).Inc()
}

// RecordStatusTransition увеличивает счётчик применённых переходов статуса.
func (m *OrderMetrics) RecordStatusTransition(from, to string) {
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordStockRejection увеличивает счётчик отказов по стоку.
func (m *OrderMetrics) RecordStockRejection() {
	m.stockRejections.Inc()
}

// RecordCreateDuration записывает время создания заказа.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}

// RecordUpdateDuration записывает время обновления статуса.
func (m *OrderMetrics) RecordUpdateDuration(duration time.Duration) {
	m.updateDuration.Observe(duration.Seconds())
}
