package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics содержит метрики операций с корзиной и оформления заказов.
type CartMetrics struct {
	// Счётчики операций с корзиной
	linesAdded      prometheus.Counter
	linesMerged     prometheus.Counter
	linesRemoved    prometheus.Counter
	cartsCleared    prometheus.Counter
	mutationsNoop   prometheus.Counter
	syncFailures    prometheus.Counter
	snapshotsPushed prometheus.Counter

	// Счётчики оформления
	ordersSubmitted prometheus.Counter
	ordersRejected  prometheus.Counter
	ordersFailed    prometheus.Counter

	// Гистограммы времени выполнения
	syncDuration   prometheus.Histogram
	submitDuration prometheus.Histogram

	// Gauge для размера корзины после последней мутации
	cartItemCount prometheus.Gauge
}

// NewCartMetrics создаёт новый экземпляр метрик корзины.
func NewCartMetrics() *CartMetrics {
	return newCartMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCartMetricsWithRegisterer(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		linesAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_cart_lines_added_total",
			Help: "Total number of lines added to carts",
		}),
		linesMerged: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_cart_lines_merged_total",
			Help: "Total number of additions merged into an existing line",
		}),
		linesRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_cart_lines_removed_total",
			Help: "Total number of lines removed from carts",
		}),
		cartsCleared: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_carts_cleared_total",
			Help: "Total number of carts cleared",
		}),
		mutationsNoop: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_cart_mutations_noop_total",
			Help: "Total number of cart mutations dropped before identity was established",
		}),
		syncFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_cart_sync_failures_total",
			Help: "Total number of failed cart document writes",
		}),
		snapshotsPushed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_cart_snapshots_pushed_total",
			Help: "Total number of cart snapshots published to the feed",
		}),
		ordersSubmitted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_orders_submitted_total",
			Help: "Total number of orders handed off successfully",
		}),
		ordersRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_orders_rejected_total",
			Help: "Total number of orders rejected by validation",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ordering_orders_failed_total",
			Help: "Total number of orders that failed during hand-off",
		}),
		syncDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ordering_cart_sync_duration_seconds",
			Help:    "Duration of cart document read-modify-write cycles in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		submitDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ordering_order_submit_duration_seconds",
			Help:    "Duration of order hand-off in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cartItemCount: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ordering_cart_item_count",
			Help: "Item count of the most recently mutated cart",
		}),
	}
}

// RecordLineAdded фиксирует добавление новой позиции.
func (m *CartMetrics) RecordLineAdded() { m.linesAdded.Inc() }

// RecordLineMerged фиксирует слияние добавления с существующей позицией.
func (m *CartMetrics) RecordLineMerged() { m.linesMerged.Inc() }

// RecordLineRemoved фиксирует удаление позиции.
func (m *CartMetrics) RecordLineRemoved() { m.linesRemoved.Inc() }

// RecordCartCleared фиксирует очистку корзины.
func (m *CartMetrics) RecordCartCleared() { m.cartsCleared.Inc() }

// RecordMutationNoop фиксирует мутацию, отброшенную до установления личности.
func (m *CartMetrics) RecordMutationNoop() { m.mutationsNoop.Inc() }

// RecordSyncFailure фиксирует неудачную запись документа корзины.
func (m *CartMetrics) RecordSyncFailure() { m.syncFailures.Inc() }

// RecordSnapshotPushed фиксирует публикацию снапшота корзины.
func (m *CartMetrics) RecordSnapshotPushed() { m.snapshotsPushed.Inc() }

// RecordOrderSubmitted фиксирует успешную передачу заказа.
func (m *CartMetrics) RecordOrderSubmitted() { m.ordersSubmitted.Inc() }

// RecordOrderRejected фиксирует заказ, отклонённый валидацией.
func (m *CartMetrics) RecordOrderRejected() { m.ordersRejected.Inc() }

// RecordOrderFailed фиксирует сбой передачи заказа.
func (m *CartMetrics) RecordOrderFailed() { m.ordersFailed.Inc() }

// RecordSyncDuration фиксирует длительность цикла записи документа.
func (m *CartMetrics) RecordSyncDuration(d time.Duration) { m.syncDuration.Observe(d.Seconds()) }

// RecordSubmitDuration фиксирует длительность передачи заказа.
func (m *CartMetrics) RecordSubmitDuration(d time.Duration) { m.submitDuration.Observe(d.Seconds()) }

// SetCartItemCount выставляет размер корзины после мутации.
func (m *CartMetrics) SetCartItemCount(n int) { m.cartItemCount.Set(float64(n)) }

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
