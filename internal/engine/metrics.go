package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики pipeline матчинга и расчетов
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о деградации источника цен
//   и отказах relayer

// ============ Счетчики ордеров ============

// OrdersReceived - принятые ордера по типу и направлению
var OrdersReceived = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "orders",
		Name:      "received_total",
		Help:      "Total number of orders accepted for matching",
	},
	[]string{"type", "side"},
)

// OrdersMatched - успешно исполненные ордера
var OrdersMatched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "orders",
		Name:      "matched_total",
		Help:      "Total number of matched orders",
	},
	[]string{"type"},
)

// OrdersFailed - отклоненные ордера (симулированный отказ биржи)
var OrdersFailed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "orders",
		Name:      "failed_total",
		Help:      "Total number of rejected orders",
	},
)

// ============ Метрики резолюции цен ============

// PriceResolutions - резолюции цен по происхождению
// source: override, cache, live, stale, default
var PriceResolutions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "price",
		Name:      "resolutions_total",
		Help:      "Price resolutions by provenance tier",
	},
	[]string{"source"},
)

// PriceSourceErrors - ошибки внешнего источника цен
var PriceSourceErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "price",
		Name:      "source_errors_total",
		Help:      "External price source failures",
	},
)

// ============ Метрики исполнения ============

// FillQuantity - исполненный объем по символам
var FillQuantity = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "fills",
		Name:      "quantity_total",
		Help:      "Total filled quantity",
	},
	[]string{"symbol", "side"},
)

// ResolutionLatency - длительность резолюции ордера
// Buckets покрывают симулированные задержки + обращение к источнику
var ResolutionLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "matchengine",
		Subsystem: "orders",
		Name:      "resolution_latency_ms",
		Help:      "Time to resolve an order in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 250, 500, 1000, 5000},
	},
)

// ============ Метрики settlement ============

// RelayerSubmissions - отправки сделок в relayer по результату
// result: success, failed
var RelayerSubmissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "relayer",
		Name:      "submissions_total",
		Help:      "Trade submissions to the settlement relayer",
	},
	[]string{"result"},
)

// BatchesSettled - количество рассчитанных батчей
var BatchesSettled = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "matchengine",
		Subsystem: "settlement",
		Name:      "batches_settled_total",
		Help:      "Settlement batches that reached settled state",
	},
)

// BatchSize - размер закрытых батчей
var BatchSize = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "matchengine",
		Subsystem: "settlement",
		Name:      "batch_size",
		Help:      "Number of trades per closed batch",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	},
)

// ============ Вспомогательные функции ============

// RecordOrderReceived записывает принятый ордер
func RecordOrderReceived(orderType, side string) {
	OrdersReceived.WithLabelValues(orderType, side).Inc()
}

// RecordOrderMatched записывает исполненный ордер
func RecordOrderMatched(orderType, symbol, side string, quantity float64) {
	OrdersMatched.WithLabelValues(orderType).Inc()
	FillQuantity.WithLabelValues(symbol, side).Add(quantity)
}

// RecordOrderFailed записывает отклоненный ордер
func RecordOrderFailed() {
	OrdersFailed.Inc()
}

// RecordPriceResolution записывает резолюцию цены по происхождению
func RecordPriceResolution(source string) {
	PriceResolutions.WithLabelValues(source).Inc()
}

// RecordPriceSourceError записывает ошибку источника цен
func RecordPriceSourceError() {
	PriceSourceErrors.Inc()
}

// RecordResolutionLatency записывает длительность резолюции
func RecordResolutionLatency(latencyMs float64) {
	ResolutionLatency.Observe(latencyMs)
}

// RecordRelayerSubmission записывает результат отправки в relayer
func RecordRelayerSubmission(success bool) {
	if success {
		RelayerSubmissions.WithLabelValues("success").Inc()
	} else {
		RelayerSubmissions.WithLabelValues("failed").Inc()
	}
}

// RecordBatchSettled записывает рассчитанный батч
func RecordBatchSettled(tradeCount int) {
	BatchesSettled.Inc()
	BatchSize.Observe(float64(tradeCount))
}
