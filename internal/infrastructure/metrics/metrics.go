// Package metrics exposes the Prometheus collectors the bot updates
// during operation:
//   - flip_signals_total{status}        – webhook outcomes (success|test|skipped|rejected|error)
//   - flip_orders_total{side,result}    – orders by side and result (ok|failed)
//   - flip_retries_total{op}            – failed attempts inside the retry executor
//   - flip_snapshot_failures_total      – position queries that failed open to flat
//   - flip_spot_price                   – last observed underlying spot (gauge)
//
// Registered in init() and served at /metrics by the web server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_signals_total",
			Help: "Webhook signals by outcome status",
		},
		[]string{"status"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_orders_total",
			Help: "Orders placed by side and result",
		},
		[]string{"side", "result"},
	)

	retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flip_retries_total",
			Help: "Failed attempts inside the retry executor",
		},
		[]string{"op"},
	)

	snapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flip_snapshot_failures_total",
			Help: "Position snapshot queries that failed open to flat",
		},
	)

	spotPrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flip_spot_price",
			Help: "Last observed underlying spot price",
		},
	)
)

func init() {
	prometheus.MustRegister(signals, orders, retries, snapshotFailures, spotPrice)
}

func IncSignal(status string)      { signals.WithLabelValues(status).Inc() }
func IncOrder(side, result string) { orders.WithLabelValues(side, result).Inc() }
func IncRetry(op string)           { retries.WithLabelValues(op).Inc() }
func IncSnapshotFailure()          { snapshotFailures.Inc() }
func SetSpotPrice(price float64)   { spotPrice.Set(price) }
