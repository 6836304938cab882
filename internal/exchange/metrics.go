package exchange

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the exchange's Prometheus instrumentation behind its own
// registry so tests can create exchanges freely.
type Metrics struct {
	registry *prometheus.Registry

	ordersSubmitted prometheus.Counter
	tradesExecuted  prometheus.Counter
	ordersCanceled  prometheus.Counter
	restingOrders   *prometheus.GaugeVec
}

// NewMetrics creates and registers the exchange metric set.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ordersSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Total number of orders routed to a book",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of trades generated by matching",
		}),
		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_canceled_total",
			Help:      "Total number of resting orders canceled",
		}),
		restingOrders: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Resting orders currently on a book",
		}, []string{"instrument"}),
	}

	registry.MustRegister(m.ordersSubmitted, m.tradesExecuted, m.ordersCanceled, m.restingOrders)
	return m
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
