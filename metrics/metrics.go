// Package metrics exposes Prometheus collectors for the order workflow.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bakery"

type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced prometheus.Counter
	transitions  *prometheus.CounterVec
	consumed     *prometheus.CounterVec
	wasteCost    prometheus.Counter
	wasteEvents  prometheus.Counter
	lowStock     prometheus.Gauge
	aiFallbacks  *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_placed_total",
			Help: "Orders accepted and persisted.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_transitions_total",
			Help: "Applied order transitions by track and target state.",
		}, []string{"track", "to"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "raw_material_consumed_total",
			Help: "Raw material quantity deducted by production, in the material's unit.",
		}, []string{"material"}),
		wasteCost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "waste_cost_total",
			Help: "Accumulated cost of logged waste.",
		}),
		wasteEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "waste_logs_total",
			Help: "Number of waste entries logged.",
		}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "raw_materials_below_minimum",
			Help: "Raw materials whose stock is under the minimum threshold at last check.",
		}),
		aiFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generator_fallbacks_total",
			Help: "Generative content calls answered with the canned fallback.",
		}, []string{"operation"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.ordersPlaced, m.transitions, m.consumed, m.wasteCost, m.wasteEvents,
		m.lowStock, m.aiFallbacks, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) Transition(track, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(track, to).Inc()
}

func (m *Metrics) MaterialConsumed(materialID string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.consumed.WithLabelValues(materialID).Add(amount)
}

func (m *Metrics) WasteLogged(costLoss float64) {
	if m == nil {
		return
	}
	m.wasteEvents.Inc()
	if costLoss > 0 {
		m.wasteCost.Add(costLoss)
	}
}

func (m *Metrics) LowStock(count int) {
	if m == nil {
		return
	}
	m.lowStock.Set(float64(count))
}

func (m *Metrics) GeneratorFallback(operation string) {
	if m == nil {
		return
	}
	m.aiFallbacks.WithLabelValues(operation).Inc()
}

// Middleware records request latency labelled by the matched route template
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
