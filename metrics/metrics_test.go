package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.OrderPlaced()
	m.Transition("status", "READY")
	m.MaterialConsumed("raw1", 1.5)
	m.WasteLogged(7500)
	m.LowStock(2)
	m.GeneratorFallback("describe")
	if m.Registry() != nil {
		t.Fatal("nil metrics should have no registry")
	}
}

func TestCountersAccumulate(t *testing.T) {
	m := New()
	m.OrderPlaced()
	m.OrderPlaced()
	m.Transition("production", "MIXING")
	m.MaterialConsumed("raw1", 1.5)
	m.MaterialConsumed("raw1", 0.5)
	m.MaterialConsumed("raw1", 0) // ignored
	m.WasteLogged(7500)
	m.LowStock(3)

	if got := testutil.ToFloat64(m.ordersPlaced); got != 2 {
		t.Fatalf("orders placed = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("production", "MIXING")); got != 1 {
		t.Fatalf("transitions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.consumed.WithLabelValues("raw1")); got != 2 {
		t.Fatalf("consumed raw1 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.wasteCost); got != 7500 {
		t.Fatalf("waste cost = %v, want 7500", got)
	}
	if got := testutil.ToFloat64(m.lowStock); got != 3 {
		t.Fatalf("low stock = %v, want 3", got)
	}
}

func TestHandlerExposesRouteLatency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/a1", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	if !strings.Contains(body, `bakery_http_request_duration_seconds_count{method="GET",route="/api/products/:id",status="200"} 1`) {
		t.Fatalf("route latency missing from exposition:\n%s", body)
	}
}
