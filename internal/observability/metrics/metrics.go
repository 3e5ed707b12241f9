// Package metrics exposes prometheus instruments for the metering core.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
)

// Module provides the application metrics.
var Module = fx.Provide(New)

// Metrics holds the counters recorded by the ledger and HTTP layers.
type Metrics struct {
	chargesTotal     *prometheus.CounterVec
	pagesCharged     prometheus.Counter
	creditsCharged   prometheus.Counter
	httpRequestsSecs *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		chargesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paperlane_charges_total",
			Help: "Charge attempts by outcome (committed, insufficient_credits, error).",
		}, []string{"outcome"}),
		pagesCharged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperlane_pages_charged_total",
			Help: "Pages debited by committed charges.",
		}),
		creditsCharged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paperlane_credits_charged_total",
			Help: "Credits debited by committed charges, in whole credits.",
		}),
		httpRequestsSecs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paperlane_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RecordCharge counts one committed charge.
func (m *Metrics) RecordCharge(pages int, credits float64) {
	if m == nil {
		return
	}
	m.chargesTotal.WithLabelValues("committed").Inc()
	m.pagesCharged.Add(float64(pages))
	m.creditsCharged.Add(credits)
}

// RecordRejection counts a charge refused for insufficient credits.
func (m *Metrics) RecordRejection() {
	if m == nil {
		return
	}
	m.chargesTotal.WithLabelValues("insufficient_credits").Inc()
}

// RecordChargeError counts a charge that failed at the store.
func (m *Metrics) RecordChargeError() {
	if m == nil {
		return
	}
	m.chargesTotal.WithLabelValues("error").Inc()
}

// GinMiddleware observes request latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsSecs.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
