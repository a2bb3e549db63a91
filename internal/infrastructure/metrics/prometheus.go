// Package metrics exposes ledger and HTTP metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	appledger "github.com/lpgledger/backend/internal/application/ledger"
	"github.com/lpgledger/backend/internal/domain/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metric names.
const (
	MetricPaymentsTotal                = "lpg_ledger_payments_total"
	MetricPaymentAmountTotal           = "lpg_ledger_payment_amount_total"
	MetricCylindersReturnedTotal       = "lpg_ledger_cylinders_returned_total"
	MetricRecalculationsTotal          = "lpg_ledger_recalculations_total"
	MetricRecalculatedRecordsTotal     = "lpg_ledger_recalculated_records_total"
	MetricRecalculationDurationSeconds = "lpg_ledger_recalculation_duration_seconds"
	MetricReconciliationsTotal         = "lpg_ledger_reconciliations_total"
	MetricHTTPRequestsTotal            = "lpg_ledger_http_requests_total"
	MetricHTTPRequestDurationSeconds   = "lpg_ledger_http_request_duration_seconds"
)

// Registry owns a private Prometheus registry so tests and multiple servers
// in one process never collide on the default one.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Registry struct {
	registry *prometheus.Registry

	payments               *prometheus.CounterVec
	paymentAmount          *prometheus.CounterVec
	cylindersReturned      *prometheus.CounterVec
	recalculations         *prometheus.CounterVec
	recalculatedRecords    *prometheus.CounterVec
	recalculationDuration  *prometheus.HistogramVec
	reconciliations        *prometheus.CounterVec
	httpRequests           *prometheus.CounterVec
	httpRequestDurationSec *prometheus.HistogramVec
}

// NewRegistry creates the registry with every ledger collector registered.
// withRuntime adds the Go runtime and process collectors.
func NewRegistry(withRuntime bool) *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.payments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricPaymentsTotal,
		Help: "Customer receivable payments recorded, by method.",
	}, []string{"method"})
	r.paymentAmount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricPaymentAmountTotal,
		Help: "Sum of customer receivable payments, by method.",
	}, []string{"method"})
	r.cylindersReturned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricCylindersReturnedTotal,
		Help: "Cylinders returned against customer receivables, by size.",
	}, []string{"size"})
	r.recalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricRecalculationsTotal,
		Help: "Completed running-total recalculation passes, by scope.",
	}, []string{"scope"})
	r.recalculatedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricRecalculatedRecordsTotal,
		Help: "Driver records touched by recalculation, by outcome.",
	}, []string{"outcome"})
	r.recalculationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricRecalculationDurationSeconds,
		Help:    "Wall time of recalculation passes.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"scope"})
	r.reconciliations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricReconciliationsTotal,
		Help: "Driver reconciliations against open customer receivables, by whether totals changed.",
	}, []string{"changed"})
	r.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: MetricHTTPRequestsTotal,
		Help: "HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})
	r.httpRequestDurationSec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    MetricHTTPRequestDurationSeconds,
		Help:    "HTTP request latency, by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	r.registry.MustRegister(
		r.payments,
		r.paymentAmount,
		r.cylindersReturned,
		r.recalculations,
		r.recalculatedRecords,
		r.recalculationDuration,
		r.reconciliations,
		r.httpRequests,
		r.httpRequestDurationSec,
	)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// Gatherer exposes the underlying registry for scraping and tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// PaymentRecorded implements LedgerMetrics
func (r *Registry) PaymentRecorded(method ledger.PaymentMethod, amount decimal.Decimal) {
	r.payments.WithLabelValues(string(method)).Inc()
	r.paymentAmount.WithLabelValues(string(method)).Add(amount.InexactFloat64())
}

// CylindersReturned implements LedgerMetrics
func (r *Registry) CylindersReturned(size ledger.CylinderSize, quantity int) {
	r.cylindersReturned.WithLabelValues(string(size)).Add(float64(quantity))
}

// RecalculationCompleted implements LedgerMetrics
func (r *Registry) RecalculationCompleted(scope string, stats appledger.RecalculationStats, elapsed time.Duration) {
	r.recalculations.WithLabelValues(scope).Inc()
	r.recalculatedRecords.WithLabelValues("processed").Add(float64(stats.Processed))
	r.recalculatedRecords.WithLabelValues("updated").Add(float64(stats.Updated))
	r.recalculatedRecords.WithLabelValues("failed").Add(float64(stats.Failed))
	r.recalculationDuration.WithLabelValues(scope).Observe(elapsed.Seconds())
}

// DriverReconciled implements LedgerMetrics
func (r *Registry) DriverReconciled(changed bool) {
	r.reconciliations.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// ObserveHTTPRequest records one served request. route is the matched route
// template, never the raw path, to keep label cardinality bounded.
func (r *Registry) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpRequestDurationSec.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var _ appledger.LedgerMetrics = (*Registry)(nil)
