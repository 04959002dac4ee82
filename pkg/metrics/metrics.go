// Package metrics holds the Prometheus collectors shared by the updater, the worker and the dashboard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	passesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "velastools_reconcile_passes_total", Help: "Reconciliation passes by kind, cluster and outcome"},
		[]string{"kind", "cluster", "status"},
	)
	passDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "velastools_reconcile_pass_duration_seconds", Help: "Reconciliation pass latency", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}},
		[]string{"kind", "cluster"},
	)
	rowsReplaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "velastools_rows_replaced_total", Help: "Per-epoch rows written by replace-window operations"},
		[]string{"kind", "cluster"},
	)
	validatorsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "velastools_validators_created_total", Help: "Validator identity rows created on first sighting"},
		[]string{"cluster"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "velastools_rpc_duration_seconds", Help: "JSON-RPC call latency", Buckets: prometheus.DefBuckets},
		[]string{"method", "status"},
	)
	grabberDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "velastools_grabber_duration_seconds", Help: "Reward grabber subprocess latency", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}},
		[]string{"status"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "velastools_http_requests_total", Help: "Dashboard HTTP requests"},
		[]string{"route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "velastools_http_request_duration_seconds", Help: "Dashboard request latency", Buckets: prometheus.DefBuckets},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		passesTotal,
		passDuration,
		rowsReplaced,
		validatorsCreated,
		rpcDuration,
		grabberDuration,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// ObservePass records the outcome of one reconciliation pass.
func ObservePass(kind, cluster string, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	passesTotal.WithLabelValues(kind, cluster, status).Inc()
	passDuration.WithLabelValues(kind, cluster).Observe(d.Seconds())
}

func AddRowsReplaced(kind, cluster string, n int) {
	rowsReplaced.WithLabelValues(kind, cluster).Add(float64(n))
}

func IncValidatorsCreated(cluster string) {
	validatorsCreated.WithLabelValues(cluster).Inc()
}

func ObserveRPC(method, status string, d time.Duration) {
	rpcDuration.WithLabelValues(method, status).Observe(d.Seconds())
}

func ObserveGrabber(status string, d time.Duration) {
	grabberDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveHTTP records a served dashboard request. Status codes are bucketed as 2xx/4xx/5xx.
func ObserveHTTP(route string, code int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(route, StatusClass(code)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
