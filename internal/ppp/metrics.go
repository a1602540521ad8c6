package ppp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus reconciliation metrics.
var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pppmirror_operations_total",
			Help: "Engine operations by outcome (success or error kind).",
		},
		[]string{"operation", "result"},
	)
	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pppmirror_operation_duration_seconds",
			Help:    "Engine operation duration in seconds, device round trips included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	customersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pppmirror_customers_created_total",
			Help: "Customers derived from newly seen PPP secrets.",
		},
	)
	mirroredRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pppmirror_mirrored_rows",
			Help: "Rows written by the most recent profile or secret sync.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal)
	prometheus.MustRegister(operationDuration)
	prometheus.MustRegister(customersCreatedTotal)
	prometheus.MustRegister(mirroredRows)
}

func observe(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = string(KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	operationsTotal.WithLabelValues(op, result).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
