package observability

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks total number of RPC requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_rpc_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"procedure", "code"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostledger_rpc_duration_seconds",
			Help:    "RPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"procedure"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hostledger_rpc_active_requests",
			Help: "Number of active RPC requests",
		},
		[]string{"procedure"},
	)

	// RowsParsed counts CSV rows that became reservations
	RowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_rows_parsed_total",
			Help: "CSV rows converted into reservations",
		},
		[]string{"dialect"},
	)

	// RowsDropped counts rows or candidates that were discarded
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_rows_dropped_total",
			Help: "Rows or extracted candidates rejected during ingestion",
		},
		[]string{"dialect", "reason"},
	)

	// FilesProcessed counts files by ingestion path and result
	FilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_files_processed_total",
			Help: "Files processed per ingestion path",
		},
		[]string{"path", "result"},
	)

	// ExtractionCalls counts external extraction calls by outcome
	ExtractionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostledger_extraction_calls_total",
			Help: "External extraction calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ExtractionDuration tracks how long a document takes end to end, retries included
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostledger_extraction_duration_seconds",
			Help:    "Time spent extracting a single document",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 45, 90, 180},
		},
		[]string{"provider"},
	)

	// StoreSize is the number of reservations currently held
	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hostledger_store_reservations",
			Help: "Reservations held in the merged store",
		},
	)
)

// NewMetricsInterceptor creates an interceptor that collects Prometheus metrics
func NewMetricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			ActiveRequests.WithLabelValues(procedure).Inc()
			defer ActiveRequests.WithLabelValues(procedure).Dec()

			start := time.Now()
			resp, err := next(ctx, req)
			RequestDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())

			RequestsTotal.WithLabelValues(procedure, codeLabel(err)).Inc()
			return resp, err
		}
	}
}

func codeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code().String()
	}
	return "unknown"
}
