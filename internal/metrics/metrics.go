package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygate",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status class",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paygate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route"},
	)

	PaymentsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygate",
			Name:      "payments_created_total",
			Help:      "Payments accepted into processing",
		},
		[]string{"method"},
	)

	PaymentsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygate",
			Name:      "payments_rejected_total",
			Help:      "Payment requests rejected before persistence, by error code",
		},
		[]string{"code"},
	)

	Settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paygate",
			Name:      "settlements_total",
			Help:      "Applied settlements by method and terminal status",
		},
		[]string{"method", "status"},
	)

	SettlementLag = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "paygate",
			Name:      "settlement_lag_seconds",
			Help:      "Time between payment creation and its settlement",
			Buckets:   []float64{1, 2, 5, 7.5, 10, 15, 30, 60, 300},
		},
	)

	PendingSettlements = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "paygate",
			Name:      "pending_settlements",
			Help:      "Settlement tasks currently scheduled in this process",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PaymentsCreated,
		PaymentsRejected,
		Settlements,
		SettlementLag,
		PendingSettlements,
	)
}

func IncRequest(route, method, status string) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
}

func ObserveDuration(route string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(route).Observe(seconds)
}

func IncPaymentCreated(method string) {
	PaymentsCreated.WithLabelValues(method).Inc()
}

func IncPaymentRejected(code string) {
	PaymentsRejected.WithLabelValues(code).Inc()
}

func ObserveSettlement(method, status string, lagSeconds float64) {
	Settlements.WithLabelValues(method, status).Inc()
	SettlementLag.Observe(lagSeconds)
}
