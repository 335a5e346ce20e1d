package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymtrack_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MembershipsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_memberships_created_total",
			Help: "Total number of memberships created",
		},
		[]string{"plan"},
	)

	MembershipCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymtrack_membership_cancellations_total",
			Help: "Total number of membership cancellations",
		},
	)

	PaymentsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_payments_recorded_total",
			Help: "Total number of payments recorded",
		},
		[]string{"stream", "method"},
	)

	RevenueCentavosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_revenue_centavos_total",
			Help: "Total revenue recorded in centavos",
		},
		[]string{"stream"},
	)

	WalkInSalesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_walkin_sales_total",
			Help: "Total number of walk-in pass sales",
		},
		[]string{"pass"},
	)

	ReportsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymtrack_reports_generated_total",
			Help: "Total number of analytics snapshots generated",
		},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymtrack_audit_events_total",
			Help: "Total number of audit events emitted",
		},
		[]string{"action", "status"},
	)

	AuditQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymtrack_audit_queue_length",
			Help: "Current length of the audit event queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordMembership(plan string) {
	MembershipsCreatedTotal.WithLabelValues(plan).Inc()
}

func RecordMembershipCancellation() {
	MembershipCancellationsTotal.Inc()
}

func RecordPayment(stream, method string, amountCentavos int64) {
	PaymentsRecordedTotal.WithLabelValues(stream, method).Inc()
	RevenueCentavosTotal.WithLabelValues(stream).Add(float64(amountCentavos))
}

func RecordWalkInSale(pass string) {
	WalkInSalesTotal.WithLabelValues(pass).Inc()
}

func RecordReportGenerated() {
	ReportsGeneratedTotal.Inc()
}

func RecordRateLimited(path string) {
	RateLimitedTotal.WithLabelValues(path).Inc()
}

func RecordAuditEvent(action, status string) {
	AuditEventsTotal.WithLabelValues(action, status).Inc()
}
