package metrics

import "github.com/prometheus/client_golang/prometheus"

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HttpErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of failed HTTP requests (4xx/5xx)",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Total number of HTTP requests rejected due to rate limiting",
	},
)

var IdempotentReplaysTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "http_idempotent_replays_total",
		Help: "Total number of responses replayed for a repeated idempotency key",
	},
)

var MutationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tenancy_mutations_total",
		Help: "Total number of committed tenant-scoped mutations",
	},
	[]string{"entity", "operation"},
)

var AccessDeniedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tenancy_access_denied_total",
		Help: "Total number of lookups that collapsed to not found or access denied",
	},
	[]string{"entity"},
)

var SideEffectFailuresTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tenancy_side_effect_failures_total",
		Help: "Total number of swallowed activity or notification failures",
	},
	[]string{"kind"},
)

var SagaCompensationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "saga_compensations_total",
		Help: "Total number of saga runs that were compensated",
	},
	[]string{"saga", "result"},
)

var NotificationsDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "notification_intents_dropped_total",
		Help: "Total number of notification intents dropped because the queue was full",
	},
)

var KafkaPublishFailureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_publish_failure_total",
		Help: "Total number of failed Kafka publishes",
	},
	[]string{"topic"},
)

var NotificationsDeliveredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_delivered_total",
		Help: "Total number of push deliveries by outcome",
	},
	[]string{"status"},
)

var ExternalAPIDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "external_api_duration_seconds",
		Help:    "Duration of external API calls in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider", "service"},
)

func InitAPIMetrics() {
	prometheus.MustRegister(HttpRequestsTotal)
	prometheus.MustRegister(HttpRequestDuration)
	prometheus.MustRegister(HttpErrorsTotal)
	prometheus.MustRegister(HttpRateLimitRejectionsTotal)
	prometheus.MustRegister(IdempotentReplaysTotal)
}

func InitTenancyMetrics() {
	prometheus.MustRegister(MutationsTotal)
	prometheus.MustRegister(AccessDeniedTotal)
	prometheus.MustRegister(SideEffectFailuresTotal)
	prometheus.MustRegister(SagaCompensationsTotal)
	prometheus.MustRegister(NotificationsDroppedTotal)
	prometheus.MustRegister(KafkaPublishFailureTotal)
}

func InitWorkerMetrics() {
	prometheus.MustRegister(NotificationsDeliveredTotal)
	prometheus.MustRegister(ExternalAPIDuration)
}
