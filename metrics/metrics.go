package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	stepSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_step_submissions_total",
			Help: "Checkout step submissions by step and result (advanced/rejected).",
		},
		[]string{"step", "result"},
	)

	validationErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_validation_errors_total",
			Help: "Field validation failures by field and error kind.",
		},
		[]string{"field", "kind"},
	)

	promoApplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_promo_applications_total",
			Help: "Promo code lookups by result (applied/invalid/none).",
		},
		[]string{"result"},
	)

	checkoutsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_completed_total",
			Help: "Completed checkouts per plan and billing cycle.",
		},
		[]string{"plan", "billing"},
	)

	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Backend submissions by kind and status.",
		},
		[]string{"kind", "status"},
	)

	jobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "Background jobs by type and result.",
		},
		[]string{"type", "result"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"method", "status"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			stepSubmissions, validationErrors, promoApplications, checkoutsCompleted,
			submissionsTotal, jobsProcessed, httpDuration,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Checkout helpers --------

func RecordStep(step string, advanced bool) {
	result := "rejected"
	if advanced {
		result = "advanced"
	}
	stepSubmissions.WithLabelValues(norm(step), result).Inc()
}

func RecordValidationError(field, kind string) {
	validationErrors.WithLabelValues(field, norm(kind)).Inc()
}

func RecordPromo(result string) {
	promoApplications.WithLabelValues(norm(result)).Inc()
}

func RecordCompleted(plan, billing string) {
	checkoutsCompleted.WithLabelValues(norm(plan), norm(billing)).Inc()
}

// -------- Background helpers --------

func RecordSubmission(kind, status string) {
	submissionsTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func RecordJob(jobType, result string) {
	jobsProcessed.WithLabelValues(norm(jobType), norm(result)).Inc()
}

// -------- HTTP helpers --------

func ObserveHTTP(method string, status int, d time.Duration) {
	httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(float64(d.Milliseconds()))
}
