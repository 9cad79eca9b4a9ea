// Package observability holds the Prometheus collectors for the activity log.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mutationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_log",
		Subsystem: "store",
		Name:      "mutations_total",
		Help:      "Number of accepted store mutations, labeled by operation.",
	}, []string{"op"})

	validationCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_log",
		Subsystem: "store",
		Name:      "validation_failures_total",
		Help:      "Number of create/update calls rejected by validation.",
	})

	storageFailureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_log",
		Subsystem: "store",
		Name:      "storage_failures_total",
		Help:      "Number of durable slot writes that failed.",
	})

	sweepCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_log",
		Subsystem: "scheduler",
		Name:      "sweeps_total",
		Help:      "Number of expiry sweeps run.",
	})

	purgedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "activity_log",
		Subsystem: "scheduler",
		Name:      "activities_purged_total",
		Help:      "Number of past-dated activities removed by expiry sweeps.",
	})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "activity_log",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, labeled by method, route pattern, and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(mutationsCounter, validationCounter, storageFailureCounter, sweepCounter, purgedCounter, requestDuration)
}

// RecordMutation counts an accepted create, update, or delete.
func RecordMutation(op string) {
	mutationsCounter.WithLabelValues(op).Inc()
}

// RecordValidationFailure counts a rejected create or update.
func RecordValidationFailure() {
	validationCounter.Inc()
}

// RecordStorageFailure counts a failed slot write.
func RecordStorageFailure() {
	storageFailureCounter.Inc()
}

// RecordSweep counts a completed expiry sweep and how many records it removed.
func RecordSweep(purged int) {
	sweepCounter.Inc()
	if purged > 0 {
		purgedCounter.Add(float64(purged))
	}
}

// RecordRequest observes one served HTTP request. route is the matched
// pattern (e.g. "/activities/{id}"), not the raw path, to bound cardinality.
func RecordRequest(method, route string, status int, d time.Duration) {
	requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
