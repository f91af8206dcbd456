package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		queueRunning,
		queuePending,
		queueJobsTotal,
		queueJobDuration,
		queueWaitDuration,
	)
}

var (
	queueRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resource_queue_running",
			Help: "Jobs currently executing per resource.",
		},
		[]string{"resource"},
	)

	queuePending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "resource_queue_pending",
			Help: "Jobs waiting for a free slot per resource.",
		},
		[]string{"resource"},
	)

	queueJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resource_queue_jobs_total",
			Help: "Jobs finished per resource, labeled by status.",
		},
		[]string{"resource", "status"}, // 'completed', 'failed', 'panicked', 'cancelled'
	)

	queueJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_queue_job_duration_seconds",
			Help:    "Job execution time per resource.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"resource"},
	)

	queueWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_queue_wait_seconds",
			Help:    "Time between submit and start per resource.",
			Buckets: []float64{0, 0.1, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"resource"},
	)
)

func SetQueueDepth(resource string, running, pending int) {
	queueRunning.WithLabelValues(norm(resource)).Set(float64(running))
	queuePending.WithLabelValues(norm(resource)).Set(float64(pending))
}

func ObserveQueueJob(resource, status string, d time.Duration) {
	queueJobsTotal.WithLabelValues(norm(resource), norm(status)).Inc()
	if status != "cancelled" {
		queueJobDuration.WithLabelValues(norm(resource)).Observe(d.Seconds())
	}
}

func ObserveQueueWait(resource string, d time.Duration) {
	queueWaitDuration.WithLabelValues(norm(resource)).Observe(d.Seconds())
}
