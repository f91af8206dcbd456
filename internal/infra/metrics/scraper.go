package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(scrapeLatency, scrapeResults) }

var (
	scrapeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_latency_seconds",
			Help:    "Scraper call latency per resource.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"resource", "success"},
	)

	scrapeResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_results_total",
			Help: "Result records returned per resource.",
		},
		[]string{"resource"},
	)
)

func ObserveScrape(resource string, results int, latency time.Duration, success bool) {
	scrapeLatency.WithLabelValues(norm(resource), strconv.FormatBool(success)).Observe(latency.Seconds())
	scrapeResults.WithLabelValues(norm(resource)).Add(float64(results))
}
