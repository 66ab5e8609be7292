package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobvector_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	EnrichedJobsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobvector_jobs_enriched_total",
			Help: "Total number of job postings enriched and stored.",
		},
	)
	EnrichmentFallbacksCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobvector_enrichment_fallbacks_total",
			Help: "Total number of enrichments that fell back to placeholder logic.",
		},
		[]string{"stage"},
	)
	EnrichmentStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "jobvector_enrichment_step_duration_seconds",
			Help:       "Duration of each step in the job enrichment process.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobvector_search_duration_seconds",
			Help:    "Duration of each similarity search in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	KeyRotationsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobvector_ai_key_rotations_total",
			Help: "Total number of API key rotations caused by rate limits.",
		},
	)
	KeysExhaustedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobvector_ai_keys_exhausted_total",
			Help: "Total number of calls that exhausted every configured API key.",
		},
	)
	RequestDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "jobvector_http_request_duration_seconds",
			Help:       "Duration of handled HTTP requests.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"route"},
	)
)

func StartMetricsServer(port int) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(EnrichedJobsCounter)
	prometheus.MustRegister(EnrichmentFallbacksCounter)
	prometheus.MustRegister(EnrichmentStepDuration)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(KeyRotationsCounter)
	prometheus.MustRegister(KeysExhaustedCounter)
	prometheus.MustRegister(RequestDuration)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), nil))
	}()
}
