package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and search metrics.
var (
	DocumentsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Document create attempts by outcome",
		},
		[]string{"status"}, // ok, error
	)

	ChunksCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Chunks persisted during ingestion and backfill",
		},
	)

	SearchResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results_returned",
			Help:      "Results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

// RecordIngestion counts one create attempt and the chunks it stored.
func RecordIngestion(chunks int, err error) {
	if err != nil {
		DocumentsIngestedTotal.WithLabelValues("error").Inc()
		return
	}
	DocumentsIngestedTotal.WithLabelValues("ok").Inc()
	ChunksCreatedTotal.Add(float64(chunks))
}

// RecordSearch observes the size of one search response.
func RecordSearch(results int) {
	SearchResultsReturned.Observe(float64(results))
}
