package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. HTTP traffic metrics live in the middleware package.
var (
	// RatingRecomputes counts average_rating recomputes by trigger
	// (review_created, review_deleted, manual).
	RatingRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rating_recomputes_total",
			Help: "Total number of movie average rating recomputes.",
		},
		[]string{"trigger"},
	)

	// ImportRecords counts bulk-import records by outcome
	// (created, updated, error).
	ImportRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_records_total",
			Help: "Total number of processed import records by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(RatingRecomputes, ImportRecords)
}
