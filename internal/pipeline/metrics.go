package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListingsExtracted counts raw listings produced by extraction.
	ListingsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_listings_extracted_total",
		Help: "The total number of raw listings extracted from all targets.",
	})
	// ListingsSubmitted counts listings accepted by the backend.
	ListingsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_listings_submitted_total",
		Help: "The total number of listings submitted to the backend.",
	})
	// ListingsSkipped counts listings dropped during reconciliation.
	ListingsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_listings_skipped_total",
		Help: "The total number of listings skipped during reconciliation.",
	})
	// FetchErrors counts targets that failed to acquire.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_fetch_errors_total",
		Help: "The total number of targets that failed to acquire.",
	})
)
