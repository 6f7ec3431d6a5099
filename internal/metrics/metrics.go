// Package metrics exposes the Prometheus instruments for the ingestion
// batch. Everything is registered on the default registry and served from
// the HTTP API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourcesSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_sources_succeeded_total",
		Help: "Source fetches that completed, including after retries.",
	})

	SourcesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_sources_failed_total",
		Help: "Source fetches that exhausted all retry attempts.",
	})

	EventsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_events_parsed_total",
		Help: "Normalized events emitted by adapters.",
	})

	EventsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_events_stored_total",
		Help: "New event rows created by ingestion.",
	})

	DupesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_dupes_merged_total",
		Help: "Cross-source duplicates marked stale.",
	})

	EventsEnriched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scout_events_enriched_total",
		Help: "Events that received venue registry location data.",
	})
)
