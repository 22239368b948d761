// Package metrics exposes Prometheus counters for proxy interception and
// subtitle downloads.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subgrab"

// Metrics owns a private registry so tests can build independent instances.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsRewritten prometheus.Counter
	responsesObserved *prometheus.CounterVec
	tracksObserved    prometheus.Counter
	hookFailures      *prometheus.CounterVec
	bodiesSkipped     *prometheus.CounterVec
	downloads         *prometheus.CounterVec
	fetches           *prometheus.CounterVec
	droppedEvents     prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsRewritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intercept",
			Name:      "requests_rewritten_total",
			Help:      "Outgoing request bodies that had the subtitle format injected.",
		}),
		responsesObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intercept",
			Name:      "records_matched_total",
			Help:      "Subtitle-bearing records recognized in responses, by shape.",
		}, []string{"shape"}),
		tracksObserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intercept",
			Name:      "tracks_observed_total",
			Help:      "Usable tracks extracted from matched records.",
		}),
		hookFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intercept",
			Name:      "hook_failures_total",
			Help:      "Errors or panics recovered inside interception hooks.",
		}, []string{"hook"}),
		bodiesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intercept",
			Name:      "bodies_skipped_total",
			Help:      "Bodies forwarded without inspection, by reason.",
		}, []string{"reason"}),
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "requests_total",
			Help:      "Subtitle download requests, by outcome.",
		}, []string{"outcome"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "blob_lookups_total",
			Help:      "Raw subtitle blob lookups, by cache result.",
		}, []string{"result"}),
		droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Notifications dropped for slow subscribers.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsRewritten,
		m.responsesObserved,
		m.tracksObserved,
		m.hookFailures,
		m.bodiesSkipped,
		m.downloads,
		m.fetches,
		m.droppedEvents,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RequestRewritten() {
	if m != nil {
		m.requestsRewritten.Inc()
	}
}

func (m *Metrics) RecordMatched(shape string, tracks int) {
	if m != nil {
		m.responsesObserved.WithLabelValues(shape).Inc()
		m.tracksObserved.Add(float64(tracks))
	}
}

func (m *Metrics) HookFailed(hook string) {
	if m != nil {
		m.hookFailures.WithLabelValues(hook).Inc()
	}
}

func (m *Metrics) BodySkipped(reason string) {
	if m != nil {
		m.bodiesSkipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) DownloadFinished(outcome string) {
	if m != nil {
		m.downloads.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) BlobLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.fetches.WithLabelValues("hit").Inc()
		return
	}
	m.fetches.WithLabelValues("miss").Inc()
}

func (m *Metrics) EventDropped() {
	if m != nil {
		m.droppedEvents.Inc()
	}
}
