// Package metrics exposes Prometheus metrics for the analytics engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's own prometheus registry, kept separate from
// the default one so only our metrics are served.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// SLABreachedTickets is the breached-ticket count from the latest SLA run.
var SLABreachedTickets = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "civicpulse",
	Name:      "sla_breached_tickets",
	Help:      "Open tickets past their SLA target in the latest analytics run",
})

// SLAAtRiskTickets is the at-risk count from the latest SLA run.
var SLAAtRiskTickets = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "civicpulse",
	Name:      "sla_at_risk_tickets",
	Help:      "Open tickets with under 20% of their SLA window remaining",
})

// SkippedRecords counts records dropped for missing or malformed timestamps.
var SkippedRecords = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "civicpulse",
	Name:      "skipped_records_total",
	Help:      "Ticket records skipped by analyzers due to data errors",
})

// ReportRuns counts full engine executions by outcome.
var ReportRuns = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "civicpulse",
	Name:      "report_runs_total",
	Help:      "Analytics report runs by status",
}, []string{"status"})

// ReportDuration observes end-to-end engine run latency.
var ReportDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "civicpulse",
	Name:      "report_duration_seconds",
	Help:      "Wall-clock duration of a full analytics report run",
	Buckets:   prometheus.DefBuckets,
})

// SignalLookups counts SignalProvider calls by outcome; failures degrade to
// empty signals rather than failing a request.
var SignalLookups = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "civicpulse",
	Name:      "signal_lookups_total",
	Help:      "External signal provider lookups by outcome",
}, []string{"outcome"})
