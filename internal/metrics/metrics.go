// Package metrics provides the Prometheus collector for match, commute, and
// ledger instrumentation, exposed at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates counters for the matching pipeline. All methods are
// nil-safe so components can run without instrumentation in tests.
type Collector struct {
	matchPairs         *prometheus.CounterVec
	checkFailures      *prometheus.CounterVec
	commuteLookups     *prometheus.CounterVec
	ledgerRecords      *prometheus.CounterVec
	areaDecodeFailures prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		matchPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padwatch_match_pairs_total",
			Help: "Evaluated (listing, alert) pairs by outcome.",
		}, []string{"outcome"}),
		checkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padwatch_match_check_failures_total",
			Help: "Failed match sub-checks by check name.",
		}, []string{"check"}),
		commuteLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padwatch_commute_lookups_total",
			Help: "Commute estimate lookups by outcome (hit, miss, error).",
		}, []string{"outcome"}),
		ledgerRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "padwatch_ledger_records_total",
			Help: "Ledger record attempts by dedup outcome (new, duplicate).",
		}, []string{"outcome"}),
		areaDecodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "padwatch_alert_area_decode_failures_total",
			Help: "Alerts whose stored area list failed to decode and was treated as empty.",
		}),
	}

	reg.MustRegister(
		c.matchPairs,
		c.checkFailures,
		c.commuteLookups,
		c.ledgerRecords,
		c.areaDecodeFailures,
	)
	return c
}

// RecordPair counts one evaluated pair outcome: match, no_match, skipped,
// or invalid.
func (c *Collector) RecordPair(outcome string) {
	if c == nil {
		return
	}
	c.matchPairs.WithLabelValues(outcome).Inc()
}

// RecordCheckFailure counts a failed sub-check by name.
func (c *Collector) RecordCheckFailure(check string) {
	if c == nil {
		return
	}
	c.checkFailures.WithLabelValues(check).Inc()
}

// RecordCommuteLookup counts a commute estimate lookup outcome.
func (c *Collector) RecordCommuteLookup(outcome string) {
	if c == nil {
		return
	}
	c.commuteLookups.WithLabelValues(outcome).Inc()
}

// RecordLedgerWrite counts a ledger record attempt by dedup outcome.
func (c *Collector) RecordLedgerWrite(outcome string) {
	if c == nil {
		return
	}
	c.ledgerRecords.WithLabelValues(outcome).Inc()
}

// RecordAreaDecodeFailure counts an alert area list that failed to decode.
// Surfaces a possible upstream data-quality bug instead of masking it.
func (c *Collector) RecordAreaDecodeFailure() {
	if c == nil {
		return
	}
	c.areaDecodeFailures.Inc()
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
