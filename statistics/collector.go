// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func desc(name string, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
}

var (
	ingestDesc    = desc("ingest_slots_total", "slots by ingest outcome", "outcome")
	queryDesc     = desc("queries_total", "queries by outcome", "outcome")
	readyDesc     = desc("ready", "1 when ready to serve latest prices")
	observedDesc  = desc("latest_observed_slot", "highest slot seen")
	completedDesc = desc("latest_completed_slot", "highest slot committed")
	windowDesc    = desc("window_slots", "slots currently held")
)

// reads the component counters at scrape time
type collector struct {
	sources Sources
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{ingestDesc, queryDesc, readyDesc, observedDesc, completedDesc, windowDesc} {
		ch <- d
	}
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v uint64, label string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), label)
	}
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}

	if p := c.sources.Pipeline; nil != p {
		counts := p.Counts()
		counter(ingestDesc, counts.Ingested, "ingested")
		counter(ingestDesc, counts.Duplicates, "duplicate")
		counter(ingestDesc, counts.Stale, "stale")
		counter(ingestDesc, counts.Malformed, "malformed")
		counter(ingestDesc, counts.ProofFailures, "proof_failure")
		counter(ingestDesc, counts.ArchiveFailures, "archive_failure")
	}

	if r := c.sources.Resolver; nil != r {
		counts := r.Counts()
		counter(queryDesc, counts.Hits, "hit")
		counter(queryDesc, counts.Misses, "miss")
		counter(queryDesc, counts.NotReady, "not_ready")
		counter(queryDesc, counts.Fallbacks, "fallback")
		counter(queryDesc, counts.FallbackCached, "fallback_cached")
		counter(queryDesc, counts.FallbackErrors, "fallback_error")
	}

	if t := c.sources.Tracker; nil != t {
		state := t.State()
		ready := 0.0
		if t.Ready() {
			ready = 1.0
		}
		gauge(readyDesc, ready)
		gauge(observedDesc, float64(state.LatestObservedSlot))
		gauge(completedDesc, float64(state.LatestCompletedSlot))
	}

	if s := c.sources.Store; nil != s {
		gauge(windowDesc, float64(s.Len()))
	}
}
