// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package statistics - Prometheus exposition of the cache counters
package statistics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/store"
)

const namespace = "pricecache"

// Sources - components whose counters are exported, any may be nil
type Sources struct {
	Pipeline *ingest.Pipeline
	Resolver *resolver.Resolver
	Tracker  *readiness.Tracker
	Store    *store.Store
}

// Statistics - registry plus the query timing histogram
type Statistics struct {
	registry      *prometheus.Registry
	queryDuration *prometheus.HistogramVec
}

// New - create and register all metrics
func New(sources Sources) (*Statistics, error) {
	registry := prometheus.NewRegistry()

	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "time to answer a query",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"method", "result"})

	collectors := []prometheus.Collector{
		queryDuration,
		&collector{sources: sources},
		prometheus.NewGoCollector(),
	}
	for _, c := range collectors {
		if err := registry.Register(c); nil != err {
			return nil, err
		}
	}

	return &Statistics{
		registry:      registry,
		queryDuration: queryDuration,
	}, nil
}

// ObserveQuery - record the time taken by one query
func (s *Statistics) ObserveQuery(method string, err error, d time.Duration) {
	result := "ok"
	if nil != err {
		result = "error"
	}
	s.queryDuration.WithLabelValues(method, result).Observe(d.Seconds())
}

// Handler - the /metrics endpoint
func (s *Statistics) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Gatherer - for tests and custom exposition
func (s *Statistics) Gatherer() prometheus.Gatherer {
	return s.registry
}
