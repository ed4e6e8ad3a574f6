// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package statistics_test

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/fixtures"
	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/statistics"
	"github.com/bitmark-inc/pricecache/store"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

func TestMetrics(t *testing.T) {
	s, _ := store.New(4)
	tracker := readiness.New(nil)
	p, err := ingest.New(logger.New(fixtures.LogCategory), ingest.Config{
		Store:   s,
		Tracker: tracker,
	})
	assert.Nil(t, err, "pipeline")

	assert.Nil(t, p.Ingest(context.Background(), 3, fixtures.RawBatch(3, 2, 100)), "ingest")
	_ = p.Ingest(context.Background(), 4, []byte("junk"))

	stats, err := statistics.New(statistics.Sources{
		Pipeline: p,
		Tracker:  tracker,
		Store:    s,
	})
	assert.Nil(t, err, "statistics")

	stats.ObserveQuery("Price.Latest", nil, time.Millisecond)
	stats.ObserveQuery("Price.Latest", errors.New("x"), time.Millisecond)

	w := httptest.NewRecorder()
	stats.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := ioutil.ReadAll(w.Body)
	text := string(body)

	for _, line := range []string{
		`pricecache_ingest_slots_total{outcome="ingested"} 1`,
		`pricecache_ingest_slots_total{outcome="malformed"} 1`,
		`pricecache_latest_observed_slot 4`,
		`pricecache_latest_completed_slot 3`,
		`pricecache_window_slots 1`,
		`pricecache_query_duration_seconds_count{method="Price.Latest",result="error"} 1`,
	} {
		assert.True(t, strings.Contains(text, line), "missing: %s", line)
	}

	families, err := stats.Gatherer().Gather()
	assert.Nil(t, err, "gather")
	assert.True(t, len(families) > 0, "families")
}
