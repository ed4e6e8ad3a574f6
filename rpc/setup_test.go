// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/archive"
	"github.com/bitmark-inc/pricecache/fixtures"
	"github.com/bitmark-inc/pricecache/historical"
	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc"
	"github.com/bitmark-inc/pricecache/rpc/listeners"
	"github.com/bitmark-inc/pricecache/rpc/price"
	"github.com/bitmark-inc/pricecache/rpc/server"
	"github.com/bitmark-inc/pricecache/statistics"
	"github.com/bitmark-inc/pricecache/store"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

type stack struct {
	pipeline *ingest.Pipeline
	server   *rpc.Server
	base     string
}

func setup(t *testing.T) *stack {
	log := logger.New(fixtures.LogCategory)

	s, _ := store.New(4)
	tracker := readiness.New(nil)

	a, err := archive.Open(log, filepath.Join(fixtures.Dir(), t.Name()+".leveldb"), false)
	assert.Nil(t, err, "archive")

	p, err := ingest.New(log, ingest.Config{Store: s, Tracker: tracker, Archive: a})
	assert.Nil(t, err, "pipeline")
	r, err := resolver.New(log, resolver.Config{Store: s, Tracker: tracker})
	assert.Nil(t, err, "resolver")
	stats, err := statistics.New(statistics.Sources{Pipeline: p, Resolver: r, Tracker: tracker, Store: s})
	assert.Nil(t, err, "statistics")

	srv, err := rpc.New(
		log,
		&listeners.RPCConfiguration{},
		&listeners.HTTPSConfiguration{
			MaximumConnections: 10,
			Listen:             []string{"127.0.0.1:0"},
		},
		"test",
		rpc.Dependencies{
			Dependencies: server.Dependencies{
				Resolver: r,
				Tracker:  tracker,
				Store:    s,
				Pipeline: p,
				Observer: stats,
			},
			Metrics:    stats.Handler(),
			Historical: historical.NewServer(log, a),
		},
	)
	assert.Nil(t, err, "new")
	assert.Nil(t, srv.Serve(), "serve")

	t.Cleanup(func() {
		srv.Run(nil, closed())
		a.Close()
	})

	return &stack{
		pipeline: p,
		server:   srv,
		base:     "http://" + srv.Addresses()[0],
	}
}

func closed() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

type rpcReply struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  interface{}     `json:"error"`
}

func call(t *testing.T, base string, method string, params interface{}) rpcReply {
	request, _ := json.Marshal(map[string]interface{}{
		"id":     1,
		"method": method,
		"params": []interface{}{params},
	})
	resp, err := http.Post(base+rpc.RPCPath, "application/json", bytes.NewReader(request))
	assert.Nil(t, err, "post")
	defer resp.Body.Close()

	var reply rpcReply
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&reply), "decode")
	return reply
}

func TestReadyEndpoint(t *testing.T) {
	st := setup(t)

	resp, err := http.Get(st.base + rpc.ReadyPath)
	assert.Nil(t, err, "get")
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "before ingest")

	assert.Nil(t, st.pipeline.Ingest(context.Background(), 1, fixtures.RawBatch(1, 3, time.Now().Unix())), "ingest")

	resp, err = http.Get(st.base + rpc.ReadyPath)
	assert.Nil(t, err, "get")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "after ingest")
}

func TestPriceOverHTTP(t *testing.T) {
	st := setup(t)

	reply := call(t, st.base, "Price.Latest", price.LatestArguments{ID: fixtures.FeedID(1).String()})
	assert.Equal(t, "not ready", reply.Error, "not ready")

	assert.Nil(t, st.pipeline.Ingest(context.Background(), 1, fixtures.RawBatch(1, 3, 100)), "ingest")

	reply = call(t, st.base, "Price.Latest", price.LatestArguments{ID: fixtures.FeedID(1).String()})
	assert.Nil(t, reply.Error, "latest error")
	var p price.Reply
	assert.Nil(t, json.Unmarshal(reply.Result, &p), "result")
	assert.Equal(t, uint64(1), p.Slot, "slot")
	assert.Equal(t, fixtures.FeedID(1), p.Record.ID, "feed")
	assert.Nil(t, p.Update.Verify(), "verify over the wire")

	reply = call(t, st.base, "Price.AtOrAfter", price.AtOrAfterArguments{ID: fixtures.FeedID(2).String(), Time: 50})
	assert.Nil(t, reply.Error, "at or after error")

	reply = call(t, st.base, "Price.Keys", price.KeysArguments{Count: 10})
	var keys price.KeysReply
	assert.Nil(t, json.Unmarshal(reply.Result, &keys), "keys")
	assert.Equal(t, 3, len(keys.Keys), "key count")

	reply = call(t, st.base, "Node.Info", struct{}{})
	assert.Nil(t, reply.Error, "info error")
	assert.True(t, strings.Contains(string(reply.Result), `"version":"test"`), "version")
}

func TestMetricsAndUpdatesEndpoints(t *testing.T) {
	st := setup(t)

	assert.Nil(t, st.pipeline.Ingest(context.Background(), 1, fixtures.RawBatch(1, 2, 100)), "ingest")
	_ = call(t, st.base, "Price.Latest", price.LatestArguments{ID: fixtures.FeedID(1).String()})

	resp, err := http.Get(st.base + rpc.MetricsPath)
	assert.Nil(t, err, "metrics")
	body, _ := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "pricecache_query_duration_seconds"), "histogram")

	resp, err = http.Get(st.base + historical.UpdatesPath + fixtures.FeedID(2).String() + "?time=50")
	assert.Nil(t, err, "updates")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "archived update")
}

func TestTLSRequiresCertificate(t *testing.T) {
	dir, err := ioutil.TempDir("", "rpc")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	cert, key, err := certgen.NewTLSCertPair("pricecache-test", time.Now().Add(time.Hour), false, nil)
	assert.Nil(t, err, "certgen")
	certFile := filepath.Join(dir, "rpc.crt")
	keyFile := filepath.Join(dir, "rpc.key")
	assert.Nil(t, ioutil.WriteFile(certFile, cert, 0600), "certificate")
	assert.Nil(t, ioutil.WriteFile(keyFile, key, 0600), "key")

	log := logger.New(fixtures.LogCategory)
	s, _ := store.New(4)
	tracker := readiness.New(nil)
	r, _ := resolver.New(log, resolver.Config{Store: s, Tracker: tracker})
	deps := rpc.Dependencies{
		Dependencies: server.Dependencies{Resolver: r, Tracker: tracker, Store: s},
	}

	_, err = rpc.New(log, &listeners.RPCConfiguration{
		MaximumConnections: 1,
		Listen:             []string{"127.0.0.1:0"},
		Certificate:        filepath.Join(dir, "missing.crt"),
		PrivateKey:         keyFile,
	}, &listeners.HTTPSConfiguration{}, "test", deps)
	assert.NotNil(t, err, "missing certificate")

	srv, err := rpc.New(log, &listeners.RPCConfiguration{
		MaximumConnections: 1,
		Listen:             []string{"127.0.0.1:0"},
		Certificate:        certFile,
		PrivateKey:         keyFile,
	}, &listeners.HTTPSConfiguration{}, "test", deps)
	assert.Nil(t, err, "tls listener")
	assert.Nil(t, srv.Serve(), "serve")
	assert.Equal(t, 1, len(srv.Addresses()), "addresses")
	srv.Run(nil, closed())
}
