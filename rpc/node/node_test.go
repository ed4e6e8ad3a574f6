// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/fixtures"
	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/rpc/node"
	"github.com/bitmark-inc/pricecache/store"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

func setup(t *testing.T) (*node.Node, *ingest.Pipeline, *time.Time) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	log := logger.New(fixtures.LogCategory)
	s, err := store.New(3)
	assert.Nil(t, err, "store")
	tracker := readiness.New(clock)
	p, err := ingest.New(log, ingest.Config{Store: s, Tracker: tracker, Clock: clock})
	assert.Nil(t, err, "pipeline")

	ctr := counter.Counter(3)
	n := node.New(log, time.Now(), "1.0", &ctr, tracker, s, p, nil)
	return n, p, &now
}

func TestNodeReady(t *testing.T) {
	n, p, now := setup(t)

	var reply node.ReadyReply
	assert.Nil(t, n.Ready(&node.ReadyArguments{}, &reply), "ready")
	assert.False(t, reply.Ready, "ready before ingest")

	assert.Nil(t, p.Ingest(context.Background(), 5, fixtures.RawBatch(5, 2, 100)), "ingest")
	reply = node.ReadyReply{}
	assert.Nil(t, n.Ready(&node.ReadyArguments{}, &reply), "ready")
	assert.True(t, reply.Ready, "ready after ingest")
	assert.Equal(t, uint64(5), reply.State.LatestCompletedSlot, "completed")
	assert.Equal(t, readiness.DefaultStalenessThreshold.String(), reply.StalenessThreshold, "threshold")

	*now = now.Add(time.Minute)
	reply = node.ReadyReply{}
	assert.Nil(t, n.Ready(&node.ReadyArguments{}, &reply), "ready")
	assert.False(t, reply.Ready, "stale")
}

func TestNodeInfo(t *testing.T) {
	n, p, _ := setup(t)

	for slot := uint64(1); slot <= 5; slot += 1 {
		assert.Nil(t, p.Ingest(context.Background(), slot, fixtures.RawBatch(slot, 2, int64(slot*10))), "ingest")
	}

	var reply node.InfoReply
	assert.Nil(t, n.Info(&node.InfoArguments{}, &reply), "info")
	assert.Equal(t, "1.0", reply.Version, "version")
	assert.Equal(t, uint64(3), reply.RPCs, "rpcs")
	assert.Equal(t, 3, reply.Window.SizeSlots, "size")
	assert.Equal(t, 3, reply.Window.Slots, "slots held")
	assert.Equal(t, uint64(3), reply.Window.Oldest, "oldest")
	assert.Equal(t, uint64(5), reply.Window.Newest, "newest")
	assert.Equal(t, 2, reply.Window.Keys, "keys")
	assert.Equal(t, uint64(5), reply.Ingest.Ingested, "ingested")
	assert.True(t, reply.Ready, "ready")
}
