// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc/ratelimit"
	"github.com/bitmark-inc/pricecache/store"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Node - type for RPC calls
type Node struct {
	Log      *logger.L
	Limiter  *rate.Limiter
	Start    time.Time
	Version  string
	Tracker  *readiness.Tracker
	Store    *store.Store
	Pipeline *ingest.Pipeline   // may be nil
	Resolver *resolver.Resolver // may be nil
	counter  *counter.Counter
}

// New - create the Node RPC
func New(log *logger.L, start time.Time, version string, counter *counter.Counter, tracker *readiness.Tracker, s *store.Store, pipeline *ingest.Pipeline, r *resolver.Resolver) *Node {
	return &Node{
		Log:      log,
		Limiter:  rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:    start,
		Version:  version,
		Tracker:  tracker,
		Store:    s,
		Pipeline: pipeline,
		Resolver: r,
		counter:  counter,
	}
}

// ---

// ReadyArguments - empty arguments for ready request
type ReadyArguments struct{}

// ReadyReply - readiness and the values it was decided on
type ReadyReply struct {
	Ready              bool            `json:"ready"`
	State              readiness.State `json:"state"`
	StalenessThreshold string          `json:"stalenessThreshold"`
	MaxSlotLag         uint64          `json:"maxSlotLag"`
}

// Ready - whether latest queries can be served
func (node *Node) Ready(_ *ReadyArguments, reply *ReadyReply) error {

	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}
	if nil == node.Tracker {
		return fault.ErrNotInitialised
	}

	staleness, lag := node.Tracker.Thresholds()
	reply.Ready = node.Tracker.IsReady(staleness, lag)
	reply.State = node.Tracker.State()
	reply.StalenessThreshold = staleness.String()
	reply.MaxSlotLag = lag
	return nil
}

// ---

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Version string          `json:"version"`
	Uptime  string          `json:"uptime"`
	RPCs    uint64          `json:"rpcs"`
	Ready   bool            `json:"ready"`
	Window  WindowInfo      `json:"window"`
	Ingest  ingest.Counts   `json:"ingest"`
	Queries resolver.Counts `json:"queries"`
}

// WindowInfo - the slots held by the cache
type WindowInfo struct {
	SizeSlots  int    `json:"sizeSlots"`
	Slots      int    `json:"slots"`
	Oldest     uint64 `json:"oldest"`
	OldestTime int64  `json:"oldestTime"`
	Newest     uint64 `json:"newest"`
	Keys       int    `json:"keys"`
}

// Info - return some information about this node
// only enough for clients to determine node state
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {

	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}
	if nil == node.Store || nil == node.Tracker {
		return fault.ErrNotInitialised
	}

	view := node.Store.Snapshot()
	reply.Window.SizeSlots = node.Store.SizeSlots()
	reply.Window.Slots = view.Len()
	if oldest, t, ok := view.WindowStart(); ok {
		reply.Window.Oldest = uint64(oldest)
		reply.Window.OldestTime = t
	}
	if newest, ok := view.Newest(); ok {
		reply.Window.Newest = uint64(newest)
	}
	reply.Window.Keys = len(view.Keys(store.NamespacePrice))

	if nil != node.Pipeline {
		reply.Ingest = node.Pipeline.Counts()
	}
	if nil != node.Resolver {
		reply.Queries = node.Resolver.Counts()
	}
	if nil != node.counter {
		reply.RPCs = node.counter.Uint64()
	}
	reply.Ready = node.Tracker.Ready()
	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	return nil
}
