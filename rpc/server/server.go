// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc/node"
	"github.com/bitmark-inc/pricecache/rpc/price"
	"github.com/bitmark-inc/pricecache/store"
)

// Dependencies - the components answered for
type Dependencies struct {
	Resolver *resolver.Resolver
	Tracker  *readiness.Tracker
	Store    *store.Store
	Pipeline *ingest.Pipeline // may be nil
	Observer price.Observer   // may be nil
	Timeout  time.Duration
}

// Create - an RPC server with all services registered
func Create(log *logger.L, version string, rpcCount *counter.Counter, deps Dependencies) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(price.New(log, deps.Resolver, deps.Observer, deps.Timeout))
	_ = server.Register(node.New(log, start, version, rpcCount, deps.Tracker, deps.Store, deps.Pipeline, deps.Resolver))

	return server
}
