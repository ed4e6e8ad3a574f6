// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - this is to setup and handle all of the incoming JSON RPC requests
// from clients requiring price queries
//
// standard golang RPC services can be used on the client side to
// access these services, the same methods are also available as
// HTTP POST on /rpc together with /ready, /metrics and the
// historical updates endpoint
package rpc
