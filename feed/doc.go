// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package feed - upstream price batches over ZeroMQ
//
// The upstream publishes one two-frame message per slot:
//
//   frame 0: slot number, 8 bytes big endian
//   frame 1: raw batch bytes (pricefeed.BatchMessage)
//
// The Subscriber connects to one or more publishers, optionally with
// CURVE encryption, and delivers each message as a pricefeed.Message
// on its output channel.  Ordering and duplicates are not handled
// here; that is the job of the ingest pipeline.
package feed
