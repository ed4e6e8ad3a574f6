// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pricefeed - price records and the batch wire format
//
// A batch is a protobuf message carrying the slot number, an optional
// timestamp and the canonical bytes of each price record.  The
// canonical record bytes are the Merkle leaf items.
//
// An Update is the self contained, verifiable form of one record as
// stored in the cache: record bytes, packed proof, slot, root and
// hasher name.
package pricefeed
