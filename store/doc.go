// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store - bounded, slot windowed, time indexed cache
//
// The store holds the entries of the most recent N slots.  Each key
// has its own ordered index of (time, slot) moments so that both the
// latest entry and the first entry at or after a time can be found in
// logarithmic time.
//
// All state lives in an immutable snapshot.  A commit builds the next
// snapshot, sharing unchanged index nodes with the current one, and
// publishes it with a single atomic swap, so readers never lock and
// never see part of a slot.  Commits are serialised by a mutex that
// readers do not touch.
package store
