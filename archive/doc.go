// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package archive - durable LevelDB copy of committed slots
//
// keys are prefixed by a pool byte:
//
//   'B' slot                   → slot header
//   'P' feed id | time | slot  → packed update
//
// all integers are big endian so that iteration order is numeric
// order, which makes at-or-after lookups a single seek
package archive
