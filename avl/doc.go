// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package avl - a persistent AVL balanced tree
//
// Nodes are never modified after creation: Insert and Delete copy the
// path from the root to the changed node and return a new tree that
// shares all other nodes with the original.  So a tree value can be
// handed to any number of concurrent readers while a single writer
// derives the next version from it, without any locking.
//
// The balancing follows the classic algorithm described by Niklaus
// Wirth in Algorithms + Data Structures = Programs, adapted to
// height fields so that rebalancing can be done while copying.
//
// Each node also records the size of its sub-tree to allow indexing
// by position.
package avl
