// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ingest

import (
	"github.com/bitmark-inc/pricecache/avl"
)

// completed slots are remembered for this many store windows so that a
// redelivery after eviction is still seen as a duplicate
const historyWindows = 2

type completedSlot uint64

func (s completedSlot) Compare(x interface{}) int {
	other := x.(completedSlot)
	switch {
	case s < other:
		return -1
	case s > other:
		return +1
	default:
		return 0
	}
}

// slots committed by this pipeline, oldest dropped first
type history struct {
	tree   *avl.Tree
	retain uint64
}

func newHistory(retain uint64) *history {
	return &history{
		tree:   avl.New(),
		retain: retain,
	}
}

func (h *history) add(slot uint64) {
	h.tree, _ = h.tree.Insert(completedSlot(slot), nil)
	if slot < h.retain {
		return
	}
	oldest := completedSlot(slot - h.retain)
	for first := h.tree.First(); nil != first; first = h.tree.First() {
		if first.Key().(completedSlot) >= oldest {
			break
		}
		h.tree, _ = h.tree.Delete(first.Key())
	}
}

func (h *history) contains(slot uint64) bool {
	node, _ := h.tree.Search(completedSlot(slot))
	return nil != node
}
