// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

import (
	"fmt"
)

// CheckBalance - verify ordering, heights, balance and counts
func (tree *Tree) CheckBalance() bool {
	_, ok := check(tree.Root(), nil, nil)
	return ok
}

// internal: consistency checker, returns the height of the sub-tree
func check(p *Node, low Item, high Item) (int, bool) {
	if nil == p {
		return 0, true
	}
	if nil != low && 1 != p.key.Compare(low) {
		fmt.Printf("fail at node: %v  not greater than: %v\n", p.key, low)
		return 0, false
	}
	if nil != high && -1 != p.key.Compare(high) {
		fmt.Printf("fail at node: %v  not less than: %v\n", p.key, high)
		return 0, false
	}
	hl, ok := check(p.left, low, p.key)
	if !ok {
		return 0, false
	}
	hr, ok := check(p.right, p.key, high)
	if !ok {
		return 0, false
	}
	if hl-hr > 1 || hr-hl > 1 {
		fmt.Printf("fail at node: %v  unbalanced: left: %d  right: %d\n", p.key, hl, hr)
		return 0, false
	}
	h := hl
	if hr > h {
		h = hr
	}
	h += 1
	if h != p.height {
		fmt.Printf("fail at node: %v  height: %d  expected: %d\n", p.key, p.height, h)
		return 0, false
	}
	if p.size != 1+p.left.count()+p.right.count() {
		fmt.Printf("fail at node: %v  count: %d  expected: %d\n", p.key, p.size, 1+p.left.count()+p.right.count())
		return 0, false
	}
	return h, true
}
