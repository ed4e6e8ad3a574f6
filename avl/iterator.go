// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package avl

// First - return the node with the lowest key value
func (tree *Tree) First() *Node {
	return tree.Root().first()
}

// internal: lowest node in a sub-tree
func (p *Node) first() *Node {
	if nil == p {
		return nil
	}
	for nil != p.left {
		p = p.left
	}
	return p
}

// Last - return the node with the highest key value
func (tree *Tree) Last() *Node {
	return tree.Root().last()
}

// internal: highest node in a sub-tree
func (p *Node) last() *Node {
	if nil == p {
		return nil
	}
	for nil != p.right {
		p = p.right
	}
	return p
}

// Ascend - call f for every node with key >= from in ascending order
// until f returns false; a nil from starts at the first node
//
// there are no parent pointers, since nodes are shared between trees,
// so iteration is by recursion instead of Next/Prev
func (tree *Tree) Ascend(from Item, f func(*Node) bool) {
	ascend(tree.Root(), from, f)
}

func ascend(p *Node, from Item, f func(*Node) bool) bool {
	if nil == p {
		return true
	}
	if nil != from && -1 == p.key.Compare(from) { // p.key < from
		return ascend(p.right, from, f)
	}
	if !ascend(p.left, from, f) {
		return false
	}
	if !f(p) {
		return false
	}
	return ascend(p.right, from, f)
}

// Descend - call f for every node in descending order until f
// returns false
func (tree *Tree) Descend(f func(*Node) bool) {
	descend(tree.Root(), f)
}

func descend(p *Node, f func(*Node) bool) bool {
	if nil == p {
		return true
	}
	if !descend(p.right, f) {
		return false
	}
	if !f(p) {
		return false
	}
	return descend(p.left, f)
}
